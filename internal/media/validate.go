package media

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kadikoy/service/internal/apperr"
)

// Policy is the size and extension rule set for uploads.
type Policy struct {
	MaxBytes   int64
	Extensions []string
}

// NewPolicy returns a policy with lowercased extensions.
func NewPolicy(maxBytes int64, extensions []string) Policy {
	exts := make([]string, 0, len(extensions))
	for _, e := range extensions {
		exts = append(exts, strings.ToLower(e))
	}
	return Policy{MaxBytes: maxBytes, Extensions: exts}
}

// WithMaxBytes returns a copy of p with a different size limit.
func (p Policy) WithMaxBytes(n int64) Policy {
	p.MaxBytes = n
	return p
}

// Validate checks presence, size and extension in that order and stops at the
// first failure. It never touches the file body.
func (p Policy) Validate(f File) error {
	if f.Body == nil || f.Size <= 0 {
		return apperr.Validation("file is empty or missing")
	}
	if p.MaxBytes > 0 && f.Size > p.MaxBytes {
		return apperr.Validationf("file size must not exceed %s", formatBytes(p.MaxBytes))
	}
	if !p.allows(Extension(f.Name)) {
		return apperr.Validationf("only the following file types are allowed: %s", strings.Join(p.Extensions, ", "))
	}
	return nil
}

func (p Policy) allows(ext string) bool {
	if ext == "" {
		return false
	}
	for _, e := range p.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Extension returns the lowercased extension of name, including the dot.
func Extension(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

func formatBytes(n int64) string {
	const mb = 1024 * 1024
	if n%mb == 0 {
		return strconv.FormatInt(n/mb, 10) + " MB"
	}
	return strconv.FormatInt(n, 10) + " bytes"
}
