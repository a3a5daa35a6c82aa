package media

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/kadikoy/service/internal/apperr"
)

// multipartMemory is how much of a form is buffered in memory before
// spilling to temporary files.
const multipartMemory = 8 << 20

// formOverhead leaves room for multipart boundaries and other fields on top
// of the file size limit.
const formOverhead = 1 << 20

// Upload is a parsed multipart request carrying one file field.
type Upload struct {
	File File
	form *multipart.Form
	part multipart.File
}

// Close releases the file and any temporary files of the form.
func (u *Upload) Close() {
	if u.part != nil {
		_ = u.part.Close()
	}
	if u.form != nil {
		_ = u.form.RemoveAll()
	}
}

// Value returns a non-file form field.
func (u *Upload) Value(name string) string {
	if u.form == nil {
		return ""
	}
	if v := u.form.Value[name]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

// ReadUpload parses a multipart request whose file is in field. The body is
// capped at maxBytes plus form overhead; the exact size rule is left to Policy.
// When the part's Content-Type is missing or generic it is sniffed from the content.
func ReadUpload(w http.ResponseWriter, r *http.Request, field string, maxBytes int64) (*Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+formOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperr.Validationf("file size must not exceed %s", formatBytes(maxBytes))
		}
		return nil, apperr.Validation("invalid multipart form")
	}

	up := &Upload{form: r.MultipartForm}
	part, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		up.Close()
		return nil, apperr.Validation("no file selected")
	}
	if err != nil {
		up.Close()
		return nil, apperr.Validation("invalid file field")
	}
	up.part = part

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType, err = sniff(part)
		if err != nil {
			up.Close()
			return nil, apperr.Validation("could not read uploaded file")
		}
	}

	up.File = File{
		Name:        header.Filename,
		Size:        header.Size,
		ContentType: contentType,
		Body:        part,
	}
	return up, nil
}

func sniff(f multipart.File) (string, error) {
	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return mt.String(), nil
}
