// Package storage defines the interface for object storage operations.
// Swap implementations by changing the concrete type injected at startup:
// MinioStore works with any S3-compatible provider, S3Store talks to AWS directly.
package storage

import (
	"context"
	"io"
	"strings"
)

// ObjectStore uploads, deletes and lists opaque blobs in a bucket.
type ObjectStore interface {
	// Upload puts the whole body under key in a single request and returns its public URL.
	// The object is publicly readable as soon as Upload returns nil.
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	// Delete removes the object at key. A missing key is not an error.
	Delete(ctx context.Context, key string) error
	// List returns the keys under prefix with the prefix stripped, in no particular order.
	List(ctx context.Context, prefix string) ([]string, error)
	// BuildURL returns the public URL of name inside folder without any network call.
	BuildURL(name, folder string) string
}

// URLBuilder constructs deterministic public object URLs.
type URLBuilder struct {
	base string
}

// NewURLBuilder returns a builder for https://{bucket}.s3.{region}.amazonaws.com, or for
// publicBase when it is set (CDN or local MinIO, e.g. "http://localhost:9000/kadikoy-media").
func NewURLBuilder(bucket, region, publicBase string) URLBuilder {
	base := strings.TrimRight(strings.TrimSpace(publicBase), "/")
	if base == "" {
		base = "https://" + bucket + ".s3." + region + ".amazonaws.com"
	}
	return URLBuilder{base: base}
}

// BuildURL returns {base}/{folder}{name}.
func (b URLBuilder) BuildURL(name, folder string) string {
	return b.base + "/" + folder + name
}

// PublicURL returns {base}/{key}.
func (b URLBuilder) PublicURL(key string) string {
	return b.base + "/" + key
}

// stripPrefix trims prefix from every key and drops keys that become empty
// (the folder placeholder object itself).
func stripPrefix(prefix string, keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		rel := strings.TrimPrefix(k, prefix)
		if rel == "" {
			continue
		}
		out = append(out, rel)
	}
	return out
}
