package storage

import (
	"context"
	"io"
	"time"

	"github.com/kadikoy/service/internal/apperr"
	"github.com/kadikoy/service/internal/metrics"
)

// HealthChecker is implemented by stores that can probe their backend.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Instrumented wraps an ObjectStore, recording Prometheus metrics per call and
// classifying backend failures as storage errors.
type Instrumented struct {
	next ObjectStore
}

// WithMetrics returns next wrapped in an Instrumented store.
func WithMetrics(next ObjectStore) *Instrumented {
	return &Instrumented{next: next}
}

func (s *Instrumented) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	start := time.Now()
	url, err := s.next.Upload(ctx, key, body, size, contentType)
	observe("upload", start, err)
	if err != nil {
		return "", apperr.Storage("object storage upload failed", err)
	}
	return url, nil
}

func (s *Instrumented) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := s.next.Delete(ctx, key)
	observe("delete", start, err)
	if err != nil {
		return apperr.Storage("object storage delete failed", err)
	}
	return nil
}

func (s *Instrumented) List(ctx context.Context, prefix string) ([]string, error) {
	start := time.Now()
	keys, err := s.next.List(ctx, prefix)
	observe("list", start, err)
	if err != nil {
		return nil, apperr.Storage("object storage list failed", err)
	}
	return keys, nil
}

func (s *Instrumented) BuildURL(name, folder string) string {
	return s.next.BuildURL(name, folder)
}

// Health delegates to the wrapped store when it supports health checks.
func (s *Instrumented) Health(ctx context.Context) error {
	if hc, ok := s.next.(HealthChecker); ok {
		return hc.Health(ctx)
	}
	return nil
}

func observe(op string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RecordStorageOperation(op, status, time.Since(start).Seconds())
}
