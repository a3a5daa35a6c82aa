// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kadikoy",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kadikoy",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "route"},
	)

	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kadikoy",
			Subsystem: "media",
			Name:      "uploads_total",
			Help:      "Total media uploads by outcome",
		},
		[]string{"domain", "status"},
	)

	UploadBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kadikoy",
			Subsystem: "media",
			Name:      "upload_bytes_total",
			Help:      "Total bytes uploaded",
		},
		[]string{"domain"},
	)

	OrphanedObjectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kadikoy",
			Subsystem: "media",
			Name:      "orphaned_objects_total",
			Help:      "Objects left in storage without a media record",
		},
		[]string{"reason"},
	)

	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kadikoy",
			Subsystem: "storage",
			Name:      "operations_total",
			Help:      "Total object storage operations",
		},
		[]string{"operation", "status"},
	)

	StorageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kadikoy",
			Subsystem: "storage",
			Name:      "duration_seconds",
			Help:      "Object storage operation duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"operation"},
	)
)

// RecordRequest records an HTTP request.
func RecordRequest(method, route, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, route, status).Inc()
	RequestDuration.WithLabelValues(method, route).Observe(durationSec)
}

// RecordUpload records a media upload attempt.
func RecordUpload(domain, status string, bytes int64) {
	UploadsTotal.WithLabelValues(domain, status).Inc()
	if status == "success" {
		UploadBytesTotal.WithLabelValues(domain).Add(float64(bytes))
	}
}

// RecordOrphan counts an object that may have outlived its media record.
func RecordOrphan(reason string) {
	OrphanedObjectsTotal.WithLabelValues(reason).Inc()
}

// RecordStorageOperation records an object storage call.
func RecordStorageOperation(operation, status string, durationSec float64) {
	StorageOperationsTotal.WithLabelValues(operation, status).Inc()
	StorageDuration.WithLabelValues(operation).Observe(durationSec)
}
