package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingest counters
	IngestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clipvault",
			Name:      "ingests_total",
			Help:      "Total ingestion attempts",
		},
		[]string{"status"},
	)

	IngestBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clipvault",
			Name:      "ingest_bytes_total",
			Help:      "Total processed bytes persisted",
		},
	)

	// Transcode duration histogram
	TranscodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clipvault",
			Name:      "transcode_duration_seconds",
			Help:      "Transcode duration in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"status"},
	)

	// Object storage operations counter
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clipvault",
			Name:      "storage_operations_total",
			Help:      "Total object storage operations",
		},
		[]string{"operation", "status"},
	)

	// Object storage operation duration
	StorageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clipvault",
			Name:      "storage_duration_seconds",
			Help:      "Object storage operation duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 15},
		},
		[]string{"operation"},
	)

	// Presign URL duration
	PresignDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "clipvault",
			Name:      "presign_duration_seconds",
			Help:      "Signed URL generation duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	// Deletion counter
	DeletesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clipvault",
			Name:      "deletes_total",
			Help:      "Total deletion attempts",
		},
		[]string{"status"},
	)
)

// RecordIngest records an ingestion attempt
func RecordIngest(status string, processedBytes int64) {
	IngestsTotal.WithLabelValues(status).Inc()
	if status == "success" {
		IngestBytesTotal.Add(float64(processedBytes))
	}
}

// RecordTranscode records a transcode run
func RecordTranscode(status string, durationSec float64) {
	TranscodeDuration.WithLabelValues(status).Observe(durationSec)
}

// RecordStorageOperation records an object storage operation
func RecordStorageOperation(operation, status string, durationSec float64) {
	StorageOperationsTotal.WithLabelValues(operation, status).Inc()
	StorageDuration.WithLabelValues(operation).Observe(durationSec)
}

// RecordPresign records signed URL generation
func RecordPresign(durationSec float64) {
	PresignDuration.Observe(durationSec)
}

// RecordDelete records a deletion attempt
func RecordDelete(status string) {
	DeletesTotal.WithLabelValues(status).Inc()
}
