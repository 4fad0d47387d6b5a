package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initStorageMetrics() {
	r.StorageOperationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "routegen_storage_operations_total",
			Help: "Total number of catalog storage operations",
		},
		[]string{"backend", "operation", "status"},
	)

	r.StorageOperationDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "routegen_storage_operation_duration_seconds",
			Help:    "Catalog storage operation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
		[]string{"backend", "operation"},
	)

	r.StoragePayloadBytes = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "routegen_storage_payload_bytes",
			Help:    "Size of catalog payloads written or read",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		},
		[]string{"backend", "operation"},
	)
}
