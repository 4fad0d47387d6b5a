package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Path outcome label values
const (
	OutcomeRecorded  = "recorded"
	OutcomeExcluded  = "excluded"
	OutcomeOverLimit = "over_limit"
	OutcomePruned    = "pruned"
)

// Storage status label values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Registry holds all metrics for the application
type Registry struct {
	// Build Metrics
	PathsTotal                *prometheus.CounterVec
	DecompositionsTotal       prometheus.Counter
	RoutesTotal               *prometheus.CounterVec
	UnroutedDemandPointsTotal prometheus.Counter
	BuildDuration             prometheus.Histogram
	CatalogRoutes             prometheus.Gauge

	// Storage Metrics
	StorageOperationsTotal   *prometheus.CounterVec
	StorageOperationDuration *prometheus.HistogramVec
	StoragePayloadBytes      *prometheus.HistogramVec

	// Process Metrics
	UptimeSeconds  prometheus.Gauge
	GoRoutines     prometheus.Gauge
	HeapAllocBytes prometheus.Gauge
	HeapObjects    prometheus.Gauge
	GCCycles       prometheus.Gauge

	registry *prometheus.Registry
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	// Initialize all metrics
	r.initBuildMetrics()
	r.initStorageMetrics()
	r.initProcessMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
