package metrics

import (
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RecordPathSearch records the outcome counts of one path enumeration
func (r *Registry) RecordPathSearch(recorded, excluded, overLimit, pruned int) {
	r.PathsTotal.WithLabelValues(OutcomeRecorded).Add(float64(recorded))
	r.PathsTotal.WithLabelValues(OutcomeExcluded).Add(float64(excluded))
	r.PathsTotal.WithLabelValues(OutcomeOverLimit).Add(float64(overLimit))
	r.PathsTotal.WithLabelValues(OutcomePruned).Add(float64(pruned))
}

// RecordDecompositions records decompositions produced for one path
func (r *Registry) RecordDecompositions(n int) {
	r.DecompositionsTotal.Add(float64(n))
}

// RecordRoute records one generated route by its stage count
func (r *Registry) RecordRoute(stages int) {
	r.RoutesTotal.WithLabelValues(strconv.Itoa(stages)).Inc()
}

// RecordUnroutedDemandPoint records a demand point no path reached
func (r *Registry) RecordUnroutedDemandPoint() {
	r.UnroutedDemandPointsTotal.Inc()
}

// RecordBuild records a finished catalog build
func (r *Registry) RecordBuild(duration time.Duration, routes int) {
	r.BuildDuration.Observe(duration.Seconds())
	r.CatalogRoutes.Set(float64(routes))
}

// RecordStorageOperation records a storage operation
func (r *Registry) RecordStorageOperation(backend, operation, status string, duration time.Duration) {
	r.StorageOperationsTotal.WithLabelValues(backend, operation, status).Inc()
	r.StorageOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

// RecordStoragePayload records the size of a payload moved by a backend
func (r *Registry) RecordStoragePayload(backend, operation string, bytes int) {
	r.StoragePayloadBytes.WithLabelValues(backend, operation).Observe(float64(bytes))
}

// UpdateSystemMetrics samples runtime statistics
func (r *Registry) UpdateSystemMetrics(started time.Time) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	r.UptimeSeconds.Set(time.Since(started).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.HeapAllocBytes.Set(float64(mem.HeapAlloc))
	r.HeapObjects.Set(float64(mem.HeapObjects))
	r.GCCycles.Set(float64(mem.NumGC))
}

// WriteTextfile writes every metric in the text exposition format, for
// collection by a node exporter textfile collector
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
