package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// initProcessMetrics registers the gauges sampled once per command run
func (r *Registry) initProcessMetrics() {
	factory := promauto.With(r.registry)

	r.UptimeSeconds = factory.NewGauge(prometheus.GaugeOpts{
		Name: "routegen_run_seconds",
		Help: "Wall time of the command so far",
	})
	r.GoRoutines = factory.NewGauge(prometheus.GaugeOpts{
		Name: "routegen_goroutines",
		Help: "Goroutines alive when metrics were sampled",
	})
	r.HeapAllocBytes = factory.NewGauge(prometheus.GaugeOpts{
		Name: "routegen_heap_alloc_bytes",
		Help: "Live heap bytes when metrics were sampled",
	})
	r.HeapObjects = factory.NewGauge(prometheus.GaugeOpts{
		Name: "routegen_heap_objects",
		Help: "Live heap objects when metrics were sampled",
	})
	r.GCCycles = factory.NewGauge(prometheus.GaugeOpts{
		Name: "routegen_gc_cycles",
		Help: "Completed garbage collection cycles",
	})
}
