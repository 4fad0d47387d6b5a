package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initBuildMetrics() {
	r.PathsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "routegen_paths_total",
			Help: "Paths reaching a demand point, by enumeration outcome",
		},
		[]string{"outcome"},
	)

	r.DecompositionsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "routegen_decompositions_total",
			Help: "Total number of path decompositions produced",
		},
	)

	r.RoutesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "routegen_routes_total",
			Help: "Total number of routes generated, by stage count",
		},
		[]string{"stages"},
	)

	r.UnroutedDemandPointsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "routegen_unrouted_demand_points_total",
			Help: "Demand points for which no admissible path was found",
		},
	)

	r.BuildDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "routegen_build_duration_seconds",
			Help:    "Catalog build duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
	)

	r.CatalogRoutes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "routegen_catalog_routes",
			Help: "Number of routes in the last built catalog",
		},
	)
}
