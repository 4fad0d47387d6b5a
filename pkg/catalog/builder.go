package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/ranroutes/pkg/compose"
	"github.com/dd0wney/ranroutes/pkg/graph"
	"github.com/dd0wney/ranroutes/pkg/logging"
	"github.com/dd0wney/ranroutes/pkg/metrics"
	"github.com/dd0wney/ranroutes/pkg/parallel"
)

// DefaultPathLimit keeps at most DefaultPathLimit-1 paths per demand point
const DefaultPathLimit = 4

// ErrLinkNotFound is matched by every *LinkNotFoundError
var ErrLinkNotFound = errors.New("link not found")

// LinkNotFoundError reports a segment pair missing from the link table
type LinkNotFoundError struct {
	From graph.NodeID
	To   graph.NodeID
	Err  error
}

func (e *LinkNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no link %s -> %s: %v", e.From, e.To, e.Err)
	}
	return fmt.Sprintf("no link %s -> %s", e.From, e.To)
}

func (e *LinkNotFoundError) Unwrap() error { return e.Err }

func (e *LinkNotFoundError) Is(target error) bool { return target == ErrLinkNotFound }

// Source is the topology a catalog is built from
type Source interface {
	Graph() *graph.NetworkGraph
	DemandPoints() []graph.NodeID
	HostingUnits(node graph.NodeID) []compose.UnitID
	LinkDelay(from, to graph.NodeID) (float64, error)
}

// BuilderConfig controls path enumeration and decomposition
type BuilderConfig struct {
	// PathLimit bounds paths per demand point; at most PathLimit-1 are kept
	PathLimit int
	// Exclusion rejects paths; nil means graph.DefaultExclusion
	Exclusion graph.ExclusionPolicy
	// MaxPathNodes prunes longer branches; 0 is unbounded
	MaxPathNodes int
	// MaxDecompositions fails a path that fans out further; 0 is unbounded
	MaxDecompositions int
	// Workers above 1 builds demand points concurrently
	Workers int
}

// DefaultBuilderConfig returns the stock enumeration settings
func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{
		PathLimit: DefaultPathLimit,
		Exclusion: graph.DefaultExclusion(),
		Workers:   1,
	}
}

// BuilderOption configures a Builder
type BuilderOption func(*Builder)

// WithLogger sets the builder logger
func WithLogger(logger logging.Logger) BuilderOption {
	return func(b *Builder) {
		b.logger = logger
	}
}

// WithMetrics records build metrics into registry
func WithMetrics(registry *metrics.Registry) BuilderOption {
	return func(b *Builder) {
		b.metrics = registry
	}
}

// Builder produces route catalogs from a Source
type Builder struct {
	src      Source
	cfg      BuilderConfig
	composer *compose.Composer
	logger   logging.Logger
	metrics  *metrics.Registry
}

// NewBuilder validates cfg and returns a builder over src
func NewBuilder(src Source, cfg BuilderConfig, opts ...BuilderOption) (*Builder, error) {
	if src == nil {
		return nil, errors.New("catalog source cannot be nil")
	}
	if cfg.PathLimit <= 0 {
		return nil, fmt.Errorf("%w: %d", graph.ErrInvalidLimit, cfg.PathLimit)
	}
	if cfg.MaxPathNodes < 0 || cfg.MaxDecompositions < 0 || cfg.Workers < 0 {
		return nil, errors.New("builder ceilings and workers must not be negative")
	}
	if cfg.Exclusion == nil {
		cfg.Exclusion = graph.DefaultExclusion()
	}

	b := &Builder{
		src: src,
		cfg: cfg,
		composer: compose.NewComposer(src,
			compose.WithMaxDecompositions(cfg.MaxDecompositions)),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = logging.OrDefault(b.logger).With(logging.Component("catalog_builder"))
	return b, nil
}

// candidate is a finished decomposition waiting for its identifier
type candidate struct {
	target graph.NodeID
	decomp compose.Decomposition
	delays Delays
}

// Build enumerates every route from origin to every demand point. Identifiers
// follow demand point, then path, then decomposition order and start at 1,
// whatever the worker count.
func (b *Builder) Build(ctx context.Context, origin graph.NodeID) (*Catalog, error) {
	g := b.src.Graph()
	if !g.HasNode(origin) {
		return nil, fmt.Errorf("origin: %w: %s", graph.ErrUnknownNode, origin)
	}

	runID := uuid.New()
	logger := b.logger.With(logging.RunID(runID.String()), logging.Origin(string(origin)))
	timer := logging.StartTimer(logger, "routes generated")
	started := time.Now()

	destinations := b.src.DemandPoints()
	slots := make([][]candidate, len(destinations))

	if b.cfg.Workers > 1 {
		err := parallel.ForEach(ctx, len(destinations), b.cfg.Workers, func(ctx context.Context, i int) error {
			out, err := b.buildDestination(logger, origin, destinations[i])
			slots[i] = out
			return err
		}, parallel.WithLogger(logger))
		if err != nil {
			timer.EndError(err)
			return nil, err
		}
	} else {
		for i, dest := range destinations {
			if err := ctx.Err(); err != nil {
				timer.EndError(err)
				return nil, fmt.Errorf("build interrupted before %s: %w", dest, err)
			}
			out, err := b.buildDestination(logger, origin, dest)
			if err != nil {
				timer.EndError(err)
				return nil, err
			}
			slots[i] = out
		}
	}

	routes := make([]*Route, 0)
	for _, slot := range slots {
		for _, c := range slot {
			r := NewRoute(len(routes)+1, origin, c.target, c.decomp, c.delays)
			routes = append(routes, r)
			if b.metrics != nil {
				b.metrics.RecordRoute(r.Stages())
			}
		}
	}

	if b.metrics != nil {
		b.metrics.RecordBuild(time.Since(started), len(routes))
	}
	timer.End(logging.Count(len(routes)), logging.Int("demand_points", len(destinations)))

	return New(runID, routes), nil
}

func (b *Builder) buildDestination(logger logging.Logger, origin, dest graph.NodeID) ([]candidate, error) {
	var stats graph.SearchStats
	paths, err := b.src.Graph().EnumeratePaths(origin, dest, b.cfg.PathLimit,
		graph.WithExclusion(b.cfg.Exclusion),
		graph.WithMaxPathNodes(b.cfg.MaxPathNodes),
		graph.WithStats(&stats),
	)
	if err != nil {
		return nil, fmt.Errorf("enumerate %s: %w", dest, err)
	}
	if b.metrics != nil {
		b.metrics.RecordPathSearch(stats.Recorded, stats.Excluded, stats.Accepted-stats.Recorded, stats.Pruned)
	}

	if len(paths) == 0 {
		logger.Debug("no admissible path", logging.Destination(string(dest)), logging.Int("excluded", stats.Excluded))
		if b.metrics != nil {
			b.metrics.RecordUnroutedDemandPoint()
		}
		return nil, nil
	}

	out := make([]candidate, 0)
	for _, p := range paths {
		decomps, err := b.composer.Decompose(p)
		if err != nil {
			return nil, fmt.Errorf("decompose path to %s: %w", dest, err)
		}
		if b.metrics != nil {
			b.metrics.RecordDecompositions(len(decomps))
		}
		for _, d := range decomps {
			delays, err := b.delays(d)
			if err != nil {
				return nil, fmt.Errorf("route to %s: %w", dest, err)
			}
			out = append(out, candidate{target: dest, decomp: d, delays: delays})
		}
	}

	logger.Debug("demand point routed",
		logging.Destination(string(dest)),
		logging.Int("paths", len(paths)),
		logging.Count(len(out)))
	return out, nil
}

func (b *Builder) delays(d compose.Decomposition) (Delays, error) {
	var out Delays
	var err error
	if out.Backhaul, err = b.segmentDelay(d.Backhaul); err != nil {
		return Delays{}, err
	}
	if out.Midhaul, err = b.segmentDelay(d.Midhaul); err != nil {
		return Delays{}, err
	}
	if out.Fronthaul, err = b.segmentDelay(d.Fronthaul); err != nil {
		return Delays{}, err
	}
	return out, nil
}

func (b *Builder) segmentDelay(s compose.Segment) (float64, error) {
	total := 0.0
	for _, h := range s.Links() {
		d, err := b.src.LinkDelay(h.From, h.To)
		if err != nil {
			return 0, &LinkNotFoundError{From: h.From, To: h.To, Err: err}
		}
		total += d
	}
	return total, nil
}
