package graph

import "fmt"

// EnumerateOption configures a single EnumeratePaths call
type EnumerateOption func(*enumerateOptions)

type enumerateOptions struct {
	exclusion    ExclusionPolicy
	maxPathNodes int
	stats        *SearchStats
}

// WithExclusion replaces the default hub exclusion policy
func WithExclusion(policy ExclusionPolicy) EnumerateOption {
	return func(o *enumerateOptions) {
		if policy != nil {
			o.exclusion = policy
		}
	}
}

// WithMaxPathNodes prunes any branch that would grow beyond n nodes.
// Zero or negative means unbounded.
func WithMaxPathNodes(n int) EnumerateOption {
	return func(o *enumerateOptions) {
		o.maxPathNodes = n
	}
}

// WithStats fills stats with the counters of the enumeration
func WithStats(stats *SearchStats) EnumerateOption {
	return func(o *enumerateOptions) {
		o.stats = stats
	}
}

// pathSearch carries the mutable state of one enumeration.
// Every call gets its own, so concurrent enumerations never share markers.
type pathSearch struct {
	graph       *NetworkGraph
	destination NodeID
	limit       int
	opts        enumerateOptions

	visited  map[NodeID]bool
	current  Path
	accepted int
	results  []Path
	stats    SearchStats
}

// EnumeratePaths returns simple paths from source to destination in
// depth-first, neighbor-insertion order.
//
// Every path that reaches the destination and passes the exclusion policy is
// counted, and it is kept only while the count is below limit, so at most
// limit-1 paths are returned. The search always runs to completion even after
// the limit is reached.
func (g *NetworkGraph) EnumeratePaths(source, destination NodeID, limit int, opts ...EnumerateOption) ([]Path, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	if !g.HasNode(source) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, source)
	}

	o := enumerateOptions{exclusion: DefaultExclusion()}
	for _, opt := range opts {
		opt(&o)
	}

	s := &pathSearch{
		graph:       g,
		destination: destination,
		limit:       limit,
		opts:        o,
		visited:     make(map[NodeID]bool, len(g.nodes)),
		current:     make(Path, 0, 8),
		results:     make([]Path, 0),
	}
	s.walk(source)

	s.stats.Accepted = s.accepted
	s.stats.Recorded = len(s.results)
	if o.stats != nil {
		*o.stats = s.stats
	}

	return s.results, nil
}

// walk is the backtracking step: mark, extend, recurse, unmark
func (s *pathSearch) walk(node NodeID) {
	s.visited[node] = true
	s.current = append(s.current, node)

	if node == s.destination {
		s.visitDestination()
	} else {
		for _, next := range s.graph.adjacency[node] {
			if s.visited[next] {
				continue
			}
			if s.opts.maxPathNodes > 0 && len(s.current) >= s.opts.maxPathNodes {
				s.stats.Pruned++
				continue
			}
			s.walk(next)
		}
	}

	s.current = s.current[:len(s.current)-1]
	s.visited[node] = false
}

func (s *pathSearch) visitDestination() {
	if s.opts.exclusion.Exclude(s.current) {
		s.stats.Excluded++
		return
	}

	s.accepted++
	if s.accepted < s.limit {
		s.results = append(s.results, s.current.Clone())
	}
}
