package graph

// DefaultHubThreshold is the path length (in nodes) above which a path may
// not pass through every hub marker
const DefaultHubThreshold = 4

// DefaultHubMarkers are the two hubs directly below the origin in the
// generator's naming scheme
var DefaultHubMarkers = []NodeID{"node1", "node2"}

// ExclusionPolicy decides whether a complete source-to-destination path must
// be dropped from the enumeration result
type ExclusionPolicy interface {
	Exclude(p Path) bool
}

// ExclusionFunc adapts a plain function to ExclusionPolicy
type ExclusionFunc func(p Path) bool

// Exclude implements ExclusionPolicy
func (f ExclusionFunc) Exclude(p Path) bool {
	return f(p)
}

// NoExclusion accepts every path
func NoExclusion() ExclusionPolicy {
	return ExclusionFunc(func(Path) bool { return false })
}

// HubExclusion rejects paths longer than threshold nodes that visit every
// one of the hubs. Such paths climb back through the core tier and are never
// useful routes in a hierarchical topology.
func HubExclusion(threshold int, hubs ...NodeID) ExclusionPolicy {
	markers := make([]NodeID, len(hubs))
	copy(markers, hubs)

	return ExclusionFunc(func(p Path) bool {
		if len(markers) == 0 || len(p) <= threshold {
			return false
		}
		for _, hub := range markers {
			if !p.Contains(hub) {
				return false
			}
		}
		return true
	})
}

// DefaultExclusion is HubExclusion over DefaultHubMarkers
func DefaultExclusion() ExclusionPolicy {
	return HubExclusion(DefaultHubThreshold, DefaultHubMarkers...)
}
