package graph

import "errors"

// NodeID identifies a topology vertex (origin, hub, leaf or demand point)
type NodeID string

// Path is an ordered sequence of distinct nodes from a source to a destination
type Path []NodeID

// Len returns the number of nodes in the path
func (p Path) Len() int {
	return len(p)
}

// Contains reports whether the path visits the node
func (p Path) Contains(id NodeID) bool {
	for _, n := range p {
		if n == id {
			return true
		}
	}
	return false
}

// Clone returns an independent copy of the path
func (p Path) Clone() Path {
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Source returns the first node, or "" for an empty path
func (p Path) Source() NodeID {
	if len(p) == 0 {
		return ""
	}
	return p[0]
}

// Destination returns the last node, or "" for an empty path
func (p Path) Destination() NodeID {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

var (
	// ErrUnknownNode is returned when an enumeration starts from a node the graph does not know
	ErrUnknownNode = errors.New("unknown node")

	// ErrInvalidLimit is returned for a non-positive path limit
	ErrInvalidLimit = errors.New("path limit must be positive")
)

// edgeKey is an ordered (source, destination) pair
type edgeKey struct {
	from NodeID
	to   NodeID
}

// SearchStats reports what a single enumeration saw
type SearchStats struct {
	Accepted int // paths that reached the destination and passed the exclusion policy
	Excluded int // paths rejected by the exclusion policy
	Recorded int // accepted paths actually returned (bounded by limit-1)
	Pruned   int // branches cut by the max path length
}
