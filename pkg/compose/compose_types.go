package compose

import (
	"errors"

	"github.com/dd0wney/ranroutes/pkg/graph"
)

var (
	// ErrPathTooShort is returned for paths with fewer than two nodes
	ErrPathTooShort = errors.New("path needs at least two nodes")

	// ErrDecompositionLimit is returned when a path fans out into more
	// decompositions than the configured ceiling
	ErrDecompositionLimit = errors.New("decomposition limit exceeded")
)

// UnitID identifies a hosting unit. It is generated by the topology and
// treated as opaque here.
type UnitID string

// Hop is one directed node pair of a route
type Hop struct {
	From graph.NodeID
	To   graph.NodeID
}

// Anchor names the hosting unit chosen at the node that terminates a
// backhaul or midhaul segment
type Anchor struct {
	Node graph.NodeID
	Unit UnitID
}

// Hop returns the trailing (node, unit) pair the anchor adds to its segment
func (a Anchor) Hop() Hop {
	return Hop{From: a.Node, To: graph.NodeID(a.Unit)}
}

// Segment is one haul stage. Fronthaul segments and absent stages carry no anchor.
type Segment struct {
	Hops   []Hop
	Anchor *Anchor
}

// Empty reports whether the stage is absent from the decomposition
func (s Segment) Empty() bool {
	return len(s.Hops) == 0 && s.Anchor == nil
}

// Links returns the hops followed by the anchor hop, if any
func (s Segment) Links() []Hop {
	n := len(s.Hops)
	if s.Anchor != nil {
		n++
	}
	out := make([]Hop, 0, n)
	out = append(out, s.Hops...)
	if s.Anchor != nil {
		out = append(out, s.Anchor.Hop())
	}
	return out
}

// End returns the last node reached by the segment hops
func (s Segment) End() graph.NodeID {
	if len(s.Hops) == 0 {
		return ""
	}
	return s.Hops[len(s.Hops)-1].To
}

// Clone returns a deep copy
func (s Segment) Clone() Segment {
	out := Segment{Hops: append([]Hop(nil), s.Hops...)}
	if s.Anchor != nil {
		a := *s.Anchor
		out.Anchor = &a
	}
	return out
}

// Equal compares hops and anchor
func (s Segment) Equal(other Segment) bool {
	if len(s.Hops) != len(other.Hops) {
		return false
	}
	for i := range s.Hops {
		if s.Hops[i] != other.Hops[i] {
			return false
		}
	}
	switch {
	case s.Anchor == nil && other.Anchor == nil:
		return true
	case s.Anchor == nil || other.Anchor == nil:
		return false
	default:
		return *s.Anchor == *other.Anchor
	}
}

// Partition is a cut of a path's hops into 1 to 3 contiguous blocks
type Partition struct {
	Blocks [][]Hop
}

// Decomposition is a partition with anchors chosen, normalized to three slots
type Decomposition struct {
	Backhaul  Segment
	Midhaul   Segment
	Fronthaul Segment
}

// Stages returns the number of non-empty segments (1, 2 or 3)
func (d Decomposition) Stages() int {
	n := 0
	for _, s := range []Segment{d.Backhaul, d.Midhaul, d.Fronthaul} {
		if !s.Empty() {
			n++
		}
	}
	return n
}

// Hops returns the path hops of all three segments in order, anchors excluded
func (d Decomposition) Hops() []Hop {
	out := make([]Hop, 0, len(d.Backhaul.Hops)+len(d.Midhaul.Hops)+len(d.Fronthaul.Hops))
	out = append(out, d.Backhaul.Hops...)
	out = append(out, d.Midhaul.Hops...)
	out = append(out, d.Fronthaul.Hops...)
	return out
}

// HostingIndex tells which hosting units live at a node
type HostingIndex interface {
	HostingUnits(node graph.NodeID) []UnitID
}

// HostingMap is a HostingIndex backed by a plain map
type HostingMap map[graph.NodeID][]UnitID

// HostingUnits implements HostingIndex
func (m HostingMap) HostingUnits(node graph.NodeID) []UnitID {
	return m[node]
}
