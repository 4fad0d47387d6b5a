package catalog

import (
	"fmt"
	"strings"

	"github.com/dd0wney/ranroutes/pkg/compose"
	"github.com/dd0wney/ranroutes/pkg/graph"
)

// Sequence slots: the units hosting the central, distributed and radio functions
const (
	SlotCU = iota
	SlotDU
	SlotRU
)

// Delays holds the aggregated delay of each haul stage
type Delays struct {
	Backhaul  float64
	Midhaul   float64
	Fronthaul float64
}

// Total returns the end-to-end delay
func (d Delays) Total() float64 {
	return d.Backhaul + d.Midhaul + d.Fronthaul
}

// Route is one placement-ready route from the origin to a demand point.
// Routes are immutable; accessors return copies.
type Route struct {
	id        int
	source    graph.NodeID
	target    graph.NodeID
	sequence  [3]graph.NodeID
	backhaul  compose.Segment
	midhaul   compose.Segment
	fronthaul compose.Segment
	delays    Delays
}

// NewRoute assembles a route from a decomposition. Sequence slots of absent
// stages hold the source.
func NewRoute(id int, source, target graph.NodeID, d compose.Decomposition, delays Delays) *Route {
	r := &Route{
		id:        id,
		source:    source,
		target:    target,
		backhaul:  d.Backhaul.Clone(),
		midhaul:   d.Midhaul.Clone(),
		fronthaul: d.Fronthaul.Clone(),
		delays:    delays,
	}
	for i, s := range []compose.Segment{r.backhaul, r.midhaul, r.fronthaul} {
		r.sequence[i] = source
		if links := s.Links(); len(links) > 0 {
			r.sequence[i] = links[len(links)-1].To
		}
	}
	return r
}

func (r *Route) ID() int                 { return r.id }
func (r *Route) Source() graph.NodeID    { return r.source }
func (r *Route) Target() graph.NodeID    { return r.target }
func (r *Route) Delays() Delays          { return r.delays }
func (r *Route) DelayBackhaul() float64  { return r.delays.Backhaul }
func (r *Route) DelayMidhaul() float64   { return r.delays.Midhaul }
func (r *Route) DelayFronthaul() float64 { return r.delays.Fronthaul }

// Sequence returns the CU, DU and RU slots
func (r *Route) Sequence() [3]graph.NodeID { return r.sequence }

func (r *Route) Backhaul() compose.Segment  { return r.backhaul.Clone() }
func (r *Route) Midhaul() compose.Segment   { return r.midhaul.Clone() }
func (r *Route) Fronthaul() compose.Segment { return r.fronthaul.Clone() }

func (r *Route) HasBackhaul() bool  { return !r.backhaul.Empty() }
func (r *Route) HasMidhaul() bool   { return !r.midhaul.Empty() }
func (r *Route) HasFronthaul() bool { return !r.fronthaul.Empty() }

// Stages returns how many haul stages the route has (1, 2 or 3)
func (r *Route) Stages() int {
	n := 0
	for _, present := range []bool{r.HasBackhaul(), r.HasMidhaul(), r.HasFronthaul()} {
		if present {
			n++
		}
	}
	return n
}

// Hosts returns the sequence slots of the stages that are present
func (r *Route) Hosts() []graph.NodeID {
	out := make([]graph.NodeID, 0, 3)
	for i, present := range []bool{r.HasBackhaul(), r.HasMidhaul(), r.HasFronthaul()} {
		if present {
			out = append(out, r.sequence[i])
		}
	}
	return out
}

// Links returns the fronthaul, midhaul and backhaul links in that order,
// anchor hops included
func (r *Route) Links() []compose.Hop {
	out := r.fronthaul.Links()
	out = append(out, r.midhaul.Links()...)
	return append(out, r.backhaul.Links()...)
}

func (r *Route) FronthaulLinks() []compose.Hop { return r.fronthaul.Links() }
func (r *Route) MidhaulLinks() []compose.Hop   { return r.midhaul.Links() }
func (r *Route) BackhaulLinks() []compose.Hop  { return r.backhaul.Links() }

// BackhaulAnchor returns where the backhaul terminates, if the route has one
func (r *Route) BackhaulAnchor() (compose.Anchor, bool) {
	if r.backhaul.Anchor == nil {
		return compose.Anchor{}, false
	}
	return *r.backhaul.Anchor, true
}

// MidhaulAnchor returns where the midhaul terminates, if the route has one
func (r *Route) MidhaulAnchor() (compose.Anchor, bool) {
	if r.midhaul.Anchor == nil {
		return compose.Anchor{}, false
	}
	return *r.midhaul.Anchor, true
}

// FronthaulEnd returns the last fronthaul hop, which reaches the target
func (r *Route) FronthaulEnd() (compose.Hop, bool) {
	if len(r.fronthaul.Hops) == 0 {
		return compose.Hop{}, false
	}
	return r.fronthaul.Hops[len(r.fronthaul.Hops)-1], true
}

// HardwareKeys returns the hosting units the route places functions on
func (r *Route) HardwareKeys() []compose.UnitID {
	out := make([]compose.UnitID, 0, 2)
	for _, s := range []compose.Segment{r.backhaul, r.midhaul} {
		if s.Anchor != nil {
			out = append(out, s.Anchor.Unit)
		}
	}
	return out
}

// Contains reports whether id occupies any sequence slot
func (r *Route) Contains(id graph.NodeID) bool {
	for _, s := range r.sequence {
		if s == id {
			return true
		}
	}
	return false
}

func (r *Route) IsCU(id graph.NodeID) bool          { return r.sequence[SlotCU] == id }
func (r *Route) IsDU(id graph.NodeID) bool          { return r.sequence[SlotDU] == id }
func (r *Route) IsRU(id graph.NodeID) bool          { return r.sequence[SlotRU] == id }
func (r *Route) IsDestination(id graph.NodeID) bool { return r.target == id }

func (r *Route) IsFronthaulLink(h compose.Hop) bool { return containsHop(r.fronthaul.Links(), h) }
func (r *Route) IsMidhaulLink(h compose.Hop) bool   { return containsHop(r.midhaul.Links(), h) }
func (r *Route) IsBackhaulLink(h compose.Hop) bool  { return containsHop(r.backhaul.Links(), h) }

func containsHop(hops []compose.Hop, h compose.Hop) bool {
	for _, x := range hops {
		if x == h {
			return true
		}
	}
	return false
}

// Equal compares segments and sequence; identifiers and delays are ignored
func (r *Route) Equal(other *Route) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.backhaul.Equal(other.backhaul) &&
		r.midhaul.Equal(other.midhaul) &&
		r.fronthaul.Equal(other.fronthaul) &&
		r.sequence == other.sequence
}

func (r *Route) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d: %s -- %s\n", r.id, r.source, r.target)
	fmt.Fprintf(&b, "Sequence: %v\n", r.sequence)
	fmt.Fprintf(&b, "Backhaul: %s\n  - Delay: %g\n", formatHops(r.backhaul.Links()), r.delays.Backhaul)
	fmt.Fprintf(&b, "Midhaul: %s\n  - Delay: %g\n", formatHops(r.midhaul.Links()), r.delays.Midhaul)
	fmt.Fprintf(&b, "Fronthaul: %s\n  - Delay: %g", formatHops(r.fronthaul.Links()), r.delays.Fronthaul)
	return b.String()
}

func formatHops(hops []compose.Hop) string {
	parts := make([]string, len(hops))
	for i, h := range hops {
		parts[i] = fmt.Sprintf("(%s, %s)", h.From, h.To)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
