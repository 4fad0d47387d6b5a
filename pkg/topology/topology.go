// Package topology models the transport network the route catalog is built
// over: nodes, the hosting units installed at them, the base stations they
// serve and the links between them.
package topology

import (
	"fmt"

	"github.com/dd0wney/ranroutes/pkg/compose"
	"github.com/dd0wney/ranroutes/pkg/graph"
	"github.com/dd0wney/ranroutes/pkg/logging"
)

// Topology holds the network description. Build it with AddNode and AddLink,
// then treat it as read-only; reads are safe from many goroutines.
type Topology struct {
	nodes        map[graph.NodeID]*Node
	order        []graph.NodeID
	units        map[compose.UnitID]*Unit
	links        map[linkKey]*Link
	linkOrder    []*Link
	demandPoints []graph.NodeID
	graph        *graph.NetworkGraph
	logger       logging.Logger
}

// Option configures a Topology
type Option func(*Topology)

// WithLogger sets the logger used by the loaders
func WithLogger(logger logging.Logger) Option {
	return func(t *Topology) {
		t.logger = logger
	}
}

// New creates an empty topology
func New(opts ...Option) *Topology {
	t := &Topology{
		nodes:     make(map[graph.NodeID]*Node),
		order:     make([]graph.NodeID, 0),
		units:     make(map[compose.UnitID]*Unit),
		links:     make(map[linkKey]*Link),
		linkOrder: make([]*Link, 0),
		graph:     graph.New(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = logging.OrDefault(t.logger).With(logging.Component("topology"))
	return t
}

// AddNode registers node number n together with its hosting units (one per
// hardware type entry) and demand points (one per base station type entry).
// Every unit and demand point is attached to the node by a zero-delay link.
func (t *Topology) AddNode(number int, hardwareTypes []int, staticPercentage float64, baseStationTypes []int) (*Node, error) {
	id := NodeKey(number)
	if _, exists := t.nodes[id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateNode, id)
	}

	node := &Node{
		ID:               id,
		Number:           number,
		HardwareTypes:    append([]int(nil), hardwareTypes...),
		StaticPercentage: staticPercentage,
		BaseStationTypes: append([]int(nil), baseStationTypes...),
		Units:            make([]compose.UnitID, 0, len(hardwareTypes)),
		DemandPoints:     make([]graph.NodeID, 0, len(baseStationTypes)),
	}

	for k, hwType := range hardwareTypes {
		unit := &Unit{ID: UnitKey(number, k+1), Node: id, Type: hwType}
		t.units[unit.ID] = unit
		node.Units = append(node.Units, unit.ID)
		t.attach(id, graph.NodeID(unit.ID))
	}

	for k := range baseStationTypes {
		bs := DemandPointKey(number, k+1)
		node.DemandPoints = append(node.DemandPoints, bs)
		t.demandPoints = append(t.demandPoints, bs)
		t.attach(id, bs)
		// Demand points are path endpoints; units never are
		t.graph.AddEdge(id, bs, AttachmentDelay)
	}

	t.nodes[id] = node
	t.order = append(t.order, id)
	return node, nil
}

func (t *Topology) attach(node, leaf graph.NodeID) {
	t.store(&Link{
		Node1:            node,
		Node2:            leaf,
		PortCapacity:     AttachmentPortCapacity,
		MaxPorts:         AttachmentMaxPorts,
		Delay:            AttachmentDelay,
		Node1Switch:      true,
		Node2Switch:      false,
		TransceiverPower: AttachmentTransceiverPower,
		SwitchPortPower:  AttachmentSwitchPortPower,
	})
}

// AddLink registers a node-to-node link in the link table under both
// orderings and as two opposing graph edges
func (t *Topology) AddLink(link Link) {
	l := link
	t.store(&l)
	t.graph.AddEdge(l.Node1, l.Node2, l.Delay)
	t.graph.AddEdge(l.Node2, l.Node1, l.Delay)
}

func (t *Topology) store(l *Link) {
	t.links[linkKey{a: l.Node1, b: l.Node2}] = l
	t.links[linkKey{a: l.Node2, b: l.Node1}] = l
	t.linkOrder = append(t.linkOrder, l)
}

// Link returns the link stored for the ordered pair
func (t *Topology) Link(from, to graph.NodeID) (*Link, bool) {
	l, ok := t.links[linkKey{a: from, b: to}]
	return l, ok
}

// LinkDelay returns the delay of the link between from and to
func (t *Topology) LinkDelay(from, to graph.NodeID) (float64, error) {
	l, ok := t.links[linkKey{a: from, b: to}]
	if !ok {
		return 0, fmt.Errorf("%w: %s -> %s", ErrUnknownLink, from, to)
	}
	return l.Delay, nil
}

// Links returns every registered link in insertion order. A pair registered
// twice appears twice; the table keeps the last one.
func (t *Topology) Links() []*Link {
	out := make([]*Link, len(t.linkOrder))
	copy(out, t.linkOrder)
	return out
}

// Node returns a registered node
func (t *Topology) Node(id graph.NodeID) (*Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Nodes returns the registered nodes in registration order
func (t *Topology) Nodes() []*Node {
	out := make([]*Node, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.nodes[id])
	}
	return out
}

// Unit returns a hosting unit by identifier
func (t *Topology) Unit(id compose.UnitID) (*Unit, error) {
	u, ok := t.units[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUnit, id)
	}
	return u, nil
}

// HostingUnits returns the units installed at a node, nil for unknown nodes
func (t *Topology) HostingUnits(node graph.NodeID) []compose.UnitID {
	n, ok := t.nodes[node]
	if !ok || len(n.Units) == 0 {
		return nil
	}
	out := make([]compose.UnitID, len(n.Units))
	copy(out, n.Units)
	return out
}

// DemandPoints returns every base station in node registration order
func (t *Topology) DemandPoints() []graph.NodeID {
	out := make([]graph.NodeID, len(t.demandPoints))
	copy(out, t.demandPoints)
	return out
}

// Graph returns the path-finding graph. Callers must not mutate it.
func (t *Topology) Graph() *graph.NetworkGraph {
	return t.graph
}
