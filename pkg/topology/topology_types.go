package topology

import (
	"errors"
	"fmt"

	"github.com/dd0wney/ranroutes/pkg/compose"
	"github.com/dd0wney/ranroutes/pkg/graph"
)

var (
	// ErrDuplicateNode is returned when a node number is registered twice
	ErrDuplicateNode = errors.New("node already registered")

	// ErrUnknownLink is returned when no link connects the ordered pair
	ErrUnknownLink = errors.New("link not found")

	// ErrUnknownUnit is returned for a hosting unit the topology never produced
	ErrUnknownUnit = errors.New("hosting unit not found")
)

// Attachment constants for node-to-unit and node-to-demand-point links
const (
	AttachmentPortCapacity     = 10
	AttachmentMaxPorts         = 8
	AttachmentDelay            = 0.0
	AttachmentTransceiverPower = 10.0
	AttachmentSwitchPortPower  = 4.2
)

// Node is one site of the transport network
type Node struct {
	ID               graph.NodeID
	Number           int
	HardwareTypes    []int
	StaticPercentage float64
	BaseStationTypes []int
	Units            []compose.UnitID
	DemandPoints     []graph.NodeID
}

// HasUnits reports whether functions can be placed at the node
func (n *Node) HasUnits() bool {
	return len(n.Units) > 0
}

// HasDemandPoints reports whether the node serves base stations
func (n *Node) HasDemandPoints() bool {
	return len(n.DemandPoints) > 0
}

// Unit is a hosting unit installed at a node
type Unit struct {
	ID   compose.UnitID
	Node graph.NodeID
	Type int
}

// Link is an undirected transport link. The link table stores it under both
// orderings of its endpoints.
type Link struct {
	Node1            graph.NodeID
	Node2            graph.NodeID
	PortCapacity     int
	MaxPorts         int
	Delay            float64
	Node1Switch      bool
	Node2Switch      bool
	TransceiverPower float64
	SwitchPortPower  float64
}

// PowerConsumption returns the power drawn by one active link: a transceiver
// at each end plus a switch port at every switching endpoint
func (l *Link) PowerConsumption() float64 {
	power := 2 * l.TransceiverPower
	if l.Node1Switch {
		power += l.SwitchPortPower
	}
	if l.Node2Switch {
		power += l.SwitchPortPower
	}
	return power
}

func (l *Link) String() string {
	return fmt.Sprintf("(%s, %s) - port: %d, %dGB, %gms, %g+%gw",
		l.Node1, l.Node2, l.MaxPorts, l.PortCapacity, l.Delay, l.TransceiverPower, l.SwitchPortPower)
}

type linkKey struct {
	a, b graph.NodeID
}

// NodeKey returns the identifier of node number n
func NodeKey(n int) graph.NodeID {
	return graph.NodeID(fmt.Sprintf("node%d", n))
}

// UnitKey returns the identifier of the k-th (1-based) hosting unit of node n
func UnitKey(n, k int) compose.UnitID {
	return compose.UnitID(fmt.Sprintf("node%d_hw%d", n, k))
}

// DemandPointKey returns the identifier of the k-th (1-based) base station of node n
func DemandPointKey(n, k int) graph.NodeID {
	return graph.NodeID(fmt.Sprintf("node%d_bs%d", n, k))
}
