package topology

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/dd0wney/ranroutes/pkg/compose"
	"github.com/dd0wney/ranroutes/pkg/graph"
	"github.com/dd0wney/ranroutes/pkg/logging"
)

const sampleNodes = `{
  "nodes": [
    {"Number": 0, "Hardwares": [], "StaticPercentage": 0, "BaseStations": []},
    {"Number": 1, "Hardwares": [2], "StaticPercentage": 0.3, "BaseStations": []},
    {"Number": 2, "Hardwares": [1, 3], "StaticPercentage": 0.3, "BaseStations": [0]},
    {"Number": 3, "Hardwares": [], "StaticPercentage": 0.1, "BaseStations": [1, 1]}
  ]
}`

const sampleLinks = `{
  "links": [
    {"Node1": 0, "Node2": 1, "PortCapacity": 100, "NumLinks": 4, "Delay": 1, "PluggableTransceiverPower": 12, "SwitchPortPower": 5},
    {"Node1": 1, "Node2": 2, "PortCapacity": 25, "NumLinks": 2, "Delay": 2, "PluggableTransceiverPower": 8, "SwitchPortPower": 3},
    {"Node1": 2, "Node2": 3, "PortCapacity": 10, "NumLinks": 1, "Delay": 0.5, "PluggableTransceiverPower": 4, "SwitchPortPower": 2}
  ]
}`

func newSample(t *testing.T) *Topology {
	t.Helper()
	topo := New(WithLogger(logging.NewNopLogger()))
	if err := topo.LoadNodes(strings.NewReader(sampleNodes)); err != nil {
		t.Fatalf("LoadNodes: %v", err)
	}
	if err := topo.LoadLinks(strings.NewReader(sampleLinks)); err != nil {
		t.Fatalf("LoadLinks: %v", err)
	}
	return topo
}

func TestLoadNodes_SkipsCore(t *testing.T) {
	topo := newSample(t)

	if _, ok := topo.Node("node0"); ok {
		t.Error("core node must not be registered")
	}
	if got := len(topo.Nodes()); got != 3 {
		t.Errorf("Nodes() = %d, want 3", got)
	}
}

func TestNodeKeys(t *testing.T) {
	topo := newSample(t)

	node, ok := topo.Node("node2")
	if !ok {
		t.Fatal("node2 missing")
	}
	if !reflect.DeepEqual(node.Units, []compose.UnitID{"node2_hw1", "node2_hw2"}) {
		t.Errorf("Units = %v", node.Units)
	}
	if !reflect.DeepEqual(node.DemandPoints, []graph.NodeID{"node2_bs1"}) {
		t.Errorf("DemandPoints = %v", node.DemandPoints)
	}

	unit, err := topo.Unit("node2_hw2")
	if err != nil {
		t.Fatalf("Unit: %v", err)
	}
	if unit.Node != "node2" || unit.Type != 3 {
		t.Errorf("Unit = %+v", unit)
	}

	if _, err := topo.Unit("node9_hw1"); !errors.Is(err, ErrUnknownUnit) {
		t.Errorf("Unit(unknown) error = %v, want ErrUnknownUnit", err)
	}
}

func TestDemandPoints_RegistrationOrder(t *testing.T) {
	topo := newSample(t)

	want := []graph.NodeID{"node2_bs1", "node3_bs1", "node3_bs2"}
	if got := topo.DemandPoints(); !reflect.DeepEqual(got, want) {
		t.Errorf("DemandPoints() = %v, want %v", got, want)
	}
}

func TestHostingUnits(t *testing.T) {
	topo := newSample(t)

	tests := []struct {
		node graph.NodeID
		want []compose.UnitID
	}{
		{"node1", []compose.UnitID{"node1_hw1"}},
		{"node2", []compose.UnitID{"node2_hw1", "node2_hw2"}},
		{"node3", nil},
		{"node0", nil},
		{"node42", nil},
	}

	for _, tt := range tests {
		t.Run(string(tt.node), func(t *testing.T) {
			if got := topo.HostingUnits(tt.node); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("HostingUnits(%s) = %v, want %v", tt.node, got, tt.want)
			}
		})
	}
}

func TestLinkDelay_BothOrderings(t *testing.T) {
	topo := newSample(t)

	tests := []struct {
		from, to graph.NodeID
		want     float64
	}{
		{"node0", "node1", 1},
		{"node1", "node0", 1},
		{"node2", "node3", 0.5},
		{"node3", "node2", 0.5},
		{"node1", "node1_hw1", 0},
		{"node1_hw1", "node1", 0},
		{"node3", "node3_bs2", 0},
	}

	for _, tt := range tests {
		got, err := topo.LinkDelay(tt.from, tt.to)
		if err != nil {
			t.Errorf("LinkDelay(%s, %s): %v", tt.from, tt.to, err)
			continue
		}
		if got != tt.want {
			t.Errorf("LinkDelay(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}

	if _, err := topo.LinkDelay("node0", "node3"); !errors.Is(err, ErrUnknownLink) {
		t.Errorf("LinkDelay(unlinked) error = %v, want ErrUnknownLink", err)
	}
}

func TestAttachmentsForNodesWithoutBaseStations(t *testing.T) {
	topo := newSample(t)

	l, ok := topo.Link("node1", "node1_hw1")
	if !ok {
		t.Fatal("unit attachment missing for node without base stations")
	}
	if l.PortCapacity != AttachmentPortCapacity || l.MaxPorts != AttachmentMaxPorts {
		t.Errorf("attachment = %+v", l)
	}
	if !l.Node1Switch || l.Node2Switch {
		t.Error("attachment must switch at the node only")
	}
}

func TestGraphShape(t *testing.T) {
	topo := newSample(t)
	g := topo.Graph()

	if _, ok := g.Delay("node1", "node0"); !ok {
		t.Error("node links must be walkable in both directions")
	}
	if _, ok := g.Delay("node2", "node2_bs1"); !ok {
		t.Error("node to demand point edge missing")
	}
	if _, ok := g.Delay("node2_bs1", "node2"); ok {
		t.Error("demand points must not lead back into the network")
	}
	if g.HasNode("node2_hw1") {
		t.Error("hosting units must not be graph vertices")
	}

	paths, err := g.EnumeratePaths("node0", "node3_bs1", 4, graph.WithExclusion(graph.NoExclusion()))
	if err != nil {
		t.Fatalf("EnumeratePaths: %v", err)
	}
	want := []graph.Path{{"node0", "node1", "node2", "node3", "node3_bs1"}}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("paths = %v, want %v", paths, want)
	}
}

func TestAddLink_LastWriteWins(t *testing.T) {
	topo := New(WithLogger(logging.NewNopLogger()))
	topo.AddLink(Link{Node1: "node0", Node2: "node1", Delay: 1})
	topo.AddLink(Link{Node1: "node1", Node2: "node0", Delay: 7})

	for _, pair := range [][2]graph.NodeID{{"node0", "node1"}, {"node1", "node0"}} {
		d, err := topo.LinkDelay(pair[0], pair[1])
		if err != nil || d != 7 {
			t.Errorf("LinkDelay(%s, %s) = %v, %v; want 7", pair[0], pair[1], d, err)
		}
	}
	if got := len(topo.Links()); got != 2 {
		t.Errorf("Links() = %d entries, want 2", got)
	}
}

func TestAddNode_Duplicate(t *testing.T) {
	topo := New(WithLogger(logging.NewNopLogger()))
	if _, err := topo.AddNode(1, []int{1}, 0, nil); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if _, err := topo.AddNode(1, nil, 0, nil); !errors.Is(err, ErrDuplicateNode) {
		t.Errorf("duplicate AddNode error = %v, want ErrDuplicateNode", err)
	}
}

func TestLinkPowerConsumption(t *testing.T) {
	tests := []struct {
		name string
		link Link
		want float64
	}{
		{"both switches", Link{TransceiverPower: 10, SwitchPortPower: 4, Node1Switch: true, Node2Switch: true}, 28},
		{"attachment", Link{TransceiverPower: 10, SwitchPortPower: 4, Node1Switch: true}, 24},
		{"no switches", Link{TransceiverPower: 10, SwitchPortPower: 4}, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.link.PowerConsumption(); got != tt.want {
				t.Errorf("PowerConsumption() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoaders_RejectMalformed(t *testing.T) {
	tests := []struct {
		name  string
		load  func(*Topology) error
		match string
	}{
		{
			name: "bad json",
			load: func(t *Topology) error { return t.LoadNodes(strings.NewReader(`{"nodes": [`)) },
		},
		{
			name:  "negative node number",
			load:  func(t *Topology) error { return t.LoadNodes(strings.NewReader(`{"nodes":[{"Number":-1}]}`)) },
			match: "Number",
		},
		{
			name: "duplicate node",
			load: func(t *Topology) error {
				return t.LoadNodes(strings.NewReader(`{"nodes":[{"Number":1},{"Number":1}]}`))
			},
			match: "already registered",
		},
		{
			name:  "negative delay",
			load:  func(t *Topology) error { return t.LoadLinks(strings.NewReader(`{"links":[{"Node1":0,"Node2":1,"Delay":-2}]}`)) },
			match: "Delay",
		},
		{
			name:  "self loop",
			load:  func(t *Topology) error { return t.LoadLinks(strings.NewReader(`{"links":[{"Node1":3,"Node2":3}]}`)) },
			match: "must differ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.load(New(WithLogger(logging.NewNopLogger())))
			if err == nil {
				t.Fatal("expected load error")
			}
			if tt.match != "" && !strings.Contains(err.Error(), tt.match) {
				t.Errorf("error = %v, want mention of %q", err, tt.match)
			}
		})
	}
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	nodesPath := filepath.Join(dir, "nodes.json")
	linksPath := filepath.Join(dir, "links.json")
	if err := os.WriteFile(nodesPath, []byte(sampleNodes), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(linksPath, []byte(sampleLinks), 0o644); err != nil {
		t.Fatal(err)
	}

	topo, err := LoadFiles(nodesPath, linksPath, WithLogger(logging.NewNopLogger()))
	if err != nil {
		t.Fatalf("LoadFiles: %v", err)
	}
	if got := len(topo.DemandPoints()); got != 3 {
		t.Errorf("DemandPoints() = %d, want 3", got)
	}

	if _, err := LoadFiles(filepath.Join(dir, "missing.json"), linksPath); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want os.ErrNotExist", err)
	}
}
