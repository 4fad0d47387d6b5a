package topology

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dd0wney/ranroutes/pkg/logging"
	"github.com/dd0wney/ranroutes/pkg/validation"
)

// CoreNodeNumber is the node the generator reserves for the core. It has no
// hosting units or base stations and is skipped by LoadNodes.
const CoreNodeNumber = 0

// NodeRecord is one entry of the generator's nodes file
type NodeRecord struct {
	Number           int     `json:"Number" validate:"gte=0"`
	Hardwares        []int   `json:"Hardwares" validate:"dive,gte=0"`
	StaticPercentage float64 `json:"StaticPercentage" validate:"gte=0"`
	BaseStations     []int   `json:"BaseStations" validate:"dive,gte=0"`
}

// LinkRecord is one entry of the generator's links file
type LinkRecord struct {
	Node1                     int     `json:"Node1" validate:"gte=0"`
	Node2                     int     `json:"Node2" validate:"gte=0,nefield=Node1"`
	PortCapacity              int     `json:"PortCapacity" validate:"gte=0"`
	NumLinks                  int     `json:"NumLinks" validate:"gte=0"`
	Delay                     float64 `json:"Delay" validate:"gte=0"`
	PluggableTransceiverPower float64 `json:"PluggableTransceiverPower" validate:"gte=0"`
	SwitchPortPower           float64 `json:"SwitchPortPower" validate:"gte=0"`
}

type nodesFile struct {
	Nodes []NodeRecord `json:"nodes"`
}

type linksFile struct {
	Links []LinkRecord `json:"links"`
}

// LoadNodes reads a nodes document and registers every node except the core
func (t *Topology) LoadNodes(r io.Reader) error {
	timer := logging.StartTimer(t.logger, "node information loaded")

	var doc nodesFile
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return fmt.Errorf("decode nodes: %w", err)
	}

	for i := range doc.Nodes {
		rec := &doc.Nodes[i]
		if err := validation.Struct(rec); err != nil {
			return fmt.Errorf("node record %d: %w", i, err)
		}
		if rec.Number == CoreNodeNumber {
			continue
		}
		if _, err := t.AddNode(rec.Number, rec.Hardwares, rec.StaticPercentage, rec.BaseStations); err != nil {
			return fmt.Errorf("node record %d: %w", i, err)
		}
	}

	timer.End(logging.Count(len(t.order)))
	return nil
}

// LoadLinks reads a links document. Generator links join switches at both ends.
func (t *Topology) LoadLinks(r io.Reader) error {
	timer := logging.StartTimer(t.logger, "link information loaded")

	var doc linksFile
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return fmt.Errorf("decode links: %w", err)
	}

	for i := range doc.Links {
		rec := &doc.Links[i]
		if err := validation.Struct(rec); err != nil {
			return fmt.Errorf("link record %d: %w", i, err)
		}
		link := Link{
			Node1:            NodeKey(rec.Node1),
			Node2:            NodeKey(rec.Node2),
			PortCapacity:     rec.PortCapacity,
			MaxPorts:         rec.NumLinks,
			Delay:            rec.Delay,
			Node1Switch:      true,
			Node2Switch:      true,
			TransceiverPower: rec.PluggableTransceiverPower,
			SwitchPortPower:  rec.SwitchPortPower,
		}
		t.AddLink(link)
		t.logger.Debug("link registered", logging.String("link", link.String()))
	}

	timer.End(logging.Count(len(doc.Links)))
	return nil
}

// LoadFiles builds a topology from a nodes file and a links file
func LoadFiles(nodesPath, linksPath string, opts ...Option) (*Topology, error) {
	t := New(opts...)

	if err := loadFile(nodesPath, t.LoadNodes); err != nil {
		return nil, err
	}
	if err := loadFile(linksPath, t.LoadLinks); err != nil {
		return nil, err
	}
	return t, nil
}

func loadFile(path string, load func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if err := load(f); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
