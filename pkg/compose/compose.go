// Package compose splits a simple path into backhaul, midhaul and fronthaul
// segments and anchors the inner segments at hosting units.
//
// A path with L hops is cut at 0, 1 or 2 of its L-1 internal boundaries,
// giving 1-, 2- or 3-block partitions. Blocks map onto the haul stages from
// the fronthaul backwards:
//
//	3 blocks: (backhaul, midhaul, fronthaul)
//	2 blocks: (-, midhaul, fronthaul)
//	1 block:  (-, -, fronthaul)
//
// Every backhaul or midhaul block must end at a node that owns hosting
// units; one decomposition is produced per unit (per unit pair for three
// blocks). Blocks ending at a node without units are dropped.
package compose

import (
	"fmt"

	"github.com/dd0wney/ranroutes/pkg/graph"
)

// Option configures a Composer
type Option func(*Composer)

// WithMaxDecompositions caps the decompositions produced for one path.
// Zero means unbounded.
func WithMaxDecompositions(n int) Option {
	return func(c *Composer) {
		c.maxDecompositions = n
	}
}

// Composer turns paths into decompositions
type Composer struct {
	hosts             HostingIndex
	maxDecompositions int
}

// NewComposer creates a composer that anchors segments using hosts
func NewComposer(hosts HostingIndex, opts ...Option) *Composer {
	c := &Composer{hosts: hosts}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HopsOf converts a path into its ordered hop sequence
func HopsOf(p graph.Path) []Hop {
	if len(p) < 2 {
		return nil
	}
	hops := make([]Hop, len(p)-1)
	for i := 0; i+1 < len(p); i++ {
		hops[i] = Hop{From: p[i], To: p[i+1]}
	}
	return hops
}

// Partitions enumerates every cut of the path into 1, 2 or 3 contiguous
// non-empty blocks. Three-block cuts come first, ordered by first then second
// cut point, followed by two-block cuts and finally the whole path.
func Partitions(p graph.Path) ([]Partition, error) {
	if len(p) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrPathTooShort, len(p))
	}

	hops := HopsOf(p)
	n := len(hops)
	out := make([]Partition, 0, PartitionCount(n))

	for i := 1; i <= n-2; i++ {
		for j := i + 1; j <= n-1; j++ {
			out = append(out, Partition{Blocks: [][]Hop{
				cloneHops(hops[:i]), cloneHops(hops[i:j]), cloneHops(hops[j:]),
			}})
		}
	}
	for i := 1; i <= n-1; i++ {
		out = append(out, Partition{Blocks: [][]Hop{
			cloneHops(hops[:i]), cloneHops(hops[i:]),
		}})
	}
	out = append(out, Partition{Blocks: [][]Hop{cloneHops(hops)}})

	return out, nil
}

// PartitionCount is the number of partitions of a path with hops edges:
// 1 + C(hops-1, 1) + C(hops-1, 2)
func PartitionCount(hops int) int {
	if hops < 1 {
		return 0
	}
	b := hops - 1
	return 1 + b + b*(b-1)/2
}

// Decompose partitions the path and expands every partition once per
// hosting unit available at its anchor nodes
func (c *Composer) Decompose(p graph.Path) ([]Decomposition, error) {
	parts, err := Partitions(p)
	if err != nil {
		return nil, err
	}

	out := make([]Decomposition, 0, len(parts))
	for _, part := range parts {
		out = c.expand(out, part)
		if c.maxDecompositions > 0 && len(out) > c.maxDecompositions {
			return nil, fmt.Errorf("%w: path %s -> %s exceeds %d",
				ErrDecompositionLimit, p.Source(), p.Destination(), c.maxDecompositions)
		}
	}
	return out, nil
}

// expand appends the anchored decompositions of one partition
func (c *Composer) expand(out []Decomposition, part Partition) []Decomposition {
	switch len(part.Blocks) {
	case 1:
		return append(out, Decomposition{
			Fronthaul: Segment{Hops: part.Blocks[0]},
		})

	case 2:
		mh, fh := part.Blocks[0], part.Blocks[1]
		mhNode := mh[len(mh)-1].To
		for _, unit := range c.hosts.HostingUnits(mhNode) {
			out = append(out, Decomposition{
				Midhaul:   anchored(mh, mhNode, unit),
				Fronthaul: Segment{Hops: cloneHops(fh)},
			})
		}
		return out

	case 3:
		bh, mh, fh := part.Blocks[0], part.Blocks[1], part.Blocks[2]
		bhNode := bh[len(bh)-1].To
		mhNode := mh[len(mh)-1].To
		bhUnits := c.hosts.HostingUnits(bhNode)
		for _, mhUnit := range c.hosts.HostingUnits(mhNode) {
			for _, bhUnit := range bhUnits {
				out = append(out, Decomposition{
					Backhaul:  anchored(bh, bhNode, bhUnit),
					Midhaul:   anchored(mh, mhNode, mhUnit),
					Fronthaul: Segment{Hops: cloneHops(fh)},
				})
			}
		}
		return out
	}
	return out
}

func anchored(hops []Hop, node graph.NodeID, unit UnitID) Segment {
	return Segment{
		Hops:   cloneHops(hops),
		Anchor: &Anchor{Node: node, Unit: unit},
	}
}

func cloneHops(h []Hop) []Hop {
	out := make([]Hop, len(h))
	copy(out, h)
	return out
}
