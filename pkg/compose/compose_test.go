package compose

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/ranroutes/pkg/graph"
)

func chain(n int) graph.Path {
	p := make(graph.Path, n)
	for i := range p {
		p[i] = graph.NodeID(string(rune('a' + i)))
	}
	return p
}

func TestPartitions_ReferenceCounts(t *testing.T) {
	tests := []struct {
		hops int
		want int
	}{
		{1, 1},
		{2, 2},
		{3, 4},
		{4, 7},
		{5, 11},
	}

	for _, tt := range tests {
		parts, err := Partitions(chain(tt.hops + 1))
		require.NoError(t, err)
		assert.Len(t, parts, tt.want, "hops=%d", tt.hops)
		assert.Equal(t, tt.want, PartitionCount(tt.hops), "hops=%d", tt.hops)
	}
}

func TestPartitions_Order(t *testing.T) {
	parts, err := Partitions(chain(5)) // a b c d e, 4 hops
	require.NoError(t, err)

	sizes := func(p Partition) []int {
		out := make([]int, len(p.Blocks))
		for i, b := range p.Blocks {
			out[i] = len(b)
		}
		return out
	}

	want := [][]int{
		{1, 1, 2}, {1, 2, 1}, {2, 1, 1}, // three blocks, cut i then j
		{1, 3}, {2, 2}, {3, 1}, // two blocks
		{4}, // whole path
	}
	require.Len(t, parts, len(want))
	for i, p := range parts {
		assert.Equal(t, want[i], sizes(p), "partition %d", i)
	}
}

func TestPartitions_CoverPathWithoutGaps(t *testing.T) {
	p := chain(6)
	parts, err := Partitions(p)
	require.NoError(t, err)

	hops := HopsOf(p)
	for _, part := range parts {
		var joined []Hop
		for _, b := range part.Blocks {
			require.NotEmpty(t, b)
			joined = append(joined, b...)
		}
		assert.Equal(t, hops, joined)
	}
}

func TestPartitions_TooShort(t *testing.T) {
	_, err := Partitions(graph.Path{"a"})
	assert.True(t, errors.Is(err, ErrPathTooShort))

	_, err = Partitions(nil)
	assert.True(t, errors.Is(err, ErrPathTooShort))
}

func TestDecompose_Scenario(t *testing.T) {
	path := graph.Path{"n0", "n1", "n2", "leaf"}
	c := NewComposer(HostingMap{
		"n1": {"n1_hw1"},
		"n2": {"n2_hw1"},
	})

	decs, err := c.Decompose(path)
	require.NoError(t, err)
	require.Len(t, decs, 4)

	stages := []int{3, 2, 2, 1}
	for i, d := range decs {
		assert.Equal(t, stages[i], d.Stages(), "decomposition %d", i)
		assert.Equal(t, HopsOf(path), d.Hops(), "decomposition %d must rebuild the path", i)
	}

	first := decs[0]
	assert.Equal(t, &Anchor{Node: "n1", Unit: "n1_hw1"}, first.Backhaul.Anchor)
	assert.Equal(t, &Anchor{Node: "n2", Unit: "n2_hw1"}, first.Midhaul.Anchor)
	assert.Nil(t, first.Fronthaul.Anchor)
	assert.Equal(t, []Hop{{"n0", "n1"}, {"n1", "n1_hw1"}}, first.Backhaul.Links())

	last := decs[3]
	assert.True(t, last.Backhaul.Empty())
	assert.True(t, last.Midhaul.Empty())
	assert.Len(t, last.Fronthaul.Hops, 3)
}

func TestDecompose_FanOutOrder(t *testing.T) {
	c := NewComposer(HostingMap{
		"b": {"b1", "b2"},
		"c": {"c1", "c2"},
	})

	decs, err := c.Decompose(chain(4))
	require.NoError(t, err)
	require.Len(t, decs, 9)

	// three-block expansions: midhaul unit outer, backhaul unit inner
	want := [][2]UnitID{{"b1", "c1"}, {"b2", "c1"}, {"b1", "c2"}, {"b2", "c2"}}
	for i, w := range want {
		d := decs[i]
		require.Equal(t, 3, d.Stages())
		assert.Equal(t, w[0], d.Backhaul.Anchor.Unit, "decomposition %d", i)
		assert.Equal(t, w[1], d.Midhaul.Anchor.Unit, "decomposition %d", i)
	}

	for i := 4; i < 8; i++ {
		assert.Equal(t, 2, decs[i].Stages(), "decomposition %d", i)
	}
	assert.Equal(t, 1, decs[8].Stages())
}

func TestDecompose_DropsBlocksWithoutHostingUnits(t *testing.T) {
	c := NewComposer(HostingMap{"c": {"c1"}})

	decs, err := c.Decompose(chain(4)) // a b c d
	require.NoError(t, err)
	require.Len(t, decs, 2)

	assert.Equal(t, 2, decs[0].Stages())
	assert.Equal(t, graph.NodeID("c"), decs[0].Midhaul.Anchor.Node)
	assert.Equal(t, 1, decs[1].Stages())

	for _, d := range decs {
		for _, s := range []Segment{d.Backhaul, d.Midhaul} {
			if !s.Empty() {
				assert.NotEmpty(t, c.hosts.HostingUnits(s.Anchor.Node))
			}
		}
	}
}

func TestDecompose_NoHostingAnywhere(t *testing.T) {
	c := NewComposer(HostingMap{})

	decs, err := c.Decompose(chain(5))
	require.NoError(t, err)
	require.Len(t, decs, 1, "only the single fronthaul block survives")
	assert.Equal(t, 1, decs[0].Stages())
}

func TestDecompose_Limit(t *testing.T) {
	hosts := HostingMap{"b": {"b1", "b2"}, "c": {"c1", "c2"}}

	_, err := NewComposer(hosts, WithMaxDecompositions(5)).Decompose(chain(4))
	assert.True(t, errors.Is(err, ErrDecompositionLimit))

	decs, err := NewComposer(hosts, WithMaxDecompositions(9)).Decompose(chain(4))
	require.NoError(t, err)
	assert.Len(t, decs, 9)
}

func TestDecompose_SingleHop(t *testing.T) {
	decs, err := NewComposer(HostingMap{"b": {"b1"}}).Decompose(graph.Path{"a", "b"})
	require.NoError(t, err)
	require.Len(t, decs, 1)
	assert.Equal(t, []Hop{{"a", "b"}}, decs[0].Fronthaul.Hops)
}

func TestDecompose_SegmentsDoNotAlias(t *testing.T) {
	c := NewComposer(HostingMap{"b": {"b1", "b2"}})
	decs, err := c.Decompose(chain(3))
	require.NoError(t, err)
	require.Len(t, decs, 3)

	decs[0].Fronthaul.Hops[0].To = "mutated"
	assert.Equal(t, graph.NodeID("c"), decs[1].Fronthaul.Hops[0].To)
}

func TestSegment_EqualAndClone(t *testing.T) {
	s := Segment{Hops: []Hop{{"a", "b"}}, Anchor: &Anchor{Node: "b", Unit: "b1"}}
	c := s.Clone()
	assert.True(t, s.Equal(c))

	c.Anchor.Unit = "b2"
	assert.False(t, s.Equal(c))
	assert.Equal(t, UnitID("b1"), s.Anchor.Unit)

	assert.False(t, s.Equal(Segment{Hops: []Hop{{"a", "b"}}}))
	assert.True(t, Segment{}.Empty())
	assert.Equal(t, graph.NodeID("b"), s.End())
	assert.Equal(t, graph.NodeID(""), Segment{}.End())
}
