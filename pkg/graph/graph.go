// Package graph holds the directed topology multigraph and the bounded
// simple-path enumeration used to discover routes from the origin.
package graph

// NetworkGraph is a directed multigraph with one delay per ordered node pair.
// It is not safe for concurrent mutation, but once built it can be read and
// enumerated from any number of goroutines.
type NetworkGraph struct {
	nodes     []NodeID
	known     map[NodeID]struct{}
	adjacency map[NodeID][]NodeID
	delays    map[edgeKey]float64
	edges     int
}

// New creates an empty graph
func New() *NetworkGraph {
	return &NetworkGraph{
		nodes:     make([]NodeID, 0),
		known:     make(map[NodeID]struct{}),
		adjacency: make(map[NodeID][]NodeID),
		delays:    make(map[edgeKey]float64),
	}
}

// AddEdge inserts a directed edge. Inserting the same ordered pair again
// overwrites its delay and appends another adjacency entry; both entries are
// walked during enumeration.
func (g *NetworkGraph) AddEdge(source, destination NodeID, delay float64) {
	g.addNode(source)
	g.addNode(destination)

	g.adjacency[source] = append(g.adjacency[source], destination)
	g.delays[edgeKey{from: source, to: destination}] = delay
	g.edges++
}

func (g *NetworkGraph) addNode(id NodeID) {
	if _, ok := g.known[id]; ok {
		return
	}
	g.known[id] = struct{}{}
	g.nodes = append(g.nodes, id)
}

// HasNode reports whether the node appears in any edge
func (g *NetworkGraph) HasNode(id NodeID) bool {
	_, ok := g.known[id]
	return ok
}

// Nodes returns the nodes in first-seen order
func (g *NetworkGraph) Nodes() []NodeID {
	out := make([]NodeID, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Neighbors returns the adjacency list of a node in insertion order,
// duplicates included
func (g *NetworkGraph) Neighbors(id NodeID) []NodeID {
	adj := g.adjacency[id]
	out := make([]NodeID, len(adj))
	copy(out, adj)
	return out
}

// Delay returns the delay stored for the ordered pair
func (g *NetworkGraph) Delay(from, to NodeID) (float64, bool) {
	d, ok := g.delays[edgeKey{from: from, to: to}]
	return d, ok
}

// NodeCount returns the number of distinct nodes
func (g *NetworkGraph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of inserted edges, duplicates included
func (g *NetworkGraph) EdgeCount() int {
	return g.edges
}

// HasEdges reports whether every consecutive pair of the path is an edge
func (g *NetworkGraph) HasEdges(p Path) bool {
	for i := 0; i+1 < len(p); i++ {
		if _, ok := g.delays[edgeKey{from: p[i], to: p[i+1]}]; !ok {
			return false
		}
	}
	return true
}
