package topology

import (
	"fmt"
	"sort"
)

// Edge is an undirected coupler between two qubits. Edges are always stored
// with U < V so they can be used as map keys.
type Edge struct {
	U int `json:"u" yaml:"u"`
	V int `json:"v" yaml:"v"`
}

// NewEdge returns the canonical form of the edge {u, v}.
func NewEdge(u, v int) Edge {
	if u > v {
		u, v = v, u
	}
	return Edge{U: u, V: v}
}

// Graph is an immutable undirected graph over integer qubit labels.
type Graph struct {
	nodes []int
	adj   map[int]map[int]struct{}
	edges map[Edge]struct{}
}

// NewGraph builds a graph from a node list and an edge list. Endpoints of
// edges are added as nodes; self-loops and duplicate edges are ignored.
func NewGraph(nodes []int, edges []Edge) *Graph {
	g := &Graph{
		adj:   make(map[int]map[int]struct{}, len(nodes)),
		edges: make(map[Edge]struct{}, len(edges)),
	}
	for _, n := range nodes {
		g.addNode(n)
	}
	for _, e := range edges {
		if e.U == e.V {
			continue
		}
		e = NewEdge(e.U, e.V)
		g.addNode(e.U)
		g.addNode(e.V)
		g.edges[e] = struct{}{}
		g.adj[e.U][e.V] = struct{}{}
		g.adj[e.V][e.U] = struct{}{}
	}
	g.nodes = make([]int, 0, len(g.adj))
	for n := range g.adj {
		g.nodes = append(g.nodes, n)
	}
	sort.Ints(g.nodes)
	return g
}

func (g *Graph) addNode(n int) {
	if _, ok := g.adj[n]; !ok {
		g.adj[n] = make(map[int]struct{})
	}
}

// NumNodes returns the number of nodes.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NumEdges returns the number of edges.
func (g *Graph) NumEdges() int { return len(g.edges) }

// IsEmpty reports whether the graph has no couplers.
func (g *Graph) IsEmpty() bool { return g == nil || len(g.edges) == 0 }

// HasNode reports whether n is a node of g.
func (g *Graph) HasNode(n int) bool {
	_, ok := g.adj[n]
	return ok
}

// HasEdge reports whether {u, v} is an edge of g.
func (g *Graph) HasEdge(u, v int) bool {
	_, ok := g.edges[NewEdge(u, v)]
	return ok
}

// Degree returns the number of neighbours of n.
func (g *Graph) Degree(n int) int { return len(g.adj[n]) }

// Nodes returns the nodes in ascending order.
func (g *Graph) Nodes() []int {
	out := make([]int, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Edges returns the edges sorted by (U, V).
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, len(g.edges))
	for e := range g.edges {
		out = append(out, e)
	}
	sortEdges(out)
	return out
}

// EdgeSubgraph returns the subgraph induced by the given edges. Edges not in
// g are skipped and nodes left without couplers are dropped.
func (g *Graph) EdgeSubgraph(edges []Edge) *Graph {
	kept := make([]Edge, 0, len(edges))
	for _, e := range edges {
		if g.HasEdge(e.U, e.V) {
			kept = append(kept, e)
		}
	}
	return NewGraph(nil, kept)
}

// Relabel returns a copy of g with every node passed through m. It fails if
// m is not injective on the nodes of g.
func (g *Graph) Relabel(m Mapping) (*Graph, error) {
	seen := make(map[int]int, len(g.nodes))
	nodes := make([]int, 0, len(g.nodes))
	for _, n := range g.nodes {
		q := m.Map(n)
		if prev, dup := seen[q]; dup {
			return nil, fmt.Errorf("mapping %s sends %d and %d to %d", m.Label, prev, n, q)
		}
		seen[q] = n
		nodes = append(nodes, q)
	}
	edges := make([]Edge, 0, len(g.edges))
	for e := range g.edges {
		edges = append(edges, NewEdge(m.Map(e.U), m.Map(e.V)))
	}
	return NewGraph(nodes, edges), nil
}

// DegreeHistogram counts nodes by degree.
func (g *Graph) DegreeHistogram() map[int]int {
	h := make(map[int]int)
	for _, n := range g.nodes {
		h[len(g.adj[n])]++
	}
	return h
}

func sortEdges(edges []Edge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].U != edges[j].U {
			return edges[i].U < edges[j].U
		}
		return edges[i].V < edges[j].V
	})
}
