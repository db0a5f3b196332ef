package topology

import (
	"errors"
	"fmt"
)

// ErrNoPlacement is returned when a lattice cannot host the source graph.
var ErrNoPlacement = errors.New("no sublattice placement fits the hardware")

// Yield reports how much of a source graph survives on one system.
type Yield struct {
	Solver         string  `json:"solver" yaml:"solver"`
	Placement      string  `json:"placement" yaml:"placement"`
	Candidates     int     `json:"candidates" yaml:"candidates"`
	Couplers       int     `json:"couplers" yaml:"couplers"`               // source couplers present on the hardware
	SourceCouplers int     `json:"source_couplers" yaml:"source_couplers"` // couplers in the source graph
	Qubits         int     `json:"qubits" yaml:"qubits"`                   // source qubits present on the hardware
	SourceQubits   int     `json:"source_qubits" yaml:"source_qubits"`
	CouplerYield   float64 `json:"coupler_yield" yaml:"coupler_yield"`
	QubitYield     float64 `json:"qubit_yield" yaml:"qubit_yield"`
}

// Selection is the chosen placement of a source graph on one system.
type Selection struct {
	Mapping Mapping
	Edges   []Edge // source edges whose images are working couplers
	Yield   Yield
}

// CouplerYield counts the source edges whose images under m are edges of hw.
func CouplerYield(source, hw *Graph, m Mapping) []Edge {
	var kept []Edge
	for _, e := range source.Edges() {
		if hw.HasEdge(m.Map(e.U), m.Map(e.V)) {
			kept = append(kept, e)
		}
	}
	return kept
}

// SelectPlacement picks the candidate with the most surviving couplers. Ties
// keep the earliest candidate, so the choice is stable for a given
// enumeration order.
func SelectPlacement(source *Graph, hw *Hardware, candidates []Mapping) (*Selection, error) {
	if hw.Graph.IsEmpty() {
		return nil, fmt.Errorf("solver %s: %w", hw.Solver, ErrEmptyGraph)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("solver %s: %w", hw.Solver, ErrNoPlacement)
	}

	best := -1
	var bestEdges []Edge
	for i, m := range candidates {
		edges := CouplerYield(source, hw.Graph, m)
		if best < 0 || len(edges) > len(bestEdges) {
			best, bestEdges = i, edges
		}
	}

	m := candidates[best]
	qubits := 0
	for _, n := range source.Nodes() {
		if hw.Graph.HasNode(m.Map(n)) {
			qubits++
		}
	}
	y := Yield{
		Solver:         hw.Solver,
		Placement:      m.Label,
		Candidates:     len(candidates),
		Couplers:       len(bestEdges),
		SourceCouplers: source.NumEdges(),
		Qubits:         qubits,
		SourceQubits:   source.NumNodes(),
	}
	if y.SourceCouplers > 0 {
		y.CouplerYield = float64(y.Couplers) / float64(y.SourceCouplers)
	}
	if y.SourceQubits > 0 {
		y.QubitYield = float64(y.Qubits) / float64(y.SourceQubits)
	}
	return &Selection{Mapping: m, Edges: bestEdges, Yield: y}, nil
}

// ErrEmptyGraph is returned for a solver that reports no working couplers.
var ErrEmptyGraph = errors.New("topology has no working couplers")

// ErrTileMismatch is returned when two lattices host Chimera cells of
// different tile sizes.
var ErrTileMismatch = errors.New("lattices host different chimera tile sizes")

// Intersection is the Chimera graph both systems can run, with each system's
// chosen placement.
type Intersection struct {
	Size     int                // side of the source Chimera lattice
	Tile     int                // Chimera tile
	Graph    *Graph             // source-labelled graph after removing defects on both systems
	Mappings map[string]Mapping // solver name -> placement
	Yields   []Yield            // in the order the systems were given
}

// IntersectionSize returns the side and tile of the largest square Chimera
// lattice both systems can host.
func IntersectionSize(a, b *Hardware) (int, int, error) {
	if a.Tile() != b.Tile() {
		return 0, 0, fmt.Errorf("%s (tile %d) and %s (tile %d): %w", a.Solver, a.Tile(), b.Solver, b.Tile(), ErrTileMismatch)
	}
	return min(a.MaxChimera(), b.MaxChimera()), a.Tile(), nil
}

// Intersect finds the highest-yielding Chimera intersection of two systems.
// The placement on a is chosen first and the source graph is restricted to
// the couplers that survive there; b is then placed using the restricted
// graph and the result is restricted again.
func Intersect(a, b *Hardware) (*Intersection, error) {
	for _, hw := range []*Hardware{a, b} {
		if err := hw.Validate(); err != nil {
			return nil, err
		}
		if hw.Graph.IsEmpty() {
			return nil, fmt.Errorf("solver %s: %w", hw.Solver, ErrEmptyGraph)
		}
	}
	size, tile, err := IntersectionSize(a, b)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, ErrNoPlacement
	}

	source := Chimera(size, size, tile)
	out := &Intersection{Size: size, Tile: tile, Mappings: make(map[string]Mapping, 2)}
	for _, hw := range []*Hardware{a, b} {
		sel, err := SelectPlacement(source, hw, hw.Placements(size))
		if err != nil {
			return nil, err
		}
		source = source.EdgeSubgraph(sel.Edges)
		out.Mappings[hw.Solver] = sel.Mapping
		out.Yields = append(out.Yields, sel.Yield)
	}
	if source.IsEmpty() {
		return nil, fmt.Errorf("%s and %s: %w", a.Solver, b.Solver, ErrEmptyGraph)
	}
	out.Graph = source
	return out, nil
}
