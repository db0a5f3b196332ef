package topology

import (
	"fmt"
	"math/rand"
)

// Defects describes how much of a perfect lattice is unusable.
type Defects struct {
	Qubits   float64 `yaml:"qubits" json:"qubits"`     // fraction of qubits removed
	Couplers float64 `yaml:"couplers" json:"couplers"` // fraction of remaining couplers removed
}

// Synthesize builds a working graph for a lattice by removing a seeded
// random fraction of qubits and couplers from the perfect graph.
func Synthesize(solver string, family Family, shape []int, d Defects, seed int64) (*Hardware, error) {
	if d.Qubits < 0 || d.Qubits >= 1 || d.Couplers < 0 || d.Couplers >= 1 {
		return nil, fmt.Errorf("solver %s: defect fractions must be in [0, 1), got qubits=%v couplers=%v", solver, d.Qubits, d.Couplers)
	}
	perfect, err := PerfectGraph(family, shape)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(seed))

	dead := make(map[int]bool)
	nodes := make([]int, 0, perfect.NumNodes())
	for _, n := range perfect.Nodes() {
		if rng.Float64() < d.Qubits {
			dead[n] = true
			continue
		}
		nodes = append(nodes, n)
	}
	edges := make([]Edge, 0, perfect.NumEdges())
	for _, e := range perfect.Edges() {
		if dead[e.U] || dead[e.V] {
			continue
		}
		if rng.Float64() < d.Couplers {
			continue
		}
		edges = append(edges, e)
	}

	return &Hardware{
		Solver:    solver,
		Family:    family,
		Shape:     append([]int(nil), shape...),
		NumQubits: LabelCount(family, shape),
		Graph:     NewGraph(nodes, edges),
	}, nil
}
