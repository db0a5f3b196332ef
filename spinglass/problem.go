package spinglass

import (
	"fmt"
	"time"

	"github.com/anneal-bench/anneal-bench/spinglass/topology"
)

// ProblemInstance is an Ising problem: couplings on the edges of a graph and
// (optionally zero) biases on its nodes.
type ProblemInstance struct {
	Graph     *topology.Graph
	Couplings map[topology.Edge]float64
	Biases    map[int]float64
	Spec      WeightSpec
	Seed      int64 // seed actually used, also when Spec.Seed was nil
}

// clockSeed is replaced in tests.
var clockSeed = func() int64 { return time.Now().UnixNano() }

// Generate draws a problem on g. Edges are visited in sorted order from the
// couplings stream and nodes in sorted order from the biases stream, so the
// result depends only on the seed, the WeightSpec and g.
func Generate(g *topology.Graph, spec WeightSpec) (*ProblemInstance, error) {
	sampler, err := NewWeightSampler(spec)
	if err != nil {
		return nil, err
	}
	if g.IsEmpty() {
		return nil, fmt.Errorf("generating problem: %w", topology.ErrEmptyGraph)
	}

	seed := clockSeed()
	if spec.Seed != nil {
		seed = *spec.Seed
	}
	spec.Seed = &seed
	rng := NewPartitionedRNG(Seed(seed))

	p := &ProblemInstance{
		Graph:     g,
		Couplings: make(map[topology.Edge]float64, g.NumEdges()),
		Biases:    make(map[int]float64, g.NumNodes()),
		Spec:      spec,
		Seed:      seed,
	}
	couplings := rng.ForSubsystem(SubsystemCouplings)
	for _, e := range g.Edges() {
		p.Couplings[e] = sampler.Sample(couplings)
	}
	biases := rng.ForSubsystem(SubsystemBiases)
	for _, n := range g.Nodes() {
		if spec.Biases {
			p.Biases[n] = sampler.Sample(biases)
		} else {
			p.Biases[n] = 0
		}
	}
	return p, nil
}

// Relabel returns the problem expressed in the hardware labels of m.
func (p *ProblemInstance) Relabel(m topology.Mapping) (*ProblemInstance, error) {
	g, err := p.Graph.Relabel(m)
	if err != nil {
		return nil, err
	}
	out := &ProblemInstance{
		Graph:     g,
		Couplings: make(map[topology.Edge]float64, len(p.Couplings)),
		Biases:    make(map[int]float64, len(p.Biases)),
		Spec:      p.Spec,
		Seed:      p.Seed,
	}
	for e, j := range p.Couplings {
		out.Couplings[topology.NewEdge(m.Map(e.U), m.Map(e.V))] = j
	}
	for n, h := range p.Biases {
		out.Biases[m.Map(n)] = h
	}
	return out, nil
}

// Energy returns the Ising energy sum(h_i s_i) + sum(J_ij s_i s_j) of a spin
// assignment. Missing spins count as zero.
func (p *ProblemInstance) Energy(spins map[int]int8) float64 {
	e := 0.0
	for n, h := range p.Biases {
		e += h * float64(spins[n])
	}
	for edge, j := range p.Couplings {
		e += j * float64(spins[edge.U]) * float64(spins[edge.V])
	}
	return e
}

// Term is one coupling in sorted export form.
type Term struct {
	U int     `json:"u" yaml:"u"`
	V int     `json:"v" yaml:"v"`
	J float64 `json:"j" yaml:"j"`
}

// Terms returns the couplings sorted by edge.
func (p *ProblemInstance) Terms() []Term {
	out := make([]Term, 0, len(p.Couplings))
	for _, e := range p.Graph.Edges() {
		if j, ok := p.Couplings[e]; ok {
			out = append(out, Term{U: e.U, V: e.V, J: j})
		}
	}
	return out
}
