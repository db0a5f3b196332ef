package sapitest

import (
	"math"
	"math/rand"
	"sort"

	"github.com/anneal-bench/anneal-bench/spinglass"
	"github.com/anneal-bench/anneal-bench/spinglass/topology"
)

// fastAnnealScale converts fast-anneal microseconds into equivalent standard
// microseconds for the sweep budget.
const fastAnnealScale = 100

// neighbour is one coupling seen from a spin.
type neighbour struct {
	idx int
	j   float64
}

// isingModel is a problem compiled for repeated sweeps.
type isingModel struct {
	labels []int // sorted qubit labels
	h      []float64
	adj    [][]neighbour
}

func compileModel(h map[int]float64, j map[topology.Edge]float64) *isingModel {
	labels := make([]int, 0, len(h))
	for q := range h {
		labels = append(labels, q)
	}
	sort.Ints(labels)
	index := make(map[int]int, len(labels))
	for i, q := range labels {
		index[q] = i
	}
	m := &isingModel{labels: labels, h: make([]float64, len(labels)), adj: make([][]neighbour, len(labels))}
	for i, q := range labels {
		m.h[i] = h[q]
	}
	edges := make([]topology.Edge, 0, len(j))
	for e := range j {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(a, b int) bool {
		if edges[a].U != edges[b].U {
			return edges[a].U < edges[b].U
		}
		return edges[a].V < edges[b].V
	})
	for _, e := range edges {
		u, v := index[e.U], index[e.V]
		m.adj[u] = append(m.adj[u], neighbour{idx: v, j: j[e]})
		m.adj[v] = append(m.adj[v], neighbour{idx: u, j: j[e]})
	}
	return m
}

func (m *isingModel) energy(s []int8) float64 {
	e := 0.0
	for i, si := range s {
		e += m.h[i] * float64(si)
		for _, n := range m.adj[i] {
			if n.idx > i {
				e += n.j * float64(si) * float64(s[n.idx])
			}
		}
	}
	return e
}

// betaRange picks hot and cold inverse temperatures from the coefficient
// scale so that the first sweeps flip freely and the last ones freeze.
func (m *isingModel) betaRange() (float64, float64) {
	maxField, minCoeff := 0.0, math.Inf(1)
	for i := range m.h {
		field := math.Abs(m.h[i])
		if a := math.Abs(m.h[i]); a > 0 {
			minCoeff = math.Min(minCoeff, a)
		}
		for _, n := range m.adj[i] {
			field += math.Abs(n.j)
			if a := math.Abs(n.j); a > 0 {
				minCoeff = math.Min(minCoeff, a)
			}
		}
		maxField = math.Max(maxField, field)
	}
	if maxField == 0 || math.IsInf(minCoeff, 1) {
		return 0.1, 1
	}
	return math.Log(2) / (2 * maxField), math.Log(100) / (2 * minCoeff)
}

// anneal runs reads independent single-spin-flip Metropolis anneals with a
// geometric beta schedule and aggregates identical states.
func (m *isingModel) anneal(reads, sweeps int, rng *rand.Rand) *spinglass.SampleSet {
	n := len(m.labels)
	hot, cold := m.betaRange()
	betas := make([]float64, sweeps)
	for k := range betas {
		if sweeps == 1 {
			betas[k] = cold
			continue
		}
		betas[k] = hot * math.Pow(cold/hot, float64(k)/float64(sweeps-1))
	}

	type agg struct {
		spins  []int8
		energy float64
		count  int
	}
	seen := make(map[string]*agg)
	var order []string

	s := make([]int8, n)
	for r := 0; r < reads; r++ {
		for i := range s {
			s[i] = int8(2*rng.Intn(2) - 1)
		}
		for _, beta := range betas {
			for i := 0; i < n; i++ {
				field := m.h[i]
				for _, nb := range m.adj[i] {
					field += nb.j * float64(s[nb.idx])
				}
				delta := -2 * float64(s[i]) * field
				if delta <= 0 || rng.Float64() < math.Exp(-beta*delta) {
					s[i] = -s[i]
				}
			}
		}
		key := spinKey(s)
		if a, ok := seen[key]; ok {
			a.count++
			continue
		}
		cp := make([]int8, n)
		copy(cp, s)
		seen[key] = &agg{spins: cp, energy: m.energy(cp), count: 1}
		order = append(order, key)
	}

	ss := &spinglass.SampleSet{Variables: append([]int(nil), m.labels...)}
	for _, k := range order {
		a := seen[k]
		ss.Samples = append(ss.Samples, spinglass.Sample{Spins: a.spins, Energy: a.energy, Occurrences: a.count})
	}
	ss.SortByEnergy()
	return ss
}

func spinKey(s []int8) string {
	b := make([]byte, len(s))
	for i, v := range s {
		if v > 0 {
			b[i] = '1'
		} else {
			b[i] = '0'
		}
	}
	return string(b)
}

// sweepsFor converts an anneal protocol into a sweep budget.
func sweepsFor(sf SolverFixture, annealTime float64, fast bool) int {
	if fast {
		annealTime *= fastAnnealScale
	}
	sweeps := int(math.Ceil(annealTime * sf.SweepsPerMicrosecond))
	maxSweeps := sf.MaxSweeps
	if maxSweeps <= 0 {
		maxSweeps = 256
	}
	return max(1, min(sweeps, maxSweeps))
}
