package spinglass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anneal-bench/anneal-bench/spinglass/topology"
)

func seedPtr(s int64) *int64 { return &s }

func TestGenerate_SameSeedSameWeights(t *testing.T) {
	g := topology.Chimera(2, 2, 4)
	for _, dist := range []Distribution{DistributionUniform, DistributionPowerLaw} {
		spec := WeightSpec{Distribution: dist, Precision: 128, Seed: seedPtr(42), Biases: true}
		a, err := Generate(g, spec)
		require.NoError(t, err)
		b, err := Generate(g, spec)
		require.NoError(t, err)
		assert.Equal(t, a.Couplings, b.Couplings, dist)
		assert.Equal(t, a.Biases, b.Biases, dist)
	}
}

func TestGenerate_DifferentSeedDifferentWeights(t *testing.T) {
	g := topology.Chimera(2, 2, 4)
	a, err := Generate(g, WeightSpec{Distribution: DistributionUniform, Precision: 128, Seed: seedPtr(1)})
	require.NoError(t, err)
	b, err := Generate(g, WeightSpec{Distribution: DistributionUniform, Precision: 128, Seed: seedPtr(2)})
	require.NoError(t, err)
	assert.NotEqual(t, a.Couplings, b.Couplings)
}

func TestGenerate_CoversGraphWithinBounds(t *testing.T) {
	g := topology.Chimera(3, 3, 4)
	p, err := Generate(g, WeightSpec{Distribution: DistributionPowerLaw, Precision: 16, Seed: seedPtr(7)})
	require.NoError(t, err)

	require.Len(t, p.Couplings, g.NumEdges())
	for e, j := range p.Couplings {
		assert.True(t, g.HasEdge(e.U, e.V))
		assert.LessOrEqual(t, j, 16.0)
		assert.GreaterOrEqual(t, j, -16.0)
		assert.NotZero(t, j)
	}
	require.Len(t, p.Biases, g.NumNodes())
	for _, h := range p.Biases {
		assert.Zero(t, h, "biases are off by default")
	}
}

func TestGenerate_NilSeedIsRecorded(t *testing.T) {
	orig := clockSeed
	clockSeed = func() int64 { return 1234 }
	defer func() { clockSeed = orig }()

	g := topology.Chimera(1, 1, 4)
	p, err := Generate(g, WeightSpec{Distribution: DistributionUniform, Precision: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(1234), p.Seed)
	require.NotNil(t, p.Spec.Seed)

	again, err := Generate(g, p.Spec)
	require.NoError(t, err)
	assert.Equal(t, p.Couplings, again.Couplings)
}

func TestGenerate_Rejects(t *testing.T) {
	_, err := Generate(topology.Chimera(1, 1, 4), WeightSpec{Distribution: DistributionUniform, Precision: 0.5})
	assert.True(t, IsValidationError(err))

	_, err = Generate(topology.NewGraph([]int{1, 2}, nil), WeightSpec{Distribution: DistributionUniform, Precision: 4})
	assert.ErrorIs(t, err, topology.ErrEmptyGraph)
}

func TestProblemInstance_RelabelPreservesEnergy(t *testing.T) {
	// GIVEN a problem on a single chimera cell placed at cell (1, 1) of a 2x2 lattice
	g := topology.Chimera(1, 1, 4)
	p, err := Generate(g, WeightSpec{Distribution: DistributionUniform, Precision: 8, Seed: seedPtr(9), Biases: true})
	require.NoError(t, err)
	target := topology.ChimeraShape{M: 2, N: 2, T: 4}
	src := topology.ChimeraShape{M: 1, N: 1, T: 4}
	table := map[int]int{}
	for _, n := range g.Nodes() {
		c := src.Coord(n)
		c.Row, c.Col = 1, 1
		table[n] = target.Linear(c)
	}

	// WHEN relabelled
	r, err := p.Relabel(topology.MappingFromTable("cell (1,1)", table))
	require.NoError(t, err)

	// THEN the all-up state has the same energy in both labellings
	up, upRelabelled := map[int]int8{}, map[int]int8{}
	for _, n := range g.Nodes() {
		up[n] = 1
		upRelabelled[table[n]] = 1
	}
	assert.InDelta(t, p.Energy(up), r.Energy(upRelabelled), 1e-12)
	for e := range r.Couplings {
		assert.True(t, topology.Chimera(2, 2, 4).HasEdge(e.U, e.V))
	}
}

func TestProblemInstance_Energy(t *testing.T) {
	g := topology.NewGraph(nil, []topology.Edge{{U: 0, V: 1}, {U: 1, V: 2}})
	p := &ProblemInstance{
		Graph:     g,
		Couplings: map[topology.Edge]float64{{U: 0, V: 1}: -1, {U: 1, V: 2}: 2},
		Biases:    map[int]float64{0: 0.5, 1: 0, 2: 0},
	}
	// 0.5*1 + (-1)(1)(1) + 2(1)(-1) = -2.5
	assert.InDelta(t, -2.5, p.Energy(map[int]int8{0: 1, 1: 1, 2: -1}), 1e-12)
	assert.Equal(t, []Term{{U: 0, V: 1, J: -1}, {U: 1, V: 2, J: 2}}, p.Terms())
}
