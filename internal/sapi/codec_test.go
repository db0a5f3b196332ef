package sapi

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anneal-bench/anneal-bench/spinglass"
	"github.com/anneal-bench/anneal-bench/spinglass/topology"
)

func testProps() *SolverProperties {
	return &SolverProperties{
		NumQubits: 6,
		Qubits:    []int{0, 1, 2, 4, 5},
		Couplers:  [][2]int{{0, 1}, {1, 2}, {2, 4}, {4, 5}, {0, 5}},
	}
}

func TestEncodeProblem_LayoutMatchesSolver(t *testing.T) {
	g := topology.NewGraph(nil, []topology.Edge{{U: 0, V: 1}, {U: 1, V: 2}})
	p := &spinglass.ProblemInstance{
		Graph:     g,
		Couplings: map[topology.Edge]float64{{U: 0, V: 1}: -1, {U: 1, V: 2}: 3},
		Biases:    map[int]float64{0: 0.5, 1: 0, 2: -2},
	}
	data, err := EncodeProblem(p, testProps())
	require.NoError(t, err)
	assert.Equal(t, FormatQP, data.Format)

	lin, err := decodeFloat64s(data.Lin)
	require.NoError(t, err)
	require.Len(t, lin, 6)
	assert.Equal(t, []float64{0.5, 0, -2}, lin[:3])
	for _, q := range []int{3, 4, 5} {
		assert.True(t, math.IsNaN(lin[q]), "qubit %d unused", q)
	}

	quad, err := decodeFloat64s(data.Quad)
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, 3}, quad, "only couplers between used qubits, in solver order")

	h, j, err := DecodeProblem(data, testProps())
	require.NoError(t, err)
	assert.Equal(t, map[int]float64{0: 0.5, 1: 0, 2: -2}, h)
	assert.Equal(t, p.Couplings, j)
}

func TestEncodeProblem_RejectsMissingHardware(t *testing.T) {
	broken := &spinglass.ProblemInstance{
		Graph:     topology.NewGraph(nil, []topology.Edge{{U: 2, V: 3}}),
		Couplings: map[topology.Edge]float64{{U: 2, V: 3}: 1},
		Biases:    map[int]float64{2: 0, 3: 0},
	}
	_, err := EncodeProblem(broken, testProps())
	assert.ErrorContains(t, err, "qubit 3")

	noCoupler := &spinglass.ProblemInstance{
		Graph:     topology.NewGraph(nil, []topology.Edge{{U: 0, V: 2}}),
		Couplings: map[topology.Edge]float64{{U: 0, V: 2}: 1},
		Biases:    map[int]float64{0: 0, 2: 0},
	}
	_, err = EncodeProblem(noCoupler, testProps())
	assert.ErrorContains(t, err, "coupler (0, 2)")
}

func TestAnswer_RoundTripsPackedSolutions(t *testing.T) {
	// 9 variables forces a second byte per row
	vars := []int{0, 1, 2, 3, 4, 5, 6, 7, 8}
	ss := &spinglass.SampleSet{
		Variables: vars,
		Samples: []spinglass.Sample{
			{Spins: []int8{1, -1, -1, -1, -1, -1, -1, -1, 1}, Energy: -7, Occurrences: 600},
			{Spins: []int8{-1, 1, 1, 1, 1, 1, 1, 1, -1}, Energy: -3.5, Occurrences: 400},
		},
		Timing: map[string]float64{"qpu_access_time": 12345},
	}
	a := EncodeAnswer(ss, 16)

	got, err := DecodeAnswer(a)
	require.NoError(t, err)
	assert.Equal(t, ss.Variables, got.Variables)
	assert.Equal(t, ss.Samples, got.Samples)
	assert.Equal(t, 1000, got.NumReads())
	assert.Equal(t, 12345.0, got.Timing["qpu_access_time"])
}

func TestDecodeAnswer_MSBFirst(t *testing.T) {
	// one variable set to +1 must be the high bit of the first byte
	a := EncodeAnswer(&spinglass.SampleSet{
		Variables: []int{10},
		Samples:   []spinglass.Sample{{Spins: []int8{1}, Energy: 0, Occurrences: 1}},
	}, 11)
	assert.Equal(t, "gA==", a.Solutions) // 0x80
}

func TestDecodeAnswer_Rejects(t *testing.T) {
	_, err := DecodeAnswer(nil)
	assert.Error(t, err)

	a := EncodeAnswer(&spinglass.SampleSet{
		Variables: []int{0},
		Samples:   []spinglass.Sample{{Spins: []int8{1}, Energy: 0, Occurrences: 1}},
	}, 1)
	a.NumOccurrences = encodeInt32s([]int32{1, 2})
	_, err = DecodeAnswer(a)
	assert.ErrorContains(t, err, "occurrence counts")

	a.Format = "bq"
	_, err = DecodeAnswer(a)
	assert.ErrorContains(t, err, "unsupported answer format")
}
