package spinglass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSet(pairs ...float64) *SampleSet {
	ss := &SampleSet{}
	for i := 0; i+1 < len(pairs); i += 2 {
		ss.Samples = append(ss.Samples, Sample{Energy: pairs[i], Occurrences: int(pairs[i+1])})
	}
	return ss
}

func TestSampleSet_EnergiesExpandOccurrences(t *testing.T) {
	ss := sampleSet(-3, 2, -1, 1)
	assert.Equal(t, 3, ss.NumReads())
	assert.Equal(t, []float64{-3, -3, -1}, ss.Energies())

	low, ok := ss.Lowest()
	require.True(t, ok)
	assert.Equal(t, -3.0, low.Energy)

	_, ok = (&SampleSet{}).Lowest()
	assert.False(t, ok)
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleSet(-10, 100, -5, 900))
	assert.Equal(t, 1000, s.NumReads)
	assert.Equal(t, -10.0, s.Min)
	assert.Equal(t, -5.0, s.Max)
	assert.Equal(t, -5.0, s.Median)
	assert.InDelta(t, -5.5, s.Mean, 1e-9)
	assert.InDelta(t, 0.1, s.GroundFraction, 1e-12)

	assert.Equal(t, Summary{}, Summarize(&SampleSet{}))
	single := Summarize(sampleSet(2, 1))
	assert.Equal(t, 2.0, single.Mean)
	assert.Zero(t, single.StdDev)
}

func TestCompare_ExactlyNumReads(t *testing.T) {
	a := SystemResult{Solver: "Advantage_system4.1", Samples: sampleSet(-10, 100, -5, 900)}
	b := SystemResult{Solver: "Advantage2_system1.2", Samples: sampleSet(-10, 500, -8, 500)}

	res, err := Compare(a, b)
	require.NoError(t, err)

	assert.Equal(t, -10.0, res.BestEnergy)
	assert.InDelta(t, 0.9, res.KSDistance, 1e-9)
	assert.InDelta(t, 0.1, res.Systems[0].Summary.GroundFraction, 1e-12)
	assert.InDelta(t, 0.5, res.Systems[1].Summary.GroundFraction, 1e-12)
	for i := range res.Systems {
		assert.Equal(t, NumReads, res.Systems[i].Summary.NumReads)
	}

	require.Equal(t, HistogramBins, res.Histogram.Bins())
	for i := 0; i < 2; i++ {
		total := 0.0
		for _, c := range res.Histogram.Counts[i] {
			total += c
		}
		assert.Equal(t, float64(NumReads), total, "every read lands in a bin")
	}
	assert.Equal(t, 900.0, res.Histogram.MaxCount())
}

func TestCompare_RejectsPartialResults(t *testing.T) {
	full := SystemResult{Solver: "a", Samples: sampleSet(-1, 1000)}
	short := SystemResult{Solver: "b", Samples: sampleSet(-1, 999)}

	_, err := Compare(full, short)
	assert.ErrorIs(t, err, ErrIncompleteRun)
	_, err = Compare(SystemResult{Solver: "nil"}, full)
	assert.ErrorIs(t, err, ErrIncompleteRun)
}

func TestCompare_IdenticalEnergies(t *testing.T) {
	a := SystemResult{Solver: "a", Samples: sampleSet(-4, 1000)}
	b := SystemResult{Solver: "b", Samples: sampleSet(-4, 1000)}

	res, err := Compare(a, b)
	require.NoError(t, err)
	assert.Zero(t, res.KSDistance)
	assert.Equal(t, 1.0, res.Systems[0].Summary.GroundFraction)
	assert.Equal(t, 1000.0, res.Histogram.MaxCount())
}
