package spinglass

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func drawMagnitudes(t *testing.T, spec WeightSpec, n int, seed int64) []float64 {
	t.Helper()
	s, err := NewWeightSampler(spec)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Abs(s.Sample(rng))
	}
	sort.Float64s(out)
	return out
}

func TestWeightSampler_WithinPrecision(t *testing.T) {
	for _, dist := range []Distribution{DistributionUniform, DistributionPowerLaw} {
		for _, p := range []float64{1, 2, 7.5, 128, 1024} {
			s, err := NewWeightSampler(WeightSpec{Distribution: dist, Precision: p})
			require.NoError(t, err)
			rng := rand.New(rand.NewSource(3))
			for i := 0; i < 2000; i++ {
				w := s.Sample(rng)
				require.GreaterOrEqual(t, math.Abs(w), 1.0, "%s P=%v", dist, p)
				require.LessOrEqual(t, math.Abs(w), math.Floor(p), "%s P=%v", dist, p)
				require.Equal(t, math.Trunc(w), w, "weights are integers")
			}
		}
	}
}

func TestWeightSampler_PrecisionOneIsPlusMinusOne(t *testing.T) {
	s, err := NewWeightSampler(WeightSpec{Distribution: DistributionUniform, Precision: 1})
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(42))
	seen := map[float64]bool{}
	for i := 0; i < 200; i++ {
		seen[s.Sample(rng)] = true
	}
	assert.Equal(t, map[float64]bool{-1: true, 1: true}, seen)
}

func TestPowerLawSampler_FavoursSmallMagnitudes(t *testing.T) {
	x := drawMagnitudes(t, WeightSpec{Distribution: DistributionPowerLaw, Precision: 128}, 10000, 42)
	ones := 0
	for _, v := range x {
		if v == 1 {
			ones++
		}
	}
	// P(k=1) = 1/H(128, 2) ≈ 0.611
	assert.InDelta(t, 0.611, float64(ones)/float64(len(x)), 0.03)
}

func TestWeightDistributions_AreDistinguishable(t *testing.T) {
	uniform := drawMagnitudes(t, WeightSpec{Distribution: DistributionUniform, Precision: 128}, 5000, 1)
	powerLaw := drawMagnitudes(t, WeightSpec{Distribution: DistributionPowerLaw, Precision: 128}, 5000, 1)

	d := stat.KolmogorovSmirnov(uniform, nil, powerLaw, nil)
	assert.Greater(t, d, 0.5, "KS distance between uniform and power-law magnitudes")
}

func TestWeightSpec_Validate(t *testing.T) {
	tests := []struct {
		name  string
		spec  WeightSpec
		field string
	}{
		{"valid uniform", WeightSpec{Distribution: DistributionUniform, Precision: 128}, ""},
		{"valid power-law max", WeightSpec{Distribution: DistributionPowerLaw, Precision: 1024}, ""},
		{"unknown distribution", WeightSpec{Distribution: "gaussian", Precision: 4}, "distribution"},
		{"precision zero", WeightSpec{Distribution: DistributionUniform, Precision: 0}, "precision"},
		{"precision too large", WeightSpec{Distribution: DistributionUniform, Precision: 2048}, "precision"},
		{"precision NaN", WeightSpec{Distribution: DistributionUniform, Precision: math.NaN()}, "precision"},
		{"precision Inf", WeightSpec{Distribution: DistributionUniform, Precision: math.Inf(1)}, "precision"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestPrecisionOptions_PowersOfTwo(t *testing.T) {
	assert.Equal(t, []int{1, 2, 4, 8, 16, 32, 64, 128, 256, 512, 1024}, PrecisionOptions)
	assert.Contains(t, PrecisionOptions, DefaultPrecision)
}
