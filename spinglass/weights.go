package spinglass

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Distribution names a coupler weight distribution.
type Distribution string

const (
	DistributionUniform  Distribution = "uniform"
	DistributionPowerLaw Distribution = "power-law"
)

// validDistributions maps accepted distribution names.
var validDistributions = map[Distribution]bool{
	DistributionUniform:  true,
	DistributionPowerLaw: true,
}

// IsValidDistribution reports whether name is a known weight distribution.
func IsValidDistribution(name string) bool {
	return validDistributions[Distribution(name)]
}

// Precision bounds. Weights are integer magnitudes in [1, floor(P)].
const (
	MinPrecision     = 1
	MaxPrecision     = 1024
	DefaultPrecision = 128

	// PowerLawExponent is the exponent a of P(k) ~ k^-a for power-law weights.
	PowerLawExponent = 2.0
)

// PrecisionOptions lists the precisions offered in the UI: 2^0 .. 2^10.
var PrecisionOptions = func() []int {
	out := make([]int, 0, 11)
	for p := 1; p <= MaxPrecision; p *= 2 {
		out = append(out, p)
	}
	return out
}()

// WeightSpec selects how coupler and bias weights are drawn.
type WeightSpec struct {
	Distribution Distribution `yaml:"distribution" json:"distribution"`
	Precision    float64      `yaml:"precision" json:"precision"`
	Seed         *int64       `yaml:"seed,omitempty" json:"seed,omitempty"`
	Biases       bool         `yaml:"biases" json:"biases"`
}

// Validate checks the distribution and precision.
func (s WeightSpec) Validate() error {
	if !validDistributions[s.Distribution] {
		return &ValidationError{Field: "distribution", Msg: fmt.Sprintf("unknown distribution %q; valid: uniform, power-law", s.Distribution)}
	}
	if math.IsNaN(s.Precision) || math.IsInf(s.Precision, 0) {
		return &ValidationError{Field: "precision", Msg: fmt.Sprintf("precision must be a finite number, got %v", s.Precision)}
	}
	if s.Precision < MinPrecision || s.Precision > MaxPrecision {
		return &ValidationError{Field: "precision", Msg: fmt.Sprintf("precision must be between %d and %d, got %v", MinPrecision, MaxPrecision, s.Precision)}
	}
	return nil
}

// WeightSampler draws signed integer-valued weights.
type WeightSampler interface {
	// Sample returns a weight w with 1 <= |w| <= floor(precision).
	Sample(rng *rand.Rand) float64
}

// UniformSampler draws magnitudes uniformly from {1..max}.
type UniformSampler struct {
	max int
}

func (s *UniformSampler) Sample(rng *rand.Rand) float64 {
	k := 1 + rng.Intn(s.max)
	return signed(rng, k)
}

// PowerLawSampler draws magnitudes from a discrete Zipf distribution on
// {1..max} using inverse CDF via binary search.
type PowerLawSampler struct {
	cdf []float64 // cdf[i] = P(k <= i+1)
}

// NewPowerLawSampler builds the CDF for P(k) ~ k^-alpha on {1..max}.
func NewPowerLawSampler(max int, alpha float64) *PowerLawSampler {
	cdf := make([]float64, max)
	total := 0.0
	for k := 1; k <= max; k++ {
		total += math.Pow(float64(k), -alpha)
		cdf[k-1] = total
	}
	for i := range cdf {
		cdf[i] /= total
	}
	cdf[max-1] = 1.0
	return &PowerLawSampler{cdf: cdf}
}

func (s *PowerLawSampler) Sample(rng *rand.Rand) float64 {
	u := rng.Float64()
	idx := sort.SearchFloat64s(s.cdf, u)
	if idx >= len(s.cdf) {
		idx = len(s.cdf) - 1
	}
	return signed(rng, idx+1)
}

func signed(rng *rand.Rand, k int) float64 {
	if rng.Intn(2) == 0 {
		return -float64(k)
	}
	return float64(k)
}

// NewWeightSampler creates a WeightSampler from a validated WeightSpec.
func NewWeightSampler(spec WeightSpec) (WeightSampler, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	max := int(math.Floor(spec.Precision))
	switch spec.Distribution {
	case DistributionUniform:
		return &UniformSampler{max: max}, nil
	case DistributionPowerLaw:
		return NewPowerLawSampler(max, PowerLawExponent), nil
	default:
		return nil, fmt.Errorf("unknown distribution %q", spec.Distribution)
	}
}
