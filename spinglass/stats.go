package spinglass

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	// NumReads is the number of reads requested from, and required of, each
	// system in a comparison.
	NumReads = 1000

	// HistogramBins is the number of shared energy bins.
	HistogramBins = 50

	// groundTolerance absorbs float noise when matching the best energy.
	groundTolerance = 1e-9
)

// ErrIncompleteRun is returned when a system returned fewer or more reads
// than requested.
var ErrIncompleteRun = errors.New("system did not return the requested number of reads")

// Summary describes one system's energy distribution.
type Summary struct {
	NumReads       int     `json:"num_reads" yaml:"num_reads"`
	Min            float64 `json:"min" yaml:"min"`
	Max            float64 `json:"max" yaml:"max"`
	Mean           float64 `json:"mean" yaml:"mean"`
	StdDev         float64 `json:"std_dev" yaml:"std_dev"`
	Median         float64 `json:"median" yaml:"median"`
	GroundFraction float64 `json:"ground_fraction" yaml:"ground_fraction"` // reads at the best energy seen by either system
}

// Summarize computes the read-weighted statistics of a sample set. The
// GroundFraction is relative to the set's own minimum.
func Summarize(ss *SampleSet) Summary {
	x := sortedEnergies(ss)
	if len(x) == 0 {
		return Summary{}
	}
	s := Summary{
		NumReads: len(x),
		Min:      x[0],
		Max:      x[len(x)-1],
		Median:   stat.Quantile(0.5, stat.Empirical, x, nil),
	}
	if len(x) == 1 {
		s.Mean = x[0]
	} else {
		s.Mean, s.StdDev = stat.MeanStdDev(x, nil)
	}
	s.GroundFraction = fractionAtOrBelow(x, s.Min)
	return s
}

func sortedEnergies(ss *SampleSet) []float64 {
	if ss == nil {
		return nil
	}
	x := ss.Energies()
	sort.Float64s(x)
	return x
}

func fractionAtOrBelow(sorted []float64, e float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	n := sort.SearchFloat64s(sorted, e+groundTolerance)
	for n < len(sorted) && sorted[n] <= e+groundTolerance {
		n++
	}
	return float64(n) / float64(len(sorted))
}

// SystemResult is one system's side of a comparison.
type SystemResult struct {
	Solver     string     `json:"solver" yaml:"solver"`
	Generation string     `json:"generation" yaml:"generation"` // "Advantage" or "Advantage2"
	Placement  string     `json:"placement,omitempty" yaml:"placement,omitempty"`
	Samples    *SampleSet `json:"samples" yaml:"samples"`
	Summary    Summary    `json:"summary" yaml:"summary"`
}

// Histogram holds per-system read counts over shared energy bins.
type Histogram struct {
	Dividers []float64    `json:"dividers" yaml:"dividers"` // len = bins+1
	Counts   [2][]float64 `json:"counts" yaml:"counts"`
}

// Bins returns the number of bins.
func (h Histogram) Bins() int { return len(h.Dividers) - 1 }

// MaxCount returns the largest bin count across both systems.
func (h Histogram) MaxCount() float64 {
	m := 0.0
	for _, c := range h.Counts {
		if len(c) > 0 {
			m = math.Max(m, floats.Max(c))
		}
	}
	return m
}

// ProblemSummary describes the problem both systems solved.
type ProblemSummary struct {
	Seed         int64        `json:"seed" yaml:"seed"`
	Distribution Distribution `json:"distribution" yaml:"distribution"`
	Precision    float64      `json:"precision" yaml:"precision"`
	Qubits       int          `json:"qubits" yaml:"qubits"`
	Couplers     int          `json:"couplers" yaml:"couplers"`
	Anneal       AnnealSpec   `json:"anneal" yaml:"anneal"`
}

// ComparisonResult is the outcome of one matched run on two systems.
type ComparisonResult struct {
	Problem    ProblemSummary  `json:"problem" yaml:"problem"`
	Systems    [2]SystemResult `json:"systems" yaml:"systems"`
	Histogram  Histogram       `json:"histogram" yaml:"histogram"`
	KSDistance float64         `json:"ks_distance" yaml:"ks_distance"`
	BestEnergy float64         `json:"best_energy" yaml:"best_energy"`
}

// Compare builds the comparison of two system results. Both sides must hold
// exactly NumReads reads.
func Compare(a, b SystemResult) (*ComparisonResult, error) {
	sides := [2]SystemResult{a, b}
	var energies [2][]float64
	for i, s := range sides {
		if n := s.Samples.NumReads(); n != NumReads {
			return nil, fmt.Errorf("%s returned %d reads, want %d: %w", s.Solver, n, NumReads, ErrIncompleteRun)
		}
		energies[i] = sortedEnergies(s.Samples)
	}

	lo := math.Min(energies[0][0], energies[1][0])
	hi := math.Max(energies[0][NumReads-1], energies[1][NumReads-1])

	res := &ComparisonResult{
		BestEnergy: lo,
		KSDistance: stat.KolmogorovSmirnov(energies[0], nil, energies[1], nil),
		Histogram:  sharedHistogram(energies, lo, hi, HistogramBins),
	}
	for i, s := range sides {
		s.Summary = Summarize(s.Samples)
		s.Summary.GroundFraction = fractionAtOrBelow(energies[i], lo)
		res.Systems[i] = s
	}
	return res, nil
}

func sharedHistogram(energies [2][]float64, lo, hi float64, bins int) Histogram {
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	dividers := make([]float64, bins+1)
	floats.Span(dividers, lo, hi)
	// stat.Histogram requires every value strictly below the last divider.
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	h := Histogram{Dividers: dividers}
	for i, x := range energies {
		h.Counts[i] = stat.Histogram(nil, dividers, x, nil)
	}
	return h
}
