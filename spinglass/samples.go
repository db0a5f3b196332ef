package spinglass

import "sort"

// Sample is one distinct spin configuration returned by a solver.
type Sample struct {
	Spins       []int8  `json:"spins,omitempty"` // aligned with SampleSet.Variables
	Energy      float64 `json:"energy"`
	Occurrences int     `json:"occurrences"`
}

// SampleSet is the answer of one solver to one problem.
type SampleSet struct {
	ProblemID string             `json:"problem_id,omitempty"`
	Variables []int              `json:"variables"`
	Samples   []Sample           `json:"samples"`
	Timing    map[string]float64 `json:"timing,omitempty"` // microseconds
}

// NumReads returns the total number of reads, counting occurrences.
func (s *SampleSet) NumReads() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, smp := range s.Samples {
		n += smp.Occurrences
	}
	return n
}

// Energies expands every sample by its occurrence count.
func (s *SampleSet) Energies() []float64 {
	out := make([]float64, 0, s.NumReads())
	for _, smp := range s.Samples {
		for i := 0; i < smp.Occurrences; i++ {
			out = append(out, smp.Energy)
		}
	}
	return out
}

// Lowest returns the sample with the lowest energy, or false for an empty
// set.
func (s *SampleSet) Lowest() (Sample, bool) {
	if s == nil || len(s.Samples) == 0 {
		return Sample{}, false
	}
	best := s.Samples[0]
	for _, smp := range s.Samples[1:] {
		if smp.Energy < best.Energy {
			best = smp
		}
	}
	return best, true
}

// Assignment returns sample i as a label -> spin map.
func (s *SampleSet) Assignment(i int) map[int]int8 {
	out := make(map[int]int8, len(s.Variables))
	for j, v := range s.Variables {
		out[v] = s.Samples[i].Spins[j]
	}
	return out
}

// SortByEnergy orders samples by ascending energy.
func (s *SampleSet) SortByEnergy() {
	sort.SliceStable(s.Samples, func(i, j int) bool {
		return s.Samples[i].Energy < s.Samples[j].Energy
	})
}
