package compare

import (
	"sort"
	"strings"
)

// Generation names derived from the solver name prefix.
const (
	GenerationAdvantage  = "Advantage"
	GenerationAdvantage2 = "Advantage2"

	// NoAccess is shown in place of solver names when none are reachable.
	NoAccess = "No Leap Access"
)

// Generation returns the part of a solver name before the first underscore,
// e.g. "Advantage2" for "Advantage2_system1.2".
func Generation(solver string) string {
	gen, _, _ := strings.Cut(solver, "_")
	return gen
}

// Partition holds the online solvers of each generation, sorted by name.
type Partition struct {
	Advantage  []string `json:"advantage"`
	Advantage2 []string `json:"advantage2"`
}

// PartitionSolvers splits online solvers by generation. Solvers of any other
// generation are ignored.
func PartitionSolvers(solvers []SolverInfo) Partition {
	var p Partition
	for _, s := range solvers {
		if !s.Online {
			continue
		}
		switch Generation(s.Name) {
		case GenerationAdvantage:
			p.Advantage = append(p.Advantage, s.Name)
		case GenerationAdvantage2:
			p.Advantage2 = append(p.Advantage2, s.Name)
		}
	}
	sort.Strings(p.Advantage)
	sort.Strings(p.Advantage2)
	return p
}

// Ready reports whether both generations have at least one solver.
func (p Partition) Ready() bool {
	return len(p.Advantage) > 0 && len(p.Advantage2) > 0
}

// Pick returns preferred if it is listed, otherwise the first entry, or ""
// for an empty list.
func Pick(list []string, preferred string) string {
	for _, s := range list {
		if s == preferred {
			return s
		}
	}
	if len(list) == 0 {
		return ""
	}
	return list[0]
}

func findSolver(solvers []SolverInfo, name string) (SolverInfo, bool) {
	for _, s := range solvers {
		if s.Name == name {
			return s, true
		}
	}
	return SolverInfo{}, false
}
