// Package compare runs one spin-glass problem on an Advantage and an
// Advantage2 system with matched parameters and compares the answers.
package compare

import (
	"context"
	"errors"

	"github.com/anneal-bench/anneal-bench/spinglass"
	"github.com/anneal-bench/anneal-bench/spinglass/topology"
)

var (
	// ErrEmptyTopology is returned when a solver reports no working couplers.
	ErrEmptyTopology = errors.New("solver topology is empty")

	// ErrUnknownSolver is returned for a solver the catalog does not list.
	ErrUnknownSolver = errors.New("solver not available")
)

// SolverInfo is the part of a solver description the comparison needs.
type SolverInfo struct {
	Name      string                 `json:"name" yaml:"name"`
	Family    topology.Family        `json:"family" yaml:"family"`
	Shape     []int                  `json:"shape" yaml:"shape"`
	NumQubits int                    `json:"num_qubits" yaml:"num_qubits"`
	Online    bool                   `json:"online" yaml:"online"`
	Anneal    spinglass.AnnealRanges `json:"anneal" yaml:"anneal"`
}

// SampleParams are the solver parameters applied identically to both
// systems.
type SampleParams struct {
	NumReads      int
	AnnealingTime float64 // microseconds
	FastAnneal    bool
}

// TopologyProvider returns a solver's working graph.
type TopologyProvider interface {
	Topology(ctx context.Context, solver string) (*topology.Hardware, error)
}

// Sampler submits a problem, already in the solver's labels, and waits for
// the answer.
type Sampler interface {
	Sample(ctx context.Context, solver string, p *spinglass.ProblemInstance, params SampleParams) (*spinglass.SampleSet, error)
}

// SolverCatalog lists the solvers the account can reach.
type SolverCatalog interface {
	Solvers(ctx context.Context) ([]SolverInfo, error)
}

// RunConfig is one user-requested comparison.
type RunConfig struct {
	Advantage  string               `json:"advantage" yaml:"advantage"`
	Advantage2 string               `json:"advantage2" yaml:"advantage2"`
	Weights    spinglass.WeightSpec `json:"weights" yaml:"weights"`
	Anneal     spinglass.AnnealSpec `json:"anneal" yaml:"anneal"`
}

// Validate checks that each solver belongs to the expected generation.
func (c RunConfig) Validate() error {
	if Generation(c.Advantage) != GenerationAdvantage {
		return &spinglass.ValidationError{Field: "advantage", Msg: "select an Advantage system, got " + quoteOrEmpty(c.Advantage)}
	}
	if Generation(c.Advantage2) != GenerationAdvantage2 {
		return &spinglass.ValidationError{Field: "advantage2", Msg: "select an Advantage2 system, got " + quoteOrEmpty(c.Advantage2)}
	}
	return c.Weights.Validate()
}

func quoteOrEmpty(s string) string {
	if s == "" {
		return "nothing"
	}
	return `"` + s + `"`
}
