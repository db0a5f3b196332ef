package sapitest

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/anneal-bench/anneal-bench/spinglass/topology"
)

//go:embed default_fixture.yaml
var defaultFixture []byte

// Fixture describes the fake solvers an emulator serves.
type Fixture struct {
	Seed int64 `yaml:"seed"`
	// Token, when set, must be sent in X-Auth-Token.
	Token string `yaml:"token"`
	// PollsBeforeDone is how many status requests report IN_PROGRESS before
	// a problem completes.
	PollsBeforeDone int             `yaml:"polls_before_done"`
	Solvers         []SolverFixture `yaml:"solvers"`
}

// SolverFixture is one fake solver.
type SolverFixture struct {
	Name                string           `yaml:"name"`
	Family              topology.Family  `yaml:"family"`
	Shape               []int            `yaml:"shape"`
	Defects             topology.Defects `yaml:"defects"`
	Offline             bool             `yaml:"offline"`
	AnnealingTimeRange  [2]float64       `yaml:"annealing_time_range"`
	FastAnnealTimeRange [2]float64       `yaml:"fast_anneal_time_range"`
	// SweepsPerMicrosecond sets solution quality: sweeps = anneal time x rate,
	// clamped to [1, MaxSweeps].
	SweepsPerMicrosecond float64 `yaml:"sweeps_per_us"`
	MaxSweeps            int     `yaml:"max_sweeps"`
	// Fail, when set, makes every problem on this solver fail with the
	// message.
	Fail string `yaml:"fail"`
}

// Validate checks the fixture.
func (f *Fixture) Validate() error {
	if len(f.Solvers) == 0 {
		return fmt.Errorf("fixture lists no solvers")
	}
	seen := make(map[string]bool)
	for i, s := range f.Solvers {
		if s.Name == "" {
			return fmt.Errorf("solvers[%d]: name is required", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("solvers[%d]: duplicate solver %q", i, s.Name)
		}
		seen[s.Name] = true
		if !topology.IsValidFamily(string(s.Family)) {
			return fmt.Errorf("solver %s: unknown family %q; valid: chimera, pegasus, zephyr", s.Name, s.Family)
		}
		if s.AnnealingTimeRange[0] <= 0 || s.AnnealingTimeRange[0] > s.AnnealingTimeRange[1] {
			return fmt.Errorf("solver %s: invalid annealing_time_range %v", s.Name, s.AnnealingTimeRange)
		}
		if s.SweepsPerMicrosecond <= 0 {
			return fmt.Errorf("solver %s: sweeps_per_us must be positive, got %v", s.Name, s.SweepsPerMicrosecond)
		}
	}
	return nil
}

// LoadFixture reads a fixture file. Uses strict parsing: unrecognized keys
// are rejected.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading emulator fixture: %w", err)
	}
	return ParseFixture(bytes.NewReader(data))
}

// ParseFixture decodes and validates a fixture.
func ParseFixture(r io.Reader) (*Fixture, error) {
	var f Fixture
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing emulator fixture: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// DefaultFixture returns the built-in fixture: small Advantage and
// Advantage2 systems whose intersection solves in well under a second.
func DefaultFixture() *Fixture {
	f, err := ParseFixture(bytes.NewReader(defaultFixture))
	if err != nil {
		panic(fmt.Sprintf("built-in emulator fixture: %v", err))
	}
	return f
}
