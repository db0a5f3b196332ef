package sapi

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/anneal-bench/anneal-bench/spinglass"
	"github.com/anneal-bench/anneal-bench/spinglass/compare"
	"github.com/anneal-bench/anneal-bench/spinglass/topology"
)

// Provider serves solver catalogs and topologies from the service. The
// latest description of each solver is kept for encoding submissions.
type Provider struct {
	client *Client

	mu           sync.Mutex
	descriptions map[string]*SolverDescription
}

// NewProvider creates a Provider over c.
func NewProvider(c *Client) *Provider {
	return &Provider{client: c, descriptions: make(map[string]*SolverDescription)}
}

// Describe returns a solver description, fetching it on first use.
func (p *Provider) Describe(ctx context.Context, solver string) (*SolverDescription, error) {
	p.mu.Lock()
	d, ok := p.descriptions[solver]
	p.mu.Unlock()
	if ok {
		return d, nil
	}
	d, err := p.client.Solver(ctx, solver)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.descriptions[solver] = d
	p.mu.Unlock()
	return d, nil
}

// Topology implements compare.TopologyProvider. It always asks the service
// and replaces the kept description, so submissions are encoded against the
// working graph last handed out.
func (p *Provider) Topology(ctx context.Context, solver string) (*topology.Hardware, error) {
	d, err := p.client.Solver(ctx, solver)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.descriptions[solver] = d
	p.mu.Unlock()
	return HardwareFromDescription(d)
}

// Solvers implements compare.SolverCatalog.
func (p *Provider) Solvers(ctx context.Context) ([]compare.SolverInfo, error) {
	descs, err := p.client.Solvers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]compare.SolverInfo, 0, len(descs))
	p.mu.Lock()
	for i := range descs {
		d := &descs[i]
		if d.Properties.Topology.Type == "" {
			continue // hybrid and classical solvers
		}
		p.descriptions[d.ID] = d
		out = append(out, InfoFromDescription(d))
	}
	p.mu.Unlock()
	logrus.WithField("solvers", len(out)).Debug("fetched solver catalog")
	return out, nil
}

// HardwareFromDescription builds a working graph from solver properties.
func HardwareFromDescription(d *SolverDescription) (*topology.Hardware, error) {
	if !topology.IsValidFamily(d.Properties.Topology.Type) {
		return nil, fmt.Errorf("solver %s: unsupported topology %q", d.ID, d.Properties.Topology.Type)
	}
	edges := make([]topology.Edge, len(d.Properties.Couplers))
	for i, c := range d.Properties.Couplers {
		edges[i] = topology.NewEdge(c[0], c[1])
	}
	hw := &topology.Hardware{
		Solver:    d.ID,
		Family:    topology.Family(d.Properties.Topology.Type),
		Shape:     d.Properties.Topology.Shape,
		NumQubits: d.Properties.NumQubits,
		Graph:     topology.NewGraph(d.Properties.Qubits, edges),
	}
	if err := hw.Validate(); err != nil {
		return nil, err
	}
	return hw, nil
}

// InfoFromDescription extracts the comparison-relevant solver fields.
func InfoFromDescription(d *SolverDescription) compare.SolverInfo {
	return compare.SolverInfo{
		Name:      d.ID,
		Family:    topology.Family(d.Properties.Topology.Type),
		Shape:     d.Properties.Topology.Shape,
		NumQubits: d.Properties.NumQubits,
		Online:    d.Status == "" || d.Status == SolverOnline,
		Anneal: spinglass.AnnealRanges{
			Standard: timeRange(d.Properties.AnnealingTimeRange),
			Fast:     timeRange(d.Properties.FastAnnealTimeRange),
		},
	}
}

func timeRange(r [2]float64) spinglass.TimeRange {
	return spinglass.TimeRange{Min: r[0], Max: r[1]}
}

// Sampler submits problems through the service.
type Sampler struct {
	provider *Provider
}

// NewSampler creates a Sampler. Solver descriptions are shared with p.
func NewSampler(p *Provider) *Sampler {
	return &Sampler{provider: p}
}

// Sample implements compare.Sampler: it encodes the problem, submits it,
// waits for the answer and decodes it.
func (s *Sampler) Sample(ctx context.Context, solver string, p *spinglass.ProblemInstance, params compare.SampleParams) (*spinglass.SampleSet, error) {
	d, err := s.provider.Describe(ctx, solver)
	if err != nil {
		return nil, err
	}
	data, err := EncodeProblem(p, &d.Properties)
	if err != nil {
		return nil, fmt.Errorf("solver %s: %w", solver, err)
	}

	sub := ProblemSubmission{
		Solver: solver,
		Type:   "ising",
		Data:   data,
		Params: map[string]any{
			"num_reads":      params.NumReads,
			"annealing_time": params.AnnealingTime,
			"answer_mode":    "histogram",
		},
	}
	if params.FastAnneal {
		sub.Params["fast_anneal"] = true
	}

	st, err := s.provider.client.Submit(ctx, sub)
	if err != nil {
		return nil, err
	}
	log := logrus.WithFields(logrus.Fields{"solver": solver, "problem": st.ID})
	log.Debug("submitted problem")

	st, err = s.provider.client.Wait(ctx, st)
	if err != nil {
		return nil, err
	}
	ss, err := DecodeAnswer(st.Answer)
	if err != nil {
		return nil, fmt.Errorf("problem %s: %w", st.ID, err)
	}
	ss.ProblemID = st.ID
	log.WithField("reads", ss.NumReads()).Debug("received answer")
	return ss, nil
}
