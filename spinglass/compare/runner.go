package compare

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anneal-bench/anneal-bench/spinglass"
	"github.com/anneal-bench/anneal-bench/spinglass/topology"
)

// Prepared is the intersection of two systems, ready to receive problems.
type Prepared struct {
	Advantage    *topology.Hardware
	Advantage2   *topology.Hardware
	Intersection *topology.Intersection
}

// Result is a finished comparison.
type Result struct {
	Comparison *spinglass.ComparisonResult `json:"comparison"`
	Yields     []topology.Yield            `json:"yields"`
	Elapsed    time.Duration               `json:"elapsed"`
}

// DefaultCacheTTL is how long a Runner reuses the solver list and prepared
// intersections unless SetCacheTTL says otherwise.
const DefaultCacheTTL = 5 * time.Minute

type pairKey struct{ a, b string }

type preparedEntry struct {
	prepared *Prepared
	at       time.Time
}

// Runner prepares intersections and runs matched comparisons. The solver
// list and intersections are reused for the cache TTL; a solver list in which
// either generation is missing is never reused.
type Runner struct {
	topologies TopologyProvider
	sampler    Sampler
	catalog    SolverCatalog
	now        func() time.Time

	mu        sync.Mutex
	ttl       time.Duration
	prepared  map[pairKey]preparedEntry
	solvers   []SolverInfo
	solversAt time.Time
}

// NewRunner creates a Runner with DefaultCacheTTL.
func NewRunner(topologies TopologyProvider, sampler Sampler, catalog SolverCatalog) *Runner {
	return &Runner{
		topologies: topologies,
		sampler:    sampler,
		catalog:    catalog,
		now:        time.Now,
		ttl:        DefaultCacheTTL,
		prepared:   make(map[pairKey]preparedEntry),
	}
}

// SetCacheTTL changes how long the solver list and intersections are reused.
// Zero or less fetches them on every call.
func (r *Runner) SetCacheTTL(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ttl = d
}

// Invalidate drops memoised intersections and the cached solver list.
func (r *Runner) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prepared = make(map[pairKey]preparedEntry)
	r.solvers = nil
}

// freshLocked reports whether an entry stored at t may still be served.
func (r *Runner) freshLocked(t time.Time) bool {
	return r.ttl > 0 && r.now().Sub(t) < r.ttl
}

// Solvers returns the catalog, fetching it when the cached copy has expired.
func (r *Runner) Solvers(ctx context.Context) ([]SolverInfo, error) {
	r.mu.Lock()
	if r.solvers != nil && r.freshLocked(r.solversAt) {
		cached := r.solvers
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	solvers, err := r.catalog.Solvers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing solvers: %w", err)
	}
	r.mu.Lock()
	if PartitionSolvers(solvers).Ready() {
		r.solvers, r.solversAt = solvers, r.now()
	} else {
		r.solvers = nil
	}
	r.mu.Unlock()
	return solvers, nil
}

// Partition returns the reachable solvers split by generation.
func (r *Runner) Partition(ctx context.Context) (Partition, error) {
	solvers, err := r.Solvers(ctx)
	if err != nil {
		return Partition{}, err
	}
	return PartitionSolvers(solvers), nil
}

// AnnealRanges returns the anneal time ranges both solvers accept.
func (r *Runner) AnnealRanges(ctx context.Context, advantage, advantage2 string) (spinglass.AnnealRanges, error) {
	solvers, err := r.Solvers(ctx)
	if err != nil {
		return spinglass.AnnealRanges{}, err
	}
	a, ok := findSolver(solvers, advantage)
	if !ok {
		return spinglass.AnnealRanges{}, fmt.Errorf("%s: %w", advantage, ErrUnknownSolver)
	}
	b, ok := findSolver(solvers, advantage2)
	if !ok {
		return spinglass.AnnealRanges{}, fmt.Errorf("%s: %w", advantage2, ErrUnknownSolver)
	}
	return a.Anneal.Intersect(b.Anneal), nil
}

// AnnealRange returns the shared range for one anneal type.
func (r *Runner) AnnealRange(ctx context.Context, advantage, advantage2 string, t spinglass.AnnealType) (spinglass.TimeRange, error) {
	ranges, err := r.AnnealRanges(ctx, advantage, advantage2)
	if err != nil {
		return spinglass.TimeRange{}, err
	}
	return ranges.For(t)
}

// Prepare fetches both topologies concurrently and computes their
// highest-yield Chimera intersection. A result younger than the cache TTL is
// reused.
func (r *Runner) Prepare(ctx context.Context, advantage, advantage2 string) (*Prepared, error) {
	key := pairKey{advantage, advantage2}
	r.mu.Lock()
	if e, ok := r.prepared[key]; ok && r.freshLocked(e.at) {
		r.mu.Unlock()
		return e.prepared, nil
	}
	r.mu.Unlock()

	names := [2]string{advantage, advantage2}
	var hw [2]*topology.Hardware
	var errs [2]error
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			hw[i], errs[i] = r.topologies.Topology(ctx, name)
		}(i, name)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("fetching topology of %s: %w", names[i], err)
		}
		if hw[i].Graph.IsEmpty() {
			return nil, fmt.Errorf("%s: %w", names[i], ErrEmptyTopology)
		}
	}

	in, err := topology.Intersect(hw[0], hw[1])
	if err != nil {
		return nil, fmt.Errorf("intersecting %s and %s: %w", advantage, advantage2, err)
	}
	p := &Prepared{Advantage: hw[0], Advantage2: hw[1], Intersection: in}

	logrus.WithFields(logrus.Fields{
		"advantage":  advantage,
		"advantage2": advantage2,
		"size":       in.Size,
		"qubits":     in.Graph.NumNodes(),
		"couplers":   in.Graph.NumEdges(),
	}).Debug("prepared intersection")

	r.mu.Lock()
	r.prepared[key] = preparedEntry{prepared: p, at: r.now()}
	r.mu.Unlock()
	return p, nil
}

// Run generates one problem on the intersection of the configured systems,
// submits it to both concurrently and compares the answers. The first
// submission to fail cancels the other; the run fails unless both systems
// return exactly spinglass.NumReads reads.
func (r *Runner) Run(ctx context.Context, cfg RunConfig) (*Result, error) {
	start := time.Now()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ranges, err := r.AnnealRanges(ctx, cfg.Advantage, cfg.Advantage2)
	if err != nil {
		return nil, err
	}
	if err := cfg.Anneal.Validate(ranges); err != nil {
		return nil, err
	}
	prep, err := r.Prepare(ctx, cfg.Advantage, cfg.Advantage2)
	if err != nil {
		return nil, err
	}
	problem, err := spinglass.Generate(prep.Intersection.Graph, cfg.Weights)
	if err != nil {
		return nil, err
	}

	log := logrus.WithFields(logrus.Fields{
		"advantage":    cfg.Advantage,
		"advantage2":   cfg.Advantage2,
		"seed":         problem.Seed,
		"distribution": cfg.Weights.Distribution,
		"precision":    cfg.Weights.Precision,
		"anneal_type":  cfg.Anneal.Type,
		"anneal_time":  cfg.Anneal.Time,
	})
	log.Info("submitting problem to both systems")

	names := [2]string{cfg.Advantage, cfg.Advantage2}
	var mapped [2]*spinglass.ProblemInstance
	for i, name := range names {
		mapped[i], err = problem.Relabel(prep.Intersection.Mappings[name])
		if err != nil {
			return nil, fmt.Errorf("relabelling for %s: %w", name, err)
		}
	}

	params := SampleParams{
		NumReads:      spinglass.NumReads,
		AnnealingTime: cfg.Anneal.Time,
		FastAnneal:    cfg.Anneal.Type == spinglass.AnnealFast,
	}
	sets, err := r.sampleBoth(ctx, names, mapped, params)
	if err != nil {
		log.WithError(err).Warn("run failed")
		return nil, err
	}

	var sides [2]spinglass.SystemResult
	for i, name := range names {
		sides[i] = spinglass.SystemResult{
			Solver:     name,
			Generation: Generation(name),
			Placement:  prep.Intersection.Mappings[name].Label,
			Samples:    sets[i],
		}
	}
	cmp, err := spinglass.Compare(sides[0], sides[1])
	if err != nil {
		return nil, err
	}
	cmp.Problem = spinglass.ProblemSummary{
		Seed:         problem.Seed,
		Distribution: cfg.Weights.Distribution,
		Precision:    cfg.Weights.Precision,
		Qubits:       problem.Graph.NumNodes(),
		Couplers:     problem.Graph.NumEdges(),
		Anneal:       cfg.Anneal,
	}

	res := &Result{Comparison: cmp, Yields: prep.Intersection.Yields, Elapsed: time.Since(start)}
	log.WithFields(logrus.Fields{
		"best_energy": cmp.BestEnergy,
		"ks_distance": cmp.KSDistance,
		"elapsed":     res.Elapsed,
	}).Info("run complete")
	return res, nil
}

func (r *Runner) sampleBoth(ctx context.Context, names [2]string, problems [2]*spinglass.ProblemInstance, params SampleParams) ([2]*spinglass.SampleSet, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var sets [2]*spinglass.SampleSet
	var errs [2]error
	var wg sync.WaitGroup
	for i := range names {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sets[i], errs[i] = r.sampler.Sample(ctx, names[i], problems[i], params)
			if errs[i] != nil {
				cancel()
			}
		}(i)
	}
	wg.Wait()

	// Report the failure that caused the cancellation, not the sibling's
	// context error.
	var first error
	for i, err := range errs {
		if err == nil {
			continue
		}
		err = fmt.Errorf("%s: %w", names[i], err)
		if first == nil || (errors.Is(first, context.Canceled) && !errors.Is(err, context.Canceled)) {
			first = err
		}
	}
	return sets, first
}
