// Package sapitest provides an in-process emulator of the solver service.
// Topologies are synthesized from perfect lattices with seeded defects and
// problems are solved by simulated annealing.
package sapitest

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/anneal-bench/anneal-bench/internal/sapi"
	"github.com/anneal-bench/anneal-bench/spinglass/topology"
)

// Submission records the parameters a problem was submitted with.
type Submission struct {
	ID     string
	Solver string
	Params map[string]any
}

type problem struct {
	status     sapi.ProblemStatus
	answer     *sapi.Answer
	pollsLeft  int
	failReason string
}

// Server emulates the solver service. It is an http.Handler.
type Server struct {
	fixture     *Fixture
	solvers     map[string]*sapi.SolverDescription
	order       []string
	router      *gin.Engine
	mu          sync.Mutex
	problems    map[string]*problem
	submissions []Submission
	nextID      int
}

// NewServer builds the emulator for a fixture.
func NewServer(f *Fixture) (*Server, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	s := &Server{
		fixture:  f,
		solvers:  make(map[string]*sapi.SolverDescription, len(f.Solvers)),
		problems: make(map[string]*problem),
	}
	for i, sf := range f.Solvers {
		hw, err := topology.Synthesize(sf.Name, sf.Family, sf.Shape, sf.Defects, f.Seed+int64(i))
		if err != nil {
			return nil, err
		}
		s.solvers[sf.Name] = describe(sf, hw)
		s.order = append(s.order, sf.Name)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if f.Token != "" {
		r.Use(s.requireToken)
	}
	r.GET("/solvers/remote/", s.listSolvers)
	r.GET("/solvers/remote/:name/", s.getSolver)
	r.POST("/problems/", s.submit)
	r.GET("/problems/:id/", s.getProblem)
	r.DELETE("/problems/:id/", s.cancelProblem)
	s.router = r
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Submissions returns every problem submitted so far.
func (s *Server) Submissions() []Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Submission(nil), s.submissions...)
}

// Status returns the current status of a problem.
func (s *Server) Status(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.problems[id]
	if !ok {
		return "", false
	}
	return p.status.Status, true
}

// Hardware returns the synthesized working graph of a solver.
func (s *Server) Hardware(name string) (*topology.Hardware, error) {
	d, ok := s.solvers[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, sapi.ErrSolverNotFound)
	}
	return sapi.HardwareFromDescription(d)
}

func describe(sf SolverFixture, hw *topology.Hardware) *sapi.SolverDescription {
	status := sapi.SolverOnline
	if sf.Offline {
		status = "OFFLINE"
	}
	couplers := make([][2]int, 0, hw.Graph.NumEdges())
	for _, e := range hw.Graph.Edges() {
		couplers = append(couplers, [2]int{e.U, e.V})
	}
	return &sapi.SolverDescription{
		ID:          sf.Name,
		Status:      status,
		Description: "emulated " + string(sf.Family) + " system",
		Properties: sapi.SolverProperties{
			NumQubits:               hw.NumQubits,
			Qubits:                  hw.Graph.Nodes(),
			Couplers:                couplers,
			Topology:                sapi.TopologyProperties{Type: string(sf.Family), Shape: sf.Shape},
			AnnealingTimeRange:      sf.AnnealingTimeRange,
			FastAnnealTimeRange:     sf.FastAnnealTimeRange,
			HRange:                  [2]float64{-4, 4},
			JRange:                  [2]float64{-1, 1},
			ProblemRunDurationRange: [2]float64{0, 1000000},
			NumReadsRange:           [2]int{1, 10000},
			SupportedProblemTypes:   []string{"ising", "qubo"},
			Parameters: map[string]string{
				"num_reads":      "Number of states to read.",
				"annealing_time": "Annealing duration in microseconds.",
				"fast_anneal":    "Use the fast-anneal protocol.",
				"answer_mode":    "Aggregate identical states.",
			},
			Category: "qpu",
		},
	}
}

func (s *Server) requireToken(c *gin.Context) {
	if c.GetHeader("X-Auth-Token") != s.fixture.Token {
		abort(c, http.StatusUnauthorized, "Invalid token or access denied")
		return
	}
	c.Next()
}

func abort(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, gin.H{"error_code": code, "error_msg": msg})
}

func (s *Server) listSolvers(c *gin.Context) {
	out := make([]*sapi.SolverDescription, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.solvers[name])
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getSolver(c *gin.Context) {
	d, ok := s.solvers[c.Param("name")]
	if !ok {
		abort(c, http.StatusNotFound, "Solver not found")
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *Server) submit(c *gin.Context) {
	var subs []sapi.ProblemSubmission
	if err := c.ShouldBindJSON(&subs); err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	out := make([]sapi.ProblemStatus, 0, len(subs))
	for _, sub := range subs {
		st, code, err := s.solve(sub)
		if err != nil {
			abort(c, code, err.Error())
			return
		}
		out = append(out, st)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) solve(sub sapi.ProblemSubmission) (sapi.ProblemStatus, int, error) {
	d, ok := s.solvers[sub.Solver]
	if !ok || d.Status != sapi.SolverOnline {
		return sapi.ProblemStatus{}, http.StatusNotFound, fmt.Errorf("solver %q not available", sub.Solver)
	}
	var sf SolverFixture
	for _, f := range s.fixture.Solvers {
		if f.Name == sub.Solver {
			sf = f
		}
	}
	if sub.Type != "ising" {
		return sapi.ProblemStatus{}, http.StatusBadRequest, fmt.Errorf("unsupported problem type %q", sub.Type)
	}

	reads, ok := intParam(sub.Params, "num_reads", 1)
	if !ok || reads < d.Properties.NumReadsRange[0] || reads > d.Properties.NumReadsRange[1] {
		return sapi.ProblemStatus{}, http.StatusBadRequest, fmt.Errorf("num_reads must be an integer in %v", d.Properties.NumReadsRange)
	}
	fast, _ := sub.Params["fast_anneal"].(bool)
	rng := d.Properties.AnnealingTimeRange
	if fast {
		rng = d.Properties.FastAnnealTimeRange
	}
	annealTime := rng[0]
	if v, ok := sub.Params["annealing_time"].(float64); ok {
		annealTime = v
	}
	if annealTime < rng[0] || annealTime > rng[1] {
		return sapi.ProblemStatus{}, http.StatusBadRequest, fmt.Errorf("annealing_time %g out of range %v", annealTime, rng)
	}

	h, j, err := sapi.DecodeProblem(sub.Data, &d.Properties)
	if err != nil {
		return sapi.ProblemStatus{}, http.StatusBadRequest, err
	}

	s.mu.Lock()
	s.nextID++
	id := "emu-" + strconv.Itoa(s.nextID)
	s.submissions = append(s.submissions, Submission{ID: id, Solver: sub.Solver, Params: sub.Params})
	s.mu.Unlock()

	p := &problem{
		status: sapi.ProblemStatus{
			ID:          id,
			Status:      sapi.StatusPending,
			Solver:      sub.Solver,
			Type:        sub.Type,
			SubmittedOn: time.Now().UTC().Format(time.RFC3339),
		},
		pollsLeft:  s.fixture.PollsBeforeDone,
		failReason: sf.Fail,
	}
	if sf.Fail == "" {
		sweeps := sweepsFor(sf, annealTime, fast)
		model := compileModel(h, j)
		ss := model.anneal(reads, sweeps, rand.New(rand.NewSource(problemSeed(s.fixture.Seed, sub))))
		ss.Timing = timing(reads, annealTime)
		p.answer = sapi.EncodeAnswer(ss, d.Properties.NumQubits)
		logrus.WithFields(logrus.Fields{
			"solver": sub.Solver,
			"qubits": len(h),
			"sweeps": sweeps,
			"reads":  reads,
		}).Debug("emulator solved problem")
	}
	if p.pollsLeft <= 0 {
		p.finish()
	}

	s.mu.Lock()
	s.problems[id] = p
	st := p.view()
	s.mu.Unlock()
	return st, http.StatusOK, nil
}

func (p *problem) finish() {
	p.status.SolvedOn = time.Now().UTC().Format(time.RFC3339)
	if p.failReason != "" {
		p.status.Status = sapi.StatusFailed
		p.status.ErrorMessage = p.failReason
		return
	}
	p.status.Status = sapi.StatusCompleted
}

func (p *problem) view() sapi.ProblemStatus {
	st := p.status
	if st.Status == sapi.StatusCompleted {
		st.Answer = p.answer
	}
	return st
}

func (s *Server) getProblem(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.problems[c.Param("id")]
	if !ok {
		abort(c, http.StatusNotFound, "Problem not found")
		return
	}
	if !p.status.Done() {
		if p.pollsLeft > 0 {
			p.pollsLeft--
			p.status.Status = sapi.StatusInProgress
		} else {
			p.finish()
		}
	}
	c.JSON(http.StatusOK, p.view())
}

func (s *Server) cancelProblem(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.problems[c.Param("id")]
	if !ok {
		abort(c, http.StatusNotFound, "Problem not found")
		return
	}
	if !p.status.Done() {
		p.status.Status = sapi.StatusCancelled
	}
	c.JSON(http.StatusOK, p.view())
}

func intParam(params map[string]any, key string, def int) (int, bool) {
	v, ok := params[key]
	if !ok {
		return def, true
	}
	f, ok := v.(float64)
	if !ok || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

func problemSeed(seed int64, sub sapi.ProblemSubmission) int64 {
	h := fnv.New64a()
	h.Write([]byte(sub.Solver))
	h.Write([]byte(sub.Data.Lin))
	h.Write([]byte(sub.Data.Quad))
	return seed ^ int64(h.Sum64())
}

// timing mimics the service's per-problem timing report, in microseconds.
func timing(reads int, annealTime float64) map[string]float64 {
	const (
		readout     = 120.0
		delay       = 20.5
		programming = 15000.0
	)
	sampling := float64(reads) * (annealTime + readout + delay)
	return map[string]float64{
		"qpu_anneal_time_per_sample":  annealTime,
		"qpu_readout_time_per_sample": readout,
		"qpu_delay_time_per_sample":   delay,
		"qpu_programming_time":        programming,
		"qpu_sampling_time":           sampling,
		"qpu_access_time":             sampling + programming,
	}
}
