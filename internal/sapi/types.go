package sapi

// Problem status values.
const (
	StatusPending    = "PENDING"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
	StatusCancelled  = "CANCELLED"
)

// SolverOnline is the status of a solver accepting problems.
const SolverOnline = "ONLINE"

// SolverDescription is one entry of GET /solvers/remote/.
type SolverDescription struct {
	ID          string           `json:"id"`
	Status      string           `json:"status"`
	Description string           `json:"description,omitempty"`
	Properties  SolverProperties `json:"properties"`
}

// SolverProperties are the solver properties the comparison uses.
type SolverProperties struct {
	NumQubits               int                `json:"num_qubits"`
	Qubits                  []int              `json:"qubits"`
	Couplers                [][2]int           `json:"couplers"`
	Topology                TopologyProperties `json:"topology"`
	AnnealingTimeRange      [2]float64         `json:"annealing_time_range"`
	FastAnnealTimeRange     [2]float64         `json:"fast_anneal_time_range"`
	HRange                  [2]float64         `json:"h_range"`
	JRange                  [2]float64         `json:"j_range"`
	ProblemRunDurationRange [2]float64         `json:"problem_run_duration_range"`
	NumReadsRange           [2]int             `json:"num_reads_range"`
	SupportedProblemTypes   []string           `json:"supported_problem_types"`
	Parameters              map[string]string  `json:"parameters"`
	Category                string             `json:"category,omitempty"`
}

// TopologyProperties names a solver's lattice.
type TopologyProperties struct {
	Type  string `json:"type"`
	Shape []int  `json:"shape"`
}

// ProblemData is a problem in qp format.
type ProblemData struct {
	Format string `json:"format"`
	Lin    string `json:"lin"`
	Quad   string `json:"quad"`
}

// ProblemSubmission is one element of the POST /problems/ body.
type ProblemSubmission struct {
	Solver string         `json:"solver"`
	Type   string         `json:"type"`
	Data   ProblemData    `json:"data"`
	Params map[string]any `json:"params"`
}

// ProblemStatus is the service's view of a submitted problem.
type ProblemStatus struct {
	ID           string  `json:"id"`
	Status       string  `json:"status"`
	Solver       string  `json:"solver,omitempty"`
	Type         string  `json:"type,omitempty"`
	SubmittedOn  string  `json:"submitted_on,omitempty"`
	SolvedOn     string  `json:"solved_on,omitempty"`
	ErrorMessage string  `json:"error_message,omitempty"`
	Answer       *Answer `json:"answer,omitempty"`
}

// Done reports whether the problem reached a final status.
func (s *ProblemStatus) Done() bool {
	switch s.Status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Answer is a qp-encoded answer.
type Answer struct {
	Format          string             `json:"format"`
	NumVariables    int                `json:"num_variables"`
	ActiveVariables string             `json:"active_variables"`
	Energies        string             `json:"energies"`
	NumOccurrences  string             `json:"num_occurrences"`
	Solutions       string             `json:"solutions"`
	Timing          map[string]float64 `json:"timing,omitempty"`
}

// errorBody is the service's error payload.
type errorBody struct {
	ErrorCode int    `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
}
