package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/anneal-bench/anneal-bench/spinglass/compare"
)

const (
	// SessionCookie names the cookie carrying the session id.
	SessionCookie = "anneal_session"

	sessionKey = "session"
	sessionTTL = 24 * time.Hour
)

// ErrSuperseded is reported to a caller whose run was replaced by a newer
// one before it finished.
var ErrSuperseded = errors.New("run superseded by a newer run")

// Run states reported by RunStatus.
const (
	StateIdle      = "idle"
	StateRunning   = "running"
	StateDone      = "done"
	StateFailed    = "failed"
	StateCancelled = "cancelled"
)

// RunStatus is a snapshot of a session's run.
type RunStatus struct {
	State   string          `json:"state"`
	RunID   int             `json:"run_id,omitempty"`
	Started time.Time       `json:"started,omitzero"`
	Error   string          `json:"error,omitempty"`
	Result  *compare.Result `json:"result,omitempty"`

	err error
}

// Err returns the error of a failed run.
func (s RunStatus) Err() error { return s.err }

// Running reports whether a run is in flight.
func (s RunStatus) Running() bool { return s.State == StateRunning }

type runState struct {
	id      int
	started time.Time
	cancel  context.CancelFunc
}

// Session is one browser's settings and run state.
type Session struct {
	ID string

	mu       sync.Mutex
	config   compare.RunConfig
	run      *runState
	nextRun  int
	last     RunStatus
	lastSeen time.Time
}

// Settings returns the session's run configuration.
func (s *Session) Settings() compare.RunConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// SetSettings replaces the session's run configuration.
func (s *Session) SetSettings(cfg compare.RunConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
}

// Start runs fn in the background under a context derived from parent,
// cancelling any run already in flight; the outcome of a superseded run is
// discarded. The returned channel is closed once fn has returned.
func (s *Session) Start(parent context.Context, fn func(context.Context) (*compare.Result, error)) (int, <-chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run != nil {
		s.run.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	s.nextRun++
	rs := &runState{id: s.nextRun, started: time.Now(), cancel: cancel}
	s.run = rs

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()
		res, err := fn(ctx)
		s.finish(rs, res, err)
	}()
	return rs.id, done
}

func (s *Session) finish(rs *runState, res *compare.Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run != rs {
		return
	}
	st := RunStatus{RunID: rs.id, Started: rs.started, Result: res, err: err}
	switch {
	case err == nil:
		st.State = StateDone
	case errors.Is(err, context.Canceled):
		st.State = StateCancelled
	default:
		st.State = StateFailed
		st.Error = err.Error()
	}
	s.last = st
	s.run = nil
}

// Cancel cancels the run in flight, reporting whether there was one.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run == nil {
		return false
	}
	s.run.cancel()
	return true
}

// Status returns the in-flight run, or the outcome of the last one. A
// running status has no result.
func (s *Session) Status() RunStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run != nil {
		return RunStatus{State: StateRunning, RunID: s.run.id, Started: s.run.started}
	}
	if s.last.State == "" {
		return RunStatus{State: StateIdle}
	}
	return s.last
}

// sessionStore keeps sessions in memory, keyed by cookie value.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	defaults func() compare.RunConfig
	now      func() time.Time
}

func newSessionStore(defaults func() compare.RunConfig) *sessionStore {
	return &sessionStore{
		sessions: make(map[string]*Session),
		defaults: defaults,
		now:      time.Now,
	}
}

func (st *sessionStore) get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if ok {
		s.mu.Lock()
		s.lastSeen = st.now()
		s.mu.Unlock()
	}
	return s, ok
}

func (st *sessionStore) create() *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.pruneLocked()
	s := &Session{ID: newSessionID(), config: st.defaults(), lastSeen: st.now()}
	st.sessions[s.ID] = s
	return s
}

// pruneLocked drops idle sessions without a run in flight.
func (st *sessionStore) pruneLocked() {
	cutoff := st.now().Add(-sessionTTL)
	for id, s := range st.sessions {
		s.mu.Lock()
		stale := s.run == nil && s.lastSeen.Before(cutoff)
		s.mu.Unlock()
		if stale {
			delete(st.sessions, id)
		}
	}
}

// middleware attaches the caller's session to the gin context, creating one
// and setting the cookie on first contact.
func (st *sessionStore) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, err := c.Cookie(SessionCookie); err == nil {
			if s, ok := st.get(id); ok {
				c.Set(sessionKey, s)
				c.Next()
				return
			}
		}
		s := st.create()
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookie, s.ID, 0, "/", "", false, true)
		c.Set(sessionKey, s)
		c.Next()
	}
}

func sessionFrom(c *gin.Context) *Session {
	return c.MustGet(sessionKey).(*Session)
}

func newSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
