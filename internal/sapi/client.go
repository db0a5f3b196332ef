// Package sapi is a client for the solver service's REST API (SAPI v2): it
// lists solvers, submits Ising problems in qp format and polls for answers.
package sapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultEndpoint is the public SAPI endpoint.
const DefaultEndpoint = "https://na-west-1.cloud.dwavesys.com/sapi/v2"

// Config holds client settings.
type Config struct {
	Endpoint     string
	Token        string
	Timeout      time.Duration // per HTTP request
	PollInterval time.Duration
	MaxRetries   int // 429 retries, 0 for the default
}

// Client talks to one SAPI endpoint.
type Client struct {
	endpoint     string
	token        string
	pollInterval time.Duration
	maxRetries   int
	http         *http.Client
}

// NewClient creates a Client. Zero durations get defaults.
func NewClient(cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	return &Client{
		endpoint:     strings.TrimRight(cfg.Endpoint, "/"),
		token:        cfg.Token,
		pollInterval: cfg.PollInterval,
		maxRetries:   cfg.MaxRetries,
		http:         &http.Client{Timeout: cfg.Timeout},
	}
}

// Endpoint returns the base URL the client talks to.
func (c *Client) Endpoint() string { return c.endpoint }

// Solvers lists the solvers visible to the token.
func (c *Client) Solvers(ctx context.Context) ([]SolverDescription, error) {
	var out []SolverDescription
	if err := c.do(ctx, http.MethodGet, "/solvers/remote/", nil, &out); err != nil {
		return nil, fmt.Errorf("listing solvers: %w", err)
	}
	return out, nil
}

// Solver returns one solver's description.
func (c *Client) Solver(ctx context.Context, name string) (*SolverDescription, error) {
	var out SolverDescription
	err := c.do(ctx, http.MethodGet, "/solvers/remote/"+url.PathEscape(name)+"/", nil, &out)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", name, ErrSolverNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching solver %s: %w", name, err)
	}
	return &out, nil
}

// Submit posts one problem and returns its initial status.
func (c *Client) Submit(ctx context.Context, p ProblemSubmission) (*ProblemStatus, error) {
	var out []ProblemStatus
	if err := c.do(ctx, http.MethodPost, "/problems/", []ProblemSubmission{p}, &out); err != nil {
		return nil, fmt.Errorf("submitting problem to %s: %w", p.Solver, err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("submitting problem to %s: service returned %d statuses", p.Solver, len(out))
	}
	return &out[0], nil
}

// Problem returns the current status of a problem.
func (c *Client) Problem(ctx context.Context, id string) (*ProblemStatus, error) {
	var out ProblemStatus
	if err := c.do(ctx, http.MethodGet, "/problems/"+url.PathEscape(id)+"/", nil, &out); err != nil {
		return nil, fmt.Errorf("polling problem %s: %w", id, err)
	}
	return &out, nil
}

// Cancel asks the service to cancel a problem.
func (c *Client) Cancel(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/problems/"+url.PathEscape(id)+"/", nil, nil); err != nil {
		return fmt.Errorf("cancelling problem %s: %w", id, err)
	}
	return nil
}

// Wait polls a problem until it reaches a final status. If ctx is cancelled
// first, the problem is cancelled on the service and ctx.Err() is returned.
func (c *Client) Wait(ctx context.Context, st *ProblemStatus) (*ProblemStatus, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for !st.Done() {
		select {
		case <-ctx.Done():
			c.cancelDetached(st.ID)
			return nil, ctx.Err()
		case <-ticker.C:
		}
		next, err := c.Problem(ctx, st.ID)
		if err != nil {
			if ctx.Err() != nil {
				c.cancelDetached(st.ID)
				return nil, ctx.Err()
			}
			return nil, err
		}
		st = next
		logrus.WithFields(logrus.Fields{"problem": st.ID, "status": st.Status}).Debug("polled problem")
	}

	switch st.Status {
	case StatusFailed:
		return nil, &ProblemError{ID: st.ID, Message: st.ErrorMessage}
	case StatusCancelled:
		return nil, fmt.Errorf("problem %s: %w", st.ID, ErrCancelled)
	}
	if st.Answer == nil {
		// some deployments only attach the answer on a direct fetch
		return c.Problem(ctx, st.ID)
	}
	return st, nil
}

func (c *Client) cancelDetached(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Cancel(ctx, id); err != nil {
		logrus.WithError(err).WithField("problem", id).Warn("could not cancel problem")
		return
	}
	logrus.WithField("problem", id).Info("cancelled problem")
}

// do sends a JSON request and decodes a JSON response into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("X-Auth-Token", c.token)
	}

	resp, err := doWithRetry(ctx, c.http, req, c.maxRetries)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: rate limited", ErrUnavailable)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: HTTP %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 300:
		return &StatusError{Code: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

func readErrorMessage(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 64<<10))
	var eb errorBody
	if json.Unmarshal(data, &eb) == nil && eb.ErrorMsg != "" {
		return eb.ErrorMsg
	}
	return strings.TrimSpace(string(data))
}
