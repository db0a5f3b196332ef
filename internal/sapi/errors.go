package sapi

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned for a missing or rejected API token.
	ErrUnauthorized = errors.New("solver service rejected the API token")

	// ErrUnavailable is returned when the service cannot be reached, answers
	// with a server error, or keeps rate limiting.
	ErrUnavailable = errors.New("solver service unavailable")

	// ErrNotFound is returned for a 404 response.
	ErrNotFound = errors.New("not found")

	// ErrSolverNotFound is returned for a solver the account cannot see.
	ErrSolverNotFound = errors.New("solver not found")

	// ErrCancelled is returned for a problem the service reports as cancelled.
	ErrCancelled = errors.New("problem cancelled")
)

// ProblemError is a problem the service reports as FAILED.
type ProblemError struct {
	ID      string
	Message string
}

func (e *ProblemError) Error() string {
	return fmt.Sprintf("problem %s failed: %s", e.ID, e.Message)
}

// StatusError is an unexpected HTTP status with the service's message.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("solver service returned HTTP %d: %s", e.Code, e.Message)
}
