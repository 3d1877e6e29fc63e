package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrMissingJobHandle       = errors.New("generation service returned no content id")
	ErrSubmissionTimeout      = errors.New("generation submission timed out")
	ErrMalformedTerminalState = errors.New("terminal status arrived without its payload")
	ErrJobNotReviewable       = errors.New("job is not in a reviewable state")
	ErrJobNotRegenerable      = errors.New("job is not in a regenerable state")
	ErrDecisionInFlight       = errors.New("a decision for this job is already in flight")
	ErrJobOutstanding         = errors.New("a generation job is already outstanding for this requester")
	ErrServiceUnavailable     = errors.New("generation service unavailable")
)

// ValidationError reports locally rejected input. It never reaches the
// network; handlers surface it as a form-level message.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ServiceError is a non-2xx response from the generation service carrying a
// structured body.
type ServiceError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("generation service error (%d %s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("generation service error (%d)", e.StatusCode)
}
