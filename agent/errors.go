package agent

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for agent failures. Codes travel inside events and stay
// stable across releases; messages are free-form.
const (
	// CodeAgentFailure is an internal error within a runner, including
	// simulated error injection. Retryable.
	CodeAgentFailure = "AGENT_FAILURE"

	// CodeStallTimeout means the agent produced no progress within the
	// stall window while running. Treated like an agent failure. Retryable.
	CodeStallTimeout = "STALL_TIMEOUT"

	// CodeInvalidInput means the upstream output handed to the agent was
	// malformed. Not retryable: a retry would receive the same input.
	CodeInvalidInput = "INVALID_INPUT"

	// CodeCancelled means the run was cancelled before completion.
	CodeCancelled = "CANCELLED"
)

// RunError is a structured, JSON-serializable error describing why an agent
// attempt failed. It travels inside events so observers never need to
// unwrap Go error chains.
type RunError struct {
	// Code is one of the error code constants above.
	Code string `json:"code"`

	// Message is a human-readable error description.
	Message string `json:"message"`

	// Details contains additional context as key-value pairs.
	Details map[string]any `json:"details,omitempty"`

	// Retryable indicates whether the coordinator may retry the agent.
	Retryable bool `json:"retryable"`

	// Cause is the wrapped underlying error, if any.
	Cause *RunError `json:"cause,omitempty"`
}

// Error implements the error interface, formatted as "[CODE]: message".
func (e *RunError) Error() string {
	parts := []string{fmt.Sprintf("[%s]", e.Code)}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

// Unwrap returns the wrapped cause so errors.Is and errors.As traverse the
// chain.
func (e *RunError) Unwrap() error {
	if e.Cause == nil {
		return nil
	}
	return e.Cause
}

// Is matches RunErrors by code, so errors.Is(err, &RunError{Code: ...})
// works without comparing messages.
func (e *RunError) Is(target error) bool {
	var t *RunError
	if errors.As(target, &t) {
		return t.Code != "" && e.Code == t.Code
	}
	return false
}

// WithDetail returns a copy of the error with one detail added.
func (e *RunError) WithDetail(key string, value any) *RunError {
	clone := *e
	clone.Details = make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		clone.Details[k] = v
	}
	clone.Details[key] = value
	return &clone
}

// NewRunError creates a RunError with the given code and message.
// AGENT_FAILURE and STALL_TIMEOUT are retryable; other codes are not.
func NewRunError(code, message string) *RunError {
	return &RunError{
		Code:      code,
		Message:   message,
		Retryable: code == CodeAgentFailure || code == CodeStallTimeout,
	}
}

// FromError converts an arbitrary error to a RunError. Existing RunErrors
// pass through unchanged; anything else becomes a retryable AGENT_FAILURE.
func FromError(err error) *RunError {
	if err == nil {
		return nil
	}
	var runErr *RunError
	if errors.As(err, &runErr) {
		return runErr
	}
	return NewRunError(CodeAgentFailure, err.Error())
}

// Wrap creates a RunError with the given code and message wrapping err.
func Wrap(err error, code, message string) *RunError {
	wrapped := NewRunError(code, message)
	wrapped.Cause = FromError(err)
	return wrapped
}
