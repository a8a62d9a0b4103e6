package researchkit

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Sentinel errors for common coordinator error conditions.
// These errors can be used with errors.Is() for error checking.
var (
	// ErrInvalidQuery indicates the submitted query failed validation,
	// for example an empty or whitespace-only topic.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrSessionNotFound indicates the referenced session does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrCoordinatorClosed indicates the coordinator has been shut down
	// and no longer accepts new sessions.
	ErrCoordinatorClosed = errors.New("coordinator closed")

	// ErrUserCancelled indicates the session ended because the caller
	// cancelled it.
	ErrUserCancelled = errors.New("session cancelled by caller")

	// ErrArtifactUnavailable indicates the session has no artifact, either
	// because it is still running or because it ended before synthesis
	// completed.
	ErrArtifactUnavailable = errors.New("artifact not available")
)

// Error kinds categorize errors by their type.
const (
	// KindInvalidQuery represents errors from query validation.
	KindInvalidQuery = "invalid_query"

	// KindAgentFailure represents errors where an agent failed after
	// exhausting its retries.
	KindAgentFailure = "agent_failure"

	// KindStallTimeout represents errors where a running agent stopped
	// reporting progress for a full stall window.
	KindStallTimeout = "stall_timeout"

	// KindSessionTimedOut represents errors where the global wall-clock
	// budget elapsed.
	KindSessionTimedOut = "session_timed_out"

	// KindUserCancelled represents sessions ended by the caller.
	KindUserCancelled = "user_cancelled"

	// KindDependencyViolation represents out-of-order agent starts. These
	// indicate a coordinator bug rather than a runtime condition.
	KindDependencyViolation = "dependency_violation"

	// KindConfiguration represents errors related to configuration.
	KindConfiguration = "configuration"

	// KindNotFound represents lookups of sessions that do not exist.
	KindNotFound = "not_found"

	// KindInternal represents internal coordinator errors.
	KindInternal = "internal"
)

// Error is a structured error type that wraps underlying errors with
// additional context about the operation that failed and the category of
// error.
//
// Error implements the error interface and supports error unwrapping,
// making it compatible with errors.Is() and errors.As().
//
// Example usage:
//
//	err := &Error{
//		Op:   "Coordinator.SubmitQuery",
//		Kind: KindInvalidQuery,
//		Err:  ErrInvalidQuery,
//	}
type Error struct {
	// Op is the operation that failed (e.g., "Coordinator.SubmitQuery").
	Op string

	// Kind categorizes the error (e.g., KindInvalidQuery, KindInternal).
	Kind string

	// Err is the underlying error that caused this error.
	Err error

	// Context provides additional context about the error (optional).
	// This can include session IDs, agent IDs, or other debugging
	// information.
	Context map[string]any
}

// Error implements the error interface, returning a formatted error message
// that includes the operation, kind, and underlying error.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("researchkit: %s: %s", e.Op, e.Kind)
	}

	if len(e.Context) > 0 {
		return fmt.Sprintf("researchkit: %s (%s): %v [context: %+v]", e.Op, e.Kind, e.Err, e.Context)
	}

	return fmt.Sprintf("researchkit: %s (%s): %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error, allowing errors.Is() and errors.As()
// to work correctly with wrapped errors.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements error matching for Error, allowing comparison based on
// the underlying error or the Error itself.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}

	// Check if target is an Error with matching Kind
	if t, ok := target.(*Error); ok {
		if t.Kind != "" && e.Kind == t.Kind {
			if t.Op == "" || e.Op == t.Op {
				return true
			}
		}
	}

	// Delegate to underlying error
	return errors.Is(e.Err, target)
}

// WithContext returns a new Error with the provided context added.
// This is useful for adding debugging information to errors.
func (e *Error) WithContext(ctx map[string]any) *Error {
	newErr := *e
	if newErr.Context == nil {
		newErr.Context = make(map[string]any)
	}
	for k, v := range ctx {
		newErr.Context[k] = v
	}
	return &newErr
}

// NewInvalidQueryError creates a new Error with KindInvalidQuery.
func NewInvalidQueryError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindInvalidQuery,
		Err:  err,
	}
}

// NewNotFoundError creates a new Error with KindNotFound.
func NewNotFoundError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindNotFound,
		Err:  err,
	}
}

// NewConfigurationError creates a new Error with KindConfiguration.
func NewConfigurationError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindConfiguration,
		Err:  err,
	}
}

// NewInternalError creates a new Error with KindInternal.
func NewInternalError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindInternal,
		Err:  err,
	}
}

// CloseWithLog attempts to close the provided resource and logs any error
// at warning level. This is intended for use in defer statements so cleanup
// errors are not silently ignored.
//
// The name parameter should describe the resource being closed. If logger
// is nil, slog.Default() is used.
//
// Example usage:
//
//	defer researchkit.CloseWithLog(bridge, logger, "redis bridge")
func CloseWithLog(closer io.Closer, logger *slog.Logger, name string) {
	if closer == nil {
		return
	}

	if logger == nil {
		logger = slog.Default()
	}

	if err := closer.Close(); err != nil {
		logger.Warn("failed to close resource",
			"resource", name,
			"error", err)
	}
}
