package types

// SessionState represents the overall state of an orchestration session.
type SessionState string

const (
	// SessionPending indicates the session has been created but not started.
	SessionPending SessionState = "pending"

	// SessionInProgress indicates agents are executing.
	SessionInProgress SessionState = "in_progress"

	// SessionCompleted indicates all three agents completed successfully.
	SessionCompleted SessionState = "completed"

	// SessionTimedOut indicates the global wall-clock budget elapsed first.
	SessionTimedOut SessionState = "timed_out"

	// SessionFailed indicates a required agent failed after exhausting
	// retries, or the caller cancelled the session.
	SessionFailed SessionState = "failed"
)

// String returns the string representation of the session state.
func (s SessionState) String() string {
	return string(s)
}

// IsValid checks if the session state is a recognized value.
func (s SessionState) IsValid() bool {
	switch s {
	case SessionPending, SessionInProgress, SessionCompleted, SessionTimedOut, SessionFailed:
		return true
	default:
		return false
	}
}

// IsTerminal returns true if the state is final. Terminal states have no
// outgoing transitions.
func (s SessionState) IsTerminal() bool {
	switch s {
	case SessionCompleted, SessionTimedOut, SessionFailed:
		return true
	default:
		return false
	}
}
