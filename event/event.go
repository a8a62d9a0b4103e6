// Package event defines the session event stream: the tagged event variants
// emitted by agent runners and the coordinator, and an ordered
// multi-subscriber Bus that fans them out to observers.
package event

import (
	"time"

	"github.com/lantern-ai/researchkit/types"
)

// Type identifies the kind of session event.
type Type string

const (
	// TypeAgentStarted is emitted when an agent enters the running state.
	TypeAgentStarted Type = "agent.started"

	// TypeAgentProgress carries a monotonically non-decreasing progress
	// ratio and an optional partial-output preview.
	TypeAgentProgress Type = "agent.progress"

	// TypeAgentCompleted carries the agent's final typed output.
	TypeAgentCompleted Type = "agent.completed"

	// TypeAgentFailed carries the agent's error detail.
	TypeAgentFailed Type = "agent.failed"

	// TypeAgentCancelled is emitted when an agent is cancelled before
	// reaching completion.
	TypeAgentCancelled Type = "agent.cancelled"

	// TypeSessionTimedOut is emitted exactly once when the global
	// wall-clock budget elapses.
	TypeSessionTimedOut Type = "session.timed_out"

	// TypeSessionCompleted is emitted exactly once when all agents
	// completed and the artifact has been built.
	TypeSessionCompleted Type = "session.completed"

	// TypeSessionFailed is emitted exactly once when the session ends in
	// failure, including caller cancellation.
	TypeSessionFailed Type = "session.failed"
)

// String returns the string representation of the event type.
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is a recognized value.
func (t Type) IsValid() bool {
	switch t {
	case TypeAgentStarted, TypeAgentProgress, TypeAgentCompleted,
		TypeAgentFailed, TypeAgentCancelled,
		TypeSessionTimedOut, TypeSessionCompleted, TypeSessionFailed:
		return true
	default:
		return false
	}
}

// IsSessionTerminal returns true if the event marks the end of a session.
func (t Type) IsSessionTerminal() bool {
	switch t {
	case TypeSessionTimedOut, TypeSessionCompleted, TypeSessionFailed:
		return true
	default:
		return false
	}
}

// IsAgentEvent returns true if the event concerns a single agent.
func (t Type) IsAgentEvent() bool {
	switch t {
	case TypeAgentStarted, TypeAgentProgress, TypeAgentCompleted,
		TypeAgentFailed, TypeAgentCancelled:
		return true
	default:
		return false
	}
}

// Event is one immutable entry in a session's event stream.
type Event struct {
	// ID is a unique identifier for this event.
	ID string `json:"id"`

	// SessionID identifies the session the event belongs to.
	SessionID string `json:"session_id"`

	// Type is the event variant.
	Type Type `json:"type"`

	// Agent identifies the agent for agent.* events; empty otherwise.
	Agent types.AgentID `json:"agent,omitempty"`

	// Attempt is the 1-based attempt number for agent.* events.
	Attempt int `json:"attempt,omitempty"`

	// Progress is the agent's progress ratio in [0,1] for agent.progress
	// events. Completed events carry 1.
	Progress float64 `json:"progress,omitempty"`

	// Payload carries the typed output for completed events and the
	// partial-output preview for progress events.
	Payload any `json:"payload,omitempty"`

	// Error is the error detail for agent.failed and session.failed events.
	Error string `json:"error,omitempty"`

	// Timestamp is when the event was produced.
	Timestamp time.Time `json:"timestamp"`
}
