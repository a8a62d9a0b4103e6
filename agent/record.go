package agent

import (
	"time"

	"github.com/lantern-ai/researchkit/types"
)

// Record tracks one agent's state within a session. The coordinator owns
// the collection of records and is the only writer; runners publish changes
// through their update stream rather than mutating records directly.
type Record struct {
	// ID identifies the agent.
	ID types.AgentID `json:"id"`

	// State is the agent's current lifecycle state.
	State types.AgentState `json:"state"`

	// Progress is the last observed progress ratio in [0,1].
	Progress float64 `json:"progress"`

	// Output is the agent's final typed output. Nil until completed.
	Output any `json:"output,omitempty"`

	// Err is the last failure detail. Nil unless the agent failed.
	Err *RunError `json:"error,omitempty"`

	// Attempts counts run attempts, including retries.
	Attempts int `json:"attempts"`

	// StartedAt is when the first attempt entered running.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// EndedAt is when the agent reached a terminal state.
	EndedAt *time.Time `json:"ended_at,omitempty"`
}

// NewRecord creates an idle record for the given agent.
func NewRecord(id types.AgentID) *Record {
	return &Record{ID: id, State: types.AgentIdle}
}

// Clone returns a shallow copy so callers can hand out snapshots without
// exposing the coordinator's mutable record.
func (r *Record) Clone() *Record {
	clone := *r
	return &clone
}

// Transition moves the record to the given state, returning false if the
// transition is not legal from the current state.
func (r *Record) Transition(next types.AgentState, now time.Time) bool {
	if !r.State.CanTransition(next) {
		return false
	}
	r.State = next

	switch next {
	case types.AgentRunning:
		r.Attempts++
		r.Err = nil
		if r.StartedAt == nil {
			t := now
			r.StartedAt = &t
		}
		r.EndedAt = nil
	case types.AgentCompleted, types.AgentCancelled, types.AgentFailed:
		t := now
		r.EndedAt = &t
	}
	return true
}
