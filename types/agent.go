package types

// AgentID identifies one of the three research agents.
type AgentID string

const (
	// AgentSearch gathers sources for the research topic.
	AgentSearch AgentID = "search"

	// AgentSynthesis builds a structured narrative from search output.
	AgentSynthesis AgentID = "synthesis"

	// AgentFactCheck verifies the claims made by the synthesis narrative.
	AgentFactCheck AgentID = "factcheck"
)

// AllAgents returns the agent IDs in pipeline order.
func AllAgents() []AgentID {
	return []AgentID{AgentSearch, AgentSynthesis, AgentFactCheck}
}

// String returns the string representation of the agent ID.
func (id AgentID) String() string {
	return string(id)
}

// IsValid checks if the agent ID is a recognized value.
func (id AgentID) IsValid() bool {
	switch id {
	case AgentSearch, AgentSynthesis, AgentFactCheck:
		return true
	default:
		return false
	}
}

// Description returns a human-readable description of the agent.
func (id AgentID) Description() string {
	switch id {
	case AgentSearch:
		return "Searches for sources relevant to the research topic"
	case AgentSynthesis:
		return "Synthesizes search results into a structured narrative"
	case AgentFactCheck:
		return "Verifies the claims made by the synthesis narrative"
	default:
		return "Unknown agent"
	}
}

// AgentState represents the lifecycle state of a single agent runner.
type AgentState string

const (
	// AgentIdle indicates the agent has not started yet.
	AgentIdle AgentState = "idle"

	// AgentRunning indicates the agent is currently executing.
	AgentRunning AgentState = "running"

	// AgentCompleted indicates the agent finished successfully.
	AgentCompleted AgentState = "completed"

	// AgentFailed indicates the agent ended with an error.
	// A failed agent may re-enter AgentRunning on retry.
	AgentFailed AgentState = "failed"

	// AgentCancelled indicates the agent was cancelled before completion.
	AgentCancelled AgentState = "cancelled"
)

// String returns the string representation of the agent state.
func (s AgentState) String() string {
	return string(s)
}

// IsValid checks if the agent state is a recognized value.
func (s AgentState) IsValid() bool {
	switch s {
	case AgentIdle, AgentRunning, AgentCompleted, AgentFailed, AgentCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal returns true if the state is final for the agent.
// AgentFailed is not terminal: a failed agent may be retried.
func (s AgentState) IsTerminal() bool {
	switch s {
	case AgentCompleted, AgentCancelled:
		return true
	default:
		return false
	}
}

// CanTransition reports whether a transition from s to next is legal.
// Transitions are one-directional except AgentFailed -> AgentRunning (retry).
func (s AgentState) CanTransition(next AgentState) bool {
	switch s {
	case AgentIdle:
		return next == AgentRunning || next == AgentCancelled
	case AgentRunning:
		return next == AgentCompleted || next == AgentFailed || next == AgentCancelled
	case AgentFailed:
		return next == AgentRunning || next == AgentCancelled
	default:
		return false
	}
}
