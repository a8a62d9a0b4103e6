// Package graph encodes the fixed dependency chain between the three
// research agents: search has no prerequisite, synthesis requires search,
// and factcheck requires synthesis.
//
// The graph is static and acyclic. Attempting to start an agent whose
// prerequisite has not completed is a programming error, not a runtime
// failure, and panics.
package graph

import (
	"fmt"

	"github.com/lantern-ai/researchkit/types"
)

// prerequisites maps each agent to the agent that must complete first.
// Search is absent: it has no prerequisite.
var prerequisites = map[types.AgentID]types.AgentID{
	types.AgentSynthesis: types.AgentSearch,
	types.AgentFactCheck: types.AgentSynthesis,
}

// Prerequisite returns the agent that must complete before id may start.
// The second return value is false for agents without a prerequisite.
func Prerequisite(id types.AgentID) (types.AgentID, bool) {
	prereq, ok := prerequisites[id]
	return prereq, ok
}

// Unlocked returns the agents eligible to start given the set of completed
// agents: every agent that has not itself completed and whose prerequisite
// (if any) has. Results are in pipeline order.
func Unlocked(completed map[types.AgentID]bool) []types.AgentID {
	var eligible []types.AgentID
	for _, id := range types.AllAgents() {
		if completed[id] {
			continue
		}
		if prereq, ok := prerequisites[id]; ok && !completed[prereq] {
			continue
		}
		eligible = append(eligible, id)
	}
	return eligible
}

// MustStart asserts that id is eligible to start given the completed set.
// A violation means the coordinator attempted an out-of-order start, which
// is a bug in the caller, so MustStart panics rather than returning an error.
func MustStart(id types.AgentID, completed map[types.AgentID]bool) {
	if !id.IsValid() {
		panic(fmt.Sprintf("graph: unknown agent %q", id))
	}
	if prereq, ok := prerequisites[id]; ok && !completed[prereq] {
		panic(fmt.Sprintf("graph: dependency violation: %s started before %s completed", id, prereq))
	}
}
