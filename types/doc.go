// Package types defines the shared value types and enumerations used across
// the research coordinator: agent identifiers, agent and session states,
// research depth levels, and the immutable research query.
//
// All enumerations follow the same conventions:
//
//   - String() returns the wire representation
//   - IsValid() reports whether the value is recognized
//   - IsTerminal() reports whether the value is a final state (where applicable)
//
// The types in this package carry no behavior beyond validation and state
// transition rules; orchestration logic lives in the root researchkit package.
package types
