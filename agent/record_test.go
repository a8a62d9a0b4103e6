package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lantern-ai/researchkit/types"
)

func TestRecord_Lifecycle(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rec := NewRecord(types.AgentSearch)

	require.Equal(t, types.AgentIdle, rec.State)
	assert.Zero(t, rec.Attempts)

	require.True(t, rec.Transition(types.AgentRunning, now))
	assert.Equal(t, 1, rec.Attempts)
	require.NotNil(t, rec.StartedAt)
	assert.True(t, rec.StartedAt.Equal(now))
	assert.Nil(t, rec.EndedAt)

	end := now.Add(3 * time.Second)
	require.True(t, rec.Transition(types.AgentCompleted, end))
	require.NotNil(t, rec.EndedAt)
	assert.True(t, rec.EndedAt.Equal(end))
}

func TestRecord_RetryKeepsOriginalStart(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rec := NewRecord(types.AgentSynthesis)

	require.True(t, rec.Transition(types.AgentRunning, start))
	rec.Err = NewRunError(CodeAgentFailure, "first attempt")
	require.True(t, rec.Transition(types.AgentFailed, start.Add(time.Second)))

	retry := start.Add(2 * time.Second)
	require.True(t, rec.Transition(types.AgentRunning, retry))
	assert.Equal(t, 2, rec.Attempts)
	assert.Nil(t, rec.Err, "retry clears the previous failure")
	assert.Nil(t, rec.EndedAt)
	assert.True(t, rec.StartedAt.Equal(start), "StartedAt records the first attempt")
}

func TestRecord_IllegalTransitionRejected(t *testing.T) {
	now := time.Now()
	rec := NewRecord(types.AgentFactCheck)

	assert.False(t, rec.Transition(types.AgentCompleted, now), "idle cannot complete directly")
	require.True(t, rec.Transition(types.AgentRunning, now))
	require.True(t, rec.Transition(types.AgentCompleted, now))
	assert.False(t, rec.Transition(types.AgentRunning, now), "completed is terminal")
}

func TestRecord_Clone(t *testing.T) {
	rec := NewRecord(types.AgentSearch)
	rec.Progress = 0.4

	clone := rec.Clone()
	clone.Progress = 0.9
	assert.Equal(t, 0.4, rec.Progress)
}
