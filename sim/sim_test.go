package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lantern-ai/researchkit/agent"
	"github.com/lantern-ai/researchkit/artifact"
	"github.com/lantern-ai/researchkit/types"
)

func testQuery(t *testing.T, depth types.Depth) types.Query {
	t.Helper()
	q, err := types.NewQuery("quantum computing", depth, time.Now())
	require.NoError(t, err)
	return q
}

// runToTerminal starts the runner and drains it, returning progress ratios
// and the terminal update.
func runToTerminal(t *testing.T, r agent.Runner, input any) ([]float64, agent.Update) {
	t.Helper()

	updates, err := r.Start(context.Background(), input)
	require.NoError(t, err)

	var ratios []float64
	var terminal agent.Update
	timeout := time.After(5 * time.Second)
	for {
		select {
		case upd, ok := <-updates:
			if !ok {
				return ratios, terminal
			}
			if upd.Kind == agent.UpdateProgress {
				ratios = append(ratios, upd.Ratio)
			}
			if upd.Kind.IsTerminal() {
				terminal = upd
			}
		case <-timeout:
			t.Fatal("timed out draining runner")
		}
	}
}

func fastFactory(opts ...Option) *Factory {
	return NewFactory(append([]Option{WithStepDelay(0)}, opts...)...)
}

func TestSearch_ProducesRequestedSourceCount(t *testing.T) {
	f := fastFactory(WithSearchResultCount(7))
	q := testQuery(t, types.DepthMedium)

	r, err := f.NewRunner(types.AgentSearch, q)
	require.NoError(t, err)

	_, terminal := runToTerminal(t, r, q)
	require.Equal(t, agent.UpdateCompleted, terminal.Kind)

	out, ok := terminal.Output.(*artifact.SearchOutput)
	require.True(t, ok)
	require.Len(t, out.Sources, 7)
	assert.Contains(t, out.Sources[0].Title, "quantum computing")
	assert.NotEmpty(t, out.Sources[0].URL)
}

func TestSearch_ProgressMatchesDepthSteps(t *testing.T) {
	tests := []struct {
		depth     types.Depth
		wantSteps int
	}{
		{types.DepthShallow, 3},
		{types.DepthMedium, 5},
		{types.DepthDeep, 8},
	}

	for _, tt := range tests {
		t.Run(tt.depth.String(), func(t *testing.T) {
			f := fastFactory()
			q := testQuery(t, tt.depth)

			r, err := f.NewRunner(types.AgentSearch, q)
			require.NoError(t, err)

			ratios, terminal := runToTerminal(t, r, q)
			require.Equal(t, agent.UpdateCompleted, terminal.Kind)
			assert.Len(t, ratios, tt.wantSteps)
			assert.Equal(t, 1.0, ratios[len(ratios)-1])
		})
	}
}

func TestSynthesis_BuildsNarrativeAndClaims(t *testing.T) {
	f := fastFactory()
	q := testQuery(t, types.DepthMedium)

	search := &artifact.SearchOutput{Sources: []artifact.Source{
		{Title: "Source A", URL: "https://example.org/research/1"},
		{Title: "Source B", URL: "https://example.org/research/2"},
	}}

	r, err := f.NewRunner(types.AgentSynthesis, q)
	require.NoError(t, err)

	_, terminal := runToTerminal(t, r, search)
	require.Equal(t, agent.UpdateCompleted, terminal.Kind)

	out, ok := terminal.Output.(*artifact.SynthesisOutput)
	require.True(t, ok)
	assert.Len(t, out.Sections, 3)
	assert.Len(t, out.Claims, 2)
	assert.Equal(t, "Overview", out.Sections[0].Heading)
}

func TestSynthesis_DeepDepthAddsImplications(t *testing.T) {
	f := fastFactory()
	q := testQuery(t, types.DepthDeep)

	r, err := f.NewRunner(types.AgentSynthesis, q)
	require.NoError(t, err)

	_, terminal := runToTerminal(t, r, &artifact.SearchOutput{})
	require.Equal(t, agent.UpdateCompleted, terminal.Kind)

	out := terminal.Output.(*artifact.SynthesisOutput)
	require.Len(t, out.Sections, 4)
	assert.Equal(t, "Implications", out.Sections[3].Heading)
}

func TestSynthesis_RejectsBadInput(t *testing.T) {
	f := fastFactory()
	q := testQuery(t, types.DepthMedium)

	r, err := f.NewRunner(types.AgentSynthesis, q)
	require.NoError(t, err)

	_, terminal := runToTerminal(t, r, "not a search output")
	require.Equal(t, agent.UpdateFailed, terminal.Kind)
	require.NotNil(t, terminal.Err)
	assert.Equal(t, agent.CodeInvalidInput, terminal.Err.Code)
	assert.False(t, terminal.Err.Retryable)
}

func TestFactCheck_CoversEveryClaim(t *testing.T) {
	f := fastFactory()
	q := testQuery(t, types.DepthMedium)

	synth := &artifact.SynthesisOutput{
		Claims: []string{"c1", "c2", "c3", "c4"},
	}

	r, err := f.NewRunner(types.AgentFactCheck, q)
	require.NoError(t, err)

	_, terminal := runToTerminal(t, r, synth)
	require.Equal(t, agent.UpdateCompleted, terminal.Kind)

	out := terminal.Output.(*artifact.FactCheckOutput)
	require.Len(t, out.Verdicts, 4)
	assert.Equal(t, artifact.VerdictVerified, out.Verdicts[0].Kind)
	assert.Equal(t, artifact.VerdictUnverified, out.Verdicts[2].Kind)
	for i, v := range out.Verdicts {
		assert.Equal(t, synth.Claims[i], v.Claim)
	}
}

func TestInjectedFailures_FailThenSucceed(t *testing.T) {
	f := fastFactory(WithInjectedFailures(types.AgentSearch, 1))
	q := testQuery(t, types.DepthShallow)

	r1, err := f.NewRunner(types.AgentSearch, q)
	require.NoError(t, err)
	_, terminal := runToTerminal(t, r1, q)
	require.Equal(t, agent.UpdateFailed, terminal.Kind)
	assert.True(t, terminal.Err.Retryable)

	// The failure budget is consumed; a fresh runner succeeds.
	r2, err := f.NewRunner(types.AgentSearch, q)
	require.NoError(t, err)
	_, terminal = runToTerminal(t, r2, q)
	assert.Equal(t, agent.UpdateCompleted, terminal.Kind)
}

func TestFactory_UnknownAgent(t *testing.T) {
	f := fastFactory()
	_, err := f.NewRunner(types.AgentID("planner"), testQuery(t, types.DepthMedium))
	assert.Error(t, err)
}

func TestSearch_CancellationStopsWork(t *testing.T) {
	f := NewFactory(WithStepDelay(50 * time.Millisecond))
	q := testQuery(t, types.DepthDeep)

	r, err := f.NewRunner(types.AgentSearch, q)
	require.NoError(t, err)

	updates, err := r.Start(context.Background(), q)
	require.NoError(t, err)
	r.Cancel()

	timeout := time.After(5 * time.Second)
	var terminal agent.Update
	for {
		var ok bool
		var upd agent.Update
		select {
		case upd, ok = <-updates:
		case <-timeout:
			t.Fatal("runner did not terminate after cancel")
		}
		if !ok {
			break
		}
		if upd.Kind.IsTerminal() {
			terminal = upd
		}
	}
	assert.Equal(t, agent.UpdateCancelled, terminal.Kind)
}
