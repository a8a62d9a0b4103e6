// Package sim provides the simulated research agents. Each runner produces
// placeholder findings over a series of timed steps: search fabricates
// sources for the topic, synthesis turns them into a structured narrative
// with checkable claims, and factcheck assigns deterministic verdicts.
//
// The simulation is the stub collaborator the coordinator orchestrates; it
// holds no orchestration logic of its own. Step pacing runs on an injected
// clock so tests can use a zero delay or virtual time, and failures can be
// injected per agent to exercise the coordinator's retry path.
package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lantern-ai/researchkit/agent"
	"github.com/lantern-ai/researchkit/artifact"
	"github.com/lantern-ai/researchkit/clock"
	"github.com/lantern-ai/researchkit/types"
)

// Option configures a Factory.
type Option func(*Factory)

// WithClock sets the clock used for step pacing.
func WithClock(clk clock.Clock) Option {
	return func(f *Factory) {
		f.clk = clk
	}
}

// WithStepDelay sets the simulated duration of one work step.
func WithStepDelay(d time.Duration) Option {
	return func(f *Factory) {
		f.stepDelay = d
	}
}

// WithSearchResultCount sets how many placeholder sources search produces.
func WithSearchResultCount(n int) Option {
	return func(f *Factory) {
		f.resultCount = n
	}
}

// WithInjectedFailures makes the next n attempts of the given agent fail
// with a retryable AGENT_FAILURE. Used to exercise retry handling.
func WithInjectedFailures(id types.AgentID, n int) Option {
	return func(f *Factory) {
		f.failures[id] = n
	}
}

// Factory builds simulated runners for the three research agents. A single
// factory serves a whole session, so injected failure budgets are shared
// across retries.
type Factory struct {
	clk         clock.Clock
	stepDelay   time.Duration
	resultCount int

	mu       sync.Mutex
	failures map[types.AgentID]int
}

// NewFactory creates a factory with the given options. Defaults: system
// clock, 400ms steps, five search results.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{
		clk:         clock.New(),
		stepDelay:   400 * time.Millisecond,
		resultCount: 5,
		failures:    make(map[types.AgentID]int),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewRunner builds a fresh runner for one attempt of the given agent.
func (f *Factory) NewRunner(id types.AgentID, query types.Query) (agent.Runner, error) {
	var run agent.RunFunc
	switch id {
	case types.AgentSearch:
		run = f.searchRun(query)
	case types.AgentSynthesis:
		run = f.synthesisRun(query)
	case types.AgentFactCheck:
		run = f.factCheckRun()
	default:
		return nil, fmt.Errorf("sim: unknown agent %q", id)
	}
	return agent.New(agent.NewConfig().SetID(id).SetRunFunc(run))
}

// steps returns how many simulated work steps an agent performs at the
// given depth.
func steps(depth types.Depth) int {
	switch depth {
	case types.DepthShallow:
		return 3
	case types.DepthDeep:
		return 8
	default:
		return 5
	}
}

// consumeFailure reports whether this attempt should fail, decrementing the
// agent's injected failure budget.
func (f *Factory) consumeFailure(id types.AgentID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failures[id] > 0 {
		f.failures[id]--
		return true
	}
	return false
}

// pace waits one step delay or returns the context error on cancellation.
func (f *Factory) pace(ctx context.Context) error {
	if f.stepDelay <= 0 {
		return ctx.Err()
	}
	select {
	case <-f.clk.After(f.stepDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Factory) searchRun(query types.Query) agent.RunFunc {
	return func(ctx context.Context, input any, report agent.ReportFunc) (any, error) {
		q, ok := input.(types.Query)
		if !ok {
			q = query
		}

		if f.consumeFailure(types.AgentSearch) {
			report(0.2, nil)
			return nil, agent.NewRunError(agent.CodeAgentFailure, "simulated search fault")
		}

		total := steps(q.Depth)
		out := &artifact.SearchOutput{}
		for i := 0; i < total; i++ {
			if err := f.pace(ctx); err != nil {
				return nil, err
			}
			perStep := (f.resultCount + total - 1) / total
			for j := 0; j < perStep && len(out.Sources) < f.resultCount; j++ {
				n := len(out.Sources) + 1
				out.Sources = append(out.Sources, artifact.Source{
					Title:   fmt.Sprintf("%s — result %d", q.Topic, n),
					Snippet: fmt.Sprintf("Placeholder finding %d about %s.", n, q.Topic),
					URL:     fmt.Sprintf("https://example.org/research/%d", n),
				})
			}
			report(float64(i+1)/float64(total), out)
		}
		return out, nil
	}
}

func (f *Factory) synthesisRun(query types.Query) agent.RunFunc {
	return func(ctx context.Context, input any, report agent.ReportFunc) (any, error) {
		search, ok := input.(*artifact.SearchOutput)
		if !ok || search == nil {
			return nil, agent.NewRunError(agent.CodeInvalidInput, "synthesis expects search output")
		}

		if f.consumeFailure(types.AgentSynthesis) {
			report(0.2, nil)
			return nil, agent.NewRunError(agent.CodeAgentFailure, "simulated synthesis fault")
		}

		headings := []string{"Overview", "Key Findings", "Analysis"}
		if query.Depth == types.DepthDeep {
			headings = append(headings, "Implications")
		}

		out := &artifact.SynthesisOutput{}
		total := len(headings)
		for i, heading := range headings {
			if err := f.pace(ctx); err != nil {
				return nil, err
			}
			out.Sections = append(out.Sections, artifact.Section{
				Heading: heading,
				Body: fmt.Sprintf("%s of %q drawing on %d sources.",
					heading, query.Topic, len(search.Sources)),
			})
			report(float64(i+1)/float64(total), out)
		}
		for i, src := range search.Sources {
			out.Claims = append(out.Claims, fmt.Sprintf("Claim %d: %s corroborates the narrative.", i+1, src.Title))
		}
		return out, nil
	}
}

func (f *Factory) factCheckRun() agent.RunFunc {
	return func(ctx context.Context, input any, report agent.ReportFunc) (any, error) {
		synth, ok := input.(*artifact.SynthesisOutput)
		if !ok || synth == nil {
			return nil, agent.NewRunError(agent.CodeInvalidInput, "factcheck expects synthesis output")
		}

		if f.consumeFailure(types.AgentFactCheck) {
			report(0.2, nil)
			return nil, agent.NewRunError(agent.CodeAgentFailure, "simulated factcheck fault")
		}

		out := &artifact.FactCheckOutput{}
		total := len(synth.Claims)
		for i, claim := range synth.Claims {
			if err := f.pace(ctx); err != nil {
				return nil, err
			}
			// Deterministic verdict cycle; every third claim stays
			// unverified so best-effort handling is visible downstream.
			kind := artifact.VerdictVerified
			if (i+1)%3 == 0 {
				kind = artifact.VerdictUnverified
			}
			v := artifact.Verdict{Claim: claim, Kind: kind}
			if kind == artifact.VerdictVerified {
				v.SourceRefs = []int{i}
			}
			out.Verdicts = append(out.Verdicts, v)
			report(float64(i+1)/float64(total), out)
		}
		return out, nil
	}
}
