// Package agent defines the runner contract for a single simulated research
// agent: a uniform start/cancel lifecycle with a stream of typed updates.
//
// A Runner wraps one unit of work. Start launches the work asynchronously
// and returns a channel of Updates: zero or more progress updates followed
// by exactly one terminal update (completed, failed, or cancelled), after
// which the channel is closed. Cancel is idempotent and safe to call in any
// state; cancelling a running agent suppresses all further updates except
// the single cancelled terminal.
//
// Runners are built from a Config carrying the agent's identity and a
// RunFunc with the actual (simulated) work:
//
//	cfg := agent.NewConfig().
//	    SetID(types.AgentSearch).
//	    SetRunFunc(func(ctx context.Context, input any, report agent.ReportFunc) (any, error) {
//	        report(0.5, nil)
//	        return output, nil
//	    })
//	runner, err := agent.New(cfg)
//
// The runner enforces the lifecycle invariants so RunFuncs stay simple:
// progress ratios are clamped to [0,1] and forced monotonic, updates after
// the terminal state are dropped, and a RunFunc returning after cancellation
// yields a cancelled terminal regardless of its return values.
package agent
