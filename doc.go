// Package researchkit coordinates simulated research sessions.
//
// A session runs three agents through a fixed dependency chain: search
// gathers sources for a topic, synthesis turns them into a structured
// narrative with checkable claims, and fact-check assigns a verdict to
// each claim. The Coordinator owns the whole lifecycle: it validates the
// query, starts agents in dependency order, streams lifecycle events to
// subscribers, enforces a global wall-clock budget and a per-agent stall
// window, retries failed agents, and aggregates the final artifact.
//
// # Core Concepts
//
//   - Query: an immutable research request (topic plus depth)
//   - Session: one run of the pipeline, from submission to terminal state
//   - Runner: one attempt of one agent, producing a stream of updates
//   - Event: a session's observable lifecycle, fanned out by the bus
//   - Artifact: the aggregated sources, narrative, and verdicts
//
// # Getting Started
//
// Create a coordinator and submit a query:
//
//	coord, err := researchkit.New()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer coord.Shutdown(context.Background())
//
//	handle, err := coord.SubmitQuery(ctx, "ocean acidification", types.DepthMedium)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	events, unsubscribe, _ := coord.Subscribe(handle, 64)
//	defer unsubscribe()
//	for ev := range events {
//		fmt.Println(ev.Type)
//	}
//
//	report, err := coord.GetArtifact(handle)
//
// # Timeouts and Retries
//
// Each session has a wall-clock budget (default 60s); when it elapses the
// session ends as timed out and remaining agents are cancelled. A running
// agent that reports no progress for a full stall window (default 15s) is
// treated as failed. Failed agents are retried once by default; an agent
// that fails beyond its retry budget fails the session, except that a
// fact-check failure after synthesis completed still yields an artifact
// with its verdicts marked best-effort.
//
// # Observability
//
// The coordinator logs through log/slog and accepts an OpenTelemetry
// tracer and meter via options. The bridge package can mirror the event
// stream to Redis for out-of-process observers.
package researchkit
