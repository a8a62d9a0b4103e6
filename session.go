package researchkit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lantern-ai/researchkit/agent"
	"github.com/lantern-ai/researchkit/artifact"
	"github.com/lantern-ai/researchkit/event"
	"github.com/lantern-ai/researchkit/graph"
	"github.com/lantern-ai/researchkit/supervise"
	"github.com/lantern-ai/researchkit/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// envKind tags the messages delivered to the session loop.
type envKind int

const (
	// envUpdate carries one runner update.
	envUpdate envKind = iota

	// envExpiry signals that the global wall-clock budget elapsed.
	envExpiry

	// envStall signals that the watched agent missed its stall window.
	envStall

	// envCancel signals caller-requested cancellation.
	envCancel
)

// envelope is one message to the session loop. Runner forwarders, the
// supervisor, and the public cancellation path all talk to the loop
// through envelopes, so all session state is mutated on one goroutine.
type envelope struct {
	kind    envKind
	agent   types.AgentID
	attempt int
	update  agent.Update
}

// session is one research run from submission to terminal state. The loop
// goroutine is the only writer of records, state, and artifact; other
// goroutines read them under mu.
type session struct {
	id    string
	query types.Query
	coord *Coordinator

	bus  *event.Bus
	sup  *supervise.Supervisor
	span trace.Span

	// ctx scopes runner execution; cancel fires at terminal state.
	ctx    context.Context
	cancel context.CancelFunc

	// inbox is never closed. Senders select against loopClosed, which is
	// closed when the loop stops consuming.
	inbox      chan envelope
	loopClosed chan struct{}

	// runners and outputs are loop-private.
	runners map[types.AgentID]agent.Runner
	outputs map[types.AgentID]any

	mu          sync.RWMutex
	state       types.SessionState
	records     map[types.AgentID]*agent.Record
	artifact    *artifact.Artifact
	failure     *Error
	submittedAt time.Time
	endedAt     *time.Time
}

// newSession builds a pending session. begin starts it.
func (c *Coordinator) newSession(ctx context.Context, query types.Query) *session {
	id := uuid.New().String()

	sctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sctx, span := c.tracer.Start(sctx, "researchkit.session",
		trace.WithAttributes(
			attribute.String("session.id", id),
			attribute.String("session.topic", query.Topic),
			attribute.String("session.depth", query.Depth.String()),
		))

	s := &session{
		id:          id,
		query:       query,
		coord:       c,
		bus:         event.NewBus(),
		span:        span,
		ctx:         sctx,
		cancel:      cancel,
		inbox:       make(chan envelope, 64),
		loopClosed:  make(chan struct{}),
		runners:     make(map[types.AgentID]agent.Runner),
		outputs:     make(map[types.AgentID]any),
		state:       types.SessionPending,
		records:     make(map[types.AgentID]*agent.Record),
		submittedAt: c.clk.Now(),
	}
	for _, agentID := range types.AllAgents() {
		s.records[agentID] = agent.NewRecord(agentID)
	}
	s.sup = supervise.New(c.clk, c.cfg.GlobalTimeout(), c.cfg.StallTimeout(), s.onExpiry, s.onStall)
	return s
}

// begin transitions the session to in-progress and launches the loop.
func (s *session) begin() {
	s.mu.Lock()
	s.state = types.SessionInProgress
	s.mu.Unlock()

	s.coord.metrics.SessionStarted(s.ctx)
	s.sup.Start()
	go s.loop()
}

// post delivers an envelope to the loop. It returns false once the loop
// has stopped consuming, which callers treat as "session already over".
func (s *session) post(env envelope) bool {
	select {
	case <-s.loopClosed:
		return false
	case s.inbox <- env:
		return true
	}
}

func (s *session) onExpiry() {
	s.post(envelope{kind: envExpiry})
}

func (s *session) onStall(id types.AgentID) {
	s.post(envelope{kind: envStall, agent: id})
}

// forward pumps one runner attempt's updates into the loop. Once the loop
// stops consuming it keeps draining so the runner goroutine can finish.
func (s *session) forward(id types.AgentID, attempt int, updates <-chan agent.Update) {
	for u := range updates {
		s.post(envelope{kind: envUpdate, agent: id, attempt: attempt, update: u})
	}
}

// loop is the session's single mutation goroutine. It exits as soon as a
// terminal state is reached; envelopes in flight at that point are never
// processed, which is what guarantees exactly one terminal event.
func (s *session) loop() {
	defer close(s.loopClosed)

	s.startAgent(types.AgentSearch, s.query)
	for !s.terminal() {
		s.handle(<-s.inbox)
	}
}

func (s *session) terminal() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.IsTerminal()
}

func (s *session) handle(env envelope) {
	switch env.kind {
	case envUpdate:
		s.handleUpdate(env)
	case envExpiry:
		s.coord.logger.Warn("session budget elapsed",
			slog.String("session_id", s.id),
			slog.Duration("budget", s.coord.cfg.GlobalTimeout()))
		s.cancelRemaining("")
		s.finish(types.SessionTimedOut, event.TypeSessionTimedOut, "global wall-clock budget elapsed")
	case envStall:
		s.handleStall(env.agent)
	case envCancel:
		s.cancelRemaining("")
		s.mu.Lock()
		s.failure = &Error{Op: "Coordinator.CancelSession", Kind: KindUserCancelled, Err: ErrUserCancelled}
		s.mu.Unlock()
		s.finish(types.SessionFailed, event.TypeSessionFailed, ErrUserCancelled.Error())
	}
}

func (s *session) handleUpdate(env envelope) {
	rec := s.records[env.agent]

	// Updates from a superseded attempt, such as the cancelled tail of a
	// stalled runner, are stale and dropped.
	if env.attempt != rec.Attempts || rec.State != types.AgentRunning {
		return
	}

	switch env.update.Kind {
	case agent.UpdateProgress:
		s.mu.Lock()
		rec.Progress = env.update.Ratio
		s.mu.Unlock()
		s.publish(event.Event{
			Type:     event.TypeAgentProgress,
			Agent:    env.agent,
			Attempt:  rec.Attempts,
			Progress: env.update.Ratio,
			Payload:  env.update.Preview,
		})
		s.sup.Touch(env.agent)
	case agent.UpdateCompleted:
		s.agentCompleted(env.agent, env.update.Output)
	case agent.UpdateFailed:
		s.agentFailed(env.agent, env.update.Err)
	case agent.UpdateCancelled:
		// Cancellation originates with the coordinator, which already
		// recorded it; nothing to do.
	}
}

func (s *session) handleStall(id types.AgentID) {
	rec := s.records[id]
	if rec.State != types.AgentRunning {
		return
	}
	if r := s.runners[id]; r != nil {
		r.Cancel()
	}
	s.coord.logger.Warn("agent stalled",
		slog.String("session_id", s.id),
		slog.String("agent", id.String()),
		slog.Duration("window", s.coord.cfg.StallTimeout()))
	s.agentFailed(id, agent.NewRunError(agent.CodeStallTimeout,
		fmt.Sprintf("no progress for %s", s.coord.cfg.StallTimeout())))
}

// startAgent launches one attempt of the given agent. Each attempt gets a
// fresh runner and its own forwarder goroutine.
func (s *session) startAgent(id types.AgentID, input any) {
	graph.MustStart(id, s.completedSet())
	rec := s.records[id]
	retry := rec.State == types.AgentFailed

	runner, err := s.coord.factory.NewRunner(id, s.query)
	if err != nil {
		s.coord.logger.Error("runner construction failed",
			slog.String("session_id", s.id),
			slog.String("agent", id.String()),
			slog.String("error", err.Error()))
		s.agentExhausted(id, agent.Wrap(err, agent.CodeAgentFailure, "runner construction failed"))
		return
	}

	s.mu.Lock()
	rec.Transition(types.AgentRunning, s.coord.clk.Now())
	s.mu.Unlock()
	s.runners[id] = runner

	if retry {
		s.coord.metrics.AgentRetried(s.ctx, id.String())
		s.coord.logger.Info("agent retrying",
			slog.String("session_id", s.id),
			slog.String("agent", id.String()),
			slog.Int("attempt", rec.Attempts))
	}

	s.publish(event.Event{Type: event.TypeAgentStarted, Agent: id, Attempt: rec.Attempts})
	s.sup.Watch(id)

	updates, err := runner.Start(s.ctx, input)
	if err != nil {
		s.agentFailed(id, agent.FromError(err))
		return
	}
	go s.forward(id, rec.Attempts, updates)
}

func (s *session) agentCompleted(id types.AgentID, output any) {
	rec := s.records[id]
	s.mu.Lock()
	rec.Transition(types.AgentCompleted, s.coord.clk.Now())
	rec.Progress = 1
	rec.Output = output
	s.mu.Unlock()
	s.outputs[id] = output
	delete(s.runners, id)
	s.sup.Unwatch()

	s.publish(event.Event{
		Type:     event.TypeAgentCompleted,
		Agent:    id,
		Attempt:  rec.Attempts,
		Progress: 1,
		Payload:  output,
	})
	s.coord.logger.Info("agent completed",
		slog.String("session_id", s.id),
		slog.String("agent", id.String()),
		slog.Int("attempt", rec.Attempts))

	if id == types.AgentFactCheck {
		s.finishCompleted()
		return
	}
	for _, next := range graph.Unlocked(s.completedSet()) {
		if s.records[next].State == types.AgentIdle {
			s.startAgent(next, s.inputFor(next))
			return
		}
	}
}

func (s *session) agentFailed(id types.AgentID, runErr *agent.RunError) {
	rec := s.records[id]
	s.mu.Lock()
	rec.Transition(types.AgentFailed, s.coord.clk.Now())
	rec.Err = runErr
	s.mu.Unlock()
	delete(s.runners, id)
	s.sup.Unwatch()

	s.publish(event.Event{
		Type:    event.TypeAgentFailed,
		Agent:   id,
		Attempt: rec.Attempts,
		Error:   runErr.Error(),
	})
	s.coord.logger.Warn("agent failed",
		slog.String("session_id", s.id),
		slog.String("agent", id.String()),
		slog.Int("attempt", rec.Attempts),
		slog.String("error", runErr.Error()))

	if runErr.Retryable && rec.Attempts <= s.coord.cfg.MaxRetriesPerAgent {
		s.startAgent(id, s.inputFor(id))
		return
	}
	s.agentExhausted(id, runErr)
}

// agentExhausted ends the session after an agent failed beyond its retry
// budget. When fact-checking is the exhausted agent and synthesis already
// completed, the artifact is still built with the verdicts marked
// best-effort.
func (s *session) agentExhausted(id types.AgentID, runErr *agent.RunError) {
	if id == types.AgentFactCheck {
		search, _ := s.outputs[types.AgentSearch].(*artifact.SearchOutput)
		synth, _ := s.outputs[types.AgentSynthesis].(*artifact.SynthesisOutput)
		if search != nil && synth != nil {
			a := artifact.Build(s.id, s.query.Topic, search, synth, nil, s.coord.clk.Now())
			s.mu.Lock()
			s.artifact = a
			s.mu.Unlock()
			s.coord.logger.Info("artifact built without fact-check",
				slog.String("session_id", s.id))
		}
	}
	s.cancelRemaining(id)

	kind := KindAgentFailure
	if runErr.Code == agent.CodeStallTimeout {
		kind = KindStallTimeout
	}
	s.mu.Lock()
	s.failure = &Error{
		Op:      "session",
		Kind:    kind,
		Err:     runErr,
		Context: map[string]any{"agent": id.String()},
	}
	s.mu.Unlock()
	s.finish(types.SessionFailed, event.TypeSessionFailed, runErr.Error())
}

// cancelRemaining cancels every agent not yet in a terminal state, in
// pipeline order, publishing one cancelled event per agent. skip names an
// agent to leave untouched, typically one already recorded as failed.
func (s *session) cancelRemaining(skip types.AgentID) {
	for _, id := range types.AllAgents() {
		if id == skip {
			continue
		}
		rec := s.records[id]
		if rec.State.IsTerminal() {
			continue
		}
		if r := s.runners[id]; r != nil {
			r.Cancel()
			delete(s.runners, id)
		}
		s.mu.Lock()
		rec.Transition(types.AgentCancelled, s.coord.clk.Now())
		s.mu.Unlock()
		s.publish(event.Event{
			Type:    event.TypeAgentCancelled,
			Agent:   id,
			Attempt: rec.Attempts,
		})
	}
}

// finishCompleted builds the artifact and ends the session successfully.
func (s *session) finishCompleted() {
	search, _ := s.outputs[types.AgentSearch].(*artifact.SearchOutput)
	synth, _ := s.outputs[types.AgentSynthesis].(*artifact.SynthesisOutput)
	facts, _ := s.outputs[types.AgentFactCheck].(*artifact.FactCheckOutput)

	a := artifact.Build(s.id, s.query.Topic, search, synth, facts, s.coord.clk.Now())
	s.mu.Lock()
	s.artifact = a
	s.mu.Unlock()
	s.finish(types.SessionCompleted, event.TypeSessionCompleted, "")
}

// finish records the terminal state and publishes the session's single
// terminal event. The loop exits right after, so finish runs exactly once.
func (s *session) finish(state types.SessionState, evType event.Type, errMsg string) {
	now := s.coord.clk.Now()
	s.mu.Lock()
	s.state = state
	s.endedAt = &now
	s.mu.Unlock()

	s.sup.Stop()
	s.publish(event.Event{Type: evType, Error: errMsg})
	s.cancel()

	s.coord.metrics.SessionEnded(s.ctx, state.String())
	s.span.SetAttributes(attribute.String("session.state", state.String()))
	s.span.End()
	s.bus.Close()

	s.coord.logger.Info("session finished",
		slog.String("session_id", s.id),
		slog.String("state", state.String()),
		slog.Duration("elapsed", now.Sub(s.submittedAt)))
}

// publish stamps and fans out one event to the bus and the observers.
func (s *session) publish(ev event.Event) {
	ev.ID = uuid.New().String()
	ev.SessionID = s.id
	ev.Timestamp = s.coord.clk.Now()

	s.bus.Publish(ev)
	s.coord.metrics.EventPublished(s.ctx, ev.Type.String())
	for _, fn := range s.coord.observers {
		fn(ev)
	}
}

// completedSet returns the agents that have completed, for gating checks.
func (s *session) completedSet() map[types.AgentID]bool {
	completed := make(map[types.AgentID]bool, len(s.records))
	for id, rec := range s.records {
		if rec.State == types.AgentCompleted {
			completed[id] = true
		}
	}
	return completed
}

// inputFor returns the input for the given agent, chaining each agent to
// its prerequisite's output.
func (s *session) inputFor(id types.AgentID) any {
	if prereq, ok := graph.Prerequisite(id); ok {
		return s.outputs[prereq]
	}
	return s.query
}

// snapshot builds a point-in-time Info for callers outside the loop.
func (s *session) snapshot() *Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agents := make(map[types.AgentID]*agent.Record, len(s.records))
	for id, rec := range s.records {
		agents[id] = rec.Clone()
	}
	return &Info{
		SessionID:   s.id,
		Topic:       s.query.Topic,
		Depth:       s.query.Depth,
		State:       s.state,
		Agents:      agents,
		SubmittedAt: s.submittedAt,
		EndedAt:     s.endedAt,
	}
}
