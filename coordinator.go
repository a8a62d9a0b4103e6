package researchkit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lantern-ai/researchkit/agent"
	"github.com/lantern-ai/researchkit/artifact"
	"github.com/lantern-ai/researchkit/clock"
	"github.com/lantern-ai/researchkit/config"
	"github.com/lantern-ai/researchkit/event"
	"github.com/lantern-ai/researchkit/sim"
	"github.com/lantern-ai/researchkit/telemetry"
	"github.com/lantern-ai/researchkit/types"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// RunnerFactory builds a fresh runner for one attempt of the given agent.
// Each attempt, including retries, gets its own runner instance.
type RunnerFactory interface {
	NewRunner(id types.AgentID, query types.Query) (agent.Runner, error)
}

// Handle references a session created by SubmitQuery. Handles are cheap
// values; every coordinator method that operates on a session takes one.
type Handle struct {
	// SessionID uniquely identifies the session.
	SessionID string
}

// Info is a point-in-time snapshot of a session. It shares no mutable
// state with the coordinator; agent records are clones.
type Info struct {
	// SessionID uniquely identifies the session.
	SessionID string `json:"session_id"`

	// Topic is the research topic being investigated.
	Topic string `json:"topic"`

	// Depth is the requested research depth.
	Depth types.Depth `json:"depth"`

	// State is the session's lifecycle state at snapshot time.
	State types.SessionState `json:"state"`

	// Agents holds a record per agent, keyed by agent ID.
	Agents map[types.AgentID]*agent.Record `json:"agents"`

	// SubmittedAt is when the query was accepted.
	SubmittedAt time.Time `json:"submitted_at"`

	// EndedAt is when the session reached a terminal state, if it has.
	EndedAt *time.Time `json:"ended_at,omitempty"`
}

// Coordinator orchestrates research sessions. Each session runs the three
// simulated agents through their dependency chain, streams events to
// subscribers, enforces the wall-clock budget and stall window, retries
// failed agents, and aggregates the final artifact.
//
// A Coordinator is safe for concurrent use and can run many sessions at
// once; sessions are independent.
type Coordinator struct {
	logger    *slog.Logger
	tracer    trace.Tracer
	metrics   *telemetry.Metrics
	clk       clock.Clock
	cfg       config.Config
	factory   RunnerFactory
	observers []func(event.Event)

	mu       sync.RWMutex
	sessions map[string]*session
	closed   bool
}

// New creates a Coordinator with the provided options. Without options it
// uses the default configuration, the system clock, slog.Default(), a
// no-op tracer, no metrics, and the built-in simulated agents.
func New(opts ...Option) (*Coordinator, error) {
	const op = "New"

	cc := &coordinatorConfig{}
	for _, opt := range opts {
		opt(cc)
	}

	var cfg config.Config
	switch {
	case cc.cfg != nil:
		cfg = *cc.cfg
	case cc.configPath != "":
		loaded, err := config.Load(cc.configPath)
		if err != nil {
			return nil, NewConfigurationError(op, err)
		}
		cfg = *loaded
	default:
		cfg = config.Default()
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, NewConfigurationError(op, err)
	}

	logger := cc.logger
	if logger == nil {
		logger = slog.Default()
	}

	tracer := cc.tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(telemetry.ServiceName)
	}

	var metrics *telemetry.Metrics
	if cc.meter != nil {
		m, err := telemetry.NewMetrics(cc.meter)
		if err != nil {
			return nil, NewConfigurationError(op, err)
		}
		metrics = m
	}

	clk := cc.clk
	if clk == nil {
		clk = clock.New()
	}

	factory := cc.factory
	if factory == nil {
		factory = sim.NewFactory(
			sim.WithClock(clk),
			sim.WithSearchResultCount(cfg.SearchResultCount),
		)
	}

	return &Coordinator{
		logger:    logger,
		tracer:    tracer,
		metrics:   metrics,
		clk:       clk,
		cfg:       cfg,
		factory:   factory,
		observers: cc.observers,
		sessions:  make(map[string]*session),
	}, nil
}

// SubmitQuery validates the query and starts a new session for it. The
// session begins executing immediately; the returned handle is used to
// subscribe, inspect, cancel, and fetch the artifact.
//
// The context only scopes submission itself. Session execution continues
// after ctx is cancelled; use CancelSession to stop a running session.
func (c *Coordinator) SubmitQuery(ctx context.Context, topic string, depth types.Depth) (Handle, error) {
	const op = "Coordinator.SubmitQuery"

	query, err := types.NewQuery(topic, depth, c.clk.Now())
	if err != nil {
		return Handle{}, NewInvalidQueryError(op, fmt.Errorf("%w: %v", ErrInvalidQuery, err))
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Handle{}, &Error{Op: op, Kind: KindInternal, Err: ErrCoordinatorClosed}
	}
	s := c.newSession(ctx, query)
	c.sessions[s.id] = s
	c.mu.Unlock()

	c.logger.Info("session submitted",
		slog.String("session_id", s.id),
		slog.String("topic", query.Topic),
		slog.String("depth", query.Depth.String()))

	s.begin()
	return Handle{SessionID: s.id}, nil
}

// Subscribe attaches an event subscriber to the session. Events published
// after subscription arrive on the returned channel in publish order; the
// second return value unsubscribes and closes the channel. Subscribing to
// a finished session returns a closed channel.
func (c *Coordinator) Subscribe(h Handle, buffer int) (<-chan event.Event, func(), error) {
	const op = "Coordinator.Subscribe"

	s, err := c.session(op, h)
	if err != nil {
		return nil, nil, err
	}
	ch, unsubscribe := s.bus.Subscribe(buffer)
	return ch, unsubscribe, nil
}

// CancelSession requests cancellation of a running session. The session
// transitions to failed after its agents are cancelled. Cancelling a
// session that already finished is a no-op.
func (c *Coordinator) CancelSession(h Handle) error {
	const op = "Coordinator.CancelSession"

	s, err := c.session(op, h)
	if err != nil {
		return err
	}
	s.post(envelope{kind: envCancel})
	return nil
}

// GetArtifact returns the session's final artifact. An artifact exists
// once the session completes, and also when fact-checking failed after
// synthesis completed, in which case FactCheckIncomplete is set. All
// other outcomes return ErrArtifactUnavailable.
func (c *Coordinator) GetArtifact(h Handle) (*artifact.Artifact, error) {
	const op = "Coordinator.GetArtifact"

	s, err := c.session(op, h)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.artifact == nil {
		return nil, &Error{
			Op:   op,
			Kind: KindInternal,
			Err:  ErrArtifactUnavailable,
			Context: map[string]any{
				"session_id": h.SessionID,
				"state":      s.state.String(),
			},
		}
	}
	return s.artifact, nil
}

// SessionInfo returns a snapshot of the session's state.
func (c *Coordinator) SessionInfo(h Handle) (*Info, error) {
	const op = "Coordinator.SessionInfo"

	s, err := c.session(op, h)
	if err != nil {
		return nil, err
	}
	return s.snapshot(), nil
}

// Done returns a channel closed when the session reaches a terminal state.
// It is the idiomatic way to wait for a session without polling.
func (c *Coordinator) Done(h Handle) (<-chan struct{}, error) {
	const op = "Coordinator.Done"

	s, err := c.session(op, h)
	if err != nil {
		return nil, err
	}
	return s.loopClosed, nil
}

// Shutdown cancels every running session and waits for them to finish or
// for ctx to expire. The coordinator accepts no new sessions afterwards.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	sessions := make([]*session, 0, len(c.sessions))
	for _, s := range c.sessions {
		sessions = append(sessions, s)
	}
	c.mu.Unlock()

	for _, s := range sessions {
		s.post(envelope{kind: envCancel})
	}
	for _, s := range sessions {
		select {
		case <-s.loopClosed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	c.logger.Info("coordinator shut down", slog.Int("sessions", len(sessions)))
	return nil
}

// session looks up a session by handle.
func (c *Coordinator) session(op string, h Handle) (*session, error) {
	c.mu.RLock()
	s, ok := c.sessions[h.SessionID]
	c.mu.RUnlock()
	if !ok {
		return nil, NewNotFoundError(op, ErrSessionNotFound).
			WithContext(map[string]any{"session_id": h.SessionID})
	}
	return s, nil
}
