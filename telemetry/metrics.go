package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the coordinator's counters.
type Metrics struct {
	sessionsStarted metric.Int64Counter
	sessionsEnded   metric.Int64Counter
	eventsPublished metric.Int64Counter
	agentRetries    metric.Int64Counter
}

// NewMetrics registers the coordinator's instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	sessionsStarted, err := meter.Int64Counter("researchkit.sessions.started",
		metric.WithDescription("Research sessions submitted"))
	if err != nil {
		return nil, fmt.Errorf("failed to create sessions.started counter: %w", err)
	}

	sessionsEnded, err := meter.Int64Counter("researchkit.sessions.ended",
		metric.WithDescription("Research sessions reaching a terminal state, by state"))
	if err != nil {
		return nil, fmt.Errorf("failed to create sessions.ended counter: %w", err)
	}

	eventsPublished, err := meter.Int64Counter("researchkit.events.published",
		metric.WithDescription("Session events published to observers"))
	if err != nil {
		return nil, fmt.Errorf("failed to create events.published counter: %w", err)
	}

	agentRetries, err := meter.Int64Counter("researchkit.agents.retries",
		metric.WithDescription("Automatic agent retries, by agent"))
	if err != nil {
		return nil, fmt.Errorf("failed to create agents.retries counter: %w", err)
	}

	return &Metrics{
		sessionsStarted: sessionsStarted,
		sessionsEnded:   sessionsEnded,
		eventsPublished: eventsPublished,
		agentRetries:    agentRetries,
	}, nil
}

// SessionStarted records one submitted session.
func (m *Metrics) SessionStarted(ctx context.Context) {
	if m == nil {
		return
	}
	m.sessionsStarted.Add(ctx, 1)
}

// SessionEnded records one terminal session with its final state.
func (m *Metrics) SessionEnded(ctx context.Context, state string) {
	if m == nil {
		return
	}
	m.sessionsEnded.Add(ctx, 1, metric.WithAttributes(attribute.String("state", state)))
}

// EventPublished records one published event with its type.
func (m *Metrics) EventPublished(ctx context.Context, eventType string) {
	if m == nil {
		return
	}
	m.eventsPublished.Add(ctx, 1, metric.WithAttributes(attribute.String("type", eventType)))
}

// AgentRetried records one automatic retry for the given agent.
func (m *Metrics) AgentRetried(ctx context.Context, agentID string) {
	if m == nil {
		return
	}
	m.agentRetries.Add(ctx, 1, metric.WithAttributes(attribute.String("agent", agentID)))
}
