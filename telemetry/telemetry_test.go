package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNewTracerProvider(t *testing.T) {
	tp := NewTracerProvider(nil, nil)
	require.NotNil(t, tp)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	tracer := NewTracer(tp)
	_, span := tracer.Start(context.Background(), "session")
	span.End()
}

func TestMetrics_Counters(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	m, err := NewMetrics(provider.Meter(ServiceName))
	require.NoError(t, err)

	ctx := context.Background()
	m.SessionStarted(ctx)
	m.SessionEnded(ctx, "completed")
	m.EventPublished(ctx, "agent.progress")
	m.EventPublished(ctx, "agent.completed")
	m.AgentRetried(ctx, "search")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	byName := make(map[string]metricdata.Metrics)
	for _, metrics := range rm.ScopeMetrics[0].Metrics {
		byName[metrics.Name] = metrics
	}

	assert.Contains(t, byName, "researchkit.sessions.started")
	assert.Contains(t, byName, "researchkit.sessions.ended")
	assert.Contains(t, byName, "researchkit.events.published")
	assert.Contains(t, byName, "researchkit.agents.retries")

	events, ok := byName["researchkit.events.published"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range events.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(2), total)
}

func TestMetrics_NilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()

	m.SessionStarted(ctx)
	m.SessionEnded(ctx, "failed")
	m.EventPublished(ctx, "agent.started")
	m.AgentRetried(ctx, "synthesis")
}
