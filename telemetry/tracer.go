// Package telemetry provides the OpenTelemetry wiring for the coordinator:
// a TracerProvider factory for session/agent spans and a set of counters
// recording orchestration outcomes.
package telemetry

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// ServiceName identifies this module in traces and metrics.
const ServiceName = "researchkit"

// NewTracerProvider creates a TracerProvider that exports through the given
// exporter. A SimpleSpanProcessor is used so spans export as soon as they
// complete; session spans are few and short-lived, so batching buys nothing.
func NewTracerProvider(exporter sdktrace.SpanExporter, logger *slog.Logger) *sdktrace.TracerProvider {
	if logger == nil {
		logger = slog.Default()
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(ServiceName),
		),
	)
	if err != nil {
		logger.Warn("failed to create resource, using default", "error", err)
		res = resource.Default()
	}

	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if exporter != nil {
		opts = append(opts, sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)))
	}
	return sdktrace.NewTracerProvider(opts...)
}

// NewTracer returns a tracer with the standard instrumentation name.
func NewTracer(tp trace.TracerProvider) trace.Tracer {
	return tp.Tracer(ServiceName)
}
