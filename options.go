package researchkit

import (
	"log/slog"

	"github.com/lantern-ai/researchkit/clock"
	"github.com/lantern-ai/researchkit/config"
	"github.com/lantern-ai/researchkit/event"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Option configures the Coordinator.
type Option func(*coordinatorConfig)

// coordinatorConfig holds configuration for the Coordinator instance.
type coordinatorConfig struct {
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
	tracer     trace.Tracer
	meter      metric.Meter
	clk        clock.Clock
	factory    RunnerFactory
	observers  []func(event.Event)
}

// WithConfig sets the coordinator's runtime options directly. The value is
// normalized and validated by New; zero fields take their defaults.
func WithConfig(cfg config.Config) Option {
	return func(c *coordinatorConfig) {
		c.cfg = &cfg
	}
}

// WithConfigFile loads the coordinator's runtime options from a YAML file
// or a directory containing coordinator.yaml. WithConfig takes precedence
// when both are provided.
func WithConfigFile(path string) Option {
	return func(c *coordinatorConfig) {
		c.configPath = path
	}
}

// WithLogger sets a custom logger for the coordinator.
// If not provided, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(c *coordinatorConfig) {
		c.logger = logger
	}
}

// WithTracer sets an OpenTelemetry tracer for session spans.
// If not provided, a no-op tracer is used.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *coordinatorConfig) {
		c.tracer = tracer
	}
}

// WithMeter sets an OpenTelemetry meter for coordinator counters.
// If not provided, no metrics are recorded.
func WithMeter(meter metric.Meter) Option {
	return func(c *coordinatorConfig) {
		c.meter = meter
	}
}

// WithClock sets the clock driving timeouts and timestamps. Tests use a
// fake clock to exercise timeout behavior on virtual time.
func WithClock(clk clock.Clock) Option {
	return func(c *coordinatorConfig) {
		c.clk = clk
	}
}

// WithRunnerFactory sets the factory that builds agent runners. If not
// provided, the built-in simulated research agents are used.
func WithRunnerFactory(factory RunnerFactory) Option {
	return func(c *coordinatorConfig) {
		c.factory = factory
	}
}

// WithObserver registers a callback invoked for every published event,
// after bus delivery. Observers run on the session loop and must return
// promptly; slow or remote sinks should hand the event off internally.
// The bridge package's Observer method is the common use.
func WithObserver(fn func(event.Event)) Option {
	return func(c *coordinatorConfig) {
		if fn != nil {
			c.observers = append(c.observers, fn)
		}
	}
}
