package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/lantern-ai/researchkit/types"
)

// ErrAlreadyStarted is returned when Start is called more than once on the
// same runner. Retries use a fresh runner instance.
var ErrAlreadyStarted = errors.New("agent: runner already started")

// UpdateKind tags the variants of a runner update.
type UpdateKind string

const (
	// UpdateProgress carries a progress ratio and optional preview.
	UpdateProgress UpdateKind = "progress"

	// UpdateCompleted is terminal and carries the final typed output.
	UpdateCompleted UpdateKind = "completed"

	// UpdateFailed is terminal and carries the error detail.
	UpdateFailed UpdateKind = "failed"

	// UpdateCancelled is terminal with no payload.
	UpdateCancelled UpdateKind = "cancelled"
)

// IsTerminal returns true for the three terminal update kinds.
func (k UpdateKind) IsTerminal() bool {
	return k == UpdateCompleted || k == UpdateFailed || k == UpdateCancelled
}

// Update is one notification from a running agent. Updates arrive on the
// channel returned by Start in emission order; the terminal update is
// always last and the channel is closed after it.
type Update struct {
	Kind UpdateKind

	// Ratio is the progress ratio in [0,1]. Terminal completed updates
	// carry 1.
	Ratio float64

	// Preview is an optional partial-output preview on progress updates.
	Preview any

	// Output is the final typed output on completed updates.
	Output any

	// Err is the error detail on failed updates.
	Err *RunError
}

// ReportFunc lets a RunFunc publish intermediate progress. The ratio should
// be in [0,1]; out-of-range or regressing values are corrected by the runner.
type ReportFunc func(ratio float64, preview any)

// RunFunc is the unit of work wrapped by a Runner. It should watch ctx and
// return promptly once cancelled; the recommended grace is under a second.
type RunFunc func(ctx context.Context, input any, report ReportFunc) (any, error)

// Runner drives one agent attempt through its lifecycle.
type Runner interface {
	// ID returns the agent this runner executes.
	ID() types.AgentID

	// Start launches the work and returns the update stream. It fails
	// with ErrAlreadyStarted on reuse. If Cancel was called before
	// Start, the stream carries only a cancelled terminal.
	Start(ctx context.Context, input any) (<-chan Update, error)

	// Cancel requests cooperative cancellation. It is idempotent and is
	// a no-op after the runner reached a terminal state.
	Cancel()
}

// Config holds configuration for building a runner.
type Config struct {
	id  types.AgentID
	run RunFunc
}

// NewConfig creates an empty runner configuration.
func NewConfig() *Config {
	return &Config{}
}

// SetID sets the agent identity.
func (c *Config) SetID(id types.AgentID) *Config {
	c.id = id
	return c
}

// SetRunFunc sets the unit of work. Required.
func (c *Config) SetRunFunc(run RunFunc) *Config {
	c.run = run
	return c
}

// Validate checks that the configuration is complete.
func (c *Config) Validate() error {
	if !c.id.IsValid() {
		return fmt.Errorf("agent: invalid agent id %q", c.id)
	}
	if c.run == nil {
		return errors.New("agent: run function is required")
	}
	return nil
}

// New builds a Runner from the configuration.
func New(cfg *Config) (Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &runner{
		id:  cfg.id,
		run: cfg.run,
	}, nil
}

// runner is the concrete Runner implementation. It owns the lifecycle
// invariants: monotonic progress, exactly one terminal update, and event
// suppression after cancellation.
type runner struct {
	id  types.AgentID
	run RunFunc

	mu        sync.Mutex
	started   bool
	cancelled bool
	terminal  bool
	progress  float64
	cancelCtx context.CancelFunc
}

func (r *runner) ID() types.AgentID {
	return r.id
}

func (r *runner) Start(ctx context.Context, input any) (<-chan Update, error) {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return nil, ErrAlreadyStarted
	}
	r.started = true

	updates := make(chan Update, 16)

	if r.cancelled {
		// Cancelled before starting: terminal immediately, no work runs.
		r.terminal = true
		r.mu.Unlock()
		updates <- Update{Kind: UpdateCancelled, Ratio: r.progress}
		close(updates)
		return updates, nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancelCtx = cancel
	r.mu.Unlock()

	go r.execute(runCtx, input, updates)
	return updates, nil
}

func (r *runner) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.terminal || r.cancelled {
		return
	}
	r.cancelled = true
	if r.cancelCtx != nil {
		r.cancelCtx()
	}
}

func (r *runner) execute(ctx context.Context, input any, updates chan<- Update) {
	defer close(updates)

	report := func(ratio float64, preview any) {
		r.mu.Lock()
		if r.terminal || r.cancelled {
			r.mu.Unlock()
			return
		}
		if ratio < r.progress {
			ratio = r.progress
		}
		if ratio > 1 {
			ratio = 1
		}
		r.progress = ratio
		r.mu.Unlock()

		updates <- Update{Kind: UpdateProgress, Ratio: ratio, Preview: preview}
	}

	output, err := r.run(ctx, input, report)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.terminal = true

	switch {
	case r.cancelled || ctx.Err() != nil:
		updates <- Update{Kind: UpdateCancelled, Ratio: r.progress}
	case err != nil:
		updates <- Update{Kind: UpdateFailed, Ratio: r.progress, Err: FromError(err)}
	default:
		r.progress = 1
		updates <- Update{Kind: UpdateCompleted, Ratio: 1, Output: output}
	}
}
