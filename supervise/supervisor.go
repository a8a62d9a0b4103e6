// Package supervise enforces the session's wall-clock budget and per-agent
// liveness. A Supervisor owns two timers driven by an injectable clock: a
// single global budget timer armed when the session begins, and a stall
// watchdog re-armed on every progress report from the agent under watch.
//
// The supervisor only observes time and reports through callbacks; deciding
// what a timeout means (cancel, retry, terminal state) is the coordinator's
// job. The expiry callback fires at most once per supervisor.
package supervise

import (
	"sync"
	"time"

	"github.com/lantern-ai/researchkit/clock"
	"github.com/lantern-ai/researchkit/types"
)

// Supervisor watches one session. It is safe for concurrent use.
type Supervisor struct {
	clk      clock.Clock
	budget   time.Duration
	stall    time.Duration
	onExpiry func()
	onStall  func(types.AgentID)

	mu      sync.Mutex
	started bool
	stopped bool
	expired bool
	done    chan struct{}
	global  clock.Timer
	watch   *stallWatch
}

type stallWatch struct {
	id    types.AgentID
	timer clock.Timer
}

// New creates a supervisor. budget is the global wall-clock limit; stall is
// the per-agent liveness window (zero disables the stall watchdog).
// onExpiry fires at most once when the budget elapses; onStall fires when
// the watched agent reports no progress for a full stall window.
func New(clk clock.Clock, budget, stall time.Duration, onExpiry func(), onStall func(types.AgentID)) *Supervisor {
	return &Supervisor{
		clk:      clk,
		budget:   budget,
		stall:    stall,
		onExpiry: onExpiry,
		onStall:  onStall,
		done:     make(chan struct{}),
	}
}

// Start arms the global budget timer. Calling Start more than once is a
// no-op.
func (s *Supervisor) Start() {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.global = s.clk.NewTimer(s.budget)
	timer := s.global
	s.mu.Unlock()

	go func() {
		select {
		case <-timer.C():
			s.expire()
		case <-s.done:
		}
	}()
}

// Watch arms the stall watchdog for the given agent, replacing any previous
// watch. Each agent attempt gets its own watch.
func (s *Supervisor) Watch(id types.AgentID) {
	if s.stall <= 0 {
		return
	}

	s.mu.Lock()
	if s.stopped || s.expired {
		s.mu.Unlock()
		return
	}
	s.clearWatchLocked()

	w := &stallWatch{
		id:    id,
		timer: s.clk.NewTimer(s.stall),
	}
	s.watch = w
	s.mu.Unlock()

	go func() {
		select {
		case <-w.timer.C():
			s.stalled(w)
		case <-s.done:
		}
	}()
}

// Touch re-arms the stall watchdog after a progress report. Touching an
// agent that is not under watch is a no-op.
func (s *Supervisor) Touch(id types.AgentID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watch == nil || s.watch.id != id || s.stopped || s.expired {
		return
	}
	s.watch.timer.Reset(s.stall)
}

// Unwatch disarms the stall watchdog, typically when the watched agent
// reaches a terminal state.
func (s *Supervisor) Unwatch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearWatchLocked()
}

// Stop disarms all timers. No callbacks fire after Stop returns observable
// effect; Stop is idempotent.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.stopped = true
	if s.global != nil {
		s.global.Stop()
	}
	s.clearWatchLocked()
	close(s.done)
}

func (s *Supervisor) clearWatchLocked() {
	if s.watch != nil {
		s.watch.timer.Stop()
		s.watch = nil
	}
}

func (s *Supervisor) expire() {
	s.mu.Lock()
	if s.stopped || s.expired {
		s.mu.Unlock()
		return
	}
	s.expired = true
	s.clearWatchLocked()
	s.mu.Unlock()

	if s.onExpiry != nil {
		s.onExpiry()
	}
}

func (s *Supervisor) stalled(w *stallWatch) {
	s.mu.Lock()
	if s.stopped || s.expired || s.watch != w {
		s.mu.Unlock()
		return
	}
	// A fired watch is cleared; the coordinator re-watches on retry.
	s.watch = nil
	id := w.id
	s.mu.Unlock()

	if s.onStall != nil {
		s.onStall(id)
	}
}
