// Package clock provides an injectable time source so the coordinator and
// timeout supervisor can be driven by virtual time in tests instead of
// sleeping in real time.
package clock

import "time"

// Clock abstracts the parts of package time used by the coordinator.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// NewTimer creates a timer that fires after d.
	NewTimer(d time.Duration) Timer

	// After returns a channel that delivers the current time after d.
	After(d time.Duration) <-chan time.Time
}

// Timer mirrors time.Timer behind an interface so fake clocks can
// substitute their own implementation.
type Timer interface {
	// C returns the channel the timer fires on.
	C() <-chan time.Time

	// Stop prevents the timer from firing. It reports whether the timer
	// was still active.
	Stop() bool

	// Reset re-arms the timer to fire after d. It reports whether the
	// timer was still active.
	Reset(d time.Duration) bool
}

// New returns a Clock backed by the system clock.
func New() Clock {
	return systemClock{}
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) NewTimer(d time.Duration) Timer {
	return &systemTimer{t: time.NewTimer(d)}
}

func (systemClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

type systemTimer struct {
	t *time.Timer
}

func (st *systemTimer) C() <-chan time.Time {
	return st.t.C
}

func (st *systemTimer) Stop() bool {
	return st.t.Stop()
}

func (st *systemTimer) Reset(d time.Duration) bool {
	return st.t.Reset(d)
}
