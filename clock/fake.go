package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake is a Clock whose time only moves when Advance is called. Timers fire
// deterministically, in deadline order, as virtual time passes them.
//
// Fake is safe for concurrent use. Tests that arm timers from other
// goroutines should call BlockUntil before Advance so the timers exist
// before time moves.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
	wakers []chan struct{}
}

// NewFake returns a fake clock pinned at start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now returns the current virtual time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// NewTimer creates a timer that fires when virtual time passes its deadline.
func (f *Fake) NewTimer(d time.Duration) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()

	t := &fakeTimer{
		clk:      f,
		ch:       make(chan time.Time, 1),
		deadline: f.now.Add(d),
		active:   true,
	}
	f.timers = append(f.timers, t)
	f.notifyWakersLocked()

	if d <= 0 {
		t.fireLocked(f.now)
	}
	return t
}

// After returns a channel that fires when virtual time passes d from now.
func (f *Fake) After(d time.Duration) <-chan time.Time {
	return f.NewTimer(d).C()
}

// Advance moves virtual time forward by d, firing due timers in deadline
// order. Goroutines reacting to a fired timer may arm new timers after
// Advance returns; callers that depend on those should BlockUntil and
// Advance again.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	target := f.now.Add(d)
	for {
		next := f.nextDeadlineLocked(target)
		if next == nil {
			break
		}
		f.now = next.deadline
		next.fireLocked(f.now)
	}
	f.now = target
}

// BlockUntil blocks until at least n timers are armed and not yet fired.
func (f *Fake) BlockUntil(n int) {
	for {
		f.mu.Lock()
		if f.activeCountLocked() >= n {
			f.mu.Unlock()
			return
		}
		waker := make(chan struct{}, 1)
		f.wakers = append(f.wakers, waker)
		f.mu.Unlock()

		<-waker
	}
}

func (f *Fake) activeCountLocked() int {
	count := 0
	for _, t := range f.timers {
		if t.active {
			count++
		}
	}
	return count
}

func (f *Fake) notifyWakersLocked() {
	for _, w := range f.wakers {
		select {
		case w <- struct{}{}:
		default:
		}
	}
	f.wakers = nil
}

func (f *Fake) nextDeadlineLocked(limit time.Time) *fakeTimer {
	var due []*fakeTimer
	for _, t := range f.timers {
		if t.active && !t.deadline.After(limit) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool { return due[i].deadline.Before(due[j].deadline) })
	return due[0]
}

type fakeTimer struct {
	clk      *Fake
	ch       chan time.Time
	deadline time.Time
	active   bool
}

func (t *fakeTimer) C() <-chan time.Time {
	return t.ch
}

func (t *fakeTimer) Stop() bool {
	t.clk.mu.Lock()
	defer t.clk.mu.Unlock()

	wasActive := t.active
	t.active = false
	return wasActive
}

func (t *fakeTimer) Reset(d time.Duration) bool {
	t.clk.mu.Lock()
	defer t.clk.mu.Unlock()

	wasActive := t.active
	t.deadline = t.clk.now.Add(d)
	t.active = true
	t.clk.notifyWakersLocked()
	if d <= 0 {
		t.fireLocked(t.clk.now)
	}
	return wasActive
}

// fireLocked delivers the tick and deactivates the timer. The channel is
// buffered so delivery never blocks the clock.
func (t *fakeTimer) fireLocked(now time.Time) {
	t.active = false
	select {
	case t.ch <- now:
	default:
	}
}
