// Package cooldown gates "resend code" actions behind a local countdown.
// It is not synchronized with any server-side rate limit.
package cooldown

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/hubauth/internal/client/flow"
)

const DefaultDuration = 60 * time.Second

// Step is the amount one tick takes off the counter.
const Step = time.Second

// State is a snapshot of a timer for rendering.
type State struct {
	Panel     flow.Panel
	Remaining time.Duration
}

// Available reports whether the resend action may be used.
func (s State) Available() bool { return s.Remaining <= 0 }

// CounterVisible reports whether the countdown should be shown.
func (s State) CounterVisible() bool { return s.Remaining > 0 }

// Timer counts down for one panel. The zero value is not usable; use
// NewTimer.
type Timer struct {
	mu        sync.Mutex
	panel     flow.Panel
	duration  time.Duration
	remaining time.Duration
	onChange  func(State)
}

// NewTimer returns an idle timer. onChange, if set, is called after every
// change, outside the timer's lock.
func NewTimer(panel flow.Panel, d time.Duration, onChange func(State)) *Timer {
	if d <= 0 {
		d = DefaultDuration
	}
	return &Timer{panel: panel, duration: d.Truncate(Step), onChange: onChange}
}

func (t *Timer) Panel() flow.Panel { return t.panel }

// Start (re)starts the countdown from the full duration.
func (t *Timer) Start() {
	t.mu.Lock()
	t.remaining = t.duration
	st := t.state()
	t.mu.Unlock()
	t.notify(st)
}

// Tick takes one step off the counter and reports whether it is still
// running. Ticks on an idle timer do nothing.
func (t *Timer) Tick() bool {
	t.mu.Lock()
	if t.remaining <= 0 {
		t.mu.Unlock()
		return false
	}
	t.remaining -= Step
	if t.remaining < 0 {
		t.remaining = 0
	}
	st := t.state()
	t.mu.Unlock()

	t.notify(st)
	return st.Remaining > 0
}

// Reset stops the countdown and makes the action available.
func (t *Timer) Reset() {
	t.mu.Lock()
	changed := t.remaining > 0
	t.remaining = 0
	st := t.state()
	t.mu.Unlock()
	if changed {
		t.notify(st)
	}
}

func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state()
}

func (t *Timer) Available() bool          { return t.State().Available() }
func (t *Timer) CounterVisible() bool     { return t.State().CounterVisible() }
func (t *Timer) Remaining() time.Duration { return t.State().Remaining }

// Run applies a Tick for every value received from ticks until the counter
// reaches zero, ticks is closed, or ctx is done. A tick that arrives after
// ctx is done is dropped, so a replaced run never touches the new countdown.
func (t *Timer) Run(ctx context.Context, ticks <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ticks:
			if !ok || ctx.Err() != nil || !t.Tick() {
				return
			}
		}
	}
}

func (t *Timer) state() State {
	return State{Panel: t.panel, Remaining: t.remaining}
}

func (t *Timer) notify(st State) {
	if t.onChange != nil {
		t.onChange(st)
	}
}
