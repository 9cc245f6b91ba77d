package cooldown

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/hubauth/internal/client/flow"
)

// TickSource returns a channel of ticks and a function releasing it.
type TickSource func() (<-chan time.Time, func())

// SecondTicker is the production TickSource.
func SecondTicker() (<-chan time.Time, func()) {
	t := time.NewTicker(Step)
	return t.C, t.Stop
}

// Registry keeps one timer per panel and drives each from its own goroutine.
type Registry struct {
	mu       sync.Mutex
	wg       sync.WaitGroup
	duration time.Duration
	ticks    TickSource
	onChange func(State)
	timers   map[flow.Panel]*Timer
	cancels  map[flow.Panel]context.CancelFunc
}

func NewRegistry(d time.Duration, ticks TickSource, onChange func(State)) *Registry {
	if ticks == nil {
		ticks = SecondTicker
	}
	return &Registry{
		duration: d,
		ticks:    ticks,
		onChange: onChange,
		timers:   make(map[flow.Panel]*Timer),
		cancels:  make(map[flow.Panel]context.CancelFunc),
	}
}

// Timer returns the timer for p, creating an idle one on first use.
func (r *Registry) Timer(p flow.Panel) *Timer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timer(p)
}

func (r *Registry) timer(p flow.Panel) *Timer {
	t, ok := r.timers[p]
	if !ok {
		t = NewTimer(p, r.duration, r.onChange)
		r.timers[p] = t
	}
	return t
}

// Start restarts the countdown for p. A countdown already running for p is
// replaced, never run twice.
func (r *Registry) Start(ctx context.Context, p flow.Panel) {
	r.mu.Lock()
	if cancel, ok := r.cancels[p]; ok {
		cancel()
	}
	t := r.timer(p)
	runCtx, cancel := context.WithCancel(ctx)
	r.cancels[p] = cancel
	t.Start()
	ch, release := r.ticks()
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		defer release()
		t.Run(runCtx, ch)
	}()
}

func (r *Registry) Available(p flow.Panel) bool {
	return r.Timer(p).Available()
}

func (r *Registry) Remaining(p flow.Panel) time.Duration {
	return r.Timer(p).Remaining()
}

// Stop halts every countdown and waits for the goroutines to exit. Timers
// keep their remaining time.
func (r *Registry) Stop() {
	r.mu.Lock()
	for p, cancel := range r.cancels {
		cancel()
		delete(r.cancels, p)
	}
	r.mu.Unlock()
	r.wg.Wait()
}
