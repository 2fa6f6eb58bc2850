package draft

import (
	"sync"
	"time"
)

// Clock supplies the current time. Injectable so tests control timestamps.
type Clock func() time.Time

// Timer is a scheduled callback that can be stopped before it fires.
type Timer interface {
	Stop()
}

// Scheduler schedules one-shot callbacks. Debounce, autosave, presence, and
// notice expiry are all built on it so tests can drive time deterministically.
type Scheduler interface {
	Schedule(delay time.Duration, fn func()) Timer
}

type wallScheduler struct{}

// NewWallScheduler returns a Scheduler backed by the runtime timer wheel.
func NewWallScheduler() Scheduler {
	return wallScheduler{}
}

func (wallScheduler) Schedule(delay time.Duration, fn func()) Timer {
	return wallTimer{timer: time.AfterFunc(delay, fn)}
}

type wallTimer struct {
	timer *time.Timer
}

func (t wallTimer) Stop() {
	t.timer.Stop()
}

// debouncer collapses bursts of calls into a single deferred invocation. Each
// call cancels the pending timer and schedules a fresh one.
type debouncer struct {
	mu        sync.Mutex
	scheduler Scheduler
	window    time.Duration
	pending   Timer
}

func newDebouncer(scheduler Scheduler, window time.Duration) *debouncer {
	return &debouncer{
		scheduler: scheduler,
		window:    window,
	}
}

func (d *debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		d.pending.Stop()
	}
	d.pending = d.scheduler.Schedule(d.window, fn)
}

func (d *debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
}

// interval fires the callback repeatedly with a fixed period by rescheduling
// itself after every invocation. Stop prevents any further firings.
type interval struct {
	mu        sync.Mutex
	scheduler Scheduler
	period    time.Duration
	fn        func()
	pending   Timer
	stopped   bool
}

func newInterval(scheduler Scheduler, period time.Duration, fn func()) *interval {
	return &interval{
		scheduler: scheduler,
		period:    period,
		fn:        fn,
	}
}

func (i *interval) Start() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.stopped || i.pending != nil {
		return
	}
	i.schedule()
}

// schedule requires i.mu to be held.
func (i *interval) schedule() {
	i.pending = i.scheduler.Schedule(i.period, func() {
		i.mu.Lock()
		if i.stopped {
			i.mu.Unlock()
			return
		}
		i.schedule()
		i.mu.Unlock()
		i.fn()
	})
}

func (i *interval) Stop() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.stopped = true
	if i.pending != nil {
		i.pending.Stop()
		i.pending = nil
	}
}
