package binding

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of trigger events into a single delayed
// invocation. Scheduling cancels any previously scheduled call that has not
// fired yet, so a burst of N schedules within the delay window runs the
// function exactly once, with whatever state the last caller captured.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Schedule runs fn after the quiet period, replacing any pending invocation.
// A zero delay runs fn synchronously.
func (d *Debouncer) Schedule(fn func()) {
	if d.delay <= 0 {
		fn()
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Stop cancels any pending invocation.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
