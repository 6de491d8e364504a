// Package debounce coalesces rapid successive inputs into a single
// trailing action after a quiet period. Scheduling again before the
// timer fires replaces the pending action; Stop prevents any further
// firing once the owner is no longer active.
package debounce

import (
	"sync"
	"time"
)

type Debouncer struct {
	mu      sync.Mutex
	quiet   time.Duration
	timer   *time.Timer
	stopped bool
}

func New(quiet time.Duration) *Debouncer {
	return &Debouncer{quiet: quiet}
}

// Schedule queues fn to run after the quiet period, replacing any
// action still pending. fn runs on the timer goroutine.
func (d *Debouncer) Schedule(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, func() {
		d.mu.Lock()
		if d.stopped {
			d.mu.Unlock()
			return
		}
		d.mu.Unlock()
		fn()
	})
}

// Cancel drops the pending action, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Stop cancels the pending action and refuses future schedules.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
