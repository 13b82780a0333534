// Package debounce delays a call until input has been quiet for a fixed interval.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs fn once the trigger calls stop for wait. Only the last trigger's
// function runs.
type Debouncer struct {
	wait time.Duration

	mu    sync.Mutex
	timer *time.Timer
	seq   uint64
}

func New(wait time.Duration) *Debouncer {
	return &Debouncer{wait: wait}
}

// Trigger schedules fn, cancelling any call scheduled earlier.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.timer = time.AfterFunc(d.wait, func() {
		d.mu.Lock()
		current := seq == d.seq
		d.mu.Unlock()
		if current {
			fn()
		}
	})
}

// Stop cancels the pending call. It reports whether one was pending.
func (d *Debouncer) Stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	if d.timer == nil {
		return false
	}
	stopped := d.timer.Stop()
	d.timer = nil
	return stopped
}
