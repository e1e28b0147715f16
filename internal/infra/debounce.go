package infra

import (
	"sync"
	"time"
)

// Debouncer runs a function once after a quiet period: each Schedule call
// cancels any previously scheduled run and restarts the timer. The mobile
// client debounced search keystrokes this way (~300ms); server side the same
// pattern coalesces cache invalidation across bursts of catalog writes.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Schedule arranges fn to run after the quiet period, replacing any pending
// run. fn executes on a timer goroutine; it must be safe to call from there.
func (d *Debouncer) Schedule(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Cancel drops any pending run.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
