// Package watch invalidates cached scan results when schedule data changes
// on disk.
package watch

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of change events into one callback. A bulk
// import touches the database file hundreds of times; the callback fires
// once, after the burst settles.
type Debouncer struct {
	window   time.Duration
	callback func()

	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer creates a debouncer with the given settle window.
func NewDebouncer(window time.Duration, callback func()) *Debouncer {
	return &Debouncer{window: window, callback: callback}
}

// Trigger restarts the settle window. The callback fires once the window
// elapses with no further triggers.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.callback)
}

// Stop cancels any pending callback.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
}
