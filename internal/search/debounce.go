package search

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// debouncer runs the most recently triggered function once the delay has
// passed without another trigger. At most one timer is pending.
type debouncer struct {
	mu    sync.Mutex
	clock clock.Clock
	delay time.Duration
	timer *clock.Timer
}

func newDebouncer(c clock.Clock, delay time.Duration) *debouncer {
	return &debouncer{clock: c, delay: delay}
}

func (d *debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.clock.AfterFunc(d.delay, fn)
}

func (d *debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
