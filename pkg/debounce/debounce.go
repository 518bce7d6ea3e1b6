// Package debounce collapses bursts of values into the last one, emitted
// once the input has been quiet for a fixed interval.
package debounce

import (
	"sync"
	"time"
)

// DefaultInterval is the quiet period used by the search box.
const DefaultInterval = 500 * time.Millisecond

type Debouncer[T any] struct {
	mu       sync.Mutex
	interval time.Duration
	fn       func(T)
	timer    *time.Timer
	gen      uint64
	value    T
	pending  bool
	stopped  bool
}

// New returns a Debouncer that calls fn with the latest pushed value once
// interval has elapsed without another Push. fn runs on its own goroutine.
func New[T any](interval time.Duration, fn func(T)) *Debouncer[T] {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Debouncer[T]{interval: interval, fn: fn}
}

// Push records v and restarts the quiet period. Zero values (an emptied
// search box) are delivered like any other value.
func (d *Debouncer[T]) Push(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.value = v
	d.pending = true
	d.timer = time.AfterFunc(d.interval, func() { d.fire(gen) })
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	// A Push or Stop after this timer was armed supersedes it.
	if gen != d.gen || !d.pending || d.stopped {
		d.mu.Unlock()
		return
	}
	v := d.value
	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	d.fn(v)
}

// Flush emits the pending value immediately, if any.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if !d.pending || d.stopped {
		d.mu.Unlock()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	v := d.value
	d.pending = false
	d.mu.Unlock()

	d.fn(v)
}

// Pending reports whether a value is waiting for the quiet period to end.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Stop drops any pending value. Further pushes are ignored.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	d.pending = false
	d.stopped = true
}
