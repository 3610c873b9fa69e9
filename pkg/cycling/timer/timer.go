// Package timer provides the wall-clock budget shared by one cycling pass.
package timer

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultMaxRuntime is the budget of a single performance cycling pass.
const DefaultMaxRuntime = 23 * time.Hour

// ErrMaxRuntimeExceeded is returned by Check once the budget is spent.
var ErrMaxRuntimeExceeded = errors.New("max runtime exceeded")

// MaxRuntime tracks elapsed time since Start against a fixed ceiling.
//
// Once Check has failed it keeps failing, even if the clock were to move
// backwards. Safe for concurrent use.
type MaxRuntime struct {
	mu       sync.Mutex
	max      time.Duration
	now      func() time.Time
	started  time.Time
	exceeded bool
}

// New creates a guard with the given ceiling. A non-positive ceiling falls
// back to DefaultMaxRuntime.
func New(max time.Duration) *MaxRuntime {
	if max <= 0 {
		max = DefaultMaxRuntime
	}
	return &MaxRuntime{max: max, now: time.Now}
}

// NewWithClock creates a guard reading time from now. Used by tests.
func NewWithClock(max time.Duration, now func() time.Time) *MaxRuntime {
	r := New(max)
	r.now = now
	return r
}

// Start records the start time. Only the first call has an effect.
func (r *MaxRuntime) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started.IsZero() {
		r.started = r.now()
	}
}

// Started reports whether Start has been called.
func (r *MaxRuntime) Started() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.started.IsZero()
}

// Elapsed returns the time since Start, or zero before Start.
func (r *MaxRuntime) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started.IsZero() {
		return 0
	}
	return r.now().Sub(r.started)
}

// Check fails with ErrMaxRuntimeExceeded when more than the ceiling has
// elapsed since Start. A guard that was never started never fails.
func (r *MaxRuntime) Check() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.exceeded {
		return r.errorLocked()
	}
	if r.started.IsZero() {
		return nil
	}
	if r.now().Sub(r.started) > r.max {
		r.exceeded = true
		return r.errorLocked()
	}
	return nil
}

func (r *MaxRuntime) errorLocked() error {
	return fmt.Errorf("%w: budget of %s spent", ErrMaxRuntimeExceeded, r.max)
}
