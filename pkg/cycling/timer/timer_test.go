package timer

import (
	"errors"
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// TestMaxRuntime_Check tests the guard before and after the ceiling.
func TestMaxRuntime_Check(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	guard := NewWithClock(DefaultMaxRuntime, clock.Now)

	if err := guard.Check(); err != nil {
		t.Fatalf("Expected unstarted guard to pass, got %v", err)
	}

	guard.Start()
	clock.Advance(DefaultMaxRuntime)
	if err := guard.Check(); err != nil {
		t.Errorf("Expected pass exactly at the ceiling, got %v", err)
	}

	clock.Advance(time.Second)
	if err := guard.Check(); !errors.Is(err, ErrMaxRuntimeExceeded) {
		t.Errorf("Expected ErrMaxRuntimeExceeded, got %v", err)
	}
}

// TestMaxRuntime_Sticky tests that a failed guard keeps failing.
func TestMaxRuntime_Sticky(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	guard := NewWithClock(time.Hour, clock.Now)
	guard.Start()

	clock.Advance(2 * time.Hour)
	if err := guard.Check(); err == nil {
		t.Fatal("Expected guard to fail")
	}

	clock.Advance(-2 * time.Hour)
	for i := 0; i < 3; i++ {
		if err := guard.Check(); !errors.Is(err, ErrMaxRuntimeExceeded) {
			t.Errorf("Check %d: expected sticky failure, got %v", i, err)
		}
	}
}

// TestMaxRuntime_StartOnce tests that repeated Start calls keep the first
// start time.
func TestMaxRuntime_StartOnce(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	guard := NewWithClock(time.Hour, clock.Now)

	if guard.Started() {
		t.Error("Expected guard not started")
	}
	guard.Start()
	clock.Advance(50 * time.Minute)
	guard.Start()

	if got := guard.Elapsed(); got != 50*time.Minute {
		t.Errorf("Expected elapsed 50m, got %s", got)
	}

	clock.Advance(11 * time.Minute)
	if err := guard.Check(); err == nil {
		t.Error("Expected guard to fail after restart attempt")
	}
}

// TestNew_DefaultCeiling tests the fallback ceiling.
func TestNew_DefaultCeiling(t *testing.T) {
	guard := New(0)
	if guard.max != DefaultMaxRuntime {
		t.Errorf("Expected %s, got %s", DefaultMaxRuntime, guard.max)
	}
}
