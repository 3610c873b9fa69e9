package cycling

import (
	"fmt"

	"mercator-hq/datacycle/pkg/cycling/strategy"
	"mercator-hq/datacycle/pkg/cycling/timer"
)

var (
	// ErrNoDataCyclingAtAll reports that a strategy had nothing it could
	// remove in this run. The pass continues with the next strategy.
	ErrNoDataCyclingAtAll = strategy.ErrNoDataCyclingAtAll

	// ErrMaxRuntimeExceeded ends a perf pass early without failing it.
	ErrMaxRuntimeExceeded = timer.ErrMaxRuntimeExceeded
)

// ConfigError reports settings that must not run. It is the only error
// that makes a cycling command fail.
type ConfigError = strategy.ConfigError

// StrategyError wraps a failure of a single strategy.
type StrategyError struct {
	Strategy string
	Cause    error
}

// Error implements the error interface.
func (e *StrategyError) Error() string {
	return fmt.Sprintf("strategy %q: %v", e.Strategy, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StrategyError) Unwrap() error {
	return e.Cause
}
