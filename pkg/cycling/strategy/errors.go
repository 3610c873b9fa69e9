package strategy

import (
	"errors"
	"fmt"
)

// ErrNoDataCyclingAtAll reports that a strategy has nothing left to target
// in the current run.
var ErrNoDataCyclingAtAll = errors.New("no data cycling at all")

// ConfigError reports a retention setting that is not allowed to run.
type ConfigError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s=%v: %s", e.Field, e.Value, e.Message)
}

func exhausted(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNoDataCyclingAtAll, fmt.Sprintf(format, args...))
}
