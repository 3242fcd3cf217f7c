package model

import (
	"errors"
	"fmt"
)

// ConfigError reports an invalid or missing configuration value. It is fatal
// before any window is solved.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// ErrSolverUnavailable indicates the MILP solver could not be invoked. It
// aborts the run of the affected agent.
var ErrSolverUnavailable = errors.New("solver unavailable")

// InfeasibleWindowError is returned in strict mode when a window does not
// reach an optimal solution.
type InfeasibleWindowError struct {
	Window Window
	Status Status
}

func (e *InfeasibleWindowError) Error() string {
	return fmt.Sprintf("window %s: solver status %s", e.Window, e.Status)
}
