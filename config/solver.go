package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/kilianp07/prosumer/core/factory"
	"github.com/kilianp07/prosumer/core/milp"
)

// SolverConfig selects the MILP solver used for every window.
type SolverConfig struct {
	// Type is a registered solver name, branch_and_bound by default.
	Type    string         `json:"type"`
	Options map[string]any `json:"options"`
	// TimeoutMS bounds a single window solve. Zero disables the limit.
	TimeoutMS int `json:"timeout_ms"`
	// Strict aborts an agent on the first window that is not optimal.
	Strict bool `json:"strict"`
}

// SetDefaults selects branch and bound.
func (c *SolverConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = "branch_and_bound"
	}
}

// Validate checks the solver name and the timeout.
func (c SolverConfig) Validate() error {
	var errs []error
	if c.TimeoutMS < 0 {
		errs = append(errs, fmt.Errorf("solver.timeout_ms must not be negative, got %d", c.TimeoutMS))
	}
	if !slices.Contains(milp.SolverNames(), c.Type) {
		errs = append(errs, fmt.Errorf("solver.type %q is unknown (known: %v)", c.Type, milp.SolverNames()))
	}
	return errors.Join(errs...)
}

// Module returns the registry entry describing the solver.
func (c SolverConfig) Module() factory.ModuleConfig {
	return factory.ModuleConfig{Type: c.Type, Conf: c.Options}
}

// Timeout returns the per window time limit.
func (c SolverConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}
