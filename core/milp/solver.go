// Package milp solves small mixed-integer linear programs. LP relaxations are
// solved with the gonum simplex implementation after a presolve pass; integer
// variables are handled by depth-first branch and bound.
package milp

import "context"

// Status is the outcome of a solve.
type Status int

const (
	StatusNotSolved Status = iota
	StatusOptimal
	StatusInfeasible
	StatusUnbounded
	StatusUndefined
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "Optimal"
	case StatusInfeasible:
		return "Infeasible"
	case StatusUnbounded:
		return "Unbounded"
	case StatusUndefined:
		return "Undefined"
	default:
		return "Not Solved"
	}
}

// Result holds the solver outcome. X is nil when no assignment is known.
type Result struct {
	Status    Status
	Objective float64
	X         []float64
	Nodes     int
}

// Solver solves a Problem. The returned error is reserved for invocation
// failures; infeasibility and friends are reported through Result.Status.
type Solver interface {
	Solve(ctx context.Context, p *Problem) (Result, error)
}

// Options tunes the numeric behavior of the solvers.
type Options struct {
	// Tolerance is passed to the simplex method.
	Tolerance float64 `json:"tolerance"`
	// FeasibilityTol bounds presolve checks and bound comparisons.
	FeasibilityTol float64 `json:"feasibility_tolerance"`
	// IntegralityTol is the distance to an integer below which a value counts as integral.
	IntegralityTol float64 `json:"integrality_tolerance"`
	// Gap prunes nodes whose bound is not better than the incumbent by at least Gap.
	Gap float64 `json:"gap"`
	// MaxNodes caps the number of explored nodes. Zero selects the default,
	// a negative value removes the cap.
	MaxNodes int `json:"max_nodes"`
}

// DefaultOptions returns the options used when a field is left at zero.
func DefaultOptions() Options {
	return Options{
		Tolerance:      1e-8,
		FeasibilityTol: 1e-7,
		IntegralityTol: 1e-6,
		Gap:            1e-9,
		MaxNodes:       200000,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Tolerance <= 0 {
		o.Tolerance = d.Tolerance
	}
	if o.FeasibilityTol <= 0 {
		o.FeasibilityTol = d.FeasibilityTol
	}
	if o.IntegralityTol <= 0 {
		o.IntegralityTol = d.IntegralityTol
	}
	if o.Gap <= 0 {
		o.Gap = d.Gap
	}
	switch {
	case o.MaxNodes == 0:
		o.MaxNodes = d.MaxNodes
	case o.MaxNodes < 0:
		o.MaxNodes = 0
	}
	return o
}
