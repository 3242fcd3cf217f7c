package milp

import (
	"fmt"
	"math"
)

// Sense is the relation of a linear constraint.
type Sense int

const (
	LessEq Sense = iota
	GreaterEq
	Equal
)

func (s Sense) String() string {
	switch s {
	case LessEq:
		return "<="
	case GreaterEq:
		return ">="
	case Equal:
		return "="
	default:
		return "?"
	}
}

// Var is a decision variable. Lower must be finite; Upper may be +Inf.
type Var struct {
	Name    string
	Lower   float64
	Upper   float64
	Integer bool
}

// Term is coefficient * variable.
type Term struct {
	Var  int
	Coef float64
}

// T is shorthand for building a Term.
func T(v int, coef float64) Term { return Term{Var: v, Coef: coef} }

// Constraint is sum(Terms) Sense RHS.
type Constraint struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   float64
}

// Problem is a minimization MILP.
type Problem struct {
	Name        string
	Vars        []Var
	Objective   []float64
	Constraints []Constraint
}

// NewProblem returns an empty problem.
func NewProblem(name string) *Problem {
	return &Problem{Name: name}
}

// AddVar appends a variable and returns its index.
func (p *Problem) AddVar(name string, lower, upper float64, integer bool) int {
	p.Vars = append(p.Vars, Var{Name: name, Lower: lower, Upper: upper, Integer: integer})
	p.Objective = append(p.Objective, 0)
	return len(p.Vars) - 1
}

// AddBinary appends a {0,1} variable.
func (p *Problem) AddBinary(name string) int {
	return p.AddVar(name, 0, 1, true)
}

// SetCost adds c to the objective coefficient of v.
func (p *Problem) SetCost(v int, c float64) {
	p.Objective[v] += c
}

// Add appends a constraint.
func (p *Problem) Add(name string, sense Sense, rhs float64, terms ...Term) {
	p.Constraints = append(p.Constraints, Constraint{Name: name, Terms: terms, Sense: sense, RHS: rhs})
}

// Validate checks indices and numeric sanity.
func (p *Problem) Validate() error {
	if len(p.Objective) != len(p.Vars) {
		return fmt.Errorf("milp %s: objective has %d coefficients for %d variables", p.Name, len(p.Objective), len(p.Vars))
	}
	for i, v := range p.Vars {
		if math.IsInf(v.Lower, 0) || math.IsNaN(v.Lower) {
			return fmt.Errorf("milp %s: variable %s needs a finite lower bound", p.Name, v.Name)
		}
		if math.IsNaN(v.Upper) || math.IsInf(v.Upper, -1) {
			return fmt.Errorf("milp %s: variable %s has invalid upper bound", p.Name, v.Name)
		}
		if math.IsNaN(p.Objective[i]) || math.IsInf(p.Objective[i], 0) {
			return fmt.Errorf("milp %s: objective coefficient of %s is not finite", p.Name, v.Name)
		}
	}
	for _, c := range p.Constraints {
		if math.IsNaN(c.RHS) || math.IsInf(c.RHS, 0) {
			return fmt.Errorf("milp %s: constraint %s has non-finite rhs", p.Name, c.Name)
		}
		for _, t := range c.Terms {
			if t.Var < 0 || t.Var >= len(p.Vars) {
				return fmt.Errorf("milp %s: constraint %s references variable %d", p.Name, c.Name, t.Var)
			}
			if math.IsNaN(t.Coef) || math.IsInf(t.Coef, 0) {
				return fmt.Errorf("milp %s: constraint %s has non-finite coefficient", p.Name, c.Name)
			}
		}
	}
	return nil
}

// Evaluate returns the objective value at x.
func (p *Problem) Evaluate(x []float64) float64 {
	var sum float64
	for i, c := range p.Objective {
		sum += c * x[i]
	}
	return sum
}

// MaxViolation returns the largest bound or constraint violation at x.
func (p *Problem) MaxViolation(x []float64) float64 {
	var worst float64
	for i, v := range p.Vars {
		worst = math.Max(worst, v.Lower-x[i])
		worst = math.Max(worst, x[i]-v.Upper)
	}
	for _, c := range p.Constraints {
		var lhs float64
		for _, t := range c.Terms {
			lhs += t.Coef * x[t.Var]
		}
		switch c.Sense {
		case LessEq:
			worst = math.Max(worst, lhs-c.RHS)
		case GreaterEq:
			worst = math.Max(worst, c.RHS-lhs)
		case Equal:
			worst = math.Max(worst, math.Abs(lhs-c.RHS))
		}
	}
	return worst
}

func (p *Problem) bounds() (lo, hi []float64) {
	lo = make([]float64, len(p.Vars))
	hi = make([]float64, len(p.Vars))
	for i, v := range p.Vars {
		lo[i], hi[i] = v.Lower, v.Upper
	}
	return lo, hi
}
