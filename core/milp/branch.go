package milp

import (
	"context"
	"math"
)

// BranchAndBound solves a Problem exactly (up to Options.Gap) by exploring
// LP relaxations depth first. The search is deterministic.
type BranchAndBound struct {
	Options Options
}

type node struct {
	lo, hi []float64
}

// Solve implements Solver. When the context is done, the node limit is
// reached or a node LP could not be solved, the best incumbent found so far
// is returned with StatusNotSolved.
func (s BranchAndBound) Solve(ctx context.Context, p *Problem) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}
	opts := s.Options.withDefaults()
	lo, hi := p.bounds()
	stack := []node{{lo: lo, hi: hi}}

	var incumbent []float64
	bestObj := math.Inf(1)
	undefined := false
	nodes := 0
	stopped := func() Result {
		res := Result{Status: StatusNotSolved, Nodes: nodes, Objective: math.NaN()}
		if incumbent != nil {
			res.X = incumbent
			res.Objective = bestObj
		}
		return res
	}

	for len(stack) > 0 {
		if ctx.Err() != nil {
			return stopped(), nil
		}
		if opts.MaxNodes > 0 && nodes >= opts.MaxNodes {
			return stopped(), nil
		}
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++

		rel, err := solveRelaxation(p, nd.lo, nd.hi, opts)
		if err != nil {
			return Result{Nodes: nodes}, err
		}
		switch rel.status {
		case StatusInfeasible:
			continue
		case StatusUnbounded:
			return Result{Status: StatusUnbounded, Nodes: nodes, Objective: math.Inf(-1)}, nil
		case StatusUndefined:
			undefined = true
			continue
		}
		if incumbent != nil && rel.obj >= bestObj-opts.Gap {
			continue
		}

		j := mostFractional(p, rel.x, opts.IntegralityTol)
		if j < 0 {
			incumbent = roundIntegers(p, rel.x)
			bestObj = p.Evaluate(incumbent)
			continue
		}
		v := rel.x[j]
		down := node{lo: nd.lo, hi: append([]float64(nil), nd.hi...)}
		down.hi[j] = math.Floor(v)
		up := node{lo: append([]float64(nil), nd.lo...), hi: nd.hi}
		up.lo[j] = math.Ceil(v)
		// The child popped first is the one closer to v.
		if v-math.Floor(v) < 0.5 {
			stack = append(stack, up, down)
		} else {
			stack = append(stack, down, up)
		}
	}

	switch {
	case incumbent != nil && undefined:
		// A skipped subtree may hold a better assignment.
		return stopped(), nil
	case incumbent != nil:
		return Result{Status: StatusOptimal, Objective: bestObj, X: incumbent, Nodes: nodes}, nil
	case undefined:
		return Result{Status: StatusUndefined, Nodes: nodes, Objective: math.NaN()}, nil
	default:
		return Result{Status: StatusInfeasible, Nodes: nodes, Objective: math.NaN()}, nil
	}
}

// mostFractional returns the integer variable farthest from integrality, or
// -1 when all are integral. Ties go to the lowest index.
func mostFractional(p *Problem, x []float64, tol float64) int {
	best, bestDist := -1, tol
	for j, v := range p.Vars {
		if !v.Integer {
			continue
		}
		f := x[j] - math.Floor(x[j])
		if d := math.Min(f, 1-f); d > bestDist {
			best, bestDist = j, d
		}
	}
	return best
}

func roundIntegers(p *Problem, x []float64) []float64 {
	out := append([]float64(nil), x...)
	for j, v := range p.Vars {
		if v.Integer {
			out[j] = math.Round(out[j])
		}
	}
	return out
}

// Relaxation solves only the root LP and ignores integrality. It is a fast
// approximation; indicator variables may come back fractional. The result is
// Optimal only when the root LP happens to be integral, otherwise the LP
// assignment is returned with StatusNotSolved.
type Relaxation struct {
	Options Options
}

// Solve implements Solver.
func (s Relaxation) Solve(ctx context.Context, p *Problem) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}
	if ctx.Err() != nil {
		return Result{Status: StatusNotSolved, Objective: math.NaN()}, nil
	}
	opts := s.Options.withDefaults()
	lo, hi := p.bounds()
	for j, v := range p.Vars {
		if v.Integer {
			lo[j], hi[j] = math.Ceil(lo[j]), math.Floor(hi[j])
		}
	}
	relaxed := *p
	relaxed.Vars = make([]Var, len(p.Vars))
	for j, v := range p.Vars {
		v.Integer = false
		relaxed.Vars[j] = v
	}
	rel, err := solveRelaxation(&relaxed, lo, hi, opts)
	if err != nil {
		return Result{Nodes: 1}, err
	}
	if rel.status != StatusOptimal {
		return Result{Status: rel.status, Nodes: 1, Objective: math.NaN()}, nil
	}
	st := StatusOptimal
	if mostFractional(p, rel.x, opts.IntegralityTol) >= 0 {
		st = StatusNotSolved
	}
	return Result{Status: st, Objective: rel.obj, X: rel.x, Nodes: 1}, nil
}
