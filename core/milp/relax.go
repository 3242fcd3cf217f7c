package milp

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// relaxation is the LP solution of a node.
type relaxation struct {
	status Status
	x      []float64
	obj    float64
}

// row is a presolved constraint over the free (shifted) variables.
type row struct {
	cols  []int
	coefs []float64
	sense Sense
	rhs   float64
}

// reduced is the LP left after presolve. Free variable j of the original
// problem is x_j = lo_j + y_k with k = col[j]; other variables hold val_j.
type reduced struct {
	lo, hi []float64
	val    []float64
	col    []int
	free   []int
	rows   []row
}

// lpSimplex points to the LP routine. Tests override it to inject failures.
var lpSimplex = lp.Simplex

// solveRelaxation solves the LP relaxation of p restricted to [lo, hi].
func solveRelaxation(p *Problem, lo, hi []float64, opts Options) (rel relaxation, err error) {
	r, st := presolve(p, lo, hi, opts)
	if st != StatusNotSolved {
		return relaxation{status: st}, nil
	}
	y, st, err := r.solve(p, opts)
	if err != nil || st != StatusOptimal {
		return relaxation{status: st}, err
	}
	x := make([]float64, len(p.Vars))
	for j := range x {
		if k := r.col[j]; k >= 0 {
			x[j] = clamp(r.lo[j]+y[k], r.lo[j], r.hi[j])
		} else {
			x[j] = r.val[j]
		}
	}
	return relaxation{status: StatusOptimal, x: x, obj: p.Evaluate(x)}, nil
}

// presolve tightens bounds from single-variable rows, fixes variables with
// collapsed bounds and drops rows that became constant. It returns a
// terminal status when the node is decided without an LP.
func presolve(p *Problem, lo0, hi0 []float64, opts Options) (*reduced, Status) {
	tol := opts.FeasibilityTol
	n := len(p.Vars)
	lo := append([]float64(nil), lo0...)
	hi := append([]float64(nil), hi0...)
	for j, v := range p.Vars {
		if v.Integer {
			lo[j] = math.Ceil(lo[j] - opts.IntegralityTol)
			hi[j] = math.Floor(hi[j] + opts.IntegralityTol)
		}
		if lo[j] > hi[j]+tol {
			return nil, StatusInfeasible
		}
	}
	fixed := func(j int) bool { return hi[j]-lo[j] <= tol }

	active := make([]bool, len(p.Constraints))
	for i := range active {
		active[i] = true
	}
	for pass := 0; pass <= len(p.Constraints); pass++ {
		changed := false
		for i, c := range p.Constraints {
			if !active[i] {
				continue
			}
			cols, coefs, rhs := collect(c, lo, fixed)
			switch len(cols) {
			case 0:
				if !satisfied(0, c.Sense, rhs, tol) {
					return nil, StatusInfeasible
				}
				active[i] = false
			case 1:
				j, a := cols[0], coefs[0]
				b := rhs / a
				switch {
				case c.Sense == Equal:
					lo[j], hi[j] = math.Max(lo[j], b), math.Min(hi[j], b)
				case (c.Sense == LessEq) == (a > 0):
					hi[j] = math.Min(hi[j], b)
				default:
					lo[j] = math.Max(lo[j], b)
				}
				if p.Vars[j].Integer {
					lo[j] = math.Ceil(lo[j] - opts.IntegralityTol)
					hi[j] = math.Floor(hi[j] + opts.IntegralityTol)
				}
				if lo[j] > hi[j]+tol {
					return nil, StatusInfeasible
				}
				if hi[j] < lo[j] {
					hi[j] = lo[j]
				}
				active[i] = false
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	r := &reduced{lo: lo, hi: hi, val: make([]float64, n), col: make([]int, n)}
	for j := range p.Vars {
		r.col[j] = -1
		if fixed(j) {
			r.val[j] = lo[j]
			continue
		}
		r.col[j] = len(r.free)
		r.free = append(r.free, j)
	}
	var eqRows, otherRows []row
	for i, c := range p.Constraints {
		if !active[i] {
			continue
		}
		vars, coefs, rhs := collect(c, lo, fixed)
		if len(vars) == 0 {
			if !satisfied(0, c.Sense, rhs, tol) {
				return nil, StatusInfeasible
			}
			continue
		}
		rw := row{sense: c.Sense, rhs: rhs, coefs: coefs, cols: make([]int, len(vars))}
		for k, j := range vars {
			rw.cols[k] = r.col[j]
			rw.rhs -= coefs[k] * lo[j]
		}
		if c.Sense == Equal {
			eqRows = append(eqRows, rw)
		} else {
			otherRows = append(otherRows, rw)
		}
	}
	eqRows, ok := independentRows(eqRows, len(r.free), tol)
	if !ok {
		return nil, StatusInfeasible
	}
	r.rows = append(eqRows, otherRows...)
	return r, StatusNotSolved
}

// collect merges the terms of c over non-fixed variables and moves the fixed
// part to the right-hand side.
func collect(c Constraint, lo []float64, fixed func(int) bool) ([]int, []float64, float64) {
	rhs := c.RHS
	var vars []int
	var coefs []float64
	for _, t := range c.Terms {
		if fixed(t.Var) {
			rhs -= t.Coef * lo[t.Var]
			continue
		}
		merged := false
		for k, v := range vars {
			if v == t.Var {
				coefs[k] += t.Coef
				merged = true
				break
			}
		}
		if !merged {
			vars = append(vars, t.Var)
			coefs = append(coefs, t.Coef)
		}
	}
	outV, outC := vars[:0], coefs[:0]
	for k, v := range vars {
		if math.Abs(coefs[k]) > 1e-12 {
			outV = append(outV, v)
			outC = append(outC, coefs[k])
		}
	}
	return outV, outC, rhs
}

func satisfied(lhs float64, s Sense, rhs, tol float64) bool {
	switch s {
	case LessEq:
		return lhs <= rhs+tol
	case GreaterEq:
		return lhs >= rhs-tol
	default:
		return math.Abs(lhs-rhs) <= tol
	}
}

// independentRows drops equality rows that are linear combinations of
// earlier ones. A dependent row with an inconsistent right-hand side makes
// the system infeasible.
func independentRows(rows []row, n int, tol float64) ([]row, bool) {
	var basis [][]float64
	var basisRHS []float64
	kept := rows[:0]
	for _, rw := range rows {
		v := make([]float64, n)
		for k, c := range rw.cols {
			v[c] += rw.coefs[k]
		}
		scale := floats.Norm(v, 2)
		rhs := rw.rhs
		for i, q := range basis {
			d := floats.Dot(v, q)
			floats.AddScaled(v, -d, q)
			rhs -= d * basisRHS[i]
		}
		norm := floats.Norm(v, 2)
		if norm <= 1e-9*math.Max(1, scale) {
			if math.Abs(rhs) > tol*math.Max(1, math.Abs(rw.rhs)) {
				return nil, false
			}
			continue
		}
		floats.Scale(1/norm, v)
		basis = append(basis, v)
		basisRHS = append(basisRHS, rhs/norm)
		kept = append(kept, rw)
	}
	return kept, true
}

// solve builds the standard form min c'z, Az = b, z >= 0 and runs the
// simplex. Columns are the shifted free variables used by some row, one
// slack per inequality row and one slack per finite upper bound.
func (r *reduced) solve(p *Problem, opts Options) (y []float64, st Status, err error) {
	nY := len(r.free)
	used := make([]bool, nY)
	for _, rw := range r.rows {
		for _, c := range rw.cols {
			used[c] = true
		}
	}
	y = make([]float64, nY)
	// Variables that appear in no row sit at whichever bound the objective prefers.
	for k, j := range r.free {
		if used[k] {
			continue
		}
		switch c := p.Objective[j]; {
		case c >= 0:
			y[k] = 0
		case math.IsInf(r.hi[j], 1):
			return nil, StatusUnbounded, nil
		default:
			y[k] = r.hi[j] - r.lo[j]
		}
	}

	// Only variables that appear in a row get a column; an all-zero column
	// is rejected by the simplex.
	colOf := make([]int, nY)
	var cols []int
	for k := range r.free {
		colOf[k] = -1
		if used[k] {
			colOf[k] = len(cols)
			cols = append(cols, k)
		}
	}
	var ub []int
	for _, k := range cols {
		if !math.IsInf(r.hi[r.free[k]], 1) {
			ub = append(ub, k)
		}
	}
	nSlack := 0
	for _, rw := range r.rows {
		if rw.sense != Equal {
			nSlack++
		}
	}
	m := len(r.rows) + len(ub)
	if m == 0 {
		return y, StatusOptimal, nil
	}
	nX := len(cols)
	n := nX + nSlack + len(ub)
	A := mat.NewDense(m, n, nil)
	b := make([]float64, m)
	c := make([]float64, n)
	for col, k := range cols {
		c[col] = p.Objective[r.free[k]]
	}
	slack := nX
	for i, rw := range r.rows {
		for t, k := range rw.cols {
			A.Set(i, colOf[k], A.At(i, colOf[k])+rw.coefs[t])
		}
		switch rw.sense {
		case LessEq:
			A.Set(i, slack, 1)
			slack++
		case GreaterEq:
			A.Set(i, slack, -1)
			slack++
		}
		b[i] = rw.rhs
	}
	for i, k := range ub {
		j := r.free[k]
		A.Set(len(r.rows)+i, colOf[k], 1)
		A.Set(len(r.rows)+i, slack, 1)
		slack++
		b[len(r.rows)+i] = r.hi[j] - r.lo[j]
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("simplex: %v", rec)
		}
	}()
	_, z, lpErr := lpSimplex(c, A, b, opts.Tolerance, nil)
	switch {
	case lpErr == nil:
	case errors.Is(lpErr, lp.ErrInfeasible):
		return nil, StatusInfeasible, nil
	case errors.Is(lpErr, lp.ErrUnbounded):
		return nil, StatusUnbounded, nil
	default:
		return nil, StatusUndefined, nil
	}
	for col, k := range cols {
		y[k] = math.Max(0, z[col])
	}
	return y, StatusOptimal, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
