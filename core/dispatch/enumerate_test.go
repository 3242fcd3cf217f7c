package dispatch

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/kilianp07/prosumer/core/milp"
	"github.com/kilianp07/prosumer/core/model"
)

// enumerate solves p by fixing every combination of its binary variables and
// running the plain simplex on the remaining LP, without presolve.
func enumerate(t *testing.T, p *milp.Problem) (float64, bool) {
	t.Helper()
	var ints, cont []int
	colOf := make([]int, len(p.Vars))
	for j, v := range p.Vars {
		colOf[j] = -1
		if v.Integer {
			ints = append(ints, j)
			continue
		}
		colOf[j] = len(cont)
		cont = append(cont, j)
	}
	best, found := math.Inf(1), false
	x := make([]float64, len(p.Vars))

combos:
	for mask := 0; mask < 1<<len(ints); mask++ {
		for k, j := range ints {
			x[j] = float64(mask >> k & 1)
		}
		type lpRow struct {
			coefs map[int]float64
			sense milp.Sense
			rhs   float64
		}
		var rows []lpRow
		for _, c := range p.Constraints {
			rw := lpRow{coefs: map[int]float64{}, sense: c.Sense, rhs: c.RHS}
			for _, term := range c.Terms {
				v := p.Vars[term.Var]
				if v.Integer {
					rw.rhs -= term.Coef * x[term.Var]
					continue
				}
				rw.coefs[colOf[term.Var]] += term.Coef
				rw.rhs -= term.Coef * v.Lower
			}
			if len(rw.coefs) == 0 {
				ok := (c.Sense == milp.LessEq && rw.rhs >= -1e-9) ||
					(c.Sense == milp.GreaterEq && rw.rhs <= 1e-9) ||
					(c.Sense == milp.Equal && math.Abs(rw.rhs) <= 1e-9)
				if !ok {
					continue combos
				}
				continue
			}
			rows = append(rows, rw)
		}
		var ub []int
		for _, j := range cont {
			if !math.IsInf(p.Vars[j].Upper, 1) {
				ub = append(ub, j)
			}
		}
		nSlack := len(ub)
		for _, rw := range rows {
			if rw.sense != milp.Equal {
				nSlack++
			}
		}
		m, n := len(rows)+len(ub), len(cont)+nSlack
		A := mat.NewDense(m, n, nil)
		b := make([]float64, m)
		c := make([]float64, n)
		constant := 0.0
		for j, v := range p.Vars {
			if v.Integer {
				constant += p.Objective[j] * x[j]
				continue
			}
			c[colOf[j]] = p.Objective[j]
			constant += p.Objective[j] * v.Lower
		}
		slack := len(cont)
		for i, rw := range rows {
			for col, a := range rw.coefs {
				A.Set(i, col, a)
			}
			switch rw.sense {
			case milp.LessEq:
				A.Set(i, slack, 1)
				slack++
			case milp.GreaterEq:
				A.Set(i, slack, -1)
				slack++
			}
			b[i] = rw.rhs
		}
		for i, j := range ub {
			A.Set(len(rows)+i, colOf[j], 1)
			A.Set(len(rows)+i, slack, 1)
			slack++
			b[len(rows)+i] = p.Vars[j].Upper - p.Vars[j].Lower
		}
		obj, _, err := lp.Simplex(c, A, b, 1e-10, nil)
		if errors.Is(err, lp.ErrInfeasible) {
			continue
		}
		if err != nil {
			t.Fatalf("simplex on mask %b: %v", mask, err)
		}
		found = true
		best = math.Min(best, obj+constant)
	}
	return best, found
}

func checkAgainstEnumeration(t *testing.T, in WindowInput) {
	t.Helper()
	wp, err := BuildWindowProblem(in)
	require.NoError(t, err)
	want, feasible := enumerate(t, wp.Problem)

	res, err := milp.BranchAndBound{}.Solve(context.Background(), wp.Problem)
	require.NoError(t, err)
	if !feasible {
		if res.Status != milp.StatusInfeasible {
			t.Fatalf("%+v: got %s, want Infeasible", in, res.Status)
		}
		return
	}
	if res.Status != milp.StatusOptimal {
		t.Fatalf("%+v: got %s, want Optimal with objective %g", in, res.Status, want)
	}
	if math.Abs(res.Objective-want) > 1e-6 {
		t.Fatalf("%+v: objective %g, want %g", in, res.Objective, want)
	}
	if v := wp.MaxViolation(res.X); v > 1e-6 {
		t.Fatalf("%+v: assignment violates constraints by %g", in, v)
	}
}

func TestBranchAndBound_MatchesEnumeration(t *testing.T) {
	// Charging is forced at the last step while the first step is pinned.
	s := makeSeries([]float64{0, 0}, []float64{1, 0}, repeat(2.5, 2), repeat(0, 2))
	p := baseParams(2)
	p.MinCha, p.InitSOC, p.EndSOC = 1, 1, 2
	checkAgainstEnumeration(t, WindowInput{
		Window: model.Window{Start: 0, End: 2}, Steps: s, Params: p, Horizon: s.Horizon(),
	})

	rng := rand.New(rand.NewSource(7))
	horizons := []model.Horizon{{First: 1, Last: 2}, {First: 0, Last: 2}, {First: 0, Last: 3}}
	for i := 0; i < 60; i++ {
		pv := []float64{float64(rng.Intn(4)), float64(rng.Intn(4))}
		dem := []float64{float64(rng.Intn(4)), float64(rng.Intn(4))}
		mp := []float64{0.5 + float64(rng.Intn(6))/2, 0.5 + float64(rng.Intn(6))/2}
		fp := []float64{mp[0] * float64(rng.Intn(3)) / 4, mp[1] * float64(rng.Intn(3)) / 4}
		s := makeSeries(pv, dem, mp, fp)
		p := model.AgentParameters{
			MinDis: float64(rng.Intn(2)), MaxDis: float64(2 + rng.Intn(3)),
			MinCha: float64(rng.Intn(2)), MaxCha: float64(2 + rng.Intn(3)),
			ThresDown: 0, ThresUp: 4,
			BattEff: 1,
			MaxBuy:  float64(2 + rng.Intn(4)), MaxSell: float64(2 + rng.Intn(4)),
			InitSOC: float64(rng.Intn(5)), EndSOC: float64(rng.Intn(5)),
			Horizont: 2,
		}
		checkAgainstEnumeration(t, WindowInput{
			Window:  model.Window{Start: 0, End: 2},
			Steps:   s,
			Params:  p,
			Carried: float64(rng.Intn(5)),
			Horizon: horizons[i%len(horizons)],
		})
	}
}
