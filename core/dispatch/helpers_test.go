package dispatch

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/prosumer/core/milp"
	"github.com/kilianp07/prosumer/core/model"
	"github.com/kilianp07/prosumer/infra/logger"
)

const tol = 1e-6

// solverFunc adapts a function to milp.Solver.
type solverFunc func(ctx context.Context, p *milp.Problem) (milp.Result, error)

func (f solverFunc) Solve(ctx context.Context, p *milp.Problem) (milp.Result, error) {
	return f(ctx, p)
}

// baseParams is the battery of the reference scenario.
func baseParams(horizont int) model.AgentParameters {
	return model.AgentParameters{
		MinDis: 0, MaxDis: 10,
		MinCha: 0, MaxCha: 10,
		ThresDown: 0, ThresUp: 10,
		BattEff: 1,
		MaxBuy:  10, MaxSell: 10,
		InitSOC: 0, EndSOC: 0,
		Horizont: horizont,
	}
}

func makeSeries(pv, dem, mp, fp []float64) model.TimeSeries {
	s := make(model.TimeSeries, len(pv))
	for i := range pv {
		s[i] = model.Step{T: i + 1, PV: pv[i], Dem: dem[i], MP: mp[i], FP: fp[i]}
	}
	return s
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func newTestRunner(t *testing.T, strict bool) *Runner {
	t.Helper()
	r, err := NewRunner(NewOptimizer(milp.BranchAndBound{}, 0, logger.NopLogger{}), strict, nil, logger.NopLogger{})
	if err != nil {
		t.Fatalf("runner: %v", err)
	}
	return r
}

// checkInvariants verifies the per-step properties of a fully solved series.
func checkInvariants(t *testing.T, s model.TimeSeries, p model.AgentParameters) {
	t.Helper()
	for i, st := range s {
		assert.GreaterOrEqual(t, st.Cap, p.ThresDown-tol, "cap low at %d", i)
		assert.LessOrEqual(t, st.Cap, p.ThresUp+tol, "cap high at %d", i)
		assert.LessOrEqual(t, st.DStat+st.CStat, 1+tol, "battery mode at %d", i)
		assert.LessOrEqual(t, st.BStat+st.SStat, 1+tol, "market mode at %d", i)
		assert.LessOrEqual(t, st.Sell, tol, "sell sign at %d", i)
		assert.LessOrEqual(t, st.Dis, tol, "dis sign at %d", i)
		// stored outflows are negated
		lhs := st.Buy + st.PV - st.Dis
		rhs := -st.Sell + st.Dem + st.Char
		assert.InDelta(t, lhs, rhs, tol, "balance at %d", i)
		assert.False(t, math.IsNaN(st.Cap), "cap NaN at %d", i)
	}
	assert.InDelta(t, p.InitSOC, s[0].Cap, tol)
	assert.InDelta(t, p.EndSOC, s[len(s)-1].Cap, tol)
}
