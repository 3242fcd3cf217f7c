package milp

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/kilianp07/prosumer/core/factory"
)

func factoryConfig(typ string, conf map[string]any) factory.ModuleConfig {
	return factory.ModuleConfig{Type: typ, Conf: conf}
}

func TestBranchAndBound_LinearOnly(t *testing.T) {
	p := NewProblem("lp")
	x := p.AddVar("x", 0, 3, false)
	y := p.AddVar("y", 0, math.Inf(1), false)
	p.SetCost(x, -1)
	p.SetCost(y, -2)
	p.Add("cap", LessEq, 4, T(x, 1), T(y, 1))

	res, err := BranchAndBound{}.Solve(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, res.Status)
	assert.InDelta(t, -8, res.Objective, 1e-6)
	assert.InDelta(t, 4, res.X[y], 1e-6)
	assert.LessOrEqual(t, p.MaxViolation(res.X), 1e-6)
}

func TestBranchAndBound_IntegerRounding(t *testing.T) {
	p := NewProblem("int")
	x := p.AddVar("x", 0, 5, true)
	y := p.AddVar("y", 0, 5, true)
	p.SetCost(x, -1)
	p.SetCost(y, -1)
	p.Add("half", LessEq, 3, T(x, 2), T(y, 2))

	res, err := BranchAndBound{}.Solve(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, res.Status)
	assert.InDelta(t, -1, res.Objective, 1e-6)
	for _, v := range res.X {
		assert.Equal(t, math.Round(v), v)
	}
	assert.Greater(t, res.Nodes, 1)

	relaxed, err := Relaxation{}.Solve(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, StatusNotSolved, relaxed.Status, "fractional root is not a MILP optimum")
	assert.InDelta(t, -1.5, relaxed.Objective, 1e-6)
	assert.NotNil(t, relaxed.X)
}

func TestRelaxation_IntegralRoot(t *testing.T) {
	p := NewProblem("integral")
	x := p.AddVar("x", 0, 4, true)
	p.SetCost(x, -1)
	p.Add("cap", LessEq, 3, T(x, 1))

	res, err := Relaxation{}.Solve(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, StatusOptimal, res.Status)
	assert.InDelta(t, -3, res.Objective, 1e-6)
}

func TestBranchAndBound_BinaryIndicator(t *testing.T) {
	// Serving a demand of 3 from either source needs the matching switch.
	p := NewProblem("indicator")
	a := p.AddVar("a", 0, 10, false)
	b := p.AddVar("b", 0, 10, false)
	sa := p.AddBinary("sa")
	sb := p.AddBinary("sb")
	p.SetCost(a, 1)
	p.SetCost(b, 2)
	p.Add("demand", Equal, 3, T(a, 1), T(b, 1))
	p.Add("a_on", LessEq, 0, T(a, 1), T(sa, -10))
	p.Add("b_on", LessEq, 0, T(b, 1), T(sb, -10))
	p.Add("one", LessEq, 1, T(sa, 1), T(sb, 1))

	res, err := BranchAndBound{}.Solve(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, res.Status)
	assert.InDelta(t, 3, res.Objective, 1e-6)
	assert.InDelta(t, 1, res.X[sa], 1e-9)
	assert.InDelta(t, 0, res.X[sb], 1e-9)
}

func TestBranchAndBound_Infeasible(t *testing.T) {
	t.Run("bounds", func(t *testing.T) {
		p := NewProblem("bounds")
		x := p.AddVar("x", 0, 1, false)
		p.Add("too_high", GreaterEq, 2, T(x, 1))
		res, err := BranchAndBound{}.Solve(context.Background(), p)
		require.NoError(t, err)
		assert.Equal(t, StatusInfeasible, res.Status)
		assert.Nil(t, res.X)
	})
	t.Run("rows", func(t *testing.T) {
		p := NewProblem("rows")
		x := p.AddVar("x", 0, 10, false)
		y := p.AddVar("y", 0, 10, false)
		p.Add("low", GreaterEq, 5, T(x, 1), T(y, 1))
		p.Add("high", LessEq, 3, T(x, 1), T(y, 1))
		res, err := BranchAndBound{}.Solve(context.Background(), p)
		require.NoError(t, err)
		assert.Equal(t, StatusInfeasible, res.Status)
	})
	t.Run("inconsistent equalities", func(t *testing.T) {
		p := NewProblem("eq")
		x := p.AddVar("x", 0, 10, false)
		y := p.AddVar("y", 0, 10, false)
		p.Add("e1", Equal, 2, T(x, 1), T(y, 1))
		p.Add("e2", Equal, 5, T(x, 2), T(y, 2))
		res, err := BranchAndBound{}.Solve(context.Background(), p)
		require.NoError(t, err)
		assert.Equal(t, StatusInfeasible, res.Status)
	})
}

func TestBranchAndBound_DependentEqualities(t *testing.T) {
	p := NewProblem("dep")
	x := p.AddVar("x", 0, 10, false)
	y := p.AddVar("y", 0, 10, false)
	p.SetCost(x, 1)
	p.Add("e1", Equal, 2, T(x, 1), T(y, 1))
	p.Add("e2", Equal, 4, T(x, 2), T(y, 2))
	res, err := BranchAndBound{}.Solve(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, res.Status)
	assert.InDelta(t, 0, res.X[x], 1e-6)
	assert.InDelta(t, 2, res.X[y], 1e-6)
}

func TestBranchAndBound_FixedByEquality(t *testing.T) {
	p := NewProblem("fixed")
	x := p.AddVar("x", 0, 10, false)
	y := p.AddVar("y", 0, 10, false)
	p.SetCost(y, 1)
	p.Add("fix", Equal, 4, T(x, 1))
	p.Add("again", Equal, 4, T(x, 1))
	p.Add("link", GreaterEq, 6, T(x, 1), T(y, 1))
	res, err := BranchAndBound{}.Solve(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, res.Status)
	assert.Equal(t, 4.0, res.X[x])
	assert.InDelta(t, 2, res.X[y], 1e-6)
}

func TestBranchAndBound_Unbounded(t *testing.T) {
	p := NewProblem("unbounded")
	x := p.AddVar("x", 0, math.Inf(1), false)
	p.SetCost(x, -1)
	res, err := BranchAndBound{}.Solve(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, StatusUnbounded, res.Status)
}

func TestBranchAndBound_Stops(t *testing.T) {
	build := func() *Problem {
		p := NewProblem("stop")
		x := p.AddVar("x", 0, 5, true)
		y := p.AddVar("y", 0, 5, true)
		p.SetCost(x, -1)
		p.SetCost(y, -1)
		p.Add("half", LessEq, 3, T(x, 2), T(y, 2))
		return p
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := BranchAndBound{}.Solve(ctx, build())
	require.NoError(t, err)
	assert.Equal(t, StatusNotSolved, res.Status)
	assert.Nil(t, res.X)

	res, err = BranchAndBound{Options: Options{MaxNodes: 1}}.Solve(context.Background(), build())
	require.NoError(t, err)
	assert.Equal(t, StatusNotSolved, res.Status)
	assert.Equal(t, 1, res.Nodes)
}

func TestBranchAndBound_Deterministic(t *testing.T) {
	build := func() *Problem {
		p := NewProblem("det")
		vars := make([]int, 6)
		for i := range vars {
			vars[i] = p.AddVar("v", 0, 1, true)
			p.SetCost(vars[i], -float64(i%3+1))
		}
		terms := make([]Term, len(vars))
		for i, v := range vars {
			terms[i] = T(v, float64(i+2))
		}
		p.Add("budget", LessEq, 9, terms...)
		return p
	}
	a, err := BranchAndBound{}.Solve(context.Background(), build())
	require.NoError(t, err)
	b, err := BranchAndBound{}.Solve(context.Background(), build())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSimplexFailures(t *testing.T) {
	old := lpSimplex
	defer func() { lpSimplex = old }()
	build := func() *Problem {
		p := NewProblem("fail")
		x := p.AddVar("x", 0, 10, false)
		y := p.AddVar("y", 0, 10, false)
		p.SetCost(x, 1)
		p.Add("sum", GreaterEq, 1, T(x, 1), T(y, 1))
		return p
	}

	lpSimplex = func(_ []float64, _ mat.Matrix, _ []float64, _ float64, _ []int) (float64, []float64, error) {
		return 0, nil, errors.New("singular")
	}
	res, err := BranchAndBound{}.Solve(context.Background(), build())
	require.NoError(t, err)
	assert.Equal(t, StatusUndefined, res.Status)

	lpSimplex = func(_ []float64, _ mat.Matrix, _ []float64, _ float64, _ []int) (float64, []float64, error) {
		panic("bad shape")
	}
	_, err = BranchAndBound{}.Solve(context.Background(), build())
	assert.Error(t, err)
}

func TestBranchAndBound_SkippedNodeIsNotOptimal(t *testing.T) {
	old := lpSimplex
	defer func() { lpSimplex = old }()
	calls := 0
	lpSimplex = func(c []float64, A mat.Matrix, b []float64, tol float64, basis []int) (float64, []float64, error) {
		calls++
		if calls == 2 {
			return 0, nil, errors.New("singular")
		}
		return old(c, A, b, tol, basis)
	}

	p := NewProblem("skip")
	x := p.AddVar("x", 0, 5, true)
	y := p.AddVar("y", 0, 5, true)
	p.SetCost(x, -1)
	p.SetCost(y, -1)
	p.Add("half", LessEq, 3, T(x, 2), T(y, 2))

	res, err := BranchAndBound{}.Solve(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, StatusNotSolved, res.Status)
	require.NotNil(t, res.X)
	assert.InDelta(t, -1, res.Objective, 1e-6)
	assert.LessOrEqual(t, p.MaxViolation(res.X), 1e-6)
}

func TestReducedSolve_UnusedFreeVariable(t *testing.T) {
	// z only has a bound row, so it reaches the LP without any row of its own.
	p := NewProblem("unused")
	x := p.AddVar("x", 0, 4, false)
	w := p.AddVar("w", 0, 4, false)
	z := p.AddVar("z", 0, 2, false)
	p.SetCost(x, 1)
	p.SetCost(w, 2)
	p.SetCost(z, -1)
	p.Add("link", GreaterEq, 2, T(x, 1), T(w, 1))
	p.Add("z_cap", LessEq, 1.5, T(z, 1))

	res, err := BranchAndBound{}.Solve(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, res.Status)
	assert.InDelta(t, 2, res.X[x], 1e-6)
	assert.InDelta(t, 0, res.X[w], 1e-6)
	assert.InDelta(t, 1.5, res.X[z], 1e-6)
	assert.InDelta(t, 0.5, res.Objective, 1e-6)
}

func TestProblemValidate(t *testing.T) {
	p := NewProblem("bad")
	p.AddVar("x", math.Inf(-1), 1, false)
	_, err := BranchAndBound{}.Solve(context.Background(), p)
	assert.Error(t, err)

	p = NewProblem("bad_ref")
	p.AddVar("x", 0, 1, false)
	p.Add("ref", LessEq, 1, T(3, 1))
	assert.Error(t, p.Validate())
}

func TestNewSolver(t *testing.T) {
	s, err := NewSolver(factoryConfig("", nil))
	require.NoError(t, err)
	assert.IsType(t, BranchAndBound{}, s)

	s, err = NewSolver(factoryConfig("relaxation", map[string]any{"tolerance": 1e-7}))
	require.NoError(t, err)
	r, ok := s.(Relaxation)
	require.True(t, ok)
	assert.Equal(t, 1e-7, r.Options.Tolerance)

	_, err = NewSolver(factoryConfig("cbc", nil))
	assert.Error(t, err)
	assert.Contains(t, SolverNames(), "branch_and_bound")
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "Optimal", StatusOptimal.String())
	assert.Equal(t, "Not Solved", StatusNotSolved.String())
	assert.Equal(t, "Undefined", StatusUndefined.String())
}
