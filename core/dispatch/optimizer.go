package dispatch

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/kilianp07/prosumer/core/logger"
	"github.com/kilianp07/prosumer/core/milp"
	"github.com/kilianp07/prosumer/core/model"
)

// WindowInput is everything needed to solve one window in isolation.
type WindowInput struct {
	Window model.Window
	// Steps holds the rows of the window, in order.
	Steps  model.TimeSeries
	Params model.AgentParameters
	// Carried is the capacity handed over by the previous window. It is
	// ignored for the window holding the first step of the horizon.
	Carried float64
	Horizon model.Horizon
}

// stepVars holds the problem indices of the decision variables of a step.
type stepVars struct {
	buy, sell, cap, dis, char int
	b, s, d, c                int
}

// WindowProblem is a built window MILP together with its variable layout.
type WindowProblem struct {
	*milp.Problem
	steps []stepVars
}

// BuildWindowProblem formulates the dispatch MILP of one window. It is a
// pure function of its input.
func BuildWindowProblem(in WindowInput) (*WindowProblem, error) {
	if in.Window.Len() <= 0 {
		return nil, fmt.Errorf("window %s: empty", in.Window)
	}
	if len(in.Steps) != in.Window.Len() {
		return nil, fmt.Errorf("window %s: got %d steps", in.Window, len(in.Steps))
	}
	if math.IsNaN(in.Carried) || math.IsInf(in.Carried, 0) {
		return nil, fmt.Errorf("window %s: carried capacity %v is not finite", in.Window, in.Carried)
	}
	p := in.Params
	wp := &WindowProblem{
		Problem: milp.NewProblem(fmt.Sprintf("window_%d_%d", in.Window.Start, in.Window.End)),
		steps:   make([]stepVars, len(in.Steps)),
	}
	inf := math.Inf(1)
	for i, st := range in.Steps {
		t := st.T
		v := stepVars{
			buy:  wp.AddVar(fmt.Sprintf("buy_%d", t), 0, p.MaxBuy, false),
			sell: wp.AddVar(fmt.Sprintf("sell_%d", t), 0, p.MaxSell, false),
			cap:  wp.AddVar(fmt.Sprintf("cap_%d", t), p.ThresDown, p.ThresUp, false),
			dis:  wp.AddVar(fmt.Sprintf("dis_%d", t), 0, inf, false),
			char: wp.AddVar(fmt.Sprintf("char_%d", t), 0, inf, false),
			b:    wp.AddBinary(fmt.Sprintf("b_stat_%d", t)),
			s:    wp.AddBinary(fmt.Sprintf("s_stat_%d", t)),
			d:    wp.AddBinary(fmt.Sprintf("d_stat_%d", t)),
			c:    wp.AddBinary(fmt.Sprintf("c_stat_%d", t)),
		}
		wp.steps[i] = v

		wp.SetCost(v.buy, st.MP)
		wp.SetCost(v.sell, -st.FP)

		wp.Add(fmt.Sprintf("mode_%d", t), milp.LessEq, 1, milp.T(v.d, 1), milp.T(v.c, 1))

		wp.Add(fmt.Sprintf("dis_min_%d", t), milp.GreaterEq, 0, milp.T(v.dis, 1), milp.T(v.d, -p.MinDis))
		wp.Add(fmt.Sprintf("dis_max_%d", t), milp.LessEq, 0, milp.T(v.dis, 1), milp.T(v.d, -p.MaxDis))
		wp.Add(fmt.Sprintf("cha_min_%d", t), milp.GreaterEq, 0, milp.T(v.char, 1), milp.T(v.c, -p.MinCha))
		wp.Add(fmt.Sprintf("cha_max_%d", t), milp.LessEq, 0, milp.T(v.char, 1), milp.T(v.c, -p.MaxCha))

		wp.Add(fmt.Sprintf("cap_low_%d", t), milp.GreaterEq, p.ThresDown, milp.T(v.cap, 1))
		wp.Add(fmt.Sprintf("cap_high_%d", t), milp.LessEq, p.ThresUp, milp.T(v.cap, 1))

		switch {
		case t == in.Horizon.First:
			wp.Add(fmt.Sprintf("init_cap_%d", t), milp.Equal, p.InitSOC, milp.T(v.cap, 1))
			wp.Add(fmt.Sprintf("init_dis_%d", t), milp.Equal, 0, milp.T(v.dis, 1))
			wp.Add(fmt.Sprintf("init_char_%d", t), milp.Equal, 0, milp.T(v.char, 1))
		case i == 0:
			wp.Add(fmt.Sprintf("carry_cap_%d", t), milp.Equal, in.Carried, milp.T(v.cap, 1))
			wp.Add(fmt.Sprintf("carry_dis_%d", t), milp.Equal, 0, milp.T(v.dis, 1))
			wp.Add(fmt.Sprintf("carry_char_%d", t), milp.Equal, 0, milp.T(v.char, 1))
		default:
			prev := wp.steps[i-1]
			wp.Add(fmt.Sprintf("soc_%d", t), milp.Equal, 0,
				milp.T(v.cap, 1), milp.T(prev.cap, -1), milp.T(v.dis, 1), milp.T(v.char, -1))
		}
		if t == in.Horizon.Last {
			wp.Add(fmt.Sprintf("end_cap_%d", t), milp.Equal, p.EndSOC, milp.T(v.cap, 1))
		}

		// buy + pv + dis = sell + dem + char
		wp.Add(fmt.Sprintf("balance_%d", t), milp.Equal, st.Dem-st.PV,
			milp.T(v.buy, 1), milp.T(v.dis, 1), milp.T(v.sell, -1), milp.T(v.char, -1))

		wp.Add(fmt.Sprintf("buy_max_%d", t), milp.LessEq, 0, milp.T(v.buy, 1), milp.T(v.b, -p.MaxBuy))
		wp.Add(fmt.Sprintf("sell_max_%d", t), milp.LessEq, 0, milp.T(v.sell, 1), milp.T(v.s, -p.MaxSell))
		wp.Add(fmt.Sprintf("market_%d", t), milp.LessEq, 1, milp.T(v.b, 1), milp.T(v.s, 1))
	}
	if err := wp.Validate(); err != nil {
		return nil, fmt.Errorf("window %s: %w", in.Window, err)
	}
	return wp, nil
}

// extract reads the step values out of a solver assignment.
func (wp *WindowProblem) extract(steps model.TimeSeries, x []float64) []model.StepSolution {
	if x == nil {
		return nil
	}
	out := make([]model.StepSolution, len(wp.steps))
	for i, v := range wp.steps {
		out[i] = model.StepSolution{
			T:     steps[i].T,
			Buy:   x[v.buy],
			Sell:  x[v.sell],
			Cap:   x[v.cap],
			Dis:   x[v.dis],
			Char:  x[v.char],
			BStat: x[v.b],
			SStat: x[v.s],
			DStat: x[v.d],
			CStat: x[v.c],
		}
	}
	return out
}

// Optimizer solves window problems with an injected MILP solver.
type Optimizer struct {
	solver  milp.Solver
	timeout time.Duration
	log     logger.Logger
}

// NewOptimizer returns an Optimizer. A zero timeout leaves window solves
// bounded only by the caller's context.
func NewOptimizer(s milp.Solver, timeout time.Duration, log logger.Logger) *Optimizer {
	if s == nil {
		s = milp.BranchAndBound{}
	}
	return &Optimizer{solver: s, timeout: timeout, log: log}
}

// SolveWindow builds and solves the window problem. Non-optimal outcomes
// are reported through the solution status. An error is returned when the
// input is invalid, when the solver cannot be invoked (wrapping
// ErrSolverUnavailable) or when ctx is done.
func (o *Optimizer) SolveWindow(ctx context.Context, in WindowInput) (model.WindowSolution, error) {
	wp, err := BuildWindowProblem(in)
	if err != nil {
		return model.WindowSolution{}, err
	}
	sctx := ctx
	if o.timeout > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	start := time.Now()
	res, err := o.solver.Solve(sctx, wp.Problem)
	elapsed := time.Since(start)
	if err != nil {
		return model.WindowSolution{}, fmt.Errorf("window %s: %w: %w", in.Window, model.ErrSolverUnavailable, err)
	}
	if err := ctx.Err(); err != nil {
		return model.WindowSolution{}, err
	}
	sol := model.WindowSolution{
		Window:    in.Window,
		Status:    statusLabel(res.Status),
		Objective: res.Objective,
		Steps:     wp.extract(in.Steps, res.X),
		Nodes:     res.Nodes,
		Duration:  elapsed,
	}
	if o.log != nil && sol.Status == model.StatusNotSolved {
		o.log.Warnf("window %s stopped after %d nodes in %s", in.Window, res.Nodes, elapsed)
	}
	return sol, nil
}

func statusLabel(s milp.Status) model.Status {
	switch s {
	case milp.StatusOptimal:
		return model.StatusOptimal
	case milp.StatusInfeasible:
		return model.StatusInfeasible
	case milp.StatusUnbounded:
		return model.StatusUnbounded
	case milp.StatusUndefined:
		return model.StatusUndefined
	default:
		return model.StatusNotSolved
	}
}
