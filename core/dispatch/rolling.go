package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/prosumer/core/events"
	"github.com/kilianp07/prosumer/core/logger"
	"github.com/kilianp07/prosumer/core/model"
	"github.com/kilianp07/prosumer/internal/eventbus"
)

// Agent is one prosumer: its input series and battery parameters.
type Agent struct {
	Name   string
	Series model.TimeSeries
	Params model.AgentParameters
}

// AgentResult is the outcome of a rolling horizon run. Series is a copy of
// the input enriched with the decision values.
type AgentResult struct {
	Agent    string                 `json:"agent"`
	RunID    string                 `json:"run_id"`
	State    model.AgentState       `json:"state"`
	Series   model.TimeSeries       `json:"series"`
	Windows  []model.WindowSolution `json:"windows"`
	Started  time.Time              `json:"started"`
	Finished time.Time              `json:"finished"`
}

// Runner drives the rolling horizon of a single agent.
type Runner struct {
	opt *Optimizer
	// strict turns a non-optimal window into an InfeasibleWindowError.
	strict bool
	bus    eventbus.EventBus
	log    logger.Logger
}

// NewRunner returns a Runner. bus may be nil.
func NewRunner(opt *Optimizer, strict bool, bus eventbus.EventBus, log logger.Logger) (*Runner, error) {
	if opt == nil {
		return nil, errors.New("optimizer is required")
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}
	return &Runner{opt: opt, strict: strict, bus: bus, log: log}, nil
}

// Run solves the windows of the agent one after the other, each seeded by
// the capacity the previous one ended with. On error the returned result
// holds the windows solved so far and the error names the agent.
func (r *Runner) Run(ctx context.Context, a Agent) (AgentResult, error) {
	res := AgentResult{Agent: a.Name, RunID: uuid.NewString(), Started: time.Now()}
	log := r.log.With("agent", a.Name).With("run_id", res.RunID)

	err := r.run(ctx, a, &res, log)
	res.Finished = time.Now()
	if err != nil {
		err = fmt.Errorf("agent %s: %w", a.Name, err)
		log.Errorf("run aborted after %d windows: %v", len(res.Windows), err)
	} else {
		agentCost.WithLabelValues(a.Name).Set(res.State.Cost)
		log.Infof("run finished: cost=%.4f status=%s windows=%d", res.State.Cost, res.State.Status, res.State.Windows)
	}
	r.publish(events.AgentCompleted{
		Agent:    a.Name,
		RunID:    res.RunID,
		State:    res.State,
		Duration: res.Finished.Sub(res.Started),
		Err:      err,
	})
	return res, err
}

func (r *Runner) run(ctx context.Context, a Agent, res *AgentResult, log logger.Logger) error {
	if err := a.Series.Validate(); err != nil {
		return err
	}
	if err := a.Params.Validate(); err != nil {
		return err
	}
	windows, err := Segment(len(a.Series), a.Params.Horizont)
	if err != nil {
		return err
	}
	horizon := a.Series.Horizon()
	res.Series = a.Series.Clone()
	res.Windows = make([]model.WindowSolution, 0, len(windows))
	carried := InitialState(a.Params)

	for _, w := range windows {
		if err := ctx.Err(); err != nil {
			return err
		}
		sol, err := r.opt.SolveWindow(ctx, WindowInput{
			Window:  w,
			Steps:   a.Series.Slice(w),
			Params:  a.Params,
			Carried: carried.Capacity,
			Horizon: horizon,
		})
		if err != nil {
			return err
		}
		res.Windows = append(res.Windows, sol)
		res.State = res.State.Fold(sol)
		if err := ApplySolution(res.Series, w, sol); err != nil {
			return err
		}
		carried = carried.Advance(sol)

		windowSolveSeconds.WithLabelValues(string(sol.Status)).Observe(sol.Duration.Seconds())
		windowsSolved.WithLabelValues(string(sol.Status)).Inc()
		solverNodes.Observe(float64(sol.Nodes))
		if carried.Stale {
			staleCarries.Inc()
			log.Warnf("window %s returned %s without values, carrying capacity %g forward", w, sol.Status, carried.Capacity)
		}
		log.Debugw("window solved", map[string]any{
			"window":    w.String(),
			"status":    string(sol.Status),
			"objective": sol.Objective,
			"nodes":     sol.Nodes,
			"carried":   carried.Capacity,
		})
		r.publish(events.WindowSolved{
			Agent:     a.Name,
			RunID:     res.RunID,
			Window:    w,
			Status:    sol.Status,
			Objective: sol.Objective,
			Nodes:     sol.Nodes,
			Duration:  sol.Duration,
			Stale:     carried.Stale,
		})

		if r.strict && sol.Status != model.StatusOptimal {
			return &model.InfeasibleWindowError{Window: w, Status: sol.Status}
		}
	}
	return nil
}

func (r *Runner) publish(e eventbus.Event) {
	if r.bus != nil {
		r.bus.Publish(e)
	}
}
