package model

import (
	"fmt"
	"math"
	"time"
)

// Window is a half-open range [Start, End) of positions in a TimeSeries.
type Window struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of steps in the window.
func (w Window) Len() int { return w.End - w.Start }

func (w Window) String() string { return fmt.Sprintf("[%d,%d)", w.Start, w.End) }

// Status is the outcome label reported by the solver for a window.
type Status string

const (
	StatusOptimal    Status = "Optimal"
	StatusInfeasible Status = "Infeasible"
	StatusUnbounded  Status = "Unbounded"
	StatusUndefined  Status = "Undefined"
	// StatusNotSolved marks a window stopped by its deadline or node limit.
	StatusNotSolved Status = "Not Solved"
)

// ParseStatus maps a label back to a Status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusOptimal, StatusInfeasible, StatusUnbounded, StatusUndefined, StatusNotSolved:
		return st, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// StepSolution holds the raw decision values for one step. Sell and Dis are
// positive quantities here; the sign convention is applied on write-back.
type StepSolution struct {
	T     int     `json:"t"`
	Buy   float64 `json:"buy"`
	Sell  float64 `json:"sell"`
	Cap   float64 `json:"cap"`
	Dis   float64 `json:"dis"`
	Char  float64 `json:"char"`
	BStat float64 `json:"b_stat"`
	SStat float64 `json:"s_stat"`
	DStat float64 `json:"d_stat"`
	CStat float64 `json:"c_stat"`
}

// WindowSolution is the result of solving one optimization window.
type WindowSolution struct {
	Window    Window         `json:"window"`
	Status    Status         `json:"status"`
	Objective float64        `json:"objective"`
	Steps     []StepSolution `json:"steps,omitempty"`
	Nodes     int            `json:"nodes"`
	Duration  time.Duration  `json:"duration"`
}

// HasValues reports whether the solver returned an assignment.
func (s WindowSolution) HasValues() bool { return len(s.Steps) > 0 }

// LastCap returns cap at the last step of the window, or NaN if the solver
// returned no assignment.
func (s WindowSolution) LastCap() float64 {
	if !s.HasValues() {
		return math.NaN()
	}
	return s.Steps[len(s.Steps)-1].Cap
}

// AgentState is the running outcome of an agent. It is a value: Fold
// returns a new state and leaves the receiver untouched.
type AgentState struct {
	Cost    float64 `json:"cost"`
	Status  Status  `json:"status"`
	Windows int     `json:"windows"`
}

// Fold accounts for one solved window. Only optimal objectives are added to
// the cost; the status always reflects the last window.
func (s AgentState) Fold(sol WindowSolution) AgentState {
	next := s
	if sol.Status == StatusOptimal {
		next.Cost += sol.Objective
	}
	next.Status = sol.Status
	next.Windows++
	return next
}
