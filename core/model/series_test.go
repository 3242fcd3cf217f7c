package model

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimeSeriesValidate(t *testing.T) {
	if err := (TimeSeries{}).Validate(); !errors.Is(err, ErrEmptySeries) {
		t.Fatalf("expected ErrEmptySeries got %v", err)
	}
	s := TimeSeries{{T: 1}, {T: 2}, {T: 3}}
	if err := s.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	assert.Equal(t, Horizon{First: 1, Last: 3}, s.Horizon())
	assert.Equal(t, 3, s.Horizon().Len())

	s[2].T = 5
	assert.Error(t, s.Validate())

	s = TimeSeries{{T: 1, Dem: 1}, {T: 2, Dem: math.NaN()}}
	var cfgErr *ConfigError
	if !errors.As(s.Validate(), &cfgErr) {
		t.Fatalf("expected ConfigError for NaN demand")
	}
	assert.Equal(t, "series.dem[t=2]", cfgErr.Field)
	s[1].Dem = 1
	s[0].FP = math.Inf(-1)
	assert.Error(t, s.Validate())
}

func TestTimeSeriesCloneAndSlice(t *testing.T) {
	s := TimeSeries{{T: 1}, {T: 2}, {T: 3}}
	cp := s.Clone()
	cp[0].Buy = 4
	assert.Equal(t, 0.0, s[0].Buy)
	w := s.Slice(Window{Start: 1, End: 3})
	assert.Len(t, w, 2)
	assert.Equal(t, 2, w[0].T)
}

func TestAgentStateFold(t *testing.T) {
	var st AgentState
	st = st.Fold(WindowSolution{Status: StatusOptimal, Objective: 2})
	next := st.Fold(WindowSolution{Status: StatusInfeasible, Objective: 100})
	assert.Equal(t, 2.0, st.Cost)
	assert.Equal(t, StatusOptimal, st.Status)
	assert.Equal(t, 2.0, next.Cost)
	assert.Equal(t, StatusInfeasible, next.Status)
	assert.Equal(t, 2, next.Windows)

	next = next.Fold(WindowSolution{Status: StatusOptimal, Objective: -3})
	assert.Equal(t, -1.0, next.Cost)
	assert.Equal(t, StatusOptimal, next.Status)
}

func TestWindowSolutionLastCap(t *testing.T) {
	assert.True(t, math.IsNaN(WindowSolution{}.LastCap()))
	sol := WindowSolution{Steps: []StepSolution{{Cap: 1}, {Cap: 4}}}
	assert.Equal(t, 4.0, sol.LastCap())
	assert.Equal(t, "[2,4)", Window{Start: 2, End: 4}.String())
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("Not Solved")
	assert.NoError(t, err)
	assert.Equal(t, StatusNotSolved, st)
	_, err = ParseStatus("optimal")
	assert.Error(t, err)
}
