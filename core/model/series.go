package model

import (
	"errors"
	"fmt"
	"math"
)

// Step is one row of an agent time series. PV, Dem, MP and FP are inputs;
// the remaining fields are written by the optimizer.
type Step struct {
	T int `json:"t" yaml:"t"`

	PV  float64 `json:"pv" yaml:"pv"`
	Dem float64 `json:"dem" yaml:"dem"`
	MP  float64 `json:"mp" yaml:"mp"` // market (buy) price
	FP  float64 `json:"fp" yaml:"fp"` // feed-in price

	Sell  float64 `json:"sell" yaml:"sell"`
	Buy   float64 `json:"buy" yaml:"buy"`
	Cap   float64 `json:"cap" yaml:"cap"`
	BStat float64 `json:"b_stat" yaml:"b_stat"`
	SStat float64 `json:"s_stat" yaml:"s_stat"`
	CStat float64 `json:"c_stat" yaml:"c_stat"`
	DStat float64 `json:"d_stat" yaml:"d_stat"`
	Char  float64 `json:"char" yaml:"char"`
	Dis   float64 `json:"dis" yaml:"dis"`
}

// TimeSeries is the ordered list of steps owned by one agent.
type TimeSeries []Step

// Horizon holds the first and last timestep labels of a whole series. It is
// computed once per run and shared read-only by every window solve.
type Horizon struct {
	First int
	Last  int
}

// Len returns the number of steps in the horizon.
func (h Horizon) Len() int { return h.Last - h.First + 1 }

// ErrEmptySeries is returned when a series holds no steps.
var ErrEmptySeries = errors.New("time series is empty")

// Validate checks that the labels are contiguous and increasing and that
// every input value is a finite number.
func (s TimeSeries) Validate() error {
	if len(s) == 0 {
		return ErrEmptySeries
	}
	for i, st := range s {
		if i > 0 && st.T != s[i-1].T+1 {
			return fmt.Errorf("time series: step %d has label %d, expected %d", i, st.T, s[i-1].T+1)
		}
		for _, in := range []struct {
			name string
			v    float64
		}{{"pv", st.PV}, {"dem", st.Dem}, {"mp", st.MP}, {"fp", st.FP}} {
			if math.IsNaN(in.v) || math.IsInf(in.v, 0) {
				return &ConfigError{Field: fmt.Sprintf("series.%s[t=%d]", in.name, st.T), Reason: fmt.Sprintf("%v is not a finite number", in.v)}
			}
		}
	}
	return nil
}

// Horizon returns the first and last labels. The series must be valid.
func (s TimeSeries) Horizon() Horizon {
	if len(s) == 0 {
		return Horizon{}
	}
	return Horizon{First: s[0].T, Last: s[len(s)-1].T}
}

// Clone returns a copy that can be mutated independently.
func (s TimeSeries) Clone() TimeSeries {
	cp := make(TimeSeries, len(s))
	copy(cp, s)
	return cp
}

// Slice returns the steps covered by w.
func (s TimeSeries) Slice(w Window) TimeSeries {
	return s[w.Start:w.End]
}
