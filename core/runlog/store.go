// Package runlog persists a summary of every agent run and lets the CLI
// query past runs.
package runlog

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/kilianp07/prosumer/core/dispatch"
	"github.com/kilianp07/prosumer/core/model"
)

// WindowSummary is the stored outcome of one window. Objective is nil when
// the solver reported no objective value.
type WindowSummary struct {
	Window    model.Window `json:"window"`
	Status    model.Status `json:"status"`
	Objective *float64     `json:"objective"`
	Nodes     int          `json:"nodes"`
}

// RunRecord captures one agent run.
type RunRecord struct {
	RunID    string          `json:"run_id"`
	Agent    string          `json:"agent"`
	Started  time.Time       `json:"started"`
	Finished time.Time       `json:"finished"`
	Cost     float64         `json:"cost"`
	Status   model.Status    `json:"status"`
	Windows  []WindowSummary `json:"windows"`
	Error    string          `json:"error,omitempty"`
}

// NewRecord summarizes a run result. err is the error returned by the run,
// if any.
func NewRecord(res dispatch.AgentResult, err error) RunRecord {
	rec := RunRecord{
		RunID:    res.RunID,
		Agent:    res.Agent,
		Started:  res.Started,
		Finished: res.Finished,
		Cost:     res.State.Cost,
		Status:   res.State.Status,
		Windows:  make([]WindowSummary, len(res.Windows)),
	}
	for i, w := range res.Windows {
		rec.Windows[i] = WindowSummary{Window: w.Window, Status: w.Status, Nodes: w.Nodes}
		if obj := w.Objective; !math.IsNaN(obj) && !math.IsInf(obj, 0) {
			rec.Windows[i].Objective = &obj
		}
	}
	if err != nil {
		rec.Error = err.Error()
	}
	return rec
}

// Query defines filters for retrieving records. Zero values match all.
type Query struct {
	Start  time.Time
	End    time.Time
	Agent  string
	Status model.Status
	// Limit keeps the most recent records when positive.
	Limit int
}

func (q Query) matches(r RunRecord) bool {
	if !q.Start.IsZero() && r.Started.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Started.After(q.End) {
		return false
	}
	if q.Agent != "" && r.Agent != q.Agent {
		return false
	}
	if q.Status != "" && r.Status != q.Status {
		return false
	}
	return true
}

// finish orders records by start time and applies the limit.
func (q Query) finish(recs []RunRecord) []RunRecord {
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Started.Before(recs[j].Started) })
	if q.Limit > 0 && len(recs) > q.Limit {
		recs = recs[len(recs)-q.Limit:]
	}
	return recs
}

// Store persists RunRecords and supports querying.
type Store interface {
	Append(ctx context.Context, rec RunRecord) error
	Query(ctx context.Context, q Query) ([]RunRecord, error)
	Close() error
}
