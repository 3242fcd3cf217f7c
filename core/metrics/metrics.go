package metrics

import (
	"time"

	"github.com/kilianp07/prosumer/core/model"
)

// AgentRun summarizes one rolling horizon run of an agent.
type AgentRun struct {
	Agent    string
	RunID    string
	Cost     float64
	Status   model.Status
	Windows  int
	Duration time.Duration
	Failed   bool
	Time     time.Time
}

// MetricsSink records agent runs for observability purposes.
type MetricsSink interface {
	RecordAgentRun(run AgentRun) error
}

// WindowEvent describes a single window solve.
type WindowEvent struct {
	Agent     string
	RunID     string
	Window    model.Window
	Status    model.Status
	Objective float64
	Nodes     int
	Duration  time.Duration
	Stale     bool
	Time      time.Time
}

// WindowRecorder is implemented by sinks able to record window solves.
type WindowRecorder interface {
	RecordWindow(ev WindowEvent) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordAgentRun(AgentRun) error  { return nil }
func (NopSink) RecordWindow(WindowEvent) error { return nil }
