package metrics

import (
	coremetrics "github.com/kilianp07/prosumer/core/metrics"
	"github.com/kilianp07/prosumer/infra/logger"
)

// LogSink writes agent runs and window solves to a logger. Window solves are
// logged at debug level, stale carries and failed runs as warnings.
type LogSink struct {
	log logger.Logger
}

// NewLogSink returns a LogSink. A nil logger discards everything.
func NewLogSink(log logger.Logger) *LogSink {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &LogSink{log: log}
}

func (s *LogSink) RecordAgentRun(run coremetrics.AgentRun) error {
	if run.Failed {
		s.log.Warnf("agent %s run %s failed after %d windows (status %s)", run.Agent, run.RunID, run.Windows, run.Status)
		return nil
	}
	s.log.Infof("agent %s run %s: cost=%.4f status=%s windows=%d in %s",
		run.Agent, run.RunID, run.Cost, run.Status, run.Windows, run.Duration)
	return nil
}

func (s *LogSink) RecordWindow(ev coremetrics.WindowEvent) error {
	if ev.Stale {
		s.log.Warnf("agent %s window %s: %s without values, capacity carried", ev.Agent, ev.Window, ev.Status)
		return nil
	}
	s.log.Debugw("window", map[string]any{
		"agent":     ev.Agent,
		"run_id":    ev.RunID,
		"window":    ev.Window.String(),
		"status":    string(ev.Status),
		"objective": ev.Objective,
		"nodes":     ev.Nodes,
		"seconds":   ev.Duration.Seconds(),
	})
	return nil
}
