package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	coremetrics "github.com/kilianp07/prosumer/core/metrics"
	"github.com/kilianp07/prosumer/core/model"
	"github.com/kilianp07/prosumer/infra/logger"
)

type lineLogger struct {
	logger.NopLogger
	lines *[]string
}

func (l lineLogger) Infof(f string, a ...any) { *l.lines = append(*l.lines, "INF "+fmt.Sprintf(f, a...)) }
func (l lineLogger) Warnf(f string, a ...any) { *l.lines = append(*l.lines, "WRN "+fmt.Sprintf(f, a...)) }
func (l lineLogger) Debugw(msg string, fields map[string]any) {
	*l.lines = append(*l.lines, fmt.Sprintf("DBG %s %s %v", msg, fields["window"], fields["status"]))
}

func TestLogSink(t *testing.T) {
	var lines []string
	s := NewLogSink(lineLogger{lines: &lines})

	_ = s.RecordAgentRun(coremetrics.AgentRun{Agent: "house-1", RunID: "r1", Cost: 4, Status: model.StatusOptimal, Windows: 2, Duration: time.Second})
	_ = s.RecordAgentRun(coremetrics.AgentRun{Agent: "house-2", RunID: "r2", Status: model.StatusInfeasible, Windows: 1, Failed: true})
	_ = s.RecordWindow(coremetrics.WindowEvent{Agent: "house-1", Window: model.Window{Start: 0, End: 2}, Status: model.StatusOptimal})
	_ = s.RecordWindow(coremetrics.WindowEvent{Agent: "house-2", Window: model.Window{Start: 2, End: 4}, Status: model.StatusInfeasible, Stale: true})

	assert.Equal(t, []string{
		"INF agent house-1 run r1: cost=4.0000 status=Optimal windows=2 in 1s",
		"WRN agent house-2 run r2 failed after 1 windows (status Infeasible)",
		"DBG window [0,2) Optimal",
		"WRN agent house-2 window [2,4): Infeasible without values, capacity carried",
	}, lines)

	assert.NoError(t, NewLogSink(nil).RecordAgentRun(coremetrics.AgentRun{}))
}
