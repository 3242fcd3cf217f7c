package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/prosumer/core/events"
	"github.com/kilianp07/prosumer/core/logger"
	coremetrics "github.com/kilianp07/prosumer/core/metrics"
	"github.com/kilianp07/prosumer/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for
// events. It stops when the context is canceled or the bus is closed; the
// returned channel is closed once the collector has exited.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := record(sink, ev); err != nil && log != nil {
					log.Warnf("metrics sink: %v", err)
				}
			}
		}
	}()
	return done
}

func record(sink coremetrics.MetricsSink, ev eventbus.Event) error {
	switch e := ev.(type) {
	case events.WindowSolved:
		if r, ok := sink.(coremetrics.WindowRecorder); ok {
			return r.RecordWindow(coremetrics.WindowEvent{
				Agent:     e.Agent,
				RunID:     e.RunID,
				Window:    e.Window,
				Status:    e.Status,
				Objective: e.Objective,
				Nodes:     e.Nodes,
				Duration:  e.Duration,
				Stale:     e.Stale,
				Time:      time.Now(),
			})
		}
	case events.AgentCompleted:
		return sink.RecordAgentRun(coremetrics.AgentRun{
			Agent:    e.Agent,
			RunID:    e.RunID,
			Cost:     e.State.Cost,
			Status:   e.State.Status,
			Windows:  e.State.Windows,
			Duration: e.Duration,
			Failed:   e.Err != nil,
			Time:     time.Now(),
		})
	}
	return nil
}
