package metrics

import "errors"

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordAgentRun forwards the run to every sink. All sinks are tried and the
// errors are joined.
func (m *MultiSink) RecordAgentRun(run AgentRun) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordAgentRun(run); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordWindow forwards the event to the sinks implementing WindowRecorder.
func (m *MultiSink) RecordWindow(ev WindowEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(WindowRecorder); ok {
			if err := rec.RecordWindow(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close releases the sinks that hold resources.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
