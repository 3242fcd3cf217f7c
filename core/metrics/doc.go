// Package metrics defines the sink interfaces used to observe dispatch runs.
// Sinks like PromSink and InfluxSink (see infra/metrics) record completed
// agent runs and, when they implement WindowRecorder, every solved window.
// NewMetricsSink returns a MultiSink automatically when multiple sinks are
// configured.
package metrics
