package metrics

import (
	"strconv"

	coremetrics "github.com/kilianp07/prosumer/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records agent runs and window solves in Prometheus metrics.
type PromSink struct {
	runs     *prometheus.CounterVec
	cost     *prometheus.GaugeVec
	duration prometheus.Histogram
	windows  *prometheus.CounterVec
}

// NewPromSink registers run metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "prosumer_agent_runs_total",
		Help: "Completed agent runs by final status",
	}, []string{"status", "failed"})
	cost := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "prosumer_agent_cost",
		Help: "Cost of the last run of each agent",
	}, []string{"agent"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "prosumer_agent_run_seconds",
		Help:    "Wall time of an agent run",
		Buckets: prometheus.DefBuckets,
	})
	windows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "prosumer_windows_total",
		Help: "Solved windows by status and carry state",
	}, []string{"status", "stale"})

	var err error
	if runs, err = registerOrReuse(reg, runs); err != nil {
		return nil, err
	}
	if cost, err = registerOrReuse(reg, cost); err != nil {
		return nil, err
	}
	if duration, err = registerOrReuse(reg, duration); err != nil {
		return nil, err
	}
	if windows, err = registerOrReuse(reg, windows); err != nil {
		return nil, err
	}
	return &PromSink{runs: runs, cost: cost, duration: duration, windows: windows}, nil
}

func registerOrReuse[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordAgentRun updates the run counters and the cost gauge.
func (s *PromSink) RecordAgentRun(run coremetrics.AgentRun) error {
	s.runs.WithLabelValues(string(run.Status), strconv.FormatBool(run.Failed)).Inc()
	s.duration.Observe(run.Duration.Seconds())
	if !run.Failed {
		s.cost.WithLabelValues(run.Agent).Set(run.Cost)
	}
	return nil
}

// RecordWindow counts the window by status.
func (s *PromSink) RecordWindow(ev coremetrics.WindowEvent) error {
	s.windows.WithLabelValues(string(ev.Status), strconv.FormatBool(ev.Stale)).Inc()
	return nil
}
