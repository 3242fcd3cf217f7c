package metrics

import (
	"errors"

	"github.com/kilianp07/prosumer/core/factory"
	coremetrics "github.com/kilianp07/prosumer/core/metrics"
	"github.com/kilianp07/prosumer/infra/logger"
	"github.com/prometheus/client_golang/prometheus"
)

// builtinSinks are the sinks selectable from metrics.sinks.
var builtinSinks = map[string]factory.Factory[coremetrics.MetricsSink]{
	"nop": func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	},
	// log: {component: "dispatch-runs"}
	"log": func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c struct {
			Component string `json:"component"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Component == "" {
			c.Component = "dispatch-runs"
		}
		return NewLogSink(logger.New(c.Component)), nil
	},
	// prometheus records on the default registry served by /metrics.
	"prometheus": func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c coremetrics.Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewPromSinkWithRegistry(c, prometheus.DefaultRegisterer)
	},
	// influx: {url, token, org, bucket}. An unreachable server degrades to nop.
	"influx": func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c InfluxConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.URL == "" || c.Bucket == "" {
			return nil, errors.New("influx sink needs url and bucket")
		}
		return NewInfluxSinkWithFallback(c), nil
	},
}

func init() {
	for name, f := range builtinSinks {
		_ = coremetrics.RegisterMetricsSink(name, f)
	}
}
