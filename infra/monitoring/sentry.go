// Package monitoring reports dispatch failures to Sentry.
package monitoring

import (
	"errors"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/kilianp07/prosumer/config"
	coremon "github.com/kilianp07/prosumer/core/monitoring"
	"github.com/kilianp07/prosumer/core/model"
)

// NewSentryMonitor initializes Sentry using the provided configuration and
// returns a Monitor implementation. An empty DSN yields a NopMonitor.
func NewSentryMonitor(cfg config.SentryConfig) (coremon.Monitor, error) {
	if cfg.DSN == "" {
		return coremon.NopMonitor{}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		TracesSampleRate: cfg.TracesSampleRate,
		Release:          cfg.Release,
		ServerName:       cfg.ServerName,
	})
	if err != nil {
		return nil, err
	}
	return &sentryMonitor{flush: time.Duration(cfg.FlushTimeoutMS) * time.Millisecond}, nil
}

type sentryMonitor struct {
	flush time.Duration
}

func (s *sentryMonitor) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	tags = errorTags(err, tags)
	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureException(err)
	})
}

func (s *sentryMonitor) CapturePanic(v any) {
	sentry.CurrentHub().Recover(v)
	sentry.Flush(s.flush)
}

func (s *sentryMonitor) Flush(timeout time.Duration) { sentry.Flush(timeout) }

// errorTags adds the failure class and, for window failures, the window and
// solver status to tags. The input map is not modified.
func errorTags(err error, tags map[string]string) map[string]string {
	out := make(map[string]string, len(tags)+3)
	for k, v := range tags {
		out[k] = v
	}
	var cfgErr *model.ConfigError
	var winErr *model.InfeasibleWindowError
	switch {
	case errors.As(err, &winErr):
		out["failure"] = "window"
		out["window"] = winErr.Window.String()
		out["status"] = string(winErr.Status)
	case errors.As(err, &cfgErr):
		out["failure"] = "config"
		out["field"] = cfgErr.Field
	case errors.Is(err, model.ErrSolverUnavailable):
		out["failure"] = "solver"
	}
	return out
}
