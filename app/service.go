package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/prosumer/config"
	"github.com/kilianp07/prosumer/core/dispatch"
	coremetrics "github.com/kilianp07/prosumer/core/metrics"
	"github.com/kilianp07/prosumer/core/milp"
	coremon "github.com/kilianp07/prosumer/core/monitoring"
	"github.com/kilianp07/prosumer/core/runlog"
	"github.com/kilianp07/prosumer/core/source"
	"github.com/kilianp07/prosumer/infra/logger"
	"github.com/kilianp07/prosumer/infra/metrics"
	"github.com/kilianp07/prosumer/infra/monitoring"
	"github.com/kilianp07/prosumer/infra/mqtt"
	infrasource "github.com/kilianp07/prosumer/infra/source"
	"github.com/kilianp07/prosumer/internal/eventbus"
	"github.com/kilianp07/prosumer/pkg/export"
)

// eventBuffer holds the window events of a run until the metrics collector
// catches up.
const eventBuffer = 1024

// Deps are the collaborators of a Service.
type Deps struct {
	Series source.SeriesProvider
	Params source.ParameterProvider
	Solver milp.Solver
	// Store defaults to runlog.NopStore.
	Store runlog.Store
	// Writers receive every successful result.
	Writers source.ResultWriters
	// Sink defaults to coremetrics.NopSink.
	Sink coremetrics.MetricsSink
	Log  logger.Logger
}

// Options tune the rolling horizon runs.
type Options struct {
	Workers int
	Timeout time.Duration
	Strict  bool
}

// Outcome is the result of one agent. Err is set when the agent aborted.
type Outcome struct {
	Result dispatch.AgentResult
	Err    error
}

// Service runs the dispatch of a set of agents. Agents are independent and
// optimized in parallel, each one strictly window after window.
type Service struct {
	deps    Deps
	opts    Options
	closers []func() error
}

// NewService wires a Service from explicit dependencies.
func NewService(opts Options, deps Deps) (*Service, error) {
	if deps.Series == nil || deps.Params == nil {
		return nil, errors.New("series and parameter providers are required")
	}
	if deps.Store == nil {
		deps.Store = runlog.NopStore{}
	}
	if deps.Sink == nil {
		deps.Sink = coremetrics.NopSink{}
	}
	if deps.Log == nil {
		deps.Log = logger.NopLogger{}
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Service{deps: deps, opts: opts}, nil
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	params, err := infrasource.NewConfigParameters(cfg.Agents)
	if err != nil {
		return nil, err
	}
	solver, err := milp.NewSolver(cfg.Solver.Module())
	if err != nil {
		return nil, fmt.Errorf("solver: %w", err)
	}

	var closers []func() error
	closeAll := func() {
		for _, c := range closers {
			_ = c()
		}
	}

	store, err := runlog.NewStore(cfg.Store.Module())
	if err != nil {
		return nil, fmt.Errorf("run store: %w", err)
	}
	closers = append(closers, store.Close)

	sink, err := newSink(cfg.Metrics)
	if err != nil {
		closeAll()
		return nil, err
	}
	if c, ok := sink.(interface{ Close() }); ok {
		closers = append(closers, func() error { c.Close(); return nil })
	}

	files, err := export.NewFileWriter(cfg.Export)
	if err != nil {
		closeAll()
		return nil, err
	}
	writers := source.ResultWriters{files}
	if cfg.MQTT.Enabled {
		pub, err := mqtt.NewSchedulePublisher(cfg.MQTT, logger.New("mqtt"))
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		writers = append(writers, pub)
		closers = append(closers, func() error { pub.Close(); return nil })
	}

	svc, err := NewService(
		Options{Workers: cfg.Workers, Timeout: cfg.Solver.Timeout(), Strict: cfg.Solver.Strict},
		Deps{
			Series:  infrasource.NewCSVSeries(cfg.Data),
			Params:  params,
			Solver:  solver,
			Store:   store,
			Writers: writers,
			Sink:    sink,
			Log:     logg,
		},
	)
	if err != nil {
		closeAll()
		return nil, err
	}
	svc.closers = closers
	return svc, nil
}

// newSink builds the configured sinks, adding the Prometheus sink when the
// endpoint is enabled.
func newSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	sink, err := coremetrics.NewMetricsSink(cfg.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	if !cfg.PrometheusEnabled {
		return sink, nil
	}
	prom, err := metrics.NewPromSink(cfg)
	if err != nil {
		return nil, fmt.Errorf("prom sink: %w", err)
	}
	return coremetrics.NewMultiSink(sink, prom), nil
}

// Agents lists the agents known to the parameter provider, if it can.
func (s *Service) Agents() []string {
	if l, ok := s.deps.Params.(interface{ Agents() []string }); ok {
		return l.Agents()
	}
	return nil
}

// Run optimizes the given agents, or all known agents when none are given,
// and returns one outcome per agent in the same order. The error joins the
// failures of the aborted agents. A failing agent never stops the others.
func (s *Service) Run(ctx context.Context, agents []string) ([]Outcome, error) {
	if len(agents) == 0 {
		agents = s.Agents()
	}
	bus := eventbus.NewWithBuffer(eventBuffer)
	done := metrics.StartEventCollector(context.WithoutCancel(ctx), bus, s.deps.Sink, s.deps.Log)
	defer func() {
		bus.Close()
		<-done
		if n := bus.Dropped(); n > 0 {
			s.deps.Log.Warnf("metrics collector dropped %d events", n)
		}
	}()

	opt := dispatch.NewOptimizer(s.deps.Solver, s.opts.Timeout, s.deps.Log)
	runner, err := dispatch.NewRunner(opt, s.opts.Strict, bus, s.deps.Log)
	if err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, len(agents))
	var g errgroup.Group
	g.SetLimit(s.opts.Workers)
	for i, name := range agents {
		g.Go(func() error {
			defer coremon.Recover()
			outcomes[i] = s.runAgent(ctx, runner, name)
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return outcomes, errors.Join(errs...)
}

func (s *Service) runAgent(ctx context.Context, runner *dispatch.Runner, name string) Outcome {
	fail := func(res dispatch.AgentResult, err error) Outcome {
		coremon.CaptureException(err, map[string]string{"agent": name, "run_id": res.RunID})
		return Outcome{Result: res, Err: err}
	}
	res := dispatch.AgentResult{Agent: name}

	params, err := s.deps.Params.Parameters(ctx, name)
	if err != nil {
		return fail(res, fmt.Errorf("agent %s: %w", name, err))
	}
	series, err := s.deps.Series.Series(ctx, name)
	if err != nil {
		return fail(res, fmt.Errorf("agent %s: %w", name, err))
	}

	res, runErr := runner.Run(ctx, dispatch.Agent{Name: name, Series: series, Params: params})
	if err := s.deps.Store.Append(ctx, runlog.NewRecord(res, runErr)); err != nil {
		s.deps.Log.Errorf("store run %s of %s: %v", res.RunID, name, err)
	}
	if runErr != nil {
		return fail(res, runErr)
	}
	if err := s.deps.Writers.WriteResult(ctx, res); err != nil {
		return fail(res, fmt.Errorf("agent %s: write result: %w", name, err))
	}
	return Outcome{Result: res}
}

// Close releases resources held by the service in reverse order of
// creation.
func (s *Service) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	coremon.Flush(2 * time.Second)
	return errors.Join(errs...)
}
