package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	windowSolveSeconds *prometheus.HistogramVec
	windowsSolved      *prometheus.CounterVec
	solverNodes        prometheus.Histogram
	staleCarries       prometheus.Counter
	agentCost          *prometheus.GaugeVec
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.HistogramVec, *prometheus.CounterVec, prometheus.Histogram, prometheus.Counter, *prometheus.GaugeVec) {
	lat := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dispatch_window_solve_seconds",
			Help:    "Wall time spent solving one optimization window",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)
	win := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_windows_total",
			Help: "Number of optimization windows solved, by solver status",
		},
		[]string{"status"},
	)
	nodes := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dispatch_solver_nodes",
			Help:    "Branch and bound nodes explored per window",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)
	stale := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_stale_carry_total",
			Help: "Windows that produced no values so the carried capacity was reused",
		},
	)
	cost := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dispatch_agent_cost",
			Help: "Total cost of the last completed run of an agent",
		},
		[]string{"agent"},
	)
	return lat, win, nodes, stale, cost
}

func init() {
	windowSolveSeconds, windowsSolved, solverNodes, staleCarries, agentCost = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dispatch metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(windowSolveSeconds, windowsSolved, solverNodes, staleCarries, agentCost)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	windowSolveSeconds, windowsSolved, solverNodes, staleCarries, agentCost = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
