package dispatch

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMetricsRegistration(t *testing.T) {
	ResetMetrics(nil)
	t.Cleanup(func() { ResetMetrics(nil) })
	reg := prometheus.NewRegistry()
	MustRegisterMetrics(reg)
	// touch metrics so they are exported
	windowSolveSeconds.WithLabelValues("Optimal").Observe(0.1)
	windowsSolved.WithLabelValues("Optimal").Inc()
	solverNodes.Observe(3)
	staleCarries.Inc()
	agentCost.WithLabelValues("a1").Set(4)
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := map[string]bool{}
	for _, mf := range mfs {
		names[*mf.Name] = true
	}
	expected := []string{
		"dispatch_window_solve_seconds",
		"dispatch_windows_total",
		"dispatch_solver_nodes",
		"dispatch_stale_carry_total",
		"dispatch_agent_cost",
	}
	for _, n := range expected {
		if !names[n] {
			t.Errorf("metric %s not registered", n)
		}
	}
}
