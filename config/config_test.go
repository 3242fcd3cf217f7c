package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sample = `solver:
  type: branch_and_bound
  timeout_ms: 500
  options:
    max_nodes: 2000
data:
  dir: "inputs"
agents:
  house-1:
    min_dis: 0
    max_dis: 5
    min_cha: 0
    max_cha: 5
    thres_down: 0
    thres_up: 10
    batt_eff: 0.95
    max_buy: 20
    max_sell: 20
    initSOC: 2
    endSOC: 2
    horizont: 24
workers: 2
store:
  backend: sqlite
  path: "runs.db"
export:
  dir: "out"
  formats: ["csv", "html"]
metrics:
  sinks:
    - type: "nop"
mqtt:
  enabled: true
  broker: "tcp://localhost:1883"
  topic_prefix: "site"
`

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

//nolint:gocyclo
func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, "config.yaml", sample))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	p, err := cfg.Agents["house-1"].Build()
	if err != nil {
		t.Fatalf("build agent: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"solver.type", cfg.Solver.Type, "branch_and_bound"},
		{"solver.timeout", cfg.Solver.Timeout(), 500 * time.Millisecond},
		{"solver.module", cfg.Solver.Module().Conf["max_nodes"], 2000},
		{"data.dir", cfg.Data.Dir, "inputs"},
		{"agents", strings.Join(cfg.AgentNames(), ","), "house-1"},
		{"horizont", p.Horizont, 24},
		{"batt_eff", p.BattEff, 0.95},
		{"initSOC", p.InitSOC, 2.0},
		{"workers", cfg.Workers, 2},
		{"store.type", cfg.Store.Module().Type, "sqlite"},
		{"store.path", cfg.Store.Module().Conf["path"], "runs.db"},
		{"export.formats", strings.Join(cfg.Export.Formats, ","), "csv,html"},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"metrics.port", cfg.Metrics.PrometheusPort, "9090"},
		{"mqtt.broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"mqtt.topic_prefix", cfg.MQTT.TopicPrefix, "site"},
		{"mqtt.retries", cfg.MQTT.MaxRetries, 3},
		{"api.address", cfg.API.Address, ":8080"},
		{"sentry.env", cfg.Sentry.Environment, "production"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("K_WORKERS", "7")
	t.Setenv("K_SOLVER__TYPE", "relaxation")
	t.Setenv("K_SOLVER__TIMEOUT_MS", "900")
	t.Setenv("K_STORE__PATH", "other.db")
	cfg, err := Load(writeConfig(t, "config.yaml", sample))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Workers != 7 || cfg.Solver.Type != "relaxation" {
		t.Fatalf("env overrides not applied: workers=%d solver=%s", cfg.Workers, cfg.Solver.Type)
	}
	if cfg.Solver.TimeoutMS != 900 || cfg.Store.Path != "other.db" {
		t.Fatalf("nested env overrides not applied: timeout=%d path=%s", cfg.Solver.TimeoutMS, cfg.Store.Path)
	}
	if cfg.Solver.Options["max_nodes"] == nil {
		t.Fatalf("override dropped sibling keys: %+v", cfg.Solver.Options)
	}
}

func TestSolverConfigValidate(t *testing.T) {
	err := SolverConfig{Type: "cbc", TimeoutMS: -1}.Validate()
	if err == nil {
		t.Fatalf("expected error")
	}
	for _, want := range []string{"timeout_ms", "cbc"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("missing %q in %v", want, err)
		}
	}
	if err := (SolverConfig{Type: "relaxation"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadJSON(t *testing.T) {
	data := `{"agents": {"a": {"min_dis": 0, "max_dis": 1, "min_cha": 0, "max_cha": 1,
	"thres_down": 0, "thres_up": 4, "max_buy": 5, "max_sell": 5, "initSOC": 0, "endSOC": 0,
	"horizont": 4}}, "store": {"backend": "none"}}`
	cfg, err := Load(writeConfig(t, "config.json", data))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Workers != DefaultWorkers || cfg.Store.Module().Type != "" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if got := strings.Join(cfg.Export.Formats, ","); got != "csv,json" {
		t.Fatalf("export formats %s", got)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(writeConfig(t, "config.toml", "")); err == nil {
		t.Fatalf("expected unsupported format error")
	}
	bad := `agents:
  house-1:
    max_dis: 5
solver:
  type: cbc
  timeout_ms: -1
store:
  backend: postgres
export:
  formats: ["xlsx"]
mqtt:
  enabled: true
sentry:
  traces_sample_rate: 2
`
	_, err := Load(writeConfig(t, "config.yaml", bad))
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"agent house-1", "horizont", "timeout_ms", "cbc", "postgres", "xlsx", "mqtt.broker", "traces_sample_rate"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("missing %q in %v", want, err)
		}
	}
	if _, err := Load(writeConfig(t, "config.yaml", "workers: 1\n")); err == nil || !strings.Contains(err.Error(), "agents") {
		t.Fatalf("expected missing agents error, got %v", err)
	}
}
