package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/prosumer/core/metrics"
	"github.com/kilianp07/prosumer/core/model"
	"github.com/kilianp07/prosumer/infra/mqtt"
	"github.com/kilianp07/prosumer/infra/source"
	"github.com/kilianp07/prosumer/pkg/export"
)

// DefaultWorkers bounds the number of agents optimized in parallel.
const DefaultWorkers = 4

type Config struct {
	Solver  SolverConfig                   `json:"solver"`
	Data    source.CSVConfig               `json:"data"`
	Agents  map[string]model.RawParameters `json:"agents"`
	Workers int                            `json:"workers"`
	Store   StoreConfig                    `json:"store"`
	Export  export.Config                  `json:"export"`
	Metrics metrics.Config                 `json:"metrics"`
	MQTT    mqtt.Config                    `json:"mqtt"`
	Sentry  SentryConfig                   `json:"sentry"`
	API     APIConfig                      `json:"api"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides; K_SOLVER__TYPE sets solver.type.
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies the defaults of every section.
func (c *Config) SetDefaults() {
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.Data.Dir == "" {
		c.Data.Dir = "data"
	}
	c.Solver.SetDefaults()
	c.Store.SetDefaults()
	c.Export.SetDefaults()
	c.Metrics.SetDefaults()
	c.MQTT.SetDefaults()
	c.Sentry.SetDefaults()
	c.API.SetDefaults()
}

// Validate reports every invalid section at once.
func (c Config) Validate() error {
	var errs []error
	if len(c.Agents) == 0 {
		errs = append(errs, &model.ConfigError{Field: "agents", Reason: "at least one agent is required"})
	}
	for _, name := range c.AgentNames() {
		if _, err := c.Agents[name].Build(); err != nil {
			errs = append(errs, fmt.Errorf("agent %s: %w", name, err))
		}
	}
	for _, v := range []interface{ Validate() error }{c.Solver, c.Store, c.Export, c.MQTT, c.Sentry, c.API} {
		if err := v.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// AgentNames lists the configured agents in name order.
func (c Config) AgentNames() []string {
	names := make([]string, 0, len(c.Agents))
	for name := range c.Agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
