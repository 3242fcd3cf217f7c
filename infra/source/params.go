package source

import (
	"context"
	"fmt"
	"sort"

	"github.com/kilianp07/prosumer/core/model"
)

// ConfigParameters serves agent parameters decoded from configuration.
// Every entry is validated when the provider is built.
type ConfigParameters struct {
	names  []string
	params map[string]model.AgentParameters
}

// NewConfigParameters builds the parameters of every agent and reports all
// invalid entries at once.
func NewConfigParameters(raw map[string]model.RawParameters) (*ConfigParameters, error) {
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make(map[string]model.AgentParameters, len(raw))
	for _, name := range names {
		p, err := raw[name].Build()
		if err != nil {
			return nil, fmt.Errorf("agent %s: %w", name, err)
		}
		out[name] = p
	}
	return &ConfigParameters{names: names, params: out}, nil
}

// Parameters returns the parameters of agent.
func (c *ConfigParameters) Parameters(_ context.Context, agent string) (model.AgentParameters, error) {
	p, ok := c.params[agent]
	if !ok {
		return model.AgentParameters{}, &model.ConfigError{Field: "agents." + agent, Reason: "no parameters configured"}
	}
	return p, nil
}

// Agents lists the configured agents in name order.
func (c *ConfigParameters) Agents() []string {
	return append([]string(nil), c.names...)
}
