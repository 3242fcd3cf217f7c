package config

import "fmt"

// APIConfig configures the HTTP server of the serve command.
type APIConfig struct {
	Address string `json:"address"`
	// Token is the bearer token required by /runs. Empty disables auth.
	Token string `json:"token"`
}

func (c *APIConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
}

func (c APIConfig) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("api.address is required")
	}
	return nil
}
