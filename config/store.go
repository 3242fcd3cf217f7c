package config

import (
	"fmt"

	"github.com/kilianp07/prosumer/core/factory"
)

// StoreConfig defines settings for run history storage and rotation.
type StoreConfig struct {
	// Backend selects the store type: "none", "jsonl", "rotating_jsonl" or "sqlite".
	Backend string `json:"backend"`
	// Path is the file location of the store.
	Path string `json:"path"`
	// MaxSizeMB triggers rotation when the file exceeds this size in megabytes.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *StoreConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		switch c.Backend {
		case "sqlite":
			c.Path = "runs.db"
		default:
			c.Path = "runs.jsonl"
		}
	}
}

// Validate checks mandatory fields.
func (c StoreConfig) Validate() error {
	switch c.Backend {
	case "none", "jsonl", "rotating_jsonl", "sqlite":
	default:
		return fmt.Errorf("unknown store backend %s", c.Backend)
	}
	if c.Backend != "none" && c.Path == "" {
		return fmt.Errorf("store.path is required")
	}
	return nil
}

// Module returns the registry entry describing the store. The none backend
// maps to an empty type.
func (c StoreConfig) Module() factory.ModuleConfig {
	if c.Backend == "none" {
		return factory.ModuleConfig{}
	}
	conf := map[string]any{"path": c.Path}
	if c.MaxSizeMB > 0 {
		conf["max_size_mb"] = c.MaxSizeMB
	}
	if c.MaxBackups > 0 {
		conf["max_backups"] = c.MaxBackups
	}
	if c.MaxAgeDays > 0 {
		conf["max_age_days"] = c.MaxAgeDays
	}
	return factory.ModuleConfig{Type: c.Backend, Conf: conf}
}
