package events

import (
	"time"

	"github.com/kilianp07/prosumer/core/model"
)

// WindowSolved is published after each window solve.
type WindowSolved struct {
	Agent     string
	RunID     string
	Window    model.Window
	Status    model.Status
	Objective float64
	Nodes     int
	Duration  time.Duration
	// Stale is set when the window produced no values and the carried
	// capacity was kept from the previous window.
	Stale bool
}
