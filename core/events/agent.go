package events

import (
	"time"

	"github.com/kilianp07/prosumer/core/model"
)

// AgentCompleted is published once per agent run. Err is non-nil when the
// run was aborted.
type AgentCompleted struct {
	Agent    string
	RunID    string
	State    model.AgentState
	Duration time.Duration
	Err      error
}
