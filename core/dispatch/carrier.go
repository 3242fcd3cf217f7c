package dispatch

import "github.com/kilianp07/prosumer/core/model"

// CarriedState is the battery capacity handed from one window to the next.
type CarriedState struct {
	Capacity float64
	// Stale is set when the last window produced no values and Capacity was
	// kept from an earlier window.
	Stale bool
}

// InitialState seeds the carried capacity for the first window.
func InitialState(p model.AgentParameters) CarriedState {
	return CarriedState{Capacity: p.InitSOC}
}

// Advance returns the state to hand to the window after sol. A solution
// without values keeps the current capacity and marks it stale.
func (c CarriedState) Advance(sol model.WindowSolution) CarriedState {
	if !sol.HasValues() {
		return CarriedState{Capacity: c.Capacity, Stale: true}
	}
	return CarriedState{Capacity: sol.LastCap()}
}
