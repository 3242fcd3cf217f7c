// Package events defines the dispatch events emitted on the event bus.
//
// Available event types:
//   - WindowSolved: one optimization window of an agent finished
//   - AgentCompleted: the rolling horizon of an agent finished or aborted
package events
