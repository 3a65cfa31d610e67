// Package tracker holds the in-memory registries shared by the poll loops
// and the interactive commands. Every registry guards its maps with a mutex
// and hands out copies, so a loop tick iterates a snapshot while commands
// keep mutating the live registry.
package tracker

// State is the application state owned by the scheduler and passed to
// every loop tick and command handler
type State struct {
	Players *PlayerRegistry
	Streams *StreamRegistry
	Events  *EventRegistry
}

// NewState creates empty registries
func NewState() *State {
	return &State{
		Players: NewPlayerRegistry(),
		Streams: NewStreamRegistry(),
		Events:  NewEventRegistry(),
	}
}
