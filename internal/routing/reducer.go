package routing

import (
	"github.com/roach88/routesync/internal/history"
	"github.com/roach88/routesync/internal/ir"
	"github.com/roach88/routesync/internal/store"
)

// State is the routing slice of the store.
//
// LocationBeforeTransitions is the location the store considers current.
// The sync engine compares it to its own cache by pointer, so every change
// must produce a new *State holding the new pointer.
type State struct {
	LocationBeforeTransitions *ir.Location
}

// InitialState returns the routing slice for h's current location.
func InitialState(h history.History) *State {
	return &State{LocationBeforeTransitions: h.GetCurrentLocation()}
}

// NewReducer returns the routing reducer seeded from h.
//
// The seed location is read once, here, and is the same pointer the History
// holds, so the engine's first alignment sees nothing to do.
func NewReducer(h history.History) store.Reducer {
	initial := InitialState(h)
	return func(state any, action ir.Action) any {
		cur, _ := state.(*State)
		if cur == nil {
			cur = initial
		}
		if action.Type != LocationChangeType {
			return cur
		}
		loc, ok := action.Payload.(*ir.Location)
		if !ok || loc == nil {
			return cur
		}
		return &State{LocationBeforeTransitions: loc}
	}
}
