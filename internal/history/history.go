package history

import (
	"errors"

	"github.com/roach88/routesync/internal/ir"
)

// Listener receives location changes. A returned error aborts delivery to
// the remaining listeners and is returned to whoever caused the change.
type Listener func(loc *ir.Location) error

// UnlistenFunc cancels a Listen registration. Calling it more than once is
// a no-op.
type UnlistenFunc func()

// History is the navigation provider contract.
//
// Implementations must not hold internal locks while invoking listeners:
// the sync engine calls back into the History from inside listener
// callbacks.
type History interface {
	// Listen registers fn for future location changes. It does not call fn
	// for the current location.
	Listen(fn Listener) (UnlistenFunc, error)

	// TransitionTo moves to loc, using loc.Action (PUSH, REPLACE or POP) to
	// decide how the entry stack changes, and notifies listeners.
	TransitionTo(loc *ir.Location) error

	// GetCurrentLocation returns the current entry.
	GetCurrentLocation() *ir.Location

	Push(loc *ir.Location) error
	Replace(loc *ir.Location) error
	Go(n int) error
	GoBack() error
	GoForward() error
}

var (
	// ErrNilLocation is returned when a nil location is passed to a transition.
	ErrNilLocation = errors.New("history: nil location")

	// ErrOutOfRange is returned by Go when the target entry does not exist.
	ErrOutOfRange = errors.New("history: go target out of range")

	// ErrUnknownEntry is returned when a POP transition names a key that is
	// not on the entry stack.
	ErrUnknownEntry = errors.New("history: pop to unknown entry")

	// ErrUnknownAction is returned for a location with an invalid action.
	ErrUnknownAction = errors.New("history: unknown navigation action")
)
