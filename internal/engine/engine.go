package engine

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/routesync/internal/history"
	"github.com/roach88/routesync/internal/ir"
	"github.com/roach88/routesync/internal/routing"
	"github.com/roach88/routesync/internal/store"
)

// StoreHandle is the part of an observable store the engine needs.
// Implemented by *store.Store.
type StoreHandle interface {
	GetState() any
	Dispatch(action ir.Action) error
	Subscribe(fn store.Listener) store.UnsubscribeFunc
}

// replayMode is the engine's re-entrancy guard.
type replayMode int

const (
	// modeIdle: History notifications are propagated to the store.
	modeIdle replayMode = iota

	// modeReplayingToNavigation: the engine is pushing a store location into
	// the History; History notifications are ignored.
	modeReplayingToNavigation
)

func (m replayMode) String() string {
	switch m {
	case modeIdle:
		return "idle"
	case modeReplayingToNavigation:
		return "replaying_to_navigation"
	default:
		return fmt.Sprintf("replayMode(%d)", int(m))
	}
}

// SyncedHistory is a History whose listeners follow the store instead of
// the underlying provider. Every method other than Listen delegates to the
// wrapped History.
//
// A SyncedHistory is not safe for concurrent use.
type SyncedHistory struct {
	history.History

	store               StoreHandle
	selectLocationState SelectLocationState
	adjustURLOnReplay   bool
	logger              *slog.Logger

	// currentLocation is the last location this engine propagated in
	// either direction. Compared by pointer.
	currentLocation *ir.Location
	mode            replayMode

	unsubscribeFromStore   store.UnsubscribeFunc
	unsubscribeFromHistory history.UnlistenFunc
	teardown               sync.Once
}

// SyncHistoryWithStore starts synchronizing h and s and returns the
// synchronized History.
//
// The routing slice must already be present in s: if the selector finds
// nothing, a MISSING_ROUTING_STATE error is returned before anything is
// subscribed. With URL adjustment on (the default) the store location is
// pushed into h immediately, so h starts out matching the store.
func SyncHistoryWithStore(h history.History, s StoreHandle, opts ...Option) (*SyncedHistory, error) {
	if h == nil {
		return nil, newInvalidArgumentError("history")
	}
	if s == nil {
		return nil, newInvalidArgumentError("store")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.selectLocationState(s.GetState()) == nil {
		return nil, NewMissingRoutingStateError(o.customSelector)
	}

	e := &SyncedHistory{
		History:             h,
		store:               s,
		selectLocationState: o.selectLocationState,
		adjustURLOnReplay:   o.adjustURLOnReplay,
		logger:              o.logger,
	}

	if e.adjustURLOnReplay {
		e.unsubscribeFromStore = s.Subscribe(e.handleStoreChange)
		if err := e.handleStoreChange(); err != nil {
			e.unsubscribeFromStore()
			return nil, fmt.Errorf("initial store alignment: %w", err)
		}
	}

	unlisten, err := h.Listen(e.handleLocationChange)
	if err != nil {
		if e.unsubscribeFromStore != nil {
			e.unsubscribeFromStore()
		}
		return nil, fmt.Errorf("listen to history: %w", err)
	}
	e.unsubscribeFromHistory = unlisten

	e.logger.Debug("history synced with store",
		"adjust_url_on_replay", e.adjustURLOnReplay,
		"location", e.currentLocation.Path(),
	)
	return e, nil
}

// locationInStore returns what the store says the current location is.
func (e *SyncedHistory) locationInStore() *ir.Location {
	slice := e.selectLocationState(e.store.GetState())
	if slice == nil {
		return nil
	}
	return slice.LocationBeforeTransitions
}

// handleStoreChange pushes a store-originated location into the History.
func (e *SyncedHistory) handleStoreChange() error {
	loc := e.locationInStore()
	if loc == e.currentLocation {
		return nil
	}
	if loc == nil {
		// The slice was removed or emptied; there is nothing to navigate to.
		return nil
	}

	e.mode = modeReplayingToNavigation
	defer func() { e.mode = modeIdle }()

	e.currentLocation = loc

	e.logger.Debug("replaying store location to history",
		"path", loc.Path(),
		"key", loc.Key,
	)

	if err := e.History.TransitionTo(loc.WithAction(ir.NavPush)); err != nil {
		return fmt.Errorf("transition to %s: %w", loc.Path(), err)
	}
	return nil
}

// handleLocationChange dispatches a History-originated location to the
// store, unless the engine caused it.
func (e *SyncedHistory) handleLocationChange(loc *ir.Location) error {
	if e.mode == modeReplayingToNavigation || loc == e.currentLocation {
		return nil
	}
	e.currentLocation = loc

	e.logger.Debug("dispatching location change",
		"action", string(loc.Action),
		"path", loc.Path(),
		"key", loc.Key,
	)

	if err := e.store.Dispatch(routing.LocationChange(loc)); err != nil {
		return fmt.Errorf("dispatch location change: %w", err)
	}
	return nil
}

// Unsubscribe stops synchronization. Only the first call has an effect.
// Listeners registered through Listen keep their own store subscriptions
// until they unlisten.
func (e *SyncedHistory) Unsubscribe() {
	e.teardown.Do(func() {
		if e.adjustURLOnReplay && e.unsubscribeFromStore != nil {
			e.unsubscribeFromStore()
		}
		if e.unsubscribeFromHistory != nil {
			e.unsubscribeFromHistory()
		}
		e.logger.Debug("history sync stopped")
	})
}

// CurrentLocation returns the last location the engine propagated.
// Used for testing and diagnostics.
func (e *SyncedHistory) CurrentLocation() *ir.Location {
	return e.currentLocation
}

// Replaying reports whether the engine is pushing a store location into
// the History right now. Used for testing and diagnostics.
func (e *SyncedHistory) Replaying() bool {
	return e.mode == modeReplayingToNavigation
}
