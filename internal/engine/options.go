package engine

import (
	"log/slog"

	"github.com/roach88/routesync/internal/routing"
)

// DefaultStateKey is the root state key the default selector reads.
const DefaultStateKey = "routing"

// SelectLocationState extracts the routing slice from the root state.
// It returns nil when the slice is absent.
type SelectLocationState func(state any) *routing.State

// SelectByKey returns a selector reading state[key] from a map[string]any
// root state.
func SelectByKey(key string) SelectLocationState {
	return func(state any) *routing.State {
		root, ok := state.(map[string]any)
		if !ok {
			return nil
		}
		slice, _ := root[key].(*routing.State)
		return slice
	}
}

// DefaultSelectLocationState reads the slice at state["routing"].
var DefaultSelectLocationState = SelectByKey(DefaultStateKey)

// Option configures SyncHistoryWithStore.
type Option func(*options)

type options struct {
	selectLocationState SelectLocationState
	customSelector      bool
	adjustURLOnReplay   bool
	logger              *slog.Logger
}

func defaultOptions() options {
	return options{
		selectLocationState: DefaultSelectLocationState,
		adjustURLOnReplay:   true,
		logger:              slog.Default(),
	}
}

// WithSelectLocationState sets how the routing slice is found in the store
// state. Default: DefaultSelectLocationState.
func WithSelectLocationState(fn SelectLocationState) Option {
	return func(o *options) {
		if fn != nil {
			o.selectLocationState = fn
			o.customSelector = true
		}
	}
}

// WithAdjustURLOnReplay controls whether store-originated location changes
// (replays, time travel) are pushed into the History.
//
// Default: true
// Use WithAdjustURLOnReplay(false) when the store is never rewound.
func WithAdjustURLOnReplay(adjust bool) Option {
	return func(o *options) {
		o.adjustURLOnReplay = adjust
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
