package engine

import (
	"fmt"
	"sync"

	"github.com/roach88/routesync/internal/history"
	"github.com/roach88/routesync/internal/ir"
	"github.com/roach88/routesync/internal/store"
)

// listenerRecord is the state of one Listen call.
type listenerRecord struct {
	fn            history.Listener
	lastPublished *ir.Location

	// unsubscribed is set before the store subscription is released. The
	// store only applies subscription changes on the next dispatch, so the
	// callback may still run once after unlisten.
	unsubscribed     bool
	unsubscribeStore store.UnsubscribeFunc
}

// Listen registers fn to follow the store's location.
//
// Unlike the underlying History, fn is called synchronously with the
// current store location before Listen returns. If that call fails its
// error is returned and nothing is subscribed. Afterwards fn is called
// each time the engine propagates a new location.
func (e *SyncedHistory) Listen(fn history.Listener) (history.UnlistenFunc, error) {
	if fn == nil {
		return nil, fmt.Errorf("engine: nil listener")
	}

	rec := &listenerRecord{
		fn:            fn,
		lastPublished: e.locationInStore(),
	}
	if err := fn(rec.lastPublished); err != nil {
		return nil, err
	}

	rec.unsubscribeStore = e.store.Subscribe(func() error {
		return e.publish(rec)
	})

	var once sync.Once
	return func() {
		once.Do(func() {
			rec.unsubscribed = true
			rec.unsubscribeStore()
		})
	}, nil
}

// publish delivers the engine's current location to rec if it moved.
// Without URL adjustment the engine has propagated nothing until the first
// History change, and listeners are never handed a nil location.
func (e *SyncedHistory) publish(rec *listenerRecord) error {
	if e.currentLocation == nil || e.currentLocation == rec.lastPublished {
		return nil
	}
	rec.lastPublished = e.currentLocation
	if rec.unsubscribed {
		return nil
	}
	return rec.fn(rec.lastPublished)
}
