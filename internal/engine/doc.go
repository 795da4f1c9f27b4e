// Package engine keeps a navigation History and an observable store in
// sync.
//
// The store is the source of truth for location. SyncHistoryWithStore
// wires two feedback paths and returns a SyncedHistory that downstream
// consumers (a router, a view layer) listen to instead of the raw History:
//
//	history.Push -> store.Dispatch(LOCATION_CHANGE) -> SyncedHistory listeners
//	store.ReplaceState (time travel) -> history.TransitionTo -> URL follows
//
// LOOP PREVENTION:
//
// Each path would re-trigger the other without a guard. Two mechanisms stop
// that:
//
//   - The engine caches the last location it propagated (currentLocation)
//     and ignores any notification carrying that same *ir.Location pointer.
//   - While pushing a store location into the History, the engine is in
//     modeReplayingToNavigation and ignores every History notification.
//
// Suppression compares pointers, never fields. A collaborator that hands
// out a fresh copy of the same location on every read defeats it and will
// see one extra dispatch or transition per change.
//
// CONCURRENCY:
//
// The engine is callback driven and single-goroutine: it holds no locks.
// History and store implementations must release their own locks before
// invoking listeners, since the engine calls back into them from inside
// those callbacks.
package engine
