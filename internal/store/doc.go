// Package store implements the observable state container the sync engine
// treats as the authoritative source of location.
//
// A Store holds one state value, replaces it by running actions through a
// Reducer, and notifies subscribers after every dispatch.
//
// # Subscription semantics
//
// Listeners are snapshotted after the reducer runs and before any listener
// is invoked. Subscribing or unsubscribing while listeners are running has
// no effect on the dispatch in progress: a listener removed mid-dispatch is
// still called for that dispatch. Callers that must not observe a late
// notification keep their own cancelled flag.
//
// # Threading
//
// Dispatch follows a single-writer model. GetState and Subscribe are safe
// from any goroutine; Dispatch and ReplaceState must not be called
// concurrently with each other. The store never holds its lock while a
// reducer, middleware or listener runs, so listeners may dispatch.
package store
