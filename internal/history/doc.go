// Package history defines the navigation provider contract consumed by the
// sync engine and ships an in-memory implementation of it.
//
// A History owns "where navigation currently is". It notifies listeners on
// every location change (never synchronously on subscribe) and can be
// commanded to transition with TransitionTo.
//
// MemoryHistory keeps its entry stack in process memory only. Nothing is
// persisted.
package history
