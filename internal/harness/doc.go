// Package harness runs navigation scenarios against a fully wired sync:
// an in-memory History, a store with the routing reducer and router
// middleware, an in-memory action journal and the sync engine, plus one
// downstream listener standing in for a router.
//
// Scenarios are YAML (strict: unknown fields are rejected) or CUE:
//
//	name: push_then_travel
//	description: time travel moves the history
//	initial: [/home]
//	steps:
//	  - push: /a
//	  - push: /b
//	  - travel: 1
//	assertions:
//	  - type: transitions
//	    count: 2
//	  - type: location
//	    pathname: /a
//
// Every run records a trace of steps, dispatches reaching the reducer,
// transitions the engine issues and listener calls. Keys, session ids and
// seqs are deterministic, so traces can be compared against golden files
// with RunWithGolden.
package harness
