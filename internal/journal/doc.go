// Package journal records the actions a store dispatches into SQLite and
// rebuilds past states from them, so a session can be time-travelled.
//
// The journal is an append-only log:
//   - Sessions: one row per recording, identified by a UUIDv7
//   - Actions: every action that reached the reducer, in dispatch order
//
// # Ordering
//
// Actions are stamped with a logical seq from a Sequencer, never a wall
// clock. Every query orders by seq ASC, id ASC COLLATE BINARY so a session
// reads back identically on every run.
//
// # Payloads
//
// Payloads are stored as RFC 8785 canonical JSON (see ir.MarshalCanonical).
// LOCATION_CHANGE payloads are stored as locations and carry their
// fingerprint. Decoding always allocates new locations: a rebuilt state
// never shares pointers with the live store, so the sync engine treats a
// time travel as a store-originated change and moves the History.
//
// The journal holds store actions only. It does not persist the
// navigation provider's entry stack.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package journal
