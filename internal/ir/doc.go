// Package ir provides the shared value types for routesync.
//
// This package contains type definitions and serialization only. Every other
// internal package imports ir; ir imports nothing internal.
//
// Key design constraints:
//   - Location identity is the pointer. Two *Location values describe "the
//     same place" for suppression purposes only if they are the same pointer.
//   - Location state is constrained to IRValue (no floats) so journaled
//     payloads serialize deterministically.
//   - All JSON tags use snake_case.
package ir
