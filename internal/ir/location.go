package ir

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NavAction identifies how the navigation provider arrived at a location.
type NavAction string

const (
	// NavPush appends a new entry, discarding any forward entries.
	NavPush NavAction = "PUSH"

	// NavReplace overwrites the current entry.
	NavReplace NavAction = "REPLACE"

	// NavPop moves to an existing entry (back/forward or initial load).
	NavPop NavAction = "POP"
)

// Valid reports whether a is one of the known navigation actions.
func (a NavAction) Valid() bool {
	switch a {
	case NavPush, NavReplace, NavPop:
		return true
	}
	return false
}

// Location describes where navigation currently is.
//
// Locations are treated as immutable values once handed to a History or a
// Store. Identity is the pointer: the sync engine decides whether a change
// is an echo by comparing *Location pointers, never fields. Code that
// derives a location from another (see WithAction) must allocate a new one.
type Location struct {
	Pathname string    `json:"pathname"`
	Search   string    `json:"search,omitempty"`
	Hash     string    `json:"hash,omitempty"`
	State    IRObject  `json:"state,omitempty"`
	Action   NavAction `json:"action"`
	Key      string    `json:"key,omitempty"`
}

// NewLocation creates a location for pathname with no search, hash or state.
// The action defaults to POP, matching a provider's initial entry.
func NewLocation(pathname string) *Location {
	return &Location{Pathname: pathname, Action: NavPop}
}

// ParsePath splits a "/path?query#hash" string into a location with the
// POP action. Search keeps its leading "?" and Hash its leading "#".
func ParsePath(path string) *Location {
	loc := &Location{Action: NavPop}
	if i := strings.IndexByte(path, '#'); i >= 0 {
		loc.Hash = path[i:]
		path = path[:i]
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		loc.Search = path[i:]
		path = path[:i]
	}
	loc.Pathname = path
	return loc
}

// WithAction returns a copy of l carrying action a.
// The copy never aliases l, so pointer comparison tells them apart.
func (l *Location) WithAction(a NavAction) *Location {
	cp := l.Clone()
	cp.Action = a
	return cp
}

// Clone returns a deep copy of l.
func (l *Location) Clone() *Location {
	if l == nil {
		return nil
	}
	cp := *l
	cp.State = l.State.Clone()
	return &cp
}

// Path returns pathname+search+hash for display. It does no encoding.
func (l *Location) Path() string {
	if l == nil {
		return ""
	}
	return l.Pathname + l.Search + l.Hash
}

// String implements fmt.Stringer.
func (l *Location) String() string {
	if l == nil {
		return "<nil>"
	}
	if l.Key == "" {
		return fmt.Sprintf("%s %s", l.Action, l.Path())
	}
	return fmt.Sprintf("%s %s (%s)", l.Action, l.Path(), l.Key)
}

// Canonical returns the location as an IRObject for canonical marshaling.
// Empty optional fields are omitted so fingerprints are stable.
func (l *Location) Canonical() IRObject {
	obj := IRObject{
		"pathname": IRString(l.Pathname),
		"action":   IRString(string(l.Action)),
	}
	if l.Search != "" {
		obj["search"] = IRString(l.Search)
	}
	if l.Hash != "" {
		obj["hash"] = IRString(l.Hash)
	}
	if l.Key != "" {
		obj["key"] = IRString(l.Key)
	}
	if l.State != nil {
		obj["state"] = l.State
	}
	return obj
}

// SamePlace reports whether a and b describe the same entry: equal key,
// pathname, search and hash. The action is ignored.
//
// This is a structural check for navigation providers deciding whether a
// transition is a no-op. The sync engine never uses it.
func SamePlace(a, b *Location) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Key == b.Key &&
		a.Pathname == b.Pathname &&
		a.Search == b.Search &&
		a.Hash == b.Hash
}

// DecodeLocation parses a location from JSON. The result is always a new
// pointer.
func DecodeLocation(data []byte) (*Location, error) {
	var loc Location
	if err := json.Unmarshal(data, &loc); err != nil {
		return nil, fmt.Errorf("decode location: %w", err)
	}
	if loc.Action == "" {
		loc.Action = NavPop
	}
	if !loc.Action.Valid() {
		return nil, fmt.Errorf("decode location: unknown action %q", loc.Action)
	}
	return &loc, nil
}
