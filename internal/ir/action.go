package ir

import "fmt"

// Action is a message dispatched to a store.
//
// Type identifies the action; Payload is whatever the action's reducer
// expects (a *Location for location changes).
type Action struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// String implements fmt.Stringer.
func (a Action) String() string {
	if a.Payload == nil {
		return a.Type
	}
	return fmt.Sprintf("%s %v", a.Type, a.Payload)
}
