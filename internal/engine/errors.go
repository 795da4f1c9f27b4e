package engine

import (
	"errors"
	"fmt"
)

// Error represents an error detected while wiring or running the sync.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context.
	Details map[string]string
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeMissingRoutingState indicates the routing slice could not be
	// found in the store state at construction.
	ErrCodeMissingRoutingState ErrorCode = "MISSING_ROUTING_STATE"

	// ErrCodeInvalidArgument indicates a nil History or store.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
)

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsMissingRoutingState returns true if err reports a missing routing slice.
// Uses errors.As to handle wrapped errors.
func IsMissingRoutingState(err error) bool {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.Code == ErrCodeMissingRoutingState
	}
	return false
}

// NewMissingRoutingStateError creates the error returned when the selector
// finds no routing slice.
func NewMissingRoutingStateError(custom bool) *Error {
	selector := "default"
	if custom {
		selector = "custom"
	}
	return &Error{
		Code: ErrCodeMissingRoutingState,
		Message: "expected the routing state to be available either as `state.routing` " +
			"or as the custom expression you can specify as `selectLocationState` " +
			"(engine.WithSelectLocationState). Ensure the routing reducer is mounted " +
			"on the store, for example via store.CombineReducers",
		Details: map[string]string{
			"selector": selector,
		},
	}
}

func newInvalidArgumentError(what string) *Error {
	return &Error{
		Code:    ErrCodeInvalidArgument,
		Message: fmt.Sprintf("%s must not be nil", what),
	}
}
