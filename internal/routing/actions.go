package routing

import (
	"fmt"

	"github.com/roach88/routesync/internal/ir"
)

const (
	// LocationChangeType is dispatched whenever navigation moves. The
	// payload is the new *ir.Location.
	LocationChangeType = "@@router/LOCATION_CHANGE"

	// CallHistoryMethodType asks RouterMiddleware to call a History method.
	// The payload is a MethodCall.
	CallHistoryMethodType = "@@router/CALL_HISTORY_METHOD"
)

// History method names carried by MethodCall.
const (
	MethodPush      = "push"
	MethodReplace   = "replace"
	MethodGo        = "go"
	MethodGoBack    = "goBack"
	MethodGoForward = "goForward"
)

// MethodCall is the payload of a CALL_HISTORY_METHOD action.
type MethodCall struct {
	Method string `json:"method"`
	Args   []any  `json:"args,omitempty"`
}

// String implements fmt.Stringer.
func (c MethodCall) String() string {
	return fmt.Sprintf("%s%v", c.Method, c.Args)
}

// LocationChange builds the action the sync engine dispatches when
// navigation moves.
func LocationChange(loc *ir.Location) ir.Action {
	return ir.Action{Type: LocationChangeType, Payload: loc}
}

// Push asks the History to push loc.
func Push(loc *ir.Location) ir.Action {
	return callHistory(MethodPush, loc)
}

// Replace asks the History to replace the current entry with loc.
func Replace(loc *ir.Location) ir.Action {
	return callHistory(MethodReplace, loc)
}

// Go asks the History to move n entries.
func Go(n int) ir.Action {
	return callHistory(MethodGo, n)
}

// GoBack asks the History to move back one entry.
func GoBack() ir.Action {
	return callHistory(MethodGoBack)
}

// GoForward asks the History to move forward one entry.
func GoForward() ir.Action {
	return callHistory(MethodGoForward)
}

func callHistory(method string, args ...any) ir.Action {
	return ir.Action{
		Type:    CallHistoryMethodType,
		Payload: MethodCall{Method: method, Args: args},
	}
}
