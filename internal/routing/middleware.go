package routing

import (
	"errors"
	"fmt"

	"github.com/roach88/routesync/internal/history"
	"github.com/roach88/routesync/internal/ir"
	"github.com/roach88/routesync/internal/store"
)

var (
	// ErrUnknownMethod is returned for a CALL_HISTORY_METHOD action naming
	// a method History does not have.
	ErrUnknownMethod = errors.New("routing: unknown history method")

	// ErrBadArgs is returned when a MethodCall's arguments do not fit the
	// method.
	ErrBadArgs = errors.New("routing: bad history method arguments")
)

// RouterMiddleware forwards CALL_HISTORY_METHOD actions to h. The action
// is consumed: it never reaches later middleware or the reducer. Every
// other action passes through unchanged.
func RouterMiddleware(h history.History) store.Middleware {
	return func(store.API) func(next store.DispatchFunc) store.DispatchFunc {
		return func(next store.DispatchFunc) store.DispatchFunc {
			return func(action ir.Action) error {
				if action.Type != CallHistoryMethodType {
					return next(action)
				}
				call, ok := action.Payload.(MethodCall)
				if !ok {
					return fmt.Errorf("%w: payload %T", ErrBadArgs, action.Payload)
				}
				return Call(h, call)
			}
		}
	}
}

// Call invokes the History method named by call.
func Call(h history.History, call MethodCall) error {
	switch call.Method {
	case MethodPush:
		loc, err := locationArg(call)
		if err != nil {
			return err
		}
		return h.Push(loc)
	case MethodReplace:
		loc, err := locationArg(call)
		if err != nil {
			return err
		}
		return h.Replace(loc)
	case MethodGo:
		n, err := intArg(call)
		if err != nil {
			return err
		}
		return h.Go(n)
	case MethodGoBack:
		return h.GoBack()
	case MethodGoForward:
		return h.GoForward()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMethod, call.Method)
	}
}

// locationArg accepts a *ir.Location or a bare pathname string.
func locationArg(call MethodCall) (*ir.Location, error) {
	if len(call.Args) != 1 {
		return nil, fmt.Errorf("%w: %s wants 1 argument, got %d", ErrBadArgs, call.Method, len(call.Args))
	}
	switch v := call.Args[0].(type) {
	case *ir.Location:
		if v == nil {
			return nil, fmt.Errorf("%w: %s with nil location", ErrBadArgs, call.Method)
		}
		return v, nil
	case string:
		return ir.NewLocation(v), nil
	default:
		return nil, fmt.Errorf("%w: %s argument %T", ErrBadArgs, call.Method, v)
	}
}

func intArg(call MethodCall) (int, error) {
	if len(call.Args) != 1 {
		return 0, fmt.Errorf("%w: %s wants 1 argument, got %d", ErrBadArgs, call.Method, len(call.Args))
	}
	switch v := call.Args[0].(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("%w: %s argument %T", ErrBadArgs, call.Method, v)
	}
}
