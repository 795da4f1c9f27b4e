package store

import "github.com/roach88/routesync/internal/ir"

// API is the view of the store handed to middleware.
// Dispatch on it re-enters the full middleware chain.
type API interface {
	GetState() any
	Dispatch(action ir.Action) error
}

// Middleware wraps dispatch. It receives the store API and the next
// dispatch in the chain, and returns its own dispatch.
//
//	logging := func(api store.API) func(next store.DispatchFunc) store.DispatchFunc {
//	    return func(next store.DispatchFunc) store.DispatchFunc {
//	        return func(a ir.Action) error {
//	            slog.Info("dispatch", "type", a.Type)
//	            return next(a)
//	        }
//	    }
//	}
type Middleware func(api API) func(next DispatchFunc) DispatchFunc

// applyMiddleware composes middlewares right to left around base so the
// first middleware is outermost.
func applyMiddleware(api API, base DispatchFunc, middlewares []Middleware) DispatchFunc {
	dispatch := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		dispatch = middlewares[i](api)(dispatch)
	}
	return dispatch
}
