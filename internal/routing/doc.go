// Package routing holds the store side of navigation: the routing state
// slice, its reducer, the actions that change it and the middleware that
// turns history-method actions into calls on a History.
//
// The routing slice is what the sync engine reads to learn where the store
// thinks navigation is:
//
//	root := store.CombineReducers(map[string]store.Reducer{
//	    "routing": routing.NewReducer(h),
//	})
//	s, _ := store.New(root, store.WithMiddleware(routing.RouterMiddleware(h)))
//
// Action creators (Push, Replace, Go, GoBack, GoForward) let code that
// only holds the store drive navigation. They never reach the reducer:
// RouterMiddleware forwards them to the History, whose change then comes
// back through the engine as a LocationChange.
package routing
