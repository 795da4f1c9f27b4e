package store

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/routesync/internal/ir"
)

// InitActionType is dispatched once when a Store is created so every
// reducer can produce its initial state.
const InitActionType = "@@store/INIT"

// Reducer computes the next state from the current state and an action.
// Reducers must be pure and must return the same value when nothing
// changed.
type Reducer func(state any, action ir.Action) any

// Listener is notified after a dispatch. It must re-read state itself.
// A returned error stops notification of the remaining listeners and is
// returned from Dispatch.
type Listener func() error

// UnsubscribeFunc cancels a subscription. Calling it more than once is a
// no-op.
type UnsubscribeFunc func()

// DispatchFunc sends an action through the store.
type DispatchFunc func(action ir.Action) error

var (
	// ErrDispatchWhileReducing is returned when Dispatch is called while a
	// reducer is running.
	ErrDispatchWhileReducing = errors.New("store: reducers may not dispatch actions")

	// ErrNilReducer is returned by New when no reducer is given.
	ErrNilReducer = errors.New("store: nil reducer")
)

// Store is an observable state container.
type Store struct {
	mu         sync.Mutex
	reducer    Reducer
	state      any
	reducing   bool
	listeners  []*subscription
	dispatch   DispatchFunc
	dispatched int64
	logger     *slog.Logger
}

type subscription struct {
	fn Listener
}

// Option configures a Store.
type Option func(*config)

type config struct {
	preloaded   any
	middlewares []Middleware
	logger      *slog.Logger
}

// WithPreloadedState sets the state the INIT action is reduced from.
func WithPreloadedState(state any) Option {
	return func(c *config) {
		c.preloaded = state
	}
}

// WithMiddleware appends middleware. The first middleware given is the
// outermost: it sees actions first.
func WithMiddleware(mw ...Middleware) Option {
	return func(c *config) {
		c.middlewares = append(c.middlewares, mw...)
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// New creates a Store and dispatches InitActionType to seed its state.
// The INIT action bypasses middleware and notifies nobody.
func New(reducer Reducer, opts ...Option) (*Store, error) {
	if reducer == nil {
		return nil, ErrNilReducer
	}
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	s := &Store{
		reducer: reducer,
		state:   cfg.preloaded,
		logger:  cfg.logger,
	}
	s.state = reducer(s.state, ir.Action{Type: InitActionType})
	s.dispatch = applyMiddleware(s, s.baseDispatch, cfg.middlewares)

	return s, nil
}

// GetState returns the current state.
func (s *Store) GetState() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch sends action through the middleware chain to the reducer and
// then notifies listeners.
func (s *Store) Dispatch(action ir.Action) error {
	if action.Type == "" {
		return fmt.Errorf("store: action type is required")
	}
	return s.dispatch(action)
}

// baseDispatch is the innermost dispatch: reduce, then notify.
func (s *Store) baseDispatch(action ir.Action) error {
	s.mu.Lock()
	if s.reducing {
		s.mu.Unlock()
		return ErrDispatchWhileReducing
	}
	s.reducing = true
	prev := s.state
	s.mu.Unlock()

	next := s.reduce(prev, action)

	s.mu.Lock()
	s.state = next
	s.reducing = false
	s.dispatched++
	listeners := s.snapshot()
	s.mu.Unlock()

	s.logger.Debug("action dispatched",
		"type", action.Type,
		"listeners", len(listeners),
	)

	return notify(listeners)
}

// reduce runs the reducer, clearing the reducing flag if it panics.
func (s *Store) reduce(prev any, action ir.Action) any {
	defer func() {
		if r := recover(); r != nil {
			s.mu.Lock()
			s.reducing = false
			s.mu.Unlock()
			panic(r)
		}
	}()
	return s.reducer(prev, action)
}

// ReplaceState swaps the whole state without running the reducer and
// notifies listeners. Time travel uses this to jump to a reconstructed
// state.
func (s *Store) ReplaceState(state any) error {
	s.mu.Lock()
	if s.reducing {
		s.mu.Unlock()
		return ErrDispatchWhileReducing
	}
	s.state = state
	listeners := s.snapshot()
	s.mu.Unlock()

	s.logger.Debug("state replaced", "listeners", len(listeners))

	return notify(listeners)
}

// Subscribe registers fn for notification after every dispatch.
func (s *Store) Subscribe(fn Listener) UnsubscribeFunc {
	sub := &subscription{fn: fn}

	s.mu.Lock()
	s.listeners = append(s.listeners, sub)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, l := range s.listeners {
				if l == sub {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					break
				}
			}
		})
	}
}

// ListenerCount returns the number of active subscriptions.
// Used for testing to verify cleanup.
func (s *Store) ListenerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

// DispatchCount returns how many actions reached the reducer after INIT.
// Used for testing and diagnostics.
func (s *Store) DispatchCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatched
}

// snapshot copies the listener list. Caller must hold s.mu.
func (s *Store) snapshot() []*subscription {
	out := make([]*subscription, len(s.listeners))
	copy(out, s.listeners)
	return out
}

func notify(listeners []*subscription) error {
	for _, l := range listeners {
		if err := l.fn(); err != nil {
			return err
		}
	}
	return nil
}
