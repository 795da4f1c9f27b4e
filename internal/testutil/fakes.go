package testutil

import (
	"io"
	"log/slog"
	"sync"

	"github.com/roach88/routesync/internal/history"
	"github.com/roach88/routesync/internal/ir"
	"github.com/roach88/routesync/internal/store"
)

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// RecordingHistory wraps a MemoryHistory and records every TransitionTo
// made through the wrapper. Push, Replace and Go on the wrapper go straight
// to the MemoryHistory and are not recorded.
type RecordingHistory struct {
	*history.MemoryHistory

	mu          sync.Mutex
	transitions []*ir.Location
	failNext    error
}

// NewRecordingHistory creates a RecordingHistory over a MemoryHistory with
// sequential keys "k-1", "k-2", ... and a silent logger.
func NewRecordingHistory(paths ...string) *RecordingHistory {
	return &RecordingHistory{
		MemoryHistory: history.NewMemoryHistory(
			history.WithInitialEntries(paths...),
			history.WithKeyGenerator(history.NewSequentialKeyGenerator("k")),
			history.WithLogger(DiscardLogger()),
		),
	}
}

// TransitionTo records loc and forwards it.
func (h *RecordingHistory) TransitionTo(loc *ir.Location) error {
	h.mu.Lock()
	h.transitions = append(h.transitions, loc)
	err := h.failNext
	h.failNext = nil
	h.mu.Unlock()

	if err != nil {
		return err
	}
	return h.MemoryHistory.TransitionTo(loc)
}

// FailNextTransition makes the next TransitionTo return err without moving.
func (h *RecordingHistory) FailNextTransition(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failNext = err
}

// Transitions returns the recorded transitions in order.
func (h *RecordingHistory) Transitions() []*ir.Location {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*ir.Location, len(h.transitions))
	copy(out, h.transitions)
	return out
}

// RecordingStore wraps a *store.Store and records every action dispatched
// through the wrapper.
type RecordingStore struct {
	*store.Store

	mu         sync.Mutex
	dispatched []ir.Action
	failNext   error
}

// NewRecordingStore wraps s.
func NewRecordingStore(s *store.Store) *RecordingStore {
	return &RecordingStore{Store: s}
}

// Dispatch records action and forwards it.
func (s *RecordingStore) Dispatch(action ir.Action) error {
	s.mu.Lock()
	s.dispatched = append(s.dispatched, action)
	err := s.failNext
	s.failNext = nil
	s.mu.Unlock()

	if err != nil {
		return err
	}
	return s.Store.Dispatch(action)
}

// FailNextDispatch makes the next Dispatch return err without reducing.
func (s *RecordingStore) FailNextDispatch(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

// Dispatched returns the recorded actions in order.
func (s *RecordingStore) Dispatched() []ir.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ir.Action, len(s.dispatched))
	copy(out, s.dispatched)
	return out
}

// DispatchedOfType returns the recorded actions with the given type.
func (s *RecordingStore) DispatchedOfType(actionType string) []ir.Action {
	var out []ir.Action
	for _, a := range s.Dispatched() {
		if a.Type == actionType {
			out = append(out, a)
		}
	}
	return out
}
