package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/routesync/internal/engine"
	"github.com/roach88/routesync/internal/history"
	"github.com/roach88/routesync/internal/ir"
	"github.com/roach88/routesync/internal/journal"
	"github.com/roach88/routesync/internal/routing"
	"github.com/roach88/routesync/internal/store"
	"github.com/roach88/routesync/internal/testutil"
)

// Harness holds the wiring for one scenario run.
type Harness struct {
	history *history.MemoryHistory
	store   *store.Store
	reducer store.Reducer
	journal *journal.Journal
	session string
	synced  *engine.SyncedHistory
	clock   *testutil.DeterministicClock
	result  *Result
	logger  *slog.Logger
}

// tracingHistory records the transitions the engine asks for.
type tracingHistory struct {
	history.History
	h *Harness
}

func (t *tracingHistory) TransitionTo(loc *ir.Location) error {
	t.h.record(KindTransition, string(loc.Action), loc)
	return t.History.TransitionTo(loc)
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory journal. Sequential
// location keys ("k-1", "k-2", ...), a fixed session id and a
// deterministic clock make traces reproducible.
//
// Step failures are recorded on the result and the run continues;
// the returned error is reserved for wiring failures.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, testutil.DiscardLogger())
}

// RunWithLogger is Run with engine, store and journal logs sent to logger.
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	ctx := context.Background()

	j, err := journal.Open(journal.MemoryPath,
		journal.WithSessionIDs(testutil.NewFixedSessionGenerator(scenario.Session)),
		journal.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory journal: %w", err)
	}
	defer j.Close()

	session, err := j.NewSession(ctx, scenario.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	h := &Harness{
		journal: j,
		session: session,
		clock:   testutil.NewDeterministicClock(),
		result:  NewResult(),
		logger:  logger,
	}
	h.result.Session = session

	initial := scenario.Initial
	if len(initial) == 0 {
		initial = []string{"/"}
	}
	h.history = history.NewMemoryHistory(
		history.WithInitialEntries(initial...),
		history.WithKeyGenerator(history.NewSequentialKeyGenerator("k")),
		history.WithLogger(logger),
	)

	h.reducer = store.CombineReducers(map[string]store.Reducer{
		engine.DefaultStateKey: routing.NewReducer(h.history),
	})
	h.store, err = store.New(h.reducer,
		store.WithMiddleware(
			routing.RouterMiddleware(h.history),
			journal.Recorder(ctx, j, session, journal.NewClock()),
			h.dispatchTracer(),
		),
		store.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	adjust := true
	if scenario.AdjustURLOnReplay != nil {
		adjust = *scenario.AdjustURLOnReplay
	}
	h.synced, err = engine.SyncHistoryWithStore(
		&tracingHistory{History: h.history, h: h},
		h.store,
		engine.WithAdjustURLOnReplay(adjust),
		engine.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to sync history: %w", err)
	}
	defer h.synced.Unsubscribe()

	unlisten, err := h.synced.Listen(func(loc *ir.Location) error {
		h.record(KindListener, string(loc.Action), loc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}
	defer unlisten()

	for i, step := range scenario.Steps {
		h.record(KindStep, "", nil, step.Describe())
		if err := h.execute(ctx, step); err != nil {
			h.result.AddError(fmt.Sprintf("steps[%d] (%s): %v", i, step.Describe(), err))
		}
	}

	h.result.HistoryLocation = snapshot(h.history.GetCurrentLocation())
	if slice := engine.DefaultSelectLocationState(h.store.GetState()); slice != nil {
		h.result.StoreLocation = snapshot(slice.LocationBeforeTransitions)
	}

	for _, errMsg := range EvaluateAssertions(h.result, scenario.Assertions) {
		h.result.AddError(errMsg)
	}

	return h.result, nil
}

// execute performs one step.
func (h *Harness) execute(ctx context.Context, step Step) error {
	switch step.Op() {
	case "push":
		return h.history.Push(ir.ParsePath(step.Push))
	case "replace":
		return h.history.Replace(ir.ParsePath(step.Replace))
	case "go":
		return h.history.Go(*step.Go)
	case "back":
		return h.history.GoBack()
	case "forward":
		return h.history.GoForward()
	case "dispatch":
		loc := ir.ParsePath(step.Dispatch)
		loc.Action = ir.NavPush
		return h.store.Dispatch(routing.LocationChange(loc))
	case "travel":
		_, err := h.journal.TimeTravel(ctx, h.store, h.reducer, h.session, *step.Travel)
		return err
	case "call":
		return h.store.Dispatch(step.CallAction())
	default:
		return fmt.Errorf("unknown step %q", step.Op())
	}
}

// CallAction builds the CALL_HISTORY_METHOD action for a call step.
func (s Step) CallAction() ir.Action {
	switch s.Call {
	case routing.MethodPush:
		return routing.Push(ir.ParsePath(s.Path))
	case routing.MethodReplace:
		return routing.Replace(ir.ParsePath(s.Path))
	case routing.MethodGo:
		return routing.Go(s.N)
	case routing.MethodGoBack:
		return routing.GoBack()
	default:
		return routing.GoForward()
	}
}

// dispatchTracer is innermost middleware: it sees only actions that reach
// the reducer.
func (h *Harness) dispatchTracer() store.Middleware {
	return func(store.API) func(next store.DispatchFunc) store.DispatchFunc {
		return func(next store.DispatchFunc) store.DispatchFunc {
			return func(action ir.Action) error {
				loc, _ := action.Payload.(*ir.Location)
				h.record(KindDispatch, action.Type, loc)
				return next(action)
			}
		}
	}
}

// record appends an event. For step events path is the description.
func (h *Harness) record(kind, action string, loc *ir.Location, path ...string) {
	e := TraceEvent{
		Seq:    h.clock.Next(),
		Kind:   kind,
		Action: action,
	}
	if loc != nil {
		e.Path = loc.Path()
		e.Key = loc.Key
	}
	if len(path) > 0 {
		e.Path = path[0]
	}
	h.result.Trace = append(h.result.Trace, e)
}

func snapshot(loc *ir.Location) LocationSnapshot {
	if loc == nil {
		return LocationSnapshot{}
	}
	return LocationSnapshot{
		Path:   loc.Path(),
		Action: string(loc.Action),
		Key:    loc.Key,
	}
}
