package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/routesync/internal/config"
	"github.com/roach88/routesync/internal/engine"
	"github.com/roach88/routesync/internal/harness"
	"github.com/roach88/routesync/internal/history"
	"github.com/roach88/routesync/internal/ir"
	"github.com/roach88/routesync/internal/journal"
	"github.com/roach88/routesync/internal/routing"
	"github.com/roach88/routesync/internal/store"
)

// app is a synced history and store over one journal session.
type app struct {
	history *history.MemoryHistory
	store   *store.Store
	reducer store.Reducer
	synced  *engine.SyncedHistory
	journal *journal.Journal
	session string
	key     string
}

// appOptions controls how an app is wired.
type appOptions struct {
	initial []string

	// record appends dispatched actions to the session, continuing after
	// startSeq.
	record   bool
	startSeq int64
}

// openJournal opens the journal at path, creating its directory.
func openJournal(path string, opts ...journal.Option) (*journal.Journal, error) {
	if path != journal.MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
	}
	return journal.Open(path, opts...)
}

func newApp(ctx context.Context, cfg config.Config, j *journal.Journal, session string, o appOptions, logger *slog.Logger) (*app, error) {
	a := &app{
		journal: j,
		session: session,
		key:     cfg.Routing.StateKey,
	}

	a.history = history.NewMemoryHistory(
		history.WithInitialEntries(o.initial...),
		history.WithLogger(logger),
	)
	a.reducer = store.CombineReducers(map[string]store.Reducer{
		a.key: routing.NewReducer(a.history),
	})

	mws := []store.Middleware{routing.RouterMiddleware(a.history)}
	if o.record {
		mws = append(mws, journal.Recorder(ctx, j, session, journal.NewClockAt(o.startSeq)))
	}

	var err error
	a.store, err = store.New(a.reducer,
		store.WithMiddleware(mws...),
		store.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	engineOpts := []engine.Option{
		engine.WithAdjustURLOnReplay(cfg.Routing.AdjustURLOnReplay),
		engine.WithLogger(logger),
	}
	if a.key != engine.DefaultStateKey {
		engineOpts = append(engineOpts, engine.WithSelectLocationState(engine.SelectByKey(a.key)))
	}
	a.synced, err = engine.SyncHistoryWithStore(a.history, a.store, engineOpts...)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// close stops synchronization. The journal stays open.
func (a *app) close() {
	a.synced.Unsubscribe()
}

// apply performs one navigation step.
func (a *app) apply(ctx context.Context, step harness.Step) error {
	switch step.Op() {
	case "push":
		return a.synced.Push(ir.ParsePath(step.Push))
	case "replace":
		return a.synced.Replace(ir.ParsePath(step.Replace))
	case "go":
		return a.synced.Go(*step.Go)
	case "back":
		return a.synced.GoBack()
	case "forward":
		return a.synced.GoForward()
	case "dispatch":
		loc := ir.ParsePath(step.Dispatch)
		loc.Action = ir.NavPush
		return a.store.Dispatch(routing.LocationChange(loc))
	case "travel":
		_, err := a.journal.TimeTravel(ctx, a.store, a.reducer, a.session, *step.Travel)
		return err
	case "call":
		return a.store.Dispatch(step.CallAction())
	default:
		return fmt.Errorf("unknown step %q", step.Op())
	}
}

// storeLocation returns the store's current location, or nil.
func (a *app) storeLocation() *ir.Location {
	slice := engine.SelectByKey(a.key)(a.store.GetState())
	if slice == nil {
		return nil
	}
	return slice.LocationBeforeTransitions
}

// LocationView is a location as printed by the CLI.
type LocationView struct {
	Path   string `json:"path"`
	Action string `json:"action"`
	Key    string `json:"key,omitempty"`
}

func viewOf(loc *ir.Location) LocationView {
	if loc == nil {
		return LocationView{}
	}
	return LocationView{Path: loc.Path(), Action: string(loc.Action), Key: loc.Key}
}

func (v LocationView) String() string {
	if v.Key == "" {
		return fmt.Sprintf("%-7s %s", v.Action, v.Path)
	}
	return fmt.Sprintf("%-7s %s (%s)", v.Action, v.Path, v.Key)
}
