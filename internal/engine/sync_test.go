package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/routesync/internal/ir"
	"github.com/roach88/routesync/internal/routing"
	"github.com/roach88/routesync/internal/store"
	"github.com/roach88/routesync/internal/testutil"
)

type fixture struct {
	history *testutil.RecordingHistory
	store   *testutil.RecordingStore
}

func newFixture(t *testing.T, paths ...string) *fixture {
	t.Helper()
	h := testutil.NewRecordingHistory(paths...)
	root := store.CombineReducers(map[string]store.Reducer{
		"routing": routing.NewReducer(h),
	})
	s, err := store.New(root,
		store.WithMiddleware(routing.RouterMiddleware(h)),
		store.WithLogger(testutil.DiscardLogger()),
	)
	require.NoError(t, err)
	return &fixture{history: h, store: testutil.NewRecordingStore(s)}
}

func (f *fixture) sync(t *testing.T, opts ...Option) *SyncedHistory {
	t.Helper()
	opts = append([]Option{WithLogger(testutil.DiscardLogger())}, opts...)
	synced, err := SyncHistoryWithStore(f.history, f.store, opts...)
	require.NoError(t, err)
	t.Cleanup(synced.Unsubscribe)
	return synced
}

func (f *fixture) storeLocation(t *testing.T) *ir.Location {
	t.Helper()
	slice := DefaultSelectLocationState(f.store.GetState())
	require.NotNil(t, slice)
	return slice.LocationBeforeTransitions
}

// travelTo swaps the store state for one whose routing slice holds loc,
// the way a devtools time travel does.
func (f *fixture) travelTo(loc *ir.Location) error {
	return f.store.ReplaceState(map[string]any{
		"routing": &routing.State{LocationBeforeTransitions: loc},
	})
}

func (f *fixture) locationChanges() []ir.Action {
	return f.store.DispatchedOfType(routing.LocationChangeType)
}

// =============================================================================
// Construction
// =============================================================================

func TestSync_MissingRoutingState(t *testing.T) {
	h := testutil.NewRecordingHistory("/")
	s, err := store.New(func(state any, action ir.Action) any {
		return map[string]any{"other": 1}
	}, store.WithLogger(testutil.DiscardLogger()))
	require.NoError(t, err)

	synced, err := SyncHistoryWithStore(h, s, WithLogger(testutil.DiscardLogger()))

	require.Error(t, err)
	assert.Nil(t, synced)
	assert.True(t, IsMissingRoutingState(err))
	assert.Contains(t, err.Error(), "state.routing")
	assert.Contains(t, err.Error(), "selectLocationState")
	assert.Equal(t, 0, s.ListenerCount(), "no store subscription before the check")
	assert.Equal(t, 0, h.ListenerCount(), "no history subscription before the check")
	assert.Empty(t, h.Transitions())
}

func TestSync_MissingRoutingState_CustomSelector(t *testing.T) {
	f := newFixture(t, "/")

	_, err := SyncHistoryWithStore(f.history, f.store,
		WithSelectLocationState(SelectByKey("nav")),
		WithLogger(testutil.DiscardLogger()),
	)

	var ee *Error
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, ErrCodeMissingRoutingState, ee.Code)
	assert.Equal(t, "custom", ee.Details["selector"])
}

func TestSync_MissingRoutingState_NonMapState(t *testing.T) {
	h := testutil.NewRecordingHistory("/")
	s, err := store.New(func(any, ir.Action) any { return 7 }, store.WithLogger(testutil.DiscardLogger()))
	require.NoError(t, err)

	_, err = SyncHistoryWithStore(h, s)
	assert.True(t, IsMissingRoutingState(err))
}

func TestSync_NilArguments(t *testing.T) {
	f := newFixture(t, "/")

	_, err := SyncHistoryWithStore(nil, f.store)
	var ee *Error
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, ErrCodeInvalidArgument, ee.Code)

	_, err = SyncHistoryWithStore(f.history, nil)
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, ErrCodeInvalidArgument, ee.Code)
}

func TestSync_CustomSelector(t *testing.T) {
	h := testutil.NewRecordingHistory("/nested")
	root := store.CombineReducers(map[string]store.Reducer{"nav": routing.NewReducer(h)})
	s, err := store.New(root, store.WithLogger(testutil.DiscardLogger()))
	require.NoError(t, err)

	synced, err := SyncHistoryWithStore(h, s,
		WithSelectLocationState(SelectByKey("nav")),
		WithLogger(testutil.DiscardLogger()),
	)
	require.NoError(t, err)
	defer synced.Unsubscribe()

	require.NoError(t, h.Push(ir.NewLocation("/moved")))
	slice := SelectByKey("nav")(s.GetState())
	require.NotNil(t, slice)
	assert.Equal(t, "/moved", slice.LocationBeforeTransitions.Pathname)
}

// =============================================================================
// Initial sync
// =============================================================================

func TestSync_InitialAlignment(t *testing.T) {
	f := newFixture(t, "/home")
	initial := f.storeLocation(t)

	synced := f.sync(t)

	transitions := f.history.Transitions()
	require.Len(t, transitions, 1, "exactly one transition at construction")
	assert.Equal(t, ir.NavPush, transitions[0].Action)
	assert.Equal(t, "/home", transitions[0].Pathname)
	assert.NotSame(t, initial, transitions[0], "transition carries a copy with PUSH")

	assert.Same(t, initial, synced.CurrentLocation())
	assert.Empty(t, f.locationChanges(), "no dispatch at construction")
	assert.Equal(t, 1, f.history.Len(), "history already matched the store")
	assert.False(t, synced.Replaying())
}

func TestSync_InitialAlignment_StoreAhead(t *testing.T) {
	f := newFixture(t, "/home")
	ahead := ir.NewLocation("/restored")
	require.NoError(t, f.travelTo(ahead))

	synced := f.sync(t)

	assert.Equal(t, "/restored", f.history.GetCurrentLocation().Pathname)
	assert.Same(t, ahead, synced.CurrentLocation())
	assert.Empty(t, f.locationChanges())
}

func TestSync_NoAdjustURLOnReplay(t *testing.T) {
	f := newFixture(t, "/home")
	before := f.store.ListenerCount()

	synced := f.sync(t, WithAdjustURLOnReplay(false))

	assert.Empty(t, f.history.Transitions())
	assert.Equal(t, before, f.store.ListenerCount(), "no engine store subscription")
	assert.Nil(t, synced.CurrentLocation())

	require.NoError(t, f.travelTo(ir.NewLocation("/elsewhere")))
	assert.Empty(t, f.history.Transitions(), "store changes never reach history")
	assert.Equal(t, "/home", f.history.GetCurrentLocation().Pathname)
}

// =============================================================================
// Navigation -> store
// =============================================================================

func TestSync_HistoryPushDispatchesOnce(t *testing.T) {
	f := newFixture(t, "/")
	synced := f.sync(t)

	require.NoError(t, f.history.Push(ir.NewLocation("/a")))

	changes := f.locationChanges()
	require.Len(t, changes, 1)
	current := f.history.GetCurrentLocation()
	assert.Same(t, current, changes[0].Payload)
	assert.Same(t, current, f.storeLocation(t))
	assert.Same(t, current, synced.CurrentLocation())
	assert.Len(t, f.history.Transitions(), 1, "only the construction transition")
}

func TestSync_NoLoopOverManyNavigations(t *testing.T) {
	f := newFixture(t, "/")
	f.sync(t)

	for _, p := range []string{"/a", "/b", "/c"} {
		require.NoError(t, f.history.Push(ir.NewLocation(p)))
	}
	require.NoError(t, f.history.GoBack())
	require.NoError(t, f.history.Replace(ir.NewLocation("/b2")))

	assert.Len(t, f.locationChanges(), 5)
	assert.Len(t, f.history.Transitions(), 1)
	assert.Equal(t, "/b2", f.storeLocation(t).Pathname)
}

func TestSync_GoBackDispatchesPop(t *testing.T) {
	f := newFixture(t, "/", "/a")
	f.sync(t)

	require.NoError(t, f.history.GoBack())

	changes := f.locationChanges()
	require.Len(t, changes, 1)
	loc := changes[0].Payload.(*ir.Location)
	assert.Equal(t, ir.NavPop, loc.Action)
	assert.Equal(t, "/", loc.Pathname)
}

func TestSync_RouterMiddlewareRoundTrip(t *testing.T) {
	f := newFixture(t, "/")
	synced := f.sync(t)

	var seen []string
	_, err := synced.Listen(func(loc *ir.Location) error {
		seen = append(seen, loc.Pathname)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, f.store.Dispatch(routing.Push(ir.NewLocation("/via-store"))))

	assert.Equal(t, "/via-store", f.history.GetCurrentLocation().Pathname)
	assert.Equal(t, "/via-store", f.storeLocation(t).Pathname)
	assert.Equal(t, []string{"/", "/via-store"}, seen)
	assert.Len(t, f.history.Transitions(), 1)
}

// =============================================================================
// Store -> navigation
// =============================================================================

func TestSync_TimeTravelTransitionsOnce(t *testing.T) {
	f := newFixture(t, "/")
	synced := f.sync(t)
	require.NoError(t, f.history.Push(ir.NewLocation("/a")))
	dispatchesBefore := len(f.locationChanges())

	target := ir.NewLocation("/travelled")
	require.NoError(t, f.travelTo(target))

	transitions := f.history.Transitions()
	require.Len(t, transitions, 2)
	assert.Equal(t, ir.NavPush, transitions[1].Action)
	assert.Equal(t, "/travelled", transitions[1].Pathname)
	assert.Equal(t, "/travelled", f.history.GetCurrentLocation().Pathname)

	assert.Len(t, f.locationChanges(), dispatchesBefore, "the history echo is not dispatched back")
	assert.Same(t, target, synced.CurrentLocation())
	assert.Same(t, target, f.storeLocation(t), "store keeps the travelled location")
	assert.False(t, synced.Replaying())
}

func TestSync_StoreDispatchedLocationChange(t *testing.T) {
	f := newFixture(t, "/")
	f.sync(t)

	require.NoError(t, f.store.Dispatch(routing.LocationChange(ir.NewLocation("/from-store"))))

	assert.Len(t, f.locationChanges(), 1, "only the dispatch made here")
	assert.Len(t, f.history.Transitions(), 2)
	assert.Equal(t, "/from-store", f.history.GetCurrentLocation().Pathname)
}

func TestSync_UnrelatedStoreChangeIgnored(t *testing.T) {
	f := newFixture(t, "/")
	f.sync(t)

	require.NoError(t, f.store.Dispatch(ir.Action{Type: "app/UNRELATED"}))

	assert.Len(t, f.history.Transitions(), 1)
	assert.Empty(t, f.locationChanges())
}

func TestSync_ReplayingDuringTransition(t *testing.T) {
	f := newFixture(t, "/")
	synced := f.sync(t)

	var replayingSeen []bool
	unlisten, err := f.history.Listen(func(*ir.Location) error {
		replayingSeen = append(replayingSeen, synced.Replaying())
		return nil
	})
	require.NoError(t, err)
	defer unlisten()

	require.NoError(t, f.travelTo(ir.NewLocation("/t")))
	require.NoError(t, f.history.Push(ir.NewLocation("/p")))

	assert.Equal(t, []bool{true, false}, replayingSeen)
}

// =============================================================================
// Listen
// =============================================================================

func TestListen_ImmediateCallback(t *testing.T) {
	f := newFixture(t, "/start")
	synced := f.sync(t)

	var got []*ir.Location
	_, err := synced.Listen(func(loc *ir.Location) error {
		got = append(got, loc)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Same(t, f.storeLocation(t), got[0])
}

func TestListen_FollowsStore(t *testing.T) {
	f := newFixture(t, "/")
	synced := f.sync(t)

	var paths []string
	_, err := synced.Listen(func(loc *ir.Location) error {
		paths = append(paths, loc.Pathname)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, f.history.Push(ir.NewLocation("/a")))
	require.NoError(t, f.store.Dispatch(ir.Action{Type: "app/UNRELATED"}))
	require.NoError(t, f.travelTo(ir.NewLocation("/b")))

	assert.Equal(t, []string{"/", "/a", "/b"}, paths)
}

func TestListen_NoAdjustURLOnReplayNeverPublishesNil(t *testing.T) {
	f := newFixture(t, "/home")
	synced := f.sync(t, WithAdjustURLOnReplay(false))

	var got []*ir.Location
	_, err := synced.Listen(func(loc *ir.Location) error {
		got = append(got, loc)
		return nil
	})
	require.NoError(t, err)

	// Store changes before any navigation: the engine has nothing to publish.
	require.NoError(t, f.store.Dispatch(ir.Action{Type: "app/UNRELATED"}))
	require.NoError(t, f.travelTo(ir.NewLocation("/elsewhere")))
	require.Len(t, got, 1, "only the immediate callback")

	require.NoError(t, f.history.Push(ir.NewLocation("/a")))

	require.Len(t, got, 2)
	for i, loc := range got {
		require.NotNil(t, loc, "call %d", i)
	}
	assert.Equal(t, "/home", got[0].Pathname)
	assert.Equal(t, "/a", got[1].Pathname)
}

func TestListen_ImmediateCallbackError(t *testing.T) {
	f := newFixture(t, "/")
	synced := f.sync(t)
	before := f.store.ListenerCount()
	boom := errors.New("listener refused")

	unlisten, err := synced.Listen(func(*ir.Location) error { return boom })

	assert.ErrorIs(t, err, boom)
	assert.Nil(t, unlisten)
	assert.Equal(t, before, f.store.ListenerCount())
}

func TestListen_NilListener(t *testing.T) {
	f := newFixture(t, "/")
	synced := f.sync(t)

	_, err := synced.Listen(nil)
	assert.Error(t, err)
}

func TestListen_Isolation(t *testing.T) {
	f := newFixture(t, "/")
	synced := f.sync(t)

	aCalls, bCalls := 0, 0
	unlistenA, err := synced.Listen(func(*ir.Location) error {
		aCalls++
		return nil
	})
	require.NoError(t, err)
	_, err = synced.Listen(func(*ir.Location) error {
		bCalls++
		return nil
	})
	require.NoError(t, err)

	unlistenA()
	unlistenA()

	require.NoError(t, f.history.Push(ir.NewLocation("/a")))

	assert.Equal(t, 1, aCalls, "only the immediate call")
	assert.Equal(t, 2, bCalls)
}

func TestListen_UnlistenDuringNotification(t *testing.T) {
	f := newFixture(t, "/")
	synced := f.sync(t)

	var unlistenB func()
	bCalls := 0
	_, err := synced.Listen(func(loc *ir.Location) error {
		if loc.Pathname == "/a" {
			unlistenB()
		}
		return nil
	})
	require.NoError(t, err)
	unlistenBFn, err := synced.Listen(func(*ir.Location) error {
		bCalls++
		return nil
	})
	require.NoError(t, err)
	unlistenB = unlistenBFn

	require.NoError(t, f.history.Push(ir.NewLocation("/a")))

	assert.Equal(t, 1, bCalls, "cancelled mid-dispatch, so only the immediate call")
}

func TestListen_ErrorPropagatesToNavigation(t *testing.T) {
	f := newFixture(t, "/")
	synced := f.sync(t)
	boom := errors.New("view failed")

	_, err := synced.Listen(func(loc *ir.Location) error {
		if loc.Pathname == "/bad" {
			return boom
		}
		return nil
	})
	require.NoError(t, err)

	err = f.history.Push(ir.NewLocation("/bad"))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "/bad", f.storeLocation(t).Pathname, "the store already moved")
}

// =============================================================================
// Unsubscribe
// =============================================================================

func TestUnsubscribe_StopsBothDirections(t *testing.T) {
	f := newFixture(t, "/")
	storeListenersBefore := f.store.ListenerCount()
	synced := f.sync(t)
	require.Equal(t, storeListenersBefore+1, f.store.ListenerCount())
	require.Equal(t, 1, f.history.ListenerCount())

	synced.Unsubscribe()
	synced.Unsubscribe()

	assert.Equal(t, storeListenersBefore, f.store.ListenerCount())
	assert.Equal(t, 0, f.history.ListenerCount())

	require.NoError(t, f.history.Push(ir.NewLocation("/a")))
	assert.Empty(t, f.locationChanges())

	require.NoError(t, f.travelTo(ir.NewLocation("/b")))
	assert.Len(t, f.history.Transitions(), 1)
}

func TestUnsubscribe_LeavesListeners(t *testing.T) {
	f := newFixture(t, "/")
	synced := f.sync(t)

	_, err := synced.Listen(func(*ir.Location) error { return nil })
	require.NoError(t, err)
	before := f.store.ListenerCount()

	synced.Unsubscribe()

	assert.Equal(t, before-1, f.store.ListenerCount(), "only the engine's own subscription is released")
}

func TestUnsubscribe_NoAdjustURLOnReplay(t *testing.T) {
	f := newFixture(t, "/")
	before := f.store.ListenerCount()
	synced := f.sync(t, WithAdjustURLOnReplay(false))

	synced.Unsubscribe()

	assert.Equal(t, before, f.store.ListenerCount())
	assert.Equal(t, 0, f.history.ListenerCount())
}

// =============================================================================
// Errors
// =============================================================================

func TestSync_DispatchErrorPropagates(t *testing.T) {
	f := newFixture(t, "/")
	synced := f.sync(t)
	boom := errors.New("store rejected")
	f.store.FailNextDispatch(boom)

	err := f.history.Push(ir.NewLocation("/a"))

	assert.ErrorIs(t, err, boom)
	assert.False(t, synced.Replaying())
}

func TestSync_TransitionErrorResetsGuard(t *testing.T) {
	f := newFixture(t, "/")
	synced := f.sync(t)
	boom := errors.New("provider refused")
	f.history.FailNextTransition(boom)

	err := f.travelTo(ir.NewLocation("/t"))

	assert.ErrorIs(t, err, boom)
	assert.False(t, synced.Replaying(), "guard released after a failed transition")

	require.NoError(t, f.history.Push(ir.NewLocation("/after")))
	assert.Equal(t, "/after", f.storeLocation(t).Pathname)
}

func TestSync_InitialAlignmentErrorUnsubscribes(t *testing.T) {
	f := newFixture(t, "/")
	before := f.store.ListenerCount()
	boom := errors.New("provider refused")
	f.history.FailNextTransition(boom)

	synced, err := SyncHistoryWithStore(f.history, f.store, WithLogger(testutil.DiscardLogger()))

	assert.ErrorIs(t, err, boom)
	assert.Nil(t, synced)
	assert.Equal(t, before, f.store.ListenerCount())
	assert.Equal(t, 0, f.history.ListenerCount())
}

// =============================================================================
// Delegation
// =============================================================================

func TestSyncedHistory_DelegatesNavigation(t *testing.T) {
	f := newFixture(t, "/")
	synced := f.sync(t)

	require.NoError(t, synced.Push(ir.NewLocation("/a")))
	require.NoError(t, synced.Push(ir.NewLocation("/b")))
	require.NoError(t, synced.GoBack())

	assert.Equal(t, "/a", synced.GetCurrentLocation().Pathname)
	assert.Equal(t, "/a", f.storeLocation(t).Pathname)
	assert.Len(t, f.locationChanges(), 3)
}

func TestReplayMode_String(t *testing.T) {
	assert.Equal(t, "idle", modeIdle.String())
	assert.Equal(t, "replaying_to_navigation", modeReplayingToNavigation.String())
	assert.Equal(t, "replayMode(9)", replayMode(9).String())
}
