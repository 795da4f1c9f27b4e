package history

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/routesync/internal/ir"
)

func newTestHistory(t *testing.T, paths ...string) *MemoryHistory {
	t.Helper()
	return NewMemoryHistory(
		WithInitialEntries(paths...),
		WithKeyGenerator(NewSequentialKeyGenerator("k")),
	)
}

// =============================================================================
// Construction
// =============================================================================

func TestNewMemoryHistory_Defaults(t *testing.T) {
	h := newTestHistory(t)

	loc := h.GetCurrentLocation()
	require.NotNil(t, loc)
	assert.Equal(t, "/", loc.Pathname)
	assert.Equal(t, ir.NavPop, loc.Action)
	assert.Equal(t, "k-1", loc.Key)
	assert.Equal(t, 1, h.Len())
}

func TestNewMemoryHistory_InitialEntriesAndIndex(t *testing.T) {
	h := NewMemoryHistory(
		WithInitialEntries("/a", "/b", "/c"),
		WithInitialIndex(1),
		WithKeyGenerator(NewSequentialKeyGenerator("k")),
	)
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, 1, h.Index())
	assert.Equal(t, "/b", h.GetCurrentLocation().Pathname)

	clamped := NewMemoryHistory(WithInitialEntries("/a", "/b"), WithInitialIndex(9))
	assert.Equal(t, 1, clamped.Index())
}

// =============================================================================
// Listen
// =============================================================================

func TestListen_NotCalledOnSubscribe(t *testing.T) {
	h := newTestHistory(t)
	calls := 0
	_, err := h.Listen(func(*ir.Location) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, calls)
}

func TestListen_NilListener(t *testing.T) {
	h := newTestHistory(t)
	_, err := h.Listen(nil)
	assert.Error(t, err)
}

func TestListen_ReceivesStoredPointer(t *testing.T) {
	h := newTestHistory(t)
	var got *ir.Location
	_, err := h.Listen(func(loc *ir.Location) error {
		got = loc
		return nil
	})
	require.NoError(t, err)

	next := &ir.Location{Pathname: "/next", Key: "explicit", Action: ir.NavPush}
	require.NoError(t, h.TransitionTo(next))

	assert.Same(t, next, got)
	assert.Same(t, next, h.GetCurrentLocation())
}

func TestListen_UnlistenIsIdempotent(t *testing.T) {
	h := newTestHistory(t)
	calls := 0
	unlisten, err := h.Listen(func(*ir.Location) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, h.ListenerCount())

	unlisten()
	unlisten()
	assert.Equal(t, 0, h.ListenerCount())

	require.NoError(t, h.Push(ir.NewLocation("/a")))
	assert.Equal(t, 0, calls)
}

func TestListen_ErrorAbortsDelivery(t *testing.T) {
	h := newTestHistory(t)
	boom := errors.New("boom")
	second := 0
	_, _ = h.Listen(func(*ir.Location) error { return boom })
	_, _ = h.Listen(func(*ir.Location) error {
		second++
		return nil
	})

	err := h.Push(ir.NewLocation("/a"))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, second)
}

func TestListen_ReentrantTransition(t *testing.T) {
	h := newTestHistory(t)
	var seen []string
	_, err := h.Listen(func(loc *ir.Location) error {
		seen = append(seen, loc.Pathname)
		if loc.Pathname == "/old" {
			return h.Replace(ir.NewLocation("/new"))
		}
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, h.Push(ir.NewLocation("/old")))
	assert.Equal(t, []string{"/old", "/new"}, seen)
	assert.Equal(t, "/new", h.GetCurrentLocation().Pathname)
}

// =============================================================================
// Transitions
// =============================================================================

func TestPush_TruncatesForwardEntries(t *testing.T) {
	h := newTestHistory(t, "/a", "/b", "/c")
	require.NoError(t, h.Go(-2))
	assert.Equal(t, "/a", h.GetCurrentLocation().Pathname)

	require.NoError(t, h.Push(ir.NewLocation("/d")))
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, 1, h.Index())

	cur := h.GetCurrentLocation()
	assert.Equal(t, "/d", cur.Pathname)
	assert.Equal(t, ir.NavPush, cur.Action)
	assert.NotEmpty(t, cur.Key)
}

func TestPush_CopiesDescriptor(t *testing.T) {
	h := newTestHistory(t)
	desc := ir.NewLocation("/a")
	require.NoError(t, h.Push(desc))

	assert.NotSame(t, desc, h.GetCurrentLocation())
	assert.Empty(t, desc.Key, "descriptor must not be mutated")
}

func TestReplace_OverwritesCurrent(t *testing.T) {
	h := newTestHistory(t, "/a", "/b")
	require.NoError(t, h.Replace(ir.NewLocation("/z")))
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, "/z", h.GetCurrentLocation().Pathname)
	assert.Equal(t, ir.NavReplace, h.GetCurrentLocation().Action)
}

func TestGo_BackAndForward(t *testing.T) {
	h := newTestHistory(t, "/a", "/b", "/c")
	var actions []ir.NavAction
	_, _ = h.Listen(func(loc *ir.Location) error {
		actions = append(actions, loc.Action)
		return nil
	})

	require.NoError(t, h.GoBack())
	assert.Equal(t, "/b", h.GetCurrentLocation().Pathname)
	require.NoError(t, h.GoForward())
	assert.Equal(t, "/c", h.GetCurrentLocation().Pathname)
	require.NoError(t, h.Go(0))

	assert.Equal(t, []ir.NavAction{ir.NavPop, ir.NavPop}, actions)
}

func TestGo_OutOfRange(t *testing.T) {
	h := newTestHistory(t, "/a")
	assert.ErrorIs(t, h.GoBack(), ErrOutOfRange)
	assert.ErrorIs(t, h.Go(5), ErrOutOfRange)
}

func TestTransitionTo_SamePlaceIsNoop(t *testing.T) {
	h := newTestHistory(t, "/a")
	calls := 0
	_, _ = h.Listen(func(*ir.Location) error {
		calls++
		return nil
	})

	require.NoError(t, h.TransitionTo(h.GetCurrentLocation().WithAction(ir.NavPush)))
	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, h.Len())
}

func TestTransitionTo_AssignsMissingKey(t *testing.T) {
	h := newTestHistory(t)
	loc := &ir.Location{Pathname: "/nokey", Action: ir.NavPush}
	require.NoError(t, h.TransitionTo(loc))

	cur := h.GetCurrentLocation()
	assert.NotSame(t, loc, cur)
	assert.Equal(t, "k-2", cur.Key)
	assert.Empty(t, loc.Key)
}

func TestTransitionTo_PopByKey(t *testing.T) {
	h := newTestHistory(t, "/a", "/b")
	first := &ir.Location{Pathname: "/a", Key: "k-1", Action: ir.NavPop}
	require.NoError(t, h.TransitionTo(first))
	assert.Equal(t, 0, h.Index())

	err := h.TransitionTo(&ir.Location{Pathname: "/zz", Key: "missing", Action: ir.NavPop})
	assert.ErrorIs(t, err, ErrUnknownEntry)
}

func TestTransitionTo_Errors(t *testing.T) {
	h := newTestHistory(t)
	assert.ErrorIs(t, h.TransitionTo(nil), ErrNilLocation)
	assert.ErrorIs(t, h.TransitionTo(&ir.Location{Pathname: "/x", Action: "JUMP"}), ErrUnknownAction)
	assert.ErrorIs(t, h.Push(nil), ErrNilLocation)
}

func TestMemoryHistory_InitialEntriesParseSearchAndHash(t *testing.T) {
	h := NewMemoryHistory(WithInitialEntries("/users?page=2#top"))

	loc := h.GetCurrentLocation()
	assert.Equal(t, "/users", loc.Pathname)
	assert.Equal(t, "?page=2", loc.Search)
	assert.Equal(t, "#top", loc.Hash)
}
