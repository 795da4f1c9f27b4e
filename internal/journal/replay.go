package journal

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/routesync/internal/ir"
	"github.com/roach88/routesync/internal/store"
)

// ErrSeqOutOfRange is returned when time travel targets a seq past the end
// of the session.
var ErrSeqOutOfRange = errors.New("journal: seq out of range")

// StateReplacer accepts a whole replacement state.
// Implemented by *store.Store.
type StateReplacer interface {
	ReplaceState(state any) error
}

// Reconstruct rebuilds the state after every entry with Seq <= upTo.
// It starts from reducer's INIT state, exactly as a new store would.
// entries must be in seq order, as ReadActions returns them.
func Reconstruct(reducer store.Reducer, entries []Entry, upTo int64) any {
	state := reducer(nil, ir.Action{Type: store.InitActionType})
	for _, e := range entries {
		if e.Seq > upTo {
			break
		}
		state = reducer(state, e.Action)
	}
	return state
}

// TimeTravel rebuilds session's state as of seq and swaps it into target.
// seq 0 is the INIT state.
//
// The rebuilt state shares no locations with the live store, so a synced
// History follows the jump.
func (j *Journal) TimeTravel(ctx context.Context, target StateReplacer, reducer store.Reducer, session string, seq int64) (any, error) {
	sess, err := j.ReadSession(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("time travel: %w", err)
	}
	if seq < 0 || seq > sess.LastSeq {
		return nil, fmt.Errorf("time travel: %w: %d not in [0, %d]", ErrSeqOutOfRange, seq, sess.LastSeq)
	}

	entries, err := j.ReadActions(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("time travel: %w", err)
	}

	state := Reconstruct(reducer, entries, seq)

	j.logger.Info("time travel",
		"session", session,
		"seq", seq,
		"actions", len(entries),
	)

	if err := target.ReplaceState(state); err != nil {
		return nil, fmt.Errorf("time travel: replace state: %w", err)
	}
	return state, nil
}
