package journal

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/routesync/internal/ir"
	"github.com/roach88/routesync/internal/store"
)

// Recorder returns store middleware that journals every action passing
// through it into session, stamped with the seq after seq.Current().
//
// The action is written before it is handed on, so actions dispatched
// from listeners get later seqs than the action that triggered them,
// matching the order the reducer sees them. An action that cannot be
// journaled is rejected and never reaches the reducer. The seq is only
// claimed once the append succeeds, so a rejected action leaves no gap.
//
// Place Recorder after routing.RouterMiddleware: history-method actions
// are consumed there and have nothing to replay.
func Recorder(ctx context.Context, j *Journal, session string, seq Sequencer) store.Middleware {
	var mu sync.Mutex
	record := func(action ir.Action) (Entry, error) {
		mu.Lock()
		defer mu.Unlock()
		entry, err := j.Append(ctx, session, seq.Current()+1, action)
		if err != nil {
			return Entry{}, err
		}
		seq.Next()
		return entry, nil
	}

	return func(store.API) func(next store.DispatchFunc) store.DispatchFunc {
		return func(next store.DispatchFunc) store.DispatchFunc {
			return func(action ir.Action) error {
				entry, err := record(action)
				if err != nil {
					return fmt.Errorf("journal %s: %w", action.Type, err)
				}
				j.logger.Debug("action journaled",
					"session", session,
					"seq", entry.Seq,
					"type", action.Type,
				)
				return next(action)
			}
		}
	}
}
