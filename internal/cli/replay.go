package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/routesync/internal/engine"
	"github.com/roach88/routesync/internal/ir"
	"github.com/roach88/routesync/internal/journal"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Session  string
	To       int64 // negative means the last recorded seq
	Initial  []string
}

// ReplayResult holds the replay output.
type ReplayResult struct {
	Session       string       `json:"session"`
	Seq           int64        `json:"seq"`
	LastSeq       int64        `json:"last_seq"`
	Store         LocationView `json:"store"`
	History       LocationView `json:"history"`
	Fingerprint   string       `json:"fingerprint,omitempty"`
	Deterministic bool         `json:"deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Time-travel a recorded session and move the history with it",
		Long: `Rebuild the store state of a recorded session as of a journal seq,
swap it into a fresh synced store, and report where the history ended up.

The session is rebuilt twice and the two locations are compared by
fingerprint to verify the reducers are deterministic. Seq 0 is the
initial state.

Exit codes:
  0 - Replay is deterministic
  1 - Determinism verification failed
  2 - Command error (unknown session, seq out of range, etc.)

Examples:
  routesync replay --session 0190a5d2-...
  routesync replay --session 0190a5d2-... --to 3
  routesync replay --db ./journal.db --session 0190a5d2-... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (default from config)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session to replay (required)")
	_ = cmd.MarkFlagRequired("session")
	cmd.Flags().Int64Var(&opts.To, "to", -1, "journal seq to travel to (default: last)")
	cmd.Flags().StringSliceVar(&opts.Initial, "initial", []string{"/"}, "initial history entries the session started from")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	logger := opts.logger
	formatter := opts.formatter(cmd)

	j, err := openJournal(opts.journalPath(opts.Database), journal.WithLogger(opts.logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	sess, err := j.ReadSession(ctx, opts.Session)
	if errors.Is(err, journal.ErrSessionNotFound) {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "unknown session", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}

	to := opts.To
	if to < 0 {
		to = sess.LastSeq
	}

	a, err := newApp(ctx, opts.cfg, j, sess.ID, appOptions{initial: opts.Initial}, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to sync history", err)
	}
	defer a.close()

	if _, err := j.TimeTravel(ctx, a.store, a.reducer, sess.ID, to); err != nil {
		return WrapExitError(ExitCommandError, "time travel failed", err)
	}

	result := ReplayResult{
		Session: sess.ID,
		Seq:     to,
		LastSeq: sess.LastSeq,
		Store:   viewOf(a.storeLocation()),
		History: viewOf(a.history.GetCurrentLocation()),
	}

	result.Fingerprint, result.Deterministic, err = verifyDeterminism(ctx, a, to)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to verify determinism", err)
	}
	logger.Debug("replay complete",
		"session", sess.ID,
		"seq", to,
		"deterministic", result.Deterministic,
	)

	if formatter.IsJSON() {
		if !result.Deterministic {
			if err := formatter.Failure(result); err != nil {
				return err
			}
		} else if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputReplayText(cmd, result)
	}

	if !result.Deterministic {
		return NewExitError(ExitFailure, "replay is not deterministic")
	}
	return nil
}

// verifyDeterminism rebuilds the state twice and compares the location
// fingerprints.
func verifyDeterminism(ctx context.Context, a *app, to int64) (string, bool, error) {
	entries, err := a.journal.ReadActions(ctx, a.session)
	if err != nil {
		return "", false, err
	}

	var prints [2]string
	for i := range prints {
		slice := engine.SelectByKey(a.key)(journal.Reconstruct(a.reducer, entries, to))
		if slice == nil || slice.LocationBeforeTransitions == nil {
			return "", false, fmt.Errorf("no location at seq %d", to)
		}
		prints[i], err = ir.Fingerprint(slice.LocationBeforeTransitions)
		if err != nil {
			return "", false, err
		}
	}
	return prints[0], prints[0] == prints[1], nil
}

func outputReplayText(cmd *cobra.Command, result ReplayResult) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Session %s at seq %d of %d\n", result.Session, result.Seq, result.LastSeq)
	fmt.Fprintf(w, "  store:   %s\n", result.Store)
	fmt.Fprintf(w, "  history: %s\n", result.History)
	if result.Deterministic {
		fmt.Fprintf(w, "✓ deterministic (%s)\n", result.Fingerprint)
	} else {
		fmt.Fprintln(w, "✗ NOT deterministic")
	}
}
