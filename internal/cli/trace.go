package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/routesync/internal/ir"
	"github.com/roach88/routesync/internal/journal"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database    string
	Session     string
	Fingerprint string
	Type        string // optional - filter to one action type
}

// TraceEntry is one journal entry in trace output.
type TraceEntry struct {
	Seq         int64  `json:"seq"`
	Session     string `json:"session"`
	Type        string `json:"type"`
	Location    string `json:"location,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	ID          string `json:"id"`
}

// TraceResult holds the trace output. Exactly one of Sessions and Entries
// is set.
type TraceResult struct {
	Sessions []journal.Session `json:"sessions,omitempty"`
	Session  *journal.Session  `json:"session,omitempty"`
	Entries  []TraceEntry      `json:"entries,omitempty"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect the journal",
		Long: `Inspect recorded sessions.

Without flags, lists every session with its action count. With --session,
lists the session's actions in seq order. With --fingerprint, lists every
LOCATION_CHANGE that carried a location with that fingerprint, across
sessions.

Examples:
  routesync trace
  routesync trace --session 0190a5d2-...
  routesync trace --session 0190a5d2-... --type @@router/LOCATION_CHANGE
  routesync trace --fingerprint 9f86d081... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (default from config)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session to list")
	cmd.Flags().StringVar(&opts.Fingerprint, "fingerprint", "", "find locations by fingerprint")
	cmd.Flags().StringVar(&opts.Type, "type", "", "filter to a specific action type")
	cmd.MarkFlagsMutuallyExclusive("session", "fingerprint")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := opts.formatter(cmd)

	j, err := openJournal(opts.journalPath(opts.Database), journal.WithLogger(opts.logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	var result TraceResult
	switch {
	case opts.Session != "":
		sess, err := j.ReadSession(ctx, opts.Session)
		if errors.Is(err, journal.ErrSessionNotFound) {
			_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
			return WrapExitError(ExitCommandError, "unknown session", err)
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read session", err)
		}
		entries, err := j.ReadActions(ctx, sess.ID)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read actions", err)
		}
		result.Session = &sess
		result.Entries = buildEntries(entries, opts.Type)

	case opts.Fingerprint != "":
		entries, err := j.FindByFingerprint(ctx, opts.Fingerprint)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to query fingerprint", err)
		}
		result.Entries = buildEntries(entries, opts.Type)

	default:
		result.Sessions, err = j.ReadSessions(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list sessions", err)
		}
	}

	if formatter.IsJSON() {
		return formatter.Success(result)
	}
	return outputTraceText(cmd, opts, result)
}

// buildEntries converts journal entries, keeping only typeFilter if set.
func buildEntries(entries []journal.Entry, typeFilter string) []TraceEntry {
	out := []TraceEntry{}
	for _, e := range entries {
		if typeFilter != "" && e.Action.Type != typeFilter {
			continue
		}
		te := TraceEntry{
			Seq:         e.Seq,
			Session:     e.SessionID,
			Type:        e.Action.Type,
			Fingerprint: e.Fingerprint,
			ID:          e.ID,
		}
		if loc, ok := e.Action.Payload.(*ir.Location); ok {
			te.Location = loc.String()
		}
		out = append(out, te)
	}
	return out
}

func outputTraceText(cmd *cobra.Command, opts *TraceOptions, result TraceResult) error {
	w := cmd.OutOrStdout()

	if opts.Session == "" && opts.Fingerprint == "" {
		if len(result.Sessions) == 0 {
			fmt.Fprintln(w, "No sessions recorded.")
			return nil
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SESSION\tLABEL\tACTIONS\tLAST SEQ")
		for _, s := range result.Sessions {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", s.ID, s.Label, s.Actions, s.LastSeq)
		}
		return tw.Flush()
	}

	if result.Session != nil {
		fmt.Fprintf(w, "Session: %s", result.Session.ID)
		if result.Session.Label != "" {
			fmt.Fprintf(w, " (%s)", result.Session.Label)
		}
		fmt.Fprintf(w, "\nEngine: %s, IR: %s\n\n", result.Session.EngineVersion, result.Session.IRVersion)
	}

	if len(result.Entries) == 0 {
		fmt.Fprintln(w, "No actions found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if opts.Fingerprint != "" {
		fmt.Fprintln(tw, "SEQ\tTYPE\tLOCATION\tSESSION")
	} else {
		fmt.Fprintln(tw, "SEQ\tTYPE\tLOCATION")
	}
	for _, e := range result.Entries {
		if opts.Fingerprint != "" {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.Seq, e.Type, e.Location, e.Session)
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", e.Seq, e.Type, e.Location)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if opts.Verbose {
		for _, e := range result.Entries {
			fmt.Fprintf(w, "  [%d] id=%s fingerprint=%s\n", e.Seq, e.ID, e.Fingerprint)
		}
	}
	return nil
}
