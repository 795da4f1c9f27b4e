package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/routesync/internal/harness"
	"github.com/roach88/routesync/internal/journal"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Label    string
	Initial  []string

	// Sessions allows overriding the session id generator (for testing).
	// If nil, defaults to UUIDv7SessionGenerator.
	Sessions journal.SessionIDGenerator
}

// RunStep is the outcome of one input line.
type RunStep struct {
	Line     string       `json:"line"`
	History  LocationView `json:"history"`
	Store    LocationView `json:"store"`
	Error    string       `json:"error,omitempty"`
	Recorded int64        `json:"recorded"`
}

// RunResult holds the run output.
type RunResult struct {
	Session string    `json:"session"`
	Steps   []RunStep `json:"steps"`
	Failed  int       `json:"failed"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Drive a synced history from stdin and record it",
		Long: `Start a synced history and store and apply navigation steps read
from stdin, one per line. Every action that reaches the store is recorded
in a new journal session.

Steps:
  push <path>            replace <path>        dispatch <path>
  go <n>                 back                  forward
  travel <seq>           call <method> [arg]

Blank lines and lines starting with # are ignored. A failing step is
reported and the run continues.

Exit codes:
  0 - All steps applied
  1 - One or more steps failed
  2 - Command error (journal cannot be opened, etc.)

Examples:
  printf 'push /a\npush /b\nback\n' | routesync run
  routesync run --db ./journal.db --label checkout < steps.txt
  routesync run --initial / --initial /cart --format json < steps.txt`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (default from config)")
	cmd.Flags().StringVar(&opts.Label, "label", "", "session label")
	cmd.Flags().StringSliceVar(&opts.Initial, "initial", []string{"/"}, "initial history entries; the last is current")

	return cmd
}

func runSession(opts *RunOptions, cmd *cobra.Command) error {
	logger := opts.logger
	formatter := opts.formatter(cmd)

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, stopping", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	dbPath := opts.journalPath(opts.Database)
	logger.Debug("opening journal", "path", dbPath)
	jopts := []journal.Option{journal.WithLogger(logger)}
	if opts.Sessions != nil {
		jopts = append(jopts, journal.WithSessionIDs(opts.Sessions))
	}
	j, err := openJournal(dbPath, jopts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer func() {
		if closeErr := j.Close(); closeErr != nil {
			logger.Error("error closing journal", "error", closeErr)
		}
	}()
	session, err := j.NewSession(ctx, opts.Label)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start session", err)
	}

	a, err := newApp(ctx, opts.cfg, j, session, appOptions{initial: opts.Initial, record: true}, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to sync history", err)
	}
	defer a.close()

	logger.Info("session started", "session", session, "db", dbPath)

	result := RunResult{Session: session, Steps: []RunStep{}}
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		rs := RunStep{Line: line}
		if err := applyLine(ctx, a, line); err != nil {
			rs.Error = err.Error()
			result.Failed++
			logger.Warn("step failed", "line", line, "error", err)
		}
		rs.History = viewOf(a.history.GetCurrentLocation())
		rs.Store = viewOf(a.storeLocation())

		sess, err := j.ReadSession(ctx, session)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read session", err)
		}
		rs.Recorded = sess.LastSeq
		result.Steps = append(result.Steps, rs)

		if !formatter.IsJSON() {
			printRunStep(cmd, rs)
		}
	}
	if err := scanner.Err(); err != nil {
		return WrapExitError(ExitCommandError, "failed to read steps", err)
	}

	if formatter.IsJSON() {
		if result.Failed > 0 {
			if err := formatter.Failure(result); err != nil {
				return err
			}
		} else if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "session %s: %d steps, %d failed\n", session, len(result.Steps), result.Failed)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d steps failed", result.Failed, len(result.Steps)))
	}
	return nil
}

func applyLine(ctx context.Context, a *app, line string) error {
	step, err := harness.ParseStep(line)
	if err != nil {
		return err
	}
	return a.apply(ctx, step)
}

func printRunStep(cmd *cobra.Command, rs RunStep) {
	w := cmd.OutOrStdout()
	if rs.Error != "" {
		fmt.Fprintf(w, "✗ %s: %s\n", rs.Line, rs.Error)
		return
	}
	fmt.Fprintf(w, "✓ %-20s %s\n", rs.Line, rs.History)
}
