package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/roach88/routesync/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // config file; empty means $ROUTESYNC_CONFIG or the default location

	// Filled in by the root command before any subcommand runs.
	cfg     config.Config
	logger  *slog.Logger
	logFile io.Closer
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the routesync CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "routesync",
		Short: "routesync - keep navigation history and store in step",
		Long: `Synchronize a navigation history with an application store.

Navigations are dispatched into the store as LOCATION_CHANGE actions,
recorded in a SQLite journal, and can be replayed to any earlier point,
moving the history along with the store.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}

			cfg, err := config.Load(opts.Config)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load config", err)
			}
			opts.cfg = cfg

			level := cfg.SlogLevel()
			if opts.Verbose {
				level = slog.LevelDebug
			}
			opts.logger = slog.New(slog.NewTextHandler(opts.logWriter(cmd), &slog.HandlerOptions{
				Level: level,
			}))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.logFile == nil {
				return nil
			}
			return opts.logFile.Close()
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "config file (TOML)")

	// Add subcommands
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// logWriter returns stderr, or a rotating file when log.file is set.
func (o *RootOptions) logWriter(cmd *cobra.Command) io.Writer {
	if o.cfg.Log.File == "" {
		return cmd.ErrOrStderr()
	}
	f := &lumberjack.Logger{
		Filename:   o.cfg.Log.File,
		MaxSize:    o.cfg.Log.MaxSizeMB,
		MaxBackups: o.cfg.Log.MaxBackups,
	}
	o.logFile = f
	return f
}

// formatter builds the OutputFormatter for a command.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// journalPath returns the --db override or the configured journal path.
func (o *RootOptions) journalPath(override string) string {
	if override != "" {
		return override
	}
	return o.cfg.Journal.Path
}
