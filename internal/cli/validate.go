package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/routesync/internal/harness"
)

// FileValidation is the validation outcome of one scenario file.
type FileValidation struct {
	File  string `json:"file"`
	Name  string `json:"name,omitempty"`
	Steps int    `json:"steps,omitempty"`
	Error string `json:"error,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Files []FileValidation `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario>...",
		Short: "Validate scenario files without running them",
		Long: `Parse and validate scenario files (.yaml, .yml or .cue).

Checks for unknown fields, missing required fields, malformed steps and
unknown assertion types without running anything.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, files []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	result := ValidationResult{Valid: true, Files: make([]FileValidation, 0, len(files))}
	for _, file := range files {
		fv := FileValidation{File: file}
		scenario, err := harness.LoadScenario(file)
		if err != nil {
			fv.Error = err.Error()
			result.Valid = false
		} else {
			fv.Name = scenario.Name
			fv.Steps = len(scenario.Steps)
		}
		formatter.VerboseLog("validated %s", file)
		result.Files = append(result.Files, fv)
	}

	if formatter.IsJSON() {
		if !result.Valid {
			if err := formatter.Error(ErrCodeScenarioInvalid, "scenario validation failed", result); err != nil {
				return err
			}
		} else if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		for _, fv := range result.Files {
			if fv.Error != "" {
				fmt.Fprintf(w, "✗ %s\n  %s\n", fv.File, fv.Error)
				continue
			}
			fmt.Fprintf(w, "✓ %s (%s, %d steps)\n", fv.File, fv.Name, fv.Steps)
		}
	}

	if !result.Valid {
		return NewExitError(ExitFailure, "scenario validation failed")
	}
	return nil
}
