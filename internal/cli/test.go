package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/routesync/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update   bool   // regenerate golden files
	Filter   string // scenario filter (glob pattern)
	Parallel int    // scenarios run at once
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`

	// Diff is a unified diff of the indented golden and actual traces
	// when they differ.
	Diff string `json:"diff,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run navigation scenarios",
		Long: `Run scenario files (.yaml, .yml or .cue) through the sync harness.

Each scenario runs against a fresh in-memory journal. Assertions are
checked, and when <scenarios-dir>/golden/<name>.golden exists the trace
must match it byte for byte.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  routesync test ./scenarios
  routesync test ./scenarios --filter "travel-*"
  routesync test ./scenarios --update
  routesync test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().IntVarP(&opts.Parallel, "parallel", "p", runtime.GOMAXPROCS(0), "number of scenarios to run at once")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	// Validate directory
	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	// Find scenario files
	scenarioFiles, err := findScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(scenarioFiles)),
		Total:     len(scenarioFiles),
	}

	if len(scenarioFiles) == 0 {
		if formatter.IsJSON() {
			return formatter.Success(result)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	if opts.Parallel < 1 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--parallel must be at least 1, got %d", opts.Parallel))
	}

	// Scenarios are independent; each gets its own in-memory journal.
	// Results keep file order regardless of completion order.
	results := make([]ScenarioResult, len(scenarioFiles))
	var g errgroup.Group
	g.SetLimit(opts.Parallel)
	for i, scenarioFile := range scenarioFiles {
		g.Go(func() error {
			results[i] = runScenario(scenarioFile, opts)
			return nil
		})
	}
	_ = g.Wait()

	for _, scenResult := range results {
		result.Scenarios = append(result.Scenarios, scenResult)

		if scenResult.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
		if !formatter.IsJSON() {
			printScenarioResult(cmd, scenResult)
		}
	}

	// Output results
	if formatter.IsJSON() {
		if result.Failed > 0 {
			if err := formatter.Failure(result); err != nil {
				return err
			}
		} else if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
		if result.Failed == 0 {
			fmt.Fprintln(w, "✓ All scenarios passed")
		}
	}

	if result.Failed > 0 {
		// Test failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// findScenarioFiles finds all scenario files in a directory, skipping the
// golden directory.
func findScenarioFiles(dir string, filter string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if info.Name() == "golden" {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(path)
		if !isScenarioFile(path) {
			return nil
		}

		// Apply filter if specified
		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

func isScenarioFile(path string) bool {
	switch filepath.Ext(path) {
	case ".yaml", ".yml", ".cue":
		return true
	}
	return false
}

// runScenario executes a single scenario and returns the result.
func runScenario(scenarioFile string, opts *TestOptions) ScenarioResult {
	failed := func(name string, errs ...string) ScenarioResult {
		return ScenarioResult{Name: name, Pass: false, Errors: errs}
	}

	scenario, err := harness.LoadScenario(scenarioFile)
	if err != nil {
		return failed(filepath.Base(scenarioFile), fmt.Sprintf("failed to load scenario: %v", err))
	}

	result, err := harness.RunWithLogger(scenario, opts.logger)
	if err != nil {
		return failed(scenario.Name, fmt.Sprintf("execution failed: %v", err))
	}

	trace, err := harness.MarshalTrace(scenario.Name, result)
	if err != nil {
		return failed(scenario.Name, fmt.Sprintf("failed to marshal trace: %v", err))
	}

	goldenPath := goldenFilePath(scenarioFile, scenario.Name)
	if opts.Update {
		if err := writeGoldenFile(goldenPath, trace); err != nil {
			return failed(scenario.Name, fmt.Sprintf("failed to update golden file: %v", err))
		}
	} else {
		golden, err := os.ReadFile(goldenPath)
		switch {
		case os.IsNotExist(err):
			// No golden file - use assertion-based validation only
		case err != nil:
			return failed(scenario.Name, fmt.Sprintf("failed to read golden file: %v", err))
		case !bytes.Equal(golden, trace):
			r := failed(scenario.Name, append(result.Errors, "trace does not match golden file (run with --update to regenerate)")...)
			r.Diff = traceDiff(goldenPath, golden, trace)
			return r
		}
	}

	if !result.Pass {
		return failed(scenario.Name, result.Errors...)
	}
	return ScenarioResult{Name: scenario.Name, Pass: true}
}

// traceDiff renders a unified diff between the golden and actual traces.
// Both are canonical one-line JSON, so they are indented first to give
// the diff lines to work with.
func traceDiff(goldenPath string, golden, actual []byte) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(indentJSON(golden)),
		B:        difflib.SplitLines(indentJSON(actual)),
		FromFile: goldenPath,
		ToFile:   "actual",
		Context:  2,
	})
	if err != nil {
		return ""
	}
	return diff
}

// indentJSON indents data, or returns it unchanged if it is not JSON.
func indentJSON(data []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return string(data) + "\n"
	}
	buf.WriteByte('\n')
	return buf.String()
}

// goldenFilePath returns the path to the golden file for a scenario.
func goldenFilePath(scenarioFile, name string) string {
	return filepath.Join(filepath.Dir(scenarioFile), "golden", name+".golden")
}

// writeGoldenFile writes the current trace as the golden file.
func writeGoldenFile(goldenPath string, trace []byte) error {
	if err := os.MkdirAll(filepath.Dir(goldenPath), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(goldenPath, trace, 0o644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

func printScenarioResult(cmd *cobra.Command, r ScenarioResult) {
	w := cmd.OutOrStdout()
	if r.Pass {
		fmt.Fprintf(w, "✓ %s\n", r.Name)
		return
	}
	fmt.Fprintf(w, "✗ %s\n", r.Name)
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
	for _, line := range difflib.SplitLines(r.Diff) {
		if line = strings.TrimRight(line, "\n"); line != "" {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
}
