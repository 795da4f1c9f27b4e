package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "routesync", cmd.Use)
	assert.Contains(t, cmd.Long, "LOCATION_CHANGE")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"run", "replay", "trace", "test", "validate"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "", configFlag.DefValue)
}

func TestRunCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	runCmd, _, err := cmd.Find([]string{"run"})
	require.NoError(t, err)

	dbFlag := runCmd.Flags().Lookup("db")
	require.NotNil(t, dbFlag)
	// --db falls back to the configured journal path
	assert.Equal(t, "", dbFlag.DefValue)

	initialFlag := runCmd.Flags().Lookup("initial")
	require.NotNil(t, initialFlag)
	assert.Equal(t, "[/]", initialFlag.DefValue)
}

func TestReplayCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	replayCmd, _, err := cmd.Find([]string{"replay"})
	require.NoError(t, err)

	require.NotNil(t, replayCmd.Flags().Lookup("session"))
	toFlag := replayCmd.Flags().Lookup("to")
	require.NotNil(t, toFlag)
	assert.Equal(t, "-1", toFlag.DefValue)
}

func TestTraceCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	traceCmd, _, err := cmd.Find([]string{"trace"})
	require.NoError(t, err)

	for _, name := range []string{"db", "session", "fingerprint", "type"} {
		assert.NotNil(t, traceCmd.Flags().Lookup(name), name)
	}
}

func TestTestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	testCmd, _, err := cmd.Find([]string{"test"})
	require.NoError(t, err)

	updateFlag := testCmd.Flags().Lookup("update")
	require.NotNil(t, updateFlag)
	assert.Equal(t, "false", updateFlag.DefValue)

	filterFlag := testCmd.Flags().Lookup("filter")
	require.NotNil(t, filterFlag)

	parallelFlag := testCmd.Flags().Lookup("parallel")
	require.NotNil(t, parallelFlag)
	assert.Equal(t, "p", parallelFlag.Shorthand)
}

func TestFormatValidation(t *testing.T) {
	// Test valid formats
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	// Test invalid formats
	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	_, _, err := execute(t, "", "--format", "invalid", "trace")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestConfigErrors(t *testing.T) {
	t.Run("missing explicit file", func(t *testing.T) {
		_, _, err := execute(t, "", "--config", filepath.Join(t.TempDir(), "nope.toml"), "trace")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})

	t.Run("invalid level", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(path, []byte("[log]\nlevel = \"loud\"\n"), 0o600))

		_, _, err := execute(t, "", "--config", path, "trace")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load config")
	})
}

func TestConfigJournalPath(t *testing.T) {
	db := filepath.Join(t.TempDir(), "nested", "journal.db")
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[journal]\npath = \""+filepath.ToSlash(db)+"\"\n"), 0o600))

	_, _, err := execute(t, "push /a\n", "--config", path, "run")
	require.NoError(t, err)

	_, err = os.Stat(db)
	assert.NoError(t, err, "journal should be created at the configured path")
}

func TestConfigLogFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "routesync.log")
	path := filepath.Join(dir, "config.toml")
	cfg := "[log]\nfile = \"" + filepath.ToSlash(logPath) + "\"\n"
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))

	_, stderr, err := execute(t, "push /a\n", "--config", path, "-v", "run", "--db", filepath.Join(dir, "j.db"))
	require.NoError(t, err)
	assert.NotContains(t, stderr, "opening journal")

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "opening journal")
	assert.Contains(t, string(data), "action journaled")
	assert.NotContains(t, stderr, "action journaled")
}
