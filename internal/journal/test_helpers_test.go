package journal

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/routesync/internal/testutil"
)

// createTestJournal opens a journal in a temp dir with a fixed session id.
func createTestJournal(t *testing.T, opts ...Option) *Journal {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	opts = append([]Option{WithSessionIDs(testutil.NewFixedSessionGenerator("session-1"))}, opts...)
	j, err := Open(path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

// createTestSession opens a journal and starts "session-1" in it.
func createTestSession(t *testing.T, opts ...Option) (*Journal, string) {
	t.Helper()
	j := createTestJournal(t, opts...)
	id, err := j.NewSession(context.Background(), "test")
	require.NoError(t, err)
	return j, id
}
