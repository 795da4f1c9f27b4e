package journal

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added index on actions.fingerprint
const currentSchemaVersion = 1

// MemoryPath opens a private in-memory journal.
const MemoryPath = ":memory:"

// Journal provides durable storage for recorded store actions.
// Uses SQLite with WAL mode for concurrent read access.
type Journal struct {
	db       *sql.DB
	sessions SessionIDGenerator
	logger   *slog.Logger
}

// Option configures a Journal.
type Option func(*Journal)

// WithSessionIDs sets the session id generator.
// Default: UUIDv7SessionGenerator.
func WithSessionIDs(g SessionIDGenerator) Option {
	return func(j *Journal) {
		j.sessions = g
	}
}

// WithLogger sets the logger used by Recorder and TimeTravel.
// Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(j *Journal) {
		if l != nil {
			j.logger = l
		}
	}
}

// Open creates or opens a SQLite journal at the given path.
// Applies required pragmas and migrations automatically.
//
// This function is idempotent - safe to call multiple times.
func Open(path string, opts ...Option) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows one writer; a single connection also keeps an
	// in-memory database alive and shared.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	j := &Journal{db: db, sessions: UUIDv7SessionGenerator{}, logger: slog.Default()}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Journal methods when available.
func (j *Journal) DB() *sql.DB {
	return j.db
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 indexes fingerprints so a location can be found across
// sessions.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_actions_fingerprint
		ON actions(fingerprint)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// schemaVersion returns PRAGMA user_version. Used for testing.
func (j *Journal) schemaVersion() (int, error) {
	var version int
	err := j.db.QueryRow("PRAGMA user_version").Scan(&version)
	return version, err
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (j *Journal) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := j.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
