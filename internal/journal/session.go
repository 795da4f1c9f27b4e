package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/routesync/internal/ir"
)

// SessionIDGenerator produces session ids.
// Implemented by UUIDv7SessionGenerator (production) and
// testutil.FixedSessionGenerator (tests).
type SessionIDGenerator interface {
	Generate() string
}

// UUIDv7SessionGenerator generates time-sortable UUIDv7 session ids.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7SessionGenerator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7SessionGenerator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Session describes one recording.
type Session struct {
	ID            string `json:"id"`
	Label         string `json:"label,omitempty"`
	EngineVersion string `json:"engine_version"`
	IRVersion     string `json:"ir_version"`
	Actions       int    `json:"actions"`
	LastSeq       int64  `json:"last_seq"`
}

// ErrSessionNotFound is returned when a session id is not in the journal.
var ErrSessionNotFound = errors.New("journal: session not found")

// NewSession starts a recording and returns its id.
// Creating a session whose id already exists is a no-op.
func (j *Journal) NewSession(ctx context.Context, label string) (string, error) {
	id := j.sessions.Generate()
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO sessions (id, label, engine_version, ir_version)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, label, ir.EngineVersion, ir.IRVersion)
	if err != nil {
		return "", fmt.Errorf("new session: %w", err)
	}
	return id, nil
}

// ReadSession returns a session with its action count and last seq.
// Returns ErrSessionNotFound if it does not exist.
func (j *Journal) ReadSession(ctx context.Context, id string) (Session, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT s.id, s.label, s.engine_version, s.ir_version,
		       COUNT(a.id), COALESCE(MAX(a.seq), 0)
		FROM sessions s
		LEFT JOIN actions a ON a.session_id = s.id
		WHERE s.id = ?
		GROUP BY s.id
	`, id)

	var sess Session
	err := row.Scan(&sess.ID, &sess.Label, &sess.EngineVersion, &sess.IRVersion, &sess.Actions, &sess.LastSeq)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return Session{}, fmt.Errorf("read session: %w", err)
	}
	return sess, nil
}

// ReadSessions lists every session ordered by id. UUIDv7 ids sort by
// creation time.
func (j *Journal) ReadSessions(ctx context.Context) ([]Session, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT s.id, s.label, s.engine_version, s.ir_version,
		       COUNT(a.id), COALESCE(MAX(a.seq), 0)
		FROM sessions s
		LEFT JOIN actions a ON a.session_id = s.id
		GROUP BY s.id
		ORDER BY s.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Label, &sess.EngineVersion, &sess.IRVersion, &sess.Actions, &sess.LastSeq); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}
