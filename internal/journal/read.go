package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/routesync/internal/ir"
)

// Entry is one journaled action.
type Entry struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	Seq         int64     `json:"seq"`
	Action      ir.Action `json:"action"`
	Fingerprint string    `json:"fingerprint,omitempty"`
}

// ErrEntryNotFound is returned when no action is recorded at a seq.
var ErrEntryNotFound = errors.New("journal: entry not found")

// ReadActions returns every action in session.
// Results are ordered deterministically: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if the session has no actions.
func (j *Journal) ReadActions(ctx context.Context, session string) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, session_id, seq, action_type, payload, fingerprint
		FROM actions
		WHERE session_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, session)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ReadAction returns the action recorded at seq in session.
// Returns ErrEntryNotFound if there is none.
func (j *Journal) ReadAction(ctx context.Context, session string, seq int64) (Entry, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT id, session_id, seq, action_type, payload, fingerprint
		FROM actions
		WHERE session_id = ? AND seq = ?
	`, session, seq)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s@%d", ErrEntryNotFound, session, seq)
	}
	return e, err
}

// FindByFingerprint returns every LOCATION_CHANGE, across sessions, whose
// location has fingerprint fp.
func (j *Journal) FindByFingerprint(ctx context.Context, fp string) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, session_id, seq, action_type, payload, fingerprint
		FROM actions
		WHERE fingerprint = ?
		ORDER BY session_id COLLATE BINARY ASC, seq ASC, id COLLATE BINARY ASC
	`, fp)
	if err != nil {
		return nil, fmt.Errorf("query fingerprint: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var (
		e           Entry
		actionType  string
		payload     sql.NullString
		fingerprint sql.NullString
	)
	if err := row.Scan(&e.ID, &e.SessionID, &e.Seq, &actionType, &payload, &fingerprint); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("scan action: %w", err)
	}

	decoded, err := decodePayload(actionType, payload)
	if err != nil {
		return Entry{}, fmt.Errorf("action %s: %w", e.ID, err)
	}
	e.Action = ir.Action{Type: actionType, Payload: decoded}
	e.Fingerprint = fingerprint.String
	return e, nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate actions: %w", err)
	}
	return entries, nil
}
