package journal

import (
	"context"
	"fmt"

	"github.com/roach88/routesync/internal/ir"
)

// Append records action at seq in session and returns the stored entry.
// Uses ON CONFLICT(id) DO NOTHING for idempotency: appending the same
// (session, type, payload, seq) twice is silently ignored. A different
// action at an occupied seq is an error.
//
// Note: The session must exist (foreign key constraint).
func (j *Journal) Append(ctx context.Context, session string, seq int64, action ir.Action) (Entry, error) {
	payload, fingerprint, err := encodePayload(action)
	if err != nil {
		return Entry{}, fmt.Errorf("append action: %w", err)
	}

	id, err := ir.EntryID(session, action.Type, []byte(payload.String), seq)
	if err != nil {
		return Entry{}, fmt.Errorf("append action: %w", err)
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO actions
		(id, session_id, seq, action_type, payload, fingerprint)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		id,
		session,
		seq,
		action.Type,
		payload,
		fingerprint,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("append action: %w", err)
	}

	return Entry{
		ID:          id,
		SessionID:   session,
		Seq:         seq,
		Action:      action,
		Fingerprint: fingerprint.String,
	}, nil
}
