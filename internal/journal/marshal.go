package journal

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/routesync/internal/ir"
	"github.com/roach88/routesync/internal/routing"
)

// encodePayload converts an action payload to canonical JSON TEXT.
// A nil payload is stored as NULL. LOCATION_CHANGE payloads also yield the
// location's fingerprint.
func encodePayload(action ir.Action) (payload, fingerprint sql.NullString, err error) {
	if action.Payload == nil {
		return payload, fingerprint, nil
	}

	if action.Type == routing.LocationChangeType {
		loc, ok := action.Payload.(*ir.Location)
		if !ok || loc == nil {
			return payload, fingerprint, fmt.Errorf("marshal payload: %s wants *ir.Location, got %T", action.Type, action.Payload)
		}
		data, err := ir.MarshalCanonical(loc.Canonical())
		if err != nil {
			return payload, fingerprint, fmt.Errorf("marshal payload: %w", err)
		}
		fp, err := ir.Fingerprint(loc)
		if err != nil {
			return payload, fingerprint, fmt.Errorf("marshal payload: %w", err)
		}
		return sql.NullString{String: string(data), Valid: true}, sql.NullString{String: fp, Valid: true}, nil
	}

	data, err := ir.MarshalCanonical(action.Payload)
	if err != nil {
		return payload, fingerprint, fmt.Errorf("marshal payload: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, fingerprint, nil
}

// decodePayload reverses encodePayload. LOCATION_CHANGE payloads decode to
// a new *ir.Location; anything else decodes to an ir.IRValue.
func decodePayload(actionType string, payload sql.NullString) (any, error) {
	if !payload.Valid {
		return nil, nil
	}

	if actionType == routing.LocationChangeType {
		loc, err := ir.DecodeLocation([]byte(payload.String))
		if err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
		return loc, nil
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(payload.String)))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	if raw == nil {
		return ir.IRNull{}, nil
	}
	v, err := ir.FromAny(raw)
	if err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return v, nil
}
