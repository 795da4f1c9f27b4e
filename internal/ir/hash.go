package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix allows a future algorithm migration.
const (
	DomainLocation = "routesync/location/v1"
	DomainEntry    = "routesync/entry/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint computes a content hash of a location.
//
// Fingerprints are for display and journal indexing only. Two distinct
// *Location pointers with the same fingerprint are still different
// locations as far as the sync engine is concerned.
func Fingerprint(loc *Location) (string, error) {
	if loc == nil {
		return "", fmt.Errorf("Fingerprint: nil location")
	}
	canonical, err := MarshalCanonical(loc.Canonical())
	if err != nil {
		return "", fmt.Errorf("Fingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainLocation, canonical), nil
}

// EntryID computes the content-addressed ID of a journal entry.
// payload is the entry's canonical JSON payload (may be empty).
func EntryID(session, actionType string, payload []byte, seq int64) (string, error) {
	obj := IRObject{
		"session":     IRString(session),
		"action_type": IRString(actionType),
		"payload":     IRString(string(payload)),
		"seq":         IRInt(seq),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("EntryID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainEntry, canonical), nil
}

// MustFingerprint is like Fingerprint but panics on error.
// Use only in tests or when the location is known to be valid.
func MustFingerprint(loc *Location) string {
	fp, err := Fingerprint(loc)
	if err != nil {
		panic(err)
	}
	return fp
}
