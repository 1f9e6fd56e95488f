// Package digest computes the content hash stored alongside every ledger
// submission. The hash is taken over a canonical JSON rendering so two
// payloads with the same content always produce the same digest, no matter
// how the caller ordered the fields.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	pkgerrors "github.com/agritraceio/agritrace-backend/pkg/errors"
)

// Canonical returns the lowercase hex SHA-256 of the canonical JSON form of
// payload. encoding/json renders map keys in sorted order at every level,
// which is the canonicalization this digest relies on.
func Canonical(payload map[string]any) (string, error) {
	if payload == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "payload is required")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "payload cannot be canonicalized")
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// CanonicalBytes is Canonical over an already-serialized JSON document. The
// document is decoded and re-encoded so key order in the input is irrelevant.
func CanonicalBytes(raw []byte) (string, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "payload cannot be parsed")
	}
	return Canonical(payload)
}
