package contract

import (
	"encoding/json"
	"time"

	pkgerrors "github.com/agritraceio/agritrace-backend/pkg/errors"
)

// DocType tags every record this contract owns so range scans can skip
// unrelated keys living in the same ledger namespace.
const DocType = "trace_record"

// KeyPrefix namespaces contract keys in the world state. ledger key =
// REC-<record id>.
const KeyPrefix = "REC-"

// TraceRecord is the authoritative supply-chain fact stored under one ledger
// key. The payload stays an open string-keyed map: callers attach whatever
// fields the fact needs and updates shallow-merge over them.
type TraceRecord struct {
	ID           string         `json:"id"`
	DocType      string         `json:"docType"`
	RecordType   string         `json:"recordType"`
	Payload      map[string]any `json:"payload"`
	Timestamp    time.Time      `json:"timestamp"`
	Verified     bool           `json:"verified"`
	VerifiedBy   string         `json:"verifiedBy,omitempty"`
	VerifiedAt   *time.Time     `json:"verifiedAt,omitempty"`
	CreatedBy    string         `json:"createdBy"`
	ModifiedBy   string         `json:"modifiedBy,omitempty"`
	LastModified *time.Time     `json:"lastModified,omitempty"`
}

// KeyedRecord pairs a record with the ledger key it lives under.
type KeyedRecord struct {
	Key    string       `json:"key"`
	Record *TraceRecord `json:"record"`
}

// HistoryEntry is one committed version of a record, in commit order.
type HistoryEntry struct {
	TxID      string       `json:"txId"`
	Timestamp time.Time    `json:"timestamp"`
	Record    *TraceRecord `json:"record"`
}

// Key returns the world-state key for a record id.
func Key(id string) string {
	return KeyPrefix + id
}

func marshalRecord(rec *TraceRecord) ([]byte, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "record cannot be serialized")
	}
	return raw, nil
}

func unmarshalRecord(raw []byte) (*TraceRecord, error) {
	var rec TraceRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "stored record is not valid JSON")
	}
	return &rec, nil
}

// mergePayload shallow-merges partial over base: keys present in partial win,
// keys absent from partial keep their prior value. Nested values are replaced
// wholesale, not merged.
func mergePayload(base, partial map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(partial))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range partial {
		merged[k] = v
	}
	return merged
}
