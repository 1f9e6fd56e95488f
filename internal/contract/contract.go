// Package contract holds the state-machine logic executed per ledger
// operation. The same functions run inside the Fabric chaincode and inside
// the in-memory gateway backend; only the WorldState implementation differs.
package contract

import (
	"fmt"
	"strings"

	pkgerrors "github.com/agritraceio/agritrace-backend/pkg/errors"
)

// PutRecord writes a record under id. There is deliberately no existence
// check: a second put on the same id replaces the current value (discarding
// any verification state) while the version log keeps the prior value. This
// upsert behavior is load-bearing for batch callers that re-submit rows.
func PutRecord(ws WorldState, id, recordType string, payload map[string]any) (*TraceRecord, error) {
	if strings.TrimSpace(id) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "record id is required")
	}
	if strings.TrimSpace(recordType) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "record type is required")
	}
	if payload == nil {
		payload = map[string]any{}
	}

	rec := &TraceRecord{
		ID:         id,
		DocType:    DocType,
		RecordType: recordType,
		Payload:    payload,
		Timestamp:  ws.TxTime(),
		Verified:   false,
		CreatedBy:  ws.Caller(),
	}

	raw, err := marshalRecord(rec)
	if err != nil {
		return nil, err
	}
	if err := ws.Put(Key(id), raw); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeLedger, err, fmt.Sprintf("writing record %s", id))
	}
	return rec, nil
}

// ReadRecord returns the current value for id or NOT_FOUND if the key has
// never been written.
func ReadRecord(ws WorldState, id string) (*TraceRecord, error) {
	raw, err := ws.Get(Key(id))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeLedger, err, fmt.Sprintf("reading record %s", id))
	}
	if raw == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("record %s does not exist", id))
	}
	return unmarshalRecord(raw)
}

// ListRecords returns every record carrying this contract's document marker,
// paired with its ledger key, in ascending key order.
func ListRecords(ws WorldState) ([]KeyedRecord, error) {
	kvs, err := ws.List(KeyPrefix)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeLedger, err, "scanning records")
	}

	records := make([]KeyedRecord, 0, len(kvs))
	for _, kv := range kvs {
		rec, err := unmarshalRecord(kv.Value)
		if err != nil {
			return nil, err
		}
		if rec.DocType != DocType {
			continue
		}
		records = append(records, KeyedRecord{Key: kv.Key, Record: rec})
	}
	return records, nil
}

// VerifyRecord stamps id as verified by the calling identity. Verifying an
// already-verified record is accepted and re-stamps verifiedBy/verifiedAt;
// the verified flag itself is idempotent.
func VerifyRecord(ws WorldState, id string) (*TraceRecord, error) {
	rec, err := ReadRecord(ws, id)
	if err != nil {
		return nil, err
	}

	now := ws.TxTime()
	rec.Verified = true
	rec.VerifiedBy = ws.Caller()
	rec.VerifiedAt = &now

	raw, err := marshalRecord(rec)
	if err != nil {
		return nil, err
	}
	if err := ws.Put(Key(id), raw); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeLedger, err, fmt.Sprintf("verifying record %s", id))
	}
	return rec, nil
}

// UpdateRecord shallow-merges partial over the existing payload. Fields not
// present in partial keep their prior value.
func UpdateRecord(ws WorldState, id string, partial map[string]any) (*TraceRecord, error) {
	if len(partial) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "update payload is required")
	}

	rec, err := ReadRecord(ws, id)
	if err != nil {
		return nil, err
	}

	now := ws.TxTime()
	rec.Payload = mergePayload(rec.Payload, partial)
	rec.ModifiedBy = ws.Caller()
	rec.LastModified = &now

	raw, err := marshalRecord(rec)
	if err != nil {
		return nil, err
	}
	if err := ws.Put(Key(id), raw); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeLedger, err, fmt.Sprintf("updating record %s", id))
	}
	return rec, nil
}

// QueryByType returns records whose recordType equals recordType exactly.
// Order follows the key order of the underlying scan, so it is stable for a
// fixed state snapshot.
func QueryByType(ws WorldState, recordType string) ([]KeyedRecord, error) {
	if strings.TrimSpace(recordType) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "record type is required")
	}
	return filterRecords(ws, func(rec *TraceRecord) bool {
		return rec.RecordType == recordType
	})
}

// QueryByOwner returns records created by the given identity (exact match).
func QueryByOwner(ws WorldState, owner string) ([]KeyedRecord, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner is required")
	}
	return filterRecords(ws, func(rec *TraceRecord) bool {
		return rec.CreatedBy == owner
	})
}

func filterRecords(ws WorldState, keep func(*TraceRecord) bool) ([]KeyedRecord, error) {
	all, err := ListRecords(ws)
	if err != nil {
		return nil, err
	}
	matched := make([]KeyedRecord, 0, len(all))
	for _, kr := range all {
		if keep(kr.Record) {
			matched = append(matched, kr)
		}
	}
	return matched, nil
}

// RecordHistory returns every committed version of id in commit order, each
// with the transaction id and timestamp that produced it. A never-written id
// yields an empty slice, not an error: absence of history and absence of a
// current value are distinct contracts.
func RecordHistory(ws WorldState, id string) ([]HistoryEntry, error) {
	versions, err := ws.History(Key(id))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeLedger, err, fmt.Sprintf("loading history for %s", id))
	}

	entries := make([]HistoryEntry, 0, len(versions))
	for _, v := range versions {
		rec, err := unmarshalRecord(v.Value)
		if err != nil {
			return nil, err
		}
		entries = append(entries, HistoryEntry{
			TxID:      v.TxID,
			Timestamp: v.Timestamp,
			Record:    rec,
		})
	}
	return entries, nil
}
