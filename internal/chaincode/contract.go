// Package chaincode exposes the trace record contract to a Fabric peer. The
// actual state-machine logic lives in internal/contract; this layer only
// adapts the transaction stub and the string-argument calling convention.
package chaincode

import (
	"encoding/json"
	"fmt"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"

	"github.com/agritraceio/agritrace-backend/internal/contract"
)

// TraceContract is the chaincode installed on the supply-chain channel.
type TraceContract struct {
	contractapi.Contract
}

// PutRecord writes a trace record under id, overwriting any prior value at
// that key while the channel's version log keeps the old one.
func (c *TraceContract) PutRecord(ctx contractapi.TransactionContextInterface, id, recordType, payloadJSON string) (*contract.TraceRecord, error) {
	ws, err := newStubState(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := decodeJSONMap(payloadJSON)
	if err != nil {
		return nil, err
	}
	return contract.PutRecord(ws, id, recordType, payload)
}

// ReadRecord returns the current value for id.
func (c *TraceContract) ReadRecord(ctx contractapi.TransactionContextInterface, id string) (*contract.TraceRecord, error) {
	ws, err := newStubState(ctx)
	if err != nil {
		return nil, err
	}
	return contract.ReadRecord(ws, id)
}

// ListRecords returns every trace record with its ledger key.
func (c *TraceContract) ListRecords(ctx contractapi.TransactionContextInterface) ([]contract.KeyedRecord, error) {
	ws, err := newStubState(ctx)
	if err != nil {
		return nil, err
	}
	return contract.ListRecords(ws)
}

// VerifyRecord marks id as verified by the calling identity.
func (c *TraceContract) VerifyRecord(ctx contractapi.TransactionContextInterface, id string) (*contract.TraceRecord, error) {
	ws, err := newStubState(ctx)
	if err != nil {
		return nil, err
	}
	return contract.VerifyRecord(ws, id)
}

// UpdateRecord shallow-merges the partial payload over the stored record.
func (c *TraceContract) UpdateRecord(ctx contractapi.TransactionContextInterface, id, partialJSON string) (*contract.TraceRecord, error) {
	ws, err := newStubState(ctx)
	if err != nil {
		return nil, err
	}
	partial, err := decodeJSONMap(partialJSON)
	if err != nil {
		return nil, err
	}
	return contract.UpdateRecord(ws, id, partial)
}

// QueryByType returns records whose recordType matches exactly.
func (c *TraceContract) QueryByType(ctx contractapi.TransactionContextInterface, recordType string) ([]contract.KeyedRecord, error) {
	ws, err := newStubState(ctx)
	if err != nil {
		return nil, err
	}
	return contract.QueryByType(ws, recordType)
}

// QueryByOwner returns records created by the given identity.
func (c *TraceContract) QueryByOwner(ctx contractapi.TransactionContextInterface, owner string) ([]contract.KeyedRecord, error) {
	ws, err := newStubState(ctx)
	if err != nil {
		return nil, err
	}
	return contract.QueryByOwner(ws, owner)
}

// RecordHistory returns the commit-ordered version history for id; an id
// that was never written yields an empty list, not an error.
func (c *TraceContract) RecordHistory(ctx contractapi.TransactionContextInterface, id string) ([]contract.HistoryEntry, error) {
	ws, err := newStubState(ctx)
	if err != nil {
		return nil, err
	}
	return contract.RecordHistory(ws, id)
}

func decodeJSONMap(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("payload argument is not valid JSON: %w", err)
	}
	return payload, nil
}
