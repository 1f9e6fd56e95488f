package gateway

import (
	"context"
	"encoding/json"

	"github.com/agritraceio/agritrace-backend/internal/contract"
	"github.com/agritraceio/agritrace-backend/pkg/config"
	pkgerrors "github.com/agritraceio/agritrace-backend/pkg/errors"
	"github.com/agritraceio/agritrace-backend/pkg/logger"
)

// Client is the typed wrapper the rest of the application talks to. It
// translates contract operations to and from the string-argument convention
// shared by the chaincode and both backends.
type Client struct {
	backend Backend
	logg    *logger.Logger
}

// New wires a client around an already-constructed backend.
func New(backend Backend, logg *logger.Logger) *Client {
	return &Client{backend: backend, logg: logg}
}

// Open builds the backend named in configuration and wraps it. The memory
// variant is only ever chosen here, explicitly, by configuration.
func Open(ctx context.Context, cfg config.LedgerConfig, logg *logger.Logger) (*Client, error) {
	var (
		backend Backend
		err     error
	)
	if cfg.IsMemory() {
		backend = NewMemoryBackend(cfg.MSPID)
	} else {
		backend, err = Connect(cfg)
		if err != nil {
			return nil, err
		}
	}
	if logg != nil {
		logg.Info(logg.WithBackendMode(ctx, string(backend.Mode())), "ledger gateway ready")
	}
	return New(backend, logg), nil
}

// Mode reports which backend variant serves this client.
func (c *Client) Mode() Mode {
	return c.backend.Mode()
}

// Close releases the backend connection.
func (c *Client) Close() error {
	return c.backend.Close()
}

// PutRecord submits a create/overwrite for id and blocks until commit.
func (c *Client) PutRecord(ctx context.Context, id, recordType string, payload map[string]any) (*CommitResult, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "payload cannot be serialized")
	}
	_, commit, err := c.backend.Submit(ctx, OpPutRecord, id, recordType, string(raw))
	if err != nil {
		return nil, err
	}
	return commit, nil
}

// VerifyRecord stamps id as verified by the connection identity.
func (c *Client) VerifyRecord(ctx context.Context, id string) (*CommitResult, error) {
	_, commit, err := c.backend.Submit(ctx, OpVerifyRecord, id)
	if err != nil {
		return nil, err
	}
	return commit, nil
}

// UpdateRecord shallow-merges partial over the stored payload for id.
func (c *Client) UpdateRecord(ctx context.Context, id string, partial map[string]any) (*CommitResult, error) {
	raw, err := json.Marshal(partial)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "partial payload cannot be serialized")
	}
	_, commit, err := c.backend.Submit(ctx, OpUpdateRecord, id, string(raw))
	if err != nil {
		return nil, err
	}
	return commit, nil
}

// ReadRecord returns the current value of id.
func (c *Client) ReadRecord(ctx context.Context, id string) (*contract.TraceRecord, error) {
	raw, err := c.backend.Evaluate(ctx, OpReadRecord, id)
	if err != nil {
		return nil, err
	}
	var rec contract.TraceRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeLedger, err, "decoding record")
	}
	return &rec, nil
}

// ListRecords returns every record the contract owns.
func (c *Client) ListRecords(ctx context.Context) ([]contract.KeyedRecord, error) {
	return c.evaluateKeyed(ctx, OpListRecords)
}

// QueryByType returns records whose type matches exactly.
func (c *Client) QueryByType(ctx context.Context, recordType string) ([]contract.KeyedRecord, error) {
	return c.evaluateKeyed(ctx, OpQueryByType, recordType)
}

// QueryByOwner returns records created by the given identity.
func (c *Client) QueryByOwner(ctx context.Context, owner string) ([]contract.KeyedRecord, error) {
	return c.evaluateKeyed(ctx, OpQueryByOwner, owner)
}

// RecordHistory returns the commit-ordered version history of id. An id
// that was never written yields an empty slice.
func (c *Client) RecordHistory(ctx context.Context, id string) ([]contract.HistoryEntry, error) {
	raw, err := c.backend.Evaluate(ctx, OpRecordHistory, id)
	if err != nil {
		return nil, err
	}
	var entries []contract.HistoryEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeLedger, err, "decoding history")
	}
	if entries == nil {
		entries = []contract.HistoryEntry{}
	}
	return entries, nil
}

func (c *Client) evaluateKeyed(ctx context.Context, op string, args ...string) ([]contract.KeyedRecord, error) {
	raw, err := c.backend.Evaluate(ctx, op, args...)
	if err != nil {
		return nil, err
	}
	var records []contract.KeyedRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeLedger, err, "decoding records")
	}
	if records == nil {
		records = []contract.KeyedRecord{}
	}
	return records, nil
}
