package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agritraceio/agritrace-backend/internal/contract"
	pkgerrors "github.com/agritraceio/agritrace-backend/pkg/errors"
)

// MemoryBackend serves the contract from in-process state. It exists for
// development and tests where no Fabric network is configured, and produces
// results of the same shape as the network path. Selection is explicit via
// configuration; nothing ever falls back to it silently.
type MemoryBackend struct {
	state    *contract.MemState
	identity string
	now      func() time.Time
}

// NewMemoryBackend builds a memory backend stamping writes with identity.
func NewMemoryBackend(identity string) *MemoryBackend {
	if identity == "" {
		identity = "memory-client"
	}
	return &MemoryBackend{
		state:    contract.NewMemState(),
		identity: identity,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (b *MemoryBackend) Mode() Mode {
	return ModeMemory
}

func (b *MemoryBackend) Close() error {
	return nil
}

// State exposes the underlying world state for test seeding.
func (b *MemoryBackend) State() *contract.MemState {
	return b.state
}

func (b *MemoryBackend) Submit(ctx context.Context, op string, args ...string) ([]byte, *CommitResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeConnection, err, "submit aborted")
	}

	txID := uuid.NewString()
	ws := b.state.ForTx(txID, b.identity, b.now())

	var (
		result any
		err    error
	)
	switch op {
	case OpPutRecord:
		if len(args) != 3 {
			return nil, nil, badArgs(op, 3, len(args))
		}
		var payload map[string]any
		if payload, err = decodePayload(args[2]); err == nil {
			result, err = contract.PutRecord(ws, args[0], args[1], payload)
		}
	case OpVerifyRecord:
		if len(args) != 1 {
			return nil, nil, badArgs(op, 1, len(args))
		}
		result, err = contract.VerifyRecord(ws, args[0])
	case OpUpdateRecord:
		if len(args) != 2 {
			return nil, nil, badArgs(op, 2, len(args))
		}
		var partial map[string]any
		if partial, err = decodePayload(args[1]); err == nil {
			result, err = contract.UpdateRecord(ws, args[0], partial)
		}
	default:
		return nil, nil, pkgerrors.New(pkgerrors.CodeLedger, fmt.Sprintf("operation %s cannot be submitted", op))
	}
	if err != nil {
		return nil, nil, err
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeLedger, err, "encoding result")
	}
	return raw, &CommitResult{
		TransactionID: txID,
		BlockNumber:   b.state.BlockHeight(),
	}, nil
}

func (b *MemoryBackend) Evaluate(ctx context.Context, op string, args ...string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConnection, err, "evaluate aborted")
	}

	// Reads run as anonymous local queries; no commit, no tx id of note.
	ws := b.state.ForTx("eval-"+uuid.NewString(), b.identity, b.now())

	var (
		result any
		err    error
	)
	switch op {
	case OpReadRecord:
		if len(args) != 1 {
			return nil, badArgs(op, 1, len(args))
		}
		result, err = contract.ReadRecord(ws, args[0])
	case OpListRecords:
		result, err = contract.ListRecords(ws)
	case OpQueryByType:
		if len(args) != 1 {
			return nil, badArgs(op, 1, len(args))
		}
		result, err = contract.QueryByType(ws, args[0])
	case OpQueryByOwner:
		if len(args) != 1 {
			return nil, badArgs(op, 1, len(args))
		}
		result, err = contract.QueryByOwner(ws, args[0])
	case OpRecordHistory:
		if len(args) != 1 {
			return nil, badArgs(op, 1, len(args))
		}
		result, err = contract.RecordHistory(ws, args[0])
	default:
		return nil, pkgerrors.New(pkgerrors.CodeLedger, fmt.Sprintf("operation %s cannot be evaluated", op))
	}
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeLedger, err, "encoding result")
	}
	return raw, nil
}

func decodePayload(arg string) (map[string]any, error) {
	if arg == "" {
		return nil, nil
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(arg), &payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "payload argument is not valid JSON")
	}
	return payload, nil
}

func badArgs(op string, want, got int) error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s expects %d args, got %d", op, want, got))
}
