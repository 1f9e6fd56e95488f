// Package gateway owns the connection to the ledger network and the enrolled
// identity that signs submitted transactions. Contract calls fall into two
// categories: Submit goes through the network's ordering path and returns
// only after durable commit; Evaluate is answered by a local peer and may
// trail a very recent submit from elsewhere.
package gateway

import "context"

// Mode identifies which backend variant serves the contract calls. It exists
// for diagnostics only: both variants return identically shaped results.
type Mode string

const (
	ModeNetwork Mode = "network"
	ModeMemory  Mode = "memory"
)

// Contract operation names shared by the chaincode and both backends.
const (
	OpPutRecord     = "PutRecord"
	OpReadRecord    = "ReadRecord"
	OpListRecords   = "ListRecords"
	OpVerifyRecord  = "VerifyRecord"
	OpUpdateRecord  = "UpdateRecord"
	OpQueryByType   = "QueryByType"
	OpQueryByOwner  = "QueryByOwner"
	OpRecordHistory = "RecordHistory"
)

// CommitResult describes a durably committed transaction.
type CommitResult struct {
	TransactionID string `json:"transactionId"`
	BlockNumber   uint64 `json:"blockNumber"`
}

// Backend abstracts the ledger connection. NetworkBackend talks to a Fabric
// gateway peer; MemoryBackend runs the same contract logic in process. The
// variant is chosen once at construction from configuration and injected,
// never switched through ambient state.
type Backend interface {
	Mode() Mode

	// Submit runs a state-changing operation through ordering and blocks
	// until durable commit or failure.
	Submit(ctx context.Context, op string, args ...string) ([]byte, *CommitResult, error)

	// Evaluate runs a read-only operation against local state.
	Evaluate(ctx context.Context, op string, args ...string) ([]byte, error)

	Close() error
}
