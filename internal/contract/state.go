package contract

import "time"

// KV is one key/value pair returned by a range scan.
type KV struct {
	Key   string
	Value []byte
}

// Version is one committed value of a key as reported by the ledger's
// version log, oldest first.
type Version struct {
	TxID      string
	Timestamp time.Time
	Value     []byte
}

// WorldState is the narrow view of the ledger the contract logic runs
// against. The Fabric chaincode adapter implements it over the transaction
// stub; the in-memory backend implements it over local maps. Both expose the
// identity and timestamp of the executing transaction so the contract can
// stamp records without knowing which backend it runs on.
type WorldState interface {
	// Get returns the current value for key, or nil if the key has never
	// been written.
	Get(key string) ([]byte, error)

	// Put writes value under key and appends to the key's version log.
	Put(key string, value []byte) error

	// List returns every key/value pair whose key starts with prefix, in
	// ascending key order.
	List(prefix string) ([]KV, error)

	// History returns every committed version of key in commit order,
	// oldest first. A key that was never written yields an empty slice,
	// not an error.
	History(key string) ([]Version, error)

	// TxID identifies the executing transaction.
	TxID() string

	// TxTime is the transaction timestamp used for record stamping.
	TxTime() time.Time

	// Caller is the opaque identity of the submitting client.
	Caller() string
}
