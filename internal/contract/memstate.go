package contract

import (
	"sort"
	"sync"
	"time"
)

// MemState is an in-process world state with a per-key version log. It backs
// the in-memory gateway backend and the contract tests. All mutations go
// through transaction-scoped views so every write carries a tx id, timestamp
// and caller identity, matching what the real network supplies.
type MemState struct {
	mu      sync.RWMutex
	values  map[string][]byte
	history map[string][]Version
	block   uint64
}

// NewMemState returns an empty in-memory world state.
func NewMemState() *MemState {
	return &MemState{
		values:  make(map[string][]byte),
		history: make(map[string][]Version),
	}
}

// BlockHeight reports how many writes have committed. The memory backend
// uses it as a stand-in for the block number of a commit.
func (m *MemState) BlockHeight() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.block
}

// TxView binds the state to one transaction's identity and timestamp.
type TxView struct {
	state  *MemState
	txID   string
	txTime time.Time
	caller string
}

// ForTx returns a WorldState view executing as the given transaction.
func (m *MemState) ForTx(txID, caller string, at time.Time) *TxView {
	return &TxView{state: m, txID: txID, txTime: at, caller: caller}
}

func (v *TxView) Get(key string) ([]byte, error) {
	v.state.mu.RLock()
	defer v.state.mu.RUnlock()
	raw, ok := v.state.values[key]
	if !ok {
		return nil, nil
	}
	cp := make([]byte, len(raw))
	copy(cp, raw)
	return cp, nil
}

func (v *TxView) Put(key string, value []byte) error {
	cp := make([]byte, len(value))
	copy(cp, value)

	v.state.mu.Lock()
	defer v.state.mu.Unlock()
	v.state.values[key] = cp
	v.state.history[key] = append(v.state.history[key], Version{
		TxID:      v.txID,
		Timestamp: v.txTime,
		Value:     cp,
	})
	v.state.block++
	return nil
}

func (v *TxView) List(prefix string) ([]KV, error) {
	v.state.mu.RLock()
	defer v.state.mu.RUnlock()

	keys := make([]string, 0, len(v.state.values))
	for key := range v.state.values {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	kvs := make([]KV, 0, len(keys))
	for _, key := range keys {
		raw := v.state.values[key]
		cp := make([]byte, len(raw))
		copy(cp, raw)
		kvs = append(kvs, KV{Key: key, Value: cp})
	}
	return kvs, nil
}

func (v *TxView) History(key string) ([]Version, error) {
	v.state.mu.RLock()
	defer v.state.mu.RUnlock()

	versions := v.state.history[key]
	out := make([]Version, len(versions))
	copy(out, versions)
	return out, nil
}

func (v *TxView) TxID() string {
	return v.txID
}

func (v *TxView) TxTime() time.Time {
	return v.txTime
}

func (v *TxView) Caller() string {
	return v.caller
}
