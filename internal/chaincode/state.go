package chaincode

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"

	"github.com/agritraceio/agritrace-backend/internal/contract"
)

// stubState adapts the Fabric transaction stub to the contract's WorldState.
// Transaction identity and timestamp are resolved once at construction so
// the contract sees consistent values for the whole invocation.
type stubState struct {
	stub   shim.ChaincodeStubInterface
	txID   string
	txTime time.Time
	caller string
}

func newStubState(ctx contractapi.TransactionContextInterface) (*stubState, error) {
	stub := ctx.GetStub()

	ts, err := stub.GetTxTimestamp()
	if err != nil {
		return nil, fmt.Errorf("reading tx timestamp: %w", err)
	}

	caller, err := ctx.GetClientIdentity().GetID()
	if err != nil {
		return nil, fmt.Errorf("reading client identity: %w", err)
	}

	return &stubState{
		stub:   stub,
		txID:   stub.GetTxID(),
		txTime: ts.AsTime(),
		caller: caller,
	}, nil
}

func (s *stubState) Get(key string) ([]byte, error) {
	return s.stub.GetState(key)
}

func (s *stubState) Put(key string, value []byte) error {
	return s.stub.PutState(key, value)
}

func (s *stubState) List(prefix string) ([]contract.KV, error) {
	endKey := prefix + string(utf8.MaxRune)
	iter, err := s.stub.GetStateByRange(prefix, endKey)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var kvs []contract.KV
	for iter.HasNext() {
		kv, err := iter.Next()
		if err != nil {
			return nil, err
		}
		kvs = append(kvs, contract.KV{Key: kv.Key, Value: kv.Value})
	}
	return kvs, nil
}

// History returns committed versions oldest first. Fabric's history iterator
// walks newest first, so the slice is reversed before returning.
func (s *stubState) History(key string) ([]contract.Version, error) {
	iter, err := s.stub.GetHistoryForKey(key)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var versions []contract.Version
	for iter.HasNext() {
		mod, err := iter.Next()
		if err != nil {
			return nil, err
		}
		if mod.IsDelete {
			continue
		}
		versions = append(versions, contract.Version{
			TxID:      mod.TxId,
			Timestamp: mod.Timestamp.AsTime(),
			Value:     mod.Value,
		})
	}

	for i, j := 0, len(versions)-1; i < j; i, j = i+1, j-1 {
		versions[i], versions[j] = versions[j], versions[i]
	}
	return versions, nil
}

func (s *stubState) TxID() string {
	return s.txID
}

func (s *stubState) TxTime() time.Time {
	return s.txTime
}

func (s *stubState) Caller() string {
	return s.caller
}
