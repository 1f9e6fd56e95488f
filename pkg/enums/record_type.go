package enums

import "fmt"

// RecordType categorizes a supply-chain fact submitted to the ledger. The
// ledger contract itself treats the type as free-form; this enum is the set
// the application surfaces through its own endpoints.
type RecordType string

const (
	RecordTypeHarvest    RecordType = "harvest"
	RecordTypeProcessing RecordType = "processing"
	RecordTypeTransport  RecordType = "transport"
	RecordTypeRetail     RecordType = "retail"
)

var validRecordTypes = []RecordType{
	RecordTypeHarvest,
	RecordTypeProcessing,
	RecordTypeTransport,
	RecordTypeRetail,
}

// IsValid reports whether the value matches a known record type.
func (t RecordType) IsValid() bool {
	for _, candidate := range validRecordTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseRecordType converts raw input into RecordType.
func ParseRecordType(value string) (RecordType, error) {
	for _, candidate := range validRecordTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid record type %q", value)
}
