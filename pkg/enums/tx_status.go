package enums

import "fmt"

// TxStatus maps to the tx_status_enum enum in Postgres. It reflects the
// outcome of one ledger submission attempt.
type TxStatus string

const (
	TxStatusPending   TxStatus = "PENDING"
	TxStatusConfirmed TxStatus = "CONFIRMED"
	TxStatusFailed    TxStatus = "FAILED"
)

var validTxStatuses = []TxStatus{
	TxStatusPending,
	TxStatusConfirmed,
	TxStatusFailed,
}

// IsValid reports whether the value matches the canonical tx status enum.
func (s TxStatus) IsValid() bool {
	for _, candidate := range validTxStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseTxStatus converts raw input into TxStatus.
func ParseTxStatus(value string) (TxStatus, error) {
	for _, candidate := range validTxStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tx status %q", value)
}
