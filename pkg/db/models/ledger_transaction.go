package models

import (
	"encoding/json"
	"time"

	"github.com/agritraceio/agritrace-backend/pkg/enums"
)

// LedgerTransaction is the off-chain mirror of one ledger submission
// attempt. Exactly one row exists per attempt, written after the ledger
// outcome is known and never mutated afterwards; a retry produces a new row
// with a fresh transaction id.
type LedgerTransaction struct {
	TxID         string          `gorm:"column:tx_id;primaryKey" json:"transactionId"`
	RecordType   string          `gorm:"column:record_type;not null" json:"recordType"`
	Payload      json.RawMessage `gorm:"column:payload;type:jsonb" json:"data"`
	Hash         string          `gorm:"column:hash;not null" json:"hash"`
	Status       enums.TxStatus  `gorm:"column:status;type:tx_status_enum;not null" json:"status"`
	LedgerRef    *string         `gorm:"column:ledger_ref" json:"ledgerRef"`
	BlockNumber  *uint64         `gorm:"column:block_number" json:"blockNumber,omitempty"`
	SubmittedBy  string          `gorm:"column:submitted_by;not null" json:"submittedBy"`
	Validated    bool            `gorm:"column:validated;not null;default:false" json:"validated"`
	ErrorMessage *string         `gorm:"column:error_message" json:"errorMessage"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

// TableName pins the table used by the synchronization service.
func (LedgerTransaction) TableName() string {
	return "ledger_transactions"
}
