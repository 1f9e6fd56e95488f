package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ProduceLot is the document-side view of a harvested lot. The authoritative
// provenance fact lives on the ledger; LedgerTxID links the row to the
// mirror of the submission that wrote it.
type ProduceLot struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FarmerID   uuid.UUID       `gorm:"column:farmer_id;type:uuid;not null"`
	CropType   string          `gorm:"column:crop_type;not null"`
	Quantity   string          `gorm:"column:quantity;not null"`
	Unit       string          `gorm:"column:unit;not null;default:'kg'"`
	Origin     string          `gorm:"column:origin"`
	Attributes json.RawMessage `gorm:"column:attributes;type:jsonb"`
	LedgerTxID string          `gorm:"column:ledger_tx_id;index"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the plural form used by the migrations.
func (ProduceLot) TableName() string {
	return "produce_lots"
}
