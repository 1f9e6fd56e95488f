package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Purchase records a sale of a produce lot. Each purchase also submits a
// "retail" fact to the ledger; LedgerTxID points at that submission's mirror.
type Purchase struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	LotID      uuid.UUID       `gorm:"column:lot_id;type:uuid;not null;index"`
	BuyerID    uuid.UUID       `gorm:"column:buyer_id;type:uuid;not null"`
	SellerID   uuid.UUID       `gorm:"column:seller_id;type:uuid;not null"`
	Quantity   string          `gorm:"column:quantity;not null"`
	UnitPrice  decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	TotalPrice decimal.Decimal `gorm:"column:total_price;type:numeric(12,2);not null"`
	Currency   string          `gorm:"column:currency;not null;default:'INR'"`
	LedgerTxID string          `gorm:"column:ledger_tx_id;index"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}
