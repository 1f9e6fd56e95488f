package purchase

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/agritraceio/agritrace-backend/internal/gateway"
	"github.com/agritraceio/agritrace-backend/internal/txsync"
	"github.com/agritraceio/agritrace-backend/pkg/enums"
	pkgerrors "github.com/agritraceio/agritrace-backend/pkg/errors"
)

func setupPurchaseTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	purchases := `
CREATE TABLE IF NOT EXISTS purchases (
  id TEXT PRIMARY KEY,
  lot_id TEXT NOT NULL,
  buyer_id TEXT NOT NULL,
  seller_id TEXT NOT NULL,
  quantity TEXT NOT NULL,
  unit_price TEXT NOT NULL,
  total_price TEXT NOT NULL,
  currency TEXT NOT NULL DEFAULT 'INR',
  ledger_tx_id TEXT,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`
	mirrors := `
CREATE TABLE IF NOT EXISTS ledger_transactions (
  tx_id TEXT PRIMARY KEY,
  record_type TEXT NOT NULL,
  payload TEXT NOT NULL,
  hash TEXT NOT NULL,
  status TEXT NOT NULL,
  ledger_ref TEXT,
  block_number INTEGER,
  submitted_by TEXT NOT NULL,
  validated INTEGER NOT NULL DEFAULT 0,
  error_message TEXT,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`
	require.NoError(t, db.Exec(purchases).Error)
	require.NoError(t, db.Exec(mirrors).Error)
	require.NoError(t, db.Exec(`DELETE FROM purchases`).Error)
	require.NoError(t, db.Exec(`DELETE FROM ledger_transactions`).Error)
	return db
}

func newPurchaseService(t *testing.T) (Service, *gateway.Client) {
	t.Helper()
	db := setupPurchaseTestDB(t)
	client := gateway.New(gateway.NewMemoryBackend("Org1MSP"), nil)
	sync, err := txsync.NewService(client, txsync.NewRepository(db), txsync.Options{})
	require.NoError(t, err)
	svc, err := NewService(NewRepository(db), sync)
	require.NoError(t, err)
	return svc, client
}

func TestRecordPurchaseSubmitsRetailFact(t *testing.T) {
	svc, client := newPurchaseService(t)
	ctx := context.Background()

	purchase, mirror, err := svc.Record(ctx, RecordInput{
		LotID:       uuid.New(),
		BuyerID:     uuid.New(),
		SellerID:    uuid.New(),
		Quantity:    "12.5",
		UnitPrice:   decimal.RequireFromString("82.40"),
		SubmittedBy: "shop-4",
	})
	require.NoError(t, err)
	require.NotNil(t, purchase)

	assert.Equal(t, enums.TxStatusConfirmed, mirror.Status)
	assert.Equal(t, mirror.TxID, purchase.LedgerTxID)
	assert.Equal(t, "INR", purchase.Currency)
	assert.Equal(t, "1030", purchase.TotalPrice.String())

	rec, err := client.ReadRecord(ctx, purchase.LedgerTxID)
	require.NoError(t, err)
	assert.Equal(t, string(enums.RecordTypeRetail), rec.RecordType)
	assert.Equal(t, "1030", rec.Payload["totalPrice"])
}

func TestRecordPurchaseValidation(t *testing.T) {
	svc, _ := newPurchaseService(t)
	ctx := context.Background()

	valid := RecordInput{
		LotID:       uuid.New(),
		BuyerID:     uuid.New(),
		SellerID:    uuid.New(),
		Quantity:    "5",
		UnitPrice:   decimal.RequireFromString("10"),
		SubmittedBy: "shop-4",
	}

	cases := []struct {
		name   string
		mutate func(in *RecordInput)
	}{
		{"missing lot", func(in *RecordInput) { in.LotID = uuid.Nil }},
		{"missing buyer", func(in *RecordInput) { in.BuyerID = uuid.Nil }},
		{"bad quantity", func(in *RecordInput) { in.Quantity = "a dozen" }},
		{"zero quantity", func(in *RecordInput) { in.Quantity = "0" }},
		{"zero price", func(in *RecordInput) { in.UnitPrice = decimal.Zero }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := valid
			tc.mutate(&input)
			_, _, err := svc.Record(ctx, input)
			require.Error(t, err)
			assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
		})
	}
}

func TestListByLotAndBuyer(t *testing.T) {
	svc, _ := newPurchaseService(t)
	ctx := context.Background()

	lotID := uuid.New()
	buyerID := uuid.New()
	for i := 0; i < 2; i++ {
		_, _, err := svc.Record(ctx, RecordInput{
			LotID:       lotID,
			BuyerID:     buyerID,
			SellerID:    uuid.New(),
			Quantity:    "3",
			UnitPrice:   decimal.RequireFromString("7.25"),
			SubmittedBy: "shop-4",
		})
		require.NoError(t, err)
	}
	_, _, err := svc.Record(ctx, RecordInput{
		LotID:       uuid.New(),
		BuyerID:     uuid.New(),
		SellerID:    uuid.New(),
		Quantity:    "1",
		UnitPrice:   decimal.RequireFromString("99"),
		SubmittedBy: "shop-5",
	})
	require.NoError(t, err)

	byLot, err := svc.ListByLot(ctx, lotID)
	require.NoError(t, err)
	assert.Len(t, byLot, 2)

	byBuyer, err := svc.ListByBuyer(ctx, buyerID)
	require.NoError(t, err)
	assert.Len(t, byBuyer, 2)
}
