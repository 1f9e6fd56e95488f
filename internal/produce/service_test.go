package produce

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/agritraceio/agritrace-backend/internal/contract"
	"github.com/agritraceio/agritrace-backend/internal/gateway"
	"github.com/agritraceio/agritrace-backend/internal/txsync"
	"github.com/agritraceio/agritrace-backend/pkg/db/models"
	"github.com/agritraceio/agritrace-backend/pkg/enums"
	pkgerrors "github.com/agritraceio/agritrace-backend/pkg/errors"
	"github.com/agritraceio/agritrace-backend/pkg/pagination"
)

func setupProduceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	lots := `
CREATE TABLE IF NOT EXISTS produce_lots (
  id TEXT PRIMARY KEY,
  farmer_id TEXT NOT NULL,
  crop_type TEXT NOT NULL,
  quantity TEXT NOT NULL,
  unit TEXT NOT NULL DEFAULT 'kg',
  origin TEXT,
  attributes TEXT,
  ledger_tx_id TEXT,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
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
	require.NoError(t, db.Exec(lots).Error)
	require.NoError(t, db.Exec(mirrors).Error)
	require.NoError(t, db.Exec(`DELETE FROM produce_lots`).Error)
	require.NoError(t, db.Exec(`DELETE FROM ledger_transactions`).Error)
	return db
}

func newProduceService(t *testing.T) (Service, *gateway.Client) {
	t.Helper()
	db := setupProduceTestDB(t)
	client := gateway.New(gateway.NewMemoryBackend("Org1MSP"), nil)
	sync, err := txsync.NewService(client, txsync.NewRepository(db), txsync.Options{})
	require.NoError(t, err)
	svc, err := NewService(NewRepository(db), sync, client)
	require.NoError(t, err)
	return svc, client
}

func TestCreateLotSubmitsHarvestFact(t *testing.T) {
	svc, client := newProduceService(t)
	ctx := context.Background()
	farmerID := uuid.New()

	lot, mirror, err := svc.CreateLot(ctx, CreateLotInput{
		FarmerID:    farmerID,
		CropType:    "alphonso mango",
		Quantity:    "120.5",
		Origin:      "Ratnagiri",
		Attributes:  map[string]any{"grade": "A"},
		SubmittedBy: "farmer-17",
	})
	require.NoError(t, err)
	require.NotNil(t, lot)
	require.NotNil(t, mirror)

	assert.Equal(t, enums.TxStatusConfirmed, mirror.Status)
	assert.Equal(t, mirror.TxID, lot.LedgerTxID)
	assert.Equal(t, "kg", lot.Unit)

	rec, err := client.ReadRecord(ctx, lot.LedgerTxID)
	require.NoError(t, err)
	assert.Equal(t, string(enums.RecordTypeHarvest), rec.RecordType)
	assert.Equal(t, "alphonso mango", rec.Payload["cropType"])
	assert.Equal(t, "A", rec.Payload["grade"])
}

func TestProvenanceJoinsLedgerRecord(t *testing.T) {
	svc, _ := newProduceService(t)
	ctx := context.Background()

	lot, _, err := svc.CreateLot(ctx, CreateLotInput{
		FarmerID:    uuid.New(),
		CropType:    "basmati rice",
		Quantity:    "800",
		Unit:        "kg",
		SubmittedBy: "farmer-2",
	})
	require.NoError(t, err)

	view, err := svc.Provenance(ctx, lot.ID)
	require.NoError(t, err)
	require.NotNil(t, view.Record)
	assert.Equal(t, "basmati rice", view.Record.Payload["cropType"])
	require.Len(t, view.History, 1)
	assert.NotEmpty(t, view.History[0].TxID)
	assert.Equal(t, "basmati rice", view.History[0].Record.Payload["cropType"])
}

type failedSubmitter struct{}

func (failedSubmitter) Submit(ctx context.Context, input txsync.SubmitInput) (*models.LedgerTransaction, error) {
	msg := "peer unreachable"
	return &models.LedgerTransaction{
		TxID:         uuid.NewString(),
		RecordType:   input.RecordType,
		Hash:         "deadbeef",
		Status:       enums.TxStatusFailed,
		SubmittedBy:  input.SubmittedBy,
		ErrorMessage: &msg,
	}, nil
}

type emptyLedger struct{}

func (emptyLedger) ReadRecord(ctx context.Context, id string) (*contract.TraceRecord, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "record not found")
}

func (emptyLedger) RecordHistory(ctx context.Context, id string) ([]contract.HistoryEntry, error) {
	return []contract.HistoryEntry{}, nil
}

func TestCreateLotWithFailedSubmissionStillPersists(t *testing.T) {
	db := setupProduceTestDB(t)
	svc, err := NewService(NewRepository(db), failedSubmitter{}, emptyLedger{})
	require.NoError(t, err)
	ctx := context.Background()

	lot, mirror, err := svc.CreateLot(ctx, CreateLotInput{
		FarmerID:    uuid.New(),
		CropType:    "turmeric",
		Quantity:    "40",
		SubmittedBy: "farmer-9",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.TxStatusFailed, mirror.Status)
	assert.Equal(t, mirror.TxID, lot.LedgerTxID)

	view, err := svc.Provenance(ctx, lot.ID)
	require.NoError(t, err)
	assert.Nil(t, view.Record, "failed submissions have no ledger record")
	assert.Empty(t, view.History)
}

func TestCreateLotValidation(t *testing.T) {
	svc, _ := newProduceService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateLotInput
	}{
		{"missing farmer", CreateLotInput{CropType: "x", Quantity: "1", SubmittedBy: "u"}},
		{"missing crop", CreateLotInput{FarmerID: uuid.New(), Quantity: "1", SubmittedBy: "u"}},
		{"missing quantity", CreateLotInput{FarmerID: uuid.New(), CropType: "x", SubmittedBy: "u"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.CreateLot(ctx, tc.input)
			require.Error(t, err)
			assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
		})
	}
}

func TestGetLotNotFound(t *testing.T) {
	svc, _ := newProduceService(t)

	_, err := svc.GetLot(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestListByFarmerPaginates(t *testing.T) {
	svc, _ := newProduceService(t)
	ctx := context.Background()
	farmerID := uuid.New()

	for _, crop := range []string{"mango", "banana", "papaya"} {
		_, _, err := svc.CreateLot(ctx, CreateLotInput{
			FarmerID:    farmerID,
			CropType:    crop,
			Quantity:    "10",
			SubmittedBy: "farmer-17",
		})
		require.NoError(t, err)
	}

	first, next, err := svc.ListByFarmer(ctx, farmerID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.NotEmpty(t, next)

	second, last, err := svc.ListByFarmer(ctx, farmerID, pagination.Params{Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Empty(t, last)

	seen := map[uuid.UUID]bool{}
	for _, lot := range append(first, second...) {
		assert.False(t, seen[lot.ID], "lot %s listed twice", lot.ID)
		seen[lot.ID] = true
	}

	_, _, err = svc.ListByFarmer(ctx, farmerID, pagination.Params{Cursor: "%%%not-base64%%%"})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}
