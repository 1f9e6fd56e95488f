package txsync

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/agritraceio/agritrace-backend/pkg/db/models"
	"github.com/agritraceio/agritrace-backend/pkg/enums"
	pkgerrors "github.com/agritraceio/agritrace-backend/pkg/errors"
)

func setupMirrorTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
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
	require.NoError(t, db.Exec(schema).Error)
	require.NoError(t, db.Exec(`DELETE FROM ledger_transactions`).Error)
	return db
}

func newMirror(recordType string, status enums.TxStatus, submittedBy string) *models.LedgerTransaction {
	m := &models.LedgerTransaction{
		TxID:        uuid.NewString(),
		RecordType:  recordType,
		Payload:     []byte(`{"lot":"LOT-1"}`),
		Hash:        "deadbeef",
		Status:      status,
		SubmittedBy: submittedBy,
	}
	if status == enums.TxStatusConfirmed {
		ref := "fabric-" + m.TxID
		block := uint64(12)
		m.LedgerRef = &ref
		m.BlockNumber = &block
		m.Validated = true
	}
	return m
}

func TestRepositoryCreateAndGet(t *testing.T) {
	repo := NewRepository(setupMirrorTestDB(t))
	ctx := context.Background()

	mirror := newMirror("harvest", enums.TxStatusConfirmed, "farmer-1")
	require.NoError(t, repo.Create(ctx, mirror))

	loaded, err := repo.GetByTxID(ctx, mirror.TxID)
	require.NoError(t, err)
	assert.Equal(t, mirror.TxID, loaded.TxID)
	assert.Equal(t, enums.TxStatusConfirmed, loaded.Status)
	require.NotNil(t, loaded.LedgerRef)
	assert.Equal(t, *mirror.LedgerRef, *loaded.LedgerRef)
	assert.True(t, loaded.Validated)
}

func TestRepositoryGetUnknownIsNotFound(t *testing.T) {
	repo := NewRepository(setupMirrorTestDB(t))

	_, err := repo.GetByTxID(context.Background(), uuid.NewString())
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestRepositoryDuplicateTxIDConflicts(t *testing.T) {
	repo := NewRepository(setupMirrorTestDB(t))
	ctx := context.Background()

	mirror := newMirror("harvest", enums.TxStatusConfirmed, "farmer-1")
	require.NoError(t, repo.Create(ctx, mirror))

	dup := newMirror("harvest", enums.TxStatusFailed, "farmer-1")
	dup.TxID = mirror.TxID
	err := repo.Create(ctx, dup)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
}

func TestRepositoryListFilters(t *testing.T) {
	repo := NewRepository(setupMirrorTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newMirror("harvest", enums.TxStatusConfirmed, "farmer-1")))
	require.NoError(t, repo.Create(ctx, newMirror("harvest", enums.TxStatusFailed, "farmer-1")))
	require.NoError(t, repo.Create(ctx, newMirror("retail", enums.TxStatusConfirmed, "shop-9")))

	all, err := repo.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	failed, err := repo.List(ctx, ListFilter{Status: enums.TxStatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, enums.TxStatusFailed, failed[0].Status)

	harvest, err := repo.List(ctx, ListFilter{RecordType: "harvest"})
	require.NoError(t, err)
	assert.Len(t, harvest, 2)

	byShop, err := repo.List(ctx, ListFilter{SubmittedBy: "shop-9"})
	require.NoError(t, err)
	require.Len(t, byShop, 1)
	assert.Equal(t, "retail", byShop[0].RecordType)

	limited, err := repo.List(ctx, ListFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
