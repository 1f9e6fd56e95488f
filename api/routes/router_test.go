package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/agritraceio/agritrace-backend/internal/gateway"
	"github.com/agritraceio/agritrace-backend/internal/ingest"
	"github.com/agritraceio/agritrace-backend/internal/produce"
	"github.com/agritraceio/agritrace-backend/internal/purchase"
	"github.com/agritraceio/agritrace-backend/internal/txsync"
	"github.com/agritraceio/agritrace-backend/internal/users"
	"github.com/agritraceio/agritrace-backend/pkg/config"
	"github.com/agritraceio/agritrace-backend/pkg/logger"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(ctx context.Context) error { return s.err }

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "agritrace-test",
			ExpirationMinutes: 15,
		},
		Password: config.PasswordConfig{
			ArgonMemoryKB:    8,
			ArgonTime:        1,
			ArgonParallelism: 1,
			ArgonSaltLen:     8,
			ArgonKeyLen:      16,
		},
		Ingest: config.IngestConfig{MaxRows: 100, MaxUploadMB: 1},
	}
}

func setupRouterTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	for _, schema := range []string{
		`CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  full_name TEXT NOT NULL,
  role TEXT NOT NULL,
  ledger_identity TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`,
		`CREATE TABLE IF NOT EXISTS ledger_transactions (
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
);`,
		`CREATE TABLE IF NOT EXISTS produce_lots (
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
);`,
		`CREATE TABLE IF NOT EXISTS purchases (
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
);`,
	} {
		require.NoError(t, db.Exec(schema).Error)
	}
	for _, table := range []string{"users", "ledger_transactions", "produce_lots", "purchases"} {
		require.NoError(t, db.Exec("DELETE FROM "+table).Error)
	}
	return db
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	cfg := testConfig()
	logg := logger.New(logger.Options{ServiceName: "router-test"})
	db := setupRouterTestDB(t)

	client := gateway.New(gateway.NewMemoryBackend("Org1MSP"), nil)
	sync, err := txsync.NewService(client, txsync.NewRepository(db), txsync.Options{})
	require.NoError(t, err)
	userSvc, err := users.NewService(users.NewRepository(db), cfg.Password)
	require.NoError(t, err)
	produceSvc, err := produce.NewService(produce.NewRepository(db), sync, client)
	require.NoError(t, err)
	purchaseSvc, err := purchase.NewService(purchase.NewRepository(db), sync)
	require.NoError(t, err)
	ingestSvc, err := ingest.NewService(sync, cfg.Ingest)
	require.NoError(t, err)

	return NewRouter(Deps{
		Config:       cfg,
		Logger:       logg,
		DB:           stubPinger{},
		Ledger:       client,
		Registry:     prometheus.NewRegistry(),
		Users:        userSvc,
		Transactions: sync,
		Produce:      produceSvc,
		Purchases:    purchaseSvc,
		Ingest:       ingestSvc,
	})
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func registerAndLogin(t *testing.T, router http.Handler, role string) string {
	t.Helper()
	email := strings.ToLower(role) + "@example.com"
	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":           email,
		"full_name":       "Test " + role,
		"password":        "long-enough-pass",
		"role":            role,
		"ledger_identity": "x509::" + role,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    email,
		"password": "long-enough-pass",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var envelope struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.AccessToken)
	return envelope.Data.AccessToken
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ledger_backend":"memory"`)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/transactions/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/transactions/", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubmitAndReadBack(t *testing.T) {
	router := newTestRouter(t)
	token := registerAndLogin(t, router, "farmer")

	rec := doJSON(t, router, http.MethodPost, "/api/v1/transactions/", token, map[string]any{
		"data":        map[string]any{"lot": "LOT-7", "farm": "green-acres"},
		"record_type": "harvest",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var submitResp struct {
		Data struct {
			TransactionID string `json:"transactionId"`
			Status        string `json:"status"`
			Hash          string `json:"hash"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &submitResp))
	assert.Equal(t, "CONFIRMED", submitResp.Data.Status)
	assert.NotEmpty(t, submitResp.Data.Hash)

	txID := submitResp.Data.TransactionID
	rec = doJSON(t, router, http.MethodGet, "/api/v1/ledger/records/"+txID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"LOT-7"`)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/ledger/records/"+txID+"/history", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/transactions/"+txID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/transactions/?status=CONFIRMED", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), txID)
}

func TestVerifyRequiresInspectorRole(t *testing.T) {
	router := newTestRouter(t)
	farmerToken := registerAndLogin(t, router, "farmer")

	rec := doJSON(t, router, http.MethodPost, "/api/v1/transactions/", farmerToken, map[string]any{
		"data":        map[string]any{"lot": "LOT-9"},
		"record_type": "harvest",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var submitResp struct {
		Data struct {
			TransactionID string `json:"transactionId"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &submitResp))
	txID := submitResp.Data.TransactionID

	rec = doJSON(t, router, http.MethodPost, "/api/v1/ledger/records/"+txID+"/verify", farmerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	inspectorToken := registerAndLogin(t, router, "inspector")
	rec = doJSON(t, router, http.MethodPost, "/api/v1/ledger/records/"+txID+"/verify", inspectorToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/api/v1/ledger/records/"+txID, inspectorToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"verified":true`)
}

func TestUnknownRecordIsNotFound(t *testing.T) {
	router := newTestRouter(t)
	token := registerAndLogin(t, router, "farmer")

	rec := doJSON(t, router, http.MethodGet, "/api/v1/ledger/records/no-such-id", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIngestCSVEndpoint(t *testing.T) {
	router := newTestRouter(t)
	token := registerAndLogin(t, router, "processor")

	csvBody := "lot,stage\nLOT-1,washing\nLOT-2,drying\n"
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest/csv?type=processing", strings.NewReader(csvBody))
	req.Header.Set("Content-Type", "text/csv")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"processed_records":2`)
	assert.Contains(t, rec.Body.String(), `"failed_records":0`)
}
