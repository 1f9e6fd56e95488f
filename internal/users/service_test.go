package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/agritraceio/agritrace-backend/pkg/config"
	"github.com/agritraceio/agritrace-backend/pkg/enums"
	pkgerrors "github.com/agritraceio/agritrace-backend/pkg/errors"
)

func setupUsersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  full_name TEXT NOT NULL,
  role TEXT NOT NULL,
  ledger_identity TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`
	require.NoError(t, db.Exec(schema).Error)
	require.NoError(t, db.Exec(`DELETE FROM users`).Error)
	return db
}

func newTestService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(NewRepository(setupUsersTestDB(t)), config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	})
	require.NoError(t, err)
	return svc
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Email:          "Maria@Example.COM",
		FullName:       "Maria Vega",
		Password:       "orchard-gate-9",
		Role:           "farmer",
		LedgerIdentity: "x509::maria",
	})
	require.NoError(t, err)
	assert.Equal(t, "maria@example.com", user.Email)
	assert.Equal(t, enums.UserRoleFarmer, user.Role)
	assert.NotEqual(t, "orchard-gate-9", user.PasswordHash)

	authed, err := svc.Authenticate(ctx, "maria@example.com", "orchard-gate-9")
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)

	_, err = svc.Authenticate(ctx, "maria@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))

	_, err = svc.Authenticate(ctx, "nobody@example.com", "whatever")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input RegisterInput
	}{
		{"missing email", RegisterInput{FullName: "A", Password: "p", Role: "farmer", LedgerIdentity: "x"}},
		{"missing name", RegisterInput{Email: "a@b.c", Password: "p", Role: "farmer", LedgerIdentity: "x"}},
		{"bad role", RegisterInput{Email: "a@b.c", FullName: "A", Password: "p", Role: "wizard", LedgerIdentity: "x"}},
		{"missing identity", RegisterInput{Email: "a@b.c", FullName: "A", Password: "p", Role: "farmer"}},
		{"empty password", RegisterInput{Email: "a@b.c", FullName: "A", Role: "farmer", LedgerIdentity: "x"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.input)
			require.Error(t, err)
			assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
		})
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	input := RegisterInput{
		Email:          "dup@example.com",
		FullName:       "First",
		Password:       "pw-one",
		Role:           "processor",
		LedgerIdentity: "x509::first",
	}
	_, err := svc.Register(ctx, input)
	require.NoError(t, err)

	input.LedgerIdentity = "x509::second"
	_, err = svc.Register(ctx, input)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
}

func TestGetByIDNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GetByID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}
