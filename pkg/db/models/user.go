package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/agritraceio/agritrace-backend/pkg/enums"
)

// User is an account that can submit or verify supply-chain facts. The
// ledger only ever sees the LedgerIdentity string.
type User struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email          string         `gorm:"column:email;uniqueIndex;not null"`
	FullName       string         `gorm:"column:full_name;not null"`
	Role           enums.UserRole `gorm:"column:role;type:user_role_enum;not null"`
	LedgerIdentity string         `gorm:"column:ledger_identity;uniqueIndex;not null"`
	PasswordHash   string         `gorm:"column:password_hash;not null"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
