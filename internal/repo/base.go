// Package repo provides the shared connection plumbing embedded by the
// domain repositories (users, produce, purchase, txsync mirrors).
package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base binds a GORM connection and hands out context-scoped handles.
type Base struct {
	db *gorm.DB
}

// NewBase wraps the provided connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to ctx so cancellation and request
// deadlines reach the driver. A nil ctx returns the raw connection.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}
