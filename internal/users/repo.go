package users

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agritraceio/agritrace-backend/internal/repo"
	"github.com/agritraceio/agritrace-backend/pkg/db"
	"github.com/agritraceio/agritrace-backend/pkg/db/models"
	pkgerrors "github.com/agritraceio/agritrace-backend/pkg/errors"
)

// Repository exposes user persistence operations.
type Repository interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByLedgerIdentity(ctx context.Context, identity string) (*models.User, error)
}

type repository struct {
	repo.Base
}

// NewRepository constructs a users repo bound to the provided database.
func NewRepository(gdb *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(gdb)}
}

func (r *repository) Create(ctx context.Context, user *models.User) error {
	if err := r.DB(ctx).Create(user).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "email or ledger identity already registered")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating user")
	}
	return nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translateLookupErr(err)
	}
	return &user, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translateLookupErr(err)
	}
	return &user, nil
}

func (r *repository) FindByLedgerIdentity(ctx context.Context, identity string) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).Where("ledger_identity = ?", identity).First(&user).Error; err != nil {
		return nil, translateLookupErr(err)
	}
	return &user, nil
}

func translateLookupErr(err error) error {
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading user")
}
