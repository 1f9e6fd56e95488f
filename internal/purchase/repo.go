package purchase

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agritraceio/agritrace-backend/internal/repo"
	"github.com/agritraceio/agritrace-backend/pkg/db"
	"github.com/agritraceio/agritrace-backend/pkg/db/models"
	pkgerrors "github.com/agritraceio/agritrace-backend/pkg/errors"
)

// Repository persists purchases.
type Repository interface {
	Create(ctx context.Context, purchase *models.Purchase) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error)
	ListByLot(ctx context.Context, lotID uuid.UUID) ([]models.Purchase, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Purchase, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns a purchase repository bound to the provided database.
func NewRepository(gdb *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(gdb)}
}

func (r *repository) Create(ctx context.Context, purchase *models.Purchase) error {
	if err := r.DB(ctx).Create(purchase).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating purchase")
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	if err := r.DB(ctx).First(&purchase, "id = ?", id).Error; err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading purchase")
	}
	return &purchase, nil
}

func (r *repository) ListByLot(ctx context.Context, lotID uuid.UUID) ([]models.Purchase, error) {
	return r.list(ctx, "lot_id = ?", lotID)
}

func (r *repository) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Purchase, error) {
	return r.list(ctx, "buyer_id = ?", buyerID)
}

func (r *repository) list(ctx context.Context, cond string, arg any) ([]models.Purchase, error) {
	var purchases []models.Purchase
	if err := r.DB(ctx).
		Where(cond, arg).
		Order("created_at DESC").
		Find(&purchases).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing purchases")
	}
	return purchases, nil
}
