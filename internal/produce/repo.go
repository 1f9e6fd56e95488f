package produce

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agritraceio/agritrace-backend/internal/repo"
	"github.com/agritraceio/agritrace-backend/pkg/db"
	"github.com/agritraceio/agritrace-backend/pkg/db/models"
	pkgerrors "github.com/agritraceio/agritrace-backend/pkg/errors"
	"github.com/agritraceio/agritrace-backend/pkg/pagination"
)

// Repository persists produce lots.
type Repository interface {
	Create(ctx context.Context, lot *models.ProduceLot) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ProduceLot, error)
	ListByFarmer(ctx context.Context, farmerID uuid.UUID, params pagination.Params) ([]models.ProduceLot, string, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns a produce repository bound to the provided database.
func NewRepository(gdb *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(gdb)}
}

func (r *repository) Create(ctx context.Context, lot *models.ProduceLot) error {
	if err := r.DB(ctx).Create(lot).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating produce lot")
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.ProduceLot, error) {
	var lot models.ProduceLot
	if err := r.DB(ctx).First(&lot, "id = ?", id).Error; err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "produce lot not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading produce lot")
	}
	return &lot, nil
}

func (r *repository) ListByFarmer(ctx context.Context, farmerID uuid.UUID, params pagination.Params) ([]models.ProduceLot, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	query := r.DB(ctx).Where("farmer_id = ?", farmerID)
	if cursor != nil {
		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var lots []models.ProduceLot
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&lots).Error; err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing produce lots")
	}

	next := ""
	if len(lots) > limit {
		lots = lots[:limit]
		last := lots[len(lots)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return lots, next, nil
}
