package txsync

import (
	"context"

	"gorm.io/gorm"

	"github.com/agritraceio/agritrace-backend/internal/repo"
	"github.com/agritraceio/agritrace-backend/pkg/db"
	"github.com/agritraceio/agritrace-backend/pkg/db/models"
	"github.com/agritraceio/agritrace-backend/pkg/enums"
	pkgerrors "github.com/agritraceio/agritrace-backend/pkg/errors"
)

// Repository persists ledger transaction mirrors. Rows are insert-only:
// there is deliberately no update or delete surface, because each row is the
// immutable record of one submission attempt.
type Repository interface {
	Create(ctx context.Context, mirror *models.LedgerTransaction) error
	GetByTxID(ctx context.Context, txID string) (*models.LedgerTransaction, error)
	List(ctx context.Context, filter ListFilter) ([]models.LedgerTransaction, error)
}

// ListFilter narrows mirror listings. Zero values mean "no constraint".
type ListFilter struct {
	Status      enums.TxStatus
	RecordType  string
	SubmittedBy string
	Limit       int
}

type repository struct {
	repo.Base
}

// NewRepository returns a mirror repository bound to the provided database.
func NewRepository(gdb *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(gdb)}
}

func (r *repository) Create(ctx context.Context, mirror *models.LedgerTransaction) error {
	if err := r.DB(ctx).Create(mirror).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "transaction mirror already recorded")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "inserting transaction mirror")
	}
	return nil
}

func (r *repository) GetByTxID(ctx context.Context, txID string) (*models.LedgerTransaction, error) {
	var mirror models.LedgerTransaction
	if err := r.DB(ctx).
		Where("tx_id = ?", txID).
		First(&mirror).Error; err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading transaction mirror")
	}
	return &mirror, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.LedgerTransaction, error) {
	query := r.DB(ctx).Model(&models.LedgerTransaction{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.RecordType != "" {
		query = query.Where("record_type = ?", filter.RecordType)
	}
	if filter.SubmittedBy != "" {
		query = query.Where("submitted_by = ?", filter.SubmittedBy)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var mirrors []models.LedgerTransaction
	if err := query.Order("created_at DESC").Find(&mirrors).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing transaction mirrors")
	}
	return mirrors, nil
}
