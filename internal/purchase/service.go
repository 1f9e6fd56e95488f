package purchase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agritraceio/agritrace-backend/internal/txsync"
	"github.com/agritraceio/agritrace-backend/pkg/db/models"
	"github.com/agritraceio/agritrace-backend/pkg/enums"
	pkgerrors "github.com/agritraceio/agritrace-backend/pkg/errors"
)

type txSubmitter interface {
	Submit(ctx context.Context, input txsync.SubmitInput) (*models.LedgerTransaction, error)
}

// Service records produce sales. Each recorded purchase also submits a
// retail fact to the ledger.
type Service interface {
	Record(ctx context.Context, input RecordInput) (*models.Purchase, *models.LedgerTransaction, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Purchase, error)
	ListByLot(ctx context.Context, lotID uuid.UUID) ([]models.Purchase, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Purchase, error)
}

// RecordInput captures one sale of a produce lot.
type RecordInput struct {
	LotID       uuid.UUID
	BuyerID     uuid.UUID
	SellerID    uuid.UUID
	Quantity    string
	UnitPrice   decimal.Decimal
	Currency    string
	SubmittedBy string
}

type service struct {
	repo Repository
	sync txSubmitter
}

// NewService wires a purchase service.
func NewService(repo Repository, sync txSubmitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("purchase repository required")
	}
	if sync == nil {
		return nil, fmt.Errorf("synchronization service required")
	}
	return &service{repo: repo, sync: sync}, nil
}

func (s *service) Record(ctx context.Context, input RecordInput) (*models.Purchase, *models.LedgerTransaction, error) {
	if input.LotID == uuid.Nil || input.BuyerID == uuid.Nil || input.SellerID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "lot, buyer and seller ids are required")
	}
	quantity, err := decimal.NewFromString(strings.TrimSpace(input.Quantity))
	if err != nil || !quantity.IsPositive() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive number")
	}
	if !input.UnitPrice.IsPositive() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must be positive")
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = "INR"
	}
	total := input.UnitPrice.Mul(quantity).Round(2)

	mirror, err := s.sync.Submit(ctx, txsync.SubmitInput{
		Payload: map[string]any{
			"lotId":      input.LotID.String(),
			"buyerId":    input.BuyerID.String(),
			"sellerId":   input.SellerID.String(),
			"quantity":   quantity.String(),
			"unitPrice":  input.UnitPrice.String(),
			"totalPrice": total.String(),
			"currency":   currency,
		},
		RecordType:  string(enums.RecordTypeRetail),
		SubmittedBy: input.SubmittedBy,
	})
	if err != nil {
		return nil, nil, err
	}

	purchase := &models.Purchase{
		ID:         uuid.New(),
		LotID:      input.LotID,
		BuyerID:    input.BuyerID,
		SellerID:   input.SellerID,
		Quantity:   quantity.String(),
		UnitPrice:  input.UnitPrice,
		TotalPrice: total,
		Currency:   currency,
		LedgerTxID: mirror.TxID,
	}
	if err := s.repo.Create(ctx, purchase); err != nil {
		return nil, nil, err
	}
	return purchase, mirror, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListByLot(ctx context.Context, lotID uuid.UUID) ([]models.Purchase, error) {
	return s.repo.ListByLot(ctx, lotID)
}

func (s *service) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Purchase, error) {
	return s.repo.ListByBuyer(ctx, buyerID)
}
