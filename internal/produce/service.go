package produce

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/agritraceio/agritrace-backend/internal/contract"
	"github.com/agritraceio/agritrace-backend/internal/txsync"
	"github.com/agritraceio/agritrace-backend/pkg/db/models"
	"github.com/agritraceio/agritrace-backend/pkg/enums"
	pkgerrors "github.com/agritraceio/agritrace-backend/pkg/errors"
	"github.com/agritraceio/agritrace-backend/pkg/pagination"
)

type txSubmitter interface {
	Submit(ctx context.Context, input txsync.SubmitInput) (*models.LedgerTransaction, error)
}

type ledgerReader interface {
	ReadRecord(ctx context.Context, id string) (*contract.TraceRecord, error)
	RecordHistory(ctx context.Context, id string) ([]contract.HistoryEntry, error)
}

// Service manages produce lots. Creating a lot submits a harvest fact to
// the ledger through the synchronization service and links the resulting
// mirror to the row.
type Service interface {
	CreateLot(ctx context.Context, input CreateLotInput) (*models.ProduceLot, *models.LedgerTransaction, error)
	GetLot(ctx context.Context, id uuid.UUID) (*models.ProduceLot, error)
	ListByFarmer(ctx context.Context, farmerID uuid.UUID, params pagination.Params) ([]models.ProduceLot, string, error)
	Provenance(ctx context.Context, id uuid.UUID) (*ProvenanceView, error)
}

// CreateLotInput captures a harvested lot.
type CreateLotInput struct {
	FarmerID    uuid.UUID
	CropType    string
	Quantity    string
	Unit        string
	Origin      string
	Attributes  map[string]any
	SubmittedBy string
}

// ProvenanceView joins the document row with the ledger's view of it. The
// record and its history are nil when the harvest submission never reached
// the ledger.
type ProvenanceView struct {
	Lot     *models.ProduceLot      `json:"lot"`
	Record  *contract.TraceRecord   `json:"record,omitempty"`
	History []contract.HistoryEntry `json:"history,omitempty"`
}

type service struct {
	repo   Repository
	sync   txSubmitter
	ledger ledgerReader
}

// NewService wires a produce service.
func NewService(repo Repository, sync txSubmitter, ledger ledgerReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("produce repository required")
	}
	if sync == nil {
		return nil, fmt.Errorf("synchronization service required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("ledger reader required")
	}
	return &service{repo: repo, sync: sync, ledger: ledger}, nil
}

// CreateLot submits the harvest fact first, then persists the lot pointing
// at the submission's mirror. A FAILED mirror still yields a lot row; the
// mirror records what went wrong.
func (s *service) CreateLot(ctx context.Context, input CreateLotInput) (*models.ProduceLot, *models.LedgerTransaction, error) {
	if input.FarmerID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "farmer id is required")
	}
	if strings.TrimSpace(input.CropType) == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "crop type is required")
	}
	if strings.TrimSpace(input.Quantity) == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity is required")
	}

	unit := input.Unit
	if unit == "" {
		unit = "kg"
	}

	payload := map[string]any{
		"farmerId": input.FarmerID.String(),
		"cropType": input.CropType,
		"quantity": input.Quantity,
		"unit":     unit,
		"origin":   input.Origin,
	}
	for k, v := range input.Attributes {
		if _, reserved := payload[k]; !reserved {
			payload[k] = v
		}
	}

	mirror, err := s.sync.Submit(ctx, txsync.SubmitInput{
		Payload:     payload,
		RecordType:  string(enums.RecordTypeHarvest),
		SubmittedBy: input.SubmittedBy,
	})
	if err != nil {
		return nil, nil, err
	}

	var attrs json.RawMessage
	if len(input.Attributes) > 0 {
		attrs, err = json.Marshal(input.Attributes)
		if err != nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "attributes cannot be serialized")
		}
	}

	lot := &models.ProduceLot{
		ID:         uuid.New(),
		FarmerID:   input.FarmerID,
		CropType:   strings.TrimSpace(input.CropType),
		Quantity:   strings.TrimSpace(input.Quantity),
		Unit:       unit,
		Origin:     strings.TrimSpace(input.Origin),
		Attributes: attrs,
		LedgerTxID: mirror.TxID,
	}
	if err := s.repo.Create(ctx, lot); err != nil {
		return nil, nil, err
	}
	return lot, mirror, nil
}

func (s *service) GetLot(ctx context.Context, id uuid.UUID) (*models.ProduceLot, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListByFarmer(ctx context.Context, farmerID uuid.UUID, params pagination.Params) ([]models.ProduceLot, string, error) {
	return s.repo.ListByFarmer(ctx, farmerID, params)
}

// Provenance returns the lot together with the ledger record and history
// behind it. A lot whose submission failed comes back with a nil record.
func (s *service) Provenance(ctx context.Context, id uuid.UUID) (*ProvenanceView, error) {
	lot, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := &ProvenanceView{Lot: lot}
	if lot.LedgerTxID == "" {
		return view, nil
	}

	record, err := s.ledger.ReadRecord(ctx, lot.LedgerTxID)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			return view, nil
		}
		return nil, err
	}
	view.Record = record

	history, err := s.ledger.RecordHistory(ctx, lot.LedgerTxID)
	if err != nil {
		return nil, err
	}
	view.History = history
	return view, nil
}
