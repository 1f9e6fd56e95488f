package txsync

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/agritraceio/agritrace-backend/internal/gateway"
	"github.com/agritraceio/agritrace-backend/pkg/db/models"
	"github.com/agritraceio/agritrace-backend/pkg/digest"
	"github.com/agritraceio/agritrace-backend/pkg/enums"
	pkgerrors "github.com/agritraceio/agritrace-backend/pkg/errors"
	"github.com/agritraceio/agritrace-backend/pkg/logger"
	"github.com/agritraceio/agritrace-backend/pkg/metrics"
)

const defaultPublishTimeout = 5 * time.Second

type ledgerGateway interface {
	PutRecord(ctx context.Context, id, recordType string, payload map[string]any) (*gateway.CommitResult, error)
	VerifyRecord(ctx context.Context, id string) (*gateway.CommitResult, error)
}

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

type publisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) publishResult
}

// Service keeps the off-chain mirror table in lockstep with ledger
// submissions. Every Submit call leaves exactly one mirror row behind,
// whether the ledger accepted the fact or not.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*models.LedgerTransaction, error)
	Verify(ctx context.Context, id string) (*gateway.CommitResult, error)
	Get(ctx context.Context, txID string) (*models.LedgerTransaction, error)
	List(ctx context.Context, filter ListFilter) ([]models.LedgerTransaction, error)
}

// SubmitInput captures one supply-chain fact headed for the ledger.
type SubmitInput struct {
	Payload     map[string]any
	RecordType  string
	SubmittedBy string
}

// Options carries the optional collaborators of the service. All of them
// may be left nil.
type Options struct {
	Metrics *metrics.LedgerMetrics
	Events  publisher
	Logger  *logger.Logger
}

type service struct {
	gateway ledgerGateway
	repo    Repository
	metrics *metrics.LedgerMetrics
	events  publisher
	logg    *logger.Logger
}

// NewService wires a synchronization service around a gateway client and a
// mirror repository.
func NewService(gw ledgerGateway, repo Repository, opts Options) (Service, error) {
	if gw == nil {
		return nil, fmt.Errorf("ledger gateway required")
	}
	if repo == nil {
		return nil, fmt.Errorf("mirror repository required")
	}
	logg := opts.Logger
	if logg == nil {
		logg = logger.New(logger.Options{ServiceName: "txsync"})
	}
	return &service{
		gateway: gw,
		repo:    repo,
		metrics: opts.Metrics,
		events:  opts.Events,
		logg:    logg,
	}, nil
}

// Submit hashes the payload, submits it to the ledger under a fresh
// transaction id and records the outcome as one immutable mirror row.
// Ledger failures come back as a FAILED mirror, not as an error; only
// invalid input and mirror persistence problems surface as errors, since a
// lost mirror means a lost audit trail.
func (s *service) Submit(ctx context.Context, input SubmitInput) (*models.LedgerTransaction, error) {
	if len(input.Payload) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payload is required")
	}
	if !enums.RecordType(input.RecordType).IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid record type %q", input.RecordType))
	}
	if strings.TrimSpace(input.SubmittedBy) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "submitted by is required")
	}

	// The hash is computed before any network call so a FAILED mirror
	// still carries the digest of what was attempted.
	hash, err := digest.Canonical(input.Payload)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(input.Payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "payload cannot be serialized")
	}

	txID := uuid.NewString()
	ctx = s.logg.WithTxID(ctx, txID)

	start := time.Now()
	commit, submitErr := s.gateway.PutRecord(ctx, txID, input.RecordType, input.Payload)
	s.metrics.ObserveDuration(input.RecordType, time.Since(start))

	mirror := &models.LedgerTransaction{
		TxID:        txID,
		RecordType:  input.RecordType,
		Payload:     raw,
		Hash:        hash,
		SubmittedBy: input.SubmittedBy,
	}
	if submitErr != nil {
		message := pkgerrors.ChainString(submitErr)
		mirror.Status = enums.TxStatusFailed
		mirror.ErrorMessage = &message
		s.metrics.IncFailed(input.RecordType)
		s.logg.Warn(ctx, "ledger submission failed, recording FAILED mirror")
	} else {
		blockNumber := commit.BlockNumber
		mirror.Status = enums.TxStatusConfirmed
		mirror.LedgerRef = &commit.TransactionID
		mirror.BlockNumber = &blockNumber
		mirror.Validated = true
		s.metrics.IncConfirmed(input.RecordType)
	}

	if err := s.repo.Create(ctx, mirror); err != nil {
		return nil, err
	}

	s.publishMirrorEvent(ctx, mirror)
	return mirror, nil
}

// Verify marks a ledger record as verified. The verification is a ledger
// fact only; no mirror row is written.
func (s *service) Verify(ctx context.Context, id string) (*gateway.CommitResult, error) {
	if strings.TrimSpace(id) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "record id is required")
	}
	return s.gateway.VerifyRecord(ctx, id)
}

func (s *service) Get(ctx context.Context, txID string) (*models.LedgerTransaction, error) {
	return s.repo.GetByTxID(ctx, txID)
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.LedgerTransaction, error) {
	return s.repo.List(ctx, filter)
}

// publishMirrorEvent fans the mirror out to dashboard consumers. Best
// effort: a publish failure is logged and otherwise ignored.
func (s *service) publishMirrorEvent(ctx context.Context, mirror *models.LedgerTransaction) {
	if s.events == nil {
		return
	}
	data, err := json.Marshal(mirror)
	if err != nil {
		s.logg.Warn(ctx, "mirror event payload could not be serialized")
		return
	}
	msg := &gcppubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"transaction_id": mirror.TxID,
			"record_type":    mirror.RecordType,
			"status":         string(mirror.Status),
		},
	}
	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()
	result := s.events.Publish(publishCtx, msg)
	if result == nil {
		return
	}
	if _, err := result.Get(publishCtx); err != nil {
		s.logg.Warn(ctx, "mirror event publish failed")
	}
}

// NewEventPublisher adapts a Pub/Sub publisher to the narrow interface
// the service consumes.
func NewEventPublisher(p *gcppubsub.Publisher) publisher {
	if p == nil {
		return nil
	}
	return &gcpPublisher{pub: p}
}

type gcpPublisher struct {
	pub *gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.pub == nil {
		return nil
	}
	return p.pub.Publish(ctx, msg)
}
