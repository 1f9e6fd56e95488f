package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"go.uber.org/multierr"

	"github.com/agritraceio/agritrace-backend/internal/txsync"
	"github.com/agritraceio/agritrace-backend/pkg/config"
	"github.com/agritraceio/agritrace-backend/pkg/db/models"
	"github.com/agritraceio/agritrace-backend/pkg/enums"
	pkgerrors "github.com/agritraceio/agritrace-backend/pkg/errors"
)

type txSubmitter interface {
	Submit(ctx context.Context, input txsync.SubmitInput) (*models.LedgerTransaction, error)
}

// Service ingests CSV batches of supply-chain facts. Each data row becomes
// one independent ledger submission; a row that fails to sync never aborts
// the rest of the batch.
type Service interface {
	IngestCSV(ctx context.Context, r io.Reader, input BatchInput) (*BatchResult, error)
}

// BatchInput describes the batch being ingested.
type BatchInput struct {
	RecordType  string
	SubmittedBy string
}

// BatchResult summarizes one ingested batch. ParseErrors aggregates rows
// that never became submissions; FailedRecords counts rows whose mirror
// came back FAILED.
type BatchResult struct {
	TotalRows        int      `json:"totalRows"`
	ProcessedRecords int      `json:"processedRecords"`
	FailedRecords    int      `json:"failedRecords"`
	SkippedRows      int      `json:"skippedRows"`
	TransactionIDs   []string `json:"transactionIds"`
	ParseErrors      error    `json:"-"`
}

type service struct {
	sync txSubmitter
	cfg  config.IngestConfig
}

// NewService wires a CSV ingest service.
func NewService(sync txSubmitter, cfg config.IngestConfig) (Service, error) {
	if sync == nil {
		return nil, fmt.Errorf("synchronization service required")
	}
	return &service{sync: sync, cfg: cfg}, nil
}

// IngestCSV reads a header row then submits each data row as one fact. The
// returned error covers batch-level problems only (bad header, row limit,
// cancelled context); per-row outcomes live in the result.
func (s *service) IngestCSV(ctx context.Context, r io.Reader, input BatchInput) (*BatchResult, error) {
	if !enums.RecordType(input.RecordType).IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid record type %q", input.RecordType))
	}
	if strings.TrimSpace(input.SubmittedBy) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "submitted by is required")
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "reading csv header")
	}
	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = strings.TrimSpace(name)
	}
	if len(columns) == 0 || columns[0] == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "csv header is empty")
	}

	result := &BatchResult{TransactionIDs: []string{}}
	maxRows := s.cfg.MaxRows
	if maxRows <= 0 {
		maxRows = 5000
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "ingest cancelled")
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		result.TotalRows++
		if result.TotalRows > maxRows {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("batch exceeds %d rows", maxRows))
		}
		if err != nil {
			result.SkippedRows++
			result.ParseErrors = multierr.Append(result.ParseErrors, fmt.Errorf("row %d: %w", result.TotalRows, err))
			continue
		}

		payload, rowErr := rowPayload(columns, row)
		if rowErr != nil {
			result.SkippedRows++
			result.ParseErrors = multierr.Append(result.ParseErrors, fmt.Errorf("row %d: %w", result.TotalRows, rowErr))
			continue
		}

		mirror, err := s.sync.Submit(ctx, txsync.SubmitInput{
			Payload:     payload,
			RecordType:  input.RecordType,
			SubmittedBy: input.SubmittedBy,
		})
		if err != nil {
			// Mirror persistence failed; without the audit row the batch
			// cannot honestly continue.
			return nil, err
		}

		result.TransactionIDs = append(result.TransactionIDs, mirror.TxID)
		if mirror.Status == enums.TxStatusFailed {
			result.FailedRecords++
		} else {
			result.ProcessedRecords++
		}
	}

	return result, nil
}

func rowPayload(columns, row []string) (map[string]any, error) {
	if len(row) != len(columns) {
		return nil, fmt.Errorf("expected %d fields, got %d", len(columns), len(row))
	}
	payload := make(map[string]any, len(columns))
	empty := true
	for i, column := range columns {
		value := strings.TrimSpace(row[i])
		payload[column] = value
		if value != "" {
			empty = false
		}
	}
	if empty {
		return nil, fmt.Errorf("row is empty")
	}
	return payload, nil
}
