package controllers

import (
	"net/http"
	"strings"

	"go.uber.org/multierr"

	"github.com/agritraceio/agritrace-backend/api/middleware"
	"github.com/agritraceio/agritrace-backend/api/responses"
	"github.com/agritraceio/agritrace-backend/internal/ingest"
	"github.com/agritraceio/agritrace-backend/pkg/config"
	pkgerrors "github.com/agritraceio/agritrace-backend/pkg/errors"
	"github.com/agritraceio/agritrace-backend/pkg/logger"
)

// IngestCSV accepts a CSV body and submits each data row as one fact. The
// record type comes from the ?type= query parameter.
func IngestCSV(svc ingest.Service, cfg config.IngestConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recordType := strings.TrimSpace(r.URL.Query().Get("type"))
		if recordType == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "type query parameter is required"))
			return
		}

		maxBytes := int64(cfg.MaxUploadMB) << 20
		if maxBytes <= 0 {
			maxBytes = 16 << 20
		}
		body := http.MaxBytesReader(w, r.Body, maxBytes)

		result, err := svc.IngestCSV(r.Context(), body, ingest.BatchInput{
			RecordType:  recordType,
			SubmittedBy: middleware.LedgerIdentityFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := map[string]any{
			"total_rows":        result.TotalRows,
			"processed_records": result.ProcessedRecords,
			"failed_records":    result.FailedRecords,
			"skipped_rows":      result.SkippedRows,
			"transaction_ids":   result.TransactionIDs,
		}
		if result.ParseErrors != nil {
			rowErrors := []string{}
			for _, rowErr := range multierr.Errors(result.ParseErrors) {
				rowErrors = append(rowErrors, rowErr.Error())
			}
			payload["row_errors"] = rowErrors
		}
		responses.WriteSuccess(w, payload)
	}
}
