package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/agritraceio/agritrace-backend/api/middleware"
	"github.com/agritraceio/agritrace-backend/api/responses"
	"github.com/agritraceio/agritrace-backend/api/validators"
	"github.com/agritraceio/agritrace-backend/internal/txsync"
	"github.com/agritraceio/agritrace-backend/pkg/enums"
	pkgerrors "github.com/agritraceio/agritrace-backend/pkg/errors"
	"github.com/agritraceio/agritrace-backend/pkg/logger"
)

type submitTransactionRequest struct {
	Data       map[string]any `json:"data" validate:"required"`
	RecordType string         `json:"record_type" validate:"required,oneof=harvest processing transport retail"`
}

// TransactionSubmit submits one supply-chain fact and returns its mirror.
// The mirror reports FAILED when the ledger could not be reached; the
// request itself still succeeds.
func TransactionSubmit(svc txsync.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitTransactionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		submittedBy := middleware.LedgerIdentityFromContext(r.Context())
		if submittedBy == "" {
			submittedBy = middleware.UserIDFromContext(r.Context())
		}

		mirror, err := svc.Submit(r.Context(), txsync.SubmitInput{
			Payload:     req.Data,
			RecordType:  req.RecordType,
			SubmittedBy: submittedBy,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, mirror)
	}
}

// TransactionGet returns one mirror row by its transaction id.
func TransactionGet(svc txsync.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		txID := strings.TrimSpace(chi.URLParam(r, "txID"))
		if txID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required"))
			return
		}

		mirror, err := svc.Get(r.Context(), txID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, mirror)
	}
}

// TransactionsList lists mirror rows with optional status/type filters.
func TransactionsList(svc txsync.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := txsync.ListFilter{
			RecordType:  strings.TrimSpace(r.URL.Query().Get("type")),
			SubmittedBy: strings.TrimSpace(r.URL.Query().Get("submitted_by")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseTxStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filter.Status = status
		}
		limit, err := validators.ParseQueryInt(r, "limit", 100, 1, 1000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.Limit = limit

		mirrors, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, mirrors)
	}
}
