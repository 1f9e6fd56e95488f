package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/agritraceio/agritrace-backend/api/responses"
	"github.com/agritraceio/agritrace-backend/internal/contract"
	"github.com/agritraceio/agritrace-backend/internal/txsync"
	pkgerrors "github.com/agritraceio/agritrace-backend/pkg/errors"
	"github.com/agritraceio/agritrace-backend/pkg/logger"
)

// LedgerReader is the query surface controllers need from the gateway
// client.
type LedgerReader interface {
	ReadRecord(ctx context.Context, id string) (*contract.TraceRecord, error)
	ListRecords(ctx context.Context) ([]contract.KeyedRecord, error)
	QueryByType(ctx context.Context, recordType string) ([]contract.KeyedRecord, error)
	QueryByOwner(ctx context.Context, owner string) ([]contract.KeyedRecord, error)
	RecordHistory(ctx context.Context, id string) ([]contract.HistoryEntry, error)
}

// LedgerRecordGet returns the current ledger state of one record.
func LedgerRecordGet(ledger LedgerReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "id"))
		if id == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "record id is required"))
			return
		}

		record, err := ledger.ReadRecord(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// LedgerRecordsList lists ledger records, optionally filtered by exact
// record type or creating identity.
func LedgerRecordsList(ledger LedgerReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recordType := strings.TrimSpace(r.URL.Query().Get("type"))
		owner := strings.TrimSpace(r.URL.Query().Get("owner"))
		if recordType != "" && owner != "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "filter by type or owner, not both"))
			return
		}

		var (
			records []contract.KeyedRecord
			err     error
		)
		switch {
		case recordType != "":
			records, err = ledger.QueryByType(r.Context(), recordType)
		case owner != "":
			records, err = ledger.QueryByOwner(r.Context(), owner)
		default:
			records, err = ledger.ListRecords(r.Context())
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, records)
	}
}

// LedgerRecordHistory returns the commit-ordered version history of a
// record. Unknown ids yield an empty list, not an error.
func LedgerRecordHistory(ledger LedgerReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "id"))
		if id == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "record id is required"))
			return
		}

		history, err := ledger.RecordHistory(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, history)
	}
}

// LedgerRecordVerify stamps a record as verified by the connected identity.
func LedgerRecordVerify(svc txsync.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "id"))
		if id == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "record id is required"))
			return
		}

		commit, err := svc.Verify(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, commit)
	}
}
