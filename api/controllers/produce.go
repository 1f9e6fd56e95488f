package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agritraceio/agritrace-backend/api/middleware"
	"github.com/agritraceio/agritrace-backend/api/responses"
	"github.com/agritraceio/agritrace-backend/api/validators"
	"github.com/agritraceio/agritrace-backend/internal/produce"
	pkgerrors "github.com/agritraceio/agritrace-backend/pkg/errors"
	"github.com/agritraceio/agritrace-backend/pkg/logger"
	"github.com/agritraceio/agritrace-backend/pkg/pagination"
)

type createLotRequest struct {
	FarmerID   string         `json:"farmer_id" validate:"required,uuid"`
	CropType   string         `json:"crop_type" validate:"required,min=1"`
	Quantity   string         `json:"quantity" validate:"required,min=1"`
	Unit       string         `json:"unit,omitempty"`
	Origin     string         `json:"origin,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// ProduceCreate registers a harvested lot and submits its harvest fact.
func ProduceCreate(svc produce.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createLotRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		farmerID, err := validators.ParsePathUUID(req.FarmerID, "farmer_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lot, mirror, err := svc.CreateLot(r.Context(), produce.CreateLotInput{
			FarmerID:    farmerID,
			CropType:    req.CropType,
			Quantity:    req.Quantity,
			Unit:        req.Unit,
			Origin:      req.Origin,
			Attributes:  req.Attributes,
			SubmittedBy: middleware.LedgerIdentityFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"lot":    lot,
			"mirror": mirror,
		})
	}
}

// ProduceGet returns one lot by id.
func ProduceGet(svc produce.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lot, err := svc.GetLot(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lot)
	}
}

// ProduceList lists lots for a farmer.
func ProduceList(svc produce.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("farmer_id")
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "farmer_id query parameter is required"))
			return
		}
		farmerID, err := validators.ParsePathUUID(raw, "farmer_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lots, next, err := svc.ListByFarmer(r.Context(), farmerID, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"lots": lots, "next_cursor": next})
	}
}

// ProduceProvenance joins a lot with its ledger record and history.
func ProduceProvenance(svc produce.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Provenance(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
