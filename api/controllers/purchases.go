package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/agritraceio/agritrace-backend/api/middleware"
	"github.com/agritraceio/agritrace-backend/api/responses"
	"github.com/agritraceio/agritrace-backend/api/validators"
	"github.com/agritraceio/agritrace-backend/internal/purchase"
	pkgerrors "github.com/agritraceio/agritrace-backend/pkg/errors"
	"github.com/agritraceio/agritrace-backend/pkg/logger"
)

type createPurchaseRequest struct {
	LotID     string `json:"lot_id" validate:"required,uuid"`
	BuyerID   string `json:"buyer_id" validate:"required,uuid"`
	SellerID  string `json:"seller_id" validate:"required,uuid"`
	Quantity  string `json:"quantity" validate:"required,min=1"`
	UnitPrice string `json:"unit_price" validate:"required,min=1"`
	Currency  string `json:"currency,omitempty"`
}

// PurchaseCreate records a sale and submits its retail fact.
func PurchaseCreate(svc purchase.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createPurchaseRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lotID, err := validators.ParsePathUUID(req.LotID, "lot_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		buyerID, err := validators.ParsePathUUID(req.BuyerID, "buyer_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sellerID, err := validators.ParsePathUUID(req.SellerID, "seller_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		unitPrice, err := decimal.NewFromString(req.UnitPrice)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unit_price must be a decimal number"))
			return
		}

		record, mirror, err := svc.Record(r.Context(), purchase.RecordInput{
			LotID:       lotID,
			BuyerID:     buyerID,
			SellerID:    sellerID,
			Quantity:    req.Quantity,
			UnitPrice:   unitPrice,
			Currency:    req.Currency,
			SubmittedBy: middleware.LedgerIdentityFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"purchase": record,
			"mirror":   mirror,
		})
	}
}

// PurchaseGet returns one purchase by id.
func PurchaseGet(svc purchase.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		record, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// PurchasesList lists purchases by lot or by buyer.
func PurchasesList(svc purchase.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lotRaw := r.URL.Query().Get("lot_id")
		buyerRaw := r.URL.Query().Get("buyer_id")

		switch {
		case lotRaw != "":
			lotID, err := validators.ParsePathUUID(lotRaw, "lot_id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			records, err := svc.ListByLot(r.Context(), lotID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, records)
		case buyerRaw != "":
			buyerID, err := validators.ParsePathUUID(buyerRaw, "buyer_id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			records, err := svc.ListByBuyer(r.Context(), buyerID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, records)
		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "lot_id or buyer_id query parameter is required"))
		}
	}
}
