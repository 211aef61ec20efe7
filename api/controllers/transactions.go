package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/voxtill/voxtill-backend/api/responses"
	"github.com/voxtill/voxtill-backend/api/validators"
	"github.com/voxtill/voxtill-backend/internal/transactions"
	"github.com/voxtill/voxtill-backend/pkg/enums"
	pkgerrors "github.com/voxtill/voxtill-backend/pkg/errors"
	"github.com/voxtill/voxtill-backend/pkg/logger"
)

type transactionLineRequest struct {
	ProductName   string           `json:"product_name" validate:"required,max=200"`
	Quantity      decimal.Decimal  `json:"quantity" validate:"required"`
	Unit          string           `json:"unit,omitempty" validate:"max=50"`
	ObservedPrice *decimal.Decimal `json:"observed_price,omitempty"`
}

type createTransactionRequest struct {
	PartnerID *uuid.UUID               `json:"partner_id,omitempty" validate:"omitempty,uuid4"`
	Intent    string                   `json:"intent" validate:"required,oneof=sale refund unknown"`
	RawText   string                   `json:"raw_text,omitempty" validate:"max=2000"`
	Lines     []transactionLineRequest `json:"lines" validate:"required,min=1,max=100,dive"`
}

// CreateTransaction prices a speech-pipeline draft and persists the result.
func CreateTransaction(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transactions service unavailable"))
			return
		}

		var payload createTransactionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		intent, err := enums.ParseTransactionIntent(payload.Intent)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid intent"))
			return
		}

		input := transactions.CreateTransactionInput{
			PartnerID: payload.PartnerID,
			Intent:    intent,
			RawText:   payload.RawText,
			Lines:     make([]transactions.DraftLine, 0, len(payload.Lines)),
		}
		for _, line := range payload.Lines {
			input.Lines = append(input.Lines, transactions.DraftLine{
				ProductName:   line.ProductName,
				Quantity:      line.Quantity,
				Unit:          line.Unit,
				ObservedPrice: line.ObservedPrice,
			})
		}

		dto, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// GetTransaction loads one priced transaction.
func GetTransaction(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transactions service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "transactionId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid transaction id"))
			return
		}

		dto, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

// ListTransactions returns a cursor page of transactions.
func ListTransactions(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transactions service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
