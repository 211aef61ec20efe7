package controllers

import (
	"net/http"

	"github.com/voxtill/voxtill-backend/api/responses"
	"github.com/voxtill/voxtill-backend/api/validators"
	"github.com/voxtill/voxtill-backend/internal/rules"
	"github.com/voxtill/voxtill-backend/pkg/enums"
	pkgerrors "github.com/voxtill/voxtill-backend/pkg/errors"
	"github.com/voxtill/voxtill-backend/pkg/logger"
)

type createRuleRequest struct {
	Scope      string  `json:"scope" validate:"required,oneof=global category level special"`
	ScopeValue string  `json:"scope_value,omitempty" validate:"max=300"`
	Formula    string  `json:"formula" validate:"required,max=500"`
	Rounding   *string `json:"rounding,omitempty"`
	Priority   int     `json:"priority"`
	Enabled    bool    `json:"enabled"`
}

// CreateRule validates and persists a pricing rule.
func CreateRule(svc rules.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rules service unavailable"))
			return
		}

		var payload createRuleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		scope, err := enums.ParseRuleScope(payload.Scope)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid scope"))
			return
		}

		dto, err := svc.CreateRule(r.Context(), rules.CreateRuleInput{
			Scope:      scope,
			ScopeValue: payload.ScopeValue,
			Formula:    payload.Formula,
			Rounding:   payload.Rounding,
			Priority:   payload.Priority,
			Enabled:    payload.Enabled,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// ListRules returns a cursor page of pricing rules.
func ListRules(svc rules.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rules service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListRules(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
