package rules

import (
	"time"

	"github.com/google/uuid"

	"github.com/voxtill/voxtill-backend/pkg/db/models"
	"github.com/voxtill/voxtill-backend/pkg/enums"
)

// RuleDTO is the API representation of a pricing rule.
type RuleDTO struct {
	ID         uuid.UUID       `json:"id"`
	Scope      enums.RuleScope `json:"scope"`
	ScopeValue string          `json:"scope_value,omitempty"`
	Formula    string          `json:"formula"`
	Rounding   *string         `json:"rounding,omitempty"`
	Priority   int             `json:"priority"`
	Enabled    bool            `json:"enabled"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// RuleListResult is a cursor page of rules.
type RuleListResult struct {
	Rules      []RuleDTO `json:"rules"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

func toRuleDTO(record models.PricingRule) RuleDTO {
	return RuleDTO{
		ID:         record.ID,
		Scope:      record.Scope,
		ScopeValue: record.ScopeValue,
		Formula:    record.Formula,
		Rounding:   record.Rounding,
		Priority:   record.Priority,
		Enabled:    record.Enabled,
		CreatedAt:  record.CreatedAt,
		UpdatedAt:  record.UpdatedAt,
	}
}
