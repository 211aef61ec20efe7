package pricing

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/voxtill/voxtill-backend/internal/pricing/formula"
	"github.com/voxtill/voxtill-backend/pkg/enums"
)

// Rule is a pricing rule with its formula compiled, ready for matching and
// evaluation. Rules inside a snapshot are never mutated.
type Rule struct {
	ID         uuid.UUID
	Scope      enums.RuleScope
	ScopeValue string
	Expr       *formula.Expr
	Rounding   *string
	Priority   int
}

// BuyerContext identifies who is buying, as far as the speech pipeline and
// partner lookup could tell.
type BuyerContext struct {
	PartnerID *uuid.UUID
	Level     string
}

// LineInput is one item of a transaction draft, enriched with catalog data.
type LineInput struct {
	Position      int
	ProductName   string
	Quantity      decimal.Decimal
	Unit          string
	Category      string
	BaseCost      *decimal.Decimal
	ObservedPrice *decimal.Decimal
}

// Draft is a transaction as handed over by the speech pipeline, ready to be
// priced.
type Draft struct {
	Intent  enums.TransactionIntent
	RawText string
	Buyer   BuyerContext
	Lines   []LineInput
}

// Diagnostic records a candidate rule that was skipped during resolution
// and why. Diagnostics are reported, never fatal.
type Diagnostic struct {
	RuleID uuid.UUID
	Kind   DiagnosticKind
	Detail string
}

type DiagnosticKind string

const (
	DiagnosticMissingCost     DiagnosticKind = "missing_cost"
	DiagnosticDivisionByZero  DiagnosticKind = "division_by_zero"
	DiagnosticUnknownRounding DiagnosticKind = "unknown_rounding"
	DiagnosticFormulaError    DiagnosticKind = "formula_error"
)

// LineResult is the priced outcome of a single line, with provenance.
type LineResult struct {
	Position     int
	FinalPrice   *decimal.Decimal
	Source       enums.PriceSource
	RuleID       *uuid.UUID
	RulePriority *int
	Diagnostics  []Diagnostic
}

// Resolution aggregates the priced lines of one draft.
type Resolution struct {
	Lines      []LineResult
	TotalPrice decimal.Decimal
	TotalCost  *decimal.Decimal
	Status     enums.TransactionStatus
}

// SpecialScopeKey builds the composite key a special-scope rule must carry
// to match a (partner, product) pair.
func SpecialScopeKey(partnerID uuid.UUID, productName string) string {
	return partnerID.String() + "|" + strings.ToLower(strings.TrimSpace(productName))
}
