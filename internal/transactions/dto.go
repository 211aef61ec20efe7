package transactions

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/voxtill/voxtill-backend/pkg/db/models"
	"github.com/voxtill/voxtill-backend/pkg/enums"
)

// DraftLine is one item of a draft as produced by the speech pipeline.
type DraftLine struct {
	ProductName   string
	Quantity      decimal.Decimal
	Unit          string
	ObservedPrice *decimal.Decimal
}

// CreateTransactionInput is the validated payload to price and persist a
// transaction draft.
type CreateTransactionInput struct {
	PartnerID *uuid.UUID
	Intent    enums.TransactionIntent
	RawText   string
	Lines     []DraftLine
}

// LineDTO is the API representation of a priced line.
type LineDTO struct {
	ID            uuid.UUID         `json:"id"`
	Position      int               `json:"position"`
	ProductName   string            `json:"product_name"`
	Quantity      decimal.Decimal   `json:"quantity"`
	Unit          string            `json:"unit,omitempty"`
	Category      string            `json:"category,omitempty"`
	BaseCost      *decimal.Decimal  `json:"base_cost,omitempty"`
	ObservedPrice *decimal.Decimal  `json:"observed_price,omitempty"`
	FinalPrice    *decimal.Decimal  `json:"final_price,omitempty"`
	PriceSource   enums.PriceSource `json:"price_source"`
	RuleID        *uuid.UUID        `json:"rule_id,omitempty"`
	RulePriority  *int              `json:"rule_priority,omitempty"`
}

// TransactionDTO is the API representation of a priced transaction.
type TransactionDTO struct {
	ID         uuid.UUID               `json:"id"`
	PartnerID  *uuid.UUID              `json:"partner_id,omitempty"`
	Intent     enums.TransactionIntent `json:"intent"`
	RawText    string                  `json:"raw_text,omitempty"`
	Status     enums.TransactionStatus `json:"status"`
	TotalPrice decimal.Decimal         `json:"total_price"`
	TotalCost  *decimal.Decimal        `json:"total_cost,omitempty"`
	Lines      []LineDTO               `json:"lines"`
	CreatedAt  time.Time               `json:"created_at"`
}

// TransactionListResult is a cursor page of transactions.
type TransactionListResult struct {
	Transactions []TransactionDTO `json:"transactions"`
	NextCursor   string           `json:"next_cursor,omitempty"`
}

func toTransactionDTO(record models.Transaction) TransactionDTO {
	dto := TransactionDTO{
		ID:         record.ID,
		PartnerID:  record.PartnerID,
		Intent:     record.Intent,
		RawText:    record.RawText,
		Status:     record.Status,
		TotalPrice: record.TotalPrice,
		TotalCost:  record.TotalCost,
		Lines:      make([]LineDTO, 0, len(record.Lines)),
		CreatedAt:  record.CreatedAt,
	}
	for _, line := range record.Lines {
		dto.Lines = append(dto.Lines, LineDTO{
			ID:            line.ID,
			Position:      line.Position,
			ProductName:   line.ProductName,
			Quantity:      line.Quantity,
			Unit:          line.Unit,
			Category:      line.Category,
			BaseCost:      line.BaseCost,
			ObservedPrice: line.ObservedPrice,
			FinalPrice:    line.FinalPrice,
			PriceSource:   line.PriceSource,
			RuleID:        line.RuleID,
			RulePriority:  line.RulePriority,
		})
	}
	return dto
}
