package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/voxtill/voxtill-backend/pkg/enums"
)

// TransactionLine is one priced item within a transaction, including the
// provenance of the price that was applied.
type TransactionLine struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	TransactionID uuid.UUID         `gorm:"column:transaction_id;type:uuid;not null"`
	Position      int               `gorm:"column:position;not null"`
	ProductName   string            `gorm:"column:product_name;not null"`
	Quantity      decimal.Decimal   `gorm:"column:quantity;type:numeric(12,3);not null"`
	Unit          string            `gorm:"column:unit;not null;default:''"`
	Category      string            `gorm:"column:category;not null;default:''"`
	BaseCost      *decimal.Decimal  `gorm:"column:base_cost;type:numeric(12,2)"`
	ObservedPrice *decimal.Decimal  `gorm:"column:observed_price;type:numeric(12,2)"`
	FinalPrice    *decimal.Decimal  `gorm:"column:final_price;type:numeric(12,2)"`
	PriceSource   enums.PriceSource `gorm:"column:price_source;not null"`
	RuleID        *uuid.UUID        `gorm:"column:rule_id;type:uuid"`
	RulePriority  *int              `gorm:"column:rule_priority"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
}
