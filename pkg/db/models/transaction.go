package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/voxtill/voxtill-backend/pkg/enums"
)

// Transaction is the aggregate produced by one voice interaction. It is
// created once after resolution completes and never mutated afterwards.
type Transaction struct {
	ID         uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	PartnerID  *uuid.UUID              `gorm:"column:partner_id;type:uuid"`
	Intent     enums.TransactionIntent `gorm:"column:intent;not null;default:'sale'"`
	RawText    string                  `gorm:"column:raw_text;not null;default:''"`
	Status     enums.TransactionStatus `gorm:"column:status;not null"`
	TotalPrice decimal.Decimal         `gorm:"column:total_price;type:numeric(12,2);not null"`
	TotalCost  *decimal.Decimal        `gorm:"column:total_cost;type:numeric(12,2)"`
	Lines      []TransactionLine       `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time               `gorm:"column:created_at;autoCreateTime"`
}
