package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the cost catalog entry for a sellable item. BaseCost feeds the
// `cost` variable in pricing formulas; a nil BaseCost means the wholesale
// cost is unknown for this item.
type Product struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Name      string           `gorm:"column:name;not null;uniqueIndex"`
	Category  string           `gorm:"column:category;not null;default:''"`
	Unit      string           `gorm:"column:unit;not null;default:''"`
	BaseCost  *decimal.Decimal `gorm:"column:base_cost;type:numeric(12,2)"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
