package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/voxtill/voxtill-backend/pkg/enums"
)

// PricingRule is one entry in the layered rule set. Records are immutable
// once loaded into a snapshot; edits create a new snapshot version.
type PricingRule struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Scope      enums.RuleScope `gorm:"column:scope;not null"`
	ScopeValue string          `gorm:"column:scope_value;not null;default:''"`
	Formula    string          `gorm:"column:formula;not null"`
	Rounding   *string         `gorm:"column:rounding"`
	Priority   int             `gorm:"column:priority;not null;default:0"`
	Enabled    bool            `gorm:"column:enabled;not null;default:true"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
