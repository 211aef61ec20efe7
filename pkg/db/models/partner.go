package models

import (
	"time"

	"github.com/google/uuid"
)

// Partner is a known buyer. Level drives level-scoped pricing rules.
type Partner struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Level     string    `gorm:"column:level;not null;default:''"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
