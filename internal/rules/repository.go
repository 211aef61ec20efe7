package rules

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/voxtill/voxtill-backend/pkg/db/models"
	"github.com/voxtill/voxtill-backend/pkg/pagination"
)

// Repository provides pricing rule persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// ListEnabled loads every enabled rule. Disabled rules are invisible to
// matching, so the snapshot never sees them.
func (r *Repository) ListEnabled(ctx context.Context) ([]models.PricingRule, error) {
	var rules []models.PricingRule
	if err := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("priority DESC, id ASC").
		Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// List returns a cursor page of all rules, newest first.
func (r *Repository) List(ctx context.Context, params pagination.Params) ([]models.PricingRule, error) {
	query := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rules []models.PricingRule
	if err := query.Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// FindByID loads a single rule.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PricingRule, error) {
	var rule models.PricingRule
	if err := r.db.WithContext(ctx).First(&rule, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

// Create persists a new rule.
func (r *Repository) Create(ctx context.Context, rule *models.PricingRule) (*models.PricingRule, error) {
	if err := r.db.WithContext(ctx).Create(rule).Error; err != nil {
		return nil, err
	}
	return rule, nil
}
