package partners

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/voxtill/voxtill-backend/pkg/db/models"
)

// Repository provides partner persistence.
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

// FindByID loads a partner.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Partner, error) {
	var partner models.Partner
	if err := r.db.WithContext(ctx).First(&partner, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &partner, nil
}

// Create persists a new partner.
func (r *Repository) Create(ctx context.Context, partner *models.Partner) (*models.Partner, error) {
	if err := r.db.WithContext(ctx).Create(partner).Error; err != nil {
		return nil, err
	}
	return partner, nil
}
