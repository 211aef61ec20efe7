package catalog

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/voxtill/voxtill-backend/pkg/db"
	"github.com/voxtill/voxtill-backend/pkg/db/models"
	pkgerrors "github.com/voxtill/voxtill-backend/pkg/errors"
)

// Repository provides product catalog persistence.
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

// FindByName loads a product by its spoken name, case-insensitively.
func (r *Repository) FindByName(ctx context.Context, name string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// Create persists a new product. Product names are unique; a duplicate
// surfaces as a conflict error.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "product name already exists")
		}
		return nil, err
	}
	return product, nil
}
