package catalog

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/voxtill/voxtill-backend/pkg/db/models"
	pkgerrors "github.com/voxtill/voxtill-backend/pkg/errors"
)

// Enrichment is what the catalog knows about a spoken product name. A miss
// returns the zero value: no category, no base cost.
type Enrichment struct {
	Category string
	Unit     string
	BaseCost *decimal.Decimal
}

// Service enriches transaction lines with catalog data.
type Service interface {
	Enrich(ctx context.Context, productName string) (Enrichment, error)
}

type productStore interface {
	FindByName(ctx context.Context, name string) (*models.Product, error)
}

// ServiceParams groups dependencies for the catalog service.
type ServiceParams struct {
	Repo productStore
}

type service struct {
	repo productStore
}

// NewService builds a catalog service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	return &service{repo: params.Repo}, nil
}

// Enrich looks up the product. An unknown name is not an error: the line
// keeps its nil base cost and the engine falls back accordingly.
func (s *service) Enrich(ctx context.Context, productName string) (Enrichment, error) {
	product, err := s.repo.FindByName(ctx, productName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Enrichment{}, nil
		}
		return Enrichment{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	return Enrichment{
		Category: product.Category,
		Unit:     product.Unit,
		BaseCost: product.BaseCost,
	}, nil
}
