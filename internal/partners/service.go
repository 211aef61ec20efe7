package partners

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/voxtill/voxtill-backend/internal/pricing"
	"github.com/voxtill/voxtill-backend/pkg/db/models"
	pkgerrors "github.com/voxtill/voxtill-backend/pkg/errors"
)

// Service resolves a buyer identifier to the context the pricing engine
// matches level and special rules against.
type Service interface {
	BuyerContext(ctx context.Context, partnerID *uuid.UUID) (pricing.BuyerContext, error)
}

type partnerStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Partner, error)
}

// ServiceParams groups dependencies for the partners service.
type ServiceParams struct {
	Repo partnerStore
}

type service struct {
	repo partnerStore
}

// NewService builds a partners service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	return &service{repo: params.Repo}, nil
}

// BuyerContext looks up the partner level for a known buyer. An anonymous
// buyer (nil id) or an unknown id yields an empty context, which matches
// only global and category rules.
func (s *service) BuyerContext(ctx context.Context, partnerID *uuid.UUID) (pricing.BuyerContext, error) {
	if partnerID == nil {
		return pricing.BuyerContext{}, nil
	}

	partner, err := s.repo.FindByID(ctx, *partnerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pricing.BuyerContext{}, pkgerrors.New(pkgerrors.CodeNotFound, "partner not found")
		}
		return pricing.BuyerContext{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load partner")
	}

	return pricing.BuyerContext{PartnerID: &partner.ID, Level: partner.Level}, nil
}
