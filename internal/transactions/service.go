package transactions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/voxtill/voxtill-backend/internal/catalog"
	"github.com/voxtill/voxtill-backend/internal/pricing"
	"github.com/voxtill/voxtill-backend/pkg/db/models"
	"github.com/voxtill/voxtill-backend/pkg/enums"
	pkgerrors "github.com/voxtill/voxtill-backend/pkg/errors"
	"github.com/voxtill/voxtill-backend/pkg/logger"
	"github.com/voxtill/voxtill-backend/pkg/pagination"
)

// Service orchestrates pricing and persistence of transaction drafts.
type Service interface {
	Create(ctx context.Context, input CreateTransactionInput) (*TransactionDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*TransactionDTO, error)
	List(ctx context.Context, params pagination.Params) (*TransactionListResult, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type snapshotProvider interface {
	Snapshot(ctx context.Context) (*pricing.Snapshot, error)
}

type buyerResolver interface {
	BuyerContext(ctx context.Context, partnerID *uuid.UUID) (pricing.BuyerContext, error)
}

type lineEnricher interface {
	Enrich(ctx context.Context, productName string) (catalog.Enrichment, error)
}

type resolver interface {
	Resolve(ctx context.Context, snap *pricing.Snapshot, draft pricing.Draft) (*pricing.Resolution, error)
}

// ServiceParams groups dependencies for the transactions service.
type ServiceParams struct {
	Repo     *Repository
	DB       txRunner
	Rules    snapshotProvider
	Partners buyerResolver
	Catalog  lineEnricher
	Engine   resolver
	Logger   *logger.Logger
}

type service struct {
	repo     *Repository
	db       txRunner
	rules    snapshotProvider
	partners buyerResolver
	catalog  lineEnricher
	engine   resolver
	logg     *logger.Logger
}

// NewService builds a transactions service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.DB == nil {
		return nil, errors.New("db is required")
	}
	if params.Rules == nil {
		return nil, errors.New("rules service is required")
	}
	if params.Partners == nil {
		return nil, errors.New("partners service is required")
	}
	if params.Catalog == nil {
		return nil, errors.New("catalog service is required")
	}
	if params.Engine == nil {
		return nil, errors.New("engine is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}

	return &service{
		repo:     params.Repo,
		db:       params.DB,
		rules:    params.Rules,
		partners: params.Partners,
		catalog:  params.Catalog,
		engine:   params.Engine,
		logg:     params.Logger,
	}, nil
}

// Create enriches the draft, prices it against the current rule snapshot,
// and persists the outcome atomically. A draft with unresolved lines is
// still persisted, flagged incomplete for manual review.
func (s *service) Create(ctx context.Context, input CreateTransactionInput) (*TransactionDTO, error) {
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a transaction needs at least one line")
	}
	if !input.Intent.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid transaction intent")
	}

	buyer, err := s.partners.BuyerContext(ctx, input.PartnerID)
	if err != nil {
		return nil, err
	}

	draft, err := s.buildDraft(ctx, input, buyer)
	if err != nil {
		return nil, err
	}

	snap, err := s.rules.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	resolution, err := s.engine.Resolve(ctx, snap, draft)
	if err != nil {
		return nil, err
	}

	record := assemble(input, draft, resolution)
	if err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := s.repo.WithTx(tx).Create(ctx, record)
		return err
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist transaction")
	}

	logCtx := s.logg.WithTransactionID(ctx, record.ID.String())
	if record.Status == enums.TransactionStatusIncomplete {
		s.logg.Warn(logCtx, "transaction persisted with unresolved lines")
	} else {
		s.logg.Info(logCtx, "transaction persisted")
	}

	dto := toTransactionDTO(*record)
	return &dto, nil
}

func (s *service) buildDraft(ctx context.Context, input CreateTransactionInput, buyer pricing.BuyerContext) (pricing.Draft, error) {
	draft := pricing.Draft{
		Intent:  input.Intent,
		RawText: input.RawText,
		Buyer:   buyer,
		Lines:   make([]pricing.LineInput, 0, len(input.Lines)),
	}

	for i, line := range input.Lines {
		if line.ProductName == "" {
			return pricing.Draft{}, pkgerrors.New(pkgerrors.CodeValidation, "line product name is required")
		}
		if !line.Quantity.IsPositive() {
			return pricing.Draft{}, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive")
		}

		enrichment, err := s.catalog.Enrich(ctx, line.ProductName)
		if err != nil {
			return pricing.Draft{}, err
		}

		unit := line.Unit
		if unit == "" {
			unit = enrichment.Unit
		}

		draft.Lines = append(draft.Lines, pricing.LineInput{
			Position:      i,
			ProductName:   line.ProductName,
			Quantity:      line.Quantity,
			Unit:          unit,
			Category:      enrichment.Category,
			BaseCost:      enrichment.BaseCost,
			ObservedPrice: line.ObservedPrice,
		})
	}
	return draft, nil
}

func assemble(input CreateTransactionInput, draft pricing.Draft, resolution *pricing.Resolution) *models.Transaction {
	record := &models.Transaction{
		ID:         uuid.New(),
		PartnerID:  input.PartnerID,
		Intent:     input.Intent,
		RawText:    input.RawText,
		Status:     resolution.Status,
		TotalPrice: resolution.TotalPrice,
		TotalCost:  resolution.TotalCost,
		Lines:      make([]models.TransactionLine, 0, len(draft.Lines)),
	}

	for i, line := range draft.Lines {
		result := resolution.Lines[i]
		record.Lines = append(record.Lines, models.TransactionLine{
			ID:            uuid.New(),
			TransactionID: record.ID,
			Position:      line.Position,
			ProductName:   line.ProductName,
			Quantity:      line.Quantity,
			Unit:          line.Unit,
			Category:      line.Category,
			BaseCost:      line.BaseCost,
			ObservedPrice: line.ObservedPrice,
			FinalPrice:    result.FinalPrice,
			PriceSource:   result.Source,
			RuleID:        result.RuleID,
			RulePriority:  result.RulePriority,
		})
	}
	return record
}

// Get loads a single priced transaction.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*TransactionDTO, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
	}
	dto := toTransactionDTO(*record)
	return &dto, nil
}

// List returns a cursor page of transactions.
func (s *service) List(ctx context.Context, params pagination.Params) (*TransactionListResult, error) {
	records, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	result := &TransactionListResult{Transactions: make([]TransactionDTO, 0, len(records))}

	hasMore := len(records) > limit
	if hasMore {
		records = records[:limit]
	}
	for _, record := range records {
		result.Transactions = append(result.Transactions, toTransactionDTO(record))
	}
	if hasMore && len(records) > 0 {
		last := records[len(records)-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return result, nil
}
