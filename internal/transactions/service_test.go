package transactions

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/voxtill/voxtill-backend/internal/catalog"
	"github.com/voxtill/voxtill-backend/internal/pricing"
	"github.com/voxtill/voxtill-backend/internal/pricing/formula"
	"github.com/voxtill/voxtill-backend/pkg/config"
	"github.com/voxtill/voxtill-backend/pkg/db/models"
	"github.com/voxtill/voxtill-backend/pkg/enums"
	pkgerrors "github.com/voxtill/voxtill-backend/pkg/errors"
	"github.com/voxtill/voxtill-backend/pkg/logger"
	"github.com/voxtill/voxtill-backend/pkg/metrics"
	"github.com/voxtill/voxtill-backend/pkg/pagination"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type stubSnapshotProvider struct {
	snap *pricing.Snapshot
}

func (s *stubSnapshotProvider) Snapshot(_ context.Context) (*pricing.Snapshot, error) {
	return s.snap, nil
}

type stubBuyerResolver struct {
	buyer pricing.BuyerContext
}

func (s *stubBuyerResolver) BuyerContext(_ context.Context, _ *uuid.UUID) (pricing.BuyerContext, error) {
	return s.buyer, nil
}

type stubEnricher struct {
	entries map[string]catalog.Enrichment
}

func (s *stubEnricher) Enrich(_ context.Context, productName string) (catalog.Enrichment, error) {
	return s.entries[strings.ToLower(productName)], nil
}

type testEnv struct {
	svc   Service
	repo  *Repository
	rules *stubSnapshotProvider
}

func decOf(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtrOf(s string) *decimal.Decimal {
	d := decOf(s)
	return &d
}

func newTestEnv(t *testing.T, snapshotRules []pricing.Rule, entries map[string]catalog.Enrichment) testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Transaction{}, &models.TransactionLine{}))

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	engine, err := pricing.NewEngine(pricing.EngineParams{
		Config:  config.PricingConfig{},
		Logger:  logg,
		Metrics: metrics.NewResolutionMetrics(nil),
	})
	require.NoError(t, err)

	repo := NewRepository(conn)
	rules := &stubSnapshotProvider{snap: pricing.NewSnapshot("test", snapshotRules)}

	svc, err := NewService(ServiceParams{
		Repo:     repo,
		DB:       testTxRunner{db: conn},
		Rules:    rules,
		Partners: &stubBuyerResolver{},
		Catalog:  &stubEnricher{entries: entries},
		Engine:   engine,
		Logger:   logg,
	})
	require.NoError(t, err)

	return testEnv{svc: svc, repo: repo, rules: rules}
}

func globalRule(t *testing.T, src string, priority int) pricing.Rule {
	t.Helper()
	expr, err := formula.Parse(src)
	require.NoError(t, err)
	return pricing.Rule{
		ID:       uuid.New(),
		Scope:    enums.RuleScopeGlobal,
		Expr:     expr,
		Priority: priority,
	}
}

func TestCreatePricesAndPersists(t *testing.T) {
	env := newTestEnv(t,
		[]pricing.Rule{globalRule(t, "cost * 1.5", 5)},
		map[string]catalog.Enrichment{
			"cola": {Category: "drinks", Unit: "bottle", BaseCost: decPtrOf("2")},
		},
	)

	dto, err := env.svc.Create(context.Background(), CreateTransactionInput{
		Intent:  enums.TransactionIntentSale,
		RawText: "one cola and a bag of chips for six",
		Lines: []DraftLine{
			{ProductName: "cola", Quantity: decOf("1")},
			{ProductName: "chips", Quantity: decOf("1"), ObservedPrice: decPtrOf("6")},
		},
	})
	require.NoError(t, err)

	require.Equal(t, enums.TransactionStatusComplete, dto.Status)
	require.True(t, dto.TotalPrice.Equal(decOf("9")), "got %s", dto.TotalPrice)
	require.Nil(t, dto.TotalCost)
	require.Len(t, dto.Lines, 2)

	require.Equal(t, enums.PriceSourceRule, dto.Lines[0].PriceSource)
	require.True(t, dto.Lines[0].FinalPrice.Equal(decOf("3")))
	require.NotNil(t, dto.Lines[0].RuleID)
	require.Equal(t, "bottle", dto.Lines[0].Unit)
	require.Equal(t, "drinks", dto.Lines[0].Category)

	require.Equal(t, enums.PriceSourceObserved, dto.Lines[1].PriceSource)
	require.True(t, dto.Lines[1].FinalPrice.Equal(decOf("6")))
	require.Nil(t, dto.Lines[1].RuleID)

	stored, err := env.repo.FindByID(context.Background(), dto.ID)
	require.NoError(t, err)
	require.Len(t, stored.Lines, 2)
	require.Equal(t, enums.TransactionStatusComplete, stored.Status)
}

func TestCreateUnresolvedLineFlagsIncomplete(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	dto, err := env.svc.Create(context.Background(), CreateTransactionInput{
		Intent: enums.TransactionIntentSale,
		Lines: []DraftLine{
			{ProductName: "mystery", Quantity: decOf("1")},
		},
	})
	require.NoError(t, err)

	require.Equal(t, enums.TransactionStatusIncomplete, dto.Status)
	require.Len(t, dto.Lines, 1)
	require.Equal(t, enums.PriceSourceUnresolved, dto.Lines[0].PriceSource)
	require.Nil(t, dto.Lines[0].FinalPrice)
	require.True(t, dto.TotalPrice.IsZero())

	// incomplete transactions are still persisted for manual review
	stored, err := env.repo.FindByID(context.Background(), dto.ID)
	require.NoError(t, err)
	require.Equal(t, enums.TransactionStatusIncomplete, stored.Status)
}

func TestCreateValidation(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	cases := []struct {
		name  string
		input CreateTransactionInput
	}{
		{
			name:  "no lines",
			input: CreateTransactionInput{Intent: enums.TransactionIntentSale},
		},
		{
			name: "invalid intent",
			input: CreateTransactionInput{
				Intent: "barter",
				Lines:  []DraftLine{{ProductName: "cola", Quantity: decOf("1")}},
			},
		},
		{
			name: "missing product name",
			input: CreateTransactionInput{
				Intent: enums.TransactionIntentSale,
				Lines:  []DraftLine{{Quantity: decOf("1")}},
			},
		},
		{
			name: "non-positive quantity",
			input: CreateTransactionInput{
				Intent: enums.TransactionIntentSale,
				Lines:  []DraftLine{{ProductName: "cola", Quantity: decOf("0")}},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.Create(context.Background(), tc.input)
			require.Error(t, err)

			coded := pkgerrors.As(err)
			require.NotNil(t, coded)
			require.Equal(t, pkgerrors.CodeValidation, coded.Code())
		})
	}
}

func TestGetNotFound(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	_, err := env.svc.Get(context.Background(), uuid.New())
	require.Error(t, err)

	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	require.Equal(t, pkgerrors.CodeNotFound, coded.Code())
}

func TestListPaginates(t *testing.T) {
	env := newTestEnv(t,
		[]pricing.Rule{globalRule(t, "3.0", 1)},
		nil,
	)

	for i := 0; i < 3; i++ {
		_, err := env.svc.Create(context.Background(), CreateTransactionInput{
			Intent: enums.TransactionIntentSale,
			Lines:  []DraftLine{{ProductName: fmt.Sprintf("item-%d", i), Quantity: decOf("1")}},
		})
		require.NoError(t, err)
	}

	page, err := env.svc.List(context.Background(), pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Transactions, 2)
	require.NotEmpty(t, page.NextCursor)

	rest, err := env.svc.List(context.Background(), pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Transactions, 1)
	require.Empty(t, rest.NextCursor)
}
