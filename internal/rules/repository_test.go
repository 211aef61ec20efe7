package rules

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/voxtill/voxtill-backend/pkg/db/models"
	"github.com/voxtill/voxtill-backend/pkg/enums"
	"github.com/voxtill/voxtill-backend/pkg/pagination"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.PricingRule{}))
	return conn
}

func seedRule(t *testing.T, conn *gorm.DB, scope enums.RuleScope, scopeValue string, priority int, enabled bool) models.PricingRule {
	t.Helper()
	rule := models.PricingRule{
		ID:         uuid.New(),
		Scope:      scope,
		ScopeValue: scopeValue,
		Formula:    "cost",
		Priority:   priority,
		Enabled:    enabled,
	}
	require.NoError(t, conn.Create(&rule).Error)
	return rule
}

func TestListEnabledExcludesDisabled(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)

	seedRule(t, conn, enums.RuleScopeGlobal, "", 10, true)
	seedRule(t, conn, enums.RuleScopeCategory, "drinks", 50, true)
	seedRule(t, conn, enums.RuleScopeGlobal, "", 100, false)

	rules, err := repo.ListEnabled(context.Background())
	require.NoError(t, err)
	require.Len(t, rules, 2)
	require.Equal(t, 50, rules[0].Priority)
	require.Equal(t, 10, rules[1].Priority)
}

func TestListPaginatesWithCursor(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 4; i++ {
		rule := models.PricingRule{
			ID:        uuid.New(),
			Scope:     enums.RuleScopeGlobal,
			Formula:   "cost",
			Enabled:   true,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, conn.Create(&rule).Error)
	}

	first, err := repo.List(context.Background(), pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 3) // limit + 1 buffer row

	cursor := pagination.EncodeCursor(pagination.Cursor{
		CreatedAt: first[1].CreatedAt,
		ID:        first[1].ID,
	})
	second, err := repo.List(context.Background(), pagination.Params{Limit: 2, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, second, 2)
	for _, rule := range second {
		require.True(t, rule.CreatedAt.Before(first[1].CreatedAt) ||
			rule.CreatedAt.Equal(first[1].CreatedAt))
	}
}

func TestCreateAndFindByID(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)

	rounding := "floor_to_1_yuan"
	created, err := repo.Create(context.Background(), &models.PricingRule{
		ID:         uuid.New(),
		Scope:      enums.RuleScopeSpecial,
		ScopeValue: "11111111-1111-1111-1111-111111111111|cola",
		Formula:    "cost * 1.1",
		Rounding:   &rounding,
		Priority:   7,
		Enabled:    true,
	})
	require.NoError(t, err)

	found, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, found.ID)
	require.Equal(t, "cost * 1.1", found.Formula)
	require.NotNil(t, found.Rounding)
	require.Equal(t, "floor_to_1_yuan", *found.Rounding)
}
