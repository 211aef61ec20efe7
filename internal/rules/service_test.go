package rules

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/voxtill/voxtill-backend/pkg/db/models"
	"github.com/voxtill/voxtill-backend/pkg/enums"
	pkgerrors "github.com/voxtill/voxtill-backend/pkg/errors"
	"github.com/voxtill/voxtill-backend/pkg/logger"
	"github.com/voxtill/voxtill-backend/pkg/pagination"
)

type stubRuleStore struct {
	enabled     []models.PricingRule
	all         []models.PricingRule
	listEnabled int
	created     []*models.PricingRule
	createErr   error
}

func (s *stubRuleStore) ListEnabled(_ context.Context) ([]models.PricingRule, error) {
	s.listEnabled++
	return s.enabled, nil
}

func (s *stubRuleStore) List(_ context.Context, params pagination.Params) ([]models.PricingRule, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	if limit > len(s.all) {
		limit = len(s.all)
	}
	return s.all[:limit], nil
}

func (s *stubRuleStore) Create(_ context.Context, rule *models.PricingRule) (*models.PricingRule, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	rule.ID = uuid.New()
	rule.CreatedAt = time.Now()
	rule.UpdatedAt = rule.CreatedAt
	s.created = append(s.created, rule)
	return rule, nil
}

type stubVersionStore struct {
	version string
	getErr  error
	sets    int
}

func (s *stubVersionStore) Get(_ context.Context, _ string) (string, error) {
	if s.getErr != nil {
		return "", s.getErr
	}
	return s.version, nil
}

func (s *stubVersionStore) Set(_ context.Context, _ string, value any, _ time.Duration) error {
	s.sets++
	s.version, _ = value.(string)
	return nil
}

func (s *stubVersionStore) SnapshotVersionKey() string { return "vx:snapshot:version" }

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func strPtr(s string) *string { return &s }

func enabledRule(formula string) models.PricingRule {
	return models.PricingRule{
		ID:      uuid.New(),
		Scope:   enums.RuleScopeGlobal,
		Formula: formula,
		Enabled: true,
	}
}

func TestSnapshotCompilesAndCaches(t *testing.T) {
	store := &stubRuleStore{enabled: []models.PricingRule{
		enabledRule("cost * 1.2"),
		enabledRule("3.0"),
	}}
	versions := &stubVersionStore{version: "v1"}

	svc, err := NewService(ServiceParams{
		Repo:     store,
		Versions: versions,
		Logger:   quietLogger(),
		TTL:      time.Minute,
	})
	require.NoError(t, err)

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, snap.Len())
	require.Equal(t, "v1", snap.Version())
	require.Equal(t, 1, store.listEnabled)

	// cached within TTL and unchanged version
	again, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	require.Same(t, snap, again)
	require.Equal(t, 1, store.listEnabled)
}

func TestSnapshotWithUnsetVersionKey(t *testing.T) {
	// A fresh deployment has no version key in redis yet; the client
	// surfaces that as redis.Nil, which must not fail resolution.
	store := &stubRuleStore{enabled: []models.PricingRule{enabledRule("cost")}}
	versions := &stubVersionStore{getErr: redis.Nil}

	svc, err := NewService(ServiceParams{
		Repo:     store,
		Versions: versions,
		Logger:   quietLogger(),
		TTL:      time.Minute,
	})
	require.NoError(t, err)

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, "local", snap.Version())
	require.Equal(t, 1, snap.Len())
}

func TestSnapshotReloadsOnVersionBump(t *testing.T) {
	store := &stubRuleStore{enabled: []models.PricingRule{enabledRule("cost")}}
	versions := &stubVersionStore{version: "v1"}

	svc, err := NewService(ServiceParams{
		Repo:     store,
		Versions: versions,
		Logger:   quietLogger(),
		TTL:      time.Minute,
	})
	require.NoError(t, err)

	_, err = svc.Snapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, store.listEnabled)

	versions.version = "v2"
	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, "v2", snap.Version())
	require.Equal(t, 2, store.listEnabled)
}

func TestSnapshotSkipsInvalidStoredRules(t *testing.T) {
	badRounding := enabledRule("cost")
	badRounding.Rounding = strPtr("ceil_to_2_yuan")

	store := &stubRuleStore{enabled: []models.PricingRule{
		enabledRule("cost * 1.5"),
		enabledRule("cost *"), // malformed
		badRounding,
	}}

	svc, err := NewService(ServiceParams{Repo: store, Logger: quietLogger()})
	require.NoError(t, err)

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, snap.Len())
}

func TestCreateRuleRejectsInvalidInput(t *testing.T) {
	store := &stubRuleStore{}
	svc, err := NewService(ServiceParams{Repo: store, Logger: quietLogger()})
	require.NoError(t, err)

	_, err = svc.CreateRule(context.Background(), CreateRuleInput{
		Scope:    enums.RuleScopeCategory, // missing scope value
		Formula:  "cost +",                // malformed
		Rounding: strPtr("not_a_policy"),  // unknown
		Enabled:  true,
	})
	require.Error(t, err)

	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	require.Equal(t, pkgerrors.CodeValidation, coded.Code())

	details, ok := coded.Details().([]string)
	require.True(t, ok)
	require.Len(t, details, 3)
	require.Empty(t, store.created)
}

func TestCreateRulePersistsAndInvalidates(t *testing.T) {
	store := &stubRuleStore{}
	versions := &stubVersionStore{version: "v1"}

	svc, err := NewService(ServiceParams{
		Repo:     store,
		Versions: versions,
		Logger:   quietLogger(),
	})
	require.NoError(t, err)

	dto, err := svc.CreateRule(context.Background(), CreateRuleInput{
		Scope:      enums.RuleScopeLevel,
		ScopeValue: "wholesale",
		Formula:    "cost * 0.9",
		Rounding:   strPtr("floor_to_0_5_yuan"),
		Priority:   20,
		Enabled:    true,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, dto.ID)
	require.Equal(t, enums.RuleScopeLevel, dto.Scope)
	require.Len(t, store.created, 1)
	require.Equal(t, 1, versions.sets)
	require.NotEqual(t, "v1", versions.version)
}

func TestListRulesPaginates(t *testing.T) {
	now := time.Now()
	all := make([]models.PricingRule, 5)
	for i := range all {
		all[i] = models.PricingRule{
			ID:        uuid.New(),
			Scope:     enums.RuleScopeGlobal,
			Formula:   "cost",
			CreatedAt: now.Add(-time.Duration(i) * time.Minute),
		}
	}
	store := &stubRuleStore{all: all}

	svc, err := NewService(ServiceParams{Repo: store, Logger: quietLogger()})
	require.NoError(t, err)

	result, err := svc.ListRules(context.Background(), pagination.Params{Limit: 3})
	require.NoError(t, err)
	require.Len(t, result.Rules, 3)
	require.NotEmpty(t, result.NextCursor)

	cursor, err := pagination.ParseCursor(result.NextCursor)
	require.NoError(t, err)
	require.Equal(t, result.Rules[2].ID, cursor.ID)
}
