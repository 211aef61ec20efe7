package rules

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"

	"github.com/voxtill/voxtill-backend/internal/pricing"
	"github.com/voxtill/voxtill-backend/internal/pricing/formula"
	"github.com/voxtill/voxtill-backend/pkg/db/models"
	"github.com/voxtill/voxtill-backend/pkg/enums"
	pkgerrors "github.com/voxtill/voxtill-backend/pkg/errors"
	"github.com/voxtill/voxtill-backend/pkg/logger"
	"github.com/voxtill/voxtill-backend/pkg/pagination"
)

// Service exposes pricing rule management and the compiled snapshot the
// resolution engine consumes.
type Service interface {
	Snapshot(ctx context.Context) (*pricing.Snapshot, error)
	Invalidate(ctx context.Context) error
	CreateRule(ctx context.Context, input CreateRuleInput) (*RuleDTO, error)
	ListRules(ctx context.Context, params pagination.Params) (*RuleListResult, error)
}

// CreateRuleInput holds the validated payload to create a rule.
type CreateRuleInput struct {
	Scope      enums.RuleScope
	ScopeValue string
	Formula    string
	Rounding   *string
	Priority   int
	Enabled    bool
}

type ruleStore interface {
	ListEnabled(ctx context.Context) ([]models.PricingRule, error)
	List(ctx context.Context, params pagination.Params) ([]models.PricingRule, error)
	Create(ctx context.Context, rule *models.PricingRule) (*models.PricingRule, error)
}

type versionStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SnapshotVersionKey() string
}

// ServiceParams groups dependencies for the rules service.
type ServiceParams struct {
	Repo     ruleStore
	Versions versionStore
	Logger   *logger.Logger
	TTL      time.Duration
}

type service struct {
	repo     ruleStore
	versions versionStore
	logg     *logger.Logger
	ttl      time.Duration

	mu       sync.RWMutex
	cached   *pricing.Snapshot
	cachedAt time.Time
}

// NewService builds a rules service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}

	ttl := params.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return &service{
		repo:     params.Repo,
		versions: params.Versions,
		logg:     params.Logger,
		ttl:      ttl,
	}, nil
}

// Snapshot returns the compiled rule snapshot, loading from the database
// when the cached copy expired or another instance bumped the version.
func (s *service) Snapshot(ctx context.Context) (*pricing.Snapshot, error) {
	version, err := s.currentVersion(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	cached, cachedAt := s.cached, s.cachedAt
	s.mu.RUnlock()

	if cached != nil && time.Since(cachedAt) < s.ttl && cached.Version() == version {
		return cached, nil
	}

	return s.reload(ctx, version)
}

// Invalidate bumps the shared snapshot version so every instance reloads
// on its next resolution.
func (s *service) Invalidate(ctx context.Context) error {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()

	if s.versions == nil {
		return nil
	}
	if err := s.versions.Set(ctx, s.versions.SnapshotVersionKey(), uuid.NewString(), 0); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bump snapshot version")
	}
	return nil
}

func (s *service) currentVersion(ctx context.Context) (string, error) {
	if s.versions == nil {
		return "local", nil
	}
	version, err := s.versions.Get(ctx, s.versions.SnapshotVersionKey())
	if err != nil {
		// An absent key just means no rule edit has bumped the version yet,
		// which is the normal state of a fresh deployment.
		if errors.Is(err, redis.Nil) {
			return "local", nil
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read snapshot version")
	}
	if version == "" {
		return "local", nil
	}
	return version, nil
}

func (s *service) reload(ctx context.Context, version string) (*pricing.Snapshot, error) {
	records, err := s.repo.ListEnabled(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pricing rules")
	}

	compiled, invalid := compileRules(records)
	if invalid != nil {
		// Bad stored records are skipped, never fatal; pricing proceeds
		// on the valid remainder.
		s.logg.Error(ctx, "skipping invalid pricing rules", invalid)
	}

	snap := pricing.NewSnapshot(version, compiled)

	s.mu.Lock()
	s.cached = snap
	s.cachedAt = time.Now()
	s.mu.Unlock()

	s.logg.Info(s.logg.WithField(ctx, "rule_count", snap.Len()), "pricing rule snapshot loaded")
	return snap, nil
}

// compileRules validates and compiles stored records, aggregating the
// failures so every bad record is reported in one pass.
func compileRules(records []models.PricingRule) ([]pricing.Rule, error) {
	var (
		compiled []pricing.Rule
		invalid  error
	)
	for _, record := range records {
		rule, err := compileRule(record)
		if err != nil {
			invalid = multierr.Append(invalid, fmt.Errorf("rule %s: %w", record.ID, err))
			continue
		}
		compiled = append(compiled, rule)
	}
	return compiled, invalid
}

func compileRule(record models.PricingRule) (pricing.Rule, error) {
	var err error
	if !record.Scope.IsValid() {
		err = multierr.Append(err, fmt.Errorf("invalid scope %q", record.Scope))
	}
	if record.Scope != enums.RuleScopeGlobal && record.ScopeValue == "" {
		err = multierr.Append(err, errors.New("scope value is required for non-global scopes"))
	}
	if record.Rounding != nil && *record.Rounding != "" && !pricing.KnownRounding(*record.Rounding) {
		err = multierr.Append(err, &pricing.UnknownRoundingError{Name: *record.Rounding})
	}

	expr, parseErr := formula.Parse(record.Formula)
	if parseErr != nil {
		err = multierr.Append(err, parseErr)
	}
	if err != nil {
		return pricing.Rule{}, err
	}

	return pricing.Rule{
		ID:         record.ID,
		Scope:      record.Scope,
		ScopeValue: record.ScopeValue,
		Expr:       expr,
		Rounding:   record.Rounding,
		Priority:   record.Priority,
	}, nil
}

// CreateRule validates and persists a rule, then invalidates the snapshot.
func (s *service) CreateRule(ctx context.Context, input CreateRuleInput) (*RuleDTO, error) {
	record := models.PricingRule{
		Scope:      input.Scope,
		ScopeValue: input.ScopeValue,
		Formula:    input.Formula,
		Rounding:   input.Rounding,
		Priority:   input.Priority,
		Enabled:    input.Enabled,
	}

	if _, err := compileRule(record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid pricing rule").
			WithDetails(multierrMessages(err))
	}

	created, err := s.repo.Create(ctx, &record)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create pricing rule")
	}

	if err := s.Invalidate(ctx); err != nil {
		s.logg.Error(ctx, "snapshot invalidation failed after rule create", err)
	}

	dto := toRuleDTO(*created)
	return &dto, nil
}

// ListRules returns a cursor page of rules.
func (s *service) ListRules(ctx context.Context, params pagination.Params) (*RuleListResult, error) {
	records, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pricing rules")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	result := &RuleListResult{Rules: make([]RuleDTO, 0, len(records))}

	hasMore := len(records) > limit
	if hasMore {
		records = records[:limit]
	}
	for _, record := range records {
		result.Rules = append(result.Rules, toRuleDTO(record))
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

func multierrMessages(err error) []string {
	errs := multierr.Errors(err)
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Error())
	}
	return out
}
