package pricing

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/voxtill/voxtill-backend/internal/pricing/formula"
	"github.com/voxtill/voxtill-backend/pkg/config"
	"github.com/voxtill/voxtill-backend/pkg/enums"
	"github.com/voxtill/voxtill-backend/pkg/errors"
	"github.com/voxtill/voxtill-backend/pkg/logger"
	"github.com/voxtill/voxtill-backend/pkg/metrics"
)

// EngineParams groups dependencies for the resolution engine.
type EngineParams struct {
	Config  config.PricingConfig
	Logger  *logger.Logger
	Metrics *metrics.ResolutionMetrics
}

// Engine resolves transaction drafts against a rule snapshot. It holds no
// mutable state; a Resolve call is a pure function of (snapshot, draft).
type Engine struct {
	maxCandidates   int
	lineConcurrency int
	logg            *logger.Logger
	metrics         *metrics.ResolutionMetrics
}

// NewEngine builds a resolution engine.
func NewEngine(params EngineParams) (*Engine, error) {
	if params.Logger == nil {
		return nil, stderrors.New("logger is required")
	}
	if params.Metrics == nil {
		return nil, stderrors.New("metrics is required")
	}

	maxCandidates := params.Config.MaxCandidates
	if maxCandidates <= 0 {
		maxCandidates = 32
	}
	lineConcurrency := params.Config.LineConcurrency
	if lineConcurrency <= 0 {
		lineConcurrency = 8
	}

	return &Engine{
		maxCandidates:   maxCandidates,
		lineConcurrency: lineConcurrency,
		logg:            params.Logger,
		metrics:         params.Metrics,
	}, nil
}

// Resolve prices every line of draft against snap and aggregates the totals.
// Candidate-level failures (missing cost, division by zero, unknown rounding)
// skip the candidate, never abort the line, and never abort sibling lines.
// The only fatal condition is a missing snapshot.
func (e *Engine) Resolve(ctx context.Context, snap *Snapshot, draft Draft) (*Resolution, error) {
	if snap == nil {
		return nil, errors.New(errors.CodeNoSnapshot, "no pricing rule snapshot available")
	}

	start := time.Now()
	defer func() {
		e.metrics.ObserveDuration(draft.Intent.String(), time.Since(start))
	}()

	results := make([]LineResult, len(draft.Lines))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.lineConcurrency)
	for i, line := range draft.Lines {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.resolveLine(gctx, snap, line, draft.Buyer)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "pricing resolution interrupted")
	}

	return aggregate(draft, results), nil
}

func (e *Engine) resolveLine(ctx context.Context, snap *Snapshot, line LineInput, buyer BuyerContext) LineResult {
	result := LineResult{Position: line.Position, Source: enums.PriceSourceUnresolved}

	candidates := snap.Candidates(line, buyer)
	if len(candidates) > e.maxCandidates {
		candidates = candidates[:e.maxCandidates]
	}

	for _, candidate := range candidates {
		price, ok := e.tryCandidate(ctx, candidate, line, &result)
		if !ok {
			continue
		}
		ruleID := candidate.ID
		priority := candidate.Priority
		result.FinalPrice = &price
		result.Source = enums.PriceSourceRule
		result.RuleID = &ruleID
		result.RulePriority = &priority
		e.metrics.IncLine(result.Source.String())
		return result
	}

	// No candidate priced the line; take the price heard in the speech
	// transcript, with no rule attribution.
	if line.ObservedPrice != nil {
		observed := *line.ObservedPrice
		result.FinalPrice = &observed
		result.Source = enums.PriceSourceObserved
	}

	e.metrics.IncLine(result.Source.String())
	return result
}

// tryCandidate evaluates one candidate rule. A failure records a diagnostic
// on the result and reports the candidate as skipped.
func (e *Engine) tryCandidate(ctx context.Context, candidate Rule, line LineInput, result *LineResult) (decimal.Decimal, bool) {
	raw, err := candidate.Expr.Evaluate(line.BaseCost)
	if err != nil {
		e.recordDiagnostic(ctx, result, candidate, diagnosticKindFor(err), err)
		return decimal.Zero, false
	}

	price, err := ApplyRounding(candidate.Rounding, raw)
	if err != nil {
		e.recordDiagnostic(ctx, result, candidate, DiagnosticUnknownRounding, err)
		return decimal.Zero, false
	}

	return price, true
}

func (e *Engine) recordDiagnostic(ctx context.Context, result *LineResult, candidate Rule, kind DiagnosticKind, err error) {
	result.Diagnostics = append(result.Diagnostics, Diagnostic{
		RuleID: candidate.ID,
		Kind:   kind,
		Detail: err.Error(),
	})
	e.metrics.IncDiagnostic(string(kind))

	ctx = e.logg.WithRuleID(ctx, candidate.ID.String())
	ctx = e.logg.WithField(ctx, "diagnostic_kind", string(kind))
	e.logg.Warn(ctx, "pricing rule candidate skipped: "+err.Error())
}

func diagnosticKindFor(err error) DiagnosticKind {
	switch {
	case stderrors.Is(err, formula.ErrMissingCost):
		return DiagnosticMissingCost
	case stderrors.Is(err, formula.ErrDivisionByZero):
		return DiagnosticDivisionByZero
	default:
		return DiagnosticFormulaError
	}
}

func aggregate(draft Draft, lines []LineResult) *Resolution {
	res := &Resolution{
		Lines:  lines,
		Status: enums.TransactionStatusComplete,
	}

	total := decimal.Zero
	costKnown := true
	costTotal := decimal.Zero

	for i, line := range lines {
		if line.FinalPrice != nil {
			total = total.Add(*line.FinalPrice)
		}
		unresolved := line.Source == enums.PriceSourceUnresolved
		if unresolved {
			res.Status = enums.TransactionStatusIncomplete
		}
		// An unresolved line contributes to neither total, even when its
		// wholesale cost is known.
		if draft.Lines[i].BaseCost == nil {
			costKnown = false
		} else if !unresolved {
			costTotal = costTotal.Add(*draft.Lines[i].BaseCost)
		}
	}

	res.TotalPrice = total
	if costKnown {
		res.TotalCost = &costTotal
	}
	return res
}
