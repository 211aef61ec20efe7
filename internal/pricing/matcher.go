package pricing

import (
	"sort"
	"strings"
	"time"

	"github.com/voxtill/voxtill-backend/pkg/enums"
)

// Snapshot is an immutable, versioned view of the enabled pricing rules,
// pre-sorted into resolution order. Rule edits produce a new snapshot; a
// resolution in flight never observes a partial rule set.
type Snapshot struct {
	version  string
	loadedAt time.Time
	rules    []Rule
}

// NewSnapshot copies rules and sorts them into the resolution total order:
// priority descending, then scope specificity descending (special > level >
// category > global), then rule ID ascending. The ID key makes the order
// total, so candidate ranking is stable regardless of input order.
func NewSnapshot(version string, rules []Rule) *Snapshot {
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)

	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.Scope.Specificity() != b.Scope.Specificity() {
			return a.Scope.Specificity() > b.Scope.Specificity()
		}
		return a.ID.String() < b.ID.String()
	})

	return &Snapshot{version: version, loadedAt: time.Now().UTC(), rules: sorted}
}

func (s *Snapshot) Version() string     { return s.version }
func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }
func (s *Snapshot) Len() int            { return len(s.rules) }

// Candidates returns the rules matching line and buyer, in resolution order.
// The returned slice is freshly allocated; callers may truncate it.
func (s *Snapshot) Candidates(line LineInput, buyer BuyerContext) []Rule {
	var out []Rule
	for _, rule := range s.rules {
		if ruleMatches(rule, line, buyer) {
			out = append(out, rule)
		}
	}
	return out
}

func ruleMatches(rule Rule, line LineInput, buyer BuyerContext) bool {
	switch rule.Scope {
	case enums.RuleScopeGlobal:
		return true
	case enums.RuleScopeCategory:
		return line.Category != "" && strings.EqualFold(rule.ScopeValue, line.Category)
	case enums.RuleScopeLevel:
		return buyer.Level != "" && strings.EqualFold(rule.ScopeValue, buyer.Level)
	case enums.RuleScopeSpecial:
		if buyer.PartnerID == nil {
			return false
		}
		return rule.ScopeValue == SpecialScopeKey(*buyer.PartnerID, line.ProductName)
	}
	return false
}
