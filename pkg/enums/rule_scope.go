package enums

import "fmt"

// RuleScope identifies the dimension a pricing rule applies to.
type RuleScope string

const (
	RuleScopeGlobal   RuleScope = "global"
	RuleScopeCategory RuleScope = "category"
	RuleScopeLevel    RuleScope = "level"
	RuleScopeSpecial  RuleScope = "special"
)

var validRuleScopes = []RuleScope{
	RuleScopeGlobal,
	RuleScopeCategory,
	RuleScopeLevel,
	RuleScopeSpecial,
}

// String implements fmt.Stringer.
func (s RuleScope) String() string {
	return string(s)
}

// IsValid reports whether the value is a known RuleScope.
func (s RuleScope) IsValid() bool {
	for _, candidate := range validRuleScopes {
		if candidate == s {
			return true
		}
	}
	return false
}

// Specificity ranks scopes for tie-breaking among equal-priority rules.
// Narrower scopes rank higher: special > level > category > global.
func (s RuleScope) Specificity() int {
	switch s {
	case RuleScopeSpecial:
		return 3
	case RuleScopeLevel:
		return 2
	case RuleScopeCategory:
		return 1
	default:
		return 0
	}
}

// ParseRuleScope converts raw input into a RuleScope.
func ParseRuleScope(value string) (RuleScope, error) {
	for _, candidate := range validRuleScopes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rule scope %q", value)
}
