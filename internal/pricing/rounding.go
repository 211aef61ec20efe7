package pricing

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// UnknownRoundingError reports a rule referencing a rounding policy name
// that is not in the registry. Persisted rules reference policies by name,
// so the registry vocabulary is a stable contract.
type UnknownRoundingError struct {
	Name string
}

func (e *UnknownRoundingError) Error() string {
	return fmt.Sprintf("unknown rounding policy %q", e.Name)
}

var half = decimal.New(5, -1) // 0.5

var roundings = map[string]func(decimal.Decimal) decimal.Decimal{
	"floor_to_1_yuan": func(v decimal.Decimal) decimal.Decimal {
		return v.Floor()
	},
	"floor_to_0_5_yuan": func(v decimal.Decimal) decimal.Decimal {
		return v.Div(half).Floor().Mul(half)
	},
	"round_half_up_to_0_1_yuan": func(v decimal.Decimal) decimal.Decimal {
		return v.Round(1)
	},
	"round_half_up_to_1_yuan": func(v decimal.Decimal) decimal.Decimal {
		return v.Round(0)
	},
}

// ApplyRounding applies the named rounding policy to value. A nil name is
// the identity transform.
func ApplyRounding(name *string, value decimal.Decimal) (decimal.Decimal, error) {
	if name == nil || *name == "" {
		return value, nil
	}
	fn, ok := roundings[*name]
	if !ok {
		return decimal.Zero, &UnknownRoundingError{Name: *name}
	}
	return fn(value), nil
}

// KnownRounding reports whether name is a registered rounding policy.
func KnownRounding(name string) bool {
	_, ok := roundings[name]
	return ok
}

// RoundingNames returns the registered policy names, sorted.
func RoundingNames() []string {
	names := make([]string, 0, len(roundings))
	for name := range roundings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
