package formula_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/voxtill/voxtill-backend/internal/pricing/formula"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestEvaluateBasics(t *testing.T) {
	cases := []struct {
		name    string
		formula string
		cost    *decimal.Decimal
		want    string
	}{
		{name: "identity", formula: "cost", cost: decPtr("10"), want: "10"},
		{name: "markup", formula: "cost * 1.2", cost: decPtr("10"), want: "12"},
		{name: "fixed price ignores nil cost", formula: "3.0", cost: nil, want: "3"},
		{name: "fixed price ignores bound cost", formula: "3.0", cost: decPtr("99"), want: "3"},
		{name: "precedence", formula: "cost + 2 * 3", cost: decPtr("1"), want: "7"},
		{name: "parens", formula: "(cost + 2) * 3", cost: decPtr("1"), want: "9"},
		{name: "subtract and divide", formula: "(cost - 1) / 2", cost: decPtr("11"), want: "5"},
		{name: "unary minus", formula: "-cost + 10", cost: decPtr("4"), want: "6"},
		{name: "whitespace", formula: "  cost*1.5 ", cost: decPtr("2"), want: "3"},
		{name: "case insensitive variable", formula: "COST * 2", cost: decPtr("3"), want: "6"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := formula.Evaluate(tc.formula, tc.cost)
			require.NoError(t, err)
			require.True(t, got.Equal(dec(tc.want)), "got %s want %s", got, tc.want)
		})
	}
}

func TestEvaluateMissingCost(t *testing.T) {
	_, err := formula.Evaluate("cost", nil)
	require.ErrorIs(t, err, formula.ErrMissingCost)

	_, err = formula.Evaluate("cost * 1.2 + 3", nil)
	require.ErrorIs(t, err, formula.ErrMissingCost)
}

func TestEvaluateDivisionByZero(t *testing.T) {
	_, err := formula.Evaluate("cost / 0", decPtr("5"))
	require.ErrorIs(t, err, formula.ErrDivisionByZero)

	_, err = formula.Evaluate("1 / (cost - 5)", decPtr("5"))
	require.ErrorIs(t, err, formula.ErrDivisionByZero)
}

func TestParseSyntaxErrors(t *testing.T) {
	cases := []struct {
		name    string
		formula string
		wantPos int
	}{
		{name: "empty", formula: "", wantPos: 0},
		{name: "trailing operator", formula: "cost *", wantPos: 6},
		{name: "unknown identifier", formula: "price * 2", wantPos: 0},
		{name: "unbalanced paren", formula: "(cost + 1", wantPos: 9},
		{name: "stray closing paren", formula: "cost + 1)", wantPos: 8},
		{name: "double dot number", formula: "1.2.3", wantPos: 0},
		{name: "unexpected character", formula: "cost % 2", wantPos: 5},
		{name: "adjacent operands", formula: "2 cost", wantPos: 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := formula.Parse(tc.formula)
			require.Error(t, err)

			var syntaxErr *formula.SyntaxError
			require.True(t, errors.As(err, &syntaxErr), "expected *SyntaxError, got %T", err)
			require.Equal(t, tc.wantPos, syntaxErr.Pos)
		})
	}
}

func TestExprReuse(t *testing.T) {
	expr, err := formula.Parse("cost * 1.5")
	require.NoError(t, err)
	require.True(t, expr.UsesCost())

	first, err := expr.Evaluate(decPtr("2"))
	require.NoError(t, err)
	second, err := expr.Evaluate(decPtr("2"))
	require.NoError(t, err)
	require.True(t, first.Equal(second))
	require.True(t, first.Equal(dec("3")))
}

func TestDecimalArithmeticExact(t *testing.T) {
	// 0.1 + 0.2 must be exactly 0.3; binary floats would drift.
	got, err := formula.Evaluate("0.1 + 0.2", nil)
	require.NoError(t, err)
	require.True(t, got.Equal(dec("0.3")), "got %s", got)

	got, err = formula.Evaluate("cost * 1.1", decPtr("19.9"))
	require.NoError(t, err)
	require.True(t, got.Equal(dec("21.89")), "got %s", got)
}
