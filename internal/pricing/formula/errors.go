package formula

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCost is returned when a formula references the cost
	// variable but the caller has no base cost to bind it to.
	ErrMissingCost = errors.New("formula references cost but cost is unknown")

	// ErrDivisionByZero is returned when evaluation divides by zero.
	ErrDivisionByZero = errors.New("division by zero")
)

// SyntaxError reports a malformed formula, pointing at the byte offset
// of the offending token.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("formula syntax error at position %d: %s", e.Pos, e.Msg)
}
