package enums

import "fmt"

// TransactionIntent is the classified intent of a transcribed utterance.
type TransactionIntent string

const (
	TransactionIntentSale    TransactionIntent = "sale"
	TransactionIntentRefund  TransactionIntent = "refund"
	TransactionIntentUnknown TransactionIntent = "unknown"
)

var validTransactionIntents = []TransactionIntent{
	TransactionIntentSale,
	TransactionIntentRefund,
	TransactionIntentUnknown,
}

// String implements fmt.Stringer.
func (i TransactionIntent) String() string {
	return string(i)
}

// IsValid reports whether the value is a known TransactionIntent.
func (i TransactionIntent) IsValid() bool {
	for _, candidate := range validTransactionIntents {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseTransactionIntent converts raw input into a TransactionIntent.
func ParseTransactionIntent(value string) (TransactionIntent, error) {
	for _, candidate := range validTransactionIntents {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction intent %q", value)
}
