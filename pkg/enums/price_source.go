package enums

import "fmt"

// PriceSource records how a transaction line obtained its final price.
type PriceSource string

const (
	PriceSourceRule       PriceSource = "rule"
	PriceSourceObserved   PriceSource = "observed"
	PriceSourceUnresolved PriceSource = "unresolved"
)

var validPriceSources = []PriceSource{
	PriceSourceRule,
	PriceSourceObserved,
	PriceSourceUnresolved,
}

// String implements fmt.Stringer.
func (p PriceSource) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PriceSource.
func (p PriceSource) IsValid() bool {
	for _, candidate := range validPriceSources {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePriceSource converts raw input into a PriceSource.
func ParsePriceSource(value string) (PriceSource, error) {
	for _, candidate := range validPriceSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid price source %q", value)
}
