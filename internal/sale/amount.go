package sale

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses locale-formatted decimal input. A comma decimal
// separator is normalized to a dot before parsing; unparsable or empty input
// yields zero (the workflow treats missing price/discount as zero, never as
// an error).
func ParseAmount(s string) decimal.Decimal {
	v, ok := ParseAmountStrict(s)
	if !ok {
		return decimal.Zero
	}
	return v
}

// ParseAmountStrict is ParseAmount without the zero fallback; the second
// return reports whether the input actually parsed. Used where "absent" and
// "zero" must stay distinct (nullable product prices).
func ParseAmountStrict(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return v, true
}
