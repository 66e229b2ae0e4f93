// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"github.com/iwvelando/noi-analyzer/pkg/constants"
	"github.com/shopspring/decimal"
)

var (
	hundred           = decimal.NewFromInt(constants.PercentageMultiplier)
	currencyTolerance = decimal.RequireFromString(constants.CurrencyTolerance)
)

// Round rounds a value to two decimals, i.e. to represent real currency.
func Round(val decimal.Decimal) decimal.Decimal {
	return val.Round(constants.CurrencyPlaces)
}

// IsZero checks if a value is effectively zero (within one cent)
func IsZero(val decimal.Decimal) bool {
	return val.Abs().LessThanOrEqual(currencyTolerance)
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance decimal.Decimal) bool {
	return val1.Sub(val2).Abs().LessThanOrEqual(tolerance)
}

// PercentChange returns change as a percentage of base, rounded to
// constants.PercentPlaces. The second return is false when base is exactly
// zero and no percentage exists.
func PercentChange(change, base decimal.Decimal) (decimal.Decimal, bool) {
	if base.IsZero() {
		return decimal.Zero, false
	}
	return change.Mul(hundred).Div(base).Round(constants.PercentPlaces), true
}

// Ratio returns part as a percentage of total, e.g. an NOI margin. The
// second return is false when total is zero.
func Ratio(part, total decimal.Decimal) (decimal.Decimal, bool) {
	if total.IsZero() {
		return decimal.Zero, false
	}
	return part.Mul(hundred).Div(total).Round(constants.PercentPlaces), true
}
