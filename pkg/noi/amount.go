// Package noi implements the Net Operating Income comparison engine.
//
// The engine compares a current period against up to three baselines (prior
// month, budget, prior year) over a fixed set of metrics. Missing values are
// modelled explicitly: an Amount is either known or unknown, and a Percent is
// either defined or not applicable. Neither is ever coerced to zero.
package noi

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/iwvelando/noi-analyzer/pkg/constants"
	"github.com/shopspring/decimal"
)

// ErrNonNumeric is returned when a monetary value is not a finite number.
var ErrNonNumeric = errors.New("noi: value is not a finite number")

var jsonNull = []byte("null")

// Amount is a monetary value that may be unknown. The zero value is unknown.
type Amount struct {
	value decimal.Decimal
	known bool
}

// Known wraps a decimal as a known amount.
func Known(v decimal.Decimal) Amount {
	return Amount{value: v, known: true}
}

// Unknown returns an amount with no value.
func Unknown() Amount {
	return Amount{}
}

// NewAmountFromFloat converts a float64 into a known amount. NaN and infinite
// values are rejected with ErrNonNumeric.
func NewAmountFromFloat(f float64) (Amount, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Amount{}, fmt.Errorf("%w: %v", ErrNonNumeric, f)
	}
	return Known(decimal.NewFromFloat(f)), nil
}

// AmountFromPtr converts an optional float into an amount; nil is unknown.
func AmountFromPtr(f *float64) (Amount, error) {
	if f == nil {
		return Unknown(), nil
	}
	return NewAmountFromFloat(*f)
}

// Value returns the decimal and whether it is known.
func (a Amount) Value() (decimal.Decimal, bool) {
	return a.value, a.known
}

// IsKnown reports whether the amount holds a value.
func (a Amount) IsKnown() bool {
	return a.known
}

// IsZero reports whether the amount is known and exactly zero. An unknown
// amount is not zero.
func (a Amount) IsZero() bool {
	return a.known && a.value.IsZero()
}

// Sub returns a - b, unknown when either side is unknown.
func (a Amount) Sub(b Amount) Amount {
	if !a.known || !b.known {
		return Unknown()
	}
	return Known(a.value.Sub(b.value))
}

// Float64 returns the amount as a float64 for display code.
func (a Amount) Float64() (float64, bool) {
	if !a.known {
		return 0, false
	}
	return a.value.InexactFloat64(), true
}

// Equal reports whether two amounts are both unknown or both known and equal.
func (a Amount) Equal(b Amount) bool {
	if a.known != b.known {
		return false
	}
	return !a.known || a.value.Equal(b.value)
}

func (a Amount) String() string {
	if !a.known {
		return constants.NotApplicable
	}
	return a.value.String()
}

// MarshalJSON encodes a known amount as a bare number and an unknown one as null.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.known {
		return jsonNull, nil
	}
	return []byte(a.value.String()), nil
}

// UnmarshalJSON decodes a number (or numeric string) and treats null as unknown.
func (a *Amount) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		*a = Unknown()
		return nil
	}
	var v decimal.Decimal
	if err := v.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: %s", ErrNonNumeric, string(data))
	}
	*a = Known(v)
	return nil
}

// Percent is a percentage change that may be not applicable, e.g. when the
// baseline is zero or unknown. The zero value is not applicable.
type Percent struct {
	value   decimal.Decimal
	defined bool
}

// DefinedPercent wraps a decimal percentage.
func DefinedPercent(v decimal.Decimal) Percent {
	return Percent{value: v, defined: true}
}

// NotApplicable returns the "not applicable" percent marker.
func NotApplicable() Percent {
	return Percent{}
}

// Value returns the percentage and whether it is defined.
func (p Percent) Value() (decimal.Decimal, bool) {
	return p.value, p.defined
}

// IsDefined reports whether the percent holds a value.
func (p Percent) IsDefined() bool {
	return p.defined
}

// Equal reports whether two percents are both not applicable or both equal.
func (p Percent) Equal(q Percent) bool {
	if p.defined != q.defined {
		return false
	}
	return !p.defined || p.value.Equal(q.value)
}

func (p Percent) String() string {
	if !p.defined {
		return constants.NotApplicable
	}
	return p.value.String() + "%"
}

// MarshalJSON encodes a defined percent as a bare number and a not applicable one as null.
func (p Percent) MarshalJSON() ([]byte, error) {
	if !p.defined {
		return jsonNull, nil
	}
	return []byte(p.value.String()), nil
}

// UnmarshalJSON decodes a number and treats null as not applicable.
func (p *Percent) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		*p = NotApplicable()
		return nil
	}
	var v decimal.Decimal
	if err := v.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: %s", ErrNonNumeric, string(data))
	}
	*p = DefinedPercent(v)
	return nil
}
