// Package datetime provides period label parsing and arithmetic.
package datetime

import (
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/noi-analyzer/pkg/constants"
)

// PeriodLayout is the canonical period label format.
const PeriodLayout = constants.PeriodLayout

// Accepted layouts after separators have been normalized to single spaces.
var namedLayouts = []string{"January 2006", "Jan 2006"}

// ParsePeriod parses a period label into the first day of its month. Besides
// the canonical 2006-01 form it accepts month names as they appear in
// statement titles and file names: "March 2025", "Mar 2025", "Mar_2025" and
// "Mar-2025".
func ParsePeriod(label string) (time.Time, error) {
	trimmed := strings.TrimSpace(label)
	if t, err := time.Parse(PeriodLayout, trimmed); err == nil {
		return t, nil
	}

	normalized := strings.Join(strings.FieldsFunc(trimmed, func(r rune) bool {
		return r == ' ' || r == '_' || r == '-'
	}), " ")
	for _, layout := range namedLayouts {
		if t, err := time.Parse(layout, normalized); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized period %q", label)
}

// MustParsePeriod parses a period label and panics on error.
// This is intended for use in tests where the label is known to be valid.
func MustParsePeriod(label string) time.Time {
	t, err := ParsePeriod(label)
	if err != nil {
		panic(err)
	}
	return t
}

// FormatPeriod renders a time as a canonical period label.
func FormatPeriod(t time.Time) string {
	return t.Format(PeriodLayout)
}

// NormalizePeriod rewrites any accepted label into the canonical form.
func NormalizePeriod(label string) (string, error) {
	t, err := ParsePeriod(label)
	if err != nil {
		return label, err
	}
	return FormatPeriod(t), nil
}

// OffsetPeriod returns the canonical label offset by the given number of
// months relative to the given label.
func OffsetPeriod(label string, months int) (string, error) {
	t, err := ParsePeriod(label)
	if err != nil {
		return label, err
	}
	return FormatPeriod(t.AddDate(0, months, 0)), nil
}

// MonthsBetween returns the number of whole months from one label to
// another; it is negative when to precedes from.
func MonthsBetween(from, to string) (int, error) {
	fromT, err := ParsePeriod(from)
	if err != nil {
		return 0, err
	}
	toT, err := ParsePeriod(to)
	if err != nil {
		return 0, err
	}
	return (toT.Year()-fromT.Year())*constants.MonthsPerYear + int(toT.Month()) - int(fromT.Month()), nil
}
