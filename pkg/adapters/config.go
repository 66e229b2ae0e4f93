// Package adapters converts external representations of period figures into
// the comparison engine's types.
package adapters

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/iwvelando/noi-analyzer/internal/config"
	"github.com/iwvelando/noi-analyzer/pkg/datetime"
	"github.com/iwvelando/noi-analyzer/pkg/noi"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// ErrDuplicateRole is returned when two period keys resolve to the same role.
var ErrDuplicateRole = errors.New("adapters: duplicate period role")

// fieldAliases lists the accepted keys for each metric in priority order.
var fieldAliases = map[noi.Metric][]string{
	noi.MetricGPR:     {"gpr", "gross_potential_rent"},
	noi.MetricEGI:     {"egi", "effective_gross_income", "total_revenue"},
	noi.MetricVacancy: {"vacancy_loss", "vacancy"},
	noi.MetricOpEx:    {"opex", "operating_expenses", "total_expenses"},
	noi.MetricNOI:     {"noi", "net_operating_income"},
}

const periodField = "period"

var unknownMarkers = map[string]bool{
	"":     true,
	"-":    true,
	"n/a":  true,
	"na":   true,
	"null": true,
	"none": true,
}

// RecordFromFields builds a record from loosely typed extraction output.
// Keys are matched case-insensitively against the known aliases; unrecognized
// keys are ignored. When several aliases of one metric are present, the first
// alias with a known value wins.
func RecordFromFields(fields map[string]any) (noi.FinancialRecord, error) {
	normalized := make(map[string]any, len(fields))
	for key, value := range fields {
		normalized[strings.ToLower(strings.TrimSpace(key))] = value
	}

	var rec noi.FinancialRecord
	if raw, ok := normalized[periodField]; ok && raw != nil {
		label, err := cast.ToStringE(raw)
		if err != nil {
			return noi.FinancialRecord{}, fmt.Errorf("period: %w", err)
		}
		rec.Period = normalizePeriod(label)
	}

	for _, metric := range noi.Metrics {
		amount := noi.Unknown()
		for _, alias := range fieldAliases[metric] {
			raw, ok := normalized[alias]
			if !ok {
				continue
			}
			parsed, err := ParseAmount(raw)
			if err != nil {
				return noi.FinancialRecord{}, fmt.Errorf("%s: %w", alias, err)
			}
			if parsed.IsKnown() {
				amount = parsed
				break
			}
		}
		setMetric(&rec, metric, amount)
	}

	return rec, nil
}

// PeriodSetFromFields builds a period set from records keyed by role name.
// Role names go through noi.ParseRole, so "Current Month Actuals" and
// "current" are the same role and may not both appear.
func PeriodSetFromFields(records map[string]map[string]any) (noi.PeriodSet, error) {
	names := make([]string, 0, len(records))
	for name := range records {
		names = append(names, name)
	}
	sort.Strings(names)

	var periods noi.PeriodSet
	seen := make(map[noi.Role]string, len(names))
	for _, name := range names {
		role, err := noi.ParseRole(name)
		if err != nil {
			return noi.PeriodSet{}, err
		}
		if previous, dup := seen[role]; dup {
			return noi.PeriodSet{}, fmt.Errorf("%w: %q and %q both resolve to %s", ErrDuplicateRole, previous, name, role)
		}
		seen[role] = name

		rec, err := RecordFromFields(records[name])
		if err != nil {
			return noi.PeriodSet{}, fmt.Errorf("%s: %w", role, err)
		}
		periods = periods.With(role, &rec)
	}

	return periods, nil
}

// RecordFromConfig converts a configured record. Omitted figures are unknown.
func RecordFromConfig(rc config.RecordConfig) (noi.FinancialRecord, error) {
	rec := noi.FinancialRecord{Period: normalizePeriod(rc.Period)}
	figures := []struct {
		metric noi.Metric
		value  *float64
	}{
		{noi.MetricGPR, rc.GPR},
		{noi.MetricEGI, rc.EGI},
		{noi.MetricVacancy, rc.VacancyLoss},
		{noi.MetricOpEx, rc.OpEx},
		{noi.MetricNOI, rc.NOI},
	}
	for _, figure := range figures {
		amount, err := noi.AmountFromPtr(figure.value)
		if err != nil {
			return noi.FinancialRecord{}, fmt.Errorf("%s: %w", figure.metric, err)
		}
		setMetric(&rec, figure.metric, amount)
	}
	return rec, nil
}

// PeriodSetFromConfig converts the configured periods into a period set.
func PeriodSetFromConfig(pc config.PeriodsConfig) (noi.PeriodSet, error) {
	var periods noi.PeriodSet
	for _, entry := range pc.Entries() {
		role, err := noi.ParseRole(entry.Role)
		if err != nil {
			return noi.PeriodSet{}, err
		}
		rec, err := RecordFromConfig(*entry.Record)
		if err != nil {
			return noi.PeriodSet{}, fmt.Errorf("%s: %w", role, err)
		}
		periods = periods.With(role, &rec)
	}
	return periods, nil
}

// ParseAmount converts a loosely typed value into an amount. Numbers are
// taken as is. Strings may carry a dollar sign, thousands separators and
// accounting-style parentheses for negatives. Empty values and markers such
// as "N/A" or "-" are unknown. Anything else fails with noi.ErrNonNumeric.
func ParseAmount(raw any) (noi.Amount, error) {
	switch v := raw.(type) {
	case nil:
		return noi.Unknown(), nil
	case noi.Amount:
		return v, nil
	case decimal.Decimal:
		return noi.Known(v), nil
	case bool:
		return noi.Amount{}, fmt.Errorf("%w: %v", noi.ErrNonNumeric, v)
	case string:
		return parseAmountString(v)
	case float64:
		return noi.NewAmountFromFloat(v)
	case float32:
		return noi.NewAmountFromFloat(float64(v))
	}

	s, err := cast.ToStringE(raw)
	if err != nil {
		return noi.Amount{}, fmt.Errorf("%w: %v", noi.ErrNonNumeric, raw)
	}
	return parseAmountString(s)
}

func parseAmountString(s string) (noi.Amount, error) {
	trimmed := strings.TrimSpace(s)
	if unknownMarkers[strings.ToLower(trimmed)] {
		return noi.Unknown(), nil
	}

	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(trimmed)
	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = cleaned[1 : len(cleaned)-1]
		// parentheses already carry the sign
		if strings.HasPrefix(cleaned, "-") || strings.HasPrefix(cleaned, "+") {
			return noi.Amount{}, fmt.Errorf("%w: %q", noi.ErrNonNumeric, s)
		}
	}

	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return noi.Amount{}, fmt.Errorf("%w: %q", noi.ErrNonNumeric, s)
	}
	if negative {
		value = value.Neg()
	}
	return noi.Known(value), nil
}

func normalizePeriod(label string) string {
	label = strings.TrimSpace(label)
	if normalized, err := datetime.NormalizePeriod(label); err == nil {
		return normalized
	}
	return label
}

func setMetric(rec *noi.FinancialRecord, metric noi.Metric, amount noi.Amount) {
	switch metric {
	case noi.MetricGPR:
		rec.GPR = amount
	case noi.MetricEGI:
		rec.EGI = amount
	case noi.MetricVacancy:
		rec.VacancyLoss = amount
	case noi.MetricOpEx:
		rec.OpEx = amount
	case noi.MetricNOI:
		rec.NOI = amount
	}
}
