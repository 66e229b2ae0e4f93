// Package output provides utilities for formatting and displaying comparison results.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/noi-analyzer/pkg/constants"
	"github.com/iwvelando/noi-analyzer/pkg/insights"
	"github.com/iwvelando/noi-analyzer/pkg/noi"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// CSVHeader is the column layout of CsvFormat.
var CSVHeader = []string{"baseline", "metric", "current_value", "baseline_value", "absolute_change", "percent_change"}

const rowFormat = "%-12s | %14s | %14s | %14s | %9s\n"

// PrettyFormat writes a human-readable table per baseline.
func PrettyFormat(w io.Writer, property string, report noi.Report) {
	p := message.NewPrinter(language.English)
	title := property
	if title == "" {
		title = "property"
	}
	_, _ = p.Fprintf(w, "--- NOI comparison for %s ---\n", title)

	baselines := report.Baselines()
	if len(baselines) == 0 {
		_, _ = p.Fprintf(w, "No baseline periods supplied; nothing to compare.\n")
	}

	for i, baseline := range baselines {
		_, _ = p.Fprintf(w, "Current vs %s\n", baseline.Label())
		_, _ = p.Fprintf(w, rowFormat, "Metric", "Current", baseline.Label(), "Change", "Change %")
		_, _ = p.Fprintf(w, rowFormat, "______", "_______", strings.Repeat("_", len(baseline.Label())), "______", "________")
		for _, result := range report.ForBaseline(baseline) {
			_, _ = p.Fprintf(w, rowFormat,
				result.Metric.Label(),
				prettyAmount(p, result.CurrentValue, false),
				prettyAmount(p, result.BaselineValue, false),
				prettyAmount(p, result.AbsoluteChange, true),
				prettyPercent(p, result.PercentChange))
		}
		if i < len(baselines)-1 {
			_, _ = fmt.Fprintf(w, "\n")
		}
	}

	if derived := derivedRoles(report); len(derived) > 0 {
		_, _ = p.Fprintf(w, "\nNOI derived as EGI - OpEx for: %s\n", strings.Join(derived, ", "))
	}
}

// PrettyInsights writes generated commentary and validation warnings below a
// PrettyFormat table.
func PrettyInsights(w io.Writer, ins insights.Insights, warnings []string) {
	if ins.Summary != "" {
		_, _ = fmt.Fprintf(w, "\nSummary\n%s\n", ins.Summary)
	}
	writeList(w, "Performance", ins.Performance)
	writeList(w, "Recommendations", ins.Recommendations)
	writeList(w, "Warnings", warnings)
}

func writeList(w io.Writer, heading string, lines []string) {
	if len(lines) == 0 {
		return
	}
	_, _ = fmt.Fprintf(w, "\n%s\n", heading)
	for _, line := range lines {
		_, _ = fmt.Fprintf(w, "- %s\n", line)
	}
}

// CsvFormat writes one row per result in report order. Unknown amounts and
// not applicable percentages are written as empty cells.
func CsvFormat(w io.Writer, report noi.Report) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(CSVHeader); err != nil {
		return err
	}
	for _, result := range report.Results {
		record := []string{
			string(result.Baseline),
			string(result.Metric),
			csvAmount(result.CurrentValue),
			csvAmount(result.BaselineValue),
			csvAmount(result.AbsoluteChange),
			csvPercent(result.PercentChange),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// CsvString returns CsvFormat output as a string.
func CsvString(report noi.Report) string {
	var b strings.Builder
	if err := CsvFormat(&b, report); err != nil {
		return ""
	}
	return b.String()
}

// JSONFormat writes v as indented JSON.
func JSONFormat(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// prettyAmount renders a known amount as grouped currency, e.g. "-$1,234.56".
// signed adds a plus sign to positive values.
func prettyAmount(p *message.Printer, a noi.Amount, signed bool) string {
	v, ok := a.Value()
	if !ok {
		return constants.NotApplicable
	}
	rounded := v.Round(constants.CurrencyPlaces)
	return sign(rounded, signed) + p.Sprintf("$%v", groupedDecimal(rounded.Abs(), constants.CurrencyPlaces))
}

// prettyPercent renders a percent change with an explicit sign, e.g. "+12.50%".
func prettyPercent(p *message.Printer, pct noi.Percent) string {
	v, ok := pct.Value()
	if !ok {
		return constants.NotApplicable
	}
	rounded := v.Round(constants.PercentPlaces)
	return sign(rounded, true) + p.Sprintf("%v%%", groupedDecimal(rounded.Abs(), constants.PercentPlaces))
}

// groupedDecimal formats an already rounded, non-negative value with a fixed
// number of fraction digits and locale grouping.
func groupedDecimal(v decimal.Decimal, places int32) number.Formatter {
	return number.Decimal(v.InexactFloat64(), number.Scale(int(places)))
}

func sign(v decimal.Decimal, signed bool) string {
	switch {
	case v.IsNegative():
		return "-"
	case signed && v.IsPositive():
		return "+"
	}
	return ""
}

func csvAmount(a noi.Amount) string {
	v, ok := a.Value()
	if !ok {
		return ""
	}
	return v.StringFixed(constants.CurrencyPlaces)
}

func csvPercent(p noi.Percent) string {
	v, ok := p.Value()
	if !ok {
		return ""
	}
	return v.StringFixed(constants.PercentPlaces)
}

func derivedRoles(report noi.Report) []string {
	var roles []string
	for _, role := range noi.Roles {
		if report.NOISource[role] == noi.NOIDerived {
			roles = append(roles, role.Label())
		}
	}
	return roles
}
