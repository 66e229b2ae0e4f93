// Package insights turns a comparison report into short variance commentary
// for property managers. The commentary is rule based: the same report always
// produces the same text.
package insights

import (
	"fmt"
	"strings"

	"github.com/iwvelando/noi-analyzer/pkg/constants"
	"github.com/iwvelando/noi-analyzer/pkg/format"
	"github.com/iwvelando/noi-analyzer/pkg/mathutil"
	"github.com/iwvelando/noi-analyzer/pkg/noi"
	"github.com/shopspring/decimal"
)

// Outcome classifies a change from the owner's point of view.
type Outcome string

const (
	Favorable   Outcome = "favorable"
	Unfavorable Outcome = "unfavorable"
	Neutral     Outcome = "neutral"
	Unknown     Outcome = "unknown"
)

// Insights is the generated commentary for one property.
type Insights struct {
	Summary         string   `json:"summary"`
	Performance     []string `json:"performance"`
	Recommendations []string `json:"recommendations"`
}

// Direction classifies a change in a metric. Increases in GPR, EGI and NOI
// are favorable; increases in vacancy loss and OpEx are unfavorable. Changes
// within one cent are neutral and unknown changes stay unknown.
func Direction(metric noi.Metric, change noi.Amount) Outcome {
	v, ok := change.Value()
	if !ok {
		return Unknown
	}
	if mathutil.IsZero(v) {
		return Neutral
	}
	increase := v.IsPositive()
	if metric == noi.MetricVacancy || metric == noi.MetricOpEx {
		increase = !increase
	}
	if increase {
		return Favorable
	}
	return Unfavorable
}

// Generate builds the commentary for a report. current is the current-period
// record the report was built from; a missing NOI is derived the same way
// noi.Compare does. Sentences that would need an unknown value are left out.
func Generate(property string, report noi.Report, current noi.FinancialRecord) Insights {
	current, _ = noi.NormalizeNOI(current)

	insights := Insights{
		Summary:     summary(property, current),
		Performance: []string{},
	}

	for _, baseline := range report.Baselines() {
		insights.Performance = append(insights.Performance, performance(report, baseline)...)
	}
	insights.Recommendations = recommendations(report)

	return insights
}

func summary(property string, current noi.FinancialRecord) string {
	subject := "The subject property"
	if strings.TrimSpace(property) != "" {
		subject = "Property " + property
	}

	var sentences []string
	noiValue, noiKnown := current.NOI.Value()
	if noiKnown {
		sentences = append(sentences, fmt.Sprintf("%s reports a Net Operating Income (NOI) of %s for the current period.",
			subject, format.Currency(noiValue)))
	} else {
		sentences = append(sentences, fmt.Sprintf("%s has no NOI figure for the current period.", subject))
	}

	egi, egiKnown := current.EGI.Value()
	opex, opexKnown := current.OpEx.Value()
	if egiKnown && opexKnown {
		sentences = append(sentences, fmt.Sprintf("This reflects effective gross income of %s against operating expenses of %s.",
			format.Currency(egi), format.Currency(opex)))
	}

	if noiKnown && egiKnown && egi.IsPositive() {
		if margin, ok := mathutil.Ratio(noiValue, egi); ok {
			sentences = append(sentences, fmt.Sprintf("The NOI margin stands at %s%%, %s.",
				margin.StringFixed(1), marginBand(margin)))
		}
	}

	return strings.Join(sentences, " ")
}

func marginBand(margin decimal.Decimal) string {
	switch {
	case margin.GreaterThan(decimal.NewFromInt(constants.MarginExcellent)):
		return "which indicates excellent operational efficiency"
	case margin.GreaterThan(decimal.NewFromInt(constants.MarginStrong)):
		return "reflecting strong operational performance"
	case margin.GreaterThan(decimal.NewFromInt(constants.MarginStandard)):
		return "which is within industry standard parameters"
	default:
		return "suggesting room for operational improvement"
	}
}

func performance(report noi.Report, baseline noi.Role) []string {
	result, ok := report.Lookup(baseline, noi.MetricNOI)
	if !ok {
		return nil
	}
	outcome := Direction(noi.MetricNOI, result.AbsoluteChange)
	if outcome == Unknown {
		return nil
	}
	change, _ := result.AbsoluteChange.Value()

	switch baseline {
	case noi.RoleBudget:
		return budgetPerformance(report, result, outcome, change)
	case noi.RolePriorMonth:
		return []string{trend("Month-over-month", "the prior month", result, outcome, change)}
	case noi.RolePriorYear:
		return []string{trend("Year-over-year", "the same month last year", result, outcome, change)}
	}
	return nil
}

func trend(heading, reference string, result noi.Result, outcome Outcome, change decimal.Decimal) string {
	switch outcome {
	case Favorable:
		return fmt.Sprintf("%s: NOI increased by %s%s compared to %s.",
			heading, format.Currency(change.Abs()), percentSuffix(result.PercentChange), reference)
	case Unfavorable:
		return fmt.Sprintf("%s: NOI declined by %s%s compared to %s.",
			heading, format.Currency(change.Abs()), percentSuffix(result.PercentChange), reference)
	}
	return fmt.Sprintf("%s: NOI is unchanged compared to %s.", heading, reference)
}

func budgetPerformance(report noi.Report, result noi.Result, outcome Outcome, change decimal.Decimal) []string {
	var lines []string
	switch outcome {
	case Favorable:
		lines = append(lines, fmt.Sprintf("Budget variance: NOI exceeds budget by %s%s, a favorable variance.",
			format.Currency(change.Abs()), percentSuffix(result.PercentChange)))
	case Unfavorable:
		lines = append(lines, fmt.Sprintf("Budget variance: NOI falls short of budget by %s%s, an unfavorable variance.",
			format.Currency(change.Abs()), percentSuffix(result.PercentChange)))
	default:
		return []string{"Budget variance: NOI is on budget."}
	}

	egi, _ := report.Lookup(noi.RoleBudget, noi.MetricEGI)
	opex, _ := report.Lookup(noi.RoleBudget, noi.MetricOpEx)
	egiOutcome := Direction(noi.MetricEGI, egi.AbsoluteChange)
	opexOutcome := Direction(noi.MetricOpEx, opex.AbsoluteChange)
	egiChange, _ := egi.AbsoluteChange.Value()
	opexChange, _ := opex.AbsoluteChange.Value()

	revenue := fmt.Sprintf("revenue %s budget by %s", aboveOrBelow(egiChange), format.Currency(egiChange.Abs()))
	expenses := fmt.Sprintf("expenses %s budget by %s", aboveOrBelow(opexChange), format.Currency(opexChange.Abs()))

	switch {
	case egiOutcome == outcome && opexOutcome == outcome:
		lines = append(lines, fmt.Sprintf("The variance comes from both %s and %s.", revenue, expenses))
	case egiOutcome == outcome:
		lines = append(lines, fmt.Sprintf("The variance is driven mainly by %s.", revenue))
	case opexOutcome == outcome:
		lines = append(lines, fmt.Sprintf("The variance is driven mainly by %s.", expenses))
	}
	return lines
}

func recommendations(report noi.Report) []string {
	var recs []string

	budgetNOI, hasBudget := report.Lookup(noi.RoleBudget, noi.MetricNOI)
	if hasBudget && Direction(noi.MetricNOI, budgetNOI.AbsoluteChange) == Unfavorable {
		if egi, ok := report.Lookup(noi.RoleBudget, noi.MetricEGI); ok && Direction(noi.MetricEGI, egi.AbsoluteChange) == Unfavorable {
			recs = append(recs, "Review rental rates against market comparables, lease renewal incentives and ancillary income such as parking, laundry and application fees to close the revenue gap to budget.")
		}
		if opex, ok := report.Lookup(noi.RoleBudget, noi.MetricOpEx); ok && Direction(noi.MetricOpEx, opex.AbsoluteChange) == Unfavorable {
			recs = append(recs, "Target the expense categories with the largest overruns: renegotiate service contracts, audit utility consumption and review staffing levels.")
		}
	}

	if mom, ok := report.Lookup(noi.RolePriorMonth, noi.MetricNOI); ok && Direction(noi.MetricNOI, mom.AbsoluteChange) == Unfavorable {
		recs = append(recs, "Break down the month-over-month decline by revenue and expense category and correct any operational issues before they carry into the next period.")
	}

	if yoy, ok := report.Lookup(noi.RolePriorYear, noi.MetricNOI); ok && Direction(noi.MetricNOI, yoy.AbsoluteChange) == Unfavorable {
		recs = append(recs, "Run an asset performance review covering market positioning, capital improvement needs and management effectiveness to address the year-over-year decline.")
	}

	if len(recs) < 3 {
		recs = append(recs,
			"Reforecast the budget quarterly so targets track current market conditions.",
			"Keep a preventative maintenance program to balance routine repairs against capital expenditures.",
			"Evaluate energy efficiency measures such as LED retrofits, smart thermostats and water conservation to lower utility costs.",
		)
	}

	if len(recs) > constants.MaxRecommendations {
		recs = recs[:constants.MaxRecommendations]
	}
	return recs
}

func percentSuffix(p noi.Percent) string {
	v, ok := p.Value()
	if !ok {
		return ""
	}
	return " (" + format.Percent(noi.DefinedPercent(v.Abs())) + ")"
}

func aboveOrBelow(change decimal.Decimal) string {
	if change.IsNegative() {
		return "below"
	}
	return "above"
}
