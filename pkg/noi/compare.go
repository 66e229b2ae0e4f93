package noi

import (
	"errors"

	"github.com/iwvelando/noi-analyzer/pkg/mathutil"
)

// ErrMissingCurrentPeriod is returned by Compare when the current period is absent.
var ErrMissingCurrentPeriod = errors.New("noi: current period is required")

// Result is the comparison of one metric against one baseline.
type Result struct {
	Metric         Metric  `json:"metric"`
	Baseline       Role    `json:"baseline"`
	CurrentValue   Amount  `json:"current_value"`
	BaselineValue  Amount  `json:"baseline_value"`
	AbsoluteChange Amount  `json:"absolute_change"`
	PercentChange  Percent `json:"percent_change"`
}

// Report is the ordered set of results for every present baseline, grouped by
// baseline and then by metric.
type Report struct {
	Results   []Result           `json:"results"`
	NOISource map[Role]NOISource `json:"noi_source"`
}

// Compare builds the comparison report for a period set. It fails only when
// the current period is missing; every other gap shows up as an unknown
// amount or a not applicable percent.
func Compare(periods PeriodSet) (Report, error) {
	if periods.Current == nil {
		return Report{}, ErrMissingCurrentPeriod
	}

	report := Report{NOISource: make(map[Role]NOISource)}

	current, source := NormalizeNOI(*periods.Current)
	report.NOISource[RoleCurrent] = source

	baselines := periods.Baselines()
	report.Results = make([]Result, 0, len(baselines)*len(Metrics))
	for _, role := range baselines {
		baseline, source := NormalizeNOI(*periods.Record(role))
		report.NOISource[role] = source
		for _, metric := range Metrics {
			report.Results = append(report.Results, compareMetric(metric, role, current, baseline))
		}
	}

	return report, nil
}

func compareMetric(metric Metric, role Role, current, baseline FinancialRecord) Result {
	result := Result{
		Metric:        metric,
		Baseline:      role,
		CurrentValue:  current.Value(metric),
		BaselineValue: baseline.Value(metric),
		PercentChange: NotApplicable(),
	}
	result.AbsoluteChange = result.CurrentValue.Sub(result.BaselineValue)

	change, changeKnown := result.AbsoluteChange.Value()
	base, baseKnown := result.BaselineValue.Value()
	if changeKnown && baseKnown {
		if pct, ok := mathutil.PercentChange(change, base); ok {
			result.PercentChange = DefinedPercent(pct)
		}
	}
	return result
}

// Lookup returns the result for a baseline and metric.
func (r Report) Lookup(baseline Role, metric Metric) (Result, bool) {
	for _, result := range r.Results {
		if result.Baseline == baseline && result.Metric == metric {
			return result, true
		}
	}
	return Result{}, false
}

// ForBaseline returns the results of one baseline in metric order.
func (r Report) ForBaseline(baseline Role) []Result {
	var results []Result
	for _, result := range r.Results {
		if result.Baseline == baseline {
			results = append(results, result)
		}
	}
	return results
}

// Baselines returns the baselines covered by the report, in report order.
func (r Report) Baselines() []Role {
	var roles []Role
	for _, result := range r.Results {
		if len(roles) == 0 || roles[len(roles)-1] != result.Baseline {
			roles = append(roles, result.Baseline)
		}
	}
	return roles
}
