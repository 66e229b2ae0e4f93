// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/noi-analyzer/pkg/noi"
	"github.com/shopspring/decimal"
)

// Amount returns a known amount parsed from a decimal string. It panics on
// malformed input and is meant for literals in tests.
func Amount(value string) noi.Amount {
	return noi.Known(decimal.RequireFromString(value))
}

// Percent returns a defined percent parsed from a decimal string.
func Percent(value string) noi.Percent {
	return noi.DefinedPercent(decimal.RequireFromString(value))
}

// Values lists record figures in metric order (GPR, EGI, vacancy, OpEx,
// NOI). An empty string leaves the metric unknown.
type Values [5]string

// Record builds a financial record from string figures.
func Record(values Values) *noi.FinancialRecord {
	amount := func(s string) noi.Amount {
		if s == "" {
			return noi.Unknown()
		}
		return Amount(s)
	}
	return &noi.FinancialRecord{
		GPR:         amount(values[0]),
		EGI:         amount(values[1]),
		VacancyLoss: amount(values[2]),
		OpEx:        amount(values[3]),
		NOI:         amount(values[4]),
	}
}

// ScenarioPeriodSet returns a fully populated set used across package tests.
func ScenarioPeriodSet() noi.PeriodSet {
	current := Record(Values{"1000", "900", "100", "400", "500"})
	current.Period = "2025-03"
	priorMonth := Record(Values{"1000", "800", "200", "400", "400"})
	priorMonth.Period = "2025-02"
	budget := Record(Values{"1100", "950", "150", "420", "530"})
	budget.Period = "2025-03"
	priorYear := Record(Values{"1000", "900", "0", "400", "500"})
	priorYear.Period = "2024-03"
	return noi.PeriodSet{
		Current:    current,
		PriorMonth: priorMonth,
		Budget:     budget,
		PriorYear:  priorYear,
	}
}

// FindResult finds the result for a baseline and metric in a report.
// Returns a pointer to the result if found, nil otherwise.
func FindResult(report noi.Report, baseline noi.Role, metric noi.Metric) *noi.Result {
	for i := range report.Results {
		if report.Results[i].Baseline == baseline && report.Results[i].Metric == metric {
			return &report.Results[i]
		}
	}
	return nil
}
