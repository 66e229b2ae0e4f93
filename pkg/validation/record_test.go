package validation

import (
	"testing"

	"github.com/iwvelando/noi-analyzer/pkg/noi"
	"github.com/iwvelando/noi-analyzer/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRecord(t *testing.T) {
	tests := []struct {
		name     string
		values   testutil.Values
		expected []string
	}{
		{name: "Clean record", values: testutil.Values{"1000", "900", "100", "400", "500"}},
		{name: "Derived NOI only", values: testutil.Values{"1000", "900", "100", "400", ""}},
		{name: "NOI within a dollar", values: testutil.Values{"1000", "900", "100", "400", "500.75"}},
		{name: "Empty record", values: testutil.Values{}, expected: []string{"has no known figures"}},
		{
			name:     "Negative GPR",
			values:   testutil.Values{"-1000", "", "", "", ""},
			expected: []string{"GPR is negative (-$1,000.00)"},
		},
		{
			name:     "Negative vacancy",
			values:   testutil.Values{"", "", "-25", "", ""},
			expected: []string{"vacancy loss is negative"},
		},
		{
			name:     "EGI above GPR",
			values:   testutil.Values{"1000", "1200", "", "", ""},
			expected: []string{"EGI ($1,200.00) exceeds GPR ($1,000.00)"},
		},
		{
			name:     "NOI discrepancy",
			values:   testutil.Values{"", "900", "", "400", "450"},
			expected: []string{"reported NOI ($450.00) differs from EGI - OpEx ($500.00)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings := ValidateRecord(noi.RoleBudget, *testutil.Record(tt.values))
			require.Len(t, warnings, len(tt.expected), "warnings: %v", warnings)
			for i, fragment := range tt.expected {
				assert.Contains(t, warnings[i], "Budget")
				assert.Contains(t, warnings[i], fragment)
			}
		})
	}
}

func TestValidatePeriodSequence(t *testing.T) {
	labelled := func(period string) *noi.FinancialRecord {
		rec := testutil.Record(testutil.Values{"1000", "900", "100", "400", "500"})
		rec.Period = period
		return rec
	}

	tests := []struct {
		name     string
		periods  noi.PeriodSet
		expected []string
	}{
		{name: "Scenario sequence", periods: testutil.ScenarioPeriodSet()},
		{
			name: "Named month labels",
			periods: noi.PeriodSet{
				Current:    labelled("March 2025"),
				PriorMonth: labelled("Feb_2025"),
				PriorYear:  labelled("2024-03"),
			},
		},
		{
			name: "Year boundary",
			periods: noi.PeriodSet{
				Current:    labelled("2025-01"),
				PriorMonth: labelled("2024-12"),
			},
		},
		{name: "Unlabelled current", periods: noi.PeriodSet{Current: labelled(""), PriorMonth: labelled("2020-01")}},
		{name: "No current", periods: noi.PeriodSet{Budget: labelled("2025-03")}},
		{
			name: "Prior month two months back",
			periods: noi.PeriodSet{
				Current:    labelled("2025-03"),
				PriorMonth: labelled("2025-01"),
			},
			expected: []string{"Prior Month period '2025-01' does not match current period '2025-03' (expected 2025-02)"},
		},
		{
			name: "Budget for another month and prior year unparseable",
			periods: noi.PeriodSet{
				Current:   labelled("2025-03"),
				Budget:    labelled("2025-04"),
				PriorYear: labelled("FY24"),
			},
			expected: []string{"Budget period '2025-04'", "Prior Year period 'FY24' is not a recognized month label"},
		},
		{
			name:     "Unparseable current",
			periods:  noi.PeriodSet{Current: labelled("this month"), Budget: labelled("2025-03")},
			expected: []string{"Current period 'this month'"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings := ValidatePeriodSequence(tt.periods)
			require.Len(t, warnings, len(tt.expected), "warnings: %v", warnings)
			for i, fragment := range tt.expected {
				assert.Contains(t, warnings[i], fragment)
			}
		})
	}
}

func TestValidatePeriodSet(t *testing.T) {
	assert.Empty(t, ValidatePeriodSet(testutil.ScenarioPeriodSet()))

	periods := testutil.ScenarioPeriodSet()
	periods.Current = testutil.Record(testutil.Values{"1000", "1100", "", "", ""})
	periods.Current.Period = "2025-03"
	periods.PriorYear = testutil.Record(testutil.Values{})
	periods.PriorYear.Period = "2023-03"

	warnings := ValidatePeriodSet(periods)
	require.Len(t, warnings, 3, "warnings: %v", warnings)
	assert.Contains(t, warnings[0], "Current EGI")
	assert.Contains(t, warnings[1], "Prior Year record has no known figures")
	assert.Contains(t, warnings[2], "Prior Year period '2023-03'")
}
