package validation

import (
	"fmt"

	"github.com/iwvelando/noi-analyzer/pkg/constants"
	"github.com/iwvelando/noi-analyzer/pkg/datetime"
	"github.com/iwvelando/noi-analyzer/pkg/format"
	"github.com/iwvelando/noi-analyzer/pkg/mathutil"
	"github.com/iwvelando/noi-analyzer/pkg/noi"
	"github.com/shopspring/decimal"
)

var (
	noiTolerance      = decimal.RequireFromString(constants.NOIDiscrepancyTolerance)
	currencyTolerance = decimal.RequireFromString(constants.CurrencyTolerance)
)

// expectedOffsets is the month distance of each baseline from the current period.
var expectedOffsets = map[noi.Role]int{
	noi.RolePriorMonth: -1,
	noi.RoleBudget:     0,
	noi.RolePriorYear:  -constants.MonthsPerYear,
}

// ValidateRecord checks the figures of one period for values that are
// technically comparable but probably mis-extracted.
func ValidateRecord(role noi.Role, rec noi.FinancialRecord) []string {
	if !rec.HasValues() {
		return []string{fmt.Sprintf("%s record has no known figures", role.Label())}
	}

	var warnings []string

	if gpr, ok := rec.GPR.Value(); ok && gpr.IsNegative() {
		warnings = append(warnings, fmt.Sprintf("%s GPR is negative (%s)", role.Label(), format.Currency(gpr)))
	}

	if vacancy, ok := rec.VacancyLoss.Value(); ok && vacancy.IsNegative() {
		warnings = append(warnings, fmt.Sprintf("%s vacancy loss is negative (%s)", role.Label(), format.Currency(vacancy)))
	}

	gpr, gprKnown := rec.GPR.Value()
	egi, egiKnown := rec.EGI.Value()
	if gprKnown && egiKnown && egi.Sub(gpr).GreaterThan(currencyTolerance) {
		warnings = append(warnings, fmt.Sprintf("%s EGI (%s) exceeds GPR (%s)",
			role.Label(), format.Currency(egi), format.Currency(gpr)))
	}

	reported, reportedKnown := rec.NOI.Value()
	derived, derivedKnown := rec.EGI.Sub(rec.OpEx).Value()
	if reportedKnown && derivedKnown && !mathutil.WithinTolerance(reported, derived, noiTolerance) {
		warnings = append(warnings, fmt.Sprintf("%s reported NOI (%s) differs from EGI - OpEx (%s); the reported figure is used",
			role.Label(), format.Currency(reported), format.Currency(derived)))
	}

	return warnings
}

// ValidatePeriodSequence checks that baseline period labels sit where their
// roles say they should relative to the current period: one month before for
// the prior month, twelve months before for the prior year and the same
// month for the budget. Records without a label are not checked.
func ValidatePeriodSequence(periods noi.PeriodSet) []string {
	if periods.Current == nil || periods.Current.Period == "" {
		return nil
	}

	var warnings []string
	current := periods.Current.Period
	if _, err := datetime.ParsePeriod(current); err != nil {
		return []string{fmt.Sprintf("Current period '%s' is not a recognized month label", current)}
	}

	for _, role := range noi.Baselines {
		rec := periods.Record(role)
		if rec == nil || rec.Period == "" {
			continue
		}
		months, err := datetime.MonthsBetween(current, rec.Period)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s period '%s' is not a recognized month label", role.Label(), rec.Period))
			continue
		}
		if months != expectedOffsets[role] {
			expected, _ := datetime.OffsetPeriod(current, expectedOffsets[role])
			warnings = append(warnings, fmt.Sprintf("%s period '%s' does not match current period '%s' (expected %s)",
				role.Label(), rec.Period, current, expected))
		}
	}

	return warnings
}

// ValidatePeriodSet validates every present record in role order, followed
// by the period sequence.
func ValidatePeriodSet(periods noi.PeriodSet) []string {
	var warnings []string
	for _, role := range noi.Roles {
		if rec := periods.Record(role); rec != nil {
			warnings = append(warnings, ValidateRecord(role, *rec)...)
		}
	}
	return append(warnings, ValidatePeriodSequence(periods)...)
}
