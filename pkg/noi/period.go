package noi

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownRole is returned when a period role name cannot be recognized.
var ErrUnknownRole = errors.New("noi: unknown period role")

// Role identifies which period a record describes.
type Role string

const (
	RoleCurrent    Role = "current"
	RolePriorMonth Role = "prior_month"
	RoleBudget     Role = "budget"
	RolePriorYear  Role = "prior_year"
)

// Baselines lists the comparison roles in report order.
var Baselines = []Role{RolePriorMonth, RoleBudget, RolePriorYear}

// Roles lists every role, current first.
var Roles = []Role{RoleCurrent, RolePriorMonth, RoleBudget, RolePriorYear}

var roleAliases = map[string]Role{
	"current":               RoleCurrent,
	"current_month":         RoleCurrent,
	"current_month_actuals": RoleCurrent,
	"actuals":               RoleCurrent,
	"actual":                RoleCurrent,
	"prior_month":           RolePriorMonth,
	"prior_month_actuals":   RolePriorMonth,
	"previous_month":        RolePriorMonth,
	"budget":                RoleBudget,
	"current_month_budget":  RoleBudget,
	"prior_year":            RolePriorYear,
	"prior_year_actuals":    RolePriorYear,
	"previous_year":         RolePriorYear,
}

// ParseRole normalizes a role name. Matching ignores case and treats spaces,
// dashes and underscores alike, so "Prior Month", "prior-month" and
// "prior_month_actuals" all resolve to RolePriorMonth.
func ParseRole(name string) (Role, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if role, ok := roleAliases[key]; ok {
		return role, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, name)
}

// Label returns a display name for the role.
func (r Role) Label() string {
	switch r {
	case RoleCurrent:
		return "Current"
	case RolePriorMonth:
		return "Prior Month"
	case RoleBudget:
		return "Budget"
	case RolePriorYear:
		return "Prior Year"
	}
	return string(r)
}

// PeriodSet holds the optional record for each role. Only Current is
// required by Compare.
type PeriodSet struct {
	Current    *FinancialRecord `json:"current,omitempty"`
	PriorMonth *FinancialRecord `json:"prior_month,omitempty"`
	Budget     *FinancialRecord `json:"budget,omitempty"`
	PriorYear  *FinancialRecord `json:"prior_year,omitempty"`
}

// Record returns the record for a role, or nil when absent.
func (p PeriodSet) Record(role Role) *FinancialRecord {
	switch role {
	case RoleCurrent:
		return p.Current
	case RolePriorMonth:
		return p.PriorMonth
	case RoleBudget:
		return p.Budget
	case RolePriorYear:
		return p.PriorYear
	}
	return nil
}

// With returns a copy of the set with the record for role replaced. A nil
// record removes the role. Unknown roles leave the set unchanged.
func (p PeriodSet) With(role Role, rec *FinancialRecord) PeriodSet {
	switch role {
	case RoleCurrent:
		p.Current = rec
	case RolePriorMonth:
		p.PriorMonth = rec
	case RoleBudget:
		p.Budget = rec
	case RolePriorYear:
		p.PriorYear = rec
	}
	return p
}

// Baselines returns the baseline roles that have a record, in report order.
func (p PeriodSet) Baselines() []Role {
	var present []Role
	for _, role := range Baselines {
		if p.Record(role) != nil {
			present = append(present, role)
		}
	}
	return present
}
