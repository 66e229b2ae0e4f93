package noi

// Metric names one of the compared line items.
type Metric string

const (
	MetricGPR     Metric = "gpr"
	MetricEGI     Metric = "egi"
	MetricVacancy Metric = "vacancy_loss"
	MetricOpEx    Metric = "opex"
	MetricNOI     Metric = "noi"
)

// Metrics lists the compared metrics in report order.
var Metrics = []Metric{MetricGPR, MetricEGI, MetricVacancy, MetricOpEx, MetricNOI}

// Label returns a display name for the metric.
func (m Metric) Label() string {
	switch m {
	case MetricGPR:
		return "GPR"
	case MetricEGI:
		return "EGI"
	case MetricVacancy:
		return "Vacancy Loss"
	case MetricOpEx:
		return "OpEx"
	case MetricNOI:
		return "NOI"
	}
	return string(m)
}

// FinancialRecord holds the normalized figures of one period.
type FinancialRecord struct {
	Period      string `json:"period,omitempty"`
	GPR         Amount `json:"gpr"`
	EGI         Amount `json:"egi"`
	VacancyLoss Amount `json:"vacancy_loss"`
	OpEx        Amount `json:"opex"`
	NOI         Amount `json:"noi"`
}

// Value returns the amount recorded for a metric.
func (r FinancialRecord) Value(m Metric) Amount {
	switch m {
	case MetricGPR:
		return r.GPR
	case MetricEGI:
		return r.EGI
	case MetricVacancy:
		return r.VacancyLoss
	case MetricOpEx:
		return r.OpEx
	case MetricNOI:
		return r.NOI
	}
	return Unknown()
}

// HasValues reports whether at least one metric is known.
func (r FinancialRecord) HasValues() bool {
	for _, m := range Metrics {
		if r.Value(m).IsKnown() {
			return true
		}
	}
	return false
}

// NOISource tells where a period's NOI came from.
type NOISource string

const (
	// NOIReported means the record supplied NOI directly.
	NOIReported NOISource = "reported"
	// NOIDerived means NOI was computed as EGI - OpEx.
	NOIDerived NOISource = "derived"
	// NOIUnavailable means NOI was missing and could not be derived.
	NOIUnavailable NOISource = "unavailable"
)

// NormalizeNOI fills a missing NOI with EGI - OpEx when both are known. A
// reported NOI is never replaced.
func NormalizeNOI(r FinancialRecord) (FinancialRecord, NOISource) {
	if r.NOI.IsKnown() {
		return r, NOIReported
	}
	derived := r.EGI.Sub(r.OpEx)
	if !derived.IsKnown() {
		return r, NOIUnavailable
	}
	r.NOI = derived
	return r, NOIDerived
}
