package dataset

import (
	"sort"

	"switching-insights-go/internal/governance"
	"switching-insights-go/internal/types"
)

// Filter narrows rows before any measure runs. Empty fields do not filter.
// Insurer is deliberately absent: measures take it as a parameter so the
// market comparison stays available.
type Filter struct {
	AgeBand          string `json:"age_band,omitempty"`
	Region           string `json:"region,omitempty"`
	PaymentType      string `json:"payment_type,omitempty"`
	TimeWindowMonths int    `json:"time_window_months,omitempty"`
}

// Apply returns the rows passing every set criterion, in input order.
func (f Filter) Apply(rows []types.Respondent) []types.Respondent {
	rows = TimeWindow(rows, f.TimeWindowMonths)
	if f.AgeBand == "" && f.Region == "" && f.PaymentType == "" {
		return rows
	}
	out := make([]types.Respondent, 0, len(rows))
	for _, r := range rows {
		if f.AgeBand != "" && r.AgeBand != f.AgeBand {
			continue
		}
		if f.Region != "" && r.Region != f.Region {
			continue
		}
		if f.PaymentType != "" && r.PaymentType != f.PaymentType {
			continue
		}
		out = append(out, r)
	}
	return out
}

// ActiveFilters lists the demographic filters in effect, for governance
// comparison messages.
func (f Filter) ActiveFilters() []governance.ActiveFilter {
	var out []governance.ActiveFilter
	if f.AgeBand != "" {
		out = append(out, governance.ActiveFilter{Name: "Age", Value: f.AgeBand})
	}
	if f.Region != "" {
		out = append(out, governance.ActiveFilter{Name: "Region", Value: f.Region})
	}
	if f.PaymentType != "" {
		out = append(out, governance.ActiveFilter{Name: "Payment", Value: f.PaymentType})
	}
	return out
}

// TimeWindow keeps rows in the most recent months distinct renewal periods.
// months <= 0 keeps everything.
func TimeWindow(rows []types.Respondent, months int) []types.Respondent {
	if months <= 0 {
		return rows
	}
	seen := map[int]bool{}
	var periods []int
	for _, r := range rows {
		if !seen[r.RenewalPeriod] {
			seen[r.RenewalPeriod] = true
			periods = append(periods, r.RenewalPeriod)
		}
	}
	if len(periods) <= months {
		return rows
	}
	sort.Sort(sort.Reverse(sort.IntSlice(periods)))
	keep := make(map[int]bool, months)
	for _, p := range periods[:months] {
		keep[p] = true
	}
	out := make([]types.Respondent, 0, len(rows))
	for _, r := range rows {
		if keep[r.RenewalPeriod] {
			out = append(out, r)
		}
	}
	return out
}
