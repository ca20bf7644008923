package measures

import (
	"sort"

	"switching-insights-go/internal/types"
)

type Trend struct {
	PreviousValue float64 `json:"previous_value"`
	RecentValue   float64 `json:"recent_value"`
	ChangePts     float64 `json:"change_pts"`
	PreviousN     int     `json:"previous_n"`
	RecentN       int     `json:"recent_n"`
}

// Periods lists the distinct renewal periods present, ascending. Rows without
// a period are ignored.
func Periods(rows []types.Respondent, insurer string) []int {
	seen := map[int]struct{}{}
	periods := []int{}
	for _, r := range ForInsurer(rows, insurer) {
		if r.RenewalPeriod <= 0 {
			continue
		}
		if _, ok := seen[r.RenewalPeriod]; !ok {
			seen[r.RenewalPeriod] = struct{}{}
			periods = append(periods, r.RenewalPeriod)
		}
	}
	sort.Ints(periods)
	return periods
}

// TrendChange compares rate over the earlier and later halves of the distinct
// renewal periods present. The split is at floor(len/2) of the sorted
// distinct periods, not a calendar window, so sparse months are handled. Rows
// without a period are ignored. ok is false with fewer than two periods or
// when rate is undefined in either half.
func TrendChange(rows []types.Respondent, insurer string, rate RateFunc) (Trend, bool) {
	filtered := Where(ForInsurer(rows, insurer), func(r types.Respondent) bool { return r.RenewalPeriod > 0 })
	periods := Periods(filtered, "")
	if len(periods) < 2 {
		return Trend{}, false
	}
	cut := periods[len(periods)/2]

	var previous, recent []types.Respondent
	for _, r := range filtered {
		if r.RenewalPeriod < cut {
			previous = append(previous, r)
		} else {
			recent = append(recent, r)
		}
	}
	prev, rec := rate(previous), rate(recent)
	if !prev.Valid || !rec.Valid {
		return Trend{}, false
	}
	return Trend{
		PreviousValue: prev.Value,
		RecentValue:   rec.Value,
		ChangePts:     rec.Value - prev.Value,
		PreviousN:     len(previous),
		RecentN:       len(recent),
	}, true
}
