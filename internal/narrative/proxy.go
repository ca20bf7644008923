// Package narrative produces reason rankings, proxy reasons derived from
// behaviour fields when reason questions are missing, and short sentences
// describing rates, trends and gaps.
package narrative

import (
	"sort"

	"switching-insights-go/internal/types"
)

// DefaultProxyFloor is the minimum subgroup size for a proxy breakdown.
const DefaultProxyFloor = 10

// Kind names the reason question a breakdown answers.
type Kind string

const (
	WhyShop    Kind = "shopping"
	WhySwitch  Kind = "switching"
	WhyNotShop Kind = "not-shopping"
)

const maxProxyTop = 5

// Question is the survey reason question code for each kind.
var Question = map[Kind]string{
	WhyShop:    "Q8",
	WhySwitch:  "Q31",
	WhyNotShop: "Q19",
}

// Title is the display title for each kind.
var Title = map[Kind]string{
	WhyShop:    "Why Customers Shop",
	WhySwitch:  "Why They Switched",
	WhyNotShop: "Why Customers Don't Shop",
}

type Reason struct {
	Label string  `json:"label"`
	Count int     `json:"count"`
	Pct   float64 `json:"pct"`
}

// Segment returns the respondents a reason kind is asked of.
func Segment(rows []types.Respondent, kind Kind) []types.Respondent {
	var keep func(types.Respondent) bool
	switch kind {
	case WhyShop:
		keep = types.Respondent.IsShopper
	case WhySwitch:
		keep = types.Respondent.IsSwitcher
	case WhyNotShop:
		keep = func(r types.Respondent) bool { return r.Shopper == types.NonShopper }
	default:
		return nil
	}
	var out []types.Respondent
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// Proxy derives a substitute reason breakdown for kind from fields every
// extract carries. Shopping and switching use the price-direction split.
// Not shopping uses stated satisfaction, then tenure, then price direction.
// It returns nil when the segment has fewer than floor rows.
func Proxy(rows []types.Respondent, kind Kind, floor int) []Reason {
	seg := Segment(rows, kind)
	if len(seg) < floor || len(seg) == 0 {
		return nil
	}
	if kind != WhyNotShop {
		return priceDirectionReasons(seg)
	}
	if out := topValues(seg, "Satisfaction: ", func(r types.Respondent) string {
		return r.Fields.First("Q47", "Overall satisfaction")
	}); len(out) > 0 {
		return out
	}
	if out := topValues(seg, "Tenure: ", func(r types.Respondent) string {
		if r.TenureBand != "" {
			return r.TenureBand
		}
		return r.Fields.First("Q21")
	}); len(out) > 0 {
		return out
	}
	return priceDirectionReasons(seg)
}

var directionLabels = []struct {
	dir   types.PriceDirection
	label string
}{
	{types.PriceUp, "Premium went up"},
	{types.PriceDown, "Premium went down"},
	{types.PriceUnchanged, "Premium unchanged"},
	{types.PriceNew, "New purchase"},
}

// priceDirectionReasons shares are of rows with a classified direction.
func priceDirectionReasons(rows []types.Respondent) []Reason {
	counts := map[types.PriceDirection]int{}
	total := 0
	for _, r := range rows {
		if r.PriceDirection != "" {
			counts[r.PriceDirection]++
			total++
		}
	}
	if total == 0 {
		return []Reason{}
	}
	out := []Reason{}
	for _, d := range directionLabels {
		if c := counts[d.dir]; c > 0 {
			out = append(out, Reason{Label: d.label, Count: c, Pct: float64(c) / float64(total)})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// topValues ranks the non-blank values of key, shares of all rows.
func topValues(rows []types.Respondent, prefix string, key func(types.Respondent) string) []Reason {
	index := map[string]int{}
	var out []Reason
	for _, r := range rows {
		v := key(r)
		if v == "" {
			continue
		}
		i, ok := index[v]
		if !ok {
			i = len(out)
			index[v] = i
			out = append(out, Reason{Label: prefix + v})
		}
		out[i].Count++
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > maxProxyTop {
		out = out[:maxProxyTop]
	}
	for i := range out {
		out[i].Pct = float64(out[i].Count) / float64(len(rows))
	}
	return out
}
