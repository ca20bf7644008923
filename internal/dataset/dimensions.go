package dataset

import (
	"sort"
	"strings"

	"switching-insights-go/internal/types"
)

var (
	ageBandOrder = []string{"17-24", "18-24", "25-34", "35-44", "45-54", "55-64", "65+"}
	regionOrder  = []string{
		"uk", "england", "london", "south east", "south west", "midlands", "east anglia",
		"north west", "north east & yorkshire", "scotland", "wales", "ni",
	}
	paymentOrder = []string{"All", "Annual", "Monthly", "Other"}
)

// unordered sorts after every listed value.
const unordered = 999

// Option is one dropdown entry. The leading "All" option has an empty Value.
type Option struct {
	Value     string `json:"value"`
	Label     string `json:"label"`
	SortOrder int    `json:"sort_order"`
}

type Dimensions struct {
	AgeBands     []Option `json:"age_bands"`
	Regions      []Option `json:"regions"`
	PaymentTypes []Option `json:"payment_types"`
	Insurers     []Option `json:"insurers"`
}

// BuildDimensions lists the filter options present in rows.
func BuildDimensions(rows []types.Respondent) Dimensions {
	return Dimensions{
		AgeBands:     buildDim(rows, func(r types.Respondent) string { return r.AgeBand }, ageBandOrder, "All Ages"),
		Regions:      buildDim(rows, func(r types.Respondent) string { return r.Region }, regionOrder, "All Regions"),
		PaymentTypes: buildDim(rows, func(r types.Respondent) string { return r.PaymentType }, paymentOrder, "All Payment Types"),
		Insurers:     insurers(rows),
	}
}

func distinct(rows []types.Respondent, key func(types.Respondent) string) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range rows {
		v := strings.TrimSpace(key(r))
		if v == "" || strings.EqualFold(v, "nan") || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func buildDim(rows []types.Respondent, key func(types.Respondent) string, order []string, allLabel string) []Option {
	values := distinct(rows, key)
	sort.SliceStable(values, func(i, j int) bool {
		ki, kj := orderKey(values[i], order), orderKey(values[j], order)
		if ki != kj {
			return ki < kj
		}
		return values[i] < values[j]
	})
	out := []Option{{Label: allLabel}}
	for i, v := range values {
		out = append(out, Option{Value: v, Label: v, SortOrder: i + 1})
	}
	return out
}

// orderKey is the position of the first order entry that contains, or is
// contained in, v (case-insensitive).
func orderKey(v string, order []string) int {
	lv := strings.ToLower(v)
	for i, o := range order {
		lo := strings.ToLower(o)
		if strings.Contains(lv, lo) || strings.Contains(lo, lv) {
			return i
		}
	}
	return unordered
}

func insurers(rows []types.Respondent) []Option {
	names := distinct(rows, func(r types.Respondent) string { return r.CurrentInsurer })
	sort.Strings(names)
	out := make([]Option, len(names))
	for i, n := range names {
		out[i] = Option{Value: n, Label: n, SortOrder: i}
	}
	return out
}
