// Package flow segments respondents into renewal journeys: the funnel box
// tree, the four-tier Sankey graph and the insurer-to-insurer switching
// matrix. Builders are pure; brand tallies use stable ordering so equal
// counts keep their first-seen order.
package flow

import (
	"fmt"
	"sort"

	"switching-insights-go/internal/types"
)

// Other is the bucket for brands outside the top N.
const Other = "Other"

// BrandCount is a brand with the number of respondents attributed to it.
type BrandCount struct {
	Brand string  `json:"brand"`
	Count int     `json:"count"`
	Pct   float64 `json:"pct"`
}

// tally counts brands in first-seen order.
type tally struct {
	order  []string
	counts map[string]int
}

func newTally() *tally {
	return &tally{counts: map[string]int{}}
}

func (t *tally) add(brand string) {
	if brand == "" {
		return
	}
	if _, ok := t.counts[brand]; !ok {
		t.order = append(t.order, brand)
	}
	t.counts[brand]++
}

func (t *tally) total() int {
	n := 0
	for _, c := range t.counts {
		n += c
	}
	return n
}

// ranked returns every brand by count descending; ties keep insertion order.
func (t *tally) ranked() []BrandCount {
	out := make([]BrandCount, 0, len(t.order))
	for _, b := range t.order {
		out = append(out, BrandCount{Brand: b, Count: t.counts[b]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// top returns at most n ranked brands with Pct relative to denominator.
func (t *tally) top(n, denominator int) []BrandCount {
	if n < 0 {
		panic(fmt.Sprintf("flow: negative top-N %d", n))
	}
	out := t.ranked()
	if len(out) > n {
		out = out[:n]
	}
	for i := range out {
		out[i].Pct = types.RateOf(out[i].Count, denominator).Value
	}
	return out
}

// TopBrands returns the n brands with most respondents under key, ties in
// first-occurrence order. Blank brands are not counted.
func TopBrands(rows []types.Respondent, key func(types.Respondent) string, n int) []string {
	t := newTally()
	for _, r := range rows {
		t.add(key(r))
	}
	top := t.top(n, 0)
	names := make([]string, len(top))
	for i, b := range top {
		names[i] = b.Brand
	}
	return names
}

// GroupBrand maps brand to itself when it is in top, otherwise to Other. A
// blank brand is Other.
func GroupBrand(brand string, top []string) string {
	if brand == "" {
		return Other
	}
	for _, b := range top {
		if b == brand {
			return brand
		}
	}
	return Other
}

func prior(r types.Respondent) string   { return r.PriorInsurer }
func current(r types.Respondent) string { return r.CurrentInsurer }
