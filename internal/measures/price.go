package measures

import (
	"sort"

	"github.com/montanaflynn/stats"

	"switching-insights-go/internal/types"
)

// Split is the price-direction distribution over non-new-to-market rows.
// Shares may sum to less than one; the remainder had no classifiable direction.
type Split struct {
	Higher    float64 `json:"higher"`
	Unchanged float64 `json:"unchanged"`
	Lower     float64 `json:"lower"`
	N         int     `json:"n"`
}

func PriceDirectionSplit(rows []types.Respondent, insurer string) (Split, bool) {
	base := Where(ForInsurer(rows, insurer), existing)
	if len(base) == 0 {
		return Split{}, false
	}
	var up, down, same int
	for _, r := range base {
		switch r.PriceDirection {
		case types.PriceUp:
			up++
		case types.PriceDown:
			down++
		case types.PriceUnchanged:
			same++
		}
	}
	n := float64(len(base))
	return Split{
		Higher:    float64(up) / n,
		Unchanged: float64(same) / n,
		Lower:     float64(down) / n,
		N:         len(base),
	}, true
}

type Band struct {
	Band      string  `json:"band"`
	Count     int     `json:"count"`
	Pct       float64 `json:"pct"`
	SortOrder int     `json:"sort_order"`
}

const unsortedBand = 999

var bandField = map[types.PriceDirection]string{
	types.PriceUp:   "How much higher",
	types.PriceDown: "How much lower",
}

// PriceChangeBands distributes the "how much" answers for respondents whose
// premium moved in direction, ordered by the band sort order.
func PriceChangeBands(rows []types.Respondent, direction types.PriceDirection, insurer string) []Band {
	field, ok := bandField[direction]
	if !ok {
		return nil
	}
	subset := Where(ForInsurer(rows, insurer), func(r types.Respondent) bool { return r.PriceDirection == direction })
	if len(subset) == 0 {
		return nil
	}
	index := map[string]int{}
	var bands []Band
	for _, r := range subset {
		label := r.Field(field)
		if label == "" {
			continue
		}
		i, seen := index[label]
		if !seen {
			i = len(bands)
			index[label] = i
			bands = append(bands, Band{Band: label, SortOrder: unsortedBand})
		}
		bands[i].Count++
		if r.SortOrder > 0 {
			bands[i].SortOrder = r.SortOrder
		}
	}
	for i := range bands {
		bands[i].Pct = float64(bands[i].Count) / float64(len(subset))
	}
	sort.SliceStable(bands, func(i, j int) bool { return bands[i].SortOrder < bands[j].SortOrder })
	return bands
}

func amounts(rows []types.Respondent, direction types.PriceDirection) []float64 {
	var vals []float64
	for _, r := range rows {
		var v *float64
		switch direction {
		case types.PriceUp:
			v = r.HigherAmount
		case types.PriceDown:
			v = r.LowerAmount
		}
		if v != nil {
			vals = append(vals, *v)
		}
	}
	return vals
}

// AvgPriceChange is the mean amount changed over rows that report one.
func AvgPriceChange(rows []types.Respondent, direction types.PriceDirection, insurer string) (float64, bool) {
	vals := amounts(ForInsurer(rows, insurer), direction)
	if len(vals) == 0 {
		return 0, false
	}
	mean, err := stats.Mean(vals)
	if err != nil {
		return 0, false
	}
	return mean, true
}

func MedianPriceChange(rows []types.Respondent, direction types.PriceDirection, insurer string) (float64, bool) {
	vals := amounts(ForInsurer(rows, insurer), direction)
	if len(vals) == 0 {
		return 0, false
	}
	med, err := stats.Median(vals)
	if err != nil {
		return 0, false
	}
	return med, true
}

type DirectionRate struct {
	Direction types.PriceDirection `json:"direction"`
	Rate      types.Rate           `json:"rate"`
	N         int                  `json:"n"`
}

var directionOrder = []types.PriceDirection{types.PriceUp, types.PriceDown, types.PriceUnchanged, types.PriceNew}

// RateByPriceDirection evaluates rate within each price-direction segment.
func RateByPriceDirection(rows []types.Respondent, rate RateFunc, excludeNew bool) []DirectionRate {
	var out []DirectionRate
	for _, d := range directionOrder {
		if excludeNew && d == types.PriceNew {
			continue
		}
		subset := Where(rows, func(r types.Respondent) bool { return r.PriceDirection == d })
		if len(subset) == 0 {
			continue
		}
		out = append(out, DirectionRate{Direction: d, Rate: rate(subset), N: len(subset)})
	}
	return out
}
