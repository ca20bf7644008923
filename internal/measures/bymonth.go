package measures

import (
	"sort"

	"switching-insights-go/internal/types"
)

// MonthRates carries all headline rates for one renewal period. N is the
// period's own base so callers can suppress individual points.
type MonthRates struct {
	Period          int        `json:"period"`
	Display         string     `json:"display"`
	ShoppingRate    types.Rate `json:"shopping_rate"`
	SwitchingRate   types.Rate `json:"switching_rate"`
	ShopAndStayRate types.Rate `json:"shop_and_stay_rate"`
	PCWUsageRate    types.Rate `json:"pcw_usage_rate"`
	N               int        `json:"n"`
	Shoppers        int        `json:"shoppers"`
}

type monthTally struct {
	total, shoppers, switchers, shopStay, pcw int
	up, down, unchanged                       int
}

// groupByPeriod buckets rows by renewal period and returns the buckets with
// their keys in ascending order.
func groupByPeriod(rows []types.Respondent, add func(*monthTally, types.Respondent)) ([]int, map[int]*monthTally) {
	buckets := map[int]*monthTally{}
	for _, r := range rows {
		b, ok := buckets[r.RenewalPeriod]
		if !ok {
			b = &monthTally{}
			buckets[r.RenewalPeriod] = b
		}
		b.total++
		add(b, r)
	}
	keys := make([]int, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys, buckets
}

func RatesByMonth(rows []types.Respondent, insurer string) []MonthRates {
	keys, buckets := groupByPeriod(ForInsurer(rows, insurer), func(b *monthTally, r types.Respondent) {
		if r.IsShopper() {
			b.shoppers++
			if r.PCWUsed {
				b.pcw++
			}
		}
		if r.IsSwitcher() {
			b.switchers++
		}
		if shopAndStay(r) {
			b.shopStay++
		}
	})
	out := make([]MonthRates, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		out = append(out, MonthRates{
			Period:          k,
			Display:         types.PeriodDisplay(k),
			ShoppingRate:    types.RateOf(b.shoppers, b.total),
			SwitchingRate:   types.RateOf(b.switchers, b.total),
			ShopAndStayRate: types.RateOf(b.shopStay, b.total),
			PCWUsageRate:    types.RateOf(b.pcw, b.shoppers),
			N:               b.total,
			Shoppers:        b.shoppers,
		})
	}
	return out
}

type MonthRate struct {
	Period   int        `json:"period"`
	Display  string     `json:"display"`
	Rate     types.Rate `json:"rate"`
	N        int        `json:"n"`
	Shoppers int        `json:"shopper_count"`
}

func ShoppingRateByMonth(rows []types.Respondent, insurer string) []MonthRate {
	keys, buckets := groupByPeriod(ForInsurer(rows, insurer), func(b *monthTally, r types.Respondent) {
		if r.IsShopper() {
			b.shoppers++
		}
	})
	out := make([]MonthRate, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		out = append(out, MonthRate{
			Period:   k,
			Display:  types.PeriodDisplay(k),
			Rate:     types.RateOf(b.shoppers, b.total),
			N:        b.total,
			Shoppers: b.shoppers,
		})
	}
	return out
}

type MonthPriceChange struct {
	Period    int        `json:"period"`
	Display   string     `json:"display"`
	Up        types.Rate `json:"up_pct"`
	Down      types.Rate `json:"down_pct"`
	Unchanged types.Rate `json:"unchanged_pct"`
	N         int        `json:"n"`
}

// PriceChangeByMonth splits price direction per period, new-to-market excluded.
func PriceChangeByMonth(rows []types.Respondent, insurer string) []MonthPriceChange {
	base := Where(ForInsurer(rows, insurer), existing)
	keys, buckets := groupByPeriod(base, func(b *monthTally, r types.Respondent) {
		switch r.PriceDirection {
		case types.PriceUp:
			b.up++
		case types.PriceDown:
			b.down++
		case types.PriceUnchanged:
			b.unchanged++
		}
	})
	out := make([]MonthPriceChange, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		out = append(out, MonthPriceChange{
			Period:    k,
			Display:   types.PeriodDisplay(k),
			Up:        types.RateOf(b.up, b.total),
			Down:      types.RateOf(b.down, b.total),
			Unchanged: types.RateOf(b.unchanged, b.total),
			N:         b.total,
		})
	}
	return out
}
