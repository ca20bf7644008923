// Package measures computes survey proportions, monthly series, trends and
// price-change splits over a row subset. Every function is pure; an empty
// denominator yields an invalid types.Rate rather than zero.
package measures

import "switching-insights-go/internal/types"

// Predicate selects respondents.
type Predicate func(types.Respondent) bool

// RateFunc computes a proportion over a row subset.
type RateFunc func([]types.Respondent) types.Rate

// ForInsurer keeps rows whose current insurer equals insurer exactly. An empty
// insurer means the whole market and returns rows unchanged.
func ForInsurer(rows []types.Respondent, insurer string) []types.Respondent {
	if insurer == "" {
		return rows
	}
	return Where(rows, func(r types.Respondent) bool { return r.CurrentInsurer == insurer })
}

// Where returns the rows matching p in input order.
func Where(rows []types.Respondent, p Predicate) []types.Respondent {
	out := make([]types.Respondent, 0, len(rows))
	for _, r := range rows {
		if p(r) {
			out = append(out, r)
		}
	}
	return out
}

// Count returns how many rows match p.
func Count(rows []types.Respondent, p Predicate) int {
	n := 0
	for _, r := range rows {
		if p(r) {
			n++
		}
	}
	return n
}

func existing(r types.Respondent) bool { return !r.IsNewToMarket() }

func shopAndStay(r types.Respondent) bool { return r.IsShopper() && r.IsNonSwitcher() }

func proportion(rows []types.Respondent, p Predicate) types.Rate {
	return types.RateOf(Count(rows, p), len(rows))
}

func TotalRenewals(rows []types.Respondent, insurer string) int {
	return len(ForInsurer(rows, insurer))
}

func ShoppingRate(rows []types.Respondent, insurer string) types.Rate {
	return proportion(ForInsurer(rows, insurer), types.Respondent.IsShopper)
}

func NonShoppingRate(rows []types.Respondent, insurer string) types.Rate {
	return proportion(ForInsurer(rows, insurer), func(r types.Respondent) bool { return r.Shopper == types.NonShopper })
}

func SwitchingRate(rows []types.Respondent, insurer string) types.Rate {
	return proportion(ForInsurer(rows, insurer), types.Respondent.IsSwitcher)
}

// ShopAndStayRate is the share who shopped and did not switch.
func ShopAndStayRate(rows []types.Respondent, insurer string) types.Rate {
	return proportion(ForInsurer(rows, insurer), shopAndStay)
}

// PCWUsageRate is the share of shoppers, not of all rows, who used a price
// comparison website.
func PCWUsageRate(rows []types.Respondent, insurer string) types.Rate {
	shoppers := Where(ForInsurer(rows, insurer), types.Respondent.IsShopper)
	return proportion(shoppers, func(r types.Respondent) bool { return r.PCWUsed })
}

// RetentionRate is one minus the switching rate among respondents who held a
// policy before renewal.
func RetentionRate(rows []types.Respondent, insurer string) types.Rate {
	base := Where(ForInsurer(rows, insurer), existing)
	sw := proportion(base, types.Respondent.IsSwitcher)
	if !sw.Valid {
		return sw
	}
	return types.Known(1 - sw.Value)
}

// ConversionRate is the share of shoppers who switched.
func ConversionRate(rows []types.Respondent, insurer string) types.Rate {
	shoppers := Where(ForInsurer(rows, insurer), types.Respondent.IsShopper)
	return proportion(shoppers, types.Respondent.IsSwitcher)
}

// Market adapts an insurer-parameterised rate to a RateFunc over a subset.
func Market(f func([]types.Respondent, string) types.Rate) RateFunc {
	return func(rows []types.Respondent) types.Rate { return f(rows, "") }
}
