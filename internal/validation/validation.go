// Package validation checks a loaded extract for integrity and reconciles its
// headline counts against a known reference.
package validation

import (
	"fmt"
	"math"

	"switching-insights-go/internal/measures"
	"switching-insights-go/internal/types"
)

// fractionTolerance is the allowed absolute gap for non-integer expectations.
const fractionTolerance = 0.01

type Check struct {
	Name     string  `json:"check"`
	Expected float64 `json:"expected"`
	Actual   float64 `json:"actual"`
	Pass     bool    `json:"pass"`
	Detail   string  `json:"detail,omitempty"`
}

type Report struct {
	Checks []Check `json:"checks"`
	Passed int     `json:"passed"`
	Failed int     `json:"failed"`
}

func (r *Report) add(c Check) {
	r.Checks = append(r.Checks, c)
	if c.Pass {
		r.Passed++
	} else {
		r.Failed++
	}
}

// OK reports whether every check passed.
func (r Report) OK() bool { return r.Failed == 0 && r.Passed > 0 }

// Failures returns the failing checks in run order.
func (r Report) Failures() []Check {
	var out []Check
	for _, c := range r.Checks {
		if !c.Pass {
			out = append(out, c)
		}
	}
	return out
}

// violations records a check whose expected violation count is zero.
func (r *Report) violations(name string, n int, detail string) {
	c := Check{Name: name, Expected: 0, Actual: float64(n), Pass: n == 0}
	if n > 0 {
		c.Detail = detail
	}
	r.add(c)
}

// Run performs the integrity checks. An empty extract yields a single failing
// "Data loaded" check.
func Run(rows []types.Respondent) Report {
	var rep Report
	if len(rows) == 0 {
		rep.add(Check{Name: "Data loaded", Expected: 1, Actual: 0, Detail: "no rows"})
		return rep
	}
	rep.add(Check{Name: "Data loaded", Expected: 1, Actual: 1, Pass: true})

	seen := make(map[int]bool, len(rows))
	var dupes, badCell, ntmPrior, badPeriod int
	var firstDupe, firstBadPeriod int
	for _, r := range rows {
		if seen[r.ID] {
			if dupes == 0 {
				firstDupe = r.ID
			}
			dupes++
		}
		seen[r.ID] = true

		if !validShopper(r.Shopper) || !validSwitcher(r.Switcher) {
			badCell++
		}
		if r.IsNewToMarket() && r.PriorInsurer != "" {
			ntmPrior++
		}
		if !ValidPeriod(r.RenewalPeriod) {
			if badPeriod == 0 {
				firstBadPeriod = r.RenewalPeriod
			}
			badPeriod++
		}
	}

	rep.violations("Unique respondent ids", dupes, fmt.Sprintf("first duplicate id %d", firstDupe))
	rep.violations("Shopper/switcher classification", badCell, "rows outside the shopper x switcher grid")
	rep.violations("New-to-market without prior insurer", ntmPrior, "new-to-market rows carry a prior insurer")
	rep.violations("Valid renewal periods", badPeriod, fmt.Sprintf("first invalid period %d", firstBadPeriod))
	return rep
}

func validShopper(f types.ShopperFlag) bool {
	return f == types.Shopper || f == types.NonShopper
}

func validSwitcher(f types.SwitcherFlag) bool {
	switch f {
	case types.Switcher, types.NonSwitcher, types.NewToMarket:
		return true
	}
	return false
}

// ValidPeriod reports whether p is a YYYYMM value.
func ValidPeriod(p int) bool {
	year, month := p/100, p%100
	return year >= 1900 && year <= 2999 && month >= 1 && month <= 12
}

// Expectations are reference values for Reconcile. Integer fields compare
// exactly; share fields within 0.01.
type Expectations struct {
	TotalRows      int
	UniqueInsurers int
	Shoppers       int
	NonShoppers    int
	Switchers      int
	NonSwitchers   int
	NewToMarket    int
	PriceBase      int
	PriceUp        int
	PriceDown      int
	PriceUnchanged int

	PriceUpShare        float64
	PriceDownShare      float64
	PriceUnchangedShare float64
	ShoppingRate        float64
	NonShoppingRate     float64
	PCWUsage            float64

	// InsurersAtThreshold counts insurers with at least Publishable rows.
	Publishable         int
	InsurersAtThreshold int
}

// DemoExpectations are the reference counts of the 161-row demo extract.
func DemoExpectations() Expectations {
	return Expectations{
		TotalRows:      161,
		UniqueInsurers: 34,
		Shoppers:       112,
		NonShoppers:    49,
		Switchers:      48,
		NonSwitchers:   112,
		NewToMarket:    1,
		PriceBase:      160,
		PriceUp:        79,
		PriceDown:      57,
		PriceUnchanged: 24,

		PriceUpShare:        0.494,
		PriceDownShare:      0.356,
		PriceUnchangedShare: 0.15,
		ShoppingRate:        0.696,
		NonShoppingRate:     0.304,
		PCWUsage:            0.911,

		Publishable:         50,
		InsurersAtThreshold: 0,
	}
}

func exact(name string, expected, actual int) Check {
	return Check{Name: name, Expected: float64(expected), Actual: float64(actual), Pass: expected == actual}
}

func approx(name string, expected float64, actual types.Rate) Check {
	c := Check{Name: name, Expected: expected}
	if !actual.Valid {
		c.Detail = "undefined rate"
		return c
	}
	c.Actual = actual.Value
	c.Pass = math.Abs(actual.Value-expected) < fractionTolerance
	return c
}

// Reconcile compares rows against e.
func Reconcile(rows []types.Respondent, e Expectations) Report {
	var rep Report

	insurerCounts := map[string]int{}
	for _, r := range rows {
		if r.CurrentInsurer != "" {
			insurerCounts[r.CurrentInsurer]++
		}
	}
	atThreshold := 0
	for _, n := range insurerCounts {
		if n >= e.Publishable {
			atThreshold++
		}
	}

	shoppers := measures.Count(rows, types.Respondent.IsShopper)
	nonShoppers := measures.Count(rows, func(r types.Respondent) bool { return r.Shopper == types.NonShopper })
	priceBase := measures.Where(rows, func(r types.Respondent) bool { return r.PriceDirection != types.PriceNew })
	direction := func(d types.PriceDirection) measures.Predicate {
		return func(r types.Respondent) bool { return r.PriceDirection == d }
	}
	up := measures.Count(priceBase, direction(types.PriceUp))
	down := measures.Count(priceBase, direction(types.PriceDown))
	unchanged := measures.Count(priceBase, direction(types.PriceUnchanged))

	rep.add(exact("Total renewals", e.TotalRows, len(rows)))
	rep.add(exact("Unique insurers", e.UniqueInsurers, len(insurerCounts)))
	rep.add(exact("Shoppers count", e.Shoppers, shoppers))
	rep.add(exact("Non-shoppers count", e.NonShoppers, nonShoppers))
	rep.add(exact("Switcher count", e.Switchers, measures.Count(rows, types.Respondent.IsSwitcher)))
	rep.add(exact("Non-switcher count", e.NonSwitchers, measures.Count(rows, types.Respondent.IsNonSwitcher)))
	rep.add(exact("New-to-market count", e.NewToMarket, measures.Count(rows, types.Respondent.IsNewToMarket)))
	rep.add(exact("Price analysis base (excl new-to-market)", e.PriceBase, len(priceBase)))
	rep.add(exact("Price Up count", e.PriceUp, up))
	rep.add(approx("Price Up %", e.PriceUpShare, types.RateOf(up, len(priceBase))))
	rep.add(exact("Price Down count", e.PriceDown, down))
	rep.add(approx("Price Down %", e.PriceDownShare, types.RateOf(down, len(priceBase))))
	rep.add(exact("Unchanged count", e.PriceUnchanged, unchanged))
	rep.add(approx("Unchanged %", e.PriceUnchangedShare, types.RateOf(unchanged, len(priceBase))))
	rep.add(approx("Shopping rate", e.ShoppingRate, measures.ShoppingRate(rows, "")))
	rep.add(approx("Non-shopping rate", e.NonShoppingRate, measures.NonShoppingRate(rows, "")))
	rep.add(approx("PCW usage (of shoppers)", e.PCWUsage, measures.PCWUsageRate(rows, "")))
	rep.add(exact(fmt.Sprintf("Insurers with n >= %d", e.Publishable), e.InsurersAtThreshold, atThreshold))
	return rep
}
