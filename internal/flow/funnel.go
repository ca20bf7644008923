package flow

import (
	"fmt"
	"strings"

	"switching-insights-go/internal/types"
)

// NewToMarketBucket is the won-from entry for respondents with no prior policy.
const NewToMarketBucket = "New to market"

// Box is one funnel stage. Pct is relative to the stage's own parent, not
// to the whole population.
type Box struct {
	Label string     `json:"label"`
	Count int        `json:"count"`
	Pct   types.Rate `json:"pct"`
}

type ShopperBox struct {
	Box
	ShopStay   Box `json:"shop_stay"`
	ShopSwitch Box `json:"shop_switch"`
}

// Breakdown lists the top brands of a subgroup, each as a share of Count.
type Breakdown struct {
	Label     string       `json:"label"`
	Count     int          `json:"count"`
	Breakdown []BrandCount `json:"breakdown"`
}

// CustomerBase splits the post-renewal book into customers kept from before
// renewal and customers won. Only respondents who did not switch count as
// kept, so the two shares never exceed one together.
type CustomerBase struct {
	Retained    types.Rate `json:"retained"`
	NewBusiness types.Rate `json:"new_business"`
}

// Funnel is the pre-renewal → behaviour → outcome box tree. In market mode
// WonFrom holds the "switched to" breakdown and LostTo is nil.
type Funnel struct {
	Insurer      string       `json:"insurer,omitempty"`
	Total        int          `json:"total"`
	InsurerTotal int          `json:"insurer_total,omitempty"`
	PreRenewal   Box          `json:"pre_renewal_share"`
	NewBusiness  Box          `json:"new_business"`
	NonShoppers  Box          `json:"non_shoppers"`
	Shoppers     ShopperBox   `json:"shoppers"`
	Retained     Box          `json:"retained"`
	WonFrom      Breakdown    `json:"won_from"`
	LostTo       *Breakdown   `json:"lost_to,omitempty"`
	AfterRenewal Box          `json:"after_renewal_share"`
	CustomerBase CustomerBase `json:"customer_base"`
}

// behaviour splits a pre-renewal base into non-shoppers, shop & stay and
// shop & switch. The three counts always sum to len(base). kept counts the
// base rows that did not switch; a non-shopper who switched is still a
// non-shopper but is not kept.
type behaviour struct {
	nonShoppers, shopStay, shopSwitch int
	kept                              int
	switched                          []types.Respondent
}

func splitBehaviour(base []types.Respondent) behaviour {
	var b behaviour
	for _, r := range base {
		if r.IsNonSwitcher() {
			b.kept++
		}
		switch {
		case !r.IsShopper():
			b.nonShoppers++
		case r.IsNonSwitcher():
			b.shopStay++
		default:
			b.shopSwitch++
			b.switched = append(b.switched, r)
		}
	}
	return b
}

func (b behaviour) boxes(base int) (Box, ShopperBox) {
	shoppers := b.shopStay + b.shopSwitch
	non := Box{Label: "Non-shoppers", Count: b.nonShoppers, Pct: types.RateOf(b.nonShoppers, base)}
	shop := ShopperBox{
		Box:        Box{Label: "Shoppers", Count: shoppers, Pct: types.RateOf(shoppers, base)},
		ShopStay:   Box{Label: "Shopped & stayed", Count: b.shopStay, Pct: types.RateOf(b.shopStay, shoppers)},
		ShopSwitch: Box{Label: "Shopped & switched", Count: b.shopSwitch, Pct: types.RateOf(b.shopSwitch, shoppers)},
	}
	return non, shop
}

// BuildFunnel segments rows into the funnel. With an empty insurer the whole
// market is segmented; otherwise rows are those whose prior or current
// insurer is the target and percentages are insurer-relative. It returns nil
// when there are no relevant rows. topN must be non-negative.
func BuildFunnel(rows []types.Respondent, insurer string, topN int) *Funnel {
	if insurer == "" {
		return marketFunnel(rows, topN)
	}
	return insurerFunnel(rows, insurer, topN)
}

func marketFunnel(rows []types.Respondent, topN int) *Funnel {
	total := len(rows)
	if total == 0 {
		return nil
	}
	var existing []types.Respondent
	for _, r := range rows {
		if !r.IsNewToMarket() {
			existing = append(existing, r)
		}
	}
	ntm := total - len(existing)
	b := splitBehaviour(existing)
	non, shop := b.boxes(len(existing))
	retained := b.nonShoppers + b.shopStay

	switchedTo := newTally()
	for _, r := range b.switched {
		switchedTo.add(r.CurrentInsurer)
	}

	return &Funnel{
		Total:       total,
		PreRenewal:  Box{Label: "Existing customers", Count: len(existing), Pct: types.RateOf(len(existing), total)},
		NewBusiness: Box{Label: "New to market", Count: ntm, Pct: types.RateOf(ntm, total)},
		NonShoppers: non,
		Shoppers:    shop,
		Retained:    Box{Label: "Retained", Count: retained, Pct: types.RateOf(retained, total)},
		WonFrom: Breakdown{
			Label:     "Switched to",
			Count:     b.shopSwitch,
			Breakdown: switchedTo.top(topN, b.shopSwitch),
		},
		AfterRenewal: Box{Label: "After renewal", Count: total, Pct: types.RateOf(total, total)},
		CustomerBase: CustomerBase{
			Retained:    types.RateOf(b.kept, total),
			NewBusiness: types.RateOf(total-b.kept, total),
		},
	}
}

func insurerFunnel(rows []types.Respondent, insurer string, topN int) *Funnel {
	var base []types.Respondent
	var relevant, after, newBiz int
	won, lost := newTally(), newTally()
	var wonSwitchers, lostCount, kept int

	for _, r := range rows {
		isPrior := r.PriorInsurer == insurer
		isCurrent := r.CurrentInsurer == insurer
		if !isPrior && !isCurrent {
			continue
		}
		relevant++
		if isCurrent {
			after++
		}
		if isPrior {
			base = append(base, r)
			if isCurrent && r.IsNonSwitcher() {
				kept++
			}
			if r.IsSwitcher() && !isCurrent {
				lostCount++
				lost.add(r.CurrentInsurer)
			}
			continue
		}
		switch {
		case r.IsNewToMarket():
			newBiz++
		case r.IsSwitcher():
			wonSwitchers++
			won.add(r.PriorInsurer)
		}
	}
	if relevant == 0 {
		return nil
	}

	total := len(rows)
	b := splitBehaviour(base)
	non, shop := b.boxes(len(base))
	retained := b.nonShoppers + b.shopStay
	wonTotal := wonSwitchers + newBiz

	wonFrom := won.top(topN, wonTotal)
	if newBiz > 0 {
		wonFrom = append(wonFrom, BrandCount{Brand: NewToMarketBucket, Count: newBiz, Pct: types.RateOf(newBiz, wonTotal).Value})
	}

	return &Funnel{
		Insurer:      insurer,
		Total:        total,
		InsurerTotal: relevant,
		PreRenewal:   Box{Label: insurer + " before renewal", Count: len(base), Pct: types.RateOf(len(base), total)},
		NewBusiness:  Box{Label: "New business", Count: newBiz, Pct: types.RateOf(newBiz, len(base)+newBiz)},
		NonShoppers:  non,
		Shoppers:     shop,
		Retained:     Box{Label: "Retained", Count: retained, Pct: types.RateOf(retained, len(base))},
		WonFrom:      Breakdown{Label: "Won from", Count: wonTotal, Breakdown: wonFrom},
		LostTo:       &Breakdown{Label: "Lost to", Count: lostCount, Breakdown: lost.top(topN, lostCount)},
		AfterRenewal: Box{Label: insurer + " after renewal", Count: after, Pct: types.RateOf(after, total)},
		CustomerBase: CustomerBase{
			Retained:    types.RateOf(kept, after),
			NewBusiness: types.RateOf(wonTotal, after),
		},
	}
}

// Reconcile checks the funnel's partition invariants and returns an error
// listing every violation.
func (f *Funnel) Reconcile() error {
	if f == nil {
		return nil
	}
	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	parts := f.NonShoppers.Count + f.Shoppers.ShopStay.Count + f.Shoppers.ShopSwitch.Count
	check(parts == f.PreRenewal.Count, "non-shoppers + shop&stay + shop&switch = %d, pre-renewal base = %d", parts, f.PreRenewal.Count)
	check(f.Shoppers.ShopStay.Count+f.Shoppers.ShopSwitch.Count == f.Shoppers.Count,
		"shop&stay + shop&switch = %d, shoppers = %d", f.Shoppers.ShopStay.Count+f.Shoppers.ShopSwitch.Count, f.Shoppers.Count)
	check(f.Retained.Count == f.NonShoppers.Count+f.Shoppers.ShopStay.Count,
		"retained = %d, non-shoppers + shop&stay = %d", f.Retained.Count, f.NonShoppers.Count+f.Shoppers.ShopStay.Count)
	if f.Insurer == "" {
		check(f.PreRenewal.Count+f.NewBusiness.Count == f.Total,
			"existing + new to market = %d, total = %d", f.PreRenewal.Count+f.NewBusiness.Count, f.Total)
	} else {
		check(f.InsurerTotal <= f.Total, "insurer rows %d exceed total %d", f.InsurerTotal, f.Total)
	}

	breakdowns := []Breakdown{f.WonFrom}
	if f.LostTo != nil {
		breakdowns = append(breakdowns, *f.LostTo)
	}
	for _, bd := range breakdowns {
		sum := 0
		for _, b := range bd.Breakdown {
			check(b.Count >= 0, "%s: negative count for %s", bd.Label, b.Brand)
			sum += b.Count
		}
		check(sum <= bd.Count, "%s: brand counts %d exceed subgroup %d", bd.Label, sum, bd.Count)
	}

	if len(problems) > 0 {
		return fmt.Errorf("funnel conservation: %s", strings.Join(problems, "; "))
	}
	return nil
}
