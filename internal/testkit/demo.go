// Package testkit builds deterministic respondent fixtures for tests and demos.
package testkit

import "switching-insights-go/internal/types"

// Brands are the 34 insurer names used by DemoRows.
var Brands = []string{
	"Admiral", "Aviva", "Direct Line", "LV", "Churchill", "Hastings", "AXA", "Esure",
	"Sheilas Wheels", "More Than", "Privilege", "Elephant", "Diamond", "Bell", "Tesco Bank",
	"Sainsburys Bank", "Swiftcover", "Saga", "RAC", "AA", "Zurich", "Ageas", "Allianz",
	"NFU Mutual", "Co-op", "John Lewis", "M&S Bank", "Post Office", "Halifax", "Lloyds",
	"Nationwide", "Quote Me Happy", "1st Central", "Marshmallow",
}

var (
	higherBands   = []string{"Up to £50", "£51 to £100", "More than £100"}
	lowerBands    = []string{"Up to £25", "£26 to £50", "More than £50"}
	satisfaction  = []string{"Very satisfied", "Fairly satisfied", "Neither satisfied nor dissatisfied"}
	tenureAnswers = []string{"1 year", "2 years", "5 years", "More than 10 years"}
)

// DemoRows reproduces the composition of the 161-row demo extract:
// 112 shoppers and 49 non-shoppers; 48 switchers, 112 non-switchers and one
// new-to-market respondent; over the 160 existing customers 79 saw a higher
// premium, 57 lower and 24 unchanged; 102 of 112 shoppers used a PCW; 34
// current insurers, none with 50 or more respondents.
func DemoRows() []types.Respondent {
	rows := make([]types.Respondent, 0, 161)
	for i := 0; i < 161; i++ {
		r := types.Respondent{
			ID:             i + 1,
			Product:        "Motor",
			RenewalPeriod:  202501 + i%6,
			SurveyPeriod:   202502 + i%6,
			CurrentInsurer: Brands[i%len(Brands)],
			Fields:         types.Fields{},
		}
		switch {
		case i == 0:
			r.Shopper, r.Switcher = types.Shopper, types.NewToMarket
		case i <= 48:
			r.Shopper, r.Switcher = types.Shopper, types.Switcher
			r.PriorInsurer = Brands[(i+7)%len(Brands)]
		case i <= 111:
			r.Shopper, r.Switcher = types.Shopper, types.NonSwitcher
			r.PriorInsurer = r.CurrentInsurer
		default:
			r.Shopper, r.Switcher = types.NonShopper, types.NonSwitcher
			r.PriorInsurer = r.CurrentInsurer
			r.Fields["Q47"] = satisfaction[i%len(satisfaction)]
		}
		r.Fields["Q21"] = tenureAnswers[i%len(tenureAnswers)]

		if r.IsShopper() {
			r.PCWUsed = i%11 != 5
			r.Negotiated = i%4 == 0
		}

		if i == 0 {
			r.PriceChangeRaw = "I didn't have a motor insurance policy before my recent renewal/purchase"
			r.PriceDirection = types.PriceNew
		} else {
			k := ((i - 1) * 7) % 160
			switch {
			case k < 79:
				r.PriceChangeRaw, r.PriceDirection = "Higher", types.PriceUp
				amt := float64(20 + (i%5)*10)
				r.HigherAmount = &amt
				r.Fields["How much higher"] = higherBands[i%3]
				r.SortOrder = i%3 + 1
			case k < 136:
				r.PriceChangeRaw, r.PriceDirection = "Lower", types.PriceDown
				amt := float64(10 + (i%4)*5)
				r.LowerAmount = &amt
				r.Fields["How much lower"] = lowerBands[i%3]
				r.SortOrder = i%3 + 1
			default:
				r.PriceChangeRaw, r.PriceDirection = "It was unchanged", types.PriceUnchanged
			}
		}
		rows = append(rows, r)
	}
	return rows
}

// Repeat returns n copies of r with sequential ids starting at firstID.
func Repeat(n, firstID int, r types.Respondent) []types.Respondent {
	out := make([]types.Respondent, n)
	for i := range out {
		out[i] = r
		out[i].ID = firstID + i
	}
	return out
}
