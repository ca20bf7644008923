package testkit

import "switching-insights-go/internal/types"

// ChannelRows is a 12-row extract with channel and PCW answers: ten shoppers
// (six with Aviva, four with Admiral) and two non-shoppers.
//
//	Q9b_1 8 of 10 shoppers, Q9b_2 5, Q9b_3 0
//	PCW users 8; Q11_Compare 6 (NPS +16.7, 3 bought), Q11_Confused 4 (NPS 0, 1 bought)
//	Q13a PCW 5, Insurer website 3, Broker 1, unanswered 1
//	Q13b mentions Aviva for 4 shoppers
//	Q37 answered 6, mismatched 2
func ChannelRows() []types.Respondent {
	scores := []string{"10", "9", "8", "3", "10", "6", "7", ""}
	rows := make([]types.Respondent, 0, 12)
	for i := 0; i < 12; i++ {
		r := types.Respondent{
			ID:             i + 1,
			RenewalPeriod:  202501,
			Shopper:        types.Shopper,
			Switcher:       types.NonSwitcher,
			PriorInsurer:   "Admiral",
			CurrentInsurer: "Admiral",
			Fields:         types.Fields{},
		}
		if i < 6 {
			r.PriorInsurer, r.CurrentInsurer = "Aviva", "Aviva"
		}
		if i >= 10 {
			r.Shopper = types.NonShopper
			r.Fields["Q9b_1"] = "1"
			r.Fields["Q13b"] = "Aviva"
			rows = append(rows, r)
			continue
		}

		if i < 8 {
			r.Fields["Q9b_1"] = "1"
			r.PCWUsed = true
			r.Fields["Q11d"] = scores[i]
		}
		if i%2 == 0 {
			r.Fields["Q9b_2"] = "1"
		}
		if i == 0 {
			r.Fields["Q9b_3"] = "0"
		}
		if i < 6 {
			r.Fields["Q11_Compare"] = "1"
		}
		if i >= 4 && i < 8 {
			r.Fields["Q11_Confused"] = "1"
		}
		switch i {
		case 0, 1, 4:
			r.Fields["Q36"] = "1"
		default:
			r.Fields["Q36"] = "2"
		}
		switch {
		case i < 5:
			r.Fields["Q13a"] = "PCW"
		case i < 8:
			r.Fields["Q13a"] = "Insurer website"
		case i == 8:
			r.Fields["Q13a"] = "Broker"
		}
		if i%3 == 0 {
			r.Fields["Q13b"] = "Aviva, Direct Line"
		} else {
			r.Fields["Q13b"] = "admiral"
		}
		switch {
		case i < 4:
			r.Fields["Q37"] = "1"
		case i < 6:
			r.Fields["Q37"] = "2"
		}
		rows = append(rows, r)
	}
	return rows
}
