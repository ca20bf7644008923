package narrative

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"switching-insights-go/internal/flow"
	"switching-insights-go/internal/measures"
	"switching-insights-go/internal/types"
)

var printer = message.NewPrinter(language.BritishEnglish)

// FormatCount renders n with thousands separators, e.g. 12,345.
func FormatCount(n int) string {
	return printer.Sprintf("%d", n)
}

// FormatPct renders a rate as a one-decimal percentage, or "-" when undefined.
func FormatPct(r types.Rate) string {
	if !r.Valid {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", r.Pct())
}

// TrendSentence describes a trend in points, e.g. "Shopping rate up 3.2pts
// vs the previous period (n=1,200/1,350)."
func TrendSentence(label string, t measures.Trend) string {
	pts := math.Round(t.ChangePts*1000) / 10
	counts := fmt.Sprintf("(n=%s/%s)", FormatCount(t.PreviousN), FormatCount(t.RecentN))
	switch {
	case pts > 0:
		return fmt.Sprintf("%s up %.1fpts vs the previous period %s.", label, pts, counts)
	case pts < 0:
		return fmt.Sprintf("%s down %.1fpts vs the previous period %s.", label, -pts, counts)
	default:
		return fmt.Sprintf("%s unchanged vs the previous period %s.", label, counts)
	}
}

// ActionCard is a one-line insight with a suggested response.
type ActionCard struct {
	Insight string `json:"insight"`
	Action  string `json:"action"`
	Impact  string `json:"impact"`
}

// lossAlertShare is the share of lost customers going to one rival that
// warrants a targeted retention card.
const lossAlertShare = 0.35

// Actions turns an insurer's funnel and shopping gap into action cards. The
// largest single loss destination comes first when it takes at least 35% of
// lost customers; otherwise the shopping gap drives the card.
func Actions(f *flow.Funnel, insurerShopping, marketShopping types.Rate) []ActionCard {
	if f == nil {
		return []ActionCard{monitorCard()}
	}
	var cards []ActionCard
	if f.LostTo != nil && len(f.LostTo.Breakdown) > 0 {
		worst := f.LostTo.Breakdown[0]
		if worst.Pct >= lossAlertShare {
			cards = append(cards, ActionCard{
				Insight: fmt.Sprintf("%.0f%% of lost customers went to %s", worst.Pct*100, worst.Brand),
				Action:  fmt.Sprintf("Review renewal pricing against %s for shoppers", worst.Brand),
				Impact:  "Reduce switching to the main rival",
			})
		}
	}
	if insurerShopping.Valid && marketShopping.Valid {
		gap := math.Round((insurerShopping.Value-marketShopping.Value)*1000) / 10
		switch {
		case gap > 0:
			cards = append(cards, ActionCard{
				Insight: fmt.Sprintf("Customers shop %.1fpts more than the market", gap),
				Action:  "Target renewal communications at customers seeing price rises",
				Impact:  "Lower shopping and protect retention",
			})
		case gap < 0:
			cards = append(cards, ActionCard{
				Insight: fmt.Sprintf("Customers shop %.1fpts less than the market", -gap),
				Action:  "Hold renewal pricing steady for loyal non-shoppers",
				Impact:  "Keep retention above market",
			})
		}
	}
	if len(cards) == 0 {
		return []ActionCard{monitorCard()}
	}
	return cards
}

func monitorCard() ActionCard {
	return ActionCard{
		Insight: "No strong switching pattern detected",
		Action:  "Monitor and collect more data",
		Impact:  "Low immediate intervention",
	}
}
