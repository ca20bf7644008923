package dashboard

import (
	"switching-insights-go/internal/governance"
	"switching-insights-go/internal/measures"
	"switching-insights-go/internal/narrative"
	"switching-insights-go/internal/types"
)

// Headline is the set of rates shown on the market pulse cards.
type Headline struct {
	N            int              `json:"n"`
	Shopping     Value            `json:"shopping_rate"`
	Switching    Value            `json:"switching_rate"`
	ShopAndStay  Value            `json:"shop_and_stay_rate"`
	PCWUsage     Value            `json:"pcw_usage_rate"`
	Retention    Value            `json:"retention_rate"`
	Conversion   Value            `json:"conversion_rate"`
	ShoppingBand *measures.RateCI `json:"shopping_ci,omitempty"`
}

type TrendView struct {
	Label    string                   `json:"label"`
	Trend    *measures.Trend          `json:"trend"`
	Decision governance.TrendDecision `json:"decision"`
	Sentence string                   `json:"sentence,omitempty"`
}

type Pulse struct {
	Product    string                 `json:"product"`
	Insurer    string                 `json:"insurer,omitempty"`
	Banner     governance.Banner      `json:"banner"`
	Comparison *governance.Comparison `json:"comparison,omitempty"`
	Headline   Headline               `json:"headline"`
	Market     *Headline              `json:"market,omitempty"`
	Trends     []TrendView            `json:"trends"`
	Monthly    []measures.MonthRates  `json:"monthly"`
	Narrative  string                 `json:"narrative,omitempty"`
}

func (s *Service) headline(rows []types.Respondent, insurer string) Headline {
	sub := measures.ForInsurer(rows, insurer)
	n := len(sub)
	shoppers := measures.Count(sub, types.Respondent.IsShopper)
	existing := n - measures.Count(sub, types.Respondent.IsNewToMarket)

	h := Headline{
		N:           n,
		Shopping:    s.value(measures.ShoppingRate(sub, ""), n),
		Switching:   s.value(measures.SwitchingRate(sub, ""), n),
		ShopAndStay: s.value(measures.ShopAndStayRate(sub, ""), n),
		PCWUsage:    s.value(measures.PCWUsageRate(sub, ""), shoppers),
		Retention:   s.value(measures.RetentionRate(sub, ""), existing),
		Conversion:  s.value(measures.ConversionRate(sub, ""), shoppers),
	}
	if h.Shopping.Display.Show {
		if ci, ok := measures.RateWithCI(sub, types.Respondent.IsShopper, s.settings.Confidence); ok {
			h.ShoppingBand = &ci
		}
	}
	return h
}

var pulseTrends = []struct {
	label string
	rate  func([]types.Respondent, string) types.Rate
}{
	{"Shopping rate", measures.ShoppingRate},
	{"Switching rate", measures.SwitchingRate},
	{"PCW usage", measures.PCWUsageRate},
}

func (s *Service) trend(rows []types.Respondent, insurer, label string, rate func([]types.Respondent, string) types.Rate) TrendView {
	v := TrendView{Label: label}
	t, ok := measures.TrendChange(rows, insurer, measures.Market(rate))
	if !ok {
		msg := "Not enough periods for trend analysis."
		if len(measures.Periods(rows, insurer)) >= 2 {
			msg = label + " has no eligible respondents in one comparison period."
		}
		v.Decision = governance.TrendDecision{Message: &msg}
		return v
	}
	v.Decision = s.engine.EvaluateTrendDisplay(t.PreviousN, t.RecentN)
	if v.Decision.Show {
		v.Trend = &t
		v.Sentence = narrative.TrendSentence(label, t)
	}
	return v
}

// MarketPulse is the headline screen. With an insurer it adds the market
// benchmark, the comparison check and the narrative against the market.
func (s *Service) MarketPulse(q Query) (*Pulse, error) {
	rows, err := s.scope(q)
	if err != nil {
		return nil, err
	}
	p := &Pulse{
		Product:  q.Product,
		Insurer:  q.Insurer,
		Headline: s.headline(rows, q.Insurer),
		Monthly:  s.governMonthly(measures.RatesByMonth(rows, q.Insurer)),
	}
	p.Banner = governance.BannerFor(p.Headline.N)
	for _, t := range pulseTrends {
		p.Trends = append(p.Trends, s.trend(rows, q.Insurer, t.label, t.rate))
	}

	if q.Insurer != "" {
		market := s.headline(rows, "")
		p.Market = &market
		cmp := s.engine.CheckComparison(p.Headline.N, market.N, q.Filter.ActiveFilters())
		p.Comparison = &cmp
		if cmp.CanShowInsurer && cmp.CanShowMarket {
			if text, ok := measures.GenerateNarrative(q.Insurer, p.Headline.Shopping.Value, market.Shopping.Value); ok {
				p.Narrative = text
			}
		}
	}

	s.log.WithField("product", q.Product).
		WithField("insurer", q.Insurer).
		WithField("n", p.Headline.N).
		Debug("market pulse built")
	return p, nil
}
