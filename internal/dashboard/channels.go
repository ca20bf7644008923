package dashboard

import (
	"switching-insights-go/internal/governance"
	"switching-insights-go/internal/measures"
	"switching-insights-go/internal/types"
)

// PCWView is one comparison site. Share, NPS and purchase rate are withheld
// when the site's users are suppressed.
type PCWView struct {
	Site     string              `json:"site"`
	Users    int                 `json:"users"`
	Display  governance.Decision `json:"display"`
	Share    types.Rate          `json:"share"`
	NPS      *float64            `json:"nps"`
	Purchase Value               `json:"purchase_rate"`
}

type Channels struct {
	Product        string              `json:"product"`
	Insurer        string              `json:"insurer,omitempty"`
	Banner         governance.Banner   `json:"banner"`
	UsageDisplay   governance.Decision `json:"channel_usage_display"`
	Usage          *measures.Shares    `json:"channel_usage"`
	MarketUsage    *measures.Shares    `json:"market_channel_usage,omitempty"`
	FirstUsed      *measures.Shares    `json:"first_channel"`
	PCWs           []PCWView           `json:"pcws"`
	Mismatch       Value               `json:"quote_buy_mismatch"`
	MarketMismatch *Value              `json:"market_quote_buy_mismatch,omitempty"`
	QuoteReach     *Value              `json:"quote_reach,omitempty"`
}

// governShares returns sh when it is defined and its base may be shown.
func (s *Service) governShares(sh measures.Shares, ok bool) (*measures.Shares, governance.Decision) {
	d := s.engine.EvaluateDisplay(sh.Base)
	if !ok || !d.Show {
		return nil, d
	}
	return &sh, d
}

func (s *Service) pcwViews(sub []types.Respondent, sites measures.Shares) []PCWView {
	views := make([]PCWView, 0, len(sites.Shares))
	for _, site := range sites.Shares {
		users := measures.PCWUsers(sub, site.Option)
		v := PCWView{
			Site:     site.Option,
			Users:    len(users),
			Display:  s.engine.EvaluateDisplay(len(users)),
			Purchase: s.value(measures.PCWPurchaseRate(sub, site.Option), len(users)),
		}
		if v.Display.Show {
			v.Share = types.RateOf(site.Count, sites.Base)
			if nps, _, ok := measures.PCWNPS(sub, site.Option); ok {
				v.NPS = &nps
			}
		}
		views = append(views, v)
	}
	return views
}

// Channels is the channel and PCW screen: channel usage among shoppers, the
// first channel used, per-site usage, NPS and purchase rate, and the
// quote-to-buy mismatch. With an insurer it adds the market benchmarks and
// the share of market shoppers the insurer quoted.
func (s *Service) Channels(q Query) (*Channels, error) {
	rows, err := s.scope(q)
	if err != nil {
		return nil, err
	}
	sub := measures.ForInsurer(rows, q.Insurer)
	c := &Channels{
		Product: q.Product,
		Insurer: q.Insurer,
		Banner:  governance.BannerFor(len(sub)),
	}
	c.Usage, c.UsageDisplay = s.governShares(measures.ChannelUsage(rows, q.Insurer))
	c.FirstUsed, _ = s.governShares(measures.FirstChannelUsed(rows, q.Insurer))

	if sites, ok := measures.PCWUsage(rows, q.Insurer); ok && s.shown(sites.Base) {
		c.PCWs = s.pcwViews(sub, sites)
	}

	mismatch, answered := measures.QuoteBuyMismatch(rows, q.Insurer)
	c.Mismatch = s.value(mismatch, answered)

	if q.Insurer != "" {
		c.MarketUsage, _ = s.governShares(measures.ChannelUsage(rows, ""))
		market, marketAnswered := measures.QuoteBuyMismatch(rows, "")
		mv := s.value(market, marketAnswered)
		c.MarketMismatch = &mv
		reached, shoppers := measures.QuoteReach(rows, q.Insurer)
		rv := s.value(types.RateOf(reached, shoppers), shoppers)
		c.QuoteReach = &rv
	}
	return c, nil
}
