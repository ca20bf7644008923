package dashboard

import (
	"switching-insights-go/internal/governance"
	"switching-insights-go/internal/measures"
	"switching-insights-go/internal/types"
)

type DirectionValue struct {
	Direction types.PriceDirection `json:"direction"`
	Value
}

// Amount is the average and median premium change in pounds for one direction.
type Amount struct {
	Direction types.PriceDirection `json:"direction"`
	Average   *float64             `json:"average"`
	Median    *float64             `json:"median"`
}

type Landscape struct {
	Product              string                      `json:"product"`
	Insurer              string                      `json:"insurer,omitempty"`
	Banner               governance.Banner           `json:"banner"`
	Split                *measures.Split             `json:"split"`
	SplitDisplay         governance.Decision         `json:"split_display"`
	HigherBands          []measures.Band             `json:"higher_bands"`
	LowerBands           []measures.Band             `json:"lower_bands"`
	Amounts              []Amount                    `json:"amounts"`
	Monthly              []measures.MonthPriceChange `json:"monthly"`
	ShoppingByMonth      []measures.MonthRate        `json:"shopping_by_month"`
	ShoppingByDirection  []DirectionValue            `json:"shopping_by_direction"`
	SwitchingByDirection []DirectionValue            `json:"switching_by_direction"`
	Retention            []measures.InsurerRetention `json:"smoothed_retention,omitempty"`
}

func (s *Service) byDirection(rows []types.Respondent, rate func([]types.Respondent, string) types.Rate) []DirectionValue {
	var out []DirectionValue
	for _, d := range measures.RateByPriceDirection(rows, measures.Market(rate), true) {
		out = append(out, DirectionValue{Direction: d.Direction, Value: s.value(d.Rate, d.N)})
	}
	return out
}

func amount(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}

// Landscape is the price and shopping screen. The market view also lists
// smoothed retention per insurer; raw rates of suppressed insurers are
// blanked. When the price base is suppressed the split, the bands and the
// amounts are all withheld, and monthly points are blanked period by period.
func (s *Service) Landscape(q Query) (*Landscape, error) {
	rows, err := s.scope(q)
	if err != nil {
		return nil, err
	}
	sub := measures.ForInsurer(rows, q.Insurer)
	l := &Landscape{
		Product:              q.Product,
		Insurer:              q.Insurer,
		Banner:               governance.BannerFor(len(sub)),
		Monthly:              s.governPriceByMonth(measures.PriceChangeByMonth(rows, q.Insurer)),
		ShoppingByMonth:      s.governMonthRate(measures.ShoppingRateByMonth(rows, q.Insurer)),
		ShoppingByDirection:  s.byDirection(sub, measures.ShoppingRate),
		SwitchingByDirection: s.byDirection(sub, measures.SwitchingRate),
	}

	split, ok := measures.PriceDirectionSplit(rows, q.Insurer)
	l.SplitDisplay = s.engine.EvaluateDisplay(split.N)
	if ok && l.SplitDisplay.Show {
		l.Split = &split
	}

	for _, d := range []types.PriceDirection{types.PriceUp, types.PriceDown} {
		a := Amount{Direction: d}
		base := measures.Count(sub, func(r types.Respondent) bool { return r.PriceDirection == d })
		if l.SplitDisplay.Show && s.shown(base) {
			a.Average = amount(measures.AvgPriceChange(rows, d, q.Insurer))
			a.Median = amount(measures.MedianPriceChange(rows, d, q.Insurer))
			bands := measures.PriceChangeBands(rows, d, q.Insurer)
			if d == types.PriceUp {
				l.HigherBands = bands
			} else {
				l.LowerBands = bands
			}
		}
		l.Amounts = append(l.Amounts, a)
	}

	if q.Insurer == "" {
		l.Retention = measures.SmoothedRetention(rows, s.settings.PriorStrength)
		for i := range l.Retention {
			if !s.shown(l.Retention[i].N) {
				l.Retention[i].RawRate = types.Rate{}
			}
		}
	}
	return l, nil
}
