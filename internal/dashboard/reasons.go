package dashboard

import (
	"switching-insights-go/internal/dataset"
	"switching-insights-go/internal/governance"
	"switching-insights-go/internal/measures"
	"switching-insights-go/internal/narrative"
	"switching-insights-go/internal/types"
	"switching-insights-go/internal/validation"
)

// Reason sources.
const (
	FromSurvey = "survey"
	FromProxy  = "proxy"
	FromNone   = "none"
)

type ReasonPanel struct {
	Kind     narrative.Kind      `json:"kind"`
	Title    string              `json:"title"`
	Question string              `json:"question"`
	Source   string              `json:"source"`
	N        int                 `json:"n"`
	Display  governance.Decision `json:"display"`
	Reasons  []narrative.Reason  `json:"reasons"`
	Market   []narrative.Reason  `json:"market,omitempty"`
	Primary  string              `json:"primary,omitempty"`
}

type Reasons struct {
	Product string            `json:"product"`
	Insurer string            `json:"insurer,omitempty"`
	Banner  governance.Banner `json:"banner"`
	Panels  []ReasonPanel     `json:"panels"`
}

var reasonKinds = []narrative.Kind{narrative.WhyShop, narrative.WhySwitch, narrative.WhyNotShop}

// panel ranks the stated answers for kind and falls back to a proxy
// breakdown when nobody answered the question.
func (s *Service) panel(rows, market []types.Respondent, kind narrative.Kind, topN int, withMarket bool) ReasonPanel {
	seg := narrative.Segment(rows, kind)
	p := ReasonPanel{
		Kind:     kind,
		Title:    narrative.Title[kind],
		Question: narrative.Question[kind],
		N:        len(seg),
		Display:  s.engine.EvaluateDisplay(len(seg)),
		Source:   FromNone,
	}
	if !p.Display.Show {
		return p
	}

	if withMarket {
		if cmp := narrative.CompareRanking(seg, narrative.Segment(market, kind), p.Question, topN); cmp != nil && len(cmp.Insurer) > 0 {
			p.Source, p.Reasons, p.Market = FromSurvey, cmp.Insurer, cmp.Market
		}
	} else if rank := narrative.Ranking(seg, p.Question, topN); rank != nil {
		p.Source, p.Reasons = FromSurvey, rank
	}
	if p.Source == FromSurvey {
		p.Primary, _ = narrative.PrimaryReason(seg, p.Question)
		return p
	}

	if proxy := narrative.Proxy(rows, kind, s.proxyFloor()); proxy != nil {
		p.Source, p.Reasons = FromProxy, proxy
		p.Primary = proxy[0].Label
	}
	return p
}

// WhyTheyMove is the reasons screen: why customers shop, switch and stay put.
func (s *Service) WhyTheyMove(q Query) (*Reasons, error) {
	rows, err := s.scope(q)
	if err != nil {
		return nil, err
	}
	sub := measures.ForInsurer(rows, q.Insurer)
	out := &Reasons{
		Product: q.Product,
		Insurer: q.Insurer,
		Banner:  governance.BannerFor(len(sub)),
	}
	for _, k := range reasonKinds {
		out.Panels = append(out.Panels, s.panel(sub, rows, k, s.topN(q), q.Insurer != ""))
	}
	return out, nil
}

type ValidationScreen struct {
	Product        string            `json:"product"`
	Summary        dataset.Summary   `json:"summary"`
	Integrity      validation.Report `json:"integrity"`
	Reconciliation validation.Report `json:"reconciliation"`
}

// Validation runs the integrity checks on the unfiltered product rows and
// reconciles them against the demo reference counts.
func (s *Service) Validation(product string) (*ValidationScreen, error) {
	rows, err := s.Rows(product)
	if err != nil {
		return nil, err
	}
	v := &ValidationScreen{
		Product:        product,
		Summary:        dataset.Summarize(rows),
		Integrity:      validation.Run(rows),
		Reconciliation: validation.Reconcile(rows, validation.DemoExpectations()),
	}
	s.log.WithField("product", product).
		WithField("integrity_failed", v.Integrity.Failed).
		WithField("reconcile_failed", v.Reconciliation.Failed).
		Info("validation run")
	return v, nil
}

// Dimensions lists the filter options for product.
func (s *Service) Dimensions(product string) (*dataset.Dimensions, error) {
	rows, err := s.Rows(product)
	if err != nil {
		return nil, err
	}
	d := dataset.BuildDimensions(rows)
	return &d, nil
}
