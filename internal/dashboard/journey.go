package dashboard

import (
	"switching-insights-go/internal/flow"
	"switching-insights-go/internal/governance"
	"switching-insights-go/internal/measures"
	"switching-insights-go/internal/narrative"
)

// Cell is a governed switching-matrix entry. Suppressed cells carry no count.
type Cell struct {
	Count      *int `json:"count"`
	Suppressed bool `json:"suppressed"`
}

type MatrixView struct {
	Priors   []string `json:"priors"`
	Currents []string `json:"currents"`
	Cells    [][]Cell `json:"cells"`
	Total    int      `json:"total"`
}

type Journey struct {
	Product      string                 `json:"product"`
	Insurer      string                 `json:"insurer,omitempty"`
	Banner       governance.Banner      `json:"banner"`
	Display      governance.Decision    `json:"display"`
	Funnel       *flow.Funnel           `json:"funnel"`
	Sankey       flow.Graph             `json:"sankey"`
	Matrix       MatrixView             `json:"matrix"`
	Net          *flow.Net              `json:"net_flow,omitempty"`
	Sources      []flow.BrandCount      `json:"top_sources,omitempty"`
	Destinations []flow.BrandCount      `json:"top_destinations,omitempty"`
	Actions      []narrative.ActionCard `json:"actions,omitempty"`
	Warnings     []string               `json:"warnings,omitempty"`
}

func (s *Service) matrix(m flow.Matrix) MatrixView {
	v := MatrixView{Priors: m.Priors, Currents: m.Currents, Total: m.Total()}
	v.Cells = make([][]Cell, len(m.Counts))
	for i, row := range m.Counts {
		v.Cells[i] = make([]Cell, len(row))
		for j, n := range row {
			if n == 0 {
				continue
			}
			if s.engine.SuppressFlowCell(n) {
				v.Cells[i][j] = Cell{Suppressed: true}
				continue
			}
			count := n
			v.Cells[i][j] = Cell{Count: &count}
		}
	}
	return v
}

// Journey is the flow screen: funnel, sankey and switching matrix. With an
// insurer it adds net flow, top sources and destinations, and action cards.
// Conservation failures are reported as warnings rather than errors. When the
// population (the insurer's relevant rows in insurer mode) is suppressed, only
// the cell-suppressed market matrix is returned.
func (s *Service) Journey(q Query) (*Journey, error) {
	rows, err := s.scope(q)
	if err != nil {
		return nil, err
	}
	topN := s.topN(q)
	j := &Journey{
		Product: q.Product,
		Insurer: q.Insurer,
		Funnel:  flow.BuildFunnel(rows, q.Insurer, topN),
		Sankey:  flow.BuildSankey(rows, q.Insurer, topN),
		Matrix:  s.matrix(flow.SwitchingMatrix(rows)),
	}
	n := len(rows)
	if q.Insurer != "" {
		n = 0
		if j.Funnel != nil {
			n = j.Funnel.InsurerTotal
		}
	}
	j.Banner = governance.BannerFor(n)
	j.Display = s.engine.EvaluateDisplay(n)

	if j.Funnel != nil {
		if err := j.Funnel.Reconcile(); err != nil {
			j.Warnings = append(j.Warnings, err.Error())
		}
	}
	if err := j.Sankey.CheckConservation(); err != nil {
		j.Warnings = append(j.Warnings, err.Error())
	}
	if len(j.Warnings) > 0 {
		s.log.WithField("product", q.Product).
			WithField("insurer", q.Insurer).
			WithField("warnings", j.Warnings).
			Warn("flow conservation check failed")
	}

	if !j.Display.Show {
		j.Funnel = nil
		j.Sankey = flow.Graph{Nodes: []flow.Node{}, Links: []flow.Link{}}
		return j, nil
	}

	if q.Insurer != "" {
		net := flow.NetFlow(rows, q.Insurer)
		j.Net = &net
		j.Sources = flow.TopSources(rows, q.Insurer, topN)
		j.Destinations = flow.TopDestinations(rows, q.Insurer, topN)
		j.Actions = narrative.Actions(j.Funnel,
			measures.ShoppingRate(rows, q.Insurer),
			measures.ShoppingRate(rows, ""))
	}
	return j, nil
}
