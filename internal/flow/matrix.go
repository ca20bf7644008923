package flow

import (
	"sort"

	"switching-insights-go/internal/types"
)

// Matrix counts switchers by prior (row) and current (column) insurer.
type Matrix struct {
	Priors   []string `json:"priors"`
	Currents []string `json:"currents"`
	Counts   [][]int  `json:"counts"`
}

// SwitchingMatrix tabulates switchers with a known prior insurer. Row and
// column labels are sorted alphabetically.
func SwitchingMatrix(rows []types.Respondent) Matrix {
	cells := map[[2]string]int{}
	priors, currents := map[string]bool{}, map[string]bool{}
	for _, r := range rows {
		if !r.IsSwitcher() || r.PriorInsurer == "" {
			continue
		}
		cells[[2]string{r.PriorInsurer, r.CurrentInsurer}]++
		priors[r.PriorInsurer] = true
		currents[r.CurrentInsurer] = true
	}
	m := Matrix{Priors: sortedKeys(priors), Currents: sortedKeys(currents)}
	m.Counts = make([][]int, len(m.Priors))
	for i, p := range m.Priors {
		m.Counts[i] = make([]int, len(m.Currents))
		for j, c := range m.Currents {
			m.Counts[i][j] = cells[[2]string{p, c}]
		}
	}
	return m
}

// Total is the number of switches in the matrix.
func (m Matrix) Total() int {
	n := 0
	for _, row := range m.Counts {
		for _, c := range row {
			n += c
		}
	}
	return n
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type Net struct {
	Gained int `json:"gained"`
	Lost   int `json:"lost"`
	Net    int `json:"net"`
}

// NetFlow is switchers gained by insurer minus switchers lost by it.
func NetFlow(rows []types.Respondent, insurer string) Net {
	var n Net
	for _, r := range rows {
		if !r.IsSwitcher() {
			continue
		}
		if r.CurrentInsurer == insurer {
			n.Gained++
		}
		if r.PriorInsurer == insurer {
			n.Lost++
		}
	}
	n.Net = n.Gained - n.Lost
	return n
}

// TopSources ranks the insurers that switchers to insurer came from.
func TopSources(rows []types.Respondent, insurer string, n int) []BrandCount {
	t := newTally()
	for _, r := range rows {
		if r.IsSwitcher() && r.CurrentInsurer == insurer {
			t.add(r.PriorInsurer)
		}
	}
	return t.top(n, t.total())
}

// TopDestinations ranks the insurers that switchers from insurer went to.
func TopDestinations(rows []types.Respondent, insurer string, n int) []BrandCount {
	t := newTally()
	for _, r := range rows {
		if r.IsSwitcher() && r.PriorInsurer == insurer {
			t.add(r.CurrentInsurer)
		}
	}
	return t.top(n, t.total())
}

// LostDistribution is where every customer lost by insurer went, as shares
// of all lost customers. Nil when insurer lost nobody.
func LostDistribution(rows []types.Respondent, insurer string) []BrandCount {
	t := newTally()
	lost := 0
	for _, r := range rows {
		if r.IsSwitcher() && r.PriorInsurer == insurer {
			lost++
			t.add(r.CurrentInsurer)
		}
	}
	if lost == 0 {
		return nil
	}
	return t.top(len(t.order), lost)
}
