package narrative

import (
	"sort"
	"strings"

	"switching-insights-go/internal/types"
)

// Ranking returns the topN most common answers to question, each as a share
// of respondents who answered. Nil when nobody answered.
func Ranking(rows []types.Respondent, question string, topN int) []Reason {
	index := map[string]int{}
	var out []Reason
	answered := 0
	for _, r := range rows {
		v := strings.TrimSpace(r.Field(question))
		if v == "" {
			continue
		}
		answered++
		i, ok := index[v]
		if !ok {
			i = len(out)
			index[v] = i
			out = append(out, Reason{Label: v})
		}
		out[i].Count++
	}
	if answered == 0 {
		return nil
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if topN >= 0 && len(out) > topN {
		out = out[:topN]
	}
	for i := range out {
		out[i].Pct = float64(out[i].Count) / float64(answered)
	}
	return out
}

// Comparison pairs insurer and market rankings for a dual table.
type Comparison struct {
	Insurer []Reason `json:"insurer"`
	Market  []Reason `json:"market"`
}

// CompareRanking ranks question for both populations. Nil when neither
// has answers.
func CompareRanking(insurerRows, marketRows []types.Respondent, question string, topN int) *Comparison {
	ins := Ranking(insurerRows, question, topN)
	mkt := Ranking(marketRows, question, topN)
	if ins == nil && mkt == nil {
		return nil
	}
	if ins == nil {
		ins = []Reason{}
	}
	if mkt == nil {
		mkt = []Reason{}
	}
	return &Comparison{Insurer: ins, Market: mkt}
}

// PrimaryReason is the single most common answer.
func PrimaryReason(rows []types.Respondent, question string) (string, bool) {
	rank := Ranking(rows, question, 1)
	if len(rank) == 0 {
		return "", false
	}
	return rank[0].Label, true
}
