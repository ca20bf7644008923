package measures

import (
	"sort"
	"strconv"
	"strings"

	"switching-insights-go/internal/types"
)

// Channel and PCW question codes.
const (
	ChannelPrefix       = "Q9b"  // channels used while shopping, one column per channel
	FirstChannel        = "Q13a" // channel used first
	QuoteReachQuestion  = "Q13b" // insurers quoted, multi-select text
	PCWPrefix           = "Q11_" // PCWs used, one column per site
	PCWNPSQuestion      = "Q11d" // 0-10 recommendation score for the PCW
	PCWPurchaseQuestion = "Q36"  // 1 when the policy was bought through the PCW
	QuoteBuyQuestion    = "Q37"  // 2 when quoted through one route and bought through another
)

// Share is one answer option's share of a base. Multi-code questions can sum
// above one.
type Share struct {
	Option string  `json:"option"`
	Count  int     `json:"count"`
	Pct    float64 `json:"pct"`
}

// Shares is a distribution over Base respondents, largest first.
type Shares struct {
	Base   int     `json:"base"`
	Shares []Share `json:"shares"`
}

// columns lists the distinct field names starting with prefix, sorted.
func columns(rows []types.Respondent, prefix string) []string {
	seen := map[string]struct{}{}
	for _, r := range rows {
		for k := range r.Fields {
			if strings.HasPrefix(k, prefix) {
				seen[k] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func byPctDesc(shares []Share) {
	sort.SliceStable(shares, func(i, j int) bool { return shares[i].Pct > shares[j].Pct })
}

// multiCode counts, per prefixed column, the base rows that selected it.
func multiCode(base []types.Respondent, prefix string) (Shares, bool) {
	cols := columns(base, prefix)
	if len(base) == 0 || len(cols) == 0 {
		return Shares{}, false
	}
	out := Shares{Base: len(base)}
	for _, col := range cols {
		n := Count(base, func(r types.Respondent) bool { return types.Truthy(r.Field(col)) })
		out.Shares = append(out.Shares, Share{
			Option: strings.TrimLeft(strings.TrimPrefix(col, prefix), "_"),
			Count:  n,
			Pct:    float64(n) / float64(len(base)),
		})
	}
	byPctDesc(out.Shares)
	return out, true
}

// ChannelUsage is the share of shoppers using each channel.
func ChannelUsage(rows []types.Respondent, insurer string) (Shares, bool) {
	return multiCode(Where(ForInsurer(rows, insurer), types.Respondent.IsShopper), ChannelPrefix)
}

// FirstChannelUsed is the distribution of the first channel among shoppers
// who answered the question.
func FirstChannelUsed(rows []types.Respondent, insurer string) (Shares, bool) {
	counts := newOptionTally()
	for _, r := range Where(ForInsurer(rows, insurer), types.Respondent.IsShopper) {
		if v := strings.TrimSpace(r.Field(FirstChannel)); v != "" {
			counts.add(v)
		}
	}
	if counts.total == 0 {
		return Shares{}, false
	}
	return counts.shares(), true
}

// PCWUsage is the share of PCW users using each comparison site.
func PCWUsage(rows []types.Respondent, insurer string) (Shares, bool) {
	return multiCode(Where(ForInsurer(rows, insurer), func(r types.Respondent) bool { return r.PCWUsed }), PCWPrefix)
}

// PCWUsers returns the rows that selected the given site.
func PCWUsers(rows []types.Respondent, pcw string) []types.Respondent {
	col := PCWPrefix + strings.TrimPrefix(pcw, PCWPrefix)
	return Where(rows, func(r types.Respondent) bool { return types.Truthy(r.Field(col)) })
}

// PCWNPS is the net promoter score (promoters 9-10 minus detractors 0-6, in
// points over all users) of one comparison site, with its base.
func PCWNPS(rows []types.Respondent, pcw string) (float64, int, bool) {
	users := PCWUsers(rows, pcw)
	if len(users) == 0 {
		return 0, 0, false
	}
	var promoters, detractors int
	for _, r := range users {
		score, err := strconv.Atoi(strings.TrimSpace(r.Field(PCWNPSQuestion)))
		switch {
		case err != nil:
		case score >= 9:
			promoters++
		case score <= 6:
			detractors++
		}
	}
	return 100 * float64(promoters-detractors) / float64(len(users)), len(users), true
}

// PCWPurchaseRate is the share of a site's users who bought through it.
func PCWPurchaseRate(rows []types.Respondent, pcw string) types.Rate {
	return proportion(PCWUsers(rows, pcw), func(r types.Respondent) bool {
		return strings.TrimSpace(r.Field(PCWPurchaseQuestion)) == "1"
	})
}

// QuoteBuyMismatch is the share of respondents who answered the question and
// bought through a different route from the one they were quoted through,
// with the number who answered.
func QuoteBuyMismatch(rows []types.Respondent, insurer string) (types.Rate, int) {
	answered := Where(ForInsurer(rows, insurer), func(r types.Respondent) bool {
		return strings.TrimSpace(r.Field(QuoteBuyQuestion)) != ""
	})
	return proportion(answered, func(r types.Respondent) bool {
		return strings.TrimSpace(r.Field(QuoteBuyQuestion)) == "2"
	}), len(answered)
}

// QuoteReach counts the shoppers quoted by insurer, matched
// case-insensitively inside the multi-select answer, and the shopper base.
func QuoteReach(rows []types.Respondent, insurer string) (reached, shoppers int) {
	target := strings.ToLower(insurer)
	for _, r := range rows {
		if !r.IsShopper() {
			continue
		}
		shoppers++
		if target != "" && strings.Contains(strings.ToLower(r.Field(QuoteReachQuestion)), target) {
			reached++
		}
	}
	return reached, shoppers
}

// optionTally counts single-code answers in first-seen order.
type optionTally struct {
	order  []string
	counts map[string]int
	total  int
}

func newOptionTally() *optionTally {
	return &optionTally{counts: map[string]int{}}
}

func (t *optionTally) add(option string) {
	if _, ok := t.counts[option]; !ok {
		t.order = append(t.order, option)
	}
	t.counts[option]++
	t.total++
}

func (t *optionTally) shares() Shares {
	out := Shares{Base: t.total}
	for _, o := range t.order {
		n := t.counts[o]
		out.Shares = append(out.Shares, Share{Option: o, Count: n, Pct: float64(n) / float64(t.total)})
	}
	byPctDesc(out.Shares)
	return out
}
