package flow

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"switching-insights-go/internal/types"
)

// Sankey tiers, left to right.
const (
	TierOrigin = iota
	TierEngagement
	TierOutcome
	TierDestination
)

const (
	EngagementNewToMarket = "New to Market"
	EngagementNegotiated  = "Negotiated"
	EngagementShopped     = "Shopped"
	EngagementDidNotShop  = "Did Not Shop"

	OutcomeSwitched = "Switched"
	OutcomeStayed   = "Stayed"

	// Renewed is the destination for respondents who stayed.
	Renewed = "Renewed"
)

type Node struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Tier int    `json:"tier"`
}

// Link joins two nodes by index into Graph.Nodes.
type Link struct {
	Source int `json:"source"`
	Target int `json:"target"`
	Value  int `json:"value"`
}

type Graph struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

type engagementRule struct {
	label string
	match func(types.Respondent) bool
}

// engagementRules are evaluated in order; the first match wins.
var engagementRules = []engagementRule{
	{EngagementNewToMarket, types.Respondent.IsNewToMarket},
	{EngagementNegotiated, func(r types.Respondent) bool { return r.IsShopper() && r.Negotiated }},
	{EngagementShopped, types.Respondent.IsShopper},
	{EngagementDidNotShop, func(r types.Respondent) bool { return r.Shopper == types.NonShopper }},
}

// Engagement classifies a respondent's renewal behaviour. Rows matching no
// rule are treated as having shopped.
func Engagement(r types.Respondent) string {
	for _, rule := range engagementRules {
		if rule.match(r) {
			return rule.label
		}
	}
	return EngagementShopped
}

func outcome(r types.Respondent) string {
	if r.IsSwitcher() {
		return OutcomeSwitched
	}
	return OutcomeStayed
}

type path [4]string

// BuildSankey aggregates rows into origin → engagement → outcome →
// destination flows. With an insurer, rows are those whose prior or current
// insurer matches. Origin brands outside the top N by prior insurer, and
// destination brands outside the top N among switchers, collapse to Other.
func BuildSankey(rows []types.Respondent, insurer string, topN int) Graph {
	filtered := rows
	if insurer != "" {
		filtered = nil
		for _, r := range rows {
			if r.PriorInsurer == insurer || r.CurrentInsurer == insurer {
				filtered = append(filtered, r)
			}
		}
	}
	if len(filtered) == 0 {
		return Graph{Nodes: []Node{}, Links: []Link{}}
	}

	topOrigin := TopBrands(filtered, prior, topN)
	var switchers []types.Respondent
	for _, r := range filtered {
		if r.IsSwitcher() {
			switchers = append(switchers, r)
		}
	}
	topDest := TopBrands(switchers, current, topN)

	var paths []path
	weights := map[path]int{}
	for _, r := range filtered {
		out := outcome(r)
		dest := Renewed
		if out == OutcomeSwitched {
			dest = GroupBrand(r.CurrentInsurer, topDest)
		}
		p := path{GroupBrand(r.PriorInsurer, topOrigin), Engagement(r), out, dest}
		if _, ok := weights[p]; !ok {
			paths = append(paths, p)
		}
		weights[p]++
	}

	seen := map[string]bool{}
	var nodes []Node
	for _, p := range paths {
		for tier, name := range p {
			id := nodeID(tier, name)
			if !seen[id] {
				seen[id] = true
				nodes = append(nodes, Node{ID: id, Name: name, Tier: tier})
			}
		}
	}
	sortNodes(nodes)
	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		index[n.ID] = i
	}

	type pair struct{ s, t int }
	var order []pair
	sums := map[pair]int{}
	for _, p := range paths {
		w := weights[p]
		for tier := 0; tier < len(p)-1; tier++ {
			k := pair{index[nodeID(tier, p[tier])], index[nodeID(tier+1, p[tier+1])]}
			if _, ok := sums[k]; !ok {
				order = append(order, k)
			}
			sums[k] += w
		}
	}
	links := make([]Link, 0, len(order))
	for _, k := range order {
		links = append(links, Link{Source: k.s, Target: k.t, Value: sums[k]})
	}
	return Graph{Nodes: nodes, Links: links}
}

func nodeID(tier int, name string) string {
	return fmt.Sprintf("%d:%s", tier, name)
}

// sortNodes orders by tier, then by name using English collation.
func sortNodes(nodes []Node) {
	c := collate.New(language.English)
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Tier != nodes[j].Tier {
			return nodes[i].Tier < nodes[j].Tier
		}
		return c.CompareString(nodes[i].Name, nodes[j].Name) < 0
	})
}

// Volume is the summed weight of links leaving the origin tier.
func (g Graph) Volume() int {
	n := 0
	for _, l := range g.Links {
		if g.Nodes[l.Source].Tier == TierOrigin {
			n += l.Value
		}
	}
	return n
}

// CheckConservation verifies that links only join adjacent tiers, carry
// positive weight, and that every interior node's inflow equals its outflow.
func (g Graph) CheckConservation() error {
	in := make([]int, len(g.Nodes))
	out := make([]int, len(g.Nodes))
	var problems []string
	for _, l := range g.Links {
		if l.Source < 0 || l.Source >= len(g.Nodes) || l.Target < 0 || l.Target >= len(g.Nodes) {
			problems = append(problems, fmt.Sprintf("link %d->%d out of range", l.Source, l.Target))
			continue
		}
		if g.Nodes[l.Target].Tier != g.Nodes[l.Source].Tier+1 {
			problems = append(problems, fmt.Sprintf("link %s->%s skips a tier", g.Nodes[l.Source].ID, g.Nodes[l.Target].ID))
		}
		if l.Value <= 0 {
			problems = append(problems, fmt.Sprintf("link %s->%s has weight %d", g.Nodes[l.Source].ID, g.Nodes[l.Target].ID, l.Value))
		}
		out[l.Source] += l.Value
		in[l.Target] += l.Value
	}
	for i, n := range g.Nodes {
		if n.Tier == TierOrigin || n.Tier == TierDestination {
			continue
		}
		if in[i] != out[i] {
			problems = append(problems, fmt.Sprintf("node %s: in %d, out %d", n.ID, in[i], out[i]))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("sankey conservation: %s", strings.Join(problems, "; "))
	}
	return nil
}
