package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"switching-insights-go/internal/testkit"
	"switching-insights-go/internal/types"
)

func switcher(prior, current string) types.Respondent {
	return types.Respondent{Shopper: types.Shopper, Switcher: types.Switcher, PriorInsurer: prior, CurrentInsurer: current}
}

func stayer(brand string, shopped bool) types.Respondent {
	flag := types.NonShopper
	if shopped {
		flag = types.Shopper
	}
	return types.Respondent{Shopper: flag, Switcher: types.NonSwitcher, PriorInsurer: brand, CurrentInsurer: brand}
}

func TestTopBrandsStableTies(t *testing.T) {
	rows := []types.Respondent{
		{CurrentInsurer: "B"}, {CurrentInsurer: "A"}, {CurrentInsurer: "A"},
		{CurrentInsurer: "B"}, {CurrentInsurer: "C"}, {CurrentInsurer: ""},
	}
	assert.Equal(t, []string{"B", "A"}, TopBrands(rows, current, 2))
	assert.Equal(t, []string{"B", "A", "C"}, TopBrands(rows, current, 10))
	assert.Empty(t, TopBrands(rows, current, 0))
	assert.Panics(t, func() { TopBrands(rows, current, -1) })
}

func TestGroupBrand(t *testing.T) {
	top := []string{"Aviva", "AXA"}
	assert.Equal(t, "Aviva", GroupBrand("Aviva", top))
	assert.Equal(t, Other, GroupBrand("Admiral", top))
	assert.Equal(t, Other, GroupBrand("", top))
}

func TestMarketFunnelDemo(t *testing.T) {
	f := BuildFunnel(testkit.DemoRows(), "", 8)
	require.NotNil(t, f)
	require.NoError(t, f.Reconcile())

	assert.Equal(t, 161, f.Total)
	assert.Equal(t, 160, f.PreRenewal.Count)
	assert.Equal(t, 1, f.NewBusiness.Count)
	assert.Equal(t, 49, f.NonShoppers.Count)
	assert.Equal(t, 111, f.Shoppers.Count)
	assert.Equal(t, 63, f.Shoppers.ShopStay.Count)
	assert.Equal(t, 48, f.Shoppers.ShopSwitch.Count)

	// local denominators: shop & stay is a share of shoppers
	assert.InDelta(t, 63.0/111.0, f.Shoppers.ShopStay.Pct.Value, 1e-9)
	assert.InDelta(t, 49.0/160.0, f.NonShoppers.Pct.Value, 1e-9)
	assert.InDelta(t, 112.0/161.0, f.Retained.Pct.Value, 1e-9)
	assert.InDelta(t, 1.0, f.AfterRenewal.Pct.Value, 1e-9)
	assert.InDelta(t, 1.0, f.CustomerBase.Retained.Value+f.CustomerBase.NewBusiness.Value, 1e-9)
	assert.Nil(t, f.LostTo)

	assert.Equal(t, "Switched to", f.WonFrom.Label)
	require.Len(t, f.WonFrom.Breakdown, 8)
	assert.Equal(t, "Aviva", f.WonFrom.Breakdown[0].Brand)
	assert.Equal(t, "Sheilas Wheels", f.WonFrom.Breakdown[7].Brand)
	for _, b := range f.WonFrom.Breakdown {
		assert.Equal(t, 2, b.Count)
		assert.InDelta(t, 2.0/48.0, b.Pct, 1e-9)
	}
}

func TestMarketFunnelPartitionHoldsForPrefixes(t *testing.T) {
	rows := testkit.DemoRows()
	for n := 1; n <= len(rows); n += 7 {
		f := BuildFunnel(rows[:n], "", 5)
		require.NotNil(t, f)
		assert.Equal(t, f.PreRenewal.Count, f.NonShoppers.Count+f.Shoppers.ShopStay.Count+f.Shoppers.ShopSwitch.Count)
		assert.NoError(t, f.Reconcile())
	}
}

func TestInsurerFunnel(t *testing.T) {
	f := BuildFunnel(testkit.DemoRows(), "Aviva", 8)
	require.NotNil(t, f)
	require.NoError(t, f.Reconcile())

	assert.Equal(t, 161, f.Total)
	assert.Equal(t, 6, f.InsurerTotal)
	assert.Equal(t, 4, f.PreRenewal.Count)
	assert.InDelta(t, 4.0/161.0, f.PreRenewal.Pct.Value, 1e-9)
	assert.Equal(t, 1, f.NonShoppers.Count)
	assert.InDelta(t, 0.25, f.NonShoppers.Pct.Value, 1e-9)
	assert.Equal(t, 2, f.Shoppers.ShopStay.Count)
	assert.Equal(t, 1, f.Shoppers.ShopSwitch.Count)
	assert.InDelta(t, 0.75, f.Retained.Pct.Value, 1e-9)

	assert.Equal(t, 2, f.WonFrom.Count)
	require.Len(t, f.WonFrom.Breakdown, 1)
	assert.Equal(t, BrandCount{Brand: "Sheilas Wheels", Count: 2, Pct: 1}, f.WonFrom.Breakdown[0])

	require.NotNil(t, f.LostTo)
	assert.Equal(t, 1, f.LostTo.Count)
	assert.Equal(t, "Halifax", f.LostTo.Breakdown[0].Brand)

	assert.Equal(t, 5, f.AfterRenewal.Count)
	assert.InDelta(t, 3.0/5.0, f.CustomerBase.Retained.Value, 1e-9)
	assert.InDelta(t, 2.0/5.0, f.CustomerBase.NewBusiness.Value, 1e-9)
}

func TestInsurerFunnelNewBusiness(t *testing.T) {
	f := BuildFunnel(testkit.DemoRows(), "Admiral", 8)
	require.NotNil(t, f)

	assert.Equal(t, 1, f.NewBusiness.Count)
	assert.InDelta(t, 1.0/5.0, f.NewBusiness.Pct.Value, 1e-9)
	require.Len(t, f.WonFrom.Breakdown, 2)
	assert.Equal(t, "Esure", f.WonFrom.Breakdown[0].Brand)
	last := f.WonFrom.Breakdown[1]
	assert.Equal(t, NewToMarketBucket, last.Brand)
	assert.InDelta(t, 0.5, last.Pct, 1e-9)
}

func TestInsurerCustomerBaseExcludesNonShopperSwitchers(t *testing.T) {
	leaver := types.Respondent{Shopper: types.NonShopper, Switcher: types.Switcher, PriorInsurer: "Aviva", CurrentInsurer: "Direct Line"}
	rows := []types.Respondent{stayer("Aviva", false), leaver, switcher("Admiral", "Aviva")}

	f := BuildFunnel(rows, "Aviva", 8)
	require.NotNil(t, f)
	require.NoError(t, f.Reconcile())

	// the retained box keeps its non-shopper + shop & stay definition
	assert.Equal(t, 2, f.Retained.Count)
	assert.Equal(t, 2, f.AfterRenewal.Count)
	assert.InDelta(t, 0.5, f.CustomerBase.Retained.Value, 1e-9)
	assert.InDelta(t, 0.5, f.CustomerBase.NewBusiness.Value, 1e-9)

	m := BuildFunnel(rows, "", 8)
	require.NotNil(t, m)
	assert.Equal(t, 2, m.Retained.Count)
	assert.InDelta(t, 1.0/3.0, m.CustomerBase.Retained.Value, 1e-9)
	assert.InDelta(t, 1.0, m.CustomerBase.Retained.Value+m.CustomerBase.NewBusiness.Value, 1e-9)
}

func TestFunnelNilWithoutRelevantRows(t *testing.T) {
	assert.Nil(t, BuildFunnel(testkit.DemoRows(), "Nobody Insurance", 8))
	assert.Nil(t, BuildFunnel(nil, "", 8))
	assert.Nil(t, BuildFunnel(nil, "Aviva", 8))
}

func TestFunnelReconcileReportsViolations(t *testing.T) {
	f := BuildFunnel(testkit.DemoRows(), "", 8)
	require.NotNil(t, f)
	f.NonShoppers.Count++
	err := f.Reconcile()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pre-renewal base")
}

func TestEngagementPrecedence(t *testing.T) {
	tests := []struct {
		name string
		r    types.Respondent
		want string
	}{
		{"new to market wins over shopper", types.Respondent{Switcher: types.NewToMarket, Shopper: types.Shopper, Negotiated: true}, EngagementNewToMarket},
		{"negotiating shopper", types.Respondent{Switcher: types.Switcher, Shopper: types.Shopper, Negotiated: true}, EngagementNegotiated},
		{"shopper", types.Respondent{Switcher: types.NonSwitcher, Shopper: types.Shopper}, EngagementShopped},
		{"non shopper negotiated flag ignored", types.Respondent{Switcher: types.NonSwitcher, Shopper: types.NonShopper, Negotiated: true}, EngagementDidNotShop},
		{"no flags", types.Respondent{}, EngagementShopped},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Engagement(tt.r))
		})
	}
}

func TestSankeyDemo(t *testing.T) {
	g := BuildSankey(testkit.DemoRows(), "", 8)
	require.NoError(t, g.CheckConservation())
	assert.Equal(t, 161, g.Volume())

	byID := map[string]int{}
	for i, n := range g.Nodes {
		byID[n.ID] = i
		if i > 0 {
			assert.LessOrEqual(t, g.Nodes[i-1].Tier, n.Tier)
		}
	}
	require.Contains(t, byID, "1:New to Market")
	require.Contains(t, byID, "3:Renewed")
	require.Contains(t, byID, "0:Other")

	into := map[int]int{}
	for _, l := range g.Links {
		into[l.Target] += l.Value
	}
	assert.Equal(t, 113, into[byID["3:"+Renewed]])
	assert.Equal(t, 48, into[byID["2:"+OutcomeSwitched]])
}

func TestSankeySumsDuplicatePairs(t *testing.T) {
	rows := []types.Respondent{
		switcher("A", "X"),
		switcher("B", "X"),
		switcher("C", "Y"),
	}
	g := BuildSankey(rows, "", 1)
	require.NoError(t, g.CheckConservation())

	idx := map[string]int{}
	for i, n := range g.Nodes {
		idx[n.ID] = i
	}
	// A is top origin; B and C collapse to Other; X is top destination
	assert.Contains(t, idx, "0:A")
	assert.Contains(t, idx, "0:Other")
	assert.Contains(t, idx, "3:X")
	assert.Contains(t, idx, "3:Other")

	weights := map[[2]int]int{}
	for _, l := range g.Links {
		_, dup := weights[[2]int{l.Source, l.Target}]
		assert.False(t, dup, "duplicate link %d->%d", l.Source, l.Target)
		weights[[2]int{l.Source, l.Target}] = l.Value
	}
	assert.Equal(t, 3, weights[[2]int{idx["1:Shopped"], idx["2:Switched"]}])
	assert.Equal(t, 2, weights[[2]int{idx["0:Other"], idx["1:Shopped"]}])
	assert.Equal(t, 2, weights[[2]int{idx["2:Switched"], idx["3:X"]}])
}

func TestSankeyInsurerFilterAndEmpty(t *testing.T) {
	g := BuildSankey(testkit.DemoRows(), "Nobody Insurance", 8)
	assert.Empty(t, g.Nodes)
	assert.Empty(t, g.Links)

	g = BuildSankey(testkit.DemoRows(), "Aviva", 8)
	require.NoError(t, g.CheckConservation())
	assert.Equal(t, 6, g.Volume())
}

func TestSankeyNodeOrderIsCollated(t *testing.T) {
	rows := []types.Respondent{stayer("axa", false), stayer("Aviva", false), stayer("Zurich", false)}
	g := BuildSankey(rows, "", 8)
	var origins []string
	for _, n := range g.Nodes {
		if n.Tier == TierOrigin {
			origins = append(origins, n.Name)
		}
	}
	assert.Equal(t, []string{"Aviva", "axa", "Zurich"}, origins)
}

func TestCheckConservationDetectsSkippedTier(t *testing.T) {
	g := Graph{
		Nodes: []Node{{ID: "0:A", Name: "A", Tier: 0}, {ID: "2:Stayed", Name: "Stayed", Tier: 2}},
		Links: []Link{{Source: 0, Target: 1, Value: 3}},
	}
	err := g.CheckConservation()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "skips a tier")
}

func TestSwitchingMatrixAndNetFlow(t *testing.T) {
	var rows []types.Respondent
	for i := 0; i < 10; i++ {
		rows = append(rows, switcher("A", "B"), switcher("A", "C"))
	}
	for i := 0; i < 80; i++ {
		rows = append(rows, types.Respondent{Switcher: types.NonSwitcher, CurrentInsurer: "A"})
	}

	m := SwitchingMatrix(rows)
	assert.Equal(t, []string{"A"}, m.Priors)
	assert.Equal(t, []string{"B", "C"}, m.Currents)
	assert.Equal(t, [][]int{{10, 10}}, m.Counts)
	assert.Equal(t, 20, m.Total())

	assert.Equal(t, Net{Gained: 10, Lost: 0, Net: 10}, NetFlow(rows, "B"))
	assert.Equal(t, Net{Gained: 0, Lost: 20, Net: -20}, NetFlow(rows, "A"))

	assert.Equal(t, 48, SwitchingMatrix(testkit.DemoRows()).Total())
}

func TestTopSourcesAndDestinations(t *testing.T) {
	rows := []types.Respondent{
		switcher("A", "X"), switcher("B", "X"), switcher("B", "X"), switcher("X", "C"),
	}
	src := TopSources(rows, "X", 1)
	require.Len(t, src, 1)
	assert.Equal(t, BrandCount{Brand: "B", Count: 2, Pct: 2.0 / 3.0}, src[0])

	dst := TopDestinations(rows, "X", 5)
	require.Len(t, dst, 1)
	assert.Equal(t, "C", dst[0].Brand)

	lost := LostDistribution(rows, "B")
	require.Len(t, lost, 1)
	assert.InDelta(t, 1.0, lost[0].Pct, 1e-9)
	assert.Nil(t, LostDistribution(rows, "Z"))
}
