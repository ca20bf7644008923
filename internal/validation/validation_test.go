package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"switching-insights-go/internal/testkit"
	"switching-insights-go/internal/types"
)

func TestRunDemoIsClean(t *testing.T) {
	rep := Run(testkit.DemoRows())
	assert.True(t, rep.OK(), "failures: %+v", rep.Failures())
	assert.Equal(t, 5, rep.Passed)
}

func TestRunEmpty(t *testing.T) {
	rep := Run(nil)
	require.Len(t, rep.Checks, 1)
	assert.Equal(t, "Data loaded", rep.Checks[0].Name)
	assert.False(t, rep.OK())
}

func TestRunFlagsViolations(t *testing.T) {
	rows := testkit.DemoRows()[:10]
	rows[3].ID = rows[2].ID
	rows[4].Switcher = ""
	rows[0].PriorInsurer = "Aviva" // row 0 is new to market
	rows[5].RenewalPeriod = 202513

	rep := Run(rows)
	assert.Equal(t, 4, rep.Failed)

	byName := map[string]Check{}
	for _, c := range rep.Checks {
		byName[c.Name] = c
	}
	assert.Equal(t, "first duplicate id 3", byName["Unique respondent ids"].Detail)
	assert.Equal(t, 1.0, byName["Shopper/switcher classification"].Actual)
	assert.False(t, byName["New-to-market without prior insurer"].Pass)
	assert.Equal(t, "first invalid period 202513", byName["Valid renewal periods"].Detail)
}

func TestValidPeriod(t *testing.T) {
	assert.True(t, ValidPeriod(202501))
	assert.True(t, ValidPeriod(202412))
	assert.False(t, ValidPeriod(202500))
	assert.False(t, ValidPeriod(0))
	assert.False(t, ValidPeriod(2025))
}

func TestReconcileDemo(t *testing.T) {
	rep := Reconcile(testkit.DemoRows(), DemoExpectations())
	assert.True(t, rep.OK(), "failures: %+v", rep.Failures())
	assert.Len(t, rep.Checks, 18)
	assert.Equal(t, "Insurers with n >= 50", rep.Checks[17].Name)
}

func TestReconcileTolerance(t *testing.T) {
	e := DemoExpectations()
	e.ShoppingRate = 0.70 // actual 0.6957, inside tolerance
	e.PCWUsage = 0.93     // actual 0.9107, outside
	e.Shoppers = 111      // integers are exact

	rep := Reconcile(testkit.DemoRows(), e)
	var failed []string
	for _, c := range rep.Failures() {
		failed = append(failed, c.Name)
	}
	assert.ElementsMatch(t, []string{"PCW usage (of shoppers)", "Shoppers count"}, failed)
}

func TestReconcileUndefinedRate(t *testing.T) {
	rows := []types.Respondent{{ID: 1, Shopper: types.NonShopper, Switcher: types.NonSwitcher}}
	rep := Reconcile(rows, Expectations{TotalRows: 1, NonShoppers: 1, NonSwitchers: 1, PriceBase: 1, Publishable: 50})
	for _, c := range rep.Checks {
		if c.Name == "PCW usage (of shoppers)" {
			assert.False(t, c.Pass)
			assert.Equal(t, "undefined rate", c.Detail)
		}
	}
}
