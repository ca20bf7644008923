package dataset

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"switching-insights-go/internal/types"
)

const sampleCSV = "\uFEFFMainData[UniqueID],MainData[RenewalYearMonth],MainData[PreRenewalCompany],MainData[CurrentCompany],MainData[Shoppers],MainData[Switchers],MainData[Renewal  premium change],MainData[Did you use a PCW for shopping],Q34a,SumRenewal_premium_higher_value,RespondentProfile[Age Group],Region,Q21,Q48,Q47\n" +
	"1,202501,Aviva,Admiral,Shoppers,Switcher,Higher,Yes,No,42.5,25-34,London,2 years,9,Very satisfied\n" +
	"2,202502,Aviva,Aviva,Non-shoppers,Non-switcher,It was unchanged,,,,35-44,Wales,More than 10 years,7,\n" +
	",,,,,,,,,,,,,,\n" +
	"3,202502,,LV,Shoppers,New-to-market,I didn't have a policy before,1,Yes,,25-34,London,,3,\n"

func TestNormalizeColumn(t *testing.T) {
	tests := map[string]string{
		"MainData[Renewal  premium change combined]": "Renewal premium change combined",
		"\uFEFFMainData[UniqueID]":                   "UniqueID",
		"MainData_Motor[CurrentCompany]":             "CurrentCompany",
		"RespondentProfile[Age Group]":               "Age Group",
		"  Region  ":                                 "Region",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeColumn(in), in)
	}
}

func TestPriceDirectionOf(t *testing.T) {
	tests := []struct {
		raw  string
		want types.PriceDirection
	}{
		{"Higher", types.PriceUp},
		{"up", types.PriceUp},
		{"It was lower", types.PriceDown},
		{"Down", types.PriceDown},
		{"Unchanged", types.PriceUnchanged},
		{"I didn't have a motor insurance policy before", types.PriceNew},
		{"New purchase", types.PriceNew},
		{"Don't know", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PriceDirectionOf(tt.raw), tt.raw)
	}
}

func TestTenureBand(t *testing.T) {
	tests := map[string]string{
		"Less than 1 year":   "1yr",
		"1 year":             "1yr",
		"2 years":            "2-3yr",
		"3 years":            "2-3yr",
		"5 years":            "4-5yr",
		"More than 10 years": "6+yr",
		"10 years":           "6+yr",
		"":                   "",
		"not sure":           "",
	}
	for in, want := range tests {
		assert.Equal(t, want, TenureBand(in), in)
	}
}

func TestNPSCategory(t *testing.T) {
	assert.Equal(t, "Promoter", NPSCategory("10"))
	assert.Equal(t, "Promoter", NPSCategory("9 - Extremely likely"))
	assert.Equal(t, "Passive", NPSCategory("7"))
	assert.Equal(t, "Detractor", NPSCategory("0"))
	assert.Equal(t, "", NPSCategory(""))
	assert.Equal(t, "", NPSCategory("n/a"))
}

func TestLoadCSV(t *testing.T) {
	rows, err := LoadCSV(strings.NewReader(sampleCSV), "Motor")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	first := rows[0]
	assert.Equal(t, 1, first.ID)
	assert.Equal(t, "Motor", first.Product)
	assert.Equal(t, 202501, first.RenewalPeriod)
	assert.Equal(t, "Aviva", first.PriorInsurer)
	assert.Equal(t, "Admiral", first.CurrentInsurer)
	assert.True(t, first.IsShopper())
	assert.True(t, first.IsSwitcher())
	assert.Equal(t, types.PriceUp, first.PriceDirection)
	assert.True(t, first.PCWUsed)
	assert.False(t, first.Negotiated)
	require.NotNil(t, first.HigherAmount)
	assert.InDelta(t, 42.5, *first.HigherAmount, 1e-9)
	assert.Equal(t, "25-34", first.AgeBand)
	assert.Equal(t, "2-3yr", first.TenureBand)
	assert.Equal(t, "Promoter", first.NPSCategory)
	assert.Equal(t, "Shopped & Switched", first.JourneySegment)
	assert.Equal(t, "Very satisfied", first.Field("Q47"))

	second := rows[1]
	assert.Equal(t, types.PriceUnchanged, second.PriceDirection)
	assert.False(t, second.PCWUsed)
	assert.Nil(t, second.HigherAmount)
	assert.Equal(t, "Did Not Shop & Stayed", second.JourneySegment)
	assert.Equal(t, "", second.Field("Q47"))

	ntm := rows[2]
	assert.True(t, ntm.IsNewToMarket())
	assert.Equal(t, "", ntm.PriorInsurer)
	assert.Equal(t, types.PriceNew, ntm.PriceDirection)
	assert.True(t, ntm.Negotiated)
	assert.Equal(t, 0, ntm.SurveyPeriod)
}

func TestLoadErrors(t *testing.T) {
	_, err := LoadCSV(strings.NewReader("UniqueID,Shoppers\n"), "Motor")
	assert.ErrorIs(t, err, ErrNoRows)

	_, err = Decode(strings.NewReader(sampleCSV), ".parquet", "Motor")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Load(filepath.Join(t.TempDir(), "missing.csv"), "Motor")
	assert.Error(t, err)
}

func TestLoadFileCSVAndXLSX(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "motor.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(sampleCSV), 0o644))
	rows, err := Load(csvPath, "Motor")
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	table := [][]interface{}{
		{"MainData[UniqueID]", "MainData[CurrentCompany]", "MainData[Shoppers]", "MainData[Switchers]", "MainData[RenewalYearMonth]"},
		{7, "Aviva", "Shoppers", "Non-switcher", 202503},
		{8, "AXA", "Non-shoppers", "Non-switcher", 202504},
	}
	for i, row := range table {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	xlsxPath := filepath.Join(dir, "home.xlsx")
	require.NoError(t, os.WriteFile(xlsxPath, buf.Bytes(), 0o644))
	rows, err = Load(xlsxPath, "Home")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 7, rows[0].ID)
	assert.Equal(t, 202504, rows[1].RenewalPeriod)
	assert.Equal(t, "Home", rows[1].Product)
	assert.Equal(t, "Shopped & Stayed", rows[0].JourneySegment)
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	f := NewFetcher(5*time.Second, 10*time.Second)
	rows, err := f.Fetch(context.Background(), srv.URL+"/data/motor.csv", "Motor")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFetchClientErrorIsPermanent(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewFetcher(5*time.Second, 10*time.Second)
	_, err := f.Fetch(context.Background(), srv.URL+"/motor.csv", "Motor")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	_, err = f.Fetch(context.Background(), srv.URL+"/motor.json", "Motor")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("https://example.com/a.csv"))
	assert.True(t, IsRemote("HTTP://example.com/a.csv"))
	assert.False(t, IsRemote("data/motor.csv"))
}

func periodRows(periods ...int) []types.Respondent {
	out := make([]types.Respondent, len(periods))
	for i, p := range periods {
		out[i] = types.Respondent{ID: i + 1, RenewalPeriod: p}
	}
	return out
}

func TestTimeWindowKeepsMostRecentPeriods(t *testing.T) {
	rows := periodRows(202401, 202402, 202403, 202403, 202405)
	got := TimeWindow(rows, 2)
	require.Len(t, got, 3)
	for _, r := range got {
		assert.Contains(t, []int{202403, 202405}, r.RenewalPeriod)
	}
	assert.Len(t, TimeWindow(rows, 0), 5)
	assert.Len(t, TimeWindow(rows, 12), 5)
}

func TestFilterApply(t *testing.T) {
	rows := []types.Respondent{
		{ID: 1, AgeBand: "25-34", Region: "London", PaymentType: "Monthly"},
		{ID: 2, AgeBand: "25-34", Region: "Wales", PaymentType: "Annual"},
		{ID: 3, AgeBand: "65+", Region: "London", PaymentType: "Monthly"},
	}
	f := Filter{AgeBand: "25-34", Region: "London"}
	got := f.Apply(rows)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].ID)

	active := f.ActiveFilters()
	require.Len(t, active, 2)
	assert.Equal(t, "Age", active[0].Name)
	assert.Equal(t, "London", active[1].Value)

	assert.Len(t, Filter{}.Apply(rows), 3)
	assert.Empty(t, Filter{}.ActiveFilters())
}

func TestBuildDimensions(t *testing.T) {
	rows := []types.Respondent{
		{AgeBand: "65+", Region: "Wales", PaymentType: "Monthly", CurrentInsurer: "Zurich"},
		{AgeBand: "25-34", Region: "London", PaymentType: "Annual", CurrentInsurer: "Aviva"},
		{AgeBand: "25-34", Region: "Atlantis", CurrentInsurer: "Aviva"},
	}
	d := BuildDimensions(rows)

	require.Len(t, d.AgeBands, 3)
	assert.Equal(t, Option{Label: "All Ages"}, d.AgeBands[0])
	assert.Equal(t, "25-34", d.AgeBands[1].Value)
	assert.Equal(t, "65+", d.AgeBands[2].Value)

	require.Len(t, d.Regions, 4)
	assert.Equal(t, []string{"London", "Wales", "Atlantis"}, []string{d.Regions[1].Value, d.Regions[2].Value, d.Regions[3].Value})

	assert.Equal(t, "Annual", d.PaymentTypes[1].Value)
	require.Len(t, d.Insurers, 2)
	assert.Equal(t, "Aviva", d.Insurers[0].Value)
}

func TestSummarize(t *testing.T) {
	rows, err := LoadCSV(strings.NewReader(sampleCSV), "Motor")
	require.NoError(t, err)
	s := Summarize(rows)
	assert.Equal(t, 3, s.TotalRows)
	assert.Equal(t, 202501, s.FirstPeriod)
	assert.Equal(t, 202502, s.LastPeriod)
	assert.Equal(t, 3, s.Insurers)
	assert.Equal(t, 1, s.BySegment["New to Market"])
	assert.Equal(t, 1, s.ByPriceDirection[types.PriceUp])
	assert.Equal(t, 0, s.Unsegmented)
}
