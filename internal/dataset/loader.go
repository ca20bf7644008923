// Package dataset loads survey extracts into typed respondents, derives the
// normalised fields the measures rely on, and applies dashboard filters.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"switching-insights-go/internal/logger"
	"switching-insights-go/internal/types"
)

var (
	ErrNoRows            = errors.New("dataset: no data rows")
	ErrUnsupportedFormat = errors.New("dataset: unsupported format")
)

// Column names after NormalizeColumn.
const (
	ColID                  = "UniqueID"
	ColSurveyPeriod        = "SurveyYearMonth"
	ColRenewalPeriod       = "RenewalYearMonth"
	ColPriorInsurer        = "PreRenewalCompany"
	ColPreviousInsurer     = "PreviousCompany"
	ColCurrentInsurer      = "CurrentCompany"
	ColShoppers            = "Shoppers"
	ColSwitchers           = "Switchers"
	ColPriceChange         = "Renewal premium change"
	ColPriceChangeCombined = "Renewal premium change combined"
	ColPCW                 = "Did you use a PCW for shopping"
	ColNegotiated          = "Q34a"
	ColHigherAmount        = "SumRenewal_premium_higher_value"
	ColLowerAmount         = "SumRenewal_premium_lower_value"
	ColSortOrder           = "SortOrder"
	ColAgeBand             = "AgeBand"
	ColAgeGroup            = "Age Group"
	ColRegion              = "Region"
	ColPaymentType         = "PaymentType"
	ColPaymentQuestion     = "Q43"
	ColNPS                 = "Q48"
	ColTenure              = "Q21"
)

// typedColumns are held in Respondent struct fields rather than Fields.
var typedColumns = map[string]bool{
	ColID: true, ColSurveyPeriod: true, ColRenewalPeriod: true, ColPriorInsurer: true,
	ColPreviousInsurer: true, ColCurrentInsurer: true, ColShoppers: true, ColSwitchers: true,
	ColPCW: true, ColHigherAmount: true, ColLowerAmount: true, ColSortOrder: true,
	ColAgeBand: true, ColAgeGroup: true, ColRegion: true, ColPaymentType: true,
}

// Load reads a .csv or .xlsx extract for product.
func Load(path, product string) ([]types.Respondent, error) {
	log := logger.New().WithField("component", "dataset.loader").WithField("path", path)
	log.Info("opening dataset")

	f, err := os.Open(path)
	if err != nil {
		log.WithError(err).Error("open failed")
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	rows, err := Decode(f, filepath.Ext(path), product)
	if err != nil {
		log.WithError(err).Error("decode failed")
		return nil, err
	}
	log.WithField("rows", len(rows)).Info("dataset loaded")
	return rows, nil
}

// Decode parses r according to a file extension such as ".csv".
func Decode(r io.Reader, ext, product string) ([]types.Respondent, error) {
	switch strings.ToLower(ext) {
	case ".csv":
		return LoadCSV(r, product)
	case ".xlsx":
		return LoadXLSX(r, product)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}

func LoadCSV(r io.Reader, product string) ([]types.Respondent, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	table, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return Parse(table, product)
}

// LoadXLSX reads the first sheet of a workbook.
func LoadXLSX(r io.Reader, product string) ([]types.Respondent, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: no sheets", ErrNoRows)
	}
	table, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return Parse(table, product)
}

// Parse converts a header row plus data rows into respondents. Blank lines
// are skipped.
func Parse(table [][]string, product string) ([]types.Respondent, error) {
	if len(table) <= 1 {
		return nil, ErrNoRows
	}
	h := newHeader(table[0])
	out := make([]types.Respondent, 0, len(table)-1)
	for _, row := range table[1:] {
		if blank(row) {
			continue
		}
		out = append(out, h.respondent(row, product))
	}
	if len(out) == 0 {
		return nil, ErrNoRows
	}
	return out, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func (h header) respondent(row []string, product string) types.Respondent {
	r := types.Respondent{
		ID:             atoi(h.value(row, ColID)),
		Product:        product,
		RenewalPeriod:  atoi(h.value(row, ColRenewalPeriod)),
		SurveyPeriod:   atoi(h.value(row, ColSurveyPeriod)),
		PriorInsurer:   h.value(row, ColPriorInsurer, ColPreviousInsurer),
		CurrentInsurer: h.value(row, ColCurrentInsurer),
		Shopper:        shopperFlag(h.value(row, ColShoppers)),
		Switcher:       switcherFlag(h.value(row, ColSwitchers)),
		PriceChangeRaw: h.value(row, ColPriceChange, ColPriceChangeCombined),
		PCWUsed:        types.Truthy(h.value(row, ColPCW)),
		Negotiated:     types.Truthy(h.value(row, ColNegotiated)),
		HigherAmount:   parseFloat(h.value(row, ColHigherAmount)),
		LowerAmount:    parseFloat(h.value(row, ColLowerAmount)),
		SortOrder:      atoi(h.value(row, ColSortOrder)),
		AgeBand:        h.value(row, ColAgeGroup, ColAgeBand),
		Region:         h.value(row, ColRegion),
		PaymentType:    h.value(row, ColPaymentType, ColPaymentQuestion),
		Fields:         types.Fields{},
	}
	for name, i := range h {
		if typedColumns[name] || i >= len(row) {
			continue
		}
		if v := strings.TrimSpace(row[i]); v != "" {
			r.Fields[name] = v
		}
	}
	Derive(&r)
	return r
}

// Derive fills the normalised fields computed from raw answers.
func Derive(r *types.Respondent) {
	r.PriceDirection = PriceDirectionOf(r.PriceChangeRaw)
	r.JourneySegment = JourneySegment(*r)
	r.NPSCategory = NPSCategory(r.Field(ColNPS))
	r.TenureBand = TenureBand(r.Field(ColTenure))
}

func shopperFlag(v string) types.ShopperFlag {
	switch strings.ToLower(v) {
	case "shoppers", "shopper":
		return types.Shopper
	case "non-shoppers", "non-shopper":
		return types.NonShopper
	}
	return ""
}

func switcherFlag(v string) types.SwitcherFlag {
	s := strings.ToLower(v)
	switch {
	case s == "switcher" || s == "switchers":
		return types.Switcher
	case strings.Contains(s, "new-to-market"):
		return types.NewToMarket
	case s == "non-switcher" || s == "non-switchers" || s == "retained":
		return types.NonSwitcher
	}
	return ""
}

func atoi(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
