// Package report writes dashboard screens to an Excel workbook.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"switching-insights-go/internal/dashboard"
	"switching-insights-go/internal/flow"
	"switching-insights-go/internal/types"
)

// Report is the set of screens exported for one product and population.
// Nil screens are skipped.
type Report struct {
	Pulse     *dashboard.Pulse
	Landscape *dashboard.Landscape
	Journey   *dashboard.Journey
	Reasons   *dashboard.Reasons
}

type table struct {
	sheet   string
	headers []string
	rows    [][]any
}

// rate is the cell value for r: blank when undefined or suppressed.
func rate(r types.Rate) any {
	if !r.Valid {
		return nil
	}
	return r.Value
}

func pulseTable(p *dashboard.Pulse) table {
	t := table{sheet: "Pulse", headers: []string{"Metric", "Value", "N", "Tier", "Shown"}}
	add := func(label string, v dashboard.Value) {
		shown := "no"
		if v.Display.Show {
			shown = "yes"
		}
		t.rows = append(t.rows, []any{label, rate(v.Value), v.Count, string(v.ConfidenceTier), shown})
	}
	h := p.Headline
	add("Shopping rate", h.Shopping)
	add("Switching rate", h.Switching)
	add("Shop & stay rate", h.ShopAndStay)
	add("PCW usage", h.PCWUsage)
	add("Retention rate", h.Retention)
	add("Conversion rate", h.Conversion)
	if p.Narrative != "" {
		t.rows = append(t.rows, []any{p.Narrative})
	}
	for _, tr := range p.Trends {
		if tr.Sentence != "" {
			t.rows = append(t.rows, []any{tr.Sentence})
		}
	}
	return t
}

func monthlyTable(p *dashboard.Pulse) table {
	t := table{sheet: "Monthly", headers: []string{"Period", "Shopping", "Switching", "Shop & stay", "PCW usage", "N"}}
	for _, m := range p.Monthly {
		t.rows = append(t.rows, []any{m.Display, rate(m.ShoppingRate), rate(m.SwitchingRate), rate(m.ShopAndStayRate), rate(m.PCWUsageRate), m.N})
	}
	return t
}

func priceTable(l *dashboard.Landscape) table {
	t := table{sheet: "Price", headers: []string{"Direction", "Band", "Count", "Share"}}
	for _, b := range l.HigherBands {
		t.rows = append(t.rows, []any{string(types.PriceUp), b.Band, b.Count, b.Pct})
	}
	for _, b := range l.LowerBands {
		t.rows = append(t.rows, []any{string(types.PriceDown), b.Band, b.Count, b.Pct})
	}
	return t
}

func funnelTable(f *flow.Funnel) table {
	t := table{sheet: "Funnel", headers: []string{"Stage", "Count", "Share"}}
	for _, b := range []flow.Box{
		f.PreRenewal, f.NewBusiness, f.NonShoppers, f.Shoppers.Box,
		f.Shoppers.ShopStay, f.Shoppers.ShopSwitch, f.Retained, f.AfterRenewal,
	} {
		t.rows = append(t.rows, []any{b.Label, b.Count, rate(b.Pct)})
	}
	breakdown := func(bd *flow.Breakdown) {
		if bd == nil {
			return
		}
		for _, c := range bd.Breakdown {
			t.rows = append(t.rows, []any{bd.Label + ": " + c.Brand, c.Count, c.Pct})
		}
	}
	breakdown(&f.WonFrom)
	breakdown(f.LostTo)
	return t
}

func reasonsTable(r *dashboard.Reasons) table {
	t := table{sheet: "Reasons", headers: []string{"Question", "Source", "Reason", "Count", "Share"}}
	for _, p := range r.Panels {
		for _, reason := range p.Reasons {
			t.rows = append(t.rows, []any{p.Title, p.Source, reason.Label, reason.Count, reason.Pct})
		}
	}
	return t
}

func (r Report) tables() []table {
	var out []table
	if r.Pulse != nil {
		out = append(out, pulseTable(r.Pulse), monthlyTable(r.Pulse))
	}
	if r.Landscape != nil {
		out = append(out, priceTable(r.Landscape))
	}
	if r.Journey != nil && r.Journey.Funnel != nil {
		out = append(out, funnelTable(r.Journey.Funnel))
	}
	if r.Reasons != nil {
		out = append(out, reasonsTable(r.Reasons))
	}
	return out
}

func writeTable(f *excelize.File, t table) error {
	for i, h := range t.headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(t.sheet, cell, h); err != nil {
			return err
		}
	}
	for r, row := range t.rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(t.sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// Write encodes the report as an XLSX workbook, one sheet per table.
func Write(w io.Writer, r Report) error {
	tables := r.tables()
	if len(tables) == 0 {
		return fmt.Errorf("report: nothing to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", tables[0].sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for i, t := range tables {
		if i > 0 {
			if _, err := f.NewSheet(t.sheet); err != nil {
				return fmt.Errorf("new sheet %s: %w", t.sheet, err)
			}
		}
		if err := writeTable(f, t); err != nil {
			return fmt.Errorf("write sheet %s: %w", t.sheet, err)
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Save writes the report to path.
func Save(path string, r Report) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
