// Package report renders the executive export.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/bryanwahyu/decision-ledger/internal/domain/findings"
)

var (
	colorPrimary   = [3]int{30, 58, 95}
	colorTextDark  = [3]int{44, 62, 80}
	colorTextMuted = [3]int{127, 140, 141}
	colorGood      = [3]int{46, 204, 113}
	colorWarning   = [3]int{241, 196, 15}
	colorDanger    = [3]int{231, 76, 60}
	colorTableAlt  = [3]int{241, 245, 249}
)

// Data is everything the export shows.
type Data struct {
	Title         string
	GeneratedAt   time.Time
	Currency      string
	Brief         string
	Findings      []findings.Finding
	Resolved      findings.ResolvedSet
	Rollup        findings.Rollup
	Opportunities findings.OpportunityRollup
}

// PDF renders data as an A4 document.
func PDF(data Data) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	writeHeader(pdf, tr, data)
	writeRollup(pdf, tr, data)

	if b := strings.TrimSpace(data.Brief); b != "" {
		section(pdf, tr, "Executive Brief")
		pdf.SetFont("Arial", "", 10)
		setText(pdf, colorTextDark)
		pdf.MultiCell(0, 5, tr(b), "", "L", false)
	}

	writeFindings(pdf, tr, data)
	writeOpportunities(pdf, tr, data)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("PDF output error: %w", err)
	}
	return buf.Bytes(), nil
}

func writeHeader(pdf *fpdf.Fpdf, tr func(string) string, data Data) {
	title := data.Title
	if title == "" {
		title = "Decision Ledger"
	}
	pdf.SetFont("Arial", "B", 20)
	setText(pdf, colorPrimary)
	pdf.CellFormat(0, 10, tr(title), "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	setText(pdf, colorTextMuted)
	at := data.GeneratedAt
	if at.IsZero() {
		at = time.Now()
	}
	pdf.CellFormat(0, 6, "Generated "+at.UTC().Format("2 Jan 2006 15:04 MST"), "", 1, "L", false, 0, "")
	pdf.Ln(4)
}

func writeRollup(pdf *fpdf.Fpdf, tr func(string) string, data Data) {
	r := data.Rollup
	section(pdf, tr, "Accountability")

	rows := [][2]string{
		{"Active findings", fmt.Sprintf("%d of %d", r.ActiveCount, r.Total)},
		{"Resolved", fmt.Sprintf("%d (%.0f%%)", r.ResolvedCount, r.ResolutionRatio*100)},
		{"Monthly exposure", findings.FormatAmount(data.Currency, r.TotalExposure)},
		{"Daily cost of inaction", findings.FormatAmount(data.Currency, r.DailyExposure)},
		{"Revenue potential", findings.FormatAmount(data.Currency, data.Opportunities.TotalPotential)},
		{"Quick wins", fmt.Sprintf("%d worth %s", data.Opportunities.QuickWinCount, findings.FormatAmount(data.Currency, data.Opportunities.QuickWinValue))},
	}
	pdf.SetFont("Arial", "", 10)
	for _, row := range rows {
		setText(pdf, colorTextMuted)
		pdf.CellFormat(60, 6, tr(row[0]), "", 0, "L", false, 0, "")
		setText(pdf, colorTextDark)
		pdf.CellFormat(0, 6, tr(row[1]), "", 1, "L", false, 0, "")
	}

	c := healthColor(r.Health)
	pdf.SetFillColor(c[0], c[1], c[2])
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(40, 7, strings.ToUpper(string(r.Health)), "", 1, "C", true, 0, "")
	pdf.Ln(3)
}

func writeFindings(pdf *fpdf.Fpdf, tr func(string) string, data Data) {
	if len(data.Findings) == 0 {
		return
	}
	section(pdf, tr, "Findings")

	widths := []float64{10, 16, 94, 50}
	headers := []string{"#", "Tier", "Pattern", "Impact / day"}
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.SetTextColor(255, 255, 255)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for i, f := range findings.PriorityOrder(data.Findings, data.Resolved) {
		fill := i%2 == 1
		pdf.SetFillColor(colorTableAlt[0], colorTableAlt[1], colorTableAlt[2])
		setText(pdf, colorTextDark)
		pdf.CellFormat(widths[0], 6, fmt.Sprint(f.ID), "", 0, "L", fill, 0, "")
		pdf.CellFormat(widths[1], 6, "Tier "+string(f.Tier), "", 0, "L", fill, 0, "")
		pdf.CellFormat(widths[2], 6, tr(truncate(f.Pattern, 60)), "", 0, "L", fill, 0, "")
		pdf.CellFormat(widths[3], 6, tr(findings.FormatAmount(data.Currency, f.DailyCost)), "", 1, "L", fill, 0, "")
	}

	if resolved := findings.Resolved(data.Findings, data.Resolved); len(resolved) > 0 {
		pdf.Ln(2)
		pdf.SetFont("Arial", "I", 9)
		setText(pdf, colorTextMuted)
		for _, f := range resolved {
			pdf.CellFormat(0, 5, tr(fmt.Sprintf("Resolved: #%d %s", f.ID, truncate(f.Pattern, 80))), "", 1, "L", false, 0, "")
		}
	}
	pdf.Ln(3)
}

func writeOpportunities(pdf *fpdf.Fpdf, tr func(string) string, data Data) {
	opps := data.Opportunities.RankedByValue
	if len(opps) == 0 {
		return
	}
	section(pdf, tr, "Revenue Opportunities")
	pdf.SetFont("Arial", "", 9)
	setText(pdf, colorTextDark)
	for _, o := range opps {
		label := o.Pattern
		if o.IsQuickWin {
			label += " (quick win)"
		}
		pdf.CellFormat(130, 6, tr(truncate(label, 80)), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, tr(findings.FormatAmount(data.Currency, o.MaxAmount)), "", 1, "R", false, 0, "")
	}
}

func section(pdf *fpdf.Fpdf, tr func(string) string, title string) {
	pdf.Ln(2)
	pdf.SetFont("Arial", "B", 13)
	setText(pdf, colorPrimary)
	pdf.CellFormat(0, 8, tr(title), "B", 1, "L", false, 0, "")
	pdf.Ln(2)
}

func setText(pdf *fpdf.Fpdf, c [3]int) { pdf.SetTextColor(c[0], c[1], c[2]) }

func healthColor(h findings.Health) [3]int {
	switch h {
	case findings.HealthGood:
		return colorGood
	case findings.HealthWarning:
		return colorWarning
	default:
		return colorDanger
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
