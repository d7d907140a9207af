package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/nurpe/engagements/internal/model"
)

type Generator struct {
	fontName string
}

func NewGenerator() *Generator {
	return &Generator{fontName: "Helvetica"}
}

// Proforma renders the engagement letter for a work order: parties, scope,
// the fee breakdown, the payment schedule and the signature blocks.
func (g *Generator) Proforma(wo *model.WorkOrder) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, "Proforma Engagement Letter", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Engagement %s dated %s", wo.Reference, formatDate(wo.CreatedAt)), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Status: %s", wo.Status), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	addPartyBlock(pdf, g.fontName, "Service Seeker", wo.Seeker)
	pdf.Ln(2)
	addPartyBlock(pdf, g.fontName, "Service Provider", wo.Provider)
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Scope of Work", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
	pdf.MultiCell(0, 5, safeValue(wo.ScopeOfWork), "", "L", false)
	for _, deliverable := range wo.Deliverables {
		pdf.MultiCell(0, 5, fmt.Sprintf("- %s", deliverable), "", "L", false)
	}
	pdf.Ln(2)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Timeline", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("From %s until %s", formatDate(wo.Timeline.StartAt), formatDate(wo.Timeline.ExpectedCompletionAt)), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Fees", "", 1, "L", false, 0, "")

	feeWidths := []float64{120, 60}
	drawTableRow(pdf, g.fontName, []string{"Component", "Amount"}, feeWidths, true)
	rows := [][2]string{
		{"Professional fee", formatMoney(wo.Breakdown.ProfessionalFee)},
		{"Platform fee", formatMoney(wo.Breakdown.PlatformFee)},
		{"GST", formatMoney(wo.Breakdown.GST)},
		{"Reimbursements", formatMoney(wo.Breakdown.Reimbursements)},
		{"Regulatory payouts", formatMoney(wo.Breakdown.RegulatoryPayouts)},
		{"Out-of-pocket expenses", formatMoney(wo.Breakdown.OPE)},
	}
	for _, row := range rows {
		drawTableRow(pdf, g.fontName, row[:], feeWidths, false)
	}
	pdf.SetFont(g.fontName, "B", 10)
	drawTableRow(pdf, g.fontName, []string{"Total", formatMoney(wo.Breakdown.TotalAmount)}, feeWidths, true)
	pdf.Ln(2)

	if len(wo.Breakdown.PaymentTerms) > 0 {
		pdf.SetFont(g.fontName, "B", 12)
		pdf.CellFormat(0, 8, "Payment Schedule", "", 1, "L", false, 0, "")

		termWidths := []float64{70, 25, 35, 30, 20}
		drawTableRow(pdf, g.fontName, []string{"Stage", "Share", "Amount", "Due", "Status"}, termWidths, true)
		for _, term := range wo.Breakdown.PaymentTerms {
			drawTableRow(pdf, g.fontName, []string{
				term.StageLabel,
				fmt.Sprintf("%.1f%%", term.Percentage),
				formatMoney(term.Amount),
				formatDate(term.DueDate),
				string(term.Status),
			}, termWidths, false)
		}
		pdf.Ln(2)
	}

	pdf.Ln(4)
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Signatures", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)

	signatureBlock(pdf, g.fontName, "Service Seeker", wo.Seeker.Name, wo.Signatures.Seeker)
	signatureBlock(pdf, g.fontName, "Service Provider", wo.Provider.Name, wo.Signatures.Provider)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func addPartyBlock(pdf *gofpdf.Fpdf, fontName, title string, party model.Party) {
	pdf.SetFont(fontName, "B", 11)
	pdf.CellFormat(0, 6, title, "", 1, "L", false, 0, "")
	pdf.SetFont(fontName, "", 10)
	lines := []string{
		safeValue(party.Name),
		fmt.Sprintf("Tax ID: %s", safeValue(party.TaxID)),
		fmt.Sprintf("Email: %s", safeValue(party.Email)),
		fmt.Sprintf("Phone: %s", safeValue(party.Phone)),
	}
	for _, line := range lines {
		pdf.MultiCell(0, 5, line, "", "L", false)
	}
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, col := range cols {
		align := "L"
		if i > 0 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 8, col, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func signatureBlock(pdf *gofpdf.Fpdf, fontName, label, name string, sig *model.Signature) {
	pdf.SetFont(fontName, "", 11)
	if sig != nil {
		pdf.CellFormat(0, 6, fmt.Sprintf("%s: signed (%s) on %s /%s/", label, sig.Type, formatDate(sig.SignedAt), safeValue(name)), "", 1, "L", false, 0, "")
		return
	}
	pdf.CellFormat(0, 6, fmt.Sprintf("%s: ______________________ /%s/", label, safeValue(name)), "", 1, "L", false, 0, "")
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func formatMoney(minor int64) string {
	return fmt.Sprintf("%d.%02d", minor/100, abs(minor%100))
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02.01.2006")
}
