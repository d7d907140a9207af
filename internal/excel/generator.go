package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nurpe/engagements/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// LedgerStatement builds a workbook with the engagement's financial state:
// a summary sheet plus detail sheets for terms, receipts and fee advices.
func (g *Generator) LedgerStatement(wo *model.WorkOrder) ([]byte, error) {
	file := excelize.NewFile()

	summarySheet := "Summary"
	file.SetSheetName("Sheet1", summarySheet)
	if err := g.writeSummary(file, summarySheet, wo); err != nil {
		return nil, err
	}

	termsSheet := "Payment Terms"
	file.NewSheet(termsSheet)
	if err := g.writeTerms(file, termsSheet, wo.Breakdown.PaymentTerms); err != nil {
		return nil, err
	}

	receiptsSheet := "Receipts"
	file.NewSheet(receiptsSheet)
	if err := g.writeReceipts(file, receiptsSheet, wo.Breakdown.MoneyReceipts); err != nil {
		return nil, err
	}

	if len(wo.Breakdown.FeeAdvices) > 0 {
		advicesSheet := "Fee Advices"
		file.NewSheet(advicesSheet)
		if err := g.writeFeeAdvices(file, advicesSheet, wo.Breakdown.FeeAdvices); err != nil {
			return nil, err
		}
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, wo *model.WorkOrder) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	received := int64(0)
	for _, receipt := range wo.Breakdown.MoneyReceipts {
		received += receipt.Amount
	}

	set("A1", "Engagement")
	set("B1", wo.Reference)
	set("A2", "Status")
	set("B2", string(wo.Status))
	set("A3", "Service Seeker")
	set("B3", wo.Seeker.Name)
	set("A4", "Service Provider")
	set("B4", wo.Provider.Name)
	set("A5", "Created")
	set("B5", formatDate(wo.CreatedAt))

	tableRow := 7
	lines := [][2]interface{}{
		{"Professional fee", formatMoney(wo.Breakdown.ProfessionalFee)},
		{"Platform fee", formatMoney(wo.Breakdown.PlatformFee)},
		{"GST", formatMoney(wo.Breakdown.GST)},
		{"Reimbursements", formatMoney(wo.Breakdown.Reimbursements)},
		{"Regulatory payouts", formatMoney(wo.Breakdown.RegulatoryPayouts)},
		{"Out-of-pocket expenses", formatMoney(wo.Breakdown.OPE)},
		{"Total amount", formatMoney(wo.Breakdown.TotalAmount)},
		{"Received to date", formatMoney(received)},
		{"Outstanding", formatMoney(wo.Breakdown.TotalAmount - received)},
	}
	for i, line := range lines {
		row := tableRow + i
		set(fmt.Sprintf("A%d", row), line[0])
		set(fmt.Sprintf("B%d", row), line[1])
	}

	_ = file.SetColWidth(sheet, "A", "A", 28)
	_ = file.SetColWidth(sheet, "B", "B", 24)
	return nil
}

func (g *Generator) writeTerms(file *excelize.File, sheet string, terms []model.PaymentTerm) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{"Stage", "Percentage", "Amount", "Upfront", "Due Date", "Status", "Paid Date"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		set(cell, header)
	}

	for i, term := range terms {
		row := 2 + i
		set(fmt.Sprintf("A%d", row), term.StageLabel)
		set(fmt.Sprintf("B%d", row), fmt.Sprintf("%.1f%%", term.Percentage))
		set(fmt.Sprintf("C%d", row), formatMoney(term.Amount))
		set(fmt.Sprintf("D%d", row), term.Upfront)
		set(fmt.Sprintf("E%d", row), formatDate(term.DueDate))
		set(fmt.Sprintf("F%d", row), string(term.Status))
		set(fmt.Sprintf("G%d", row), formatDatePtr(term.PaidDate))
	}

	_ = file.SetColWidth(sheet, "A", "A", 32)
	_ = file.SetColWidth(sheet, "B", "G", 14)
	return nil
}

func (g *Generator) writeReceipts(file *excelize.File, sheet string, receipts []model.MoneyReceipt) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{"Received At", "Amount", "Method", "Reference"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		set(cell, header)
	}

	for i, receipt := range receipts {
		row := 2 + i
		set(fmt.Sprintf("A%d", row), formatDateTime(receipt.ReceivedAt))
		set(fmt.Sprintf("B%d", row), formatMoney(receipt.Amount))
		set(fmt.Sprintf("C%d", row), receipt.Method)
		set(fmt.Sprintf("D%d", row), receipt.Reference)
	}

	_ = file.SetColWidth(sheet, "A", "A", 20)
	_ = file.SetColWidth(sheet, "B", "C", 14)
	_ = file.SetColWidth(sheet, "D", "D", 32)
	return nil
}

func (g *Generator) writeFeeAdvices(file *excelize.File, sheet string, advices []model.FeeAdvice) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{"Requested At", "Amount", "Description", "Status", "Decided At", "Reason"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		set(cell, header)
	}

	for i, advice := range advices {
		row := 2 + i
		set(fmt.Sprintf("A%d", row), formatDateTime(advice.RequestedAt))
		set(fmt.Sprintf("B%d", row), formatMoney(advice.Amount))
		set(fmt.Sprintf("C%d", row), advice.Description)
		set(fmt.Sprintf("D%d", row), string(advice.Status))
		set(fmt.Sprintf("E%d", row), formatDateTimePtr(advice.DecidedAt))
		set(fmt.Sprintf("F%d", row), advice.Reason)
	}

	_ = file.SetColWidth(sheet, "A", "A", 20)
	_ = file.SetColWidth(sheet, "B", "B", 14)
	_ = file.SetColWidth(sheet, "C", "C", 40)
	_ = file.SetColWidth(sheet, "D", "E", 18)
	_ = file.SetColWidth(sheet, "F", "F", 32)
	return nil
}

func formatMoney(minor int64) string {
	cents := minor % 100
	if cents < 0 {
		cents = -cents
	}
	return fmt.Sprintf("%d.%02d", minor/100, cents)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDate(*t)
}

func formatDateTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDateTime(*t)
}
