package pdf

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf/v2"

	"lpg-backend/internal/billing"
	"lpg-backend/internal/models"
	"lpg-backend/internal/timeutil"
)

// RenderInvoice produces the printable A4 invoice document for a bill
// snapshot. Amounts print as "Rs." because the core fonts carry no rupee glyph.
func RenderInvoice(inv *models.InvoiceWithDetails) ([]byte, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetTitle("Invoice "+inv.InvoiceNumber, false)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 18)
	doc.Cell(0, 12, "TAX INVOICE")
	doc.Ln(14)

	doc.SetFont("Helvetica", "", 11)
	doc.Cell(0, 6, fmt.Sprintf("Invoice No: %s", inv.InvoiceNumber))
	doc.Ln(6)
	doc.Cell(0, 6, fmt.Sprintf("Date: %s", timeutil.FormatIST(inv.CreatedAt, timeutil.DisplayLayout)))
	doc.Ln(10)

	doc.SetFont("Helvetica", "B", 12)
	doc.Cell(0, 6, "Billed To")
	doc.Ln(7)
	doc.SetFont("Helvetica", "", 11)
	doc.Cell(0, 6, fmt.Sprintf("%s (Customer #%d)", inv.CustomerName, inv.CustomerCode))
	doc.Ln(6)
	doc.Cell(0, 6, fmt.Sprintf("Billing period: %s", timeutil.FormatIST(inv.PeriodStart, timeutil.MonthLayout)))
	doc.Ln(10)

	line := func(label string, amount float64) {
		doc.SetFont("Helvetica", "", 11)
		doc.CellFormat(120, 8, label, "1", 0, "L", false, 0, "")
		doc.CellFormat(50, 8, fmt.Sprintf("Rs. %.2f", amount), "1", 1, "R", false, 0, "")
	}

	doc.SetFont("Helvetica", "B", 11)
	doc.CellFormat(120, 8, "Description", "1", 0, "L", false, 0, "")
	doc.CellFormat(50, 8, "Amount", "1", 1, "R", false, 0, "")

	line(fmt.Sprintf("Cylinder deliveries (%d cylinders)", inv.CylinderCount), inv.PeriodCharge)
	line("Previous balance carried forward", inv.PriorBalance)
	line("Paid to date", inv.Paid)

	doc.SetFont("Helvetica", "B", 12)
	doc.CellFormat(120, 9, "Balance due", "1", 0, "L", false, 0, "")
	doc.CellFormat(50, 9, fmt.Sprintf("Rs. %.2f", billing.Remaining(inv.TotalAmount, inv.Paid)), "1", 1, "R", false, 0, "")

	doc.Ln(12)
	doc.SetFont("Helvetica", "I", 9)
	doc.Cell(0, 5, "Computer generated invoice. Payments against this statement are frozen until the invoice is cancelled.")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}
