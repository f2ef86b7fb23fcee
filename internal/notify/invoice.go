package notify

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ariefcatur/go-chipstore/internal/orders"
	"github.com/go-pdf/fpdf"
)

// TaxLabel is printed next to the tax line; the amount itself comes from the order.
const TaxLabel = "Tax (8%)"

type InvoiceRenderer interface {
	Render(ctx context.Context, o *orders.Order) ([]byte, error)
}

// PDFInvoice renders an A4 invoice. Amounts are printed as sent by the client.
type PDFInvoice struct {
	StoreName string
}

func InvoiceNumber(o *orders.Order) string { return "INV-" + o.ID }

func InvoiceFilename(storeName string, o *orders.Order) string {
	return fmt.Sprintf("%s-Invoice-%s.pdf", storeName, o.ID)
}

func money(v float64) string { return fmt.Sprintf("Rs. %.2f", v) }

func (r PDFInvoice) Render(ctx context.Context, o *orders.Order) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetTitle(InvoiceNumber(o), true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// header
	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetTextColor(230, 81, 0)
	pdf.CellFormat(0, 12, tr(r.StoreName), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(90, 90, 90)
	pdf.CellFormat(0, 6, "Premium Chips & Snacks", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "INVOICE", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Invoice #: "+InvoiceNumber(o), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Date: "+o.CreatedAt.Format("02 Jan 2006"), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Payment: "+string(o.PaymentMethod)+" / "+string(o.PaymentStatus), "", 1, "L", false, 0, "")
	if tx := o.TransactionID(); tx != "" {
		pdf.CellFormat(0, 6, "Transaction ID: "+tr(tx), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6, "Bill To", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, tr(o.CustomerName), "", 1, "L", false, 0, "")
	pdf.MultiCell(0, 5, tr(o.Address), "", "L", false)
	pdf.CellFormat(0, 5, tr(o.Email)+"  |  "+tr(o.Phone), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	// items
	widths := []float64{90, 30, 25, 35}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(255, 243, 224)
	for i, h := range []string{"Item", "Price", "Qty", "Amount"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 8, h, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, it := range o.Items {
		pdf.CellFormat(widths[0], 7, tr(it.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, money(it.Price), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 7, fmt.Sprint(it.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, money(it.Price*float64(it.Quantity)), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	summary := func(label, value string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.CellFormat(widths[0]+widths[1]+widths[2], 6, label, "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, value, "", 1, "R", false, 0, "")
	}
	summary("Subtotal", money(o.Subtotal), false)
	summary(TaxLabel, money(o.Tax), false)
	summary("Delivery", "FREE", false)
	summary("Total", money(o.TotalAmount), true)

	pdf.Ln(10)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(90, 90, 90)
	pdf.CellFormat(0, 5, tr("Thank you for shopping with "+r.StoreName+"!"), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", o.ID, err)
	}
	return buf.Bytes(), nil
}
