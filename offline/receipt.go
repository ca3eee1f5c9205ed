package offline

import (
	"bytes"
	"fmt"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"

	"storefront/models"
)

// receiptPayload is what the QR code on a receipt encodes.
func receiptPayload(o models.OfflineOrder) string {
	return fmt.Sprintf("%s|%s|%.2f", o.ID, o.OrderDate, o.TotalAmount)
}

// RenderReceipt draws a one-page A4 receipt with a QR code that identifies
// the order.
func RenderReceipt(o models.OfflineOrder) ([]byte, error) {
	qrPNG, err := qrcode.Encode(receiptPayload(o), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode receipt qr: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Receipt")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	header := []string{
		"Order: " + o.ID,
		"Date: " + o.OrderDate,
	}
	if o.CustomerName != "" {
		header = append(header, "Customer: "+o.CustomerName)
	}
	if o.CustomerPhone != "" {
		header = append(header, "Phone: "+o.CustomerPhone)
	}
	for _, line := range header {
		pdf.Cell(0, 8, line)
		pdf.Ln(7)
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 11)
	widths := []float64{70, 25, 20, 25, 15, 30}
	for i, col := range []string{"Item", "MRP", "Disc %", "Price", "Qty", "Total"} {
		pdf.CellFormat(widths[i], 8, col, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, l := range o.Items {
		cells := []string{
			l.ItemName,
			fmt.Sprintf("%.2f", l.ItemPrice),
			fmt.Sprintf("%.2f", l.Discount),
			fmt.Sprintf("%.2f", l.FinalPrice),
			fmt.Sprintf("%d", l.Quantity),
			fmt.Sprintf("%.2f", l.LineTotal),
		}
		for i, c := range cells {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 7, c, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 11)
	summary := []string{
		fmt.Sprintf("Discount: %.2f%%", o.Discount),
		fmt.Sprintf("Total: %.2f", o.TotalAmount),
		fmt.Sprintf("Paid: %.2f (%s, %s)", o.AmountPaid, o.PaymentMethod, o.PaymentStatus),
		fmt.Sprintf("Balance due: %.2f", o.BalanceDue),
	}
	if o.IsReturned {
		summary = append(summary, "RETURNED")
	}
	for _, line := range summary {
		pdf.Cell(0, 8, line)
		pdf.Ln(7)
	}

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 155, 15, 40, 40, false, imageOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return buf.Bytes(), nil
}
