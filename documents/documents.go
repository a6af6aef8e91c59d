// Package documents renders orders as PDF invoices, receipts and reports.
// Renderers print the amounts they are given and never recompute them.
package documents

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/sweetdelights/bakery-api/repository"
)

// Renderer holds the branding shared by every document.
type Renderer struct {
	BusinessName string
	// Compress toggles stream compression; tests turn it off to inspect text.
	Compress bool
}

// NewRenderer returns a renderer for businessName.
func NewRenderer(businessName string) *Renderer {
	return &Renderer{BusinessName: businessName, Compress: true}
}

// TotalsRow is one label/amount line of a totals block.
type TotalsRow struct {
	Label    string
	Amount   string
	Emphasis bool
}

// TotalsRows lists the totals block of an order. The discount line only
// appears when a discount was applied and is positive.
func TotalsRows(order *repository.OrderView) []TotalsRow {
	rows := []TotalsRow{{Label: "Subtotal:", Amount: Money(order.Subtotal)}}
	if order.ShowDiscount() {
		rows = append(rows, TotalsRow{Label: "Discount (4%):", Amount: "-" + Money(order.DiscountAmount)})
	}
	return append(rows, TotalsRow{Label: "TOTAL AMOUNT:", Amount: Money(order.FinalTotal), Emphasis: true})
}

// Money formats an amount with two decimals and a dollar sign.
func Money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func (r *Renderer) newDocument(orientation string, size fpdf.SizeType) *fpdf.Fpdf {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: orientation,
		UnitStr:        "mm",
		Size:           size,
	})
	pdf.SetCompression(r.Compress)
	pdf.SetCreator(r.BusinessName, true)
	pdf.SetAuthor(r.BusinessName, true)
	return pdf
}

var a4 = fpdf.SizeType{Wd: 210, Ht: 297}

// RenderInvoice writes a one-order A4 invoice to w.
func (r *Renderer) RenderInvoice(w io.Writer, order *repository.OrderView) error {
	pdf := r.newDocument("P", a4)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Invoice "+order.OrderID, true)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetTextColor(139, 69, 19)
	pdf.CellFormat(0, 12, tr(r.BusinessName), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 10, "INVOICE", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 11)
	details := [][2]string{
		{"Invoice #:", order.OrderID},
		{"Customer:", order.CustomerName},
		{"Date:", order.OrderDate.Format("January 02, 2006 03:04 PM")},
		{"Payment Method:", order.PaymentLabel},
	}
	if order.CustomerEmail != "" {
		details = append(details, [2]string{"Email:", order.CustomerEmail})
	}
	if order.CustomerPhone != "" {
		details = append(details, [2]string{"Phone:", order.CustomerPhone})
	}
	for _, d := range details {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(40, 7, d[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 7, tr(d[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	widths := []float64{90, 20, 35, 35}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(139, 69, 19)
	pdf.SetTextColor(255, 255, 255)
	for i, h := range []string{"Product", "Qty", "Unit Price", "Total"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 8, h, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFillColor(250, 240, 230)
	for i, item := range order.Items {
		fill := i%2 == 1
		pdf.CellFormat(widths[0], 7, tr(item.ProductName), "1", 0, "L", fill, 0, "")
		pdf.CellFormat(widths[1], 7, fmt.Sprintf("%d", item.Quantity), "1", 0, "R", fill, 0, "")
		pdf.CellFormat(widths[2], 7, Money(item.UnitPrice), "1", 0, "R", fill, 0, "")
		pdf.CellFormat(widths[3], 7, Money(item.LineTotal), "1", 1, "R", fill, 0, "")
	}
	pdf.Ln(4)

	for _, row := range TotalsRows(order) {
		size := 11.0
		style := ""
		if row.Emphasis {
			size, style = 13, "B"
		}
		pdf.SetFont("Helvetica", style, size)
		pdf.CellFormat(widths[0]+widths[1]+widths[2], 8, row.Label, "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 8, row.Amount, "", 1, "R", false, 0, "")
	}

	if order.ShowDiscount() {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(0, 128, 0)
		pdf.CellFormat(0, 8, fmt.Sprintf("Congratulations! You saved %s with our 4%% discount.", Money(order.DiscountAmount)),
			"", 1, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}

	pdf.Ln(12)
	pdf.SetFont("Helvetica", "I", 11)
	pdf.CellFormat(0, 8, "Thank you for your business!", "", 1, "C", false, 0, "")

	return pdf.Output(w)
}

// RenderReceipt writes a narrow till receipt to w.
func (r *Renderer) RenderReceipt(w io.Writer, order *repository.OrderView) error {
	height := 110 + float64(len(order.Items))*10
	pdf := r.newDocument("P", fpdf.SizeType{Wd: 80, Ht: height})
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Receipt "+order.OrderID, true)
	pdf.SetMargins(5, 5, 5)
	pdf.SetAutoPageBreak(false, 5)
	pdf.AddPage()

	pdf.SetFont("Courier", "B", 12)
	pdf.CellFormat(0, 6, tr(r.BusinessName), "", 1, "C", false, 0, "")
	pdf.SetFont("Courier", "", 8)
	pdf.CellFormat(0, 4, "RECEIPT", "", 1, "C", false, 0, "")
	rule(pdf)

	pdf.CellFormat(0, 4, "Order: "+order.OrderID, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 4, "Date:  "+order.OrderDate.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 4, tr("Customer: "+order.CustomerName), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 4, "Payment: "+order.PaymentLabel, "", 1, "L", false, 0, "")
	rule(pdf)

	for _, item := range order.Items {
		pdf.CellFormat(0, 4, tr(item.ProductName), "", 1, "L", false, 0, "")
		pdf.CellFormat(45, 4, fmt.Sprintf("  %d x %s", item.Quantity, Money(item.UnitPrice)), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 4, Money(item.LineTotal), "", 1, "R", false, 0, "")
	}
	rule(pdf)

	for _, row := range TotalsRows(order) {
		style := ""
		if row.Emphasis {
			style = "B"
		}
		pdf.SetFont("Courier", style, 8)
		pdf.CellFormat(45, 5, row.Label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 5, row.Amount, "", 1, "R", false, 0, "")
	}
	rule(pdf)

	pdf.SetFont("Courier", "", 8)
	pdf.CellFormat(0, 4, "Thank you for your business!", "", 1, "C", false, 0, "")
	return pdf.Output(w)
}

func rule(pdf *fpdf.Fpdf) {
	pdf.Ln(1)
	x, y := pdf.GetX(), pdf.GetY()
	left, _, right, _ := pdf.GetMargins()
	pageW, _ := pdf.GetPageSize()
	pdf.SetDashPattern([]float64{1, 1}, 0)
	pdf.Line(left, y, pageW-right, y)
	pdf.SetDashPattern([]float64{}, 0)
	pdf.SetXY(x, y+1.5)
}

// RenderOrdersReport writes the all-orders report, landscape A4, to w.
func (r *Renderer) RenderOrdersReport(w io.Writer, report *repository.OrdersReport) error {
	pdf := r.newDocument("L", a4)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("All Orders Report", true)
	pdf.AliasNbPages("")

	widths := []float64{45, 60, 30, 30, 30, 20, 25, 27}
	header := []string{"Order ID", "Customer Name", "Total Amount", "Date", "Payment", "Items", "Quantity", "Discount"}
	drawHeader := func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(139, 69, 19)
		pdf.SetTextColor(255, 255, 255)
		for i, h := range header {
			pdf.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetTextColor(0, 0, 0)
	}

	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() > 1 {
			drawHeader()
		}
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, tr(r.BusinessName+" - All Orders Report"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Generated on: "+report.GeneratedAt.Format("January 02, 2006 at 03:04 PM"), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	drawHeader()
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetFillColor(250, 240, 230)
	for i, line := range report.Lines {
		o := line.Order
		discount := "None"
		if o.ShowDiscount() {
			discount = Money(o.DiscountAmount)
		}
		cells := []string{
			o.OrderID,
			o.CustomerName,
			Money(o.FinalTotal),
			o.OrderDate.Format("01/02/2006"),
			o.PaymentLabel,
			fmt.Sprintf("%d", line.ItemCount),
			fmt.Sprintf("%d", line.TotalQuantity),
			discount,
		}
		fill := i%2 == 1
		for j, c := range cells {
			align := "C"
			if j == 1 {
				align = "L"
			}
			pdf.CellFormat(widths[j], 7, tr(c), "1", 0, align, fill, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(8)

	summary := [][2]string{
		{"Total Revenue:", Money(report.TotalRevenue)},
		{"Total Orders:", fmt.Sprintf("%d", report.TotalOrders)},
		{"Total Items Sold:", fmt.Sprintf("%d", report.TotalItems)},
		{"Total Discount Given:", Money(report.TotalDiscount)},
	}
	for _, s := range summary {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(200, 7, s[0], "", 0, "R", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(40, 7, s[1], "", 1, "R", false, 0, "")
	}

	return pdf.Output(w)
}

// Filename returns the download name for a document about orderID.
func Filename(kind, orderID string) string {
	return fmt.Sprintf("%s_%s.pdf", kind, orderID)
}

// ReportFilename returns the download name for a report generated at t.
func ReportFilename(t time.Time) string {
	return fmt.Sprintf("all_orders_report_%s.pdf", t.Format("20060102_150405"))
}
