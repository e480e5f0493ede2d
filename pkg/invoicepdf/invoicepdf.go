// Package invoicepdf renders sales invoices as A4 PDF documents.
package invoicepdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

type Line struct {
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

// Document is the presentation view of a stored sales invoice.
type Document struct {
	ShopName      string
	Number        string
	IssuedAt      time.Time
	DateLayout    string
	Currency      string
	CustomerName  string
	CustomerEmail string
	Lines         []Line
	Subtotal      decimal.Decimal
	TaxRate       decimal.Decimal
	TaxAmount     decimal.Decimal
	Total         decimal.Decimal
	Notes         string
}

const (
	maxDescriptionRunes = 40
	maxNotesRunes       = 200
	pageBottom          = 270.0
)

func Render(doc Document) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	if doc.ShopName != "" {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 6, doc.ShopName, "", 1, "L", false, 0, "")
	}

	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 10, "Sales Invoice "+doc.Number, "", 1, "L", false, 0, "")

	layout := doc.DateLayout
	if layout == "" {
		layout = "02/01/2006 15:04"
	}
	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(0, 7, "Date: "+doc.IssuedAt.Format(layout), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, "Customer: "+doc.CustomerName, "", 1, "L", false, 0, "")
	if doc.CustomerEmail != "" {
		pdf.CellFormat(0, 7, "Email: "+doc.CustomerEmail, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	header := func() {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(90, 7, "Description", "B", 0, "L", false, 0, "")
		pdf.CellFormat(20, 7, "Qty", "B", 0, "R", false, 0, "")
		pdf.CellFormat(32, 7, "Unit Price", "B", 0, "R", false, 0, "")
		pdf.CellFormat(32, 7, "Line Total", "B", 1, "R", false, 0, "")
		pdf.SetFont("Arial", "", 11)
	}
	header()

	for _, line := range doc.Lines {
		if pdf.GetY() > pageBottom {
			pdf.AddPage()
			header()
		}
		pdf.CellFormat(90, 6, truncate(line.Description, maxDescriptionRunes), "", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprint(line.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(32, 6, money(line.UnitPrice), "", 0, "R", false, 0, "")
		pdf.CellFormat(32, 6, money(line.LineTotal), "", 1, "R", false, 0, "")
	}

	if pdf.GetY() > pageBottom-30 {
		pdf.AddPage()
	}
	pdf.Ln(4)
	totals := func(label, value string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Arial", style, 12)
		pdf.CellFormat(142, 7, label, "", 0, "R", false, 0, "")
		pdf.CellFormat(32, 7, value, "", 1, "R", false, 0, "")
	}
	totals("Subtotal:", money(doc.Subtotal), false)
	totals(fmt.Sprintf("Tax (%s%%):", doc.TaxRate.String()), money(doc.TaxAmount), false)
	totals(totalLabel(doc.Currency), money(doc.Total), true)

	if doc.Notes != "" {
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 7, "Notes:", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.MultiCell(0, 6, truncate(doc.Notes, maxNotesRunes), "", "L", false)
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", doc.Number, err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Filename is the download name for an invoice number.
func Filename(number string) string {
	return number + ".pdf"
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func totalLabel(currency string) string {
	if currency == "" {
		return "Total:"
	}
	return fmt.Sprintf("Total (%s):", currency)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
