package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	pdfMargin    = 14.0
	pdfRowHeight = 7.0
	pdfBottom    = 15.0
)

var pdfColumns = []struct {
	title string
	width float64
	align string
}{
	{"Date", 28, "L"},
	{"Description", 64, "L"},
	{"Category", 34, "L"},
	{"Type", 22, "L"},
	{"Amount", 34, "R"},
}

// WritePDF renders r as an A4 table. The header row repeats on every page.
func WritePDF(w io.Writer, r Report) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(r.Title(), true)
	pdf.SetCreationDate(r.GeneratedAt)
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfBottom)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Text(pdfMargin, 22, tr(r.Title()))
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.Text(pdfMargin, 30, "Generated on: "+r.GeneratedAt.Format("02 Jan 2006 15:04"))
	pdf.SetY(36)

	header := func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(23, 23, 23)
		pdf.SetTextColor(255, 255, 255)
		for _, c := range pdfColumns {
			pdf.CellFormat(c.width, pdfRowHeight+1, c.title, "", 0, c.align, true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(30, 30, 30)
	}
	header()

	_, pageHeight := pdf.GetPageSize()
	currency := strings.TrimSpace(r.Currency)
	for i, row := range r.Rows {
		if pdf.GetY()+pdfRowHeight > pageHeight-pdfBottom {
			pdf.AddPage()
			header()
		}
		amount := row.Amount.Format()
		if currency != "" {
			amount = currency + " " + amount
		}
		cells := []string{
			row.Date.Format("02 Jan 2006"),
			truncate(row.Description, 40),
			truncate(row.Category, 20),
			capitalize(string(row.Type)),
			amount,
		}
		fill := i%2 == 1
		pdf.SetFillColor(245, 245, 245)
		for j, c := range pdfColumns {
			pdf.CellFormat(c.width, pdfRowHeight, tr(cells[j]), "B", 0, c.align, fill, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
