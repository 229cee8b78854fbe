package export

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
)

const (
	pdfMargin     = 10.0
	pdfRowHeight  = 6.0
	pdfKeyWidth   = 42.0
	pdfFooterSkip = 15.0
)

// WritePDF renders doc as a landscape A4 document. Every page carries the
// title block in the header and "Page n/N" in the footer; table headers
// repeat after a page break.
func WritePDF(w io.Writer, doc Document) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfFooterSkip)
	pdf.SetTitle(doc.Title, true)
	pdf.SetSubject(doc.Filter, true)
	pdf.SetKeywords("export-id:"+doc.ID, false)
	pdf.SetCreator("agency-reports", false)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 8, tr(doc.Title), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(0, 5, tr(fmt.Sprintf("Generated %s  |  %s", doc.GeneratedAt.Format(time.RFC1123), doc.Filter)), "", 1, "L", false, 0, "")
		pdf.Ln(3)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-pdfFooterSkip + 3)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pageW, pageH := pdf.GetPageSize()
	usable := pageW - 2*pdfMargin

	for i, t := range doc.Tables {
		if i == 0 || pdf.GetY()+3*pdfRowHeight > pageH-pdfFooterSkip {
			pdf.AddPage()
		} else {
			pdf.Ln(4)
		}
		widths := columnWidths(t, usable)

		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 7, tr(t.Name), "", 1, "L", false, 0, "")
		drawHeader := func() {
			pdf.SetFont("Helvetica", "B", 8)
			pdf.SetFillColor(230, 230, 230)
			for j, h := range t.Headers {
				pdf.CellFormat(widths[j], pdfRowHeight, tr(h), "1", 0, "C", true, 0, "")
			}
			pdf.Ln(-1)
			pdf.SetFont("Helvetica", "", 8)
		}
		drawHeader()

		if len(t.Rows) == 0 {
			pdf.CellFormat(usable, pdfRowHeight, "No records", "1", 1, "C", false, 0, "")
			continue
		}
		for _, row := range t.Rows {
			if pdf.GetY()+pdfRowHeight > pageH-pdfFooterSkip {
				pdf.AddPage()
				drawHeader()
			}
			for j, c := range row {
				align := "R"
				if j == 0 || (len(t.Headers) > 1 && t.Headers[j] == "Suburb") {
					align = "L"
				}
				pdf.CellFormat(widths[j], pdfRowHeight, tr(c.Text), "1", 0, align, false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf: %w", err)
	}
	return nil
}

// columnWidths gives key columns a fixed width and splits the rest evenly.
func columnWidths(t Table, usable float64) []float64 {
	widths := make([]float64, len(t.Headers))
	if len(widths) == 2 {
		widths[0], widths[1] = usable/2, usable/2
		return widths
	}
	keys := 1
	if len(t.Headers) > 1 && t.Headers[1] == "Suburb" {
		keys = 2
	}
	rest := (usable - float64(keys)*pdfKeyWidth) / float64(len(widths)-keys)
	for i := range widths {
		if i < keys {
			widths[i] = pdfKeyWidth
		} else {
			widths[i] = rest
		}
	}
	return widths
}
