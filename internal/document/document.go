// Package document renders a requisition into the fixed-layout MPRS
// paper form as a paginated A4 PDF.
package document

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"mprs/internal/domain"
)

// Layout carries the organization block drawn at the top of every page.
type Layout struct {
	Company  string
	Location []string
	Title    string
}

// Page geometry, in millimetres on A4 portrait.
const (
	pageWidth  = 210.0
	pageHeight = 297.0
	margin     = 10.0
	// printable width between the margins
	contentWidth = pageWidth - 2*margin

	metaTop       = 35.0 // metadata block under the first header
	tableTop      = 40.0 // body start on continuation pages
	bottomLimit   = pageHeight - margin
	footerReserve = 20.0 // footer must clear this much above the page end
	footerRestart = 50.0 // footer offset when pushed to a fresh page

	lineHeight = 3.5
	cellPad    = 1.5
)

// Nine body columns; widths sum to contentWidth (190mm).
var (
	colWidths = [9]float64{7, 22, 42, 16, 10, 25, 15, 21, 32}
	colAligns = [9]string{"C", "L", "L", "C", "C", "L", "C", "C", "L"}
	colTitles = [9]string{
		"Sl No",
		"Name of Item",
		"Specification",
		"Required\nQuantity",
		"Unit",
		"Purpose",
		"Lead\nTime\n(Day/s)",
		"Item Code",
		"Remarks",
	}
)

const fallbackName = "MPRS_Slip.pdf"

// Filename derives the download name from the requisition number.
func Filename(req domain.Requisition) string {
	if no := strings.TrimSpace(req.MPRSNo); no != "" {
		return no + ".pdf"
	}
	return fallbackName
}

// Render produces the PDF bytes for one requisition. Any rendering
// failure returns an error and no bytes; a partially built document is
// never handed out.
func Render(layout Layout, req domain.Requisition) ([]byte, error) {
	doc, err := render(layout, req)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render document: %w", err)
	}
	return buf.Bytes(), nil
}

// render builds the document without serializing it, so tests can
// inspect page counts.
func render(layout Layout, req domain.Requisition) (doc *gofpdf.Fpdf, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("render document: %v", r)
		}
	}()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetTextColor(0, 0, 0)
	pdf.AddPage()
	drawHeader(pdf, layout)

	y := drawMeta(pdf, req, metaTop)
	y = drawBody(pdf, layout, req, y+5)
	drawFooter(pdf, layout, y)

	if pdf.Err() {
		return nil, fmt.Errorf("render document: %w", pdf.Error())
	}
	return pdf, nil
}

// drawHeader paints the centered organization block and document title.
func drawHeader(pdf *gofpdf.Fpdf, layout Layout) {
	pdf.SetFont("Helvetica", "B", 16)
	centerText(pdf, layout.Company, 15)
	pdf.SetFont("Helvetica", "", 10)
	y := 20.0
	for _, line := range layout.Location {
		centerText(pdf, line, y)
		y += 5
	}
	pdf.SetFont("Helvetica", "B", 11)
	centerText(pdf, layout.Title, 31)
}

func centerText(pdf *gofpdf.Fpdf, s string, y float64) {
	pdf.Text(pageWidth/2-pdf.GetStringWidth(s)/2, y, s)
}

// drawMeta paints the one-time metadata grid below the first header and
// returns the y it ends at.
func drawMeta(pdf *gofpdf.Fpdf, req domain.Requisition, y float64) float64 {
	const labelWidth = 40.0
	rows := [4][2]string{
		{"Requisition Title :", req.Title},
		{"Department :", req.Department},
		{"MPRS No :", req.MPRSNo},
		{"MPRS Date :", req.MPRSDate},
	}
	pdf.SetLineWidth(0.1)
	rowH := lineHeight + 2*cellPad
	for _, row := range rows {
		pdf.Rect(margin, y, labelWidth, rowH, "D")
		pdf.Rect(margin+labelWidth, y, contentWidth-labelWidth, rowH, "D")
		pdf.SetFont("Helvetica", "B", 9)
		pdf.Text(margin+cellPad, y+rowH-cellPad-0.5, row[0])
		pdf.SetFont("Helvetica", "", 9)
		pdf.Text(margin+labelWidth+cellPad, y+rowH-cellPad-0.5, row[1])
		y += rowH
	}
	return y
}

// drawBody paints the nine-column item table starting at y and returns
// the y just below its last row. The column header repeats at the top of
// every page the body spans; the page header block is redrawn on every
// page started here.
func drawBody(pdf *gofpdf.Fpdf, layout Layout, req domain.Requisition, y float64) float64 {
	pdf.SetLineWidth(0.2)
	y = drawTableHead(pdf, y)
	for i, item := range req.Items {
		cells := [9]string{
			strconv.Itoa(i + 1),
			item.ItemName,
			item.Specification,
			item.Quantity,
			item.Unit,
			item.Purpose,
			item.LeadTime,
			item.ItemCode,
			item.Remarks,
		}
		pdf.SetFont("Helvetica", "", 8)
		lines, rowH := wrapCells(pdf, cells)
		if y+rowH > bottomLimit {
			pdf.AddPage()
			drawHeader(pdf, layout)
			pdf.SetLineWidth(0.2)
			y = drawTableHead(pdf, tableTop)
			pdf.SetFont("Helvetica", "", 8)
		}
		drawRow(pdf, y, rowH, lines, colAligns)
		y += rowH
	}
	return y
}

func drawTableHead(pdf *gofpdf.Fpdf, y float64) float64 {
	pdf.SetFont("Helvetica", "B", 8)
	var lines [9][]string
	rowH := 0.0
	for i, title := range colTitles {
		lines[i] = strings.Split(title, "\n")
		if h := float64(len(lines[i]))*lineHeight + 2*cellPad; h > rowH {
			rowH = h
		}
	}
	aligns := [9]string{}
	for i := range aligns {
		aligns[i] = "C"
	}
	drawRow(pdf, y, rowH, lines, aligns)
	return y + rowH
}

// wrapCells word-wraps each cell to its column width and returns the
// wrapped lines plus the uniform row height they need.
func wrapCells(pdf *gofpdf.Fpdf, cells [9]string) ([9][]string, float64) {
	var lines [9][]string
	maxLines := 1
	for i, text := range cells {
		if text == "" {
			lines[i] = nil
			continue
		}
		lines[i] = pdf.SplitText(text, colWidths[i]-2*cellPad)
		if len(lines[i]) > maxLines {
			maxLines = len(lines[i])
		}
	}
	return lines, float64(maxLines)*lineHeight + 2*cellPad
}

// drawRow paints one bordered table row of pre-wrapped cell lines.
func drawRow(pdf *gofpdf.Fpdf, y, rowH float64, lines [9][]string, aligns [9]string) {
	x := margin
	for i, w := range colWidths {
		pdf.Rect(x, y, w, rowH, "D")
		ty := y + cellPad + lineHeight - 0.7
		for _, line := range lines[i] {
			tx := x + cellPad
			if aligns[i] == "C" {
				tx = x + w/2 - pdf.GetStringWidth(line)/2
			}
			pdf.Text(tx, ty, line)
			ty += lineHeight
		}
		x += w
	}
}

// drawFooter paints the four signature labels evenly spaced across the
// printable width, 30mm below the table. When that would land inside the
// bottom reserve, the footer moves to a fresh page with the header
// redrawn and sits at a fixed offset instead.
func drawFooter(pdf *gofpdf.Fpdf, layout Layout, tableEnd float64) {
	labels := []string{"Requisition By", "Store Department", "Plant In-charge", "Approved By"}
	y := tableEnd + 30
	if y > pageHeight-footerReserve {
		pdf.AddPage()
		drawHeader(pdf, layout)
		y = footerRestart
	}
	pdf.SetFont("Helvetica", "", 9)
	spacing := contentWidth / float64(len(labels))
	for i, label := range labels {
		x := margin + float64(i)*spacing + spacing/2
		pdf.Text(x-pdf.GetStringWidth(label)/2, y, label)
	}
}
