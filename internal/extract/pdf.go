package extract

import (
	"fmt"
	"log"
	"strings"

	"github.com/ledongthuc/pdf"
)

// cellGap is the horizontal whitespace, in PDF points, that separates two
// table cells. Word gaps inside a cell are narrower than this.
const cellGap = 12.0

// ReadPDF extracts the per-page tables and raw text of a PDF document.
// A page that cannot be read is skipped; the rest of the document still
// yields items.
func ReadPDF(path string) (Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	var doc Document
	for num := 1; num <= reader.NumPage(); num++ {
		page := reader.Page(num)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			log.Printf("[extract] WARNING: skipping page %d of %s: %v", num, path, err)
			continue
		}

		doc.Pages = append(doc.Pages, pageFromRows(rows))
	}

	return doc, nil
}

// pageFromRows rebuilds a Page from positioned text rows: cells are split
// on horizontal gaps, the raw text is the space-joined rows, and rows with
// two or more cells form the page's table.
func pageFromRows(rows pdf.Rows) Page {
	var (
		lines []string
		table Table
	)

	for _, row := range rows {
		cells := rowCells(row)
		if len(cells) == 0 {
			continue
		}
		lines = append(lines, strings.Join(cells, "  "))
		if len(cells) >= 2 {
			table = append(table, cells)
		}
	}

	page := Page{Text: strings.Join(lines, "\n")}
	if len(table) >= 2 {
		page.Tables = append(page.Tables, table)
	}
	return page
}

// rowCells groups the positioned words of one text row into cells, starting
// a new cell wherever the horizontal gap exceeds cellGap.
func rowCells(row *pdf.Row) []string {
	var (
		cells []string
		cur   strings.Builder
		endX  float64
	)

	for _, word := range row.Content {
		if word.S == "" {
			continue
		}
		if cur.Len() > 0 {
			if word.X-endX > cellGap {
				cells = appendCell(cells, &cur)
			} else {
				cur.WriteByte(' ')
			}
		}
		cur.WriteString(word.S)
		endX = word.X + word.W
	}

	return appendCell(cells, &cur)
}

func appendCell(cells []string, cur *strings.Builder) []string {
	cell := strings.TrimSpace(cur.String())
	cur.Reset()
	if cell == "" {
		return cells
	}
	return append(cells, cell)
}
