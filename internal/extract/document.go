// Package extract recovers line items from loosely formatted procurement
// documents. Input is a page model (tables plus raw text); two independent
// strategies produce items and their outputs are concatenated. Duplicates
// between the strategies are expected and are resolved later by the
// reconciler's code-keyed aggregation, not here.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Table is an ordered sequence of rows of cell strings. The first row is
// treated as the header.
type Table [][]string

// Page is the per-page input consumed by the extractor.
type Page struct {
	Tables []Table
	Text   string
}

// Document is a sequence of pages.
type Document struct {
	Pages []Page
}

// Method selects which extraction strategies run.
type Method string

const (
	MethodTable Method = "table"
	MethodText  Method = "text"
	MethodBoth  Method = "both"
)

// ParseMethod maps a config string to a Method, defaulting to MethodBoth.
func ParseMethod(s string) Method {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case MethodTable:
		return MethodTable
	case MethodText:
		return MethodText
	default:
		return MethodBoth
	}
}

// cellSplit separates columns in plain-text rows: tabs or runs of two or
// more spaces.
var cellSplit = regexp.MustCompile(`\t+| {2,}`)

// LoadDocument reads a document from disk. PDF files go through the PDF
// adapter; anything else is treated as plain text forming a single page,
// with lines containing multiple cells recovered as a table.
func LoadDocument(path string) (Document, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return ReadPDF(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read document: %w", err)
	}
	return DocumentFromText(string(data)), nil
}

// DocumentFromText builds a single-page document from raw text, recovering
// a table from any lines that split into two or more cells.
func DocumentFromText(text string) Document {
	page := Page{Text: text}

	var table Table
	for _, line := range strings.Split(text, "\n") {
		cells := splitCells(line)
		if len(cells) >= 2 {
			table = append(table, cells)
		}
	}
	// A header row alone is not a table.
	if len(table) >= 2 {
		page.Tables = append(page.Tables, table)
	}

	return Document{Pages: []Page{page}}
}

func splitCells(line string) []string {
	var cells []string
	for _, c := range cellSplit.Split(strings.TrimSpace(line), -1) {
		c = strings.TrimSpace(c)
		if c != "" {
			cells = append(cells, c)
		}
	}
	return cells
}
