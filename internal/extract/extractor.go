package extract

import (
	"regexp"
	"strings"

	"github.com/procurewatch/reconciler/internal/domain"
	"github.com/procurewatch/reconciler/internal/numparse"
)

// Extract produces the ordered item sequence for a document. It operates
// per page and never fails for the whole document: a table or row that
// cannot be parsed yields no item and extraction continues.
func Extract(doc Document, method Method) []domain.Item {
	var items []domain.Item

	for _, page := range doc.Pages {
		if method != MethodText {
			for _, table := range page.Tables {
				items = append(items, extractTable(table)...)
			}
		}
		if method != MethodTable {
			items = append(items, extractText(page.Text)...)
		}
	}

	return items
}

// extractTable maps the first row to column roles and parses every
// subsequent row into an item. Tables whose header matches no role at all
// are skipped.
func extractTable(table Table) []domain.Item {
	if len(table) < 2 {
		return nil
	}

	cols := identifyColumns(table[0])
	if len(cols) == 0 {
		return nil
	}

	var items []domain.Item
	for _, row := range table[1:] {
		if item, ok := parseRow(row, cols); ok {
			items = append(items, item)
		}
	}
	return items
}

// parseRow turns one table row into an item. The row is discarded when the
// item code is empty or when the quantity or unit price cell held no
// parsable number; a cell stating a genuine zero is kept.
func parseRow(row []string, cols map[columnRole]int) (domain.Item, bool) {
	code := strings.TrimSpace(cell(row, columnIndex(cols, roleItemCode)))
	if code == "" {
		return domain.Item{}, false
	}

	quantity, qtyOK := numparse.ParseDetail(cell(row, columnIndex(cols, roleQuantity)))
	unitPrice, priceOK := numparse.ParseDetail(cell(row, columnIndex(cols, roleUnitPrice)))
	if !qtyOK || !priceOK {
		return domain.Item{}, false
	}

	total, totalOK := numparse.ParseDetail(cell(row, columnIndex(cols, roleTotalPrice)))
	if !totalOK {
		total = quantity.Mul(unitPrice)
	}

	return domain.Item{
		ItemCode:    code,
		Description: strings.TrimSpace(cell(row, columnIndex(cols, roleDescription))),
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		TotalPrice:  total,
	}, true
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// lineItemPattern is the text fallback: a single fixed lexical shape of
// <CODE> <DESCRIPTION> <QUANTITY> <UNIT_PRICE> on one line. It is a named,
// limited heuristic tuned to one document layout, not a general parser.
var lineItemPattern = regexp.MustCompile(
	`(?P<code>[A-Z0-9-]+)\s+` +
		`(?P<description>[^0-9\n]+)\s+` +
		`(?P<quantity>\d+(?:\.\d+)?)\s+` +
		`(?P<price>\d+(?:\.\d+)?)`,
)

// extractText scans raw page text for lines matching the fixed item
// pattern. Totals are always derived from quantity and unit price.
func extractText(text string) []domain.Item {
	var items []domain.Item

	for _, m := range lineItemPattern.FindAllStringSubmatch(text, -1) {
		quantity := numparse.Parse(m[3])
		unitPrice := numparse.Parse(m[4])

		items = append(items, domain.Item{
			ItemCode:    m[1],
			Description: strings.TrimSpace(m[2]),
			Quantity:    quantity,
			UnitPrice:   unitPrice,
			TotalPrice:  quantity.Mul(unitPrice),
		})
	}

	return items
}
