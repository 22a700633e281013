package extract

import "strings"

// columnRole names the fields a table column can map to.
type columnRole int

const (
	roleItemCode columnRole = iota
	roleDescription
	roleQuantity
	roleUnitPrice
	roleTotalPrice
)

// columnVocabulary assigns roles to header cells by case-insensitive
// substring match. Order matters: the first role whose keyword matches a
// header cell claims that column. Kept as data so the heuristic is
// testable on its own.
var columnVocabulary = []struct {
	role     columnRole
	keywords []string
}{
	{roleItemCode, []string{"item", "code", "article"}},
	{roleDescription, []string{"desc", "description", "product"}},
	{roleQuantity, []string{"qty", "quantity", "amount"}},
	{roleUnitPrice, []string{"price", "unit"}},
	{roleTotalPrice, []string{"total", "sum"}},
}

// defaultColumns is the positional fallback used when a header row did not
// yield an index for a needed role.
var defaultColumns = map[columnRole]int{
	roleItemCode:    0,
	roleDescription: 1,
	roleQuantity:    2,
	roleUnitPrice:   3,
	roleTotalPrice:  4,
}

// identifyColumns maps roles to column indices from a header row. A later
// column matching an already-claimed role takes the role over.
func identifyColumns(header []string) map[columnRole]int {
	cols := make(map[columnRole]int)

	for i, cell := range header {
		lower := strings.ToLower(cell)
		for _, entry := range columnVocabulary {
			if containsAny(lower, entry.keywords) {
				cols[entry.role] = i
				break
			}
		}
	}

	return cols
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// columnIndex resolves a role to its matched column, falling back to the
// positional default.
func columnIndex(cols map[columnRole]int, role columnRole) int {
	if i, ok := cols[role]; ok {
		return i
	}
	return defaultColumns[role]
}
