package domain

import "github.com/shopspring/decimal"

// Item is one line entry from either an offer or an invoice document.
// Items are value records: the extractor creates them and nothing mutates
// them afterwards. Aggregation produces new merged Items.
type Item struct {
	ItemCode    string          `json:"item_code"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// LineTotal is quantity times unit price, independent of the stored
// TotalPrice (which may have come straight from the document).
func (it Item) LineTotal() decimal.Decimal {
	return it.Quantity.Mul(it.UnitPrice)
}
