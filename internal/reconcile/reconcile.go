// Package reconcile compares a procurement offer against the items
// delivered across one or more invoices and classifies every line. The
// engine functions are pure: no I/O, no shared state, safe to call
// concurrently.
package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/procurewatch/reconciler/internal/domain"
)

// DefaultTolerance is the maximum relative price deviation still counted
// as a match: 2%.
var DefaultTolerance = decimal.NewFromFloat(0.02)

// Aggregate merges item lists by item code, summing quantity and total
// price for repeated codes. This models the same item delivered across
// several partial-shipment invoices. The unit price and description of the
// first occurrence are kept, and first-appearance order across the
// flattened input defines the output order.
func Aggregate(lists ...[]domain.Item) []domain.Item {
	index := make(map[string]int)
	var merged []domain.Item

	for _, list := range lists {
		for _, item := range list {
			if i, ok := index[item.ItemCode]; ok {
				merged[i].Quantity = merged[i].Quantity.Add(item.Quantity)
				merged[i].TotalPrice = merged[i].TotalPrice.Add(item.TotalPrice)
				continue
			}
			index[item.ItemCode] = len(merged)
			merged = append(merged, item)
		}
	}

	return merged
}

// Reconcile compares the offer's items against the aggregate of all
// invoice item lists. Output order is a contract: offer-derived results in
// offer order, then invoice-only results in aggregate order, with exactly
// one result per distinct item code.
func Reconcile(offer []domain.Item, invoices [][]domain.Item, tolerance decimal.Decimal) []domain.ComparisonResult {
	// The offer side is aggregated too, so duplicate codes (e.g. the two
	// extraction strategies matching the same line) collapse to one result.
	offerItems := Aggregate(offer)
	delivered := Aggregate(invoices...)

	byCode := make(map[string]domain.Item, len(delivered))
	for _, item := range delivered {
		byCode[item.ItemCode] = item
	}

	results := make([]domain.ComparisonResult, 0, len(offerItems))
	offerCodes := make(map[string]bool, len(offerItems))

	for _, o := range offerItems {
		offerCodes[o.ItemCode] = true

		inv, ok := byCode[o.ItemCode]
		if !ok {
			results = append(results, domain.ComparisonResult{
				ItemCode:           o.ItemCode,
				Description:        o.Description,
				OfferQuantity:      o.Quantity,
				DeliveredQuantity:  decimal.Zero,
				OfferPrice:         o.UnitPrice,
				InvoicedPrice:      decimal.Zero,
				QuantityDifference: o.Quantity,
				PriceDifference:    decimal.Zero,
				Status:             domain.StatusMissing,
			})
			continue
		}

		quantityDiff := o.Quantity.Sub(inv.Quantity)
		priceDiff := o.UnitPrice.Sub(inv.UnitPrice)

		results = append(results, domain.ComparisonResult{
			ItemCode:           o.ItemCode,
			Description:        o.Description,
			OfferQuantity:      o.Quantity,
			DeliveredQuantity:  inv.Quantity,
			OfferPrice:         o.UnitPrice,
			InvoicedPrice:      inv.UnitPrice,
			QuantityDifference: quantityDiff,
			PriceDifference:    priceDiff,
			Status:             classify(o.UnitPrice, quantityDiff, priceDiff, tolerance),
		})
	}

	for _, inv := range delivered {
		if offerCodes[inv.ItemCode] {
			continue
		}
		results = append(results, domain.ComparisonResult{
			ItemCode:           inv.ItemCode,
			Description:        inv.Description,
			OfferQuantity:      decimal.Zero,
			DeliveredQuantity:  inv.Quantity,
			OfferPrice:         decimal.Zero,
			InvoicedPrice:      inv.UnitPrice,
			QuantityDifference: inv.Quantity.Neg(),
			PriceDifference:    inv.UnitPrice.Neg(),
			Status:             domain.StatusExtraItem,
		})
	}

	return results
}

// classify applies the status priority: any quantity difference wins, then
// a relative price deviation strictly above the tolerance, then match.
// A zero offer price cannot signal a price mismatch (guarded division).
func classify(offerPrice, quantityDiff, priceDiff, tolerance decimal.Decimal) domain.Status {
	if !quantityDiff.IsZero() {
		return domain.StatusQuantityMismatch
	}
	if !offerPrice.IsZero() && priceDiff.Div(offerPrice).Abs().GreaterThan(tolerance) {
		return domain.StatusPriceMismatch
	}
	return domain.StatusMatch
}

// Summarize reduces a result list to per-status counts plus the absolute
// quantity and price deviations accumulated across all results.
func Summarize(results []domain.ComparisonResult) domain.Summary {
	s := domain.Summary{
		TotalItems:              len(results),
		TotalQuantityDifference: decimal.Zero,
		TotalPriceDifference:    decimal.Zero,
	}

	for _, r := range results {
		switch r.Status {
		case domain.StatusMatch:
			s.Matches++
		case domain.StatusQuantityMismatch:
			s.QuantityMismatches++
		case domain.StatusPriceMismatch:
			s.PriceMismatches++
		case domain.StatusMissing:
			s.MissingItems++
		case domain.StatusExtraItem:
			s.ExtraItems++
		}
		s.TotalQuantityDifference = s.TotalQuantityDifference.Add(r.QuantityDifference.Abs())
		s.TotalPriceDifference = s.TotalPriceDifference.Add(r.PriceDifference.Abs())
	}

	return s
}
