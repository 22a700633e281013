package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status classifies a single reconciled line.
type Status string

const (
	StatusMatch            Status = "match"
	StatusQuantityMismatch Status = "quantity_mismatch"
	StatusPriceMismatch    Status = "price_mismatch"
	StatusMissing          Status = "missing"
	StatusExtraItem        Status = "extra_item"
)

// ComparisonResult is one row of reconciliation output. Differences are
// offer minus delivered/invoiced, so a positive quantity difference means
// goods are still outstanding.
type ComparisonResult struct {
	ItemCode           string          `json:"item_code"`
	Description        string          `json:"description"`
	OfferQuantity      decimal.Decimal `json:"offer_quantity"`
	DeliveredQuantity  decimal.Decimal `json:"delivered_quantity"`
	OfferPrice         decimal.Decimal `json:"offer_price"`
	InvoicedPrice      decimal.Decimal `json:"invoiced_price"`
	QuantityDifference decimal.Decimal `json:"quantity_difference"`
	PriceDifference    decimal.Decimal `json:"price_difference"`
	Status             Status          `json:"status"`
}

// Summary reduces a result list to counts and aggregate deviations. It is
// derived purely from the results and can be recomputed at any time.
type Summary struct {
	TotalItems              int             `json:"total_items"`
	Matches                 int             `json:"matches"`
	QuantityMismatches      int             `json:"quantity_mismatches"`
	PriceMismatches         int             `json:"price_mismatches"`
	MissingItems            int             `json:"missing_items"`
	ExtraItems              int             `json:"extra_items"`
	TotalQuantityDifference decimal.Decimal `json:"total_quantity_difference"`
	TotalPriceDifference    decimal.Decimal `json:"total_price_difference"`
}

// RunStatus indicates whether a stored comparison run completed.
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunError   RunStatus = "error"
)

// ComparisonRecord is a persisted reconciliation run: which files were
// compared, the summary, and the full result rows.
type ComparisonRecord struct {
	ID                int64              `json:"id"`
	Timestamp         time.Time          `json:"timestamp"`
	OfferPath         string             `json:"offer_path"`
	InvoicePaths      []string           `json:"invoice_paths"`
	Status            RunStatus          `json:"status"`
	ErrorMessage      string             `json:"error_message,omitempty"`
	Summary           Summary            `json:"summary"`
	Results           []ComparisonResult `json:"results"`
	NotificationSent  bool               `json:"notification_sent"`
	NotificationError string             `json:"notification_error,omitempty"`
}
