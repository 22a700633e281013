// Package notify posts reconciliation outcomes to a Slack incoming
// webhook. Notification failures are reported to the caller but never
// abort a comparison run.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/procurewatch/reconciler/internal/config"
	"github.com/procurewatch/reconciler/internal/domain"
)

// maxDetailLines caps how many discrepant lines appear in one message.
const maxDetailLines = 10

type SlackNotifier struct {
	cfg    config.SlackConfig
	client *http.Client
}

func NewSlackNotifier(cfg config.SlackConfig) *SlackNotifier {
	return &SlackNotifier{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// ShouldNotify applies the notify_on flags and thresholds to a summary.
func (n *SlackNotifier) ShouldNotify(summary domain.Summary) bool {
	if n.cfg.NotifyOn.MissingItems && summary.MissingItems > 0 {
		return true
	}

	qtyThreshold := decimal.NewFromFloat(n.cfg.Thresholds.QuantityDifference)
	if n.cfg.NotifyOn.QuantityMismatches &&
		summary.QuantityMismatches > 0 &&
		summary.TotalQuantityDifference.GreaterThanOrEqual(qtyThreshold) {
		return true
	}

	priceThreshold := decimal.NewFromFloat(n.cfg.Thresholds.PriceDifference)
	if n.cfg.NotifyOn.PriceDiscrepancies &&
		summary.PriceMismatches > 0 &&
		summary.TotalPriceDifference.GreaterThanOrEqual(priceThreshold) {
		return true
	}

	if n.cfg.NotifyOn.SuccessfulComparisons &&
		summary.TotalItems > 0 &&
		summary.Matches == summary.TotalItems {
		return true
	}

	return false
}

// SendComparisonResults posts a run's outcome to the configured webhook.
// Returns nil without posting when the configuration says the run is not
// noteworthy.
func (n *SlackNotifier) SendComparisonResults(
	offerPath string,
	invoicePaths []string,
	results []domain.ComparisonResult,
	summary domain.Summary,
) error {
	if !n.ShouldNotify(summary) {
		log.Printf("[notify] summary below notification thresholds, skipping")
		return nil
	}

	payload := map[string]any{
		"channel": n.cfg.Channel,
		"blocks":  buildBlocks(offerPath, invoicePaths, results, summary),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	resp, err := n.client.Post(n.cfg.WebhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	log.Printf("[notify] sent comparison results for %s", filepath.Base(offerPath))
	return nil
}

// buildBlocks renders the Block Kit message: header, summary fields, and
// up to maxDetailLines discrepant lines.
func buildBlocks(
	offerPath string,
	invoicePaths []string,
	results []domain.ComparisonResult,
	summary domain.Summary,
) []map[string]any {
	invoiceNames := make([]string, len(invoicePaths))
	for i, p := range invoicePaths {
		invoiceNames[i] = filepath.Base(p)
	}

	blocks := []map[string]any{
		{
			"type": "header",
			"text": map[string]any{
				"type": "plain_text",
				"text": "Offer / Invoice Reconciliation",
			},
		},
		{
			"type": "section",
			"text": map[string]any{
				"type": "mrkdwn",
				"text": fmt.Sprintf("*Offer:* %s\n*Invoices:* %s",
					filepath.Base(offerPath), strings.Join(invoiceNames, ", ")),
			},
		},
		{
			"type": "section",
			"text": map[string]any{
				"type": "mrkdwn",
				"text": fmt.Sprintf(
					"*Items:* %d | *Matches:* %d | *Qty mismatches:* %d | *Price mismatches:* %d | *Missing:* %d | *Extra:* %d",
					summary.TotalItems, summary.Matches, summary.QuantityMismatches,
					summary.PriceMismatches, summary.MissingItems, summary.ExtraItems,
				),
			},
		},
	}

	var details []string
	for _, r := range results {
		if r.Status == domain.StatusMatch {
			continue
		}
		details = append(details, formatDetail(r))
		if len(details) == maxDetailLines {
			break
		}
	}
	if len(details) > 0 {
		blocks = append(blocks, map[string]any{
			"type": "section",
			"text": map[string]any{
				"type": "mrkdwn",
				"text": strings.Join(details, "\n"),
			},
		})
	}

	blocks = append(blocks, map[string]any{
		"type": "context",
		"elements": []map[string]any{
			{
				"type": "mrkdwn",
				"text": fmt.Sprintf("Compared at %s", time.Now().UTC().Format(time.RFC3339)),
			},
		},
	})

	return blocks
}

func formatDetail(r domain.ComparisonResult) string {
	switch r.Status {
	case domain.StatusQuantityMismatch:
		return fmt.Sprintf("• `%s` quantity: ordered %s, delivered %s",
			r.ItemCode, r.OfferQuantity, r.DeliveredQuantity)
	case domain.StatusPriceMismatch:
		return fmt.Sprintf("• `%s` price: offered %s, invoiced %s",
			r.ItemCode, r.OfferPrice, r.InvoicedPrice)
	case domain.StatusMissing:
		return fmt.Sprintf("• `%s` missing: %s ordered, none delivered",
			r.ItemCode, r.OfferQuantity)
	case domain.StatusExtraItem:
		return fmt.Sprintf("• `%s` not in offer: %s delivered at %s",
			r.ItemCode, r.DeliveredQuantity, r.InvoicedPrice)
	default:
		return fmt.Sprintf("• `%s` %s", r.ItemCode, r.Status)
	}
}
