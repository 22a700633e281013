package reconcile

import (
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/procurewatch/reconciler/internal/config"
	"github.com/procurewatch/reconciler/internal/domain"
	"github.com/procurewatch/reconciler/internal/extract"
	"github.com/procurewatch/reconciler/internal/repository"
)

// Notifier receives the outcome of a comparison run. A nil Notifier
// disables notifications.
type Notifier interface {
	SendComparisonResults(offerPath string, invoicePaths []string,
		results []domain.ComparisonResult, summary domain.Summary) error
}

// Service runs full comparisons: extract the offer and invoices, reconcile,
// persist the record, and notify. The engine calls themselves are pure;
// the service adds the I/O around them.
type Service struct {
	repo      *repository.ComparisonRepo
	notifier  Notifier
	tolerance decimal.Decimal
	method    extract.Method
}

func NewService(repo *repository.ComparisonRepo, notifier Notifier, cfg config.ProcessingConfig) *Service {
	return &Service{
		repo:      repo,
		notifier:  notifier,
		tolerance: cfg.Tolerance(),
		method:    extract.ParseMethod(cfg.ExtractionMethod),
	}
}

// Run compares one offer document against a set of invoice documents and
// stores the result. A document that cannot be opened contributes zero
// items rather than failing the run; the reconciler then reports its lines
// as missing or extra. Only persistence failures return an error.
func (s *Service) Run(offerPath string, invoicePaths []string) (*domain.ComparisonRecord, error) {
	offerItems := s.extractFile(offerPath)

	invoiceItems := make([][]domain.Item, 0, len(invoicePaths))
	for _, path := range invoicePaths {
		invoiceItems = append(invoiceItems, s.extractFile(path))
	}

	results := Reconcile(offerItems, invoiceItems, s.tolerance)
	summary := Summarize(results)

	rec := &domain.ComparisonRecord{
		Timestamp:    time.Now().UTC(),
		OfferPath:    offerPath,
		InvoicePaths: append([]string{}, invoicePaths...),
		Status:       domain.RunSuccess,
		Summary:      summary,
		Results:      results,
	}

	if _, err := s.repo.Insert(rec); err != nil {
		return nil, fmt.Errorf("store comparison: %w", err)
	}

	log.Printf("[reconcile] Compared %s against %d invoice(s): %d items, %d matches, %d qty, %d price, %d missing, %d extra",
		offerPath, len(invoicePaths), summary.TotalItems, summary.Matches,
		summary.QuantityMismatches, summary.PriceMismatches,
		summary.MissingItems, summary.ExtraItems)

	s.sendNotification(rec)
	return rec, nil
}

// extractFile loads and extracts one document, degrading to zero items on
// any document-level failure.
func (s *Service) extractFile(path string) []domain.Item {
	doc, err := extract.LoadDocument(path)
	if err != nil {
		log.Printf("[reconcile] WARNING: could not read %s: %v", path, err)
		return nil
	}

	items := extract.Extract(doc, s.method)
	log.Printf("[reconcile] Extracted %d item(s) from %s", len(items), path)
	return items
}

// sendNotification fires the notifier and records the outcome on the
// stored run. Notification problems never fail a run.
func (s *Service) sendNotification(rec *domain.ComparisonRecord) {
	if s.notifier == nil {
		return
	}

	err := s.notifier.SendComparisonResults(rec.OfferPath, rec.InvoicePaths, rec.Results, rec.Summary)

	sent := err == nil
	notifyErr := ""
	if err != nil {
		notifyErr = err.Error()
		log.Printf("[reconcile] WARNING: notification failed for run %d: %v", rec.ID, err)
	}

	if updErr := s.repo.UpdateNotificationStatus(rec.ID, sent, notifyErr); updErr != nil {
		log.Printf("[reconcile] WARNING: could not record notification status: %v", updErr)
		return
	}
	rec.NotificationSent = sent
	rec.NotificationError = notifyErr
}
