package reconcile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procurewatch/reconciler/internal/config"
	"github.com/procurewatch/reconciler/internal/domain"
	"github.com/procurewatch/reconciler/internal/repository"
)

type captureNotifier struct {
	calls int
	err   error
}

func (c *captureNotifier) SendComparisonResults(string, []string, []domain.ComparisonResult, domain.Summary) error {
	c.calls++
	return c.err
}

func newTestService(t *testing.T, notifier Notifier) (*Service, *repository.ComparisonRepo) {
	t.Helper()
	db, err := repository.InitDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := repository.NewComparisonRepo(db)
	svc := NewService(repo, notifier, config.ProcessingConfig{
		PriceTolerance:   0.02,
		ExtractionMethod: "text",
	})
	return svc, repo
}

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestServiceRun(t *testing.T) {
	dir := t.TempDir()
	offer := writeDoc(t, dir, "offer.txt",
		"A123 Steel Bolt 10 15.50\nB456 Washer 5 0.20\n")
	inv1 := writeDoc(t, dir, "inv1.txt", "A123 Steel Bolt 6 15.50\n")
	inv2 := writeDoc(t, dir, "inv2.txt", "A123 Steel Bolt 4 15.50\n")

	notifier := &captureNotifier{}
	svc, repo := newTestService(t, notifier)

	rec, err := svc.Run(offer, []string{inv1, inv2})
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, domain.RunSuccess, rec.Status)
	assert.Equal(t, 2, rec.Summary.TotalItems)
	assert.Equal(t, 1, rec.Summary.Matches, "partial deliveries sum to the offered quantity")
	assert.Equal(t, 1, rec.Summary.MissingItems)
	assert.Equal(t, 1, notifier.calls)
	assert.True(t, rec.NotificationSent)

	stored, err := repo.GetByID(rec.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, []string{inv1, inv2}, stored.InvoicePaths)
	assert.True(t, stored.NotificationSent)
}

func TestServiceRunUnreadableOfferDegradesToMissingInputs(t *testing.T) {
	dir := t.TempDir()
	inv := writeDoc(t, dir, "inv.txt", "A123 Steel Bolt 6 15.50\n")

	svc, _ := newTestService(t, nil)

	rec, err := svc.Run(filepath.Join(dir, "does-not-exist.txt"), []string{inv})
	require.NoError(t, err, "an unreadable document is zero items, not a failure")

	assert.Equal(t, 1, rec.Summary.TotalItems)
	assert.Equal(t, 1, rec.Summary.ExtraItems, "everything delivered is extra against an empty offer")
}

func TestServiceRunRecordsNotificationFailure(t *testing.T) {
	dir := t.TempDir()
	offer := writeDoc(t, dir, "offer.txt", "A123 Steel Bolt 10 15.50\n")

	notifier := &captureNotifier{err: errors.New("webhook down")}
	svc, repo := newTestService(t, notifier)

	rec, err := svc.Run(offer, nil)
	require.NoError(t, err)
	assert.False(t, rec.NotificationSent)
	assert.Equal(t, "webhook down", rec.NotificationError)

	stored, err := repo.GetByID(rec.ID)
	require.NoError(t, err)
	assert.False(t, stored.NotificationSent)
	assert.Equal(t, "webhook down", stored.NotificationError)
}
