package watch

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procurewatch/reconciler/internal/config"
	"github.com/procurewatch/reconciler/internal/domain"
)

type fakeComparer struct {
	mu   sync.Mutex
	runs [][]string // offer followed by invoices, per run
}

func (f *fakeComparer) Run(offerPath string, invoicePaths []string) (*domain.ComparisonRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, append([]string{offerPath}, invoicePaths...))
	return &domain.ComparisonRecord{}, nil
}

func (f *fakeComparer) snapshot() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string{}, f.runs...)
}

func newTestMonitor(t *testing.T) (*Monitor, *fakeComparer) {
	t.Helper()
	comparer := &fakeComparer{}
	m, err := NewMonitor(config.MonitoringConfig{
		Folders: config.Folders{
			Offers:   filepath.Join(t.TempDir(), "offers"),
			Invoices: filepath.Join(t.TempDir(), "invoices"),
		},
		DebounceMS: 10,
	}, comparer)
	require.NoError(t, err)
	return m, comparer
}

func TestNewMonitorRequiresFolders(t *testing.T) {
	_, err := NewMonitor(config.MonitoringConfig{}, &fakeComparer{})
	assert.Error(t, err)
}

func TestInvoiceWithoutOfferDoesNotRun(t *testing.T) {
	m, comparer := newTestMonitor(t)

	m.handleFile(filepath.Join(m.invoicesDir, "inv1.pdf"))
	assert.Empty(t, comparer.snapshot())
}

func TestOfferThenInvoicesAccumulate(t *testing.T) {
	m, comparer := newTestMonitor(t)

	offer := filepath.Join(m.offersDir, "offer.pdf")
	inv1 := filepath.Join(m.invoicesDir, "inv1.pdf")
	inv2 := filepath.Join(m.invoicesDir, "inv2.pdf")

	m.handleFile(offer)
	m.handleFile(inv1)
	m.handleFile(inv2)

	runs := comparer.snapshot()
	require.Len(t, runs, 2, "each invoice triggers a run over the accumulated set")
	assert.Equal(t, []string{offer, inv1}, runs[0])
	assert.Equal(t, []string{offer, inv1, inv2}, runs[1])
}

func TestNewOfferResetsPendingInvoices(t *testing.T) {
	m, comparer := newTestMonitor(t)

	offer1 := filepath.Join(m.offersDir, "offer1.pdf")
	offer2 := filepath.Join(m.offersDir, "offer2.pdf")
	inv1 := filepath.Join(m.invoicesDir, "inv1.pdf")
	inv2 := filepath.Join(m.invoicesDir, "inv2.pdf")

	m.handleFile(offer1)
	m.handleFile(inv1)
	m.handleFile(offer2)
	m.handleFile(inv2)

	runs := comparer.snapshot()
	require.Len(t, runs, 2)
	assert.Equal(t, []string{offer2, inv2}, runs[1], "invoices from the previous offer are dropped")
}

func TestRepeatedEventsAreDeduplicated(t *testing.T) {
	m, comparer := newTestMonitor(t)

	offer := filepath.Join(m.offersDir, "offer.pdf")
	inv := filepath.Join(m.invoicesDir, "inv.pdf")

	m.handleFile(offer)
	m.handleFile(inv)
	m.handleFile(inv)
	m.handleFile(inv)

	assert.Len(t, comparer.snapshot(), 1)
}

func TestUnrelatedDirectoriesIgnored(t *testing.T) {
	m, comparer := newTestMonitor(t)

	m.handleFile(filepath.Join(t.TempDir(), "somewhere", "file.pdf"))
	assert.Empty(t, comparer.snapshot())
	assert.Equal(t, "", m.offerPath)
}

func TestWatchableFile(t *testing.T) {
	assert.True(t, watchableFile("/x/offer.pdf"))
	assert.True(t, watchableFile("/x/OFFER.PDF"))
	assert.True(t, watchableFile("/x/note.txt"))
	assert.False(t, watchableFile("/x/.offer.swp"))
	assert.False(t, watchableFile("/x/offer.csv"))
}

func TestMonitorEndToEnd(t *testing.T) {
	comparer := &fakeComparer{}
	offersDir := filepath.Join(t.TempDir(), "offers")
	invoicesDir := filepath.Join(t.TempDir(), "invoices")
	require.NoError(t, os.MkdirAll(offersDir, 0o755))
	require.NoError(t, os.MkdirAll(invoicesDir, 0o755))

	m, err := NewMonitor(config.MonitoringConfig{
		Folders:    config.Folders{Offers: offersDir, Invoices: invoicesDir},
		DebounceMS: 20,
	}, comparer)
	require.NoError(t, err)
	require.NoError(t, m.Start())
	defer m.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(offersDir, "offer.txt"),
		[]byte("A123 Steel Bolt 10 15.50\n"), 0o644))

	// Wait for the offer to settle before dropping the invoice.
	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.offerPath != ""
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(invoicesDir, "inv.txt"),
		[]byte("A123 Steel Bolt 10 15.50\n"), 0o644))

	require.Eventually(t, func() bool {
		return len(comparer.snapshot()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	runs := comparer.snapshot()
	assert.Equal(t, filepath.Join(offersDir, "offer.txt"), runs[0][0])
}
