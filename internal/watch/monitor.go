// Package watch turns filesystem activity into comparison runs. It watches
// an offers folder and an invoices folder; the newest offer becomes the
// pending baseline and every invoice that arrives afterwards triggers a
// full reconciliation of the accumulated set.
package watch

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/procurewatch/reconciler/internal/config"
	"github.com/procurewatch/reconciler/internal/domain"
)

// seenTTL is how long a processed path is remembered, so editors that fire
// several write events per save do not trigger duplicate runs.
const seenTTL = 5 * time.Minute

// Comparer runs one comparison; satisfied by reconcile.Service.
type Comparer interface {
	Run(offerPath string, invoicePaths []string) (*domain.ComparisonRecord, error)
}

// Monitor owns the watcher goroutine and the pending-offer state. All
// mutation of that state goes through mu; the comparison call itself is
// pure with respect to timing.
type Monitor struct {
	comparer    Comparer
	offersDir   string
	invoicesDir string
	debounce    time.Duration

	watcher *fsnotify.Watcher
	done    chan struct{}

	mu           sync.Mutex
	offerPath    string
	invoicePaths []string
	seen         map[string]time.Time
	timers       map[string]*time.Timer
}

func NewMonitor(cfg config.MonitoringConfig, comparer Comparer) (*Monitor, error) {
	if cfg.Folders.Offers == "" || cfg.Folders.Invoices == "" {
		return nil, fmt.Errorf("monitoring requires both an offers and an invoices folder")
	}

	return &Monitor{
		comparer:    comparer,
		offersDir:   filepath.Clean(cfg.Folders.Offers),
		invoicesDir: filepath.Clean(cfg.Folders.Invoices),
		debounce:    time.Duration(cfg.DebounceMS) * time.Millisecond,
		done:        make(chan struct{}),
		seen:        make(map[string]time.Time),
		timers:      make(map[string]*time.Timer),
	}, nil
}

// Start begins watching both folders. It returns once the watcher is
// installed; events are handled on a background goroutine.
func (m *Monitor) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	for _, dir := range []string{m.offersDir, m.invoicesDir} {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	m.watcher = watcher
	go m.loop()

	log.Printf("[watch] Monitoring offers in %s and invoices in %s", m.offersDir, m.invoicesDir)
	return nil
}

// Stop shuts the watcher down and waits for the event loop to exit.
func (m *Monitor) Stop() {
	if m.watcher == nil {
		return
	}
	m.watcher.Close()
	<-m.done
}

func (m *Monitor) loop() {
	defer close(m.done)

	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !watchableFile(event.Name) {
				continue
			}
			m.schedule(event.Name)

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[watch] WARNING: watcher error: %v", err)
		}
	}
}

// schedule (re)arms the per-path debounce timer. Files are often written
// in several chunks; the handler only fires once writes go quiet.
func (m *Monitor) schedule(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t, ok := m.timers[path]; ok {
		t.Reset(m.debounce)
		return
	}
	m.timers[path] = time.AfterFunc(m.debounce, func() {
		m.mu.Lock()
		delete(m.timers, path)
		m.mu.Unlock()
		m.handleFile(path)
	})
}

// handleFile classifies a settled file by its folder and updates the
// pending comparison.
func (m *Monitor) handleFile(path string) {
	if !m.markSeen(path) {
		return
	}

	switch filepath.Dir(filepath.Clean(path)) {
	case m.offersDir:
		m.handleOffer(path)
	case m.invoicesDir:
		m.handleInvoice(path)
	}
}

// handleOffer makes the file the pending baseline and discards invoices
// accumulated for the previous offer.
func (m *Monitor) handleOffer(path string) {
	m.mu.Lock()
	m.offerPath = path
	m.invoicePaths = nil
	m.mu.Unlock()

	log.Printf("[watch] New offer %s, awaiting invoices", path)
}

// handleInvoice appends the file to the pending set and, if an offer is
// waiting, runs a comparison over everything received so far.
func (m *Monitor) handleInvoice(path string) {
	m.mu.Lock()
	m.invoicePaths = append(m.invoicePaths, path)
	offer := m.offerPath
	invoices := append([]string{}, m.invoicePaths...)
	m.mu.Unlock()

	if offer == "" {
		log.Printf("[watch] Invoice %s received with no pending offer", path)
		return
	}

	if _, err := m.comparer.Run(offer, invoices); err != nil {
		log.Printf("[watch] WARNING: comparison failed for %s: %v", offer, err)
	}
}

// markSeen reports whether the path is new (or stale enough to process
// again) and records it.
func (m *Monitor) markSeen(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if at, ok := m.seen[path]; ok && now.Sub(at) < seenTTL {
		return false
	}
	for p, at := range m.seen {
		if now.Sub(at) >= seenTTL {
			delete(m.seen, p)
		}
	}
	m.seen[path] = now
	return true
}

func watchableFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".txt":
		return true
	}
	return false
}
