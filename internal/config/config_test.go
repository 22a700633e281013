package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
processing:
  price_tolerance: 0.05
  extraction_method: table
  track_partial_deliveries: true
monitoring:
  enabled: true
  folders:
    offers: /data/offers
    invoices: /data/invoices
  debounce_ms: 500
notifications:
  slack:
    enabled: true
    webhook_url: https://hooks.slack.com/services/T000/B000/XXX
    channel: "#procurement"
    notify_on:
      price_discrepancies: true
      quantity_mismatches: false
      missing_items: true
      successful_comparisons: false
    thresholds:
      price_difference: 10.0
      quantity_difference: 2
database:
  path: /var/lib/reconciler.db
  retention_days: 30
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 0.05, cfg.Processing.PriceTolerance)
	assert.Equal(t, "table", cfg.Processing.ExtractionMethod)
	assert.True(t, cfg.Monitoring.Enabled)
	assert.Equal(t, "/data/offers", cfg.Monitoring.Folders.Offers)
	assert.Equal(t, 500, cfg.Monitoring.DebounceMS)
	assert.True(t, cfg.Notifications.Slack.Enabled)
	assert.Equal(t, "#procurement", cfg.Notifications.Slack.Channel)
	assert.False(t, cfg.Notifications.Slack.NotifyOn.QuantityMismatches)
	assert.Equal(t, 10.0, cfg.Notifications.Slack.Thresholds.PriceDifference)
	assert.Equal(t, "/var/lib/reconciler.db", cfg.Database.Path)
	assert.Equal(t, 30, cfg.Database.RetentionDays)

	assert.True(t, cfg.Processing.Tolerance().Equal(decimal.NewFromFloat(0.05)))
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 0.02, cfg.Processing.PriceTolerance)
	assert.Equal(t, "both", cfg.Processing.ExtractionMethod)
	assert.False(t, cfg.Monitoring.Enabled)
	assert.Equal(t, 90, cfg.Database.RetentionDays)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  port: \"3000\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, 0.02, cfg.Processing.PriceTolerance, "untouched sections keep defaults")
	assert.Equal(t, "reconciler.db", cfg.Database.Path)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [not a mapping\n")

	_, err := Load(path)
	assert.Error(t, err)
}
