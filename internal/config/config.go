// Package config loads the service configuration from a YAML file. Every
// value has a default, so a missing file or a partial file still yields a
// usable configuration. Components receive their config explicitly; nothing
// reads ambient global state.
package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/shopspring/decimal"
)

type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Processing    ProcessingConfig    `yaml:"processing"`
	Monitoring    MonitoringConfig    `yaml:"monitoring"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Database      DatabaseConfig      `yaml:"database"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type ProcessingConfig struct {
	// PriceTolerance is the maximum relative price deviation (fraction)
	// before a line is classified as a price mismatch.
	PriceTolerance         float64 `yaml:"price_tolerance"`
	ExtractionMethod       string  `yaml:"extraction_method"`
	TrackPartialDeliveries bool    `yaml:"track_partial_deliveries"`
}

// Tolerance returns the price tolerance as an exact decimal.
func (p ProcessingConfig) Tolerance() decimal.Decimal {
	return decimal.NewFromFloat(p.PriceTolerance)
}

type MonitoringConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Folders    Folders `yaml:"folders"`
	DebounceMS int     `yaml:"debounce_ms"`
}

type Folders struct {
	Offers   string `yaml:"offers"`
	Invoices string `yaml:"invoices"`
}

type NotificationsConfig struct {
	Slack SlackConfig `yaml:"slack"`
}

type SlackConfig struct {
	Enabled    bool       `yaml:"enabled"`
	WebhookURL string     `yaml:"webhook_url"`
	Channel    string     `yaml:"channel"`
	NotifyOn   NotifyOn   `yaml:"notify_on"`
	Thresholds Thresholds `yaml:"thresholds"`
}

type NotifyOn struct {
	PriceDiscrepancies    bool `yaml:"price_discrepancies"`
	QuantityMismatches    bool `yaml:"quantity_mismatches"`
	MissingItems          bool `yaml:"missing_items"`
	SuccessfulComparisons bool `yaml:"successful_comparisons"`
}

type Thresholds struct {
	// Minimum accumulated differences before a mismatch notification fires.
	PriceDifference    float64 `yaml:"price_difference"`
	QuantityDifference float64 `yaml:"quantity_difference"`
}

type DatabaseConfig struct {
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080"},
		Processing: ProcessingConfig{
			PriceTolerance:         0.02,
			ExtractionMethod:       "both",
			TrackPartialDeliveries: true,
		},
		Monitoring: MonitoringConfig{
			Enabled:    false,
			DebounceMS: 1000,
		},
		Notifications: NotificationsConfig{
			Slack: SlackConfig{
				Channel: "#procurement-alerts",
				NotifyOn: NotifyOn{
					PriceDiscrepancies: true,
					QuantityMismatches: true,
					MissingItems:       true,
				},
			},
		},
		Database: DatabaseConfig{
			Path:          "reconciler.db",
			RetentionDays: 90,
		},
	}
}

// Load reads a YAML configuration file on top of the defaults. A missing
// file is not an error; the defaults are returned as-is.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	applyFallbacks(cfg)
	return cfg, nil
}

// applyFallbacks restores defaults for fields the file left empty or set
// to nonsense.
func applyFallbacks(cfg *Config) {
	def := Default()

	if cfg.Server.Port == "" {
		cfg.Server.Port = def.Server.Port
	}
	if cfg.Processing.PriceTolerance <= 0 {
		cfg.Processing.PriceTolerance = def.Processing.PriceTolerance
	}
	if cfg.Processing.ExtractionMethod == "" {
		cfg.Processing.ExtractionMethod = def.Processing.ExtractionMethod
	}
	if cfg.Monitoring.DebounceMS <= 0 {
		cfg.Monitoring.DebounceMS = def.Monitoring.DebounceMS
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = def.Database.Path
	}
	if cfg.Database.RetentionDays <= 0 {
		cfg.Database.RetentionDays = def.Database.RetentionDays
	}
}
