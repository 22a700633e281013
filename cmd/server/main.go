package main

import (
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/procurewatch/reconciler/internal/api"
	"github.com/procurewatch/reconciler/internal/config"
	"github.com/procurewatch/reconciler/internal/notify"
	"github.com/procurewatch/reconciler/internal/reconcile"
	"github.com/procurewatch/reconciler/internal/repository"
	"github.com/procurewatch/reconciler/internal/watch"
)

func main() {
	// Optional .env for local development.
	if err := godotenv.Load(); err == nil {
		log.Printf("Loaded environment from .env")
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/settings.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Environment overrides.
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("DB_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}

	log.Printf("Initializing database at %s", cfg.Database.Path)
	db, err := repository.InitDB(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to init DB: %v", err)
	}
	defer db.Close()

	repo := repository.NewComparisonRepo(db)

	// Notifier is optional; without a webhook every run simply skips it.
	var notifier reconcile.Notifier
	if cfg.Notifications.Slack.Enabled && cfg.Notifications.Slack.WebhookURL != "" {
		notifier = notify.NewSlackNotifier(cfg.Notifications.Slack)
		log.Printf("Slack notifications enabled for %s", cfg.Notifications.Slack.Channel)
	}

	svc := reconcile.NewService(repo, notifier, cfg.Processing)

	// Retention cleanup on startup.
	if deleted, err := repo.CleanupOlderThan(cfg.Database.RetentionDays); err != nil {
		log.Printf("WARNING: retention cleanup failed: %v", err)
	} else if deleted > 0 {
		log.Printf("Removed %d comparison(s) past the %d-day retention", deleted, cfg.Database.RetentionDays)
	}

	// Folder monitoring.
	if cfg.Monitoring.Enabled {
		monitor, err := watch.NewMonitor(cfg.Monitoring, svc)
		if err != nil {
			log.Fatalf("Failed to create monitor: %v", err)
		}
		if err := monitor.Start(); err != nil {
			log.Fatalf("Failed to start monitor: %v", err)
		}
		defer monitor.Stop()
	}

	router := api.NewRouter(repo, svc, cfg.Database)

	log.Printf("ProcureWatch Offer/Invoice Reconciler")
	log.Printf("Listening on http://localhost:%s", cfg.Server.Port)
	log.Printf("API base: http://localhost:%s/api/v1", cfg.Server.Port)
	log.Printf("")
	log.Printf("Endpoints:")
	log.Printf("  POST   /api/v1/comparisons")
	log.Printf("  GET    /api/v1/comparisons")
	log.Printf("  GET    /api/v1/comparisons/{id}")
	log.Printf("  GET    /api/v1/statistics")
	log.Printf("  POST   /api/v1/maintenance/cleanup")

	if err := http.ListenAndServe(":"+cfg.Server.Port, router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
