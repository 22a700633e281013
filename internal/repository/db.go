package repository

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens (or creates) a SQLite database at the given path and ensures
// all required tables exist. Pass ":memory:" for an in-memory database.
func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		// Decimal-valued columns are stored as canonical decimal strings so
		// values round-trip without passing through binary floating point.
		// invoice_paths and results are JSON.
		`CREATE TABLE IF NOT EXISTS comparisons (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp DATETIME NOT NULL,
			offer_path TEXT NOT NULL,
			invoice_paths TEXT NOT NULL,
			status TEXT NOT NULL,
			error_message TEXT,
			total_items INTEGER NOT NULL,
			matches INTEGER NOT NULL,
			quantity_mismatches INTEGER NOT NULL,
			price_mismatches INTEGER NOT NULL,
			missing_items INTEGER NOT NULL,
			extra_items INTEGER NOT NULL,
			total_quantity_difference TEXT NOT NULL,
			total_price_difference TEXT NOT NULL,
			results TEXT NOT NULL,
			notification_sent INTEGER NOT NULL DEFAULT 0,
			notification_error TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_comparisons_timestamp ON comparisons(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_comparisons_status ON comparisons(status)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}

	return nil
}
