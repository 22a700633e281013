package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/procurewatch/reconciler/internal/domain"
)

type ComparisonRepo struct {
	db *sql.DB
}

func NewComparisonRepo(db *sql.DB) *ComparisonRepo {
	return &ComparisonRepo{db: db}
}

// Insert stores a comparison run and returns its assigned ID. The
// invoice-path list and the result rows are serialized as JSON; decimals
// inside the results marshal as quoted strings and survive round-trips
// exactly.
func (r *ComparisonRepo) Insert(rec *domain.ComparisonRecord) (int64, error) {
	paths, err := json.Marshal(rec.InvoicePaths)
	if err != nil {
		return 0, fmt.Errorf("marshal invoice paths: %w", err)
	}
	results, err := json.Marshal(rec.Results)
	if err != nil {
		return 0, fmt.Errorf("marshal results: %w", err)
	}

	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	res, err := r.db.Exec(
		`INSERT INTO comparisons
		(timestamp, offer_path, invoice_paths, status, error_message,
		 total_items, matches, quantity_mismatches, price_mismatches,
		 missing_items, extra_items, total_quantity_difference,
		 total_price_difference, results, notification_sent, notification_error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rec.Timestamp.Format(time.RFC3339), rec.OfferPath, string(paths),
		string(rec.Status), nullableString(rec.ErrorMessage),
		rec.Summary.TotalItems, rec.Summary.Matches,
		rec.Summary.QuantityMismatches, rec.Summary.PriceMismatches,
		rec.Summary.MissingItems, rec.Summary.ExtraItems,
		rec.Summary.TotalQuantityDifference.String(),
		rec.Summary.TotalPriceDifference.String(),
		string(results), rec.NotificationSent, nullableString(rec.NotificationError),
	)
	if err != nil {
		return 0, fmt.Errorf("insert comparison: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	rec.ID = id
	return id, nil
}

func (r *ComparisonRepo) GetByID(id int64) (*domain.ComparisonRecord, error) {
	row := r.db.QueryRow("SELECT * FROM comparisons WHERE id = ?", id)
	rec, err := scanComparison(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

// History returns stored runs, newest first. days <= 0 means no cutoff and
// limit <= 0 means no cap.
func (r *ComparisonRepo) History(days, limit int) ([]domain.ComparisonRecord, error) {
	q := "SELECT * FROM comparisons"
	var args []any

	if days > 0 {
		q += " WHERE timestamp >= ?"
		args = append(args, time.Now().UTC().AddDate(0, 0, -days).Format(time.RFC3339))
	}
	q += " ORDER BY timestamp DESC, id DESC"
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []domain.ComparisonRecord
	for rows.Next() {
		rec, err := scanComparison(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, rows.Err()
}

func (r *ComparisonRepo) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM comparisons").Scan(&count)
	return count, err
}

// UpdateNotificationStatus records whether the notification for a run went
// out, and the failure reason if it did not.
func (r *ComparisonRepo) UpdateNotificationStatus(id int64, sent bool, notifyErr string) error {
	res, err := r.db.Exec(
		"UPDATE comparisons SET notification_sent = ?, notification_error = ? WHERE id = ?",
		sent, nullableString(notifyErr), id,
	)
	if err != nil {
		return fmt.Errorf("update notification status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("comparison %d not found", id)
	}
	return nil
}

// CleanupOlderThan deletes runs older than the retention window and returns
// how many were removed.
func (r *ComparisonRepo) CleanupOlderThan(days int) (int, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	res, err := r.db.Exec(
		"DELETE FROM comparisons WHERE timestamp < ?", cutoff.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("cleanup: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Statistics aggregates stored runs. Deviation totals are reported as
// floats here; the exact values live in the individual records.
type Statistics struct {
	TotalComparisons        int     `json:"total_comparisons"`
	SuccessfulComparisons   int     `json:"successful_comparisons"`
	FailedComparisons       int     `json:"failed_comparisons"`
	TotalItemsCompared      int     `json:"total_items_compared"`
	TotalMatches            int     `json:"total_matches"`
	TotalQuantityMismatches int     `json:"total_quantity_mismatches"`
	TotalPriceMismatches    int     `json:"total_price_mismatches"`
	TotalMissingItems       int     `json:"total_missing_items"`
	TotalExtraItems         int     `json:"total_extra_items"`
	TotalQuantityDifference float64 `json:"total_quantity_difference"`
	TotalPriceDifference    float64 `json:"total_price_difference"`
	NotificationsSent       int     `json:"notifications_sent"`
	NotificationsFailed     int     `json:"notifications_failed"`
}

// GetStatistics summarises runs within the lookback window. days <= 0
// covers everything.
func (r *ComparisonRepo) GetStatistics(days int) (*Statistics, error) {
	where := ""
	var args []any
	if days > 0 {
		where = " WHERE timestamp >= ?"
		args = append(args, time.Now().UTC().AddDate(0, 0, -days).Format(time.RFC3339))
	}

	s := &Statistics{}
	err := r.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status != 'success' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(total_items), 0),
		       COALESCE(SUM(matches), 0),
		       COALESCE(SUM(quantity_mismatches), 0),
		       COALESCE(SUM(price_mismatches), 0),
		       COALESCE(SUM(missing_items), 0),
		       COALESCE(SUM(extra_items), 0),
		       COALESCE(SUM(CAST(total_quantity_difference AS REAL)), 0),
		       COALESCE(SUM(CAST(total_price_difference AS REAL)), 0),
		       COALESCE(SUM(CASE WHEN notification_sent THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN NOT notification_sent AND notification_error IS NOT NULL THEN 1 ELSE 0 END), 0)
		FROM comparisons`+where, args...,
	).Scan(
		&s.TotalComparisons, &s.SuccessfulComparisons, &s.FailedComparisons,
		&s.TotalItemsCompared, &s.TotalMatches, &s.TotalQuantityMismatches,
		&s.TotalPriceMismatches, &s.TotalMissingItems, &s.TotalExtraItems,
		&s.TotalQuantityDifference, &s.TotalPriceDifference,
		&s.NotificationsSent, &s.NotificationsFailed,
	)
	if err != nil {
		return nil, fmt.Errorf("statistics: %w", err)
	}
	return s, nil
}

// --- helpers ---

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComparison(row rowScanner) (*domain.ComparisonRecord, error) {
	var (
		rec                  domain.ComparisonRecord
		ts, status           string
		errMsg, notifyErr    sql.NullString
		paths, results       string
		totalQty, totalPrice string
	)

	err := row.Scan(
		&rec.ID, &ts, &rec.OfferPath, &paths, &status, &errMsg,
		&rec.Summary.TotalItems, &rec.Summary.Matches,
		&rec.Summary.QuantityMismatches, &rec.Summary.PriceMismatches,
		&rec.Summary.MissingItems, &rec.Summary.ExtraItems,
		&totalQty, &totalPrice, &results, &rec.NotificationSent, &notifyErr,
	)
	if err != nil {
		return nil, err
	}

	rec.Timestamp, _ = time.Parse(time.RFC3339, ts)
	rec.Status = domain.RunStatus(status)
	rec.ErrorMessage = errMsg.String
	rec.NotificationError = notifyErr.String

	if err := json.Unmarshal([]byte(paths), &rec.InvoicePaths); err != nil {
		return nil, fmt.Errorf("unmarshal invoice paths: %w", err)
	}
	if err := json.Unmarshal([]byte(results), &rec.Results); err != nil {
		return nil, fmt.Errorf("unmarshal results: %w", err)
	}
	if rec.Summary.TotalQuantityDifference, err = decimal.NewFromString(totalQty); err != nil {
		return nil, fmt.Errorf("parse quantity difference: %w", err)
	}
	if rec.Summary.TotalPriceDifference, err = decimal.NewFromString(totalPrice); err != nil {
		return nil, fmt.Errorf("parse price difference: %w", err)
	}

	return &rec, nil
}
