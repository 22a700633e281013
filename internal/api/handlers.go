package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/procurewatch/reconciler/internal/config"
	"github.com/procurewatch/reconciler/internal/reconcile"
	"github.com/procurewatch/reconciler/internal/repository"
)

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	repo  *repository.ComparisonRepo
	svc   *reconcile.Service
	dbCfg config.DatabaseConfig
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[api] encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return def
	}
	return v
}

// saveUpload writes one uploaded file into dir under its original name.
func saveUpload(dir string, fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	path := filepath.Join(dir, filepath.Base(fh.Filename))
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// --- RunComparison ---

// RunComparison accepts a multipart form with one "offer" file and one or
// more "invoices" files, runs the engine over them, and returns the stored
// record.
func (h *Handlers) RunComparison(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	offerHeaders := r.MultipartForm.File["offer"]
	invoiceHeaders := r.MultipartForm.File["invoices"]
	if len(offerHeaders) != 1 {
		writeError(w, http.StatusBadRequest, "exactly one offer file is required")
		return
	}
	if len(invoiceHeaders) == 0 {
		writeError(w, http.StatusBadRequest, "at least one invoices file is required")
		return
	}

	dir, err := os.MkdirTemp("", "comparison-")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "temp dir: "+err.Error())
		return
	}
	defer os.RemoveAll(dir)

	offerPath, err := saveUpload(dir, offerHeaders[0])
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	invoicePaths := make([]string, 0, len(invoiceHeaders))
	for _, fh := range invoiceHeaders {
		path, err := saveUpload(dir, fh)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		invoicePaths = append(invoicePaths, path)
	}

	rec, err := h.svc.Run(offerPath, invoicePaths)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// --- ListComparisons ---

func (h *Handlers) ListComparisons(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	days := parseIntDefault(q.Get("days"), 0)
	limit := parseIntDefault(q.Get("limit"), 50)

	recs, err := h.repo.History(days, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"comparisons": recs,
		"count":       len(recs),
	})
}

// --- GetComparison ---

func (h *Handlers) GetComparison(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	rec, err := h.repo.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "comparison not found")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// --- GetStatistics ---

func (h *Handlers) GetStatistics(w http.ResponseWriter, r *http.Request) {
	days := parseIntDefault(r.URL.Query().Get("days"), 0)

	stats, err := h.repo.GetStatistics(days)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// --- Cleanup ---

// Cleanup deletes runs past the retention window. An explicit ?days= beats
// the configured retention.
func (h *Handlers) Cleanup(w http.ResponseWriter, r *http.Request) {
	days := parseIntDefault(r.URL.Query().Get("days"), h.dbCfg.RetentionDays)

	deleted, err := h.repo.CleanupOlderThan(days)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"deleted":        deleted,
		"retention_days": days,
	})
}
