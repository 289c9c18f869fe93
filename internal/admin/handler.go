// Package admin serves the operator endpoints: health, cache control and
// data file management for file-backed pages.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/sportstore-dash/backend-go/internal/service"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/storage"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

const maxUploadBytes = 64 << 20

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	dashboards *service.DashboardService
	db         Pinger
	files      storage.ObjectStorage
}

// NewHandler builds the admin handler. db and files may be nil when the
// deployment has no database or object storage.
func NewHandler(dashboards *service.DashboardService, db Pinger, files storage.ObjectStorage) *Handler {
	return &Handler{dashboards: dashboards, db: db, files: files}
}

func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.Health).Methods("GET")
	router.HandleFunc("/admin/cache", h.ClearCache).Methods("DELETE")
	router.HandleFunc("/admin/pages/{page}/reload", h.ReloadPage).Methods("POST")
	router.HandleFunc("/admin/files", h.ListFiles).Methods("GET")
	router.HandleFunc("/admin/files/download", h.DownloadFile).Methods("GET")
	router.HandleFunc("/admin/files", h.UploadFile).Methods("POST")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("admin: encode response failed")
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"api": "ok", "database": "disabled"}
	code := http.StatusOK

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			status["database"] = err.Error()
			code = http.StatusServiceUnavailable
		} else {
			status["database"] = "ok"
		}
	}

	writeJSON(w, code, status)
}

func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.dashboards.InvalidateAll(r.Context()); err != nil {
		http.Error(w, fmt.Sprintf("cache clear failed: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "cache cleared"})
}

func (h *Handler) ReloadPage(w http.ResponseWriter, r *http.Request) {
	page := mux.Vars(r)["page"]
	ds, err := h.dashboards.Refresh(r.Context(), page)
	if err != nil {
		http.Error(w, fmt.Sprintf("reload failed: %v", err), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"page": ds.Page, "records": ds.Len(), "loaded_at": ds.LoadedAt})
}

func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	if !h.requireStorage(w) {
		return
	}
	files, err := h.files.ListObjects(r.Context(), r.URL.Query().Get("prefix"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, files)
}

func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	if !h.requireStorage(w) {
		return
	}
	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "key parameter is required", http.StatusBadRequest)
		return
	}

	rc, err := h.files.OpenObject(r.Context(), key)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType(key))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", baseName(key)))
	if _, err := io.Copy(w, rc); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("admin: download interrupted")
	}
}

// UploadFile stores a data file and reloads the pages that read it.
func (h *Handler) UploadFile(w http.ResponseWriter, r *http.Request) {
	if !h.requireStorage(w) {
		return
	}
	key := strings.TrimPrefix(r.URL.Query().Get("key"), "/")
	if key == "" {
		http.Error(w, "key parameter is required", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		http.Error(w, fmt.Sprintf("read body failed: %v", err), http.StatusBadRequest)
		return
	}
	if len(data) == 0 {
		http.Error(w, "empty file", http.StatusBadRequest)
		return
	}

	if err := h.files.UploadObject(r.Context(), key, data); err != nil {
		http.Error(w, fmt.Sprintf("upload failed: %v", err), http.StatusInternalServerError)
		return
	}

	var reloaded []string
	for _, p := range h.dashboards.PagesReading(key) {
		if _, err := h.dashboards.Refresh(r.Context(), p); err != nil {
			log.Warn().Err(err).Str("page", p).Msg("admin: reload after upload failed")
			continue
		}
		reloaded = append(reloaded, p)
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "key": key, "size": len(data), "reloaded": reloaded})
}

func (h *Handler) requireStorage(w http.ResponseWriter) bool {
	if h.files == nil {
		http.Error(w, "object storage is not configured", http.StatusNotImplemented)
		return false
	}
	return true
}

func contentType(key string) string {
	switch {
	case strings.HasSuffix(strings.ToLower(key), ".csv"):
		return "text/csv"
	case strings.HasSuffix(strings.ToLower(key), ".xlsx"):
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/octet-stream"
}

func baseName(key string) string {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[i+1:]
	}
	return key
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrUnknownPage):
		return http.StatusNotFound
	case errors.Is(err, service.ErrSourceUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
