package audithttp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/massehanto/accounting-system/internal/audit"
)

const maxDateRange = 90 * 24 * time.Hour

// TimelineService defines the business contract for timeline data.
type TimelineService interface {
	Timeline(ctx context.Context, filters audit.TimelineFilters) (audit.Result, error)
	Export(ctx context.Context, filters audit.TimelineFilters) ([]audit.Record, error)
}

// Exporter writes audit timeline exports.
type Exporter interface {
	WriteCSV(rows []audit.Record) ([]byte, error)
}

// Handler menangani permintaan audit timeline.
type Handler struct {
	logger   *slog.Logger
	service  TimelineService
	exporter Exporter
	exports  singleflight.Group
	now      func() time.Time
}

// NewHandler membuat handler audit baru.
func NewHandler(logger *slog.Logger, service TimelineService, exporter Exporter) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, exporter: exporter, now: time.Now}
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	filters, err := h.parseFilters(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	result, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		h.logger.Error("load audit timeline", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"rows":   result.Rows,
		"paging": result.Paging,
	})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	filters, err := h.parseFilters(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	// Identical concurrent exports share one query and render.
	key := exportKey(filters)
	payload, err, _ := h.exports.Do(key, func() (any, error) {
		rows, err := h.service.Export(r.Context(), filters)
		if err != nil {
			return nil, err
		}
		return h.exporter.WriteCSV(rows)
	})
	if err != nil {
		h.logger.Error("export audit timeline", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="audit-trail.csv"`)
	_, _ = w.Write(payload.([]byte))
}

func (h *Handler) parseFilters(r *http.Request) (audit.TimelineFilters, error) {
	q := r.URL.Query()
	filters := audit.TimelineFilters{
		Table:  q.Get("table"),
		Action: q.Get("action"),
	}
	if raw := q.Get("actor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return audit.TimelineFilters{}, fmt.Errorf("invalid actor_id")
		}
		filters.ActorID = id
	}
	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return audit.TimelineFilters{}, fmt.Errorf("invalid from timestamp")
		}
		filters.From = t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return audit.TimelineFilters{}, fmt.Errorf("invalid to timestamp")
		}
		filters.To = t
	}
	if filters.From.IsZero() && filters.To.IsZero() {
		now := h.now()
		filters.To = now
		filters.From = now.Add(-7 * 24 * time.Hour)
	}
	if !filters.From.IsZero() && !filters.To.IsZero() && filters.To.Sub(filters.From) > maxDateRange {
		return audit.TimelineFilters{}, fmt.Errorf("date range exceeds 90 days")
	}
	if raw := q.Get("page"); raw != "" {
		filters.Page, _ = strconv.Atoi(raw)
	}
	if raw := q.Get("page_size"); raw != "" {
		filters.PageSize, _ = strconv.Atoi(raw)
	}
	return filters, nil
}

func exportKey(f audit.TimelineFilters) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s", f.From.Format(time.RFC3339), f.To.Format(time.RFC3339), f.Table, f.Action, f.ActorID)
}
