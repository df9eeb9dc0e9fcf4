package audithttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/massehanto/accounting-system/internal/audit"
)

type stubTimelineService struct {
	rows        []audit.Record
	lastFilters audit.TimelineFilters
	exportCalls int
}

func (s *stubTimelineService) Timeline(ctx context.Context, filters audit.TimelineFilters) (audit.Result, error) {
	s.lastFilters = filters
	return audit.Result{Rows: s.rows, Paging: audit.PagingInfo{Page: 1, PageSize: 20}}, nil
}

func (s *stubTimelineService) Export(ctx context.Context, filters audit.TimelineFilters) ([]audit.Record, error) {
	s.exportCalls++
	return s.rows, nil
}

func sampleRows() []audit.Record {
	return []audit.Record{
		{
			ID:         uuid.New(),
			TableName:  "journal_entries",
			RecordID:   uuid.New(),
			Action:     audit.ActionPost,
			NewValues:  json.RawMessage(`{"status":"POSTED"}`),
			ActorID:    uuid.New(),
			ChainHash:  []byte{0xde, 0xad},
			OccurredAt: time.Date(2025, 4, 2, 10, 30, 0, 0, time.UTC),
		},
	}
}

func newAuditRouter(svc TimelineService) http.Handler {
	h := NewHandler(nil, svc, audit.NewCSVExporter())
	r := chi.NewRouter()
	r.Route("/audit", h.MountRoutes)
	return r
}

func TestTimelineEndpoint(t *testing.T) {
	svc := &stubTimelineService{rows: sampleRows()}
	router := newAuditRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit/?table=journal_entries&action=POST", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "journal_entries", svc.lastFilters.Table)
	require.Equal(t, "POST", svc.lastFilters.Action)
	require.False(t, svc.lastFilters.From.IsZero(), "missing range defaults to the last 7 days")

	var body struct {
		Rows   []audit.Record   `json:"rows"`
		Paging audit.PagingInfo `json:"paging"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Rows, 1)
}

func TestTimelineRejectsBadFilters(t *testing.T) {
	router := newAuditRouter(&stubTimelineService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit/?actor_id=nope", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit/?from=2024-01-01T00:00:00Z&to=2024-12-31T00:00:00Z", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code, "range above 90 days is rejected")
}

func TestExportRendersCSV(t *testing.T) {
	svc := &stubTimelineService{rows: sampleRows()}
	router := newAuditRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit/export.csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/csv", rec.Header().Get("Content-Type"))

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "occurred_at")
	require.Contains(t, lines[1], "journal_entries")
	require.Contains(t, lines[1], "POST")
	require.Contains(t, lines[1], "dead")
}
