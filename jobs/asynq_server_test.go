package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

type fakeEnqueuer struct {
	calls       int
	windowHours int
	err         error
}

func (f *fakeEnqueuer) EnqueueIntegrityScan(_ context.Context, windowHours int) (*asynq.TaskInfo, error) {
	f.calls++
	f.windowHours = windowHours
	if f.err != nil {
		return nil, f.err
	}
	return &asynq.TaskInfo{ID: "task-1", Queue: QueueDefault}, nil
}

func newJobsRouter(enqueuer Enqueuer) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	r.Route("/jobs", NewHandler(nil, enqueuer, logger).MountRoutes)
	return r
}

func TestEnqueueIntegrityScan(t *testing.T) {
	enq := &fakeEnqueuer{}
	router := newJobsRouter(enq)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/integrity-scan?window_hours=48", nil))

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, 1, enq.calls)
	require.Equal(t, 48, enq.windowHours)
	require.Contains(t, rec.Body.String(), `"task_id":"task-1"`)
}

func TestEnqueueIntegrityScanRejectsBadWindow(t *testing.T) {
	enq := &fakeEnqueuer{}
	router := newJobsRouter(enq)

	for _, raw := range []string{"abc", "-1"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/integrity-scan?window_hours="+raw, nil))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}
	require.Zero(t, enq.calls)
}

func TestEnqueueIntegrityScanUnavailable(t *testing.T) {
	router := newJobsRouter(nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/integrity-scan", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	failing := newJobsRouter(&fakeEnqueuer{err: errors.New("redis down")})
	rec = httptest.NewRecorder()
	failing.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/integrity-scan", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
