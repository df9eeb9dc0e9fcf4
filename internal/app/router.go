package app

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	audithttp "github.com/massehanto/accounting-system/internal/audit/http"
	"github.com/massehanto/accounting-system/internal/ledger/accounts"
	"github.com/massehanto/accounting-system/internal/ledger/entries"
	"github.com/massehanto/accounting-system/internal/observability"
	"github.com/massehanto/accounting-system/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	EntriesHandler  *entries.Handler
	AccountsHandler *accounts.Handler
	AuditHandler    *audithttp.Handler
	JobsHandler     *jobs.Handler
	Pool            *pgxpool.Pool
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router for the ledger service.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/health", healthHandler(params.Pool))
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(RequireActor)
		if params.EntriesHandler != nil {
			r.Route("/journal-entries", params.EntriesHandler.MountRoutes)
		}
		if params.AccountsHandler != nil {
			r.Route("/accounts", params.AccountsHandler.MountRoutes)
		}
		if params.AuditHandler != nil {
			r.Route("/audit", params.AuditHandler.MountRoutes)
		}
		if params.JobsHandler != nil {
			r.Route("/jobs", params.JobsHandler.MountRoutes)
		}
	})

	return r
}

func healthHandler(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbHealthy := false
		if pool != nil {
			if err := pool.Ping(r.Context()); err == nil {
				dbHealthy = true
			}
		}
		status := http.StatusOK
		state := "healthy"
		if !dbHealthy {
			status = http.StatusServiceUnavailable
			state = "unhealthy"
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"service":   "general-ledger",
			"status":    state,
			"database":  dbHealthy,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}
