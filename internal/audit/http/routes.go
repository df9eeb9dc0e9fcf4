package audithttp

import "github.com/go-chi/chi/v5"

// MountRoutes memasang endpoint audit pada router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleTimeline)
	r.Get("/export.csv", h.handleExport)
}
