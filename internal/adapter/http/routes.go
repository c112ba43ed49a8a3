package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	// Liveness (outside the versioned API, no middleware requirements)
	r.Get("/healthz", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		// Version
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Directory
		r.Post("/register", h.RegisterAgent)
		r.Get("/agents", h.ListAgents)
		r.Get("/agents/{name}", h.GetAgent)

		// Fixed pipelines
		r.Post("/pipeline/run", h.RunPipeline)
		r.Get("/pipeline/templates", h.ListTemplates)
		r.Post("/pipeline/templates", h.CreateTemplate)
		r.Post("/pipeline/templates/{id}/run", h.RunTemplate)

		// Hub dispatch (skill-routed stages)
		r.Post("/hub/run", h.RunHub)

		// Dynamic orchestration
		r.Post("/orchestrate", h.Orchestrate)
	})
}
