package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the stress routes on a router mounted at /api/risk
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/stress", h.HandleRunStressTest)
	r.Post("/stress/all", h.HandleRunAll)

	r.Route("/scenarios", func(r chi.Router) {
		r.Get("/", h.HandleListScenarios)
		r.Post("/", h.HandleCreateScenario)
		r.Get("/{id}", h.HandleGetScenario)
	})

	r.Post("/runs/stress", h.HandleSubmitStressRun)
	r.Post("/runs/stress/all", h.HandleSubmitStressAllRun)
}
