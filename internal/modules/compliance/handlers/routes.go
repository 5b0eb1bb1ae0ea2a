package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all compliance routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/compliance", func(r chi.Router) {
		r.Post("/evaluate", h.HandleEvaluate)
		r.Post("/sweep", h.HandleSweep)
		r.Get("/latest", h.HandleLatest)
		r.Get("/rules/default", h.HandleDefaultRules)
	})
}
