package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the VaR routes on a router mounted at /api/risk
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/var", h.HandleComputeVaR)
	r.Post("/summary", h.HandleSummary)
	r.Post("/runs/var", h.HandleSubmitVaRRun)
}
