// Package handlers provides HTTP handlers for the current portfolio snapshot.
package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/sentinel-risk/internal/config"
	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/internal/httputil"
	"github.com/aristath/sentinel-risk/internal/modules/snapshots"
)

// Handler handles snapshot HTTP requests
type Handler struct {
	store *snapshots.Store
	out   *httputil.Writer
	log   zerolog.Logger
}

// NewHandler creates a new snapshot handler
func NewHandler(store *snapshots.Store, log zerolog.Logger) *Handler {
	log = log.With().Str("handler", "snapshots").Logger()
	return &Handler{
		store: store,
		out:   httputil.NewWriter(log),
		log:   log,
	}
}

// PutRequest replaces the snapshot wholesale. Omitted rules fall back to the defaults.
type PutRequest struct {
	config.SnapshotDocument
	Rules []domain.ComplianceRule `json:"rules,omitempty"`
}

// Summary describes the current snapshot.
type Summary struct {
	Version      uint64                  `json:"version"`
	Source       string                  `json:"source"`
	UpdatedAt    time.Time               `json:"updated_at"`
	TotalValue   float64                 `json:"total_value"`
	Positions    []domain.Position       `json:"positions"`
	CashWeight   float64                 `json:"cash_weight"`
	Sectors      map[string]float64      `json:"sector_weights"`
	Observations int                     `json:"observations"`
	Rules        []domain.ComplianceRule `json:"rules"`
}

// HandlePut handles PUT /api/snapshot
func (h *Handler) HandlePut(w http.ResponseWriter, r *http.Request) {
	var req PutRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		h.out.Err(w, r, err)
		return
	}
	portfolio, series, err := req.Build()
	if err != nil {
		h.out.Err(w, r, err)
		return
	}
	snap, err := h.store.Replace(portfolio, series, req.Rules, "api")
	if err != nil {
		h.out.Err(w, r, err)
		return
	}
	h.out.Data(w, r, http.StatusOK, summarize(snap))
}

// HandleGet handles GET /api/snapshot
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	snap, err := h.store.Current()
	if err != nil {
		h.out.Err(w, r, err)
		return
	}
	h.out.Data(w, r, http.StatusOK, summarize(snap))
}

func summarize(snap snapshots.Snapshot) Summary {
	s := Summary{
		Version:    snap.Version,
		Source:     snap.Source,
		UpdatedAt:  snap.UpdatedAt,
		TotalValue: snap.Portfolio.TotalValue(),
		Positions:  snap.Portfolio.Positions(),
		CashWeight: snap.Portfolio.CashWeight(),
		Sectors:    snap.Portfolio.SectorWeights(),
		Rules:      snap.Rules,
	}
	if snap.Series != nil {
		s.Observations = snap.Series.Len()
	}
	return s
}
