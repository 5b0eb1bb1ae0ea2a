// Package handlers provides HTTP handlers for compliance evaluation.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/internal/events"
	"github.com/aristath/sentinel-risk/internal/httputil"
	"github.com/aristath/sentinel-risk/internal/modules/compliance"
	"github.com/aristath/sentinel-risk/internal/modules/snapshots"
)

const eventModule = "compliance"

// EventEmitter defines the interface for emitting events
type EventEmitter interface {
	Emit(module string, data events.EventData)
}

// Sweeper evaluates the current snapshot on demand.
type Sweeper interface {
	Sweep(ctx context.Context) (*compliance.Evaluation, error)
}

// Handler handles compliance HTTP requests
type Handler struct {
	engine  *compliance.Engine
	store   *snapshots.Store
	sweeper Sweeper
	emitter EventEmitter
	out     *httputil.Writer
	log     zerolog.Logger
}

// NewHandler creates a new compliance handler. emitter may be nil.
func NewHandler(
	engine *compliance.Engine,
	store *snapshots.Store,
	sweeper Sweeper,
	emitter EventEmitter,
	log zerolog.Logger,
) *Handler {
	log = log.With().Str("handler", "compliance").Logger()
	return &Handler{
		engine:  engine,
		store:   store,
		sweeper: sweeper,
		emitter: emitter,
		out:     httputil.NewWriter(log),
		log:     log,
	}
}

// EvaluateRequest is the body of POST /evaluate. With Bind set, rules that name a metric
// take their current value from the loaded snapshot's portfolio and series.
type EvaluateRequest struct {
	Rules []domain.ComplianceRule `json:"rules"`
	Bind  bool                    `json:"bind,omitempty"`
}

// LatestResponse is the body of GET /latest.
type LatestResponse struct {
	*compliance.Evaluation
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// HandleEvaluate handles POST /api/compliance/evaluate
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		h.out.Err(w, r, err)
		return
	}
	if req.Rules == nil {
		h.out.Err(w, r, fmt.Errorf("%w: rules are required", domain.ErrInvalidConfiguration))
		return
	}

	rules := req.Rules
	if req.Bind {
		snap, err := h.store.Current()
		if err != nil {
			h.out.Err(w, r, err)
			return
		}
		rules, err = h.engine.BindCurrentValues(rules, compliance.Snapshot{Portfolio: snap.Portfolio, Series: snap.Series})
		if err != nil {
			h.out.Err(w, r, err)
			return
		}
	}

	eval, err := h.engine.Evaluate(rules)
	if err != nil {
		h.out.Err(w, r, err)
		return
	}
	if h.emitter != nil {
		h.emitter.Emit(eventModule, &events.ComplianceEvaluatedData{
			OverallStatus: string(eval.Report.OverallStatus),
			Rules:         eval.Report.TotalRules,
			Warnings:      eval.Report.Warnings,
			Violations:    eval.Report.Violations,
			Source:        "api",
		})
	}
	h.out.Data(w, r, http.StatusOK, eval)
}

// HandleSweep handles POST /api/compliance/sweep
func (h *Handler) HandleSweep(w http.ResponseWriter, r *http.Request) {
	eval, err := h.sweeper.Sweep(r.Context())
	if err != nil {
		h.out.Err(w, r, err)
		return
	}
	h.out.Data(w, r, http.StatusOK, eval)
}

// HandleLatest handles GET /api/compliance/latest
func (h *Handler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	eval, at, err := h.store.LatestEvaluation()
	if err != nil {
		h.out.Err(w, r, err)
		return
	}
	h.out.Data(w, r, http.StatusOK, LatestResponse{Evaluation: eval, EvaluatedAt: at})
}

// HandleDefaultRules handles GET /api/compliance/rules/default
func (h *Handler) HandleDefaultRules(w http.ResponseWriter, r *http.Request) {
	h.out.Data(w, r, http.StatusOK, h.store.DefaultRules())
}
