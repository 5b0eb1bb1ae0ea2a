// Package handlers provides HTTP handlers for VaR and performance operations.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/sentinel-risk/internal/config"
	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/internal/httputil"
	"github.com/aristath/sentinel-risk/internal/modules/risk"
	"github.com/aristath/sentinel-risk/internal/modules/snapshots"
	"github.com/aristath/sentinel-risk/internal/work"
)

// Defaults applied to omitted request fields.
const (
	defaultMethod     = domain.VaRHistorical
	defaultConfidence = 95.0
	defaultHorizon    = 1
	defaultRunKey     = "var"
)

// Recorder receives computation metrics.
type Recorder interface {
	ObserveComputation(engine, method string, err error, elapsed time.Duration)
}

// Handler handles VaR HTTP requests
type Handler struct {
	engine       *risk.Engine
	runner       *work.Runner
	store        *snapshots.Store
	recorder     Recorder
	riskFreeRate float64
	out          *httputil.Writer
	log          zerolog.Logger
}

// NewHandler creates a new VaR handler. recorder may be nil.
func NewHandler(
	engine *risk.Engine,
	runner *work.Runner,
	store *snapshots.Store,
	recorder Recorder,
	riskFreeRate float64,
	log zerolog.Logger,
) *Handler {
	log = log.With().Str("handler", "risk").Logger()
	return &Handler{
		engine:       engine,
		runner:       runner,
		store:        store,
		recorder:     recorder,
		riskFreeRate: riskFreeRate,
		out:          httputil.NewWriter(log),
		log:          log,
	}
}

// VaRRequest is the body of the VaR endpoints. Without a series the current snapshot's
// series is used.
type VaRRequest struct {
	Series            []config.SeriesPoint `json:"series,omitempty"`
	Method            string               `json:"method,omitempty"`
	Confidence        float64              `json:"confidence,omitempty"`
	HoldingPeriodDays int                  `json:"holding_period_days,omitempty"`
	Key               string               `json:"key,omitempty"` // run channel, runs only
}

// SummaryRequest is the body of POST /summary.
type SummaryRequest struct {
	Series       []config.SeriesPoint `json:"series,omitempty"`
	RiskFreeRate *float64             `json:"risk_free_rate,omitempty"`
}

type varInputs struct {
	series     *domain.ReturnSeries
	method     domain.VaRMethod
	confidence float64
	horizon    int
}

// HandleComputeVaR handles POST /api/risk/var
func (h *Handler) HandleComputeVaR(w http.ResponseWriter, r *http.Request) {
	var req VaRRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		h.out.Err(w, r, err)
		return
	}
	in, err := h.resolve(req)
	if err != nil {
		h.out.Err(w, r, err)
		return
	}

	start := time.Now()
	result, err := h.engine.ComputeVaR(r.Context(), in.series, in.method, in.confidence, in.horizon)
	h.observe(string(in.method), err, time.Since(start))
	if err != nil {
		h.out.Err(w, r, err)
		return
	}
	h.out.Data(w, r, http.StatusOK, result)
}

// HandleSubmitVaRRun handles POST /api/risk/runs/var. A new run on the same key
// supersedes the previous one.
func (h *Handler) HandleSubmitVaRRun(w http.ResponseWriter, r *http.Request) {
	var req VaRRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		h.out.Err(w, r, err)
		return
	}
	in, err := h.resolve(req)
	if err != nil {
		h.out.Err(w, r, err)
		return
	}
	key := req.Key
	if key == "" {
		key = defaultRunKey
	}

	run := h.runner.Submit(key, work.KindVaR, func(ctx context.Context, progress domain.ProgressReporter) (any, error) {
		start := time.Now()
		result, err := h.engine.ComputeVaR(ctx, in.series, in.method, in.confidence, in.horizon, risk.WithProgress(progress))
		h.observe(string(in.method), err, time.Since(start))
		return result, err
	})
	h.out.Data(w, r, http.StatusAccepted, run)
}

// HandleSummary handles POST /api/risk/summary
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	var req SummaryRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		h.out.Err(w, r, err)
		return
	}
	series, err := h.series(req.Series)
	if err != nil {
		h.out.Err(w, r, err)
		return
	}
	rf := h.riskFreeRate
	if req.RiskFreeRate != nil {
		rf = *req.RiskFreeRate
	}

	start := time.Now()
	summary, err := h.engine.Summarize(series, rf)
	h.observe("summary", err, time.Since(start))
	if err != nil {
		h.out.Err(w, r, err)
		return
	}
	h.out.Data(w, r, http.StatusOK, summary)
}

func (h *Handler) resolve(req VaRRequest) (varInputs, error) {
	in := varInputs{
		method:     defaultMethod,
		confidence: req.Confidence,
		horizon:    req.HoldingPeriodDays,
	}
	if req.Method != "" {
		m, err := domain.ParseVaRMethod(req.Method)
		if err != nil {
			return varInputs{}, err
		}
		in.method = m
	}
	if in.confidence == 0 {
		in.confidence = defaultConfidence
	}
	if in.horizon == 0 {
		in.horizon = defaultHorizon
	}

	series, err := h.series(req.Series)
	if err != nil {
		return varInputs{}, err
	}
	in.series = series
	return in, nil
}

// series builds the request series, falling back to the current snapshot.
func (h *Handler) series(points []config.SeriesPoint) (*domain.ReturnSeries, error) {
	if len(points) > 0 {
		return domain.NewReturnSeries(config.ReturnPoints(points))
	}
	snap, err := h.store.Current()
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: no series in request and no snapshot loaded", domain.ErrInsufficientData)
		}
		return nil, err
	}
	if snap.Series == nil {
		return nil, fmt.Errorf("%w: snapshot has no return series", domain.ErrInsufficientData)
	}
	return snap.Series, nil
}

func (h *Handler) observe(method string, err error, elapsed time.Duration) {
	if h.recorder != nil {
		h.recorder.ObserveComputation("var", method, err, elapsed)
	}
}
