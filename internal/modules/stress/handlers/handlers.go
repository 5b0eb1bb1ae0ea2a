// Package handlers provides HTTP handlers for stress testing and the scenario catalog.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/sentinel-risk/internal/config"
	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/internal/events"
	"github.com/aristath/sentinel-risk/internal/httputil"
	"github.com/aristath/sentinel-risk/internal/modules/snapshots"
	"github.com/aristath/sentinel-risk/internal/modules/stress"
	"github.com/aristath/sentinel-risk/internal/work"
)

const (
	defaultRunKey = "stress"
	eventModule   = "stress"
)

// EventEmitter defines the interface for emitting events
type EventEmitter interface {
	Emit(module string, data events.EventData)
}

// Recorder receives computation metrics.
type Recorder interface {
	ObserveComputation(engine, method string, err error, elapsed time.Duration)
}

// Handler handles stress test HTTP requests
type Handler struct {
	engine   *stress.Engine
	catalog  *stress.Catalog
	runner   *work.Runner
	store    *snapshots.Store
	emitter  EventEmitter
	recorder Recorder
	out      *httputil.Writer
	log      zerolog.Logger
}

// NewHandler creates a new stress handler. emitter and recorder may be nil.
func NewHandler(
	engine *stress.Engine,
	catalog *stress.Catalog,
	runner *work.Runner,
	store *snapshots.Store,
	emitter EventEmitter,
	recorder Recorder,
	log zerolog.Logger,
) *Handler {
	log = log.With().Str("handler", "stress").Logger()
	return &Handler{
		engine:   engine,
		catalog:  catalog,
		runner:   runner,
		store:    store,
		emitter:  emitter,
		recorder: recorder,
		out:      httputil.NewWriter(log),
		log:      log,
	}
}

// StressRequest is the body of POST /stress and POST /runs/stress. Exactly one of
// ScenarioID and Scenario is required. Without a portfolio the current snapshot is used.
type StressRequest struct {
	ScenarioID string                   `json:"scenario_id,omitempty"`
	Scenario   *domain.StressScenario   `json:"scenario,omitempty"`
	Portfolio  *config.SnapshotDocument `json:"portfolio,omitempty"`
	Key        string                   `json:"key,omitempty"` // run channel, runs only
}

// StressAllRequest is the body of POST /stress/all. No ids means the whole catalog.
type StressAllRequest struct {
	ScenarioIDs []string                 `json:"scenario_ids,omitempty"`
	Portfolio   *config.SnapshotDocument `json:"portfolio,omitempty"`
	Key         string                   `json:"key,omitempty"`
}

type stressInputs struct {
	portfolio *domain.Portfolio
	baseline  *domain.ReturnSeries
}

// HandleRunStressTest handles POST /api/risk/stress
func (h *Handler) HandleRunStressTest(w http.ResponseWriter, r *http.Request) {
	var req StressRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		h.out.Err(w, r, err)
		return
	}
	scenario, in, err := h.resolveOne(req)
	if err != nil {
		h.out.Err(w, r, err)
		return
	}

	result, err := h.runOne(r.Context(), scenario, in, domain.NoopProgress{})
	if err != nil {
		h.out.Err(w, r, err)
		return
	}
	h.out.Data(w, r, http.StatusOK, result)
}

// HandleRunAll handles POST /api/risk/stress/all
func (h *Handler) HandleRunAll(w http.ResponseWriter, r *http.Request) {
	var req StressAllRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		h.out.Err(w, r, err)
		return
	}
	scenarios, in, err := h.resolveAll(req)
	if err != nil {
		h.out.Err(w, r, err)
		return
	}

	results, err := h.runAll(r.Context(), scenarios, in, domain.NoopProgress{})
	if err != nil {
		h.out.Err(w, r, err)
		return
	}
	h.out.Data(w, r, http.StatusOK, results)
}

// HandleSubmitStressRun handles POST /api/risk/runs/stress
func (h *Handler) HandleSubmitStressRun(w http.ResponseWriter, r *http.Request) {
	var req StressRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		h.out.Err(w, r, err)
		return
	}
	scenario, in, err := h.resolveOne(req)
	if err != nil {
		h.out.Err(w, r, err)
		return
	}

	run := h.runner.Submit(runKey(req.Key), work.KindStress, func(ctx context.Context, progress domain.ProgressReporter) (any, error) {
		return h.runOne(ctx, scenario, in, progress)
	})
	h.out.Data(w, r, http.StatusAccepted, run)
}

// HandleSubmitStressAllRun handles POST /api/risk/runs/stress/all
func (h *Handler) HandleSubmitStressAllRun(w http.ResponseWriter, r *http.Request) {
	var req StressAllRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		h.out.Err(w, r, err)
		return
	}
	scenarios, in, err := h.resolveAll(req)
	if err != nil {
		h.out.Err(w, r, err)
		return
	}

	run := h.runner.Submit(runKey(req.Key), work.KindStressAll, func(ctx context.Context, progress domain.ProgressReporter) (any, error) {
		return h.runAll(ctx, scenarios, in, progress)
	})
	h.out.Data(w, r, http.StatusAccepted, run)
}

// HandleListScenarios handles GET /api/risk/scenarios
func (h *Handler) HandleListScenarios(w http.ResponseWriter, r *http.Request) {
	h.out.Data(w, r, http.StatusOK, h.catalog.List())
}

// HandleGetScenario handles GET /api/risk/scenarios/{id}
func (h *Handler) HandleGetScenario(w http.ResponseWriter, r *http.Request) {
	s, err := h.catalog.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.out.Err(w, r, err)
		return
	}
	h.out.Data(w, r, http.StatusOK, s)
}

// HandleCreateScenario handles POST /api/risk/scenarios
func (h *Handler) HandleCreateScenario(w http.ResponseWriter, r *http.Request) {
	var s domain.StressScenario
	if err := httputil.DecodeJSON(w, r, &s); err != nil {
		h.out.Err(w, r, err)
		return
	}
	created, err := h.catalog.Create(s)
	if err != nil {
		h.out.Err(w, r, err)
		return
	}

	h.log.Info().Str("scenario_id", created.ID).Str("name", created.Name).Msg("Scenario created")
	if h.emitter != nil {
		h.emitter.Emit(eventModule, &events.ScenarioCreatedData{ScenarioID: created.ID, Name: created.Name})
	}
	h.out.Data(w, r, http.StatusCreated, created)
}

func (h *Handler) runOne(ctx context.Context, s domain.StressScenario, in stressInputs, progress domain.ProgressReporter) (*domain.StressTestResult, error) {
	start := time.Now()
	result, err := h.engine.RunStressTest(ctx, in.portfolio, s,
		stress.WithBaseline(in.baseline), stress.WithProgress(progress))
	h.observe(string(s.Type), err, time.Since(start))
	return result, err
}

func (h *Handler) runAll(ctx context.Context, scenarios []domain.StressScenario, in stressInputs, progress domain.ProgressReporter) ([]*domain.StressTestResult, error) {
	start := time.Now()
	results, err := h.engine.RunAll(ctx, in.portfolio, scenarios,
		stress.WithBaseline(in.baseline), stress.WithProgress(progress))
	h.observe("all", err, time.Since(start))
	return results, err
}

func (h *Handler) resolveOne(req StressRequest) (domain.StressScenario, stressInputs, error) {
	var s domain.StressScenario
	switch {
	case req.Scenario != nil && req.ScenarioID != "":
		return s, stressInputs{}, fmt.Errorf("%w: give scenario_id or scenario, not both", domain.ErrInvalidConfiguration)
	case req.Scenario != nil:
		s = *req.Scenario
		if s.Type == "" {
			s.Type = domain.ScenarioCustom
		}
	case req.ScenarioID != "":
		var err error
		if s, err = h.catalog.Get(req.ScenarioID); err != nil {
			return s, stressInputs{}, err
		}
	default:
		return s, stressInputs{}, fmt.Errorf("%w: scenario_id or scenario is required", domain.ErrInvalidConfiguration)
	}

	in, err := h.inputs(req.Portfolio)
	return s, in, err
}

func (h *Handler) resolveAll(req StressAllRequest) ([]domain.StressScenario, stressInputs, error) {
	scenarios := h.catalog.List()
	if len(req.ScenarioIDs) > 0 {
		scenarios = make([]domain.StressScenario, 0, len(req.ScenarioIDs))
		for _, id := range req.ScenarioIDs {
			s, err := h.catalog.Get(id)
			if err != nil {
				return nil, stressInputs{}, err
			}
			scenarios = append(scenarios, s)
		}
	}
	in, err := h.inputs(req.Portfolio)
	return scenarios, in, err
}

// inputs builds the portfolio from the request, falling back to the current snapshot.
func (h *Handler) inputs(doc *config.SnapshotDocument) (stressInputs, error) {
	if doc != nil {
		portfolio, series, err := doc.Build()
		if err != nil {
			return stressInputs{}, err
		}
		return stressInputs{portfolio: portfolio, baseline: series}, nil
	}
	snap, err := h.store.Current()
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return stressInputs{}, fmt.Errorf("%w: no portfolio in request and no snapshot loaded", domain.ErrInvalidInput)
		}
		return stressInputs{}, err
	}
	return stressInputs{portfolio: snap.Portfolio, baseline: snap.Series}, nil
}

func (h *Handler) observe(method string, err error, elapsed time.Duration) {
	if h.recorder != nil {
		h.recorder.ObserveComputation("stress", method, err, elapsed)
	}
}

func runKey(key string) string {
	if key == "" {
		return defaultRunKey
	}
	return key
}
