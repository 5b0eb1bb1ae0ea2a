package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/internal/modules/compliance"
	"github.com/aristath/sentinel-risk/internal/modules/snapshots"
	testutil "github.com/aristath/sentinel-risk/internal/testing"
)

type mockSweeper struct {
	eval *compliance.Evaluation
	err  error
}

func (m *mockSweeper) Sweep(context.Context) (*compliance.Evaluation, error) {
	return m.eval, m.err
}

type testEnv struct {
	router  http.Handler
	store   *snapshots.Store
	sweeper *mockSweeper
}

func setupTestHandler(t *testing.T) testEnv {
	t.Helper()
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	env := testEnv{
		store:   snapshots.NewStore(nil, logger),
		sweeper: &mockSweeper{},
	}
	h := NewHandler(compliance.NewEngine(compliance.Config{}, logger), env.store, env.sweeper, nil, logger)
	router := chi.NewRouter()
	router.Route("/api", h.RegisterRoutes)
	env.router = router
	return env
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func decodeEvaluation(t *testing.T, rec *httptest.ResponseRecorder) compliance.Evaluation {
	t.Helper()
	var env struct {
		Data compliance.Evaluation `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Data
}

func positionRule(current float64) domain.ComplianceRule {
	return domain.ComplianceRule{
		ID:           "max_single_position",
		Name:         "Single position limit",
		Category:     domain.CategoryPositionLimit,
		Threshold:    10,
		Unit:         domain.UnitPercent,
		Direction:    domain.AboveIsBad,
		CurrentValue: current,
	}
}

func TestHandleEvaluate(t *testing.T) {
	env := setupTestHandler(t)

	rec := do(t, env.router, http.MethodPost, "/api/compliance/evaluate", EvaluateRequest{
		Rules: []domain.ComplianceRule{positionRule(8.5)},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	eval := decodeEvaluation(t, rec)
	require.Len(t, eval.Results, 1)
	assert.Equal(t, domain.StatusWarning, eval.Results[0].Status)
	assert.Equal(t, domain.OverallIssues, eval.Report.OverallStatus)
}

func TestHandleEvaluateEmptyRuleSet(t *testing.T) {
	env := setupTestHandler(t)

	rec := do(t, env.router, http.MethodPost, "/api/compliance/evaluate", EvaluateRequest{Rules: []domain.ComplianceRule{}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	eval := decodeEvaluation(t, rec)
	assert.Equal(t, domain.OverallCompliant, eval.Report.OverallStatus)
	assert.Equal(t, 100.0, eval.Report.Score)
}

func TestHandleEvaluateBind(t *testing.T) {
	env := setupTestHandler(t)
	rule := positionRule(0)
	rule.Metric = compliance.MetricMaxPositionWeight

	rec := do(t, env.router, http.MethodPost, "/api/compliance/evaluate", EvaluateRequest{
		Rules: []domain.ComplianceRule{rule},
		Bind:  true,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code, "binding needs a snapshot")

	_, err := env.store.Replace(testutil.NewPortfolio(t), nil, nil, "test")
	require.NoError(t, err)

	rec = do(t, env.router, http.MethodPost, "/api/compliance/evaluate", EvaluateRequest{
		Rules: []domain.ComplianceRule{rule},
		Bind:  true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	eval := decodeEvaluation(t, rec)
	assert.InDelta(t, 40, eval.Results[0].CurrentValue, 1e-9)
	assert.Equal(t, domain.StatusViolation, eval.Results[0].Status)
}

func TestHandleEvaluateErrors(t *testing.T) {
	env := setupTestHandler(t)

	rec := do(t, env.router, http.MethodPost, "/api/compliance/evaluate", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	bad := positionRule(5)
	bad.Threshold = 0
	rec = do(t, env.router, http.MethodPost, "/api/compliance/evaluate", EvaluateRequest{Rules: []domain.ComplianceRule{bad}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSweepAndLatest(t *testing.T) {
	env := setupTestHandler(t)

	rec := do(t, env.router, http.MethodGet, "/api/compliance/latest", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	env.sweeper.err = domain.ErrNotFound
	rec = do(t, env.router, http.MethodPost, "/api/compliance/sweep", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	snap, err := env.store.Replace(testutil.NewPortfolio(t), nil, nil, "test")
	require.NoError(t, err)
	eval := &compliance.Evaluation{Report: domain.ComplianceReport{OverallStatus: domain.OverallViolations, TotalRules: 6}}
	require.True(t, env.store.SetEvaluation(eval, snap.Version))
	env.sweeper.eval, env.sweeper.err = eval, nil

	rec = do(t, env.router, http.MethodPost, "/api/compliance/sweep", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.OverallViolations, decodeEvaluation(t, rec).Report.OverallStatus)

	rec = do(t, env.router, http.MethodGet, "/api/compliance/latest", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 6, decodeEvaluation(t, rec).Report.TotalRules)
}

func TestHandleDefaultRules(t *testing.T) {
	env := setupTestHandler(t)

	rec := do(t, env.router, http.MethodGet, "/api/compliance/rules/default", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []domain.ComplianceRule `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, compliance.DefaultRules(), body.Data)
}
