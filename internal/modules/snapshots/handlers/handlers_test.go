package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/sentinel-risk/internal/config"
	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/internal/modules/snapshots"
	testutil "github.com/aristath/sentinel-risk/internal/testing"
)

func setupTestHandler(t *testing.T) (http.Handler, *snapshots.Store) {
	t.Helper()
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	store := snapshots.NewStore(nil, logger)
	router := chi.NewRouter()
	router.Route("/api", NewHandler(store, logger).RegisterRoutes)
	return router, store
}

func do(t *testing.T, h http.Handler, method string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, "/api/snapshot", &buf))
	return rec
}

func snapshotRequest(t *testing.T) PutRequest {
	t.Helper()
	p := testutil.NewPortfolio(t)
	points := testutil.NewReturnSeries(t, testutil.Alternating(30, 1)).Points()
	series := make([]config.SeriesPoint, len(points))
	for i, pt := range points {
		series[i] = config.SeriesPoint(pt)
	}
	return PutRequest{SnapshotDocument: config.SnapshotDocument{
		TotalValue: p.TotalValue(),
		Positions:  p.Positions(),
		Series:     series,
	}}
}

func TestGetWithoutSnapshot(t *testing.T) {
	router, _ := setupTestHandler(t)
	rec := do(t, router, http.MethodGet, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPutAndGet(t *testing.T) {
	router, store := setupTestHandler(t)

	rec := do(t, router, http.MethodPut, snapshotRequest(t))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	snap, err := store.Current()
	require.NoError(t, err)
	assert.Equal(t, "api", snap.Source)
	assert.Equal(t, 30, snap.Series.Len())

	rec = do(t, router, http.MethodGet, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data Summary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, uint64(1), body.Data.Version)
	assert.InDelta(t, 1000000, body.Data.TotalValue, 1e-6)
	assert.Len(t, body.Data.Positions, 4)
	assert.Equal(t, 30, body.Data.Observations)
	assert.InDelta(t, 0.4, body.Data.Sectors["Technology"], 1e-9)
	assert.NotEmpty(t, body.Data.Rules, "default rules apply when none are given")
}

func TestPutRejectsInvalidSnapshot(t *testing.T) {
	router, store := setupTestHandler(t)

	req := snapshotRequest(t)
	req.Positions[0].Weight = -0.1
	rec := do(t, router, http.MethodPut, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	req = snapshotRequest(t)
	req.Rules = []domain.ComplianceRule{{ID: "r", Name: "r"}}
	rec = do(t, router, http.MethodPut, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, err := store.Current()
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
