package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/sentinel-risk/internal/domain"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("%w: run x", domain.ErrNotFound), http.StatusNotFound},
		{"cancelled", domain.Cancelled(context.Canceled), http.StatusConflict},
		{"bad confidence", domain.ErrUnsupportedConfidenceLevel, http.StatusBadRequest},
		{"insufficient data", domain.ErrInsufficientData, http.StatusUnprocessableEntity},
		{"invalid input", domain.ErrInvalidInput, http.StatusUnprocessableEntity},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestDataJSONEnvelope(t *testing.T) {
	wr := NewWriter(zerolog.Nop())
	rec := httptest.NewRecorder()
	wr.Data(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusCreated, map[string]int{"n": 3})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Data     map[string]int `json:"data"`
		Metadata Metadata       `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Data["n"])
	assert.NotEmpty(t, body.Metadata.Timestamp)
}

func TestDataMsgpack(t *testing.T) {
	wr := NewWriter(zerolog.Nop())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "application/json;q=0.5, application/msgpack")
	rec := httptest.NewRecorder()

	wr.Data(rec, req, http.StatusOK, domain.VaRResult{Method: domain.VaRHistorical, Value: 1.5})

	assert.Equal(t, ContentTypeMsgpack, rec.Header().Get("Content-Type"))
	var body map[string]any
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &body))
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "historical", data["method"], "json tags name the msgpack fields")
	assert.Equal(t, 1.5, data["value"])
}

func TestErr(t *testing.T) {
	wr := NewWriter(zerolog.Nop())
	rec := httptest.NewRecorder()
	wr.Err(rec, httptest.NewRequest(http.MethodGet, "/", nil), fmt.Errorf("%w: n=3", domain.ErrInsufficientData))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unprocessable", body.Code)
	assert.Contains(t, body.Error, "n=3")
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Confidence float64 `json:"confidence"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"confidence":95}`))
	require.NoError(t, DecodeJSON(httptest.NewRecorder(), req, &v))
	assert.Equal(t, 95.0, v.Confidence)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"confidence":`))
	assert.ErrorIs(t, DecodeJSON(httptest.NewRecorder(), req, &v), domain.ErrInvalidConfiguration)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"confidance":95}`))
	assert.ErrorIs(t, DecodeJSON(httptest.NewRecorder(), req, &v), domain.ErrInvalidConfiguration)

	v.Confidence = 90
	req = httptest.NewRequest(http.MethodPost, "/", nil)
	require.NoError(t, DecodeJSON(httptest.NewRecorder(), req, &v))
	assert.Equal(t, 90.0, v.Confidence, "an empty body leaves the target untouched")
}
