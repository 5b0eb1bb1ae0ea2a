// Package httputil holds the response envelope, content negotiation and error mapping
// shared by the HTTP handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/sentinel-risk/internal/domain"
)

// ContentTypeMsgpack is served when a client lists it in Accept.
const ContentTypeMsgpack = "application/msgpack"

const maxBodyBytes = 4 << 20

// Envelope wraps every successful response.
type Envelope struct {
	Data     any      `json:"data"`
	Metadata Metadata `json:"metadata"`
}

// Metadata accompanies the payload.
type Metadata struct {
	Timestamp string `json:"timestamp"`
}

// ErrorResponse is the standard error format for REST API responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Writer encodes responses and logs encoding failures.
type Writer struct {
	log zerolog.Logger
	now func() time.Time
}

// NewWriter creates a response writer.
func NewWriter(log zerolog.Logger) *Writer {
	return &Writer{log: log, now: time.Now}
}

// Data writes data inside the envelope, as msgpack when the client asks for it.
func (wr *Writer) Data(w http.ResponseWriter, r *http.Request, status int, data any) {
	wr.write(w, r, status, Envelope{
		Data:     data,
		Metadata: Metadata{Timestamp: wr.now().UTC().Format(time.RFC3339)},
	})
}

// Error writes an error body with an explicit status.
func (wr *Writer) Error(w http.ResponseWriter, r *http.Request, status int, message string) {
	wr.write(w, r, status, ErrorResponse{Error: message, Code: codeFor(status)})
}

// Err maps a domain error to its status code and writes it.
func (wr *Writer) Err(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		wr.log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	}
	wr.write(w, r, status, ErrorResponse{Error: err.Error(), Code: codeFor(status)})
}

func (wr *Writer) write(w http.ResponseWriter, r *http.Request, status int, body any) {
	if WantsMsgpack(r) {
		w.Header().Set("Content-Type", ContentTypeMsgpack)
		w.WriteHeader(status)
		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("json")
		if err := enc.Encode(body); err != nil {
			wr.log.Error().Err(err).Msg("Failed to encode msgpack response")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		wr.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// WantsMsgpack reports whether the Accept header lists msgpack.
func WantsMsgpack(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mt, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		if strings.EqualFold(strings.TrimSpace(mt), ContentTypeMsgpack) {
			return true
		}
	}
	return false
}

// StatusFor maps error kinds to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrCancelled):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientData), errors.Is(err, domain.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func codeFor(status int) string {
	switch status {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "cancelled"
	case http.StatusBadRequest:
		return "invalid_request"
	case http.StatusUnprocessableEntity:
		return "unprocessable"
	case http.StatusServiceUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// DecodeJSON decodes a JSON body into v. An empty body leaves v untouched. Malformed
// bodies are reported as domain.ErrInvalidConfiguration so they map to 400.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: invalid JSON: %v", domain.ErrInvalidConfiguration, err)
	}
	return nil
}
