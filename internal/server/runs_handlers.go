package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/aristath/sentinel-risk/internal/events"
	"github.com/aristath/sentinel-risk/internal/httputil"
	"github.com/aristath/sentinel-risk/internal/work"
)

const (
	streamBuffer       = 64
	streamWriteTimeout = 5 * time.Second
)

// RunBus is the subset of the event bus the run stream needs.
type RunBus interface {
	SubscribeMany(types []events.EventType, handler events.Handler) []events.SubscriptionID
	Unsubscribe(ids ...events.SubscriptionID)
}

// RunsHandlers serves run lookups, cancellation and progress streams.
type RunsHandlers struct {
	runner *work.Runner
	bus    RunBus
	out    *httputil.Writer
	log    zerolog.Logger
}

// NewRunsHandlers creates the run handlers.
func NewRunsHandlers(runner *work.Runner, bus RunBus, log zerolog.Logger) *RunsHandlers {
	log = log.With().Str("handler", "runs").Logger()
	return &RunsHandlers{
		runner: runner,
		bus:    bus,
		out:    httputil.NewWriter(log),
		log:    log,
	}
}

// RegisterRoutes registers run routes on a router mounted at /api/risk. The stream
// route is registered by the server outside the request timeout.
func (h *RunsHandlers) RegisterRoutes(r chi.Router) {
	r.Get("/runs/latest/{key}", h.HandleLatest)
	r.Get("/runs/{id}", h.HandleGet)
	r.Delete("/runs/{id}", h.HandleCancel)
}

// HandleGet returns a run by id.
// GET /api/risk/runs/{id}
func (h *RunsHandlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	run, err := h.runner.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.out.Err(w, r, err)
		return
	}
	h.out.Data(w, r, http.StatusOK, run)
}

// HandleLatest returns the newest run submitted under a key.
// GET /api/risk/runs/latest/{key}
func (h *RunsHandlers) HandleLatest(w http.ResponseWriter, r *http.Request) {
	run, err := h.runner.Latest(chi.URLParam(r, "key"))
	if err != nil {
		h.out.Err(w, r, err)
		return
	}
	h.out.Data(w, r, http.StatusOK, run)
}

// HandleCancel cancels a run. Cancelling a finished run returns it unchanged.
// DELETE /api/risk/runs/{id}
func (h *RunsHandlers) HandleCancel(w http.ResponseWriter, r *http.Request) {
	run, err := h.runner.Cancel(chi.URLParam(r, "id"))
	if err != nil {
		h.out.Err(w, r, err)
		return
	}
	h.out.Data(w, r, http.StatusOK, run)
}

// StreamMessage is one websocket frame of a run stream. The first frame carries the
// run, later frames carry lifecycle events.
type StreamMessage struct {
	Type  string                `json:"type"` // "run" or "event"
	Run   *work.Run             `json:"run,omitempty"`
	Event *events.RunStatusData `json:"event,omitempty"`
}

// HandleStream streams a run's lifecycle over a websocket until the run is terminal.
// GET /api/risk/runs/{id}/ws
func (h *RunsHandlers) HandleStream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.runner.Get(id); err != nil {
		h.out.Err(w, r, err)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		h.log.Warn().Err(err).Str("run_id", id).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream ended")

	stream := newRunStream(streamBuffer)
	subs := h.bus.SubscribeMany(events.RunEventTypes, func(e *events.Event) {
		data, ok := e.Data.(*events.RunStatusData)
		if !ok || data.RunID != id {
			return
		}
		if !stream.offer(data) {
			h.log.Debug().Str("run_id", id).Msg("Stream client lagging, dropping event")
		}
	})
	defer h.bus.Unsubscribe(subs...)

	// Read after subscribing so a transition between the two is not lost.
	ctx := conn.CloseRead(r.Context())
	run, err := h.runner.Get(id)
	if err != nil {
		conn.Close(websocket.StatusPolicyViolation, "run evicted")
		return
	}
	if err := h.send(ctx, conn, StreamMessage{Type: "run", Run: &run}); err != nil {
		return
	}
	if run.Status.Terminal() {
		conn.Close(websocket.StatusNormalClosure, string(run.Status))
		return
	}

	for {
		data, err := stream.next(ctx)
		if err != nil {
			return
		}
		if err := h.send(ctx, conn, StreamMessage{Type: "event", Event: data}); err != nil {
			return
		}
		if terminalPhase(data.Phase) {
			conn.Close(websocket.StatusNormalClosure, data.Phase)
			return
		}
	}
}

// runStream buffers one run's events for a slow reader. Progress events are dropped
// when the buffer is full; the terminal event has its own slot and is always delivered
// after whatever progress is still buffered.
type runStream struct {
	updates  chan *events.RunStatusData
	terminal chan *events.RunStatusData
}

func newRunStream(size int) *runStream {
	return &runStream{
		updates:  make(chan *events.RunStatusData, size),
		terminal: make(chan *events.RunStatusData, 1),
	}
}

// offer queues data without blocking and reports whether it was kept.
func (s *runStream) offer(data *events.RunStatusData) bool {
	ch := s.updates
	if terminalPhase(data.Phase) {
		ch = s.terminal
	}
	select {
	case ch <- data:
		return true
	default:
		return false
	}
}

func (s *runStream) next(ctx context.Context) (*events.RunStatusData, error) {
	select {
	case data := <-s.updates:
		return data, nil
	default:
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case data := <-s.updates:
		return data, nil
	case data := <-s.terminal:
		return data, nil
	}
}

func (h *RunsHandlers) send(ctx context.Context, conn *websocket.Conn, msg StreamMessage) error {
	ctx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, conn, msg); err != nil {
		h.log.Debug().Err(err).Msg("Stream write failed")
		return err
	}
	return nil
}

func terminalPhase(phase string) bool {
	switch phase {
	case events.PhaseCompleted, events.PhaseFailed, events.PhaseCancelled, events.PhaseSuperseded:
		return true
	default:
		return false
	}
}
