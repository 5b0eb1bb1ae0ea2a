package work

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/internal/events"
)

// Option configures a Runner.
type Option func(*Runner)

// WithObserver reports terminal runs to o.
func WithObserver(o Observer) Option {
	return func(r *Runner) {
		r.observer = o
	}
}

// WithMaxRuns bounds how many finished runs are retained.
func WithMaxRuns(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.maxRuns = n
		}
	}
}

type run struct {
	Run
	cancel   context.CancelFunc
	done     chan struct{}
	reporter *ProgressReporter
}

// Runner executes runs in background goroutines.
type Runner struct {
	mu       sync.Mutex
	runs     map[string]*run
	latest   map[string]string // key -> run id
	finished []string          // eviction order

	ctx      context.Context
	stop     context.CancelFunc
	wg       sync.WaitGroup
	emitter  EventEmitter
	observer Observer
	maxRuns  int
	now      func() time.Time
	log      zerolog.Logger
}

// NewRunner creates a runner that publishes lifecycle events through emitter.
func NewRunner(emitter EventEmitter, log zerolog.Logger, opts ...Option) *Runner {
	ctx, stop := context.WithCancel(context.Background())
	r := &Runner{
		runs:    make(map[string]*run),
		latest:  make(map[string]string),
		ctx:     ctx,
		stop:    stop,
		emitter: emitter,
		maxRuns: DefaultMaxRuns,
		now:     time.Now,
		log:     log.With().Str("component", "work_runner").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Submit starts fn in the background under key. A run still in flight on the same key
// is cancelled and marked superseded; its result will never be published.
func (r *Runner) Submit(key string, kind Kind, fn Func) Run {
	ctx, cancel := context.WithCancel(r.ctx)
	rn := &run{
		Run: Run{
			ID:        uuid.NewString(),
			Key:       key,
			Kind:      kind,
			Status:    StatusPending,
			CreatedAt: r.now(),
		},
		cancel: cancel,
		done:   make(chan struct{}),
	}
	rn.reporter = newProgressReporter(r, rn.ID, key, kind, r.emitter)

	notify := func() {}
	r.mu.Lock()
	if prevID, ok := r.latest[key]; ok {
		if prev := r.runs[prevID]; prev != nil && !prev.Status.Terminal() {
			notify = r.finishLocked(prev, StatusSuperseded, nil, nil)
			prev.cancel()
			r.log.Debug().Str("key", key).Str("run_id", prevID).Str("superseded_by", rn.ID).Msg("Run superseded")
		}
	}
	r.runs[rn.ID] = rn
	r.latest[key] = rn.ID
	snapshot := rn.Run
	r.wg.Add(1)
	r.mu.Unlock()
	notify()

	go r.execute(ctx, rn, fn)
	return snapshot
}

func (r *Runner) execute(ctx context.Context, rn *run, fn Func) {
	defer r.wg.Done()
	defer rn.cancel()

	r.mu.Lock()
	if rn.Status.Terminal() {
		r.mu.Unlock()
		return
	}
	started := r.now()
	rn.Status = StatusRunning
	rn.StartedAt = &started
	r.mu.Unlock()
	rn.reporter.emitPhase(events.PhaseStarted, 0, nil, 0)

	result, err := r.call(ctx, fn, rn.reporter)

	r.mu.Lock()
	if rn.Status.Terminal() {
		// superseded or cancelled while running; the result is discarded
		r.mu.Unlock()
		return
	}
	var notify func()
	switch {
	case err == nil:
		notify = r.finishLocked(rn, StatusCompleted, result, nil)
	case errors.Is(err, domain.ErrCancelled) || errors.Is(err, context.Canceled):
		notify = r.finishLocked(rn, StatusCancelled, nil, err)
	default:
		notify = r.finishLocked(rn, StatusFailed, nil, err)
	}
	r.mu.Unlock()
	notify()
}

// call runs fn and turns a panic into a failure.
func (r *Runner) call(ctx context.Context, fn Func, progress domain.ProgressReporter) (result any, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error().Interface("panic", p).Msg("Run panicked")
			err = fmt.Errorf("run panicked: %v", p)
		}
	}()
	return fn(ctx, progress)
}

// finishLocked moves rn to a terminal status. Callers hold r.mu and must call the
// returned notify func after releasing it.
func (r *Runner) finishLocked(rn *run, status Status, result any, err error) (notify func()) {
	finished := r.now()
	rn.Status = status
	rn.FinishedAt = &finished
	if status == StatusCompleted {
		rn.Result = result
		rn.Progress = 100
	}
	if err != nil {
		rn.Error = err.Error()
	}
	close(rn.done)

	var elapsed time.Duration
	if rn.StartedAt != nil {
		elapsed = finished.Sub(*rn.StartedAt)
	}
	progress := rn.Progress

	r.finished = append(r.finished, rn.ID)
	r.evictLocked()

	event := r.log.Debug()
	if status == StatusFailed {
		event = r.log.Warn().Err(err)
	}
	event.Str("run_id", rn.ID).Str("key", rn.Key).Str("kind", string(rn.Kind)).
		Str("status", string(status)).Dur("elapsed", elapsed).Msg("Run finished")

	return func() {
		if r.observer != nil {
			r.observer.ObserveRun(string(rn.Kind), string(status), elapsed)
		}
		rn.reporter.emitPhase(string(status), progress, err, elapsed)
	}
}

func (r *Runner) evictLocked() {
	for len(r.finished) > r.maxRuns {
		id := r.finished[0]
		r.finished = r.finished[1:]
		if rn := r.runs[id]; rn != nil && r.latest[rn.Key] == id {
			delete(r.latest, rn.Key)
		}
		delete(r.runs, id)
	}
}

// recordProgress stores progress for a live run and returns the clamped value.
func (r *Runner) recordProgress(id string, percent float64, message string) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rn, ok := r.runs[id]
	if !ok || rn.Status.Terminal() {
		return 0, false
	}
	percent = min(max(percent, rn.Progress), 100)
	rn.Progress = percent
	rn.Message = message
	return percent, true
}

// Get returns a snapshot of the run.
func (r *Runner) Get(id string) (Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rn, ok := r.runs[id]
	if !ok {
		return Run{}, fmt.Errorf("%w: run %q", domain.ErrNotFound, id)
	}
	return rn.Run, nil
}

// Latest returns the newest run submitted under key.
func (r *Runner) Latest(key string) (Run, error) {
	r.mu.Lock()
	id, ok := r.latest[key]
	r.mu.Unlock()
	if !ok {
		return Run{}, fmt.Errorf("%w: no run for key %q", domain.ErrNotFound, key)
	}
	return r.Get(id)
}

// Cancel stops a run. Cancelling a finished run is a no-op.
func (r *Runner) Cancel(id string) (Run, error) {
	r.mu.Lock()
	rn, ok := r.runs[id]
	if !ok {
		r.mu.Unlock()
		return Run{}, fmt.Errorf("%w: run %q", domain.ErrNotFound, id)
	}
	notify := func() {}
	if !rn.Status.Terminal() {
		notify = r.finishLocked(rn, StatusCancelled, nil, domain.Cancelled(context.Canceled))
		rn.cancel()
	}
	snapshot := rn.Run
	r.mu.Unlock()
	notify()
	return snapshot, nil
}

// Wait blocks until the run is terminal or ctx is done.
func (r *Runner) Wait(ctx context.Context, id string) (Run, error) {
	r.mu.Lock()
	rn, ok := r.runs[id]
	r.mu.Unlock()
	if !ok {
		return Run{}, fmt.Errorf("%w: run %q", domain.ErrNotFound, id)
	}

	select {
	case <-rn.done:
		r.mu.Lock()
		defer r.mu.Unlock()
		return rn.Run, nil
	case <-ctx.Done():
		return Run{}, ctx.Err()
	}
}

// Shutdown cancels every live run and waits for their goroutines to return.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.stop()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
