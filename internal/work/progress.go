package work

import (
	"sync"
	"time"

	"github.com/aristath/sentinel-risk/internal/events"
)

// EventEmitter defines the interface for emitting events
type EventEmitter interface {
	Emit(module string, data events.EventData)
}

// Throttle interval for progress events (avoid spam)
const progressThrottleInterval = 100 * time.Millisecond

const eventModule = "work"

// ProgressReporter records a run's progress and forwards it as throttled RunProgress
// events. Progress never moves backwards.
type ProgressReporter struct {
	runner *Runner
	id     string
	key    string
	kind   Kind

	emitter    EventEmitter
	lastReport time.Time
	mu         sync.Mutex
}

func newProgressReporter(runner *Runner, id, key string, kind Kind, emitter EventEmitter) *ProgressReporter {
	return &ProgressReporter{
		runner:  runner,
		id:      id,
		key:     key,
		kind:    kind,
		emitter: emitter,
	}
}

// ReportProgress implements domain.ProgressReporter.
func (r *ProgressReporter) ReportProgress(percent float64, message string) {
	if r == nil {
		return
	}
	percent, ok := r.runner.recordProgress(r.id, percent, message)
	if !ok || r.emitter == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Throttle progress events
	if percent < 100 && time.Since(r.lastReport) < progressThrottleInterval {
		return
	}
	r.lastReport = time.Now()

	r.emitter.Emit(eventModule, &events.RunStatusData{
		RunID:    r.id,
		Key:      r.key,
		Kind:     string(r.kind),
		Phase:    events.PhaseProgress,
		Progress: percent,
		Message:  message,
	})
}

func (r *ProgressReporter) emitPhase(phase string, progress float64, err error, elapsed time.Duration) {
	if r == nil || r.emitter == nil {
		return
	}

	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}

	r.emitter.Emit(eventModule, &events.RunStatusData{
		RunID:      r.id,
		Key:        r.key,
		Kind:       string(r.kind),
		Phase:      phase,
		Progress:   progress,
		Error:      errMsg,
		DurationMs: elapsed.Milliseconds(),
	})
}
