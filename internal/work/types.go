// Package work runs risk computations in the background. Runs are keyed: submitting a new
// run on a key supersedes the one in flight, whose result is then discarded.
package work

import (
	"context"
	"time"

	"github.com/aristath/sentinel-risk/internal/domain"
)

// DefaultMaxRuns bounds how many finished runs are retained for lookup.
const DefaultMaxRuns = 256

// Status is the lifecycle state of a run.
type Status string

const (
	StatusPending    Status = "pending"
	StatusRunning    Status = "running"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
	StatusSuperseded Status = "superseded"
)

// Terminal reports whether no further transitions can happen.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusSuperseded:
		return true
	default:
		return false
	}
}

// Kind names what a run computes.
type Kind string

const (
	KindVaR       Kind = "var"
	KindStress    Kind = "stress"
	KindStressAll Kind = "stress_all"
)

// Func is the computation a run executes. It must honour ctx and may report progress.
type Func func(ctx context.Context, progress domain.ProgressReporter) (any, error)

// Run is a point-in-time view of a run. Result is set only once completed.
type Run struct {
	ID         string     `json:"id"`
	Key        string     `json:"key"`
	Kind       Kind       `json:"kind"`
	Status     Status     `json:"status"`
	Progress   float64    `json:"progress"`
	Message    string     `json:"message,omitempty"`
	Error      string     `json:"error,omitempty"`
	Result     any        `json:"result,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Observer is notified when a run reaches a terminal state.
type Observer interface {
	ObserveRun(kind string, outcome string, elapsed time.Duration)
}
