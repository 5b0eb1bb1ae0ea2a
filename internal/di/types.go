// Package di provides dependency injection wiring and initialization.
package di

import (
	"github.com/aristath/sentinel-risk/internal/config"
	"github.com/aristath/sentinel-risk/internal/events"
	"github.com/aristath/sentinel-risk/internal/metrics"
	"github.com/aristath/sentinel-risk/internal/modules/compliance"
	"github.com/aristath/sentinel-risk/internal/modules/risk"
	"github.com/aristath/sentinel-risk/internal/modules/snapshots"
	"github.com/aristath/sentinel-risk/internal/modules/stress"
	"github.com/aristath/sentinel-risk/internal/scheduler"
	"github.com/aristath/sentinel-risk/internal/work"
)

// Container holds all dependencies for the application.
//
// It is the single source of truth for service instances: Wire builds it and the server
// reads handlers' dependencies from it.
type Container struct {
	Config *config.Config

	// Infrastructure
	EventBus *events.Bus
	Metrics  *metrics.Metrics
	Runner   *work.Runner

	// Engines
	VaREngine        *risk.Engine
	StressEngine     *stress.Engine
	ScenarioCatalog  *stress.Catalog
	ComplianceEngine *compliance.Engine

	// State
	SnapshotStore *snapshots.Store

	// Background jobs
	Scheduler *scheduler.Scheduler
	Jobs      *JobInstances
}

// JobInstances holds the registered scheduler jobs for manual triggering.
type JobInstances struct {
	ComplianceSweep *scheduler.ComplianceSweepJob
}
