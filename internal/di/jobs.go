package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/sentinel-risk/internal/scheduler"
)

// RegisterJobs creates the scheduler jobs and registers those that have a schedule.
// Jobs are always created so they can be triggered manually.
func RegisterJobs(c *Container, log zerolog.Logger) error {
	c.Scheduler = scheduler.New(log)
	c.Jobs = &JobInstances{
		ComplianceSweep: scheduler.NewComplianceSweepJob(scheduler.ComplianceSweepConfig{
			Log:        log,
			Store:      c.SnapshotStore,
			VaR:        c.VaREngine,
			Stress:     c.StressEngine,
			Catalog:    c.ScenarioCatalog,
			Compliance: c.ComplianceEngine,
			Emitter:    c.EventBus,
			Recorder:   c.Metrics,
			Confidence: c.Config.StressConfidence,
		}),
	}

	if schedule := c.Config.ComplianceSweepSchedule; schedule != "" {
		if err := c.Scheduler.AddJob(schedule, c.Jobs.ComplianceSweep); err != nil {
			return fmt.Errorf("failed to register compliance sweep: %w", err)
		}
	} else {
		if err := c.Scheduler.Register(c.Jobs.ComplianceSweep); err != nil {
			return fmt.Errorf("failed to register compliance sweep: %w", err)
		}
		log.Info().Msg("Compliance sweep schedule not set, sweep runs on demand only")
	}
	return nil
}
