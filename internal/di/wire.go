package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/sentinel-risk/internal/config"
)

// Wire initializes all dependencies and returns a fully configured container
// Order of operations:
// 1. Initialize services
// 2. Load the scenario/rule catalog file
// 3. Load the snapshot file
// 4. Register jobs
func Wire(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container, err := InitializeServices(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	if err := LoadCatalog(container, log); err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	if err := LoadSnapshot(container, log); err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if err := RegisterJobs(container, log); err != nil {
		return nil, fmt.Errorf("failed to register jobs: %w", err)
	}

	log.Info().Msg("Dependency injection wiring completed successfully")
	return container, nil
}

// Shutdown stops the scheduler and cancels in-flight runs.
func (c *Container) Shutdown(ctx context.Context) error {
	if c.Scheduler != nil {
		c.Scheduler.Stop()
	}
	return c.Runner.Shutdown(ctx)
}
