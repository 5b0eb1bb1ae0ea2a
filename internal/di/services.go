package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/sentinel-risk/internal/config"
	"github.com/aristath/sentinel-risk/internal/events"
	"github.com/aristath/sentinel-risk/internal/metrics"
	"github.com/aristath/sentinel-risk/internal/modules/compliance"
	"github.com/aristath/sentinel-risk/internal/modules/risk"
	"github.com/aristath/sentinel-risk/internal/modules/snapshots"
	"github.com/aristath/sentinel-risk/internal/modules/stress"
	"github.com/aristath/sentinel-risk/internal/work"
)

// InitializeServices creates the infrastructure and the engines.
func InitializeServices(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	c := &Container{Config: cfg}

	c.EventBus = events.NewBus(log)
	c.Metrics = metrics.New()
	c.Runner = work.NewRunner(c.EventBus, log, work.WithObserver(c.Metrics))

	var err error
	if c.VaREngine, err = risk.NewEngine(cfg.VaR(), log); err != nil {
		return nil, fmt.Errorf("failed to create VaR engine: %w", err)
	}
	if c.StressEngine, err = stress.NewEngine(cfg.Stress(), log); err != nil {
		return nil, fmt.Errorf("failed to create stress engine: %w", err)
	}
	c.ScenarioCatalog = stress.NewDefaultCatalog()
	c.ComplianceEngine = compliance.NewEngine(cfg.Compliance(), log)
	c.SnapshotStore = snapshots.NewStore(c.EventBus, log)

	log.Info().Msg("Services initialized")
	return c, nil
}

// LoadCatalog registers the scenarios and default rules of cfg.CatalogFile. Scenarios
// without an id get a generated one.
func LoadCatalog(c *Container, log zerolog.Logger) error {
	path := c.Config.CatalogFile
	if path == "" {
		return nil
	}
	cat, err := config.LoadCatalog(path)
	if err != nil {
		return err
	}

	for _, s := range cat.Scenarios {
		if s.ID == "" {
			_, err = c.ScenarioCatalog.Create(s)
		} else {
			err = c.ScenarioCatalog.Register(s)
		}
		if err != nil {
			return fmt.Errorf("catalog %s: scenario %q: %w", path, s.Name, err)
		}
	}
	if len(cat.Rules) > 0 {
		if err := c.SnapshotStore.SetDefaultRules(cat.Rules); err != nil {
			return fmt.Errorf("catalog %s: %w", path, err)
		}
	}

	log.Info().
		Str("path", path).
		Int("scenarios", len(cat.Scenarios)).
		Int("rules", len(cat.Rules)).
		Msg("Catalog loaded")
	return nil
}

// LoadSnapshot installs cfg.SnapshotFile as the current snapshot.
func LoadSnapshot(c *Container, log zerolog.Logger) error {
	path := c.Config.SnapshotFile
	if path == "" {
		return nil
	}
	doc, err := config.LoadSnapshot(path)
	if err != nil {
		return err
	}
	portfolio, series, err := doc.Build()
	if err != nil {
		return fmt.Errorf("snapshot %s: %w", path, err)
	}
	if _, err := c.SnapshotStore.Replace(portfolio, series, nil, "file:"+path); err != nil {
		return fmt.Errorf("snapshot %s: %w", path, err)
	}
	return nil
}
