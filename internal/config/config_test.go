package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/sentinel-risk/internal/domain"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8001, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 252, cfg.TradingDaysPerYear)
	assert.Equal(t, 10000, cfg.MonteCarloSimulations)
	assert.Equal(t, uint64(0), cfg.MonteCarloSeed)
	assert.Equal(t, 60, cfg.BacktestWindow)
	assert.Equal(t, 95.0, cfg.StressConfidence)
	assert.Equal(t, 15.0, cfg.StressDefaultVolatility)
	assert.Equal(t, "", cfg.ComplianceSweepSchedule)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("GO_PORT", "9100")
	t.Setenv("LOG_PRETTY", "true")
	t.Setenv("MONTE_CARLO_SEED", "42")
	t.Setenv("MONTE_CARLO_FAT_TAIL_DOF", "5")
	t.Setenv("STRESS_CONFIDENCE", "99")
	t.Setenv("COMPLIANCE_SWEEP_SCHEDULE", "*/5 * * * *")
	t.Setenv("BACKTEST_WINDOW", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.True(t, cfg.LogPretty)
	assert.Equal(t, uint64(42), cfg.VaR().Seed)
	assert.Equal(t, 5.0, cfg.VaR().FatTailDoF)
	assert.Equal(t, 99.0, cfg.Stress().Confidence)
	assert.Equal(t, "*/5 * * * *", cfg.ComplianceSweepSchedule)
	assert.Equal(t, 60, cfg.BacktestWindow, "unparsable values fall back to the default")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unsupported stress confidence", map[string]string{"STRESS_CONFIDENCE": "97"}},
		{"zero simulations", map[string]string{"MONTE_CARLO_SIMULATIONS": "0"}},
		{"negative batch size", map[string]string{"MONTE_CARLO_BATCH_SIZE": "-1"}},
		{"zero trading days", map[string]string{"TRADING_DAYS_PER_YEAR": "0"}},
		{"zero window", map[string]string{"BACKTEST_WINDOW": "0"}},
		{"port out of range", map[string]string{"GO_PORT": "70000"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
		})
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCatalog(t *testing.T) {
	path := writeFile(t, "catalog.yaml", `
scenarios:
  - id: eur_breakup
    name: Euro area breakup
    type: custom
    market_shock_pct: -35
    volatility_increase_pct: 120
    correlation_change_pct: 40
    liquidity_impact_pct: -30
    duration_days: 60
rules:
  - id: max_tech
    name: Technology exposure
    category: sector_limit
    threshold: 25
    unit: percent
    direction: above_is_bad
    metric: "sector_weight:Technology"
`)

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, c.Scenarios, 1)
	require.Len(t, c.Rules, 1)

	s := c.Scenarios[0]
	assert.Equal(t, "eur_breakup", s.ID)
	assert.Equal(t, domain.ScenarioCustom, s.Type)
	assert.Equal(t, -35.0, s.MarketShockPct)
	assert.Equal(t, 60, s.DurationDays)
	require.NoError(t, s.Validate())

	r := c.Rules[0]
	assert.Equal(t, domain.CategorySectorLimit, r.Category)
	assert.Equal(t, domain.AboveIsBad, r.Direction)
	assert.Equal(t, "sector_weight:Technology", r.Metric)
}

func TestLoadCatalogRejectsUnknownFields(t *testing.T) {
	path := writeFile(t, "catalog.yaml", "scenarios:\n  - id: x\n    shock: -10\n")
	_, err := LoadCatalog(path)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadSnapshot(t *testing.T) {
	path := writeFile(t, "snapshot.yaml", `
total_value: 100000
positions:
  - symbol: AAPL
    name: Apple Inc.
    weight: 0.6
    market_value: 60000
    sector: Technology
    instrument_type: EQUITY
    beta: 1.3
  - symbol: BND
    weight: 0.4
    market_value: 40000
    sector: Fixed Income
    instrument_type: BOND
series:
  - date: 2024-01-02
    portfolio_return: 0.5
    benchmark_return: 0.4
    portfolio_value: 100500
    benchmark_value: 100400
  - date: 2024-01-03
    portfolio_return: -1.0
    benchmark_return: -0.8
    portfolio_value: 99495
    benchmark_value: 99597
`)

	doc, err := LoadSnapshot(path)
	require.NoError(t, err)

	portfolio, series, err := doc.Build()
	require.NoError(t, err)
	assert.Equal(t, 100000.0, portfolio.TotalValue())
	assert.Equal(t, 1.3, portfolio.Positions()[0].EffectiveBeta())
	assert.Equal(t, 1.0, portfolio.Positions()[1].EffectiveBeta())
	require.NotNil(t, series)
	assert.Equal(t, 2, series.Len())
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), series.Latest().Date)
}

func TestSnapshotBuildValidates(t *testing.T) {
	doc := SnapshotDocument{Positions: []domain.Position{{Symbol: "A", Weight: 1.5}}}
	_, _, err := doc.Build()
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	doc = SnapshotDocument{
		Positions: []domain.Position{{Symbol: "A", Weight: 1, MarketValue: 10}},
		Series: []SeriesPoint{
			{Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)},
			{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		},
	}
	_, _, err = doc.Build()
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	doc.Series = nil
	_, series, err := doc.Build()
	require.NoError(t, err)
	assert.Nil(t, series)
}
