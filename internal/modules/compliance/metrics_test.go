package compliance

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/sentinel-risk/internal/domain"
	testutil "github.com/aristath/sentinel-risk/internal/testing"
)

func TestBindCurrentValues(t *testing.T) {
	e := NewEngine(Config{}, zerolog.Nop())
	snap := Snapshot{
		Portfolio: testutil.NewPortfolio(t),
		Series:    testutil.NewReturnSeries(t, []float64{10, -10, 5}),
		VaR:       &domain.VaRResult{Value: 3.2, CVaR: 4.1},
		Stress: &domain.StressTestResult{
			RiskMetrics: domain.RiskMetrics{VaR: 6.5, MaxDrawdown: 31},
		},
	}

	tests := []struct {
		metric string
		want   float64
	}{
		{MetricMaxPositionWeight, 40},
		{MetricMaxSectorWeight, 40},
		{"sector_weight:Healthcare", 25},
		{"sector_weight:Energy", 0},
		{"instrument_weight:etf", 30},
		{MetricCashWeight, 5},
		{MetricPositionCount, 4},
		{MetricVaR, 3.2},
		{MetricCVaR, 4.1},
		{MetricStressedVaR, 6.5},
		{MetricStressedDrawdown, 31},
		{MetricMaxDrawdown, 10},
		{MetricBeta, 2},
	}

	for _, tt := range tests {
		t.Run(tt.metric, func(t *testing.T) {
			rule := limit("r", 10, 0)
			rule.Metric = tt.metric

			bound, err := e.BindCurrentValues([]domain.ComplianceRule{rule}, snap)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, bound[0].CurrentValue, 1e-9)
			assert.Equal(t, 0.0, rule.CurrentValue)
		})
	}
}

func TestBindKeepsUnboundValues(t *testing.T) {
	e := NewEngine(Config{}, zerolog.Nop())

	bound, err := e.BindCurrentValues([]domain.ComplianceRule{limit("manual", 10, 7)}, Snapshot{})
	require.NoError(t, err)
	assert.Equal(t, 7.0, bound[0].CurrentValue)
}

func TestBindErrors(t *testing.T) {
	e := NewEngine(Config{}, zerolog.Nop())

	rule := limit("r", 10, 0)
	rule.Metric = "sharpe_ratio"
	_, err := e.BindCurrentValues([]domain.ComplianceRule{rule}, Snapshot{Portfolio: testutil.NewPortfolio(t)})
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)

	rule.Metric = MetricVaR
	_, err = e.BindCurrentValues([]domain.ComplianceRule{rule}, Snapshot{})
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestDefaultRulesAgainstFixturePortfolio(t *testing.T) {
	e := NewEngine(Config{}, zerolog.Nop())
	snap := Snapshot{
		Portfolio: testutil.NewPortfolio(t),
		Series:    testutil.NewReturnSeries(t, []float64{1, -1, 1}),
		VaR:       &domain.VaRResult{Value: 1.5},
	}

	rules, err := e.BindCurrentValues(DefaultRules(), snap)
	require.NoError(t, err)
	evaluation, err := e.Evaluate(rules)
	require.NoError(t, err)

	statuses := map[string]domain.ComplianceStatus{}
	for _, r := range evaluation.Results {
		statuses[r.RuleID] = r.Status
	}
	assert.Equal(t, domain.StatusViolation, statuses["max_single_position"])
	assert.Equal(t, domain.StatusViolation, statuses["max_sector_exposure"])
	assert.Equal(t, domain.StatusCompliant, statuses["max_var"])
	assert.Equal(t, domain.StatusCompliant, statuses["max_drawdown"])
	assert.Equal(t, domain.StatusCompliant, statuses["min_cash_buffer"])
	assert.Equal(t, domain.StatusViolation, statuses["min_diversification"])
	assert.Equal(t, domain.OverallViolations, evaluation.Report.OverallStatus)
}
