package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/internal/events"
	"github.com/aristath/sentinel-risk/internal/modules/compliance"
	"github.com/aristath/sentinel-risk/internal/modules/risk"
	"github.com/aristath/sentinel-risk/internal/modules/snapshots"
	"github.com/aristath/sentinel-risk/internal/modules/stress"
	testutil "github.com/aristath/sentinel-risk/internal/testing"
)

type mockEmitter struct {
	mu     sync.Mutex
	events []events.EventData
}

func (m *mockEmitter) Emit(_ string, data events.EventData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, data)
}

type mockRecorder struct {
	mu       sync.Mutex
	outcomes map[string]int
	failures map[string]int
	report   *domain.ComplianceReport
}

func (m *mockRecorder) ObserveComputation(engine, _ string, err error, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outcomes == nil {
		m.outcomes = make(map[string]int)
	}
	if m.failures == nil {
		m.failures = make(map[string]int)
	}
	if err == nil {
		m.outcomes[engine]++
	} else {
		m.failures[engine]++
	}
}

func (m *mockRecorder) SetComplianceReport(report domain.ComplianceReport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.report = &report
}

type sweepFixture struct {
	job      *ComplianceSweepJob
	store    *snapshots.Store
	emitter  *mockEmitter
	recorder *mockRecorder
}

func newSweepFixture(t *testing.T) sweepFixture {
	t.Helper()
	log := zerolog.New(nil).Level(zerolog.Disabled)

	riskCfg := risk.DefaultConfig()
	riskCfg.Seed = 7
	varEngine, err := risk.NewEngine(riskCfg, log)
	require.NoError(t, err)
	stressEngine, err := stress.NewEngine(stress.DefaultConfig(), log)
	require.NoError(t, err)

	f := sweepFixture{
		store:    snapshots.NewStore(nil, log),
		emitter:  &mockEmitter{},
		recorder: &mockRecorder{},
	}
	f.job = NewComplianceSweepJob(ComplianceSweepConfig{
		Log:        log,
		Store:      f.store,
		VaR:        varEngine,
		Stress:     stressEngine,
		Catalog:    stress.NewDefaultCatalog(),
		Compliance: compliance.NewEngine(compliance.Config{}, log),
		Emitter:    f.emitter,
		Recorder:   f.recorder,
	})
	return f
}

func TestSweepWithoutSnapshot(t *testing.T) {
	f := newSweepFixture(t)

	assert.NoError(t, f.job.Run())

	_, err := f.job.Sweep(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.emitter.events)
}

func TestSweepDefaultRules(t *testing.T) {
	f := newSweepFixture(t)
	series := testutil.NewReturnSeries(t, testutil.Alternating(60, 1))
	_, err := f.store.Replace(testutil.NewPortfolio(t), series, nil, "test")
	require.NoError(t, err)

	eval, err := f.job.Sweep(context.Background())
	require.NoError(t, err)
	require.Len(t, eval.Results, len(compliance.DefaultRules()))

	byID := make(map[string]domain.ComplianceCheckResult)
	for _, r := range eval.Results {
		byID[r.RuleID] = r
	}
	assert.InDelta(t, 40, byID["max_single_position"].CurrentValue, 1e-9)
	assert.Equal(t, domain.StatusViolation, byID["max_single_position"].Status)
	assert.InDelta(t, 1, byID["max_var"].CurrentValue, 1e-9, "historical 95% VaR of a ±1 series")
	assert.Equal(t, domain.OverallViolations, eval.Report.OverallStatus)

	latest, _, err := f.store.LatestEvaluation()
	require.NoError(t, err)
	assert.Same(t, eval, latest)

	require.Len(t, f.emitter.events, 1)
	data := f.emitter.events[0].(*events.ComplianceEvaluatedData)
	assert.Equal(t, "sweep", data.Source)
	assert.Equal(t, string(domain.OverallViolations), data.OverallStatus)

	require.NotNil(t, f.recorder.report)
	assert.Equal(t, eval.Report.Violations, f.recorder.report.Violations)
	assert.Equal(t, 1, f.recorder.outcomes["var"])
	assert.Equal(t, 1, f.recorder.outcomes["compliance"])
	assert.Zero(t, f.recorder.outcomes["stress"], "no rule binds a stress metric")
}

func TestSweepRunsStressWhenBound(t *testing.T) {
	f := newSweepFixture(t)
	rules := []domain.ComplianceRule{{
		ID:        "stressed_drawdown",
		Name:      "Stressed drawdown",
		Category:  domain.CategoryRiskLimit,
		Threshold: 50,
		Unit:      domain.UnitPercent,
		Direction: domain.AboveIsBad,
		Metric:    compliance.MetricStressedDrawdown,
	}}
	_, err := f.store.Replace(testutil.NewPortfolio(t), nil, rules, "test")
	require.NoError(t, err)

	eval, err := f.job.Sweep(context.Background())
	require.NoError(t, err)
	require.Len(t, eval.Results, 1)
	// The worst catalog scenario is the 2008 crisis at -56.8%.
	assert.GreaterOrEqual(t, eval.Results[0].CurrentValue, 56.8-1e-9)
	assert.Equal(t, domain.StatusViolation, eval.Results[0].Status)
	assert.Equal(t, 1, f.recorder.outcomes["stress"])
}

func TestSweepMissingSeries(t *testing.T) {
	f := newSweepFixture(t)
	_, err := f.store.Replace(testutil.NewPortfolio(t), nil, nil, "test")
	require.NoError(t, err)

	_, err = f.job.Sweep(context.Background())
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
	assert.Error(t, f.job.Run())

	_, _, err = f.store.LatestEvaluation()
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSweepCancelled(t *testing.T) {
	f := newSweepFixture(t)
	series := testutil.NewReturnSeries(t, testutil.Alternating(60, 1))
	_, err := f.store.Replace(testutil.NewPortfolio(t), series, nil, "test")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.job.Sweep(ctx)
	assert.ErrorIs(t, err, domain.ErrCancelled)
	assert.ErrorContains(t, err, "compliance sweep:")
	assert.Equal(t, 1, f.recorder.failures["var"])
	assert.Equal(t, 1, f.recorder.failures["compliance"])
}
