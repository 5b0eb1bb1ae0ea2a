package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/internal/events"
	"github.com/aristath/sentinel-risk/internal/modules/compliance"
	"github.com/aristath/sentinel-risk/internal/modules/risk"
	"github.com/aristath/sentinel-risk/internal/modules/snapshots"
	"github.com/aristath/sentinel-risk/internal/modules/stress"
)

// ComplianceSweepJobName is the registered name of the sweep.
const ComplianceSweepJobName = "compliance_sweep"

const defaultSweepTimeout = 2 * time.Minute

// EventEmitter defines the interface for emitting events
type EventEmitter interface {
	Emit(module string, data events.EventData)
}

// Recorder receives computation metrics. Implemented by internal/metrics.
type Recorder interface {
	ObserveComputation(engine, method string, err error, elapsed time.Duration)
	SetComplianceReport(report domain.ComplianceReport)
}

// ComplianceSweepJob re-evaluates the current snapshot's rules. VaR and stress results
// are computed only when a rule binds to them.
type ComplianceSweepJob struct {
	log        zerolog.Logger
	store      *snapshots.Store
	varEngine  *risk.Engine
	stress     *stress.Engine
	catalog    *stress.Catalog
	compliance *compliance.Engine
	emitter    EventEmitter
	recorder   Recorder
	confidence float64
	timeout    time.Duration
}

// ComplianceSweepConfig holds configuration for the compliance sweep job
type ComplianceSweepConfig struct {
	Log        zerolog.Logger
	Store      *snapshots.Store
	VaR        *risk.Engine
	Stress     *stress.Engine
	Catalog    *stress.Catalog
	Compliance *compliance.Engine
	Emitter    EventEmitter // optional
	Recorder   Recorder     // optional
	Confidence float64      // VaR confidence for var/cvar rules, default 95
	Timeout    time.Duration
}

// NewComplianceSweepJob creates a new compliance sweep job
func NewComplianceSweepJob(cfg ComplianceSweepConfig) *ComplianceSweepJob {
	if cfg.Confidence == 0 {
		cfg.Confidence = 95
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultSweepTimeout
	}
	return &ComplianceSweepJob{
		log:        cfg.Log.With().Str("job", ComplianceSweepJobName).Logger(),
		store:      cfg.Store,
		varEngine:  cfg.VaR,
		stress:     cfg.Stress,
		catalog:    cfg.Catalog,
		compliance: cfg.Compliance,
		emitter:    cfg.Emitter,
		recorder:   cfg.Recorder,
		confidence: cfg.Confidence,
		timeout:    cfg.Timeout,
	}
}

// Name returns the job name
func (j *ComplianceSweepJob) Name() string {
	return ComplianceSweepJobName
}

// Run executes one sweep. A missing snapshot is not an error.
func (j *ComplianceSweepJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	_, err := j.Sweep(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		j.log.Debug().Msg("No snapshot loaded, skipping sweep")
		return nil
	}
	return err
}

// Sweep evaluates the current snapshot and stores the result as the latest evaluation.
func (j *ComplianceSweepJob) Sweep(ctx context.Context) (*compliance.Evaluation, error) {
	snap, err := j.store.Current()
	if err != nil {
		return nil, err
	}
	start := time.Now()

	inputs := compliance.Snapshot{Portfolio: snap.Portfolio, Series: snap.Series}
	if snap.Series != nil && bindsAny(snap.Rules, compliance.MetricVaR, compliance.MetricCVaR) {
		if inputs.VaR, err = j.computeVaR(ctx, snap.Series); err != nil {
			return nil, j.fail(err, start)
		}
	}
	if bindsAny(snap.Rules, compliance.MetricStressedVaR, compliance.MetricStressedDrawdown) {
		if inputs.Stress, err = j.worstStress(ctx, snap); err != nil {
			return nil, j.fail(err, start)
		}
	}

	bound, err := j.compliance.BindCurrentValues(snap.Rules, inputs)
	if err != nil {
		return nil, j.fail(err, start)
	}
	eval, err := j.compliance.Evaluate(bound)
	if err != nil {
		return nil, j.fail(err, start)
	}

	j.observe("compliance", "sweep", nil, time.Since(start))
	j.publish(eval, snap)
	return eval, nil
}

func (j *ComplianceSweepJob) fail(err error, start time.Time) error {
	j.observe("compliance", "sweep", err, time.Since(start))
	return fmt.Errorf("compliance sweep: %w", err)
}

func (j *ComplianceSweepJob) computeVaR(ctx context.Context, series *domain.ReturnSeries) (*domain.VaRResult, error) {
	start := time.Now()
	result, err := j.varEngine.ComputeVaR(ctx, series, domain.VaRHistorical, j.confidence, 1)
	j.observe("var", string(domain.VaRHistorical), err, time.Since(start))
	if errors.Is(err, domain.ErrInsufficientData) {
		// Leave VaR unset; rules that bind it fail with the binding error.
		j.log.Warn().Err(err).Msg("VaR unavailable for sweep")
		return nil, nil
	}
	return result, err
}

// worstStress runs the catalog and keeps the scenario with the largest loss.
func (j *ComplianceSweepJob) worstStress(ctx context.Context, snap snapshots.Snapshot) (*domain.StressTestResult, error) {
	start := time.Now()
	results, err := j.stress.RunAll(ctx, snap.Portfolio, j.catalog.List(), stress.WithBaseline(snap.Series))
	j.observe("stress", "all", err, time.Since(start))
	if err != nil {
		return nil, err
	}

	var worst *domain.StressTestResult
	for _, r := range results {
		if worst == nil || r.PortfolioValue.Change < worst.PortfolioValue.Change {
			worst = r
		}
	}
	return worst, nil
}

func (j *ComplianceSweepJob) publish(eval *compliance.Evaluation, snap snapshots.Snapshot) {
	if !j.store.SetEvaluation(eval, snap.Version) {
		j.log.Debug().Uint64("version", snap.Version).Msg("Snapshot replaced during sweep, result dropped")
		return
	}
	if j.recorder != nil {
		j.recorder.SetComplianceReport(eval.Report)
	}
	if j.emitter != nil {
		j.emitter.Emit(ComplianceSweepJobName, &events.ComplianceEvaluatedData{
			OverallStatus: string(eval.Report.OverallStatus),
			Rules:         eval.Report.TotalRules,
			Warnings:      eval.Report.Warnings,
			Violations:    eval.Report.Violations,
			Source:        "sweep",
		})
	}
}

func (j *ComplianceSweepJob) observe(engine, method string, err error, elapsed time.Duration) {
	if j.recorder != nil {
		j.recorder.ObserveComputation(engine, method, err, elapsed)
	}
}

func bindsAny(rules []domain.ComplianceRule, metrics ...string) bool {
	for _, r := range rules {
		for _, m := range metrics {
			if r.Metric == m {
				return true
			}
		}
	}
	return false
}
