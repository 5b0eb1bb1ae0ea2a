// Package risk estimates portfolio Value-at-Risk and backtests the estimate against the
// realised returns it was fitted on.
package risk

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/pkg/formulas"
)

// Option configures a single computation.
type Option func(*options)

type options struct {
	progress domain.ProgressReporter
}

// WithProgress forwards progress updates to p.
func WithProgress(p domain.ProgressReporter) Option {
	return func(o *options) {
		if p != nil {
			o.progress = p
		}
	}
}

// Engine computes VaR with a pluggable estimator per method.
type Engine struct {
	cfg        Config
	estimators map[domain.VaRMethod]estimator
	now        func() time.Time
	log        zerolog.Logger
}

// NewEngine creates a VaR engine.
func NewEngine(cfg Config, log zerolog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg: cfg,
		now: time.Now,
		log: log.With().Str("component", "var_engine").Logger(),
	}
	mc := monteCarlo{
		simulations: cfg.Simulations,
		batchSize:   cfg.BatchSize,
		seed:        cfg.Seed,
		dof:         cfg.FatTailDoF,
		now:         func() time.Time { return e.now() },
	}
	e.estimators = map[domain.VaRMethod]estimator{
		domain.VaRParametric: parametric{tradingDays: cfg.TradingDaysPerYear},
		domain.VaRHistorical: historical{},
		domain.VaRMonteCarlo: mc,
	}
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// MinObservations returns how many returns method needs at confidence.
func (e *Engine) MinObservations(method domain.VaRMethod, confidence float64) (int, error) {
	est, err := e.estimator(method)
	if err != nil {
		return 0, err
	}
	if _, err := ZScore(confidence); err != nil {
		return 0, err
	}
	return est.minObservations(confidence), nil
}

// ComputeVaR estimates VaR for the portfolio returns in series and backtests it.
// Configuration errors are reported before any data is examined.
func (e *Engine) ComputeVaR(
	ctx context.Context,
	series *domain.ReturnSeries,
	method domain.VaRMethod,
	confidence float64,
	holdingPeriodDays int,
	opts ...Option,
) (*domain.VaRResult, error) {
	o := options{progress: domain.NoopProgress{}}
	for _, opt := range opts {
		opt(&o)
	}

	est, err := e.estimator(method)
	if err != nil {
		return nil, err
	}
	if _, err := ZScore(confidence); err != nil {
		return nil, err
	}
	if holdingPeriodDays < 1 {
		return nil, fmt.Errorf("%w: holding period must be at least one day, got %d",
			domain.ErrInvalidConfiguration, holdingPeriodDays)
	}
	if series == nil {
		return nil, fmt.Errorf("%w: no return series", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, domain.Cancelled(err)
	}

	returns := series.PortfolioReturns()
	if need := est.minObservations(confidence); len(returns) < need {
		return nil, fmt.Errorf("%w: %s VaR at %v%% needs %d observations, got %d",
			domain.ErrInsufficientData, method, confidence, need, len(returns))
	}

	start := e.now()
	o.progress.ReportProgress(0, "estimating")
	tail, err := est.estimate(ctx, request{
		returns:    returns,
		confidence: confidence,
		horizon:    holdingPeriodDays,
		progress:   progressRange{outer: o.progress, from: 0, to: 80},
	})
	if err != nil {
		return nil, err
	}

	vol, err := formulas.AnnualizedVolatilityFor(returns, e.cfg.TradingDaysPerYear)
	if err != nil {
		return nil, err
	}

	o.progress.ReportProgress(80, "backtesting")
	bt, err := runBacktest(ctx, est, returns, confidence, holdingPeriodDays, e.cfg.BacktestWindow)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, domain.Cancelled(err)
	}
	o.progress.ReportProgress(100, "complete")

	result := &domain.VaRResult{
		Method:              method,
		Confidence:          confidence,
		HoldingPeriodDays:   holdingPeriodDays,
		Value:               tail.VaR,
		ValueAmount:         tail.VaR / 100 * series.Latest().PortfolioValue,
		CVaR:                tail.CVaR,
		CurrentVaR:          bt.current,
		AvgVaR:              bt.avg,
		MaxVaR:              bt.max,
		MinVaR:              bt.min,
		Volatility:          vol,
		ExceedanceCount:     bt.exceedances,
		ExpectedExceedances: bt.expected,
		AccuracyScore:       bt.accuracy,
		Observations:        len(returns),
		BacktestDays:        bt.days,
		ComputedAt:          e.now(),
	}

	e.log.Debug().
		Str("method", string(method)).
		Float64("confidence", confidence).
		Int("holding_period_days", holdingPeriodDays).
		Int("observations", len(returns)).
		Float64("var", result.Value).
		Int("exceedances", bt.exceedances).
		Dur("took", e.now().Sub(start)).
		Msg("VaR computed")

	return result, nil
}

func (e *Engine) estimator(method domain.VaRMethod) (estimator, error) {
	est, ok := e.estimators[method]
	if !ok {
		return nil, fmt.Errorf("%w: unknown VaR method %q", domain.ErrInvalidConfiguration, method)
	}
	return est, nil
}
