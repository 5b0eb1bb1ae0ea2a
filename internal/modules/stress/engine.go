// Package stress applies shock scenarios to a portfolio and recomputes its risk figures
// under stress.
package stress

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/internal/modules/risk"
	"github.com/aristath/sentinel-risk/pkg/formulas"
)

// Regime-dependent metric names reported in StressTestResult.RegimeAnnotations.
const (
	MetricVaR         = "var"
	MetricCVaR        = "cvar"
	MetricMaxDrawdown = "max_drawdown"
	MetricVolatility  = "volatility"
)

// Config tunes the stress engine.
type Config struct {
	Confidence           float64 // percent, one of risk.SupportedConfidenceLevels
	HoldingPeriodDays    int
	DefaultVolatilityPct float64 // annualised, used without a baseline series
	ReconcileTolerance   float64 // percent of total value
	TradingDaysPerYear   int
	BatchSize            int // positions per cancellation check
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		Confidence:           95,
		HoldingPeriodDays:    1,
		DefaultVolatilityPct: 15,
		ReconcileTolerance:   0.01,
		TradingDaysPerYear:   formulas.TradingDaysPerYear,
		BatchSize:            100,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if _, err := risk.ZScore(c.Confidence); err != nil {
		return err
	}
	switch {
	case c.HoldingPeriodDays < 1:
		return fmt.Errorf("%w: stress holding period must be at least one day", domain.ErrInvalidConfiguration)
	case c.DefaultVolatilityPct < 0 || math.IsNaN(c.DefaultVolatilityPct):
		return fmt.Errorf("%w: default volatility must not be negative", domain.ErrInvalidConfiguration)
	case c.ReconcileTolerance < 0 || math.IsNaN(c.ReconcileTolerance):
		return fmt.Errorf("%w: reconcile tolerance must not be negative", domain.ErrInvalidConfiguration)
	case c.TradingDaysPerYear <= 0:
		return fmt.Errorf("%w: trading days per year must be positive", domain.ErrInvalidConfiguration)
	case c.BatchSize <= 0:
		return fmt.Errorf("%w: batch size must be positive", domain.ErrInvalidConfiguration)
	}
	return nil
}

// Option configures a single run.
type Option func(*options)

type options struct {
	baseline *domain.ReturnSeries
	progress domain.ProgressReporter
}

// WithBaseline supplies the pre-stress return series. Its volatility replaces the default
// and its value path feeds the stressed drawdown.
func WithBaseline(series *domain.ReturnSeries) Option {
	return func(o *options) {
		o.baseline = series
	}
}

// WithProgress forwards progress updates to p.
func WithProgress(p domain.ProgressReporter) Option {
	return func(o *options) {
		if p != nil {
			o.progress = p
		}
	}
}

// Engine runs stress scenarios.
type Engine struct {
	cfg Config
	z   float64
	now func() time.Time
	log zerolog.Logger
}

// NewEngine creates a stress engine.
func NewEngine(cfg Config, log zerolog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	z, _ := risk.ZScore(cfg.Confidence)
	return &Engine{
		cfg: cfg,
		z:   z,
		now: time.Now,
		log: log.With().Str("component", "stress_engine").Logger(),
	}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// RunStressTest applies scenario to portfolio. The result is complete or absent.
func (e *Engine) RunStressTest(
	ctx context.Context,
	portfolio *domain.Portfolio,
	scenario domain.StressScenario,
	opts ...Option,
) (*domain.StressTestResult, error) {
	o := options{progress: domain.NoopProgress{}}
	for _, opt := range opts {
		opt(&o)
	}

	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	if portfolio == nil {
		return nil, fmt.Errorf("%w: no portfolio", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, domain.Cancelled(err)
	}

	start := e.now()
	o.progress.ReportProgress(0, "applying "+scenario.Name)

	total := portfolio.TotalValue()
	headline := total * scenario.MarketShockPct / 100
	value := domain.ValueChange{
		Initial:       total,
		Stressed:      total + headline,
		Change:        headline,
		ChangePercent: percentOf(headline, total),
	}

	positions := portfolio.Positions()
	impacts := make([]domain.PositionImpact, 0, len(positions))
	weighted := 0.0
	for i, p := range positions {
		if i%e.cfg.BatchSize == 0 && i > 0 {
			if err := ctx.Err(); err != nil {
				return nil, domain.Cancelled(err)
			}
			o.progress.ReportProgress(70*float64(i)/float64(len(positions)), "shocking positions")
		}
		shock := positionShock(scenario.MarketShockPct, p.EffectiveBeta())
		change := p.MarketValue * shock / 100
		impacts = append(impacts, domain.PositionImpact{
			Symbol:        p.Symbol,
			ShockPct:      shock,
			InitialValue:  p.MarketValue,
			StressedValue: p.MarketValue + change,
			Change:        change,
			ChangePercent: percentOf(change, p.MarketValue),
		})
		weighted += p.Weight * shock / 100 * total
	}
	// The unallocated residual moves with the headline, so it reconciles on both sides.
	weighted += portfolio.CashWeight() * scenario.MarketShockPct / 100 * total
	if err := ctx.Err(); err != nil {
		return nil, domain.Cancelled(err)
	}
	o.progress.ReportProgress(70, "recomputing risk metrics")

	baseline, path, err := e.baselineMetrics(o.baseline, total)
	if err != nil {
		return nil, err
	}
	stressed, err := e.stressedMetrics(baseline.Volatility, scenario, path, value.Stressed)
	if err != nil {
		return nil, err
	}

	diff := weighted - headline
	result := &domain.StressTestResult{
		ScenarioID:      scenario.ID,
		ScenarioName:    scenario.Name,
		PortfolioValue:  value,
		BaselineMetrics: baseline,
		RiskMetrics:     stressed,
		PositionImpacts: impacts,
		Reconciliation: domain.Reconciliation{
			HeadlineChange:        headline,
			WeightedPositionDelta: weighted,
			Difference:            diff,
			TolerancePct:          e.cfg.ReconcileTolerance,
			WithinTolerance:       math.Abs(diff) <= math.Abs(total)*e.cfg.ReconcileTolerance/100,
		},
		RegimeAnnotations: regimeAnnotations(scenario),
		RunAt:             start,
		DurationMs:        e.now().Sub(start).Milliseconds(),
	}

	if !result.Reconciliation.WithinTolerance {
		e.log.Warn().
			Str("scenario", scenario.ID).
			Float64("headline_change", headline).
			Float64("weighted_position_change", weighted).
			Msg("Position changes do not reconcile with headline change")
	}
	e.log.Debug().
		Str("scenario", scenario.ID).
		Int("positions", len(impacts)).
		Float64("change_percent", value.ChangePercent).
		Float64("stressed_var", stressed.VaR).
		Msg("Stress test complete")

	o.progress.ReportProgress(100, "complete")
	return result, nil
}

// RunAll runs every scenario in order. It stops at the first error.
func (e *Engine) RunAll(
	ctx context.Context,
	portfolio *domain.Portfolio,
	scenarios []domain.StressScenario,
	opts ...Option,
) ([]*domain.StressTestResult, error) {
	o := options{progress: domain.NoopProgress{}}
	for _, opt := range opts {
		opt(&o)
	}

	results := make([]*domain.StressTestResult, 0, len(scenarios))
	for i, s := range scenarios {
		from := 100 * float64(i) / float64(len(scenarios))
		to := 100 * float64(i+1) / float64(len(scenarios))
		sub := domain.ProgressFunc(func(percent float64, message string) {
			o.progress.ReportProgress(from+(to-from)*percent/100, message)
		})
		r, err := e.RunStressTest(ctx, portfolio, s, WithBaseline(o.baseline), WithProgress(sub))
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", s.ID, err)
		}
		results = append(results, r)
	}
	return results, nil
}

// baselineMetrics returns the unstressed metrics and the value path rescaled to total.
func (e *Engine) baselineMetrics(series *domain.ReturnSeries, total float64) (domain.RiskMetrics, []float64, error) {
	vol := e.cfg.DefaultVolatilityPct
	path := []float64{total}
	drawdown := 0.0

	if series != nil {
		returns := series.PortfolioReturns()
		if len(returns) > 1 {
			v, err := formulas.AnnualizedVolatilityFor(returns, e.cfg.TradingDaysPerYear)
			if err != nil {
				return domain.RiskMetrics{}, nil, err
			}
			vol = v
		}

		values := series.PortfolioValues()
		if last := values[len(values)-1]; last > 0 && total > 0 {
			path = make([]float64, len(values))
			for i, v := range values {
				path[i] = v * total / last
			}
			dd, err := formulas.MaxDrawdown(path)
			if err != nil {
				return domain.RiskMetrics{}, nil, err
			}
			drawdown = dd
		}
	}

	m := e.tailMetrics(vol, 0, total)
	m.MaxDrawdown = drawdown
	return m, path, nil
}

func (e *Engine) stressedMetrics(baseVol float64, s domain.StressScenario, path []float64, stressedValue float64) (domain.RiskMetrics, error) {
	vol := baseVol * (1 + s.VolatilityIncreasePct/100)
	m := e.tailMetrics(vol, s.LiquidityImpactPct, stressedValue)

	if stressedValue <= 0 {
		m.MaxDrawdown = 100
		return m, nil
	}
	if path[len(path)-1] <= 0 {
		return m, nil
	}
	dd, err := formulas.MaxDrawdown(append(append([]float64(nil), path...), stressedValue))
	if err != nil {
		return domain.RiskMetrics{}, err
	}
	m.MaxDrawdown = dd
	return m, nil
}

// tailMetrics derives normal VaR and CVaR from an annualised volatility, widened by the
// liquidity impact.
func (e *Engine) tailMetrics(vol, liquidityPct, value float64) domain.RiskMetrics {
	sigma := vol * math.Sqrt(float64(e.cfg.HoldingPeriodDays)/float64(e.cfg.TradingDaysPerYear))
	liquidity := 1 + math.Abs(liquidityPct)/100
	tail := distuv.UnitNormal.Prob(e.z) / ((100 - e.cfg.Confidence) / 100)

	m := domain.RiskMetrics{
		Volatility: vol,
		VaR:        e.z * sigma * liquidity,
		CVaR:       tail * sigma * liquidity,
	}
	m.VaRAmount = m.VaR / 100 * math.Max(value, 0)
	m.CVaRAmount = m.CVaR / 100 * math.Max(value, 0)
	return m
}

// positionShock scales the market shock by beta. A position cannot lose more than its value.
func positionShock(marketShockPct, beta float64) float64 {
	return math.Max(-100, marketShockPct*beta)
}

func regimeAnnotations(s domain.StressScenario) []string {
	out := []string{}
	if s.CorrelationChangePct != 0 {
		out = append(out, MetricVaR, MetricCVaR)
	}
	if s.DurationDays > 1 {
		out = append(out, MetricMaxDrawdown, MetricVolatility)
	}
	return out
}

func percentOf(change, base float64) float64 {
	if base == 0 {
		return 0
	}
	return change / base * 100
}
