package risk

import (
	"fmt"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/pkg/formulas"
)

// Summarize computes the performance statistics of series against its benchmark column.
// riskFreeRate is annual, in percent points.
func (e *Engine) Summarize(series *domain.ReturnSeries, riskFreeRate float64) (*domain.PerformanceSummary, error) {
	if series == nil {
		return nil, fmt.Errorf("%w: nil return series", domain.ErrInvalidInput)
	}
	if series.Len() < 2 {
		return nil, fmt.Errorf("%w: summary needs 2 observations, have %d", domain.ErrInsufficientData, series.Len())
	}

	td := e.cfg.TradingDaysPerYear
	returns := series.PortfolioReturns()
	bench := series.BenchmarkReturns()

	s := &domain.PerformanceSummary{
		Observations:       len(returns),
		RiskFreeRate:       riskFreeRate,
		TradingDaysPerYear: td,
		ComputedAt:         e.now(),
	}

	var err error
	if s.MeanDailyReturn, err = formulas.Mean(returns); err != nil {
		return nil, err
	}
	if s.Volatility, err = formulas.AnnualizedVolatilityFor(returns, td); err != nil {
		return nil, err
	}
	if s.SharpeRatio, err = formulas.SharpeRatioFor(returns, riskFreeRate, td); err != nil {
		return nil, err
	}
	if s.SortinoRatio, err = formulas.SortinoRatio(returns, riskFreeRate, td); err != nil {
		return nil, err
	}
	if s.Beta, err = formulas.Beta(returns, bench); err != nil {
		return nil, err
	}
	if s.Correlation, err = formulas.Correlation(returns, bench); err != nil {
		return nil, err
	}
	if s.MaxDrawdown, err = formulas.MaxDrawdown(series.PortfolioValues()); err != nil {
		return nil, err
	}
	if s.WinRate, err = formulas.WinRate(returns, bench); err != nil {
		return nil, err
	}
	if s.ProfitFactor, err = formulas.ProfitFactor(returns); err != nil {
		return nil, err
	}

	growth := 1.0
	for _, r := range returns {
		growth *= 1 + r/100
	}
	s.TotalReturn = (growth - 1) * 100

	e.log.Debug().
		Int("n", s.Observations).
		Float64("sharpe", s.SharpeRatio).
		Float64("max_drawdown", s.MaxDrawdown).
		Msg("Performance summary computed")
	return s, nil
}
