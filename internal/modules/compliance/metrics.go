package compliance

import (
	"fmt"
	"strings"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/pkg/formulas"
)

// Metric names a rule can bind its current value to. Weights are percent points.
const (
	MetricMaxPositionWeight = "max_position_weight"
	MetricMaxSectorWeight   = "max_sector_weight"
	MetricCashWeight        = "cash_weight"
	MetricPositionCount     = "position_count"
	MetricVaR               = "var"
	MetricCVaR              = "cvar"
	MetricStressedVaR       = "stressed_var"
	MetricStressedDrawdown  = "stressed_drawdown"
	MetricVolatility        = "volatility"
	MetricMaxDrawdown       = "max_drawdown"
	MetricBeta              = "beta"

	// Parameterised metrics: "sector_weight:Technology", "instrument_weight:ETF".
	MetricSectorWeightPrefix     = "sector_weight:"
	MetricInstrumentWeightPrefix = "instrument_weight:"
)

// Snapshot is the latest set of inputs rule metrics are read from. Any field may be nil
// when no rule needs it.
type Snapshot struct {
	Portfolio *domain.Portfolio        `json:"-"`
	Series    *domain.ReturnSeries     `json:"-"`
	VaR       *domain.VaRResult        `json:"var,omitempty"`
	Stress    *domain.StressTestResult `json:"stress,omitempty"`
}

// BindCurrentValues returns a copy of rules with CurrentValue filled in from the snapshot
// for every rule that names a metric. Rules without a metric keep their value.
func (e *Engine) BindCurrentValues(rules []domain.ComplianceRule, snap Snapshot) ([]domain.ComplianceRule, error) {
	out := make([]domain.ComplianceRule, len(rules))
	copy(out, rules)
	for i, r := range out {
		if r.Metric == "" {
			continue
		}
		v, err := e.metricValue(r.Metric, snap)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.ID, err)
		}
		out[i].CurrentValue = v
	}
	return out, nil
}

func (e *Engine) metricValue(metric string, snap Snapshot) (float64, error) {
	switch {
	case strings.HasPrefix(metric, MetricSectorWeightPrefix):
		p, err := needPortfolio(metric, snap)
		if err != nil {
			return 0, err
		}
		return p.SectorWeights()[strings.TrimPrefix(metric, MetricSectorWeightPrefix)] * 100, nil

	case strings.HasPrefix(metric, MetricInstrumentWeightPrefix):
		p, err := needPortfolio(metric, snap)
		if err != nil {
			return 0, err
		}
		t := domain.InstrumentType(strings.ToUpper(strings.TrimPrefix(metric, MetricInstrumentWeightPrefix)))
		return p.InstrumentWeights()[t] * 100, nil
	}

	switch metric {
	case MetricMaxPositionWeight:
		p, err := needPortfolio(metric, snap)
		if err != nil {
			return 0, err
		}
		return p.LargestPosition().Weight * 100, nil

	case MetricMaxSectorWeight:
		p, err := needPortfolio(metric, snap)
		if err != nil {
			return 0, err
		}
		largest := 0.0
		for _, w := range p.SectorWeights() {
			largest = max(largest, w)
		}
		return largest * 100, nil

	case MetricCashWeight:
		p, err := needPortfolio(metric, snap)
		if err != nil {
			return 0, err
		}
		return (p.InstrumentWeights()[domain.InstrumentCash] + p.CashWeight()) * 100, nil

	case MetricPositionCount:
		p, err := needPortfolio(metric, snap)
		if err != nil {
			return 0, err
		}
		return float64(len(p.Positions())), nil

	case MetricVaR, MetricCVaR:
		if snap.VaR == nil {
			return 0, fmt.Errorf("%w: metric %s needs a VaR result", domain.ErrInsufficientData, metric)
		}
		if metric == MetricCVaR {
			return snap.VaR.CVaR, nil
		}
		return snap.VaR.Value, nil

	case MetricStressedVaR, MetricStressedDrawdown:
		if snap.Stress == nil {
			return 0, fmt.Errorf("%w: metric %s needs a stress result", domain.ErrInsufficientData, metric)
		}
		if metric == MetricStressedDrawdown {
			return snap.Stress.RiskMetrics.MaxDrawdown, nil
		}
		return snap.Stress.RiskMetrics.VaR, nil

	case MetricVolatility:
		s, err := needSeries(metric, snap)
		if err != nil {
			return 0, err
		}
		return formulas.AnnualizedVolatilityFor(s.PortfolioReturns(), e.cfg.TradingDaysPerYear)

	case MetricMaxDrawdown:
		s, err := needSeries(metric, snap)
		if err != nil {
			return 0, err
		}
		return formulas.MaxDrawdown(s.PortfolioValues())

	case MetricBeta:
		s, err := needSeries(metric, snap)
		if err != nil {
			return 0, err
		}
		return formulas.Beta(s.PortfolioReturns(), s.BenchmarkReturns())
	}

	return 0, fmt.Errorf("%w: unknown metric %q", domain.ErrInvalidConfiguration, metric)
}

func needPortfolio(metric string, snap Snapshot) (*domain.Portfolio, error) {
	if snap.Portfolio == nil {
		return nil, fmt.Errorf("%w: metric %s needs a portfolio", domain.ErrInsufficientData, metric)
	}
	return snap.Portfolio, nil
}

func needSeries(metric string, snap Snapshot) (*domain.ReturnSeries, error) {
	if snap.Series == nil {
		return nil, fmt.Errorf("%w: metric %s needs a return series", domain.ErrInsufficientData, metric)
	}
	return snap.Series, nil
}
