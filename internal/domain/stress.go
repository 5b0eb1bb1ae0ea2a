package domain

import (
	"fmt"
	"time"
)

// ScenarioType tells where a stress scenario comes from.
type ScenarioType string

const (
	ScenarioHistorical ScenarioType = "historical"
	ScenarioCustom     ScenarioType = "custom"
	ScenarioMonteCarlo ScenarioType = "monteCarlo"
)

// StressScenario is an immutable shock definition. All *Pct fields are percent points.
type StressScenario struct {
	ID                    string       `json:"id" yaml:"id"`
	Name                  string       `json:"name" yaml:"name"`
	Description           string       `json:"description,omitempty" yaml:"description,omitempty"`
	Type                  ScenarioType `json:"type" yaml:"type"`
	MarketShockPct        float64      `json:"market_shock_pct" yaml:"market_shock_pct"`
	VolatilityIncreasePct float64      `json:"volatility_increase_pct" yaml:"volatility_increase_pct"`
	CorrelationChangePct  float64      `json:"correlation_change_pct" yaml:"correlation_change_pct"`
	LiquidityImpactPct    float64      `json:"liquidity_impact_pct" yaml:"liquidity_impact_pct"`
	DurationDays          int          `json:"duration_days" yaml:"duration_days"`
}

// Validate checks the scenario parameters. The id is not checked: catalogs assign it.
func (s StressScenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: scenario has no name", ErrInvalidConfiguration)
	}
	switch s.Type {
	case ScenarioHistorical, ScenarioCustom, ScenarioMonteCarlo:
	default:
		return fmt.Errorf("%w: scenario %q has unknown type %q", ErrInvalidConfiguration, s.Name, s.Type)
	}
	if !finite(s.MarketShockPct, s.VolatilityIncreasePct, s.CorrelationChangePct, s.LiquidityImpactPct) {
		return fmt.Errorf("%w: scenario %q has non-finite parameters", ErrInvalidConfiguration, s.Name)
	}
	if s.MarketShockPct < -100 {
		return fmt.Errorf("%w: scenario %q market shock %v below -100%%", ErrInvalidConfiguration, s.Name, s.MarketShockPct)
	}
	if s.VolatilityIncreasePct < -100 {
		return fmt.Errorf("%w: scenario %q volatility change %v below -100%%", ErrInvalidConfiguration, s.Name, s.VolatilityIncreasePct)
	}
	if s.CorrelationChangePct < -100 || s.CorrelationChangePct > 100 {
		return fmt.Errorf("%w: scenario %q correlation change %v outside [-100,100]", ErrInvalidConfiguration, s.Name, s.CorrelationChangePct)
	}
	if s.LiquidityImpactPct < -100 || s.LiquidityImpactPct > 100 {
		return fmt.Errorf("%w: scenario %q liquidity impact %v outside [-100,100]", ErrInvalidConfiguration, s.Name, s.LiquidityImpactPct)
	}
	if s.DurationDays < 0 {
		return fmt.Errorf("%w: scenario %q has negative duration", ErrInvalidConfiguration, s.Name)
	}
	return nil
}

// ValueChange describes a before/after value pair.
type ValueChange struct {
	Initial       float64 `json:"initial"`
	Stressed      float64 `json:"stressed"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
}

// RiskMetrics are portfolio risk figures in percent points; amounts are in currency.
type RiskMetrics struct {
	VaR         float64 `json:"var"`
	CVaR        float64 `json:"cvar"`
	MaxDrawdown float64 `json:"max_drawdown"`
	Volatility  float64 `json:"volatility"`
	VaRAmount   float64 `json:"var_amount"`
	CVaRAmount  float64 `json:"cvar_amount"`
}

// PositionImpact is the effect of a scenario on a single position.
type PositionImpact struct {
	Symbol        string  `json:"symbol"`
	ShockPct      float64 `json:"shock_pct"`
	InitialValue  float64 `json:"initial_value"`
	StressedValue float64 `json:"stressed_value"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
}

// Reconciliation compares the weighted sum of position changes with the headline change.
// A mismatch is a data-quality signal, not a failure.
type Reconciliation struct {
	HeadlineChange        float64 `json:"headline_change"`
	WeightedPositionDelta float64 `json:"weighted_position_change"`
	Difference            float64 `json:"difference"`
	TolerancePct          float64 `json:"tolerance_pct"`
	WithinTolerance       bool    `json:"within_tolerance"`
}

// StressTestResult is produced fresh by every run and never mutated.
type StressTestResult struct {
	ScenarioID        string           `json:"scenario_id"`
	ScenarioName      string           `json:"scenario_name"`
	PortfolioValue    ValueChange      `json:"portfolio_value"`
	BaselineMetrics   RiskMetrics      `json:"baseline_metrics"`
	RiskMetrics       RiskMetrics      `json:"risk_metrics"`
	PositionImpacts   []PositionImpact `json:"position_impacts"`
	Reconciliation    Reconciliation   `json:"reconciliation"`
	RegimeAnnotations []string         `json:"regime_annotations"`
	RunAt             time.Time        `json:"run_at"`
	DurationMs        int64            `json:"duration_ms"`
}
