package domain

import (
	"fmt"
	"time"
)

// VaRMethod selects the Value-at-Risk estimator.
type VaRMethod string

const (
	VaRParametric VaRMethod = "parametric"
	VaRHistorical VaRMethod = "historical"
	VaRMonteCarlo VaRMethod = "monteCarlo"
)

// ParseVaRMethod accepts the canonical names plus the snake/kebab spellings of Monte Carlo.
func ParseVaRMethod(s string) (VaRMethod, error) {
	switch s {
	case "parametric":
		return VaRParametric, nil
	case "historical":
		return VaRHistorical, nil
	case "monteCarlo", "monte_carlo", "monte-carlo", "montecarlo":
		return VaRMonteCarlo, nil
	default:
		return "", fmt.Errorf("%w: unknown VaR method %q", ErrInvalidConfiguration, s)
	}
}

// VaRResult is a full, immutable VaR estimate. VaR figures are positive magnitudes in
// percent points of portfolio value at the requested holding period.
type VaRResult struct {
	Method              VaRMethod `json:"method"`
	Confidence          float64   `json:"confidence"` // percent, e.g. 95
	HoldingPeriodDays   int       `json:"holding_period_days"`
	Value               float64   `json:"value"`
	ValueAmount         float64   `json:"value_amount"` // Value against the latest portfolio value
	CVaR                float64   `json:"cvar"`
	CurrentVaR          float64   `json:"current_var"`
	AvgVaR              float64   `json:"avg_var"`
	MaxVaR              float64   `json:"max_var"`
	MinVaR              float64   `json:"min_var"`
	Volatility          float64   `json:"volatility"` // annualised, percent points
	ExceedanceCount     int       `json:"exceedance_count"`
	ExpectedExceedances int       `json:"expected_exceedances"`
	AccuracyScore       float64   `json:"accuracy_score"`
	Observations        int       `json:"observations"`
	BacktestDays        int       `json:"backtest_days"`
	ComputedAt          time.Time `json:"computed_at"`
}
