package domain

import "time"

// PerformanceSummary collects the kernel statistics for one return series. Ratios are
// unitless, everything else is in percent points.
type PerformanceSummary struct {
	Observations       int       `json:"observations"`
	TotalReturn        float64   `json:"total_return"`
	MeanDailyReturn    float64   `json:"mean_daily_return"`
	Volatility         float64   `json:"volatility"`
	SharpeRatio        float64   `json:"sharpe_ratio"`
	SortinoRatio       float64   `json:"sortino_ratio"`
	Beta               float64   `json:"beta"`
	Correlation        float64   `json:"correlation"`
	MaxDrawdown        float64   `json:"max_drawdown"`
	WinRate            float64   `json:"win_rate"`
	ProfitFactor       float64   `json:"profit_factor"`
	RiskFreeRate       float64   `json:"risk_free_rate"`
	TradingDaysPerYear int       `json:"trading_days_per_year"`
	ComputedAt         time.Time `json:"computed_at"`
}
