// Package formulas provides the statistical primitives shared by the risk engines:
// moments, volatility, Sharpe/Sortino ratios, beta, drawdown, win rate, profit factor
// and empirical tail measures.
//
// Every function is pure and total over valid non-empty input. Degenerate but valid input
// (zero variance, zero benchmark variance) yields a documented fallback value instead of an
// error, so aggregate pipelines stay total for flat series.
package formulas

import "errors"

var (
	// ErrInsufficientData is returned when a series is too short for the requested statistic.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInvalidInput is returned for structurally malformed input (NaN, Inf, length mismatch,
	// non-positive values where a price level is expected).
	ErrInvalidInput = errors.New("invalid input")
)
