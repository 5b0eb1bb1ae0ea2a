package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the annualisation factor for daily equity returns.
// Non-equity calendars (crypto, 365; FX, 260) pass their own value to the *For variants.
const TradingDaysPerYear = 252

// ProfitFactorCap is reported by ProfitFactor when there are gains but no losses.
const ProfitFactorCap = 100.0

// AnnualizedVolatility returns sqrt(variance(dailyReturns) * 252).
func AnnualizedVolatility(dailyReturns []float64) (float64, error) {
	return AnnualizedVolatilityFor(dailyReturns, TradingDaysPerYear)
}

// AnnualizedVolatilityFor annualises with an explicit number of periods per year.
func AnnualizedVolatilityFor(returns []float64, periodsPerYear int) (float64, error) {
	v, err := Variance(returns)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(v * float64(periodsPerYear)), nil
}

// SharpeRatio returns (mean*252 - riskFreeRate) / annualizedVolatility.
//
// riskFreeRate is annual and in the same unit as the returns. A zero volatility yields 0
// rather than NaN/Inf.
func SharpeRatio(dailyReturns []float64, riskFreeRate float64) (float64, error) {
	return SharpeRatioFor(dailyReturns, riskFreeRate, TradingDaysPerYear)
}

// SharpeRatioFor is SharpeRatio with an explicit number of periods per year.
func SharpeRatioFor(returns []float64, riskFreeRate float64, periodsPerYear int) (float64, error) {
	vol, err := AnnualizedVolatilityFor(returns, periodsPerYear)
	if err != nil {
		return 0, err
	}
	if vol == 0 {
		return 0, nil
	}
	mean := stat.Mean(returns, nil)
	return (mean*float64(periodsPerYear) - riskFreeRate) / vol, nil
}

// SortinoRatio is the Sharpe ratio with only downside deviation (returns below zero) in the
// denominator. No downside observations yield 0.
func SortinoRatio(dailyReturns []float64, riskFreeRate float64, periodsPerYear int) (float64, error) {
	if err := checkSeries(dailyReturns, 1); err != nil {
		return 0, err
	}
	var sumSq float64
	for _, r := range dailyReturns {
		if r < 0 {
			sumSq += r * r
		}
	}
	downside := math.Sqrt(sumSq/float64(len(dailyReturns))) * math.Sqrt(float64(periodsPerYear))
	if downside == 0 {
		return 0, nil
	}
	mean := stat.Mean(dailyReturns, nil)
	return (mean*float64(periodsPerYear) - riskFreeRate) / downside, nil
}

// Beta returns covariance(asset, benchmark) / variance(benchmark).
// A flat benchmark (zero variance) yields 1: the asset is assumed to move with the market.
func Beta(assetReturns, benchmarkReturns []float64) (float64, error) {
	cov, err := Covariance(assetReturns, benchmarkReturns)
	if err != nil {
		return 0, err
	}
	benchVar := stat.PopVariance(benchmarkReturns, nil)
	if benchVar == 0 {
		return 1, nil
	}
	return cov / benchVar, nil
}

// WinRate returns the percentage (0..100) of days on which the portfolio return strictly
// exceeds the benchmark return. Ties are not wins.
func WinRate(portfolioReturns, benchmarkReturns []float64) (float64, error) {
	if err := checkPair(portfolioReturns, benchmarkReturns); err != nil {
		return 0, err
	}
	wins := 0
	for i := range portfolioReturns {
		if portfolioReturns[i] > benchmarkReturns[i] {
			wins++
		}
	}
	return float64(wins) / float64(len(portfolioReturns)) * 100, nil
}

// ProfitFactor returns gross gains divided by gross losses, capped at ProfitFactorCap.
// With no losses the result is the cap, or 0 when there are no gains either.
func ProfitFactor(returns []float64) (float64, error) {
	if err := checkSeries(returns, 1); err != nil {
		return 0, err
	}
	var gains, losses float64
	for _, r := range returns {
		if r > 0 {
			gains += r
		} else {
			losses -= r
		}
	}
	if losses == 0 {
		if gains == 0 {
			return 0, nil
		}
		return ProfitFactorCap, nil
	}
	return math.Min(gains/losses, ProfitFactorCap), nil
}
