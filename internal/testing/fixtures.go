// Package testing provides fixtures shared by the package tests.
package testing

import (
	"testing"
	"time"

	"github.com/aristath/sentinel-risk/internal/domain"
)

// FixtureStart is the first date of every generated series.
var FixtureStart = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

// NewReturnSeries builds a daily series from portfolio returns (percent points). Portfolio
// and benchmark values compound from 100000; the benchmark earns half the portfolio return.
func NewReturnSeries(t testing.TB, returns []float64) *domain.ReturnSeries {
	t.Helper()

	points := make([]domain.ReturnPoint, len(returns))
	value, bench := 100000.0, 100000.0
	for i, r := range returns {
		value *= 1 + r/100
		bench *= 1 + r/200
		points[i] = domain.ReturnPoint{
			Date:            FixtureStart.AddDate(0, 0, i),
			PortfolioReturn: r,
			BenchmarkReturn: r / 2,
			PortfolioValue:  value,
			BenchmarkValue:  bench,
		}
	}
	series, err := domain.NewReturnSeries(points)
	if err != nil {
		t.Fatalf("fixture series: %v", err)
	}
	return series
}

// Alternating returns +amp, -amp, +amp, ... of length n.
func Alternating(n int, amp float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		if i%2 == 0 {
			out[i] = amp
		} else {
			out[i] = -amp
		}
	}
	return out
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 {
	return &v
}

// NewPortfolio returns a four-position portfolio worth 1,000,000.
func NewPortfolio(t testing.TB) *domain.Portfolio {
	t.Helper()

	p, err := domain.NewPortfolio([]domain.Position{
		{Symbol: "AAPL", Name: "Apple Inc.", Weight: 0.40, MarketValue: 400000, Sector: "Technology", InstrumentType: domain.InstrumentEquity, Beta: Float64(1.2)},
		{Symbol: "JNJ", Name: "Johnson & Johnson", Weight: 0.25, MarketValue: 250000, Sector: "Healthcare", InstrumentType: domain.InstrumentEquity, Beta: Float64(0.7)},
		{Symbol: "VWCE", Name: "Vanguard FTSE All-World", Weight: 0.30, MarketValue: 300000, Sector: "Diversified", InstrumentType: domain.InstrumentETF},
		{Symbol: "CASH", Name: "Cash", Weight: 0.05, MarketValue: 50000, Sector: "Cash", InstrumentType: domain.InstrumentCash, Beta: Float64(0)},
	}, 1000000)
	if err != nil {
		t.Fatalf("fixture portfolio: %v", err)
	}
	return p
}
