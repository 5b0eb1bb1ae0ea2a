package domain

import (
	"fmt"
	"math"
	"time"
)

// ReturnPoint is one observation of a ReturnSeries. Returns are in percent points.
type ReturnPoint struct {
	Date            time.Time `json:"date"`
	PortfolioReturn float64   `json:"portfolio_return"`
	BenchmarkReturn float64   `json:"benchmark_return"`
	PortfolioValue  float64   `json:"portfolio_value"`
	BenchmarkValue  float64   `json:"benchmark_value"`
}

// ReturnSeries is an immutable, strictly date-ordered series of portfolio vs benchmark
// observations. New data means a new series; there are no mutators.
type ReturnSeries struct {
	points []ReturnPoint
}

// NewReturnSeries validates and copies points into a ReturnSeries.
func NewReturnSeries(points []ReturnPoint) (*ReturnSeries, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: return series is empty", ErrInvalidInput)
	}

	copied := make([]ReturnPoint, len(points))
	copy(copied, points)

	for i, p := range copied {
		if !finite(p.PortfolioReturn, p.BenchmarkReturn, p.PortfolioValue, p.BenchmarkValue) {
			return nil, fmt.Errorf("%w: non-finite value at index %d", ErrInvalidInput, i)
		}
		if i > 0 && !p.Date.After(copied[i-1].Date) {
			return nil, fmt.Errorf("%w: dates not strictly increasing at index %d (%s <= %s)",
				ErrInvalidInput, i, p.Date.Format("2006-01-02"), copied[i-1].Date.Format("2006-01-02"))
		}
	}

	return &ReturnSeries{points: copied}, nil
}

// Len returns the number of observations.
func (s *ReturnSeries) Len() int {
	return len(s.points)
}

// Points returns a copy of the observations.
func (s *ReturnSeries) Points() []ReturnPoint {
	out := make([]ReturnPoint, len(s.points))
	copy(out, s.points)
	return out
}

// Latest returns the last observation.
func (s *ReturnSeries) Latest() ReturnPoint {
	return s.points[len(s.points)-1]
}

// PortfolioReturns returns a fresh slice of portfolio returns.
func (s *ReturnSeries) PortfolioReturns() []float64 {
	return s.column(func(p ReturnPoint) float64 { return p.PortfolioReturn })
}

// BenchmarkReturns returns a fresh slice of benchmark returns.
func (s *ReturnSeries) BenchmarkReturns() []float64 {
	return s.column(func(p ReturnPoint) float64 { return p.BenchmarkReturn })
}

// PortfolioValues returns a fresh slice of portfolio values.
func (s *ReturnSeries) PortfolioValues() []float64 {
	return s.column(func(p ReturnPoint) float64 { return p.PortfolioValue })
}

// BenchmarkValues returns a fresh slice of benchmark values.
func (s *ReturnSeries) BenchmarkValues() []float64 {
	return s.column(func(p ReturnPoint) float64 { return p.BenchmarkValue })
}

func (s *ReturnSeries) column(f func(ReturnPoint) float64) []float64 {
	out := make([]float64, len(s.points))
	for i, p := range s.points {
		out[i] = f(p)
	}
	return out
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
