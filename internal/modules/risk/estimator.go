package risk

import (
	"context"

	"github.com/aristath/sentinel-risk/internal/domain"
)

// estimator is one VaR method.
type estimator interface {
	method() domain.VaRMethod

	// minObservations is the shortest return series the method accepts at the confidence level.
	minObservations(confidence float64) int

	// estimate returns VaR and CVaR at the holding period in percent points.
	estimate(ctx context.Context, req request) (tailEstimate, error)

	// rolling returns one-day VaR forecasts; out[k] is fitted on returns[k : k+window],
	// so len(out) == len(returns)-window+1 and the last entry forecasts the next day.
	rolling(ctx context.Context, returns []float64, confidence float64, window int) ([]float64, error)
}

type request struct {
	returns    []float64
	confidence float64
	horizon    int
	progress   domain.ProgressReporter
}

type tailEstimate struct {
	VaR  float64
	CVaR float64
}

// progressRange maps 0..100 from an inner stage onto [from, to] of the outer reporter.
type progressRange struct {
	outer    domain.ProgressReporter
	from, to float64
}

func (p progressRange) ReportProgress(percent float64, message string) {
	p.outer.ReportProgress(p.from+(p.to-p.from)*percent/100, message)
}
