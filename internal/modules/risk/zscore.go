package risk

import (
	"fmt"
	"math"

	"github.com/aristath/sentinel-risk/internal/domain"
)

// zScores holds the one-tailed standard normal quantiles for the supported confidence levels.
var zScores = map[float64]float64{
	90: 1.2816,
	95: 1.645,
	99: 2.326,
}

// SupportedConfidenceLevels lists the accepted confidence levels in percent.
var SupportedConfidenceLevels = []float64{90, 95, 99}

// ZScore returns the standard normal quantile for a supported confidence level (percent).
func ZScore(confidence float64) (float64, error) {
	z, ok := zScores[confidence]
	if !ok {
		return 0, fmt.Errorf("%w: %v", domain.ErrUnsupportedConfidenceLevel, confidence)
	}
	return z, nil
}

// tailProbability converts a confidence level in percent to the left-tail probability.
func tailProbability(confidence float64) float64 {
	return (100 - confidence) / 100
}

// minHistoricalObservations is ceil(1/(1-c)), computed on percent points to stay exact.
func minHistoricalObservations(confidence float64) int {
	return int(math.Ceil(100/(100-confidence) - 1e-9))
}

// horizonScale applies square-root-of-time scaling to a one-day figure.
func horizonScale(holdingPeriodDays int) float64 {
	return math.Sqrt(float64(holdingPeriodDays))
}
