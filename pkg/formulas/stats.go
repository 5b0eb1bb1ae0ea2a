package formulas

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mean returns the arithmetic mean of xs.
func Mean(xs []float64) (float64, error) {
	if err := checkSeries(xs, 1); err != nil {
		return 0, err
	}
	return stat.Mean(xs, nil), nil
}

// Variance returns the population variance of xs (divisor n).
//
// The population form is used throughout the engines so that a single observation has a
// variance of zero rather than being undefined.
func Variance(xs []float64) (float64, error) {
	if err := checkSeries(xs, 1); err != nil {
		return 0, err
	}
	return stat.PopVariance(xs, nil), nil
}

// StdDev returns the population standard deviation of xs.
func StdDev(xs []float64) (float64, error) {
	v, err := Variance(xs)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(v), nil
}

// Covariance returns the population covariance of x and y (divisor n).
func Covariance(x, y []float64) (float64, error) {
	if err := checkPair(x, y); err != nil {
		return 0, err
	}
	n := float64(len(x))
	if n == 1 {
		return 0, nil
	}
	// stat.Covariance is the unbiased estimator; rescale to the population form.
	return stat.Covariance(x, y, nil) * (n - 1) / n, nil
}

// Correlation returns the Pearson correlation of x and y.
// Zero variance on either side yields 0.
func Correlation(x, y []float64) (float64, error) {
	if err := checkPair(x, y); err != nil {
		return 0, err
	}
	if stat.PopVariance(x, nil) == 0 || stat.PopVariance(y, nil) == 0 {
		return 0, nil
	}
	return stat.Correlation(x, y, nil), nil
}

// CalculateReturns converts a value series into simple returns expressed in percent points.
// Returns[i] = (Value[i+1] - Value[i]) / Value[i] * 100. A zero base value yields a 0 return.
func CalculateReturns(values []float64) []float64 {
	if len(values) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] != 0 {
			returns[i-1] = (values[i] - values[i-1]) / values[i-1] * 100
		}
	}
	return returns
}

func checkSeries(xs []float64, minLen int) error {
	if len(xs) < minLen {
		return fmt.Errorf("%w: need at least %d observations, got %d", ErrInsufficientData, minLen, len(xs))
	}
	if !isFinite(xs) {
		return fmt.Errorf("%w: series contains NaN or Inf", ErrInvalidInput)
	}
	return nil
}

func checkPair(x, y []float64) error {
	if len(x) != len(y) {
		return fmt.Errorf("%w: length mismatch %d != %d", ErrInvalidInput, len(x), len(y))
	}
	if err := checkSeries(x, 1); err != nil {
		return err
	}
	return checkSeries(y, 1)
}

func isFinite(xs []float64) bool {
	if floats.HasNaN(xs) {
		return false
	}
	for _, x := range xs {
		if math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
