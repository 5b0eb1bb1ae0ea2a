package formulas

import (
	"fmt"

	"github.com/markcheno/go-talib"
)

// RollingStdDev returns the population standard deviation of every trailing window.
// out[i] covers xs[i : i+window]; the result has len(xs)-window+1 entries.
func RollingStdDev(xs []float64, window int) ([]float64, error) {
	if window < 1 {
		return nil, fmt.Errorf("%w: window %d", ErrInvalidInput, window)
	}
	if err := checkSeries(xs, window); err != nil {
		return nil, err
	}
	if window == 1 {
		return make([]float64, len(xs)), nil
	}
	out := talib.StdDev(xs, window, 1.0)
	return out[window-1:], nil
}

// RollingMean returns the mean of every trailing window, aligned like RollingStdDev.
func RollingMean(xs []float64, window int) ([]float64, error) {
	if window < 1 {
		return nil, fmt.Errorf("%w: window %d", ErrInvalidInput, window)
	}
	if err := checkSeries(xs, window); err != nil {
		return nil, err
	}
	if window == 1 {
		out := make([]float64, len(xs))
		copy(out, xs)
		return out, nil
	}
	out := talib.Sma(xs, window)
	return out[window-1:], nil
}
