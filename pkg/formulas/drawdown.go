package formulas

import "fmt"

// MaxDrawdown scans a value series once, left to right, tracking the running peak.
// The drawdown at each point is (peak - value) / peak; the result is the largest one seen,
// as a positive percentage. A non-decreasing series has a max drawdown of exactly 0.
//
// Values must be strictly positive.
func MaxDrawdown(values []float64) (float64, error) {
	if err := checkSeries(values, 1); err != nil {
		return 0, err
	}

	peak := values[0]
	maxDD := 0.0
	for i, v := range values {
		if v <= 0 {
			return 0, fmt.Errorf("%w: non-positive value %v at index %d", ErrInvalidInput, v, i)
		}
		if v > peak {
			peak = v
			continue
		}
		if dd := (peak - v) / peak; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD * 100, nil
}
