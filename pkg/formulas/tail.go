package formulas

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// TailQuantile returns the empirical p-quantile of xs (0 < p < 1), e.g. p = 0.05 gives the
// 5th percentile. The input is not modified.
func TailQuantile(xs []float64, p float64) (float64, error) {
	if err := checkSeries(xs, 1); err != nil {
		return 0, err
	}
	if p <= 0 || p >= 1 {
		return 0, fmt.Errorf("%w: quantile %v outside (0,1)", ErrInvalidInput, p)
	}
	sorted := sortedCopy(xs)
	return stat.Quantile(p, stat.Empirical, sorted, nil), nil
}

// ExpectedShortfall returns the mean of the observations at or below the empirical
// p-quantile. It is the tail average that CVaR is built on.
func ExpectedShortfall(xs []float64, p float64) (float64, error) {
	q, err := TailQuantile(xs, p)
	if err != nil {
		return 0, err
	}
	var sum float64
	var count int
	for _, x := range xs {
		if x <= q {
			sum += x
			count++
		}
	}
	return sum / float64(count), nil
}

func sortedCopy(xs []float64) []float64 {
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	return sorted
}
