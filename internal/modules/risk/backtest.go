package risk

import (
	"context"
	"math"
)

type backtest struct {
	current     float64
	avg         float64
	max         float64
	min         float64
	exceedances int
	expected    int
	accuracy    float64
	days        int
}

// runBacktest counts the days whose loss exceeded the one-day VaR forecast fitted on the
// trailing window before it. Series no longer than the window fall back to the in-sample
// full-sample estimate applied to every day.
func runBacktest(ctx context.Context, est estimator, returns []float64, confidence float64, horizon, window int) (backtest, error) {
	window = max(window, est.minObservations(confidence))
	n := len(returns)

	var forecasts, tested []float64
	var current float64
	if n > window {
		rolled, err := est.rolling(ctx, returns, confidence, window)
		if err != nil {
			return backtest{}, err
		}
		forecasts = rolled
		tested = returns[window:]
		current = rolled[len(rolled)-1]
	} else {
		rolled, err := est.rolling(ctx, returns, confidence, n)
		if err != nil {
			return backtest{}, err
		}
		current = rolled[0]
		forecasts = []float64{current}
		tested = returns
	}

	bt := backtest{days: len(tested)}
	for i, r := range tested {
		f := current
		if len(forecasts) > 1 {
			f = forecasts[i]
		}
		if -r > f {
			bt.exceedances++
		}
	}
	bt.expected = int(math.Floor(float64(bt.days)*(100-confidence)/100 + 1e-9))
	bt.accuracy = math.Max(0, 100-10*math.Abs(float64(bt.exceedances-bt.expected)))

	scale := horizonScale(horizon)
	bt.current = current * scale
	bt.min = math.Inf(1)
	bt.max = math.Inf(-1)
	var sum float64
	for _, f := range forecasts {
		v := f * scale
		sum += v
		bt.min = math.Min(bt.min, v)
		bt.max = math.Max(bt.max, v)
	}
	bt.avg = sum / float64(len(forecasts))
	return bt, nil
}
