package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/sentinel-risk/internal/domain"
	testutil "github.com/aristath/sentinel-risk/internal/testing"
)

func TestSummarize(t *testing.T) {
	e := newTestEngine(t, nil)
	series := testutil.NewReturnSeries(t, testutil.Alternating(40, 1))

	s, err := e.Summarize(series, 0)
	require.NoError(t, err)

	assert.Equal(t, 40, s.Observations)
	assert.InDelta(t, 0, s.MeanDailyReturn, 1e-12)
	assert.InDelta(t, math.Sqrt(252), s.Volatility, 1e-9)
	assert.InDelta(t, 0, s.SharpeRatio, 1e-9)
	assert.InDelta(t, 2, s.Beta, 1e-9) // benchmark earns half the return
	assert.InDelta(t, 1, s.Correlation, 1e-9)
	assert.InDelta(t, 50, s.WinRate, 1e-9)
	assert.InDelta(t, 1, s.ProfitFactor, 1e-9)
	assert.InDelta(t, (math.Pow(1.01*0.99, 20)-1)*100, s.TotalReturn, 1e-9)

	trough := 100000 * math.Pow(1.01*0.99, 20)
	assert.InDelta(t, (101000-trough)/101000*100, s.MaxDrawdown, 1e-6)
}

func TestSummarizeRiskFreeRate(t *testing.T) {
	e := newTestEngine(t, nil)
	series := testutil.NewReturnSeries(t, testutil.Alternating(40, 1))

	s, err := e.Summarize(series, 2)
	require.NoError(t, err)
	assert.Less(t, s.SharpeRatio, 0.0)
	assert.Equal(t, 2.0, s.RiskFreeRate)
}

func TestSummarizeErrors(t *testing.T) {
	e := newTestEngine(t, nil)

	_, err := e.Summarize(nil, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = e.Summarize(testutil.NewReturnSeries(t, []float64{1}), 0)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}
