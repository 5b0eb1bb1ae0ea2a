package risk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/sentinel-risk/internal/domain"
	testutil "github.com/aristath/sentinel-risk/internal/testing"
)

func TestMonteCarloIsDeterministicForFixedSeed(t *testing.T) {
	e := newTestEngine(t, nil)
	series := testutil.NewReturnSeries(t, testutil.Alternating(60, 1))

	first, err := e.ComputeVaR(context.Background(), series, domain.VaRMonteCarlo, 95, 5)
	require.NoError(t, err)
	second, err := e.ComputeVaR(context.Background(), series, domain.VaRMonteCarlo, 95, 5)
	require.NoError(t, err)

	assert.Equal(t, first.Value, second.Value)
	assert.Equal(t, first.CVaR, second.CVaR)
}

func TestMonteCarloConvergesToNormalQuantile(t *testing.T) {
	e := newTestEngine(t, nil)
	series := testutil.NewReturnSeries(t, testutil.Alternating(60, 1))

	result, err := e.ComputeVaR(context.Background(), series, domain.VaRMonteCarlo, 95, 1)
	require.NoError(t, err)

	// mean 0, std 1 percent: the 5% quantile is -1.645
	assert.InDelta(t, 1.645, result.Value, 0.1)
	assert.GreaterOrEqual(t, result.CVaR, result.Value)
}

func TestMonteCarloFatTails(t *testing.T) {
	e := newTestEngine(t, func(c *Config) { c.FatTailDoF = 4 })
	series := testutil.NewReturnSeries(t, testutil.Alternating(60, 1))

	result, err := e.ComputeVaR(context.Background(), series, domain.VaRMonteCarlo, 99, 1)
	require.NoError(t, err)
	assert.Greater(t, result.Value, 0.0)
	assert.GreaterOrEqual(t, result.CVaR, result.Value)
}

func TestMonteCarloCancellation(t *testing.T) {
	e := newTestEngine(t, func(c *Config) {
		c.Simulations = 100000
		c.BatchSize = 100
	})
	series := testutil.NewReturnSeries(t, testutil.Alternating(60, 1))

	t.Run("already cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := e.ComputeVaR(ctx, series, domain.VaRMonteCarlo, 95, 1)
		assert.ErrorIs(t, err, domain.ErrCancelled)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, result)
	})

	t.Run("cancelled between batches", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		progress := domain.ProgressFunc(func(float64, string) { cancel() })
		result, err := e.ComputeVaR(ctx, series, domain.VaRMonteCarlo, 95, 1, WithProgress(progress))
		assert.ErrorIs(t, err, domain.ErrCancelled)
		assert.Nil(t, result)
	})
}

func TestSimulatePathCannotLoseMoreThanEverything(t *testing.T) {
	assert.Equal(t, -100.0, simulatePath(constantSampler(-250), 3))
	assert.InDelta(t, 21.0, simulatePath(constantSampler(10), 2), 1e-9)
}

type constantSampler float64

func (c constantSampler) Rand() float64            { return float64(c) }
func (c constantSampler) Quantile(float64) float64 { return float64(c) }
