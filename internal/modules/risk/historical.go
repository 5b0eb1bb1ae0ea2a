package risk

import (
	"context"
	"math"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/pkg/formulas"
)

const cancelCheckEvery = 64

// historical reads VaR straight off the empirical return distribution.
type historical struct{}

func (historical) method() domain.VaRMethod { return domain.VaRHistorical }

func (historical) minObservations(confidence float64) int {
	return minHistoricalObservations(confidence)
}

func (historical) estimate(_ context.Context, req request) (tailEstimate, error) {
	p := tailProbability(req.confidence)
	q, err := formulas.TailQuantile(req.returns, p)
	if err != nil {
		return tailEstimate{}, err
	}
	es, err := formulas.ExpectedShortfall(req.returns, p)
	if err != nil {
		return tailEstimate{}, err
	}
	scale := horizonScale(req.horizon)
	req.progress.ReportProgress(100, "historical estimate complete")
	return tailEstimate{
		VaR:  math.Max(0, -q) * scale,
		CVaR: math.Max(0, -es) * scale,
	}, nil
}

func (historical) rolling(ctx context.Context, returns []float64, confidence float64, window int) ([]float64, error) {
	p := tailProbability(confidence)
	out := make([]float64, len(returns)-window+1)
	for k := range out {
		if k%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, domain.Cancelled(err)
			}
		}
		q, err := formulas.TailQuantile(returns[k:k+window], p)
		if err != nil {
			return nil, err
		}
		out[k] = math.Max(0, -q)
	}
	return out, nil
}
