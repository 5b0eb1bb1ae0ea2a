package risk

import (
	"context"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/pkg/formulas"
)

// parametric is the variance-covariance method: VaR = z * sigma_annual * sqrt(h / tradingDays).
type parametric struct {
	tradingDays int
}

func (parametric) method() domain.VaRMethod { return domain.VaRParametric }

// A single observation has no dispersion to speak of.
func (parametric) minObservations(float64) int { return 2 }

func (p parametric) estimate(_ context.Context, req request) (tailEstimate, error) {
	z, err := ZScore(req.confidence)
	if err != nil {
		return tailEstimate{}, err
	}
	vol, err := formulas.AnnualizedVolatilityFor(req.returns, p.tradingDays)
	if err != nil {
		return tailEstimate{}, err
	}
	sigma := vol * math.Sqrt(float64(req.horizon)/float64(p.tradingDays))
	req.progress.ReportProgress(100, "parametric estimate complete")
	return tailEstimate{
		VaR:  z * sigma,
		CVaR: sigma * normalTailRatio(z, req.confidence),
	}, nil
}

func (p parametric) rolling(_ context.Context, returns []float64, confidence float64, window int) ([]float64, error) {
	z, err := ZScore(confidence)
	if err != nil {
		return nil, err
	}
	stds, err := formulas.RollingStdDev(returns, window)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(stds))
	for i, s := range stds {
		out[i] = z * s
	}
	return out, nil
}

// normalTailRatio is E[loss | loss > VaR] / sigma for a normal: phi(z) / (1 - c).
func normalTailRatio(z, confidence float64) float64 {
	return distuv.UnitNormal.Prob(z) / tailProbability(confidence)
}
