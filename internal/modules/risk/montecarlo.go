package risk

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/pkg/formulas"
)

// pcgStream is the fixed second PCG word; the configured seed supplies the first.
const pcgStream = 0x9e3779b97f4a7c15

// sampler is the part of a gonum distribution the simulation needs.
type sampler interface {
	Rand() float64
	Quantile(p float64) float64
}

// monteCarlo fits a distribution to the sample mean and variance, simulates compounded
// holding-period paths and reads VaR off the simulated tail.
type monteCarlo struct {
	simulations int
	batchSize   int
	seed        uint64
	dof         float64
	now         func() time.Time
}

func (monteCarlo) method() domain.VaRMethod { return domain.VaRMonteCarlo }

func (monteCarlo) minObservations(float64) int { return 2 }

func (m monteCarlo) estimate(ctx context.Context, req request) (tailEstimate, error) {
	mu, err := formulas.Mean(req.returns)
	if err != nil {
		return tailEstimate{}, err
	}
	sigma, err := formulas.StdDev(req.returns)
	if err != nil {
		return tailEstimate{}, err
	}
	dist := m.distribution(mu, sigma, m.source())

	paths := make([]float64, m.simulations)
	for start := 0; start < m.simulations; start += m.batchSize {
		if err := ctx.Err(); err != nil {
			return tailEstimate{}, domain.Cancelled(err)
		}
		end := min(start+m.batchSize, m.simulations)
		for i := start; i < end; i++ {
			paths[i] = simulatePath(dist, req.horizon)
		}
		req.progress.ReportProgress(
			float64(end)/float64(m.simulations)*100,
			fmt.Sprintf("simulated %d of %d paths", end, m.simulations),
		)
	}

	p := tailProbability(req.confidence)
	q, err := formulas.TailQuantile(paths, p)
	if err != nil {
		return tailEstimate{}, err
	}
	es, err := formulas.ExpectedShortfall(paths, p)
	if err != nil {
		return tailEstimate{}, err
	}
	return tailEstimate{VaR: math.Max(0, -q), CVaR: math.Max(0, -es)}, nil
}

// rolling uses the fitted distribution's analytic quantile per window instead of
// re-simulating every day.
func (m monteCarlo) rolling(_ context.Context, returns []float64, confidence float64, window int) ([]float64, error) {
	means, err := formulas.RollingMean(returns, window)
	if err != nil {
		return nil, err
	}
	stds, err := formulas.RollingStdDev(returns, window)
	if err != nil {
		return nil, err
	}
	p := tailProbability(confidence)
	out := make([]float64, len(stds))
	for i := range stds {
		out[i] = math.Max(0, -m.distribution(means[i], stds[i], nil).Quantile(p))
	}
	return out, nil
}

// distribution returns a normal, or a Student-t scaled to the same variance when fat
// tails are configured.
func (m monteCarlo) distribution(mu, sigma float64, src rand.Source) sampler {
	if m.dof > 2 {
		return distuv.StudentsT{
			Mu:    mu,
			Sigma: sigma * math.Sqrt((m.dof-2)/m.dof),
			Nu:    m.dof,
			Src:   src,
		}
	}
	return distuv.Normal{Mu: mu, Sigma: sigma, Src: src}
}

func (m monteCarlo) source() rand.Source {
	seed := m.seed
	if seed == 0 {
		seed = uint64(m.now().UnixNano())
	}
	return rand.NewPCG(seed, pcgStream)
}

// simulatePath compounds horizon daily draws and returns the path return in percent.
// A day cannot lose more than everything.
func simulatePath(dist sampler, horizon int) float64 {
	growth := 1.0
	for d := 0; d < horizon; d++ {
		growth *= math.Max(0, 1+dist.Rand()/100)
	}
	return (growth - 1) * 100
}
