package fit

import (
	"context"
	"math"
	"math/rand/v2"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// bootstrapErrors refits f.bootstrap resamples starting from best and
// returns the per-parameter standard deviation across the resamples that
// converged, with their count.
//
// With per-sample errors a resample is the fitted curve plus Gaussian
// noise of that standard deviation. Without them the fit residuals are
// resampled with replacement. Resample k draws from a generator seeded by
// (seed, k), so results do not depend on scheduling.
func (f *Fitter) bootstrapErrors(ctx context.Context, prob *problem, best, errValues []float64) ([]float64, int, error) {
	m := len(best)
	out := make([]float64, m)
	for j := range out {
		out[j] = math.NaN()
	}
	if f.bootstrap == 0 {
		return out, 0, nil
	}

	n := len(prob.ys)
	fitted := prob.eq.Values(best, prob.xs)
	resid := make([]float64, n)
	for i := range n {
		resid[i] = prob.ys[i] - fitted[i]
	}

	samples := make([][]float64, f.bootstrap)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers())

	for k := range f.bootstrap {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(f.seed, uint64(k)))
			ys := make([]float64, n)
			for i := range n {
				if len(errValues) == n {
					ys[i] = fitted[i] + errValues[i]*rng.NormFloat64()
				} else {
					ys[i] = fitted[i] + resid[rng.IntN(n)]
				}
			}

			sol, err := prob.withY(ys).solve(gctx, best, f.iter)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				f.logger.Debug("bootstrap resample failed", zap.Int("resample", k), zap.Error(err))
				return nil
			}
			samples[k] = sol.params
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	ok := 0
	column := make([]float64, 0, f.bootstrap)
	for j := range m {
		column = column[:0]
		for _, s := range samples {
			if s != nil {
				column = append(column, s[j])
			}
		}
		ok = len(column)
		if ok >= 2 {
			out[j] = stat.StdDev(column, nil)
		}
	}
	return out, ok, nil
}
