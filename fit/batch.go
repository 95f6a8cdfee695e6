package fit

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-nmr/fit/equation"
)

// BatchResult reports a batch of fits. Results and Errors are indexed like
// the input; a failed item has a nil result and, for invalid input, a
// non-nil error.
type BatchResult struct {
	Results   []*Result
	Errors    []error
	Succeeded int
	Failed    int
}

// Batch fits eq to every data set. A failing item does not stop the
// others. The returned error is only set when ctx is canceled.
func (f *Fitter) Batch(ctx context.Context, eq equation.Equation, sets []Data) (BatchResult, error) {
	br := BatchResult{
		Results: make([]*Result, len(sets)),
		Errors:  make([]error, len(sets)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers())
	for i, data := range sets {
		g.Go(func() error {
			res, err := f.Fit(gctx, eq, data)
			if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
				return err
			}
			br.Results[i] = res
			br.Errors[i] = err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return br, err
	}

	for _, res := range br.Results {
		if res != nil {
			br.Succeeded++
		} else {
			br.Failed++
		}
	}
	return br, nil
}
