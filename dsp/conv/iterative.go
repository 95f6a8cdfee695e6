package conv

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-nmr/dsp/core"
)

// Iterative deconvolution errors.
var (
	ErrNilPSF            = errors.New("conv: nil PSF")
	ErrInvalidIterations = errors.New("conv: iteration count must be positive")
	ErrInvalidRelaxation = errors.New("conv: relaxation must be in (0, 2)")
	ErrInvalidBound      = errors.New("conv: Jansson bound must be positive and finite")
)

// DeconvIterOptions configures IterativeDeconvolve.
type DeconvIterOptions struct {
	// MaxIterations bounds the number of updates.
	MaxIterations int

	// Tolerance stops the iteration once the Euclidean norm of the
	// residual signal - psf*estimate falls below it. Zero runs all
	// iterations.
	Tolerance float64

	// NonNegative clamps negative estimate values to zero after every
	// update.
	NonNegative bool

	// Relaxation scales each correction. Zero selects 1.
	Relaxation float64

	// Jansson, when positive, enables Jansson's relaxation with the
	// estimate bounded to [0, Jansson]: corrections fade out towards
	// either bound.
	Jansson float64
}

// DefaultDeconvIterOptions returns 100 iterations, tolerance 1e-6,
// non-negativity and unit relaxation.
func DefaultDeconvIterOptions() DeconvIterOptions {
	cfg := core.ApplyIterationOptions(core.DefaultIterationConfig(), core.WithTolerance(1e-6))
	return DeconvIterOptions{
		MaxIterations: cfg.MaxIterations,
		Tolerance:     cfg.Tolerance,
		NonNegative:   true,
		Relaxation:    1,
	}
}

// IterativeDeconvolve estimates the spectrum that, convolved with psf,
// gives signal. Starting from initial (signal when nil) it repeats the
// Van Cittert update
//
//	f <- f + relaxation * (signal - psf*f)
//
// until MaxIterations or until the residual norm drops below Tolerance.
// It returns the estimate and the number of updates performed. The
// inputs are not modified.
//
// Convergence slows as the PSF widens. With the defaults (100 iterations,
// relaxation 1) isolated Gaussian lines are restored to within 1% of their
// height for a FWHM up to about 2.75 points; relaxation near 2 extends this
// to about 3 points. Wider lines need proportionally more iterations, about
// 1000 at 4 points.
func IterativeDeconvolve(signal, initial []float64, psf *PSF, opts DeconvIterOptions) ([]float64, int, error) {
	if len(signal) == 0 {
		return nil, 0, ErrEmptyInput
	}
	if psf == nil {
		return nil, 0, ErrNilPSF
	}
	if initial != nil && len(initial) != len(signal) {
		return nil, 0, fmt.Errorf("%w: initial estimate %d, signal %d", ErrLengthMismatch, len(initial), len(signal))
	}
	if opts.MaxIterations <= 0 {
		return nil, 0, fmt.Errorf("%w: %d", ErrInvalidIterations, opts.MaxIterations)
	}
	beta := opts.Relaxation
	if beta == 0 {
		beta = 1
	}
	if !(beta > 0 && beta < 2) {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidRelaxation, beta)
	}
	if opts.Jansson < 0 || math.IsInf(opts.Jansson, 0) || math.IsNaN(opts.Jansson) {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidBound, opts.Jansson)
	}

	n := len(signal)
	est := core.Clone(initial)
	if est == nil {
		est = core.Clone(signal)
	}
	project(est, opts)

	var (
		blurred = make([]float64, n)
		resid   = make([]float64, n)
		gain    = make([]float64, n)
		full    []float64
	)
	core.Fill(gain, beta)

	for iter := range opts.MaxIterations {
		full = psf.convolveTo(blurred, est, full)
		floats.SubTo(resid, signal, blurred)
		if opts.Tolerance > 0 && floats.Norm(resid, 2) < opts.Tolerance {
			return est, iter, nil
		}

		if opts.Jansson > 0 {
			janssonGain(gain, est, beta, opts.Jansson)
		}
		vecmath.MulBlockInPlace(resid, gain)
		floats.Add(est, resid)
		project(est, opts)
	}
	return est, opts.MaxIterations, nil
}

// janssonGain sets gain[i] = beta * (1 - |2*f[i] - upper| / upper), which
// is beta at upper/2 and zero at 0 and upper.
func janssonGain(gain, est []float64, beta, upper float64) {
	for i, v := range est {
		gain[i] = beta * (1 - math.Abs(2*v-upper)/upper)
	}
}

func project(est []float64, opts DeconvIterOptions) {
	switch {
	case opts.Jansson > 0:
		for i, v := range est {
			est[i] = core.Clamp(v, 0, opts.Jansson)
		}
	case opts.NonNegative:
		for i, v := range est {
			est[i] = max(v, 0)
		}
	}
}
