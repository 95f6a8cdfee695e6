// Package conv convolves spectra with line-shape point-spread functions
// and recovers the underlying lines by deconvolution.
//
// A [PSF] is a unit-area pseudo-Voigt line shape sampled on a centered
// grid. [PSF.Convolve] broadens a spectrum without changing its length or
// its integral (as long as the signal does not reach the edges):
//
//	psf, err := conv.NewPSF(15, 2, 0) // 15 points, FWHM 2 points, Gaussian
//	broadened := psf.Convolve(spectrum)
//
// [IterativeDeconvolve] inverts the broadening with a Van Cittert
// fixed-point iteration, optionally projected onto non-negative values
// and optionally with Jansson's bounded relaxation:
//
//	opts := conv.DefaultDeconvIterOptions()
//	est, iters, err := conv.IterativeDeconvolve(broadened, nil, psf, opts)
//
// [SpectralDeconvolve] performs a one-shot regularized or Wiener division
// in the frequency domain and is a good initial estimate for the
// iteration.
//
// # Algorithm Selection
//
// [Convolve] uses direct convolution for kernels up to 64 points and
// FFT-based overlap-add above that.
package conv
