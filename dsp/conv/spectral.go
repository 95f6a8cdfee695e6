package conv

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-nmr/dsp/core"
)

// Spectral deconvolution errors.
var (
	ErrInvalidEpsilon = errors.New("conv: epsilon must be positive")
)

// SpectralMethod selects the frequency-domain inverse.
type SpectralMethod int

const (
	// SpectralRegularized divides by |H|^2 + Epsilon:
	// X = Y * conj(H) / (|H|^2 + Epsilon).
	SpectralRegularized SpectralMethod = iota

	// SpectralWiener replaces Epsilon by the noise-to-signal power ratio.
	SpectralWiener
)

func (m SpectralMethod) String() string {
	switch m {
	case SpectralRegularized:
		return "regularized"
	case SpectralWiener:
		return "wiener"
	default:
		return fmt.Sprintf("SpectralMethod(%d)", int(m))
	}
}

// SpectralOptions configures SpectralDeconvolve.
type SpectralOptions struct {
	Method SpectralMethod

	// Epsilon regularizes SpectralRegularized. Typical values range from
	// 1e-6 to 1e-3 depending on the signal-to-noise ratio.
	Epsilon float64

	// NoiseVariance and SignalVariance set the Wiener noise-to-signal
	// ratio. A zero SignalVariance is estimated from the signal and a
	// zero NoiseVariance is taken as 1% of it.
	NoiseVariance  float64
	SignalVariance float64
}

// DefaultSpectralOptions returns regularized division with Epsilon 1e-6.
func DefaultSpectralOptions() SpectralOptions {
	return SpectralOptions{Method: SpectralRegularized, Epsilon: 1e-6}
}

// SpectralDeconvolve inverts psf in the frequency domain. The result has
// the length of signal and is aligned with it like PSF.Convolve.
func SpectralDeconvolve(signal []float64, psf *PSF, opts SpectralOptions) ([]float64, error) {
	if len(signal) == 0 {
		return nil, ErrEmptyInput
	}
	if psf == nil {
		return nil, ErrNilPSF
	}

	var reg float64
	switch opts.Method {
	case SpectralWiener:
		signalVar := opts.SignalVariance
		if signalVar <= 0 {
			signalVar = stat.PopVariance(signal, nil)
		}
		noiseVar := opts.NoiseVariance
		if noiseVar <= 0 {
			noiseVar = 0.01 * signalVar
		}
		reg = 1e-6
		if signalVar > 0 {
			reg = noiseVar / signalVar
		}
	default:
		if opts.Epsilon < 0 || math.IsNaN(opts.Epsilon) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEpsilon, opts.Epsilon)
		}
		reg = opts.Epsilon
		if reg == 0 {
			reg = 1e-6
		}
	}

	n := len(signal)
	fftSize := nextPowerOf2(n + psf.Size() - 1)
	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("conv: failed to create FFT plan: %w", err)
	}

	sig := make([]complex128, fftSize)
	for i, v := range signal {
		sig[i] = complex(v, 0)
	}

	// The kernel is wrapped so that its center sits at index 0, which
	// keeps lines in place.
	ker := make([]complex128, fftSize)
	for i, v := range psf.kernel {
		ker[(i-psf.center+fftSize)%fftSize] += complex(v, 0)
	}

	if err := plan.Forward(sig, sig); err != nil {
		return nil, err
	}
	if err := plan.Forward(ker, ker); err != nil {
		return nil, err
	}

	re := make([]float64, fftSize)
	im := make([]float64, fftSize)
	for i, h := range ker {
		re[i], im[i] = real(h), imag(h)
	}
	power := make([]float64, fftSize)
	vecmath.Power(power, re, im)

	for i := range sig {
		conj := complex(re[i], -im[i])
		sig[i] = sig[i] * conj / complex(power[i]+reg, 0)
	}
	if err := plan.Inverse(sig, sig); err != nil {
		return nil, err
	}

	out := make([]float64, n)
	for i := range out {
		out[i] = core.FlushDenormals(real(sig[i]))
	}
	return out, nil
}

// SNR returns the signal-to-noise ratio in dB of recovered against
// original: 10*log10(sum(original^2) / sum((original-recovered)^2)).
// It is +Inf for a perfect recovery and -Inf for mismatched inputs.
func SNR(original, recovered []float64) float64 {
	if len(original) != len(recovered) || len(original) == 0 {
		return math.Inf(-1)
	}

	var signalPower, noisePower float64
	for i := range original {
		signalPower += original[i] * original[i]
		noise := original[i] - recovered[i]
		noisePower += noise * noise
	}
	if noisePower == 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(signalPower/noisePower)
}
