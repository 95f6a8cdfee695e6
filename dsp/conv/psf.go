package conv

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-nmr/dsp/core"
)

// PSF errors.
var (
	ErrInvalidPSFSize  = errors.New("conv: PSF size must be positive")
	ErrInvalidPSFWidth = errors.New("conv: PSF width must be positive and finite")
	ErrInvalidPSFShape = errors.New("conv: PSF shape must be in [0, 1]")
)

// PSF is a point-spread function: a pseudo-Voigt line shape sampled on
// size points around the center index size/2 and normalized to unit sum.
type PSF struct {
	kernel []float64
	center int
	width  float64
	shape  float64
}

// NewPSF builds a PSF of size points with full width at half maximum
// width (in points). shape mixes the line shapes: 0 is a pure Gaussian,
// 1 a pure Lorentzian and values in between a linear blend.
func NewPSF(size int, width, shape float64) (*PSF, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPSFSize, size)
	}
	if !(width > 0) || math.IsInf(width, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPSFWidth, width)
	}
	if !(shape >= 0 && shape <= 1) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPSFShape, shape)
	}

	p := &PSF{
		kernel: make([]float64, size),
		center: size / 2,
		width:  width,
		shape:  shape,
	}

	sum := 0.0
	for i := range size {
		u := 2 * float64(i-p.center) / width
		g := math.Exp(-math.Ln2 * u * u)
		l := 1 / (1 + u*u)
		p.kernel[i] = (1-shape)*g + shape*l
		sum += p.kernel[i]
	}
	for i := range p.kernel {
		p.kernel[i] /= sum
	}

	return p, nil
}

// Kernel returns a copy of the sampled line shape.
func (p *PSF) Kernel() []float64 { return core.Clone(p.kernel) }

// Size returns the number of kernel points.
func (p *PSF) Size() int { return len(p.kernel) }

// Center returns the index of the line center within the kernel.
func (p *PSF) Center() int { return p.center }

// Width returns the full width at half maximum in points.
func (p *PSF) Width() float64 { return p.width }

// Shape returns the Lorentzian fraction.
func (p *PSF) Shape() float64 { return p.shape }

// Max returns the kernel peak, which is the response of Convolve to a
// unit impulse away from the edges.
func (p *PSF) Max() float64 { return p.kernel[p.center] }

// Convolve returns signal convolved with the PSF, aligned so that a line
// keeps its position and with the same length as signal. Energy leaving
// through either edge is dropped.
func (p *PSF) Convolve(signal []float64) []float64 {
	out := make([]float64, len(signal))
	if len(signal) == 0 {
		return out
	}
	p.convolveTo(out, signal, nil)
	return out
}

// convolveTo writes the same-length convolution of signal into dst and
// returns the full-length scratch buffer for reuse.
func (p *PSF) convolveTo(dst, signal, full []float64) []float64 {
	n := len(signal)
	if len(p.kernel) > directThreshold {
		if res, err := OverlapAddConvolve(signal, p.kernel); err == nil {
			copy(dst, res[p.center:p.center+n])
			return full
		}
	}

	full = core.EnsureLen(full, n+len(p.kernel)-1)
	DirectTo(full, signal, p.kernel)
	copy(dst, full[p.center:p.center+n])
	return full
}
