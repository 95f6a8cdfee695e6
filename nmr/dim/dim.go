package dim

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidDimension is returned for dimensions whose parameters cannot
// describe a spectral axis.
var ErrInvalidDimension = errors.New("dim: invalid dimension")

// Dimension describes one spectral axis.
type Dimension struct {
	Label   string  // axis label, e.g. "H1"
	Nucleus string  // observed nucleus, e.g. "1H"
	SF      float64 // spectrometer frequency in MHz
	SW      float64 // sweep width in Hz
	Ref     float64 // PPM at point Size/2
	Size    int     // number of points
}

// New returns a validated Dimension.
func New(sf, sw, ref float64, size int) (Dimension, error) {
	d := Dimension{SF: sf, SW: sw, Ref: ref, Size: size}
	if err := d.Validate(); err != nil {
		return Dimension{}, err
	}
	return d, nil
}

// Default returns a 1H dimension of 1024 points at 600 MHz spanning 12 PPM
// centered on 4.7 PPM.
func Default() Dimension {
	return Dimension{
		Label:   "H1",
		Nucleus: "1H",
		SF:      600,
		SW:      7200,
		Ref:     4.7,
		Size:    1024,
	}
}

// Validate checks that the dimension parameters are usable for conversion.
func (d Dimension) Validate() error {
	switch {
	case !(d.SF > 0) || math.IsInf(d.SF, 0):
		return fmt.Errorf("%w: spectrometer frequency %v", ErrInvalidDimension, d.SF)
	case !(d.SW > 0) || math.IsInf(d.SW, 0):
		return fmt.Errorf("%w: sweep width %v", ErrInvalidDimension, d.SW)
	case math.IsNaN(d.Ref) || math.IsInf(d.Ref, 0):
		return fmt.Errorf("%w: reference %v", ErrInvalidDimension, d.Ref)
	case d.Size <= 0:
		return fmt.Errorf("%w: size %d", ErrInvalidDimension, d.Size)
	}
	return nil
}

// SWPPM returns the sweep width in PPM.
func (d Dimension) SWPPM() float64 {
	return d.SW / d.SF
}

// PPMPerPoint returns the PPM spacing between adjacent points.
func (d Dimension) PPMPerPoint() float64 {
	return d.SWPPM() / float64(d.Size)
}

// PointToPPM converts a fractional point position to PPM.
func (d Dimension) PointToPPM(point float64) float64 {
	swp := d.SWPPM()
	return d.Ref + swp/2 - point*swp/float64(d.Size)
}

// PPMToPoint converts PPM to a fractional point position. It is the exact
// algebraic inverse of PointToPPM.
func (d Dimension) PPMToPoint(ppm float64) float64 {
	swp := d.SWPPM()
	return (d.Ref + swp/2 - ppm) * float64(d.Size) / swp
}

// RefToPtD is the exact fractional point for a PPM value.
func (d Dimension) RefToPtD(ppm float64) float64 {
	return d.PPMToPoint(ppm)
}

// RefToPt returns the nearest integer point for a PPM value. Ties round
// half to even. The result is not clamped to the axis; see ClampPoint.
func (d Dimension) RefToPt(ppm float64) int {
	return int(math.RoundToEven(d.PPMToPoint(ppm)))
}

// ClampPoint limits an integer point to [0, Size-1].
func (d Dimension) ClampPoint(pt int) int {
	if pt < 0 {
		return 0
	}
	if pt >= d.Size {
		return d.Size - 1
	}
	return pt
}

// PPMRange returns the PPM values at the first and last point of the axis.
func (d Dimension) PPMRange() (first, last float64) {
	return d.PointToPPM(0), d.PointToPPM(float64(d.Size - 1))
}

// PointToHz converts a point to a frequency offset in Hz from the
// reference frequency.
func (d Dimension) PointToHz(point float64) float64 {
	return (d.PointToPPM(point) - d.Ref) * d.SF
}

// HzToPoint converts a frequency offset from the reference to a point.
func (d Dimension) HzToPoint(hz float64) float64 {
	return d.PPMToPoint(d.Ref + hz/d.SF)
}

// PointToTime converts a point to acquisition time in seconds, with a dwell
// time of 1/SW.
func (d Dimension) PointToTime(point float64) float64 {
	return point / d.SW
}

// TimeToPoint converts acquisition time in seconds to a point.
func (d Dimension) TimeToPoint(t float64) float64 {
	return t * d.SW
}

// PointToFraction converts a point to its fraction of the axis size.
func (d Dimension) PointToFraction(point float64) float64 {
	return point / float64(d.Size)
}

// FractionToPoint converts a fraction of the axis size to a point.
func (d Dimension) FractionToPoint(f float64) float64 {
	return f * float64(d.Size)
}

// PPMWidthToHz converts a width in PPM to Hz.
func (d Dimension) PPMWidthToHz(w float64) float64 {
	return w * d.SF
}

// HzWidthToPPM converts a width in Hz to PPM.
func (d Dimension) HzWidthToPPM(w float64) float64 {
	return w / d.SF
}

// PPMWidthToPoints converts a width in PPM to points.
func (d Dimension) PPMWidthToPoints(w float64) float64 {
	return w / d.PPMPerPoint()
}

// String implements fmt.Stringer.
func (d Dimension) String() string {
	return fmt.Sprintf("%s sf=%.4f sw=%.2f ref=%.4f size=%d", d.Label, d.SF, d.SW, d.Ref, d.Size)
}
