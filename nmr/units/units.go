// Package units provides typed spectral coordinates and their conversion to
// and from raw point positions on a dim.Dimension.
//
// A coordinate token carries its unit as a trailing suffix:
//
//	"0.12s"  Time (seconds)
//	"4.7p"   PPM
//	"250h"   Frequency (Hz offset from the reference)
//	"0.25f"  Fraction of the axis size
//	"12.5"   Point (fractional point position)
//	"12"     Index (integer point)
//
// Suffixes are matched case-insensitively in the order s, p, h, f.
package units

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-nmr/nmr/dim"
)

// Kind identifies the physical unit of a Value.
type Kind int

const (
	Index Kind = iota
	Point
	PPM
	Frequency
	Time
	Fraction
)

var kindNames = [...]string{
	Index:     "index",
	Point:     "point",
	PPM:       "ppm",
	Frequency: "hz",
	Time:      "time",
	Fraction:  "fraction",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// KindFromName returns the Kind named by s (as printed by Kind.String).
func KindFromName(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	return 0, &ParseError{Token: s, Reason: "unknown unit"}
}

// suffixes in match priority order.
var suffixes = []struct {
	suffix byte
	kind   Kind
}{
	{'s', Time},
	{'p', PPM},
	{'h', Frequency},
	{'f', Fraction},
}

// ErrParse is matched by every *ParseError via errors.Is.
var ErrParse = errors.New("units: parse error")

// ParseError reports a malformed coordinate token.
type ParseError struct {
	Token  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("units: cannot parse %q: %s", e.Token, e.Reason)
}

// Is makes errors.Is(err, ErrParse) succeed.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// Value is a magnitude tagged with its unit. Index values use I, every
// other kind uses F.
type Value struct {
	Kind Kind
	F    float64
	I    int64
}

// Float returns the magnitude as a float64 regardless of kind.
func (v Value) Float() float64 {
	if v.Kind == Index {
		return float64(v.I)
	}
	return v.F
}

// String formats v so that Parse(v.String()) returns v.
func (v Value) String() string {
	f := strconv.FormatFloat(v.F, 'g', -1, 64)
	switch v.Kind {
	case Index:
		return strconv.FormatInt(v.I, 10)
	case Point:
		// Point tokens are recognized by their decimal point.
		p := strconv.FormatFloat(v.F, 'f', -1, 64)
		if !strings.Contains(p, ".") {
			p += ".0"
		}
		return p
	case PPM:
		return f + "p"
	case Frequency:
		return f + "h"
	case Time:
		return f + "s"
	case Fraction:
		return f + "f"
	default:
		return f
	}
}

// Parse converts a coordinate token into a Value.
func Parse(token string) (Value, error) {
	s := strings.TrimSpace(token)
	if s == "" {
		return Value{}, &ParseError{Token: token, Reason: "empty token"}
	}

	last := s[len(s)-1] | 0x20 // ASCII lower case
	for _, sf := range suffixes {
		if last != sf.suffix {
			continue
		}
		f, err := parseFloat(s[:len(s)-1])
		if err != nil {
			return Value{}, &ParseError{Token: token, Reason: err.Error()}
		}
		return Value{Kind: sf.kind, F: f}, nil
	}

	if strings.Contains(s, ".") {
		f, err := parseFloat(s)
		if err != nil {
			return Value{}, &ParseError{Token: token, Reason: err.Error()}
		}
		return Value{Kind: Point, F: f}, nil
	}

	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Value{}, &ParseError{Token: token, Reason: "not a number and no unit suffix"}
	}
	return Value{Kind: Index, I: i}, nil
}

// MustParse is like Parse but panics on error. Intended for constants.
func MustParse(token string) Value {
	v, err := Parse(token)
	if err != nil {
		panic(err)
	}
	return v
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, errors.New("missing magnitude")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New("invalid magnitude")
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.New("non-finite magnitude")
	}
	return f, nil
}

// ToPoint converts v to a fractional point position on d.
func ToPoint(v Value, d dim.Dimension) float64 {
	switch v.Kind {
	case Index:
		return float64(v.I)
	case Point:
		return v.F
	case PPM:
		return d.PPMToPoint(v.F)
	case Frequency:
		return d.HzToPoint(v.F)
	case Time:
		return d.TimeToPoint(v.F)
	case Fraction:
		return d.FractionToPoint(v.F)
	default:
		return math.NaN()
	}
}

// FromPoint expresses a fractional point position on d in the given kind.
// Index values are rounded half to even, matching dim.Dimension.RefToPt.
func FromPoint(kind Kind, point float64, d dim.Dimension) Value {
	switch kind {
	case Index:
		return Value{Kind: Index, I: int64(math.RoundToEven(point))}
	case Point:
		return Value{Kind: Point, F: point}
	case PPM:
		return Value{Kind: PPM, F: d.PointToPPM(point)}
	case Frequency:
		return Value{Kind: Frequency, F: d.PointToHz(point)}
	case Time:
		return Value{Kind: Time, F: d.PointToTime(point)}
	case Fraction:
		return Value{Kind: Fraction, F: d.PointToFraction(point)}
	default:
		return Value{Kind: kind, F: math.NaN()}
	}
}

// Convert re-expresses v in another kind on d.
func Convert(v Value, to Kind, d dim.Dimension) Value {
	if v.Kind == to {
		return v
	}
	return FromPoint(to, ToPoint(v, d), d)
}
