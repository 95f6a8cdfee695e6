package peak

import (
	"cmp"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Region is a closed interval per dimension, used to select and remove
// peaks.
//
// Regions compare by the start of their leading dimension only: two
// regions are Equal when their first-dimension starts match, regardless of
// ends or other dimensions. A region with an undefined start is never
// equal to any region, itself included. Processing code sorts and
// deduplicates regions by this rule.
type Region struct {
	bounds [][2]float64 // NaN marks an undefined bound
}

// NewRegion builds a region from start/end pairs, one pair per dimension.
// Each pair is normalized so that start <= end.
func NewRegion(bounds ...float64) (Region, error) {
	if len(bounds) == 0 || len(bounds)%2 != 0 {
		return Region{}, fmt.Errorf("%w: need start/end pairs, got %d values", ErrInvalidRegion, len(bounds))
	}

	r := Region{bounds: make([][2]float64, len(bounds)/2)}
	for i := range r.bounds {
		a, b := bounds[2*i], bounds[2*i+1]
		if math.IsNaN(a) || math.IsNaN(b) || math.IsInf(a, 0) || math.IsInf(b, 0) {
			return Region{}, fmt.Errorf("%w: non-finite bound in dimension %d", ErrInvalidRegion, i)
		}
		r.bounds[i] = [2]float64{min(a, b), max(a, b)}
	}
	return r, nil
}

// MustRegion is like NewRegion but panics on error.
func MustRegion(bounds ...float64) Region {
	r, err := NewRegion(bounds...)
	if err != nil {
		panic(err)
	}
	return r
}

// Undefined returns a region over nDim dimensions with all bounds unset.
func Undefined(nDim int) Region {
	r := Region{bounds: make([][2]float64, max(nDim, 1))}
	for i := range r.bounds {
		r.bounds[i] = [2]float64{math.NaN(), math.NaN()}
	}
	return r
}

// NDim returns the number of dimensions.
func (r Region) NDim() int { return len(r.bounds) }

// Start returns the lower bound of dimension i, NaN when undefined.
func (r Region) Start(i int) float64 {
	if i >= len(r.bounds) {
		return math.NaN()
	}
	return r.bounds[i][0]
}

// End returns the upper bound of dimension i, NaN when undefined.
func (r Region) End(i int) float64 {
	if i >= len(r.bounds) {
		return math.NaN()
	}
	return r.bounds[i][1]
}

// Defined reports whether every bound is set.
func (r Region) Defined() bool {
	if len(r.bounds) == 0 {
		return false
	}
	for _, b := range r.bounds {
		if math.IsNaN(b[0]) || math.IsNaN(b[1]) {
			return false
		}
	}
	return true
}

// Equal reports whether r and o share the same leading start.
func (r Region) Equal(o Region) bool {
	a, b := r.Start(0), o.Start(0)
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	return a == b
}

// Compare orders regions by leading start, placing undefined starts last.
// It is consistent with Equal for defined regions.
func Compare(a, b Region) int {
	x, y := a.Start(0), b.Start(0)
	switch {
	case math.IsNaN(x) && math.IsNaN(y):
		return 0
	case math.IsNaN(x):
		return 1
	case math.IsNaN(y):
		return -1
	}
	return cmp.Compare(x, y)
}

// Contains reports whether the point lies inside r in every dimension
// both share.
func (r Region) Contains(pos ...float64) bool {
	n := min(len(pos), len(r.bounds))
	if n == 0 {
		return false
	}
	for i := range n {
		if !(pos[i] >= r.bounds[i][0] && pos[i] <= r.bounds[i][1]) {
			return false
		}
	}
	return true
}

func (r Region) containsPeak(p *Peak) bool {
	n := min(p.NDim(), len(r.bounds))
	pos := make([]float64, n)
	p.mu.RLock()
	for i := range n {
		pos[i] = p.dims[i].chemShift
	}
	p.mu.RUnlock()
	return r.Contains(pos...)
}

// String implements fmt.Stringer.
func (r Region) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, b := range r.bounds {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.FormatFloat(b[0], 'g', -1, 64))
		sb.WriteByte(':')
		sb.WriteString(strconv.FormatFloat(b[1], 'g', -1, 64))
	}
	sb.WriteByte(']')
	return sb.String()
}
