package equation

import (
	"math"
	"strings"
)

var inf = math.Inf(1)

// fwhmGauss converts a squared FWHM ratio into the Gaussian exponent.
const fwhmGauss = 4 * math.Ln2

func pending(name string, lower, upper float64) Param {
	return Param{Name: name, Lower: lower, Upper: upper, Pending: true}
}

// Linear returns y = m*x + b. The guess extrapolates the line through the
// first two samples.
func Linear() Equation {
	return Equation{
		Name:    "linear",
		Formula: "m*x + b",
		Vars:    []string{"x"},
		Params:  []Param{pending("m", -inf, inf), pending("b", -inf, inf)},
		Fn: func(p, x []float64) float64 {
			return p[0]*x[0] + p[1]
		},
		Partials: map[string]PartialFunc{
			"m": func(_, x []float64) float64 { return x[0] },
			"b": func(_, _ []float64) float64 { return 1 },
		},
		Guesser: func(params []Param, xs [][]float64, ys []float64) []Param {
			m := initialSlope(xs, ys)
			params[0].Start = m
			if len(ys) > 0 {
				params[1].Start = ys[0] - m*xs[0][0]
			}
			return params
		},
	}
}

// ExpDecay returns y = A*exp(-R*x) + C, as used for relaxation curves.
func ExpDecay() Equation {
	return Equation{
		Name:    "expdecay",
		Formula: "A*exp(-R*x) + C",
		Vars:    []string{"x"},
		Params: []Param{
			pending("A", -inf, inf),
			pending("R", 0, inf),
			pending("C", -inf, inf),
		},
		Fn: func(p, x []float64) float64 {
			return p[0]*math.Exp(-p[1]*x[0]) + p[2]
		},
		Partials: map[string]PartialFunc{
			"A": func(p, x []float64) float64 { return math.Exp(-p[1] * x[0]) },
			"R": func(p, x []float64) float64 { return -p[0] * x[0] * math.Exp(-p[1]*x[0]) },
			"C": func(_, _ []float64) float64 { return 1 },
		},
		Guesser: func(params []Param, xs [][]float64, ys []float64) []Param {
			if len(ys) == 0 {
				return params
			}
			lo, hi := xRange(xs)
			c := ys[len(ys)-1]
			a := ys[0] - c
			r := 1.0
			if hi > lo {
				r = 1 / (hi - lo)
			}
			if len(ys) > 1 {
				dx := xs[1][0] - xs[0][0]
				ratio := (ys[1] - c) / (ys[0] - c)
				if dx != 0 && ratio > 0 && ratio < 1 {
					r = -math.Log(ratio) / dx
				}
			}
			params[0].Start, params[1].Start, params[2].Start = a, r, c
			return params
		},
	}
}

// XExp returns y = a*x*exp(-b*x). The guess takes a from the initial
// slope and b from the position of the maximum, where x = 1/b.
func XExp() Equation {
	return Equation{
		Name:    "xexp",
		Formula: "a*x*exp(-b*x)",
		Vars:    []string{"x"},
		Params:  []Param{pending("a", -inf, inf), pending("b", 0, inf)},
		Fn: func(p, x []float64) float64 {
			return p[0] * x[0] * math.Exp(-p[1]*x[0])
		},
		Partials: map[string]PartialFunc{
			"a": func(p, x []float64) float64 { return x[0] * math.Exp(-p[1]*x[0]) },
			"b": func(p, x []float64) float64 { return -p[0] * x[0] * x[0] * math.Exp(-p[1]*x[0]) },
		},
		Guesser: func(params []Param, xs [][]float64, ys []float64) []Param {
			params[0].Start = initialSlope(xs, ys)
			params[1].Start = 1
			if i := argMaxAbs(ys); i >= 0 && xs[i][0] > 0 {
				params[1].Start = 1 / xs[i][0]
			}
			return params
		},
	}
}

// Lorentzian returns a Lorentzian line with amplitude A, center x0 and
// full width at half maximum w.
func Lorentzian() Equation {
	return Equation{
		Name:    "lorentzian",
		Formula: "A / (1 + (2*(x-x0)/w)^2)",
		Vars:    []string{"x"},
		Params: []Param{
			pending("A", -inf, inf),
			pending("x0", -inf, inf),
			pending("w", 0, inf),
		},
		Fn: func(p, x []float64) float64 {
			u := 2 * (x[0] - p[1]) / p[2]
			return p[0] / (1 + u*u)
		},
		Partials: map[string]PartialFunc{
			"A": func(p, x []float64) float64 {
				u := 2 * (x[0] - p[1]) / p[2]
				return 1 / (1 + u*u)
			},
			"x0": func(p, x []float64) float64 {
				u := 2 * (x[0] - p[1]) / p[2]
				d := 1 + u*u
				return p[0] * 4 * u / (p[2] * d * d)
			},
			"w": func(p, x []float64) float64 {
				u := 2 * (x[0] - p[1]) / p[2]
				d := 1 + u*u
				return p[0] * 2 * u * u / (p[2] * d * d)
			},
		},
		Guesser: lineGuess,
	}
}

// Gaussian returns a Gaussian line with amplitude A, center x0 and full
// width at half maximum w.
func Gaussian() Equation {
	return Equation{
		Name:    "gaussian",
		Formula: "A * exp(-4*ln2*((x-x0)/w)^2)",
		Vars:    []string{"x"},
		Params: []Param{
			pending("A", -inf, inf),
			pending("x0", -inf, inf),
			pending("w", 0, inf),
		},
		Fn: func(p, x []float64) float64 {
			u := (x[0] - p[1]) / p[2]
			return p[0] * math.Exp(-fwhmGauss*u*u)
		},
		Partials: map[string]PartialFunc{
			"A": func(p, x []float64) float64 {
				u := (x[0] - p[1]) / p[2]
				return math.Exp(-fwhmGauss * u * u)
			},
			"x0": func(p, x []float64) float64 {
				u := (x[0] - p[1]) / p[2]
				return p[0] * math.Exp(-fwhmGauss*u*u) * 2 * fwhmGauss * u / p[2]
			},
			"w": func(p, x []float64) float64 {
				u := (x[0] - p[1]) / p[2]
				return p[0] * math.Exp(-fwhmGauss*u*u) * 2 * fwhmGauss * u * u / p[2]
			},
		},
		Guesser: lineGuess,
	}
}

// lineGuess places a line at the largest sample with a width taken from
// the half-maximum crossings.
func lineGuess(params []Param, xs [][]float64, ys []float64) []Param {
	i := argMaxAbs(ys)
	if i < 0 {
		return params
	}
	peak := ys[i]
	lo, hi := i, i
	for lo > 0 && math.Abs(ys[lo-1]) > math.Abs(peak)/2 {
		lo--
	}
	for hi < len(ys)-1 && math.Abs(ys[hi+1]) > math.Abs(peak)/2 {
		hi++
	}
	w := math.Abs(xs[hi][0] - xs[lo][0])
	if w == 0 {
		l, h := xRange(xs)
		w = (h - l) / 10
		if w == 0 {
			w = 1
		}
	}
	params[0].Start = peak
	params[1].Start = xs[i][0]
	params[2].Start = w
	return params
}

func initialSlope(xs [][]float64, ys []float64) float64 {
	if len(ys) < 2 {
		return 0
	}
	dx := xs[1][0] - xs[0][0]
	if dx == 0 {
		return 0
	}
	return (ys[1] - ys[0]) / dx
}

func argMaxAbs(ys []float64) int {
	best := -1
	for i, y := range ys {
		if best < 0 || math.Abs(y) > math.Abs(ys[best]) {
			best = i
		}
	}
	return best
}

func xRange(xs [][]float64) (lo, hi float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	lo, hi = xs[0][0], xs[0][0]
	for _, x := range xs[1:] {
		lo = min(lo, x[0])
		hi = max(hi, x[0])
	}
	return lo, hi
}

var builtins = map[string]func() Equation{
	"linear":     Linear,
	"expdecay":   ExpDecay,
	"xexp":       XExp,
	"lorentzian": Lorentzian,
	"gaussian":   Gaussian,
}

// Lookup returns the built-in equation with the given case-insensitive
// name.
func Lookup(name string) (Equation, bool) {
	ctor, ok := builtins[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Equation{}, false
	}
	return ctor(), true
}

// Names returns the built-in equation names in sorted order.
func Names() []string {
	return []string{"expdecay", "gaussian", "linear", "lorentzian", "xexp"}
}
