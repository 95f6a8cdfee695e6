// Package equation describes fit models as data values: a value function,
// a table of optional analytic partial derivatives and a guesser for
// starting parameters.
package equation

import (
	"math"
	"slices"
)

// Func evaluates a model at one point x for the given parameters.
type Func func(params, x []float64) float64

// PartialFunc evaluates the derivative of a model with respect to one
// parameter at one point.
type PartialFunc func(params, x []float64) float64

// Guesser fills in Start, Lower and Upper of the pending parameters from
// the data. It receives a copy of the parameter list and returns it.
// xs[i] holds the variable values of sample i.
type Guesser func(params []Param, xs [][]float64, ys []float64) []Param

// Param is one model parameter with its starting value and box bounds.
type Param struct {
	Name  string
	Start float64
	Lower float64
	Upper float64

	// Pending marks a parameter whose starting value comes from the
	// Guesser instead of Start.
	Pending bool
}

// Equation is a fit model.
type Equation struct {
	Name string
	// Formula is a human-readable rendering for display only.
	Formula string
	Vars    []string
	Params  []Param
	Fn      Func

	// Partials maps parameter names to analytic derivatives. Parameters
	// without an entry are differentiated numerically by the fitter.
	Partials map[string]PartialFunc
	Guesser  Guesser
}

// VariableCount returns the number of independent variables.
func (e Equation) VariableCount() int { return len(e.Vars) }

// ParameterCount returns the number of parameters.
func (e Equation) ParameterCount() int { return len(e.Params) }

// ParamNames returns the parameter names in order.
func (e Equation) ParamNames() []string {
	names := make([]string, len(e.Params))
	for i, p := range e.Params {
		names[i] = p.Name
	}
	return names
}

// ParamIndex returns the position of the named parameter or -1.
func (e Equation) ParamIndex(name string) int {
	return slices.IndexFunc(e.Params, func(p Param) bool { return p.Name == name })
}

// Value evaluates the model at a single point.
func (e Equation) Value(params, x []float64) float64 {
	return e.Fn(params, x)
}

// Values evaluates the model at every point of xs.
func (e Equation) Values(params []float64, xs [][]float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = e.Fn(params, x)
	}
	return out
}

// Partial returns the analytic derivative with respect to the named
// parameter. ok is false when the equation has none.
func (e Equation) Partial(name string, params, x []float64) (v float64, ok bool) {
	fn, ok := e.Partials[name]
	if !ok || fn == nil {
		return 0, false
	}
	return fn(params, x), true
}

// HasPartial reports whether an analytic derivative exists for name.
func (e Equation) HasPartial(name string) bool {
	fn, ok := e.Partials[name]
	return ok && fn != nil
}

// Guess returns the starting parameters for fitting xs, ys. Pending
// parameters are resolved through the Guesser, or keep their Start when
// there is none. Every returned Start lies within its bounds and no
// parameter is pending.
func (e Equation) Guess(xs [][]float64, ys []float64) []Param {
	params := slices.Clone(e.Params)
	if e.Guesser != nil && slices.ContainsFunc(params, func(p Param) bool { return p.Pending }) {
		guessed := e.Guesser(slices.Clone(params), xs, ys)
		if len(guessed) == len(params) {
			for i := range params {
				if params[i].Pending {
					params[i] = guessed[i]
				}
			}
		}
	}

	for i := range params {
		p := &params[i]
		p.Pending = false
		if math.IsNaN(p.Lower) {
			p.Lower = math.Inf(-1)
		}
		if math.IsNaN(p.Upper) {
			p.Upper = math.Inf(1)
		}
		if p.Lower > p.Upper {
			p.Lower, p.Upper = p.Upper, p.Lower
		}
		if math.IsNaN(p.Start) || math.IsInf(p.Start, 0) {
			p.Start = 0
		}
		p.Start = min(max(p.Start, p.Lower), p.Upper)
	}
	return params
}

// WithParams returns a copy whose parameters start at values and are no
// longer pending. Extra values are ignored.
func (e Equation) WithParams(values []float64) Equation {
	out := e
	out.Params = slices.Clone(e.Params)
	for i := range out.Params {
		if i >= len(values) {
			break
		}
		out.Params[i].Start = values[i]
		out.Params[i].Pending = false
	}
	return out
}

// Starts extracts the Start values of params.
func Starts(params []Param) []float64 {
	out := make([]float64, len(params))
	for i, p := range params {
		out[i] = p.Start
	}
	return out
}

// Bounds extracts the lower and upper bounds of params.
func Bounds(params []Param) (lower, upper []float64) {
	lower = make([]float64, len(params))
	upper = make([]float64, len(params))
	for i, p := range params {
		lower[i] = p.Lower
		upper[i] = p.Upper
	}
	return lower, upper
}
