package fit

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-nmr/dsp/core"
	"github.com/cwbudde/algo-nmr/fit/equation"
)

const (
	lambdaStart = 1e-3
	lambdaMin   = 1e-12
	lambdaMax   = 1e16

	// fdStep is the relative central-difference step.
	fdStep = 1e-7
)

// problem is one least-squares problem: residuals eq(x_i) - y_i over a
// parameter box.
type problem struct {
	eq           equation.Equation
	xs           [][]float64
	ys           []float64
	lower, upper []float64
}

type solution struct {
	params     []float64
	cost       float64 // sum of squared residuals
	iterations int
}

func (s solution) rms(n int) float64 {
	return math.Sqrt(s.cost / float64(n))
}

// withY returns a copy of p fitting ys instead.
func (p *problem) withY(ys []float64) *problem {
	q := *p
	q.ys = ys
	return &q
}

// residuals writes eq(x_i) - y_i into dst and returns the sum of squares.
func (p *problem) residuals(dst, params []float64) float64 {
	for i, x := range p.xs {
		dst[i] = p.eq.Fn(params, x) - p.ys[i]
	}
	return floats.Dot(dst, dst)
}

// jacobian fills jac (samples x params) with d eq(x_i) / d params_j.
func (p *problem) jacobian(jac *mat.Dense, params []float64) {
	names := p.eq.ParamNames()
	probe := make([]float64, len(params))
	for j, name := range names {
		if p.eq.HasPartial(name) {
			for i, x := range p.xs {
				v, _ := p.eq.Partial(name, params, x)
				jac.Set(i, j, v)
			}
			continue
		}

		h := fdStep * max(math.Abs(params[j]), 1)
		up := min(h, p.upper[j]-params[j])
		dn := min(h, params[j]-p.lower[j])
		if up+dn == 0 {
			for i := range p.xs {
				jac.Set(i, j, 0)
			}
			continue
		}
		copy(probe, params)
		for i, x := range p.xs {
			probe[j] = params[j] + up
			fu := p.eq.Fn(probe, x)
			probe[j] = params[j] - dn
			fd := p.eq.Fn(probe, x)
			jac.Set(i, j, (fu-fd)/(up+dn))
		}
	}
}

// solve minimizes the sum of squared residuals from start with a projected
// Levenberg-Marquardt iteration. Trial points are clamped to the box and
// parameters pinned against a bound are frozen for the iteration. A step is
// accepted only when it lowers the cost. The fit has converged when the
// relative decrease or the step falls below cfg.Tolerance, or when no damping
// yields a decrease. A converged point whose free parameters are not
// determined by the data (a zero Jacobian column or a singular J^T J) is
// reported as ErrDiverged.
func (p *problem) solve(ctx context.Context, start []float64, cfg core.IterationConfig) (solution, error) {
	n, m := len(p.ys), len(start)

	x := core.Clone(start)
	core.ClampSlice(x, p.lower, p.upper)
	r := make([]float64, n)
	cost := p.residuals(r, x)
	if !core.IsFinite(cost) {
		return solution{}, fmt.Errorf("%w: non-finite residual at start %v", ErrDiverged, x)
	}

	var (
		jac    = mat.NewDense(n, m, nil)
		jtj    = mat.NewSymDense(m, nil)
		damped = mat.NewSymDense(m, nil)
		grad   = mat.NewVecDense(m, nil)
		delta  = mat.NewVecDense(m, nil)
		chol   mat.Cholesky
		trial  = make([]float64, m)
		rTrial = make([]float64, n)
		active = make([]bool, m)
		lambda = lambdaStart
	)

	for iter := 1; iter <= cfg.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return solution{}, err
		}
		p.jacobian(jac, x)
		if !core.AllFinite(jac.RawMatrix().Data) {
			return solution{}, fmt.Errorf("%w: non-finite jacobian at %v", ErrDiverged, x)
		}
		jtj.SymOuterK(1, jac.T())
		grad.MulVec(jac.T(), mat.NewVecDense(n, r))

		// Parameters on a bound whose descent direction leaves the box are
		// held fixed for this iteration.
		for k := range m {
			g := grad.AtVec(k)
			active[k] = (x[k] <= p.lower[k] && g > 0) || (x[k] >= p.upper[k] && g < 0)
			if !active[k] {
				continue
			}
			for j := range m {
				jtj.SetSym(k, j, 0)
			}
			jtj.SetSym(k, k, 1)
			grad.SetVec(k, 0)
		}

		if cost == 0 {
			if singular(jac, jtj, active, &chol) {
				return solution{}, fmt.Errorf("%w: singular jacobian at %v", ErrDiverged, x)
			}
			return solution{params: x, cost: cost, iterations: iter - 1}, nil
		}

		accepted := false
		for lambda <= lambdaMax {
			damped.CopySym(jtj)
			for k := range m {
				if active[k] {
					continue
				}
				d := jtj.At(k, k)
				damped.SetSym(k, k, d+lambda*max(d, 1e-12))
			}
			if ok := chol.Factorize(damped); !ok {
				lambda *= 10
				continue
			}
			if err := chol.SolveVecTo(delta, grad); err != nil {
				lambda *= 10
				continue
			}

			for k := range m {
				trial[k] = x[k] - delta.AtVec(k)
			}
			core.ClampSlice(trial, p.lower, p.upper)

			newCost := p.residuals(rTrial, trial)
			if !core.IsFinite(newCost) || newCost >= cost {
				lambda *= 10
				continue
			}

			drop := (cost - newCost) / cost
			small := cfg.Tolerance > 0
			for k := 0; small && k < m; k++ {
				small = core.NearlyEqual(trial[k], x[k], cfg.Tolerance)
			}

			x, trial = trial, x
			r, rTrial = rTrial, r
			cost = newCost
			lambda = max(lambda/10, lambdaMin)
			accepted = true

			if drop <= cfg.Tolerance || small {
				if singular(jac, jtj, active, &chol) {
					return solution{}, fmt.Errorf("%w: singular jacobian at %v", ErrDiverged, x)
				}
				return solution{params: x, cost: cost, iterations: iter}, nil
			}
			break
		}

		if !accepted {
			// No damping lowers the cost: x is stationary within rounding,
			// unless the data do not pin the parameters down.
			if singular(jac, jtj, active, &chol) {
				return solution{}, fmt.Errorf("%w: singular jacobian at %v", ErrDiverged, x)
			}
			return solution{params: x, cost: cost, iterations: iter}, nil
		}
	}

	return solution{}, fmt.Errorf("%w: no convergence after %d iterations (rms %g)",
		ErrDiverged, cfg.MaxIterations, math.Sqrt(cost/float64(n)))
}

// singular reports whether the free parameters are undetermined: a free
// parameter the model does not depend on, or an undamped J^T J that is not
// positive definite. jtj must already hold unit rows for active parameters.
func singular(jac *mat.Dense, jtj *mat.SymDense, active []bool, chol *mat.Cholesky) bool {
	n, m := jac.Dims()
	for k := range m {
		if active[k] {
			continue
		}
		zero := true
		for i := range n {
			if jac.At(i, k) != 0 {
				zero = false
				break
			}
		}
		if zero {
			return true
		}
	}
	return !chol.Factorize(jtj)
}
