// Package fit performs bounded nonlinear least-squares fits of
// [equation.Equation] models and estimates parameter uncertainty by
// bootstrap.
//
// The optimizer is Levenberg-Marquardt with every trial step projected
// onto the parameter box, so bounds hold at each iterate and not only at
// the starting point. Analytic partial derivatives are used when the
// equation provides them; other columns of the Jacobian come from central
// finite differences.
//
// [Fitter.Fit] never fails on an optimizer problem: a diverged fit is
// logged and reported as a nil result so that callers fitting many peaks
// can continue. Validation errors are returned.
//
//	f := fit.New(fit.WithBootstrap(200), fit.WithSeed(7))
//	res, err := f.Fit(ctx, equation.XExp(), data)
//	if err != nil { ... }   // malformed input
//	if res == nil { ... }   // fit failed, see log
package fit
