package fit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-nmr/dsp/core"
	"github.com/cwbudde/algo-nmr/fit/equation"
)

// Fit errors.
var (
	ErrDiverged         = errors.New("fit: optimizer diverged")
	ErrInvalidDimension = errors.New("fit: invalid dimension")
	ErrInvalidData      = errors.New("fit: invalid data")
)

// DefaultBootstrap is the default number of bootstrap resamples.
const DefaultBootstrap = 100

// Data holds the samples of one fit. X[i] contains the variable values of
// sample i. Err is optional; when present it gives the per-sample standard
// deviation used to perturb bootstrap resamples.
type Data struct {
	X   [][]float64
	Y   []float64
	Err []float64
}

// Points1D builds Data for a single-variable model.
func Points1D(x, y, err []float64) Data {
	xs := make([][]float64, len(x))
	for i, v := range x {
		xs[i] = []float64{v}
	}
	return Data{X: xs, Y: y, Err: err}
}

// Validate checks the data against eq.
func (d Data) Validate(eq equation.Equation) error {
	if eq.ParameterCount() == 0 {
		return fmt.Errorf("%w: equation %q has no parameters", ErrInvalidDimension, eq.Name)
	}
	if len(d.X) != len(d.Y) {
		return fmt.Errorf("%w: %d x rows for %d y values", ErrInvalidDimension, len(d.X), len(d.Y))
	}
	if len(d.Err) != 0 && len(d.Err) != len(d.Y) {
		return fmt.Errorf("%w: %d error values for %d y values", ErrInvalidDimension, len(d.Err), len(d.Y))
	}
	if len(d.Y) < eq.ParameterCount() || len(d.Y) == 0 {
		return fmt.Errorf("%w: %d samples for %d parameters", ErrInvalidDimension, len(d.Y), eq.ParameterCount())
	}
	for i, x := range d.X {
		if len(x) != eq.VariableCount() {
			return fmt.Errorf("%w: sample %d has %d variables, want %d", ErrInvalidDimension, i, len(x), eq.VariableCount())
		}
		if !core.AllFinite(x) {
			return fmt.Errorf("%w: non-finite x at sample %d", ErrInvalidData, i)
		}
	}
	if !core.AllFinite(d.Y) {
		return fmt.Errorf("%w: non-finite y", ErrInvalidData)
	}
	for i, e := range d.Err {
		if !core.IsFinite(e) || e < 0 {
			return fmt.Errorf("%w: error value %d is %v", ErrInvalidData, i, e)
		}
	}
	return nil
}

// Option configures a Fitter.
type Option func(*Fitter)

// WithBootstrap sets the number of bootstrap resamples. Zero disables the
// uncertainty estimate.
func WithBootstrap(n int) Option {
	return func(f *Fitter) {
		if n >= 0 {
			f.bootstrap = n
		}
	}
}

// WithMaxIterations limits optimizer iterations per fit.
func WithMaxIterations(n int) Option {
	return func(f *Fitter) {
		f.iter = core.ApplyIterationOptions(f.iter, core.WithMaxIterations(n))
	}
}

// WithTolerance sets the relative cost decrease and relative step below
// which a fit is considered converged. Zero disables both tests; the fit
// then stops only when no step lowers the cost.
func WithTolerance(tol float64) Option {
	return func(f *Fitter) {
		f.iter = core.ApplyIterationOptions(f.iter, core.WithTolerance(tol))
	}
}

// WithSeed sets the bootstrap seed.
func WithSeed(seed uint64) Option {
	return func(f *Fitter) {
		f.seed = seed
	}
}

// WithConcurrency limits parallel bootstrap resamples and batch fits.
// Values below one select GOMAXPROCS.
func WithConcurrency(n int) Option {
	return func(f *Fitter) {
		f.concurrency = n
	}
}

// WithLogger sets the logger for fit diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(f *Fitter) {
		if l != nil {
			f.logger = l
		}
	}
}

// Fitter fits equations to data. It is safe for concurrent use.
type Fitter struct {
	iter        core.IterationConfig
	bootstrap   int
	seed        uint64
	concurrency int
	logger      *zap.Logger
}

// New returns a Fitter with the given options applied.
func New(opts ...Option) *Fitter {
	f := &Fitter{
		iter:      core.IterationConfig{MaxIterations: 200, Tolerance: 1e-12},
		bootstrap: DefaultBootstrap,
		seed:      1,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Iterations returns the optimizer settings.
func (f *Fitter) Iterations() core.IterationConfig { return f.iter }

// Bootstrap returns the number of bootstrap resamples.
func (f *Fitter) Bootstrap() int { return f.bootstrap }

func (f *Fitter) workers() int {
	if f.concurrency > 0 {
		return f.concurrency
	}
	return runtime.GOMAXPROCS(0)
}

// Fit fits eq to data. Invalid input is returned as an error. When the
// optimizer fails the failure is logged and Fit returns nil, nil.
func (f *Fitter) Fit(ctx context.Context, eq equation.Equation, data Data) (*Result, error) {
	res, err := f.Solve(ctx, eq, data)
	switch {
	case err == nil:
		return res, nil
	case errors.Is(err, ErrDiverged):
		f.logger.Warn("fit failed",
			zap.String("equation", eq.Name),
			zap.Int("samples", len(data.Y)),
			zap.Error(err))
		return nil, nil
	default:
		return nil, err
	}
}

// Solve is Fit without the failure policy: optimizer failures are
// returned wrapped in ErrDiverged.
func (f *Fitter) Solve(ctx context.Context, eq equation.Equation, data Data) (*Result, error) {
	if eq.Fn == nil {
		return nil, fmt.Errorf("%w: equation %q has no value function", ErrInvalidData, eq.Name)
	}
	if err := data.Validate(eq); err != nil {
		return nil, err
	}

	params := eq.Guess(data.X, data.Y)
	lower, upper := equation.Bounds(params)
	prob := &problem{eq: eq, xs: data.X, ys: data.Y, lower: lower, upper: upper}

	sol, err := prob.solve(ctx, equation.Starts(params), f.iter)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("fit converged",
		zap.String("equation", eq.Name),
		zap.Int("iterations", sol.iterations),
		zap.Float64("rms", sol.rms(len(data.Y))))

	errs, samples, err := f.bootstrapErrors(ctx, prob, sol.params, data.Err)
	if err != nil {
		return nil, err
	}

	return &Result{
		Equation:   eq.Name,
		Names:      eq.ParamNames(),
		Best:       sol.params,
		Errors:     errs,
		RMS:        sol.rms(len(data.Y)),
		Iterations: sol.iterations,
		Samples:    samples,
		eq:         eq,
	}, nil
}

// Result is the outcome of a successful fit.
type Result struct {
	Equation string
	Names    []string
	Best     []float64
	// Errors holds the bootstrap standard deviation per parameter, NaN
	// when fewer than two resamples succeeded.
	Errors     []float64
	RMS        float64
	Iterations int
	// Samples counts the bootstrap resamples that converged.
	Samples int

	eq equation.Equation
}

// ParamValue is one row of a result table.
type ParamValue struct {
	Name  string
	Value float64
	Error float64
}

// Rows returns the parameters in equation order.
func (r *Result) Rows() []ParamValue {
	rows := make([]ParamValue, len(r.Names))
	for i, name := range r.Names {
		rows[i] = ParamValue{Name: name, Value: r.Best[i], Error: math.NaN()}
		if i < len(r.Errors) {
			rows[i].Error = r.Errors[i]
		}
	}
	return rows
}

// Table returns the parameters keyed by name.
func (r *Result) Table() map[string]ParamValue {
	table := make(map[string]ParamValue, len(r.Names))
	for _, row := range r.Rows() {
		table[row.Name] = row
	}
	return table
}

// Value returns the best value of the named parameter.
func (r *Result) Value(name string) (float64, bool) {
	for i, n := range r.Names {
		if n == name {
			return r.Best[i], true
		}
	}
	return 0, false
}

// Curve evaluates the fitted model at xs.
func (r *Result) Curve(xs [][]float64) []float64 {
	return r.eq.Values(r.Best, xs)
}
