package core

// IterationConfig controls iterative solvers (least-squares fitting,
// fixed-point deconvolution).
type IterationConfig struct {
	MaxIterations int
	Tolerance     float64
}

// IterationOption mutates an IterationConfig.
type IterationOption func(*IterationConfig)

// DefaultIterationConfig returns the defaults shared by the iterative solvers.
func DefaultIterationConfig() IterationConfig {
	return IterationConfig{
		MaxIterations: 100,
		Tolerance:     1e-10,
	}
}

// WithMaxIterations sets the iteration limit.
func WithMaxIterations(n int) IterationOption {
	return func(cfg *IterationConfig) {
		if n > 0 {
			cfg.MaxIterations = n
		}
	}
}

// WithTolerance sets the convergence tolerance. Zero disables the
// tolerance-based stops: solvers then run until the iteration limit or
// until no further progress is possible.
func WithTolerance(tol float64) IterationOption {
	return func(cfg *IterationConfig) {
		if tol >= 0 {
			cfg.Tolerance = tol
		}
	}
}

// ApplyIterationOptions applies zero or more options to base.
func ApplyIterationOptions(base IterationConfig, opts ...IterationOption) IterationConfig {
	cfg := base
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
