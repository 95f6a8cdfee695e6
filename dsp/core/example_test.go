package core_test

import (
	"fmt"

	"github.com/cwbudde/algo-nmr/dsp/core"
)

func ExampleApplyIterationOptions() {
	cfg := core.ApplyIterationOptions(core.DefaultIterationConfig(),
		core.WithMaxIterations(50),
		core.WithTolerance(1e-8),
	)

	fmt.Printf("maxIterations=%d tolerance=%g\n", cfg.MaxIterations, cfg.Tolerance)

	// Output:
	// maxIterations=50 tolerance=1e-08
}

func ExampleClamp() {
	fmt.Println(core.Clamp(4.2, 0, 1), core.Clamp(-3, 0, 1))

	// Output:
	// 1 0
}
