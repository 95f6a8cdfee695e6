package testutil

import (
	"math"
	"testing"
)

func TestMaxAbsDiff(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{name: "one element differs", a: []float64{1, 2, 3}, b: []float64{1, 2.1, 3}, want: 0.1},
		{name: "identical", a: []float64{1, 2, 3}, b: []float64{1, 2, 3}, want: 0},
		{name: "sign", a: []float64{-1, 0}, b: []float64{1, 0.5}, want: 2},
		{name: "empty", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := MaxAbsDiff(tt.a, tt.b)
			if err != nil {
				t.Fatalf("MaxAbsDiff error: %v", err)
			}
			if math.Abs(d-tt.want) > 1e-15 {
				t.Fatalf("MaxAbsDiff = %v, want %v", d, tt.want)
			}
		})
	}
}

func TestMaxAbsDiffLengthMismatch(t *testing.T) {
	if _, err := MaxAbsDiff([]float64{1}, []float64{1, 2}); err == nil {
		t.Fatal("expected error for length mismatch")
	}
}

func TestRequireHelpersPass(t *testing.T) {
	RequireNearlyEqual(t, "x", 1.0000001, 1, 1e-6)
	RequireSliceNearlyEqual(t, []float64{1, 2}, []float64{1, 2 + 1e-9}, 1e-6)
	RequireFinite(t, []float64{0, -1, math.MaxFloat64})
}
