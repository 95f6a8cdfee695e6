package equation

import (
	"math"
	"testing"
)

func TestBuiltinPartialsMatchFiniteDifferences(t *testing.T) {
	t.Parallel()

	tests := []struct {
		eq     Equation
		params []float64
	}{
		{eq: Linear(), params: []float64{1.5, -0.25}},
		{eq: ExpDecay(), params: []float64{2, 0.7, 0.1}},
		{eq: XExp(), params: []float64{3, 0.5}},
		{eq: Lorentzian(), params: []float64{1.2, 0.3, 0.8}},
		{eq: Gaussian(), params: []float64{0.9, -0.2, 1.1}},
	}

	xs := []float64{-1.3, -0.4, 0, 0.25, 0.9, 2.2}
	const h = 1e-6

	for _, tt := range tests {
		t.Run(tt.eq.Name, func(t *testing.T) {
			t.Parallel()
			for j, name := range tt.eq.ParamNames() {
				if !tt.eq.HasPartial(name) {
					t.Fatalf("missing partial for %s", name)
				}
				for _, xv := range xs {
					x := []float64{xv}
					got, ok := tt.eq.Partial(name, tt.params, x)
					if !ok {
						t.Fatalf("Partial(%s) not available", name)
					}
					up := append([]float64(nil), tt.params...)
					dn := append([]float64(nil), tt.params...)
					up[j] += h
					dn[j] -= h
					want := (tt.eq.Fn(up, x) - tt.eq.Fn(dn, x)) / (2 * h)
					if math.Abs(got-want) > 1e-5*(1+math.Abs(want)) {
						t.Errorf("d/d%s at x=%v: got %v, want %v", name, xv, got, want)
					}
				}
			}
		})
	}
}

func TestPartialAbsent(t *testing.T) {
	t.Parallel()

	eq := XExp()
	eq.Partials = nil
	if _, ok := eq.Partial("a", []float64{1, 1}, []float64{1}); ok {
		t.Fatal("Partial should report absence")
	}
	if eq.HasPartial("b") {
		t.Fatal("HasPartial should be false without a table")
	}
}

func TestCountsAndIndex(t *testing.T) {
	t.Parallel()

	eq := ExpDecay()
	if eq.VariableCount() != 1 || eq.ParameterCount() != 3 {
		t.Fatalf("counts = %d, %d", eq.VariableCount(), eq.ParameterCount())
	}
	if eq.ParamIndex("R") != 1 || eq.ParamIndex("missing") != -1 {
		t.Fatal("ParamIndex mismatch")
	}
}

func TestXExpGuess(t *testing.T) {
	t.Parallel()

	eq := XExp()
	var xs [][]float64
	var ys []float64
	for i := range 40 {
		x := 0.1 * float64(i)
		xs = append(xs, []float64{x})
		ys = append(ys, 2*x*math.Exp(-1.25*x))
	}

	params := eq.Guess(xs, ys)
	if len(params) != 2 {
		t.Fatalf("len = %d", len(params))
	}
	for _, p := range params {
		if p.Pending {
			t.Fatalf("%s still pending", p.Name)
		}
	}
	// Initial slope of the first segment and 1/x at the maximum (x=0.8).
	if math.Abs(params[0].Start-ys[1]/0.1) > 1e-12 {
		t.Errorf("a guess = %v", params[0].Start)
	}
	if math.Abs(params[1].Start-1.25) > 1e-9 {
		t.Errorf("b guess = %v, want 1.25", params[1].Start)
	}
	if params[1].Lower != 0 {
		t.Errorf("b lower = %v, want 0", params[1].Lower)
	}
}

func TestGuessClampsIntoBounds(t *testing.T) {
	t.Parallel()

	eq := Equation{
		Name:   "const",
		Vars:   []string{"x"},
		Params: []Param{{Name: "c", Start: 10, Lower: -1, Upper: 1}, {Name: "d", Start: math.NaN(), Lower: 5, Upper: 2}},
		Fn:     func(p, _ []float64) float64 { return p[0] },
	}
	params := eq.Guess(nil, nil)
	if params[0].Start != 1 {
		t.Errorf("start = %v, want clamp to 1", params[0].Start)
	}
	if params[1].Lower != 2 || params[1].Upper != 5 || params[1].Start != 2 {
		t.Errorf("swapped bounds = %+v", params[1])
	}
	if eq.Params[0].Start != 10 {
		t.Fatal("Guess must not modify the equation")
	}
}

func TestWithParams(t *testing.T) {
	t.Parallel()

	eq := Linear()
	fixed := eq.WithParams([]float64{2, 3})
	if fixed.Params[0].Start != 2 || fixed.Params[1].Start != 3 || fixed.Params[0].Pending {
		t.Fatalf("WithParams = %+v", fixed.Params)
	}
	if !eq.Params[0].Pending {
		t.Fatal("original must stay pending")
	}
	got := fixed.Values(Starts(fixed.Params), [][]float64{{0}, {1}, {2}})
	want := []float64{3, 5, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Values = %v, want %v", got, want)
		}
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	for _, name := range Names() {
		eq, ok := Lookup(name)
		if !ok || eq.Name != name {
			t.Errorf("Lookup(%q) = %q, %v", name, eq.Name, ok)
		}
	}
	if _, ok := Lookup(" XExp "); !ok {
		t.Error("Lookup should be case-insensitive")
	}
	if _, ok := Lookup("spline"); ok {
		t.Error("unknown name should not resolve")
	}
}

func TestLineGuess(t *testing.T) {
	t.Parallel()

	eq := Lorentzian()
	var xs [][]float64
	var ys []float64
	for i := range 101 {
		x := -5 + 0.1*float64(i)
		xs = append(xs, []float64{x})
		ys = append(ys, eq.Fn([]float64{2, 0.5, 1}, []float64{x}))
	}
	p := eq.Guess(xs, ys)
	if math.Abs(p[0].Start-2) > 1e-9 || math.Abs(p[1].Start-0.5) > 1e-9 {
		t.Fatalf("guess = %+v", p)
	}
	if math.Abs(p[2].Start-1) > 0.25 {
		t.Fatalf("width guess = %v, want about 1", p[2].Start)
	}
}
