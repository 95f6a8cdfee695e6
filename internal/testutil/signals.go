package testutil

import (
	"math"
	"math/rand/v2"
)

// DecayingCosine samples amplitude*cos(2*pi*freq*i)*exp(-rate*i), a
// free-induction-decay shaped test signal. freq is in cycles per point.
func DecayingCosine(freq, rate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freq
	for i := range out {
		x := float64(i)
		out[i] = amplitude * math.Cos(step*x) * math.Exp(-rate*x)
	}
	return out
}

// DeterministicNoise generates uniform noise in [-amplitude, amplitude)
// from a PCG stream seeded with seed.
func DeterministicNoise(seed uint64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewPCG(seed, 0))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Impulse generates a unit impulse at the given position.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// Linspace returns n evenly spaced values from start to stop inclusive.
func Linspace(start, stop float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = start
		return out
	}
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

// SampleModel evaluates fn at every x.
func SampleModel(fn func(float64) float64, x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = fn(v)
	}
	return out
}
