package conv

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// OverlapAdd convolves long spectra with a fixed kernel by FFT block
// convolution. The input is cut into blocks that are transformed,
// multiplied by the kernel spectrum and added back at their offsets.
// An OverlapAdd is not safe for concurrent use.
type OverlapAdd struct {
	kernelFFT []complex128
	kernelLen int
	blockSize int
	fftSize   int

	plan *algofft.Plan[complex128]
	buf  []complex128
}

// NewOverlapAdd creates an overlap-add convolver for kernel. A blockSize
// of zero selects max(256, nextPowerOf2(len(kernel))).
func NewOverlapAdd(kernel []float64, blockSize int) (*OverlapAdd, error) {
	if len(kernel) == 0 {
		return nil, ErrEmptyKernel
	}
	if blockSize < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBlockSize, blockSize)
	}
	if blockSize == 0 {
		blockSize = max(nextPowerOf2(len(kernel)), 256)
	}

	fftSize := nextPowerOf2(blockSize + len(kernel) - 1)
	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("conv: failed to create FFT plan: %w", err)
	}

	oa := &OverlapAdd{
		kernelFFT: make([]complex128, fftSize),
		kernelLen: len(kernel),
		blockSize: blockSize,
		fftSize:   fftSize,
		plan:      plan,
		buf:       make([]complex128, fftSize),
	}

	for i, v := range kernel {
		oa.buf[i] = complex(v, 0)
	}
	if err := plan.Forward(oa.kernelFFT, oa.buf); err != nil {
		return nil, fmt.Errorf("conv: failed to compute kernel FFT: %w", err)
	}
	return oa, nil
}

// BlockSize returns the input block size.
func (oa *OverlapAdd) BlockSize() int { return oa.blockSize }

// FFTSize returns the FFT size used internally.
func (oa *OverlapAdd) FFTSize() int { return oa.fftSize }

// KernelLen returns the kernel length.
func (oa *OverlapAdd) KernelLen() int { return oa.kernelLen }

// Process returns the full linear convolution of input with the kernel,
// len(input)+KernelLen()-1 samples long.
func (oa *OverlapAdd) Process(input []float64) ([]float64, error) {
	if len(input) == 0 {
		return nil, ErrEmptyInput
	}

	output := make([]float64, len(input)+oa.kernelLen-1)
	for start := 0; start < len(input); start += oa.blockSize {
		block := input[start:min(start+oa.blockSize, len(input))]

		clear(oa.buf)
		for i, v := range block {
			oa.buf[i] = complex(v, 0)
		}
		if err := oa.plan.Forward(oa.buf, oa.buf); err != nil {
			return nil, fmt.Errorf("conv: forward FFT failed: %w", err)
		}
		for i := range oa.buf {
			oa.buf[i] *= oa.kernelFFT[i]
		}
		if err := oa.plan.Inverse(oa.buf, oa.buf); err != nil {
			return nil, fmt.Errorf("conv: inverse FFT failed: %w", err)
		}

		tail := output[start:min(start+len(block)+oa.kernelLen-1, len(output))]
		for i := range tail {
			tail[i] += real(oa.buf[i])
		}
	}
	return output, nil
}

// OverlapAddConvolve performs one-shot overlap-add convolution.
func OverlapAddConvolve(signal, kernel []float64) ([]float64, error) {
	oa, err := NewOverlapAdd(kernel, 0)
	if err != nil {
		return nil, err
	}
	return oa.Process(signal)
}
