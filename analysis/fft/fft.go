// Package fft implements an in-place iterative radix-2 Cooley-Tukey
// transform over power-of-two sizes, with the bit-reversal table and
// twiddle factors precomputed at construction.
package fft

import (
	"fmt"

	"math"

	"github.com/auralux/spectra/analysis/common"
)

// Engine computes unnormalized complex DFTs of a fixed power-of-two size.
// No 1/N scaling is applied in either direction; every consumer in this
// module is calibrated against that convention.
type Engine struct {
	size     int
	stages   int
	reversal []int

	// Twiddle factors {cos,sin}(-2*pi*k/len) per butterfly stage,
	// indexed by stage (len = 2 << stage).
	twiddleCos [][]float64
	twiddleSin [][]float64
}

// NewEngine creates an engine for transforms of the given size. The size
// must be a power of two; anything else is a configuration error.
func NewEngine(size int) (*Engine, error) {
	if !common.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("fft size must be a power of two, got %d", size)
	}

	stages := 0
	for n := size; n > 1; n >>= 1 {
		stages++
	}

	e := &Engine{
		size:   size,
		stages: stages,
	}
	e.buildReversalTable()
	e.buildTwiddleTables()

	return e, nil
}

// buildReversalTable precomputes the bit-reversal permutation for size
func (e *Engine) buildReversalTable() {
	e.reversal = make([]int, e.size)
	for i := range e.size {
		reversed := 0
		for bit := 0; bit < e.stages; bit++ {
			if i&(1<<bit) != 0 {
				reversed |= 1 << (e.stages - 1 - bit)
			}
		}
		e.reversal[i] = reversed
	}
}

// buildTwiddleTables precomputes cos/sin factors for every butterfly stage
func (e *Engine) buildTwiddleTables() {
	e.twiddleCos = make([][]float64, e.stages)
	e.twiddleSin = make([][]float64, e.stages)

	for stage := 0; stage < e.stages; stage++ {
		length := 2 << stage
		half := length / 2

		cosTable := make([]float64, half)
		sinTable := make([]float64, half)
		for k := 0; k < half; k++ {
			angle := -2.0 * math.Pi * float64(k) / float64(length)
			cosTable[k] = math.Cos(angle)
			sinTable[k] = math.Sin(angle)
		}

		e.twiddleCos[stage] = cosTable
		e.twiddleSin[stage] = sinTable
	}
}

// Size returns the transform size
func (e *Engine) Size() int {
	return e.size
}

// Transform computes the in-place complex DFT of real/imag. Both slices
// must have length Size(). The output is the full symmetric spectrum;
// real-valued input means only the first Size()/2 bins carry independent
// information.
func (e *Engine) Transform(real, imag []float64) error {
	if len(real) != e.size || len(imag) != e.size {
		return fmt.Errorf("transform buffers must have length %d, got %d/%d", e.size, len(real), len(imag))
	}

	// Bit-reversal permutation
	for i, j := range e.reversal {
		if j > i {
			real[i], real[j] = real[j], real[i]
			imag[i], imag[j] = imag[j], imag[i]
		}
	}

	// Butterfly stages
	for stage := 0; stage < e.stages; stage++ {
		length := 2 << stage
		half := length / 2
		cosTable := e.twiddleCos[stage]
		sinTable := e.twiddleSin[stage]

		for start := 0; start < e.size; start += length {
			for k := 0; k < half; k++ {
				i := start + k
				j := i + half

				tRe := real[j]*cosTable[k] - imag[j]*sinTable[k]
				tIm := real[j]*sinTable[k] + imag[j]*cosTable[k]

				real[j] = real[i] - tRe
				imag[j] = imag[i] - tIm
				real[i] += tRe
				imag[i] += tIm
			}
		}
	}

	return nil
}

// TransformReal zero-fills the engine's imaginary scratch and transforms
// the given real signal, returning freshly allocated full-length
// real/imag output arrays. Convenience for callers that do not manage
// their own buffers.
func (e *Engine) TransformReal(signal []float64) ([]float64, []float64, error) {
	if len(signal) != e.size {
		return nil, nil, fmt.Errorf("signal must have length %d, got %d", e.size, len(signal))
	}

	real := make([]float64, e.size)
	imag := make([]float64, e.size)
	copy(real, signal)

	if err := e.Transform(real, imag); err != nil {
		return nil, nil, err
	}

	return real, imag, nil
}
