// Package filterbank builds stationary weight matrices that project a
// magnitude spectrum onto perceptual frequency scales (mel, chroma, Bark,
// ERB). Banks are pure functions of their parameters and immutable once
// built.
package filterbank

import "fmt"

// Bank is an immutable 2D weight matrix (bands x frequency bins)
type Bank struct {
	weights     [][]float64
	centerFreqs []float64
	numBins     int
}

// newBank wraps a weight matrix; callers hand over ownership of both slices
func newBank(weights [][]float64, centerFreqs []float64, numBins int) *Bank {
	return &Bank{
		weights:     weights,
		centerFreqs: centerFreqs,
		numBins:     numBins,
	}
}

// Apply projects a magnitude (or power) spectrum onto the bank's bands
func (b *Bank) Apply(spectrum []float64) []float64 {
	out := make([]float64, len(b.weights))

	for band, filter := range b.weights {
		sum := 0.0
		n := min(len(filter), len(spectrum))
		for k := 0; k < n; k++ {
			sum += spectrum[k] * filter[k]
		}
		out[band] = sum
	}

	return out
}

// ApplyInto projects spectrum into dst, which must have NumBands() entries
func (b *Bank) ApplyInto(spectrum, dst []float64) error {
	if len(dst) != len(b.weights) {
		return fmt.Errorf("destination length (%d) doesn't match band count (%d)", len(dst), len(b.weights))
	}

	for band, filter := range b.weights {
		sum := 0.0
		n := min(len(filter), len(spectrum))
		for k := 0; k < n; k++ {
			sum += spectrum[k] * filter[k]
		}
		dst[band] = sum
	}

	return nil
}

// NumBands returns the number of bands
func (b *Bank) NumBands() int {
	return len(b.weights)
}

// NumBins returns the spectrum length the bank was built for
func (b *Bank) NumBins() int {
	return b.numBins
}

// Weights returns a deep copy of the weight matrix
func (b *Bank) Weights() [][]float64 {
	weights := make([][]float64, len(b.weights))
	for i, row := range b.weights {
		weights[i] = make([]float64, len(row))
		copy(weights[i], row)
	}
	return weights
}

// CenterFreqs returns a copy of the band center frequencies in Hz
func (b *Bank) CenterFreqs() []float64 {
	freqs := make([]float64, len(b.centerFreqs))
	copy(freqs, b.centerFreqs)
	return freqs
}

// Row returns one filter row; the slice is owned by the bank and must not
// be modified
func (b *Bank) Row(band int) []float64 {
	return b.weights[band]
}

// binFrequency returns the center frequency of FFT bin k for a spectrum of
// numBins bins spanning [0, sampleRate/2)
func binFrequency(k, numBins, sampleRate int) float64 {
	return float64(k) * float64(sampleRate) / float64(numBins*2)
}
