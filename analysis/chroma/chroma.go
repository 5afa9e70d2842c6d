// Package chroma projects magnitude spectra onto pitch classes and
// maintains a temporally smoothed chroma vector.
package chroma

import (
	"fmt"

	"github.com/auralux/spectra/analysis/common"
	"github.com/auralux/spectra/analysis/filterbank"
)

// Result contains the chroma vectors for one frame
type Result struct {
	Raw        []float64 `json:"raw"`        // Filter-bank projection, unnormalized
	Normalized []float64 `json:"normalized"` // Sum-normalized distribution
	Smoothed   []float64 `json:"smoothed"`   // Exponentially smoothed against history
}

// Extractor computes chroma vectors from magnitude spectra
type Extractor struct {
	bank      *filterbank.Bank
	smoothing float64
}

// NewExtractor creates a chroma extractor. smoothing in [0, 1) is the
// weight given to the previous smoothed vector; 0 disables smoothing.
func NewExtractor(bank *filterbank.Bank, smoothing float64) (*Extractor, error) {
	if bank == nil {
		return nil, fmt.Errorf("chroma bank is required")
	}
	if smoothing < 0 || smoothing >= 1 {
		return nil, fmt.Errorf("smoothing factor must be in [0, 1), got %g", smoothing)
	}

	return &Extractor{
		bank:      bank,
		smoothing: smoothing,
	}, nil
}

// Compute projects magnitude onto pitch classes, normalizes, and smooths
// against the previous smoothed vector (nil for the first frame)
func (e *Extractor) Compute(magnitude, previous []float64) *Result {
	raw := e.bank.Apply(magnitude)

	normalized := make([]float64, len(raw))
	sum := 0.0
	for _, v := range raw {
		sum += v
	}

	if sum < common.Epsilon {
		// Silence carries no pitch-class information; report a uniform
		// distribution so downstream correlation stays well-defined
		uniform := 1.0 / float64(len(raw))
		for c := range normalized {
			normalized[c] = uniform
		}
	} else {
		for c, v := range raw {
			normalized[c] = v / sum
		}
	}

	smoothed := make([]float64, len(normalized))
	if e.smoothing > 0 && len(previous) == len(normalized) {
		for c := range normalized {
			smoothed[c] = e.smoothing*previous[c] + (1.0-e.smoothing)*normalized[c]
		}
	} else {
		copy(smoothed, normalized)
	}

	return &Result{
		Raw:        raw,
		Normalized: normalized,
		Smoothed:   smoothed,
	}
}

// NumClasses returns the number of pitch classes
func (e *Extractor) NumClasses() int {
	return e.bank.NumBands()
}
