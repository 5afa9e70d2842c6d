// Package cepstral computes mel-frequency cepstral coefficients with
// liftering and temporal delta features.
package cepstral

import (
	"fmt"
	"math"

	"github.com/auralux/spectra/analysis/common"
	"github.com/auralux/spectra/analysis/filterbank"
)

// Result contains the MFCC computation output for one frame
type Result struct {
	MFCC        []float64 `json:"mfcc"`         // Liftered cepstral coefficients
	MelSpectrum []float64 `json:"mel_spectrum"` // Mel-filtered magnitude spectrum
}

// Extractor computes MFCC vectors from magnitude spectra. The DCT matrix
// is precomputed at construction; the mel bank is shared, immutable state
// owned by the caller.
type Extractor struct {
	numCoefficients int
	numFilters      int
	lifterParam     float64
	melBank         *filterbank.Bank
	dctMatrix       [][]float64
}

// NewExtractor creates an MFCC extractor. lifterParam <= 0 disables
// liftering.
func NewExtractor(numCoefficients int, lifterParam float64, melBank *filterbank.Bank) (*Extractor, error) {
	if melBank == nil {
		return nil, fmt.Errorf("mel bank is required")
	}
	if numCoefficients <= 0 || numCoefficients > melBank.NumBands() {
		return nil, fmt.Errorf("coefficient count must be in [1, %d], got %d", melBank.NumBands(), numCoefficients)
	}

	e := &Extractor{
		numCoefficients: numCoefficients,
		numFilters:      melBank.NumBands(),
		lifterParam:     lifterParam,
		melBank:         melBank,
	}
	e.buildDCTMatrix()

	return e, nil
}

// buildDCTMatrix precomputes the DCT-II basis with sqrt(2/M) scaling
func (e *Extractor) buildDCTMatrix() {
	scale := math.Sqrt(2.0 / float64(e.numFilters))

	e.dctMatrix = make([][]float64, e.numCoefficients)
	for c := range e.numCoefficients {
		row := make([]float64, e.numFilters)
		for m := range e.numFilters {
			row[m] = scale * math.Cos(math.Pi*float64(c)*(float64(m)+0.5)/float64(e.numFilters))
		}
		e.dctMatrix[c] = row
	}
}

// Compute calculates the mel spectrum and liftered MFCC vector from a
// magnitude spectrum
func (e *Extractor) Compute(magnitude []float64) *Result {
	// Mel filtering with a floor so the log stays finite on silence
	melSpectrum := e.melBank.Apply(magnitude)
	logMel := make([]float64, len(melSpectrum))
	for m, v := range melSpectrum {
		logMel[m] = math.Log(math.Max(v, common.Epsilon))
	}

	// DCT-II
	mfcc := make([]float64, e.numCoefficients)
	for c := range e.numCoefficients {
		sum := 0.0
		for m, v := range logMel {
			sum += v * e.dctMatrix[c][m]
		}
		mfcc[c] = sum
	}

	// Sinusoidal liftering; c0 is left alone
	if e.lifterParam > 0 {
		for c := 1; c < len(mfcc); c++ {
			mfcc[c] *= 1.0 + (e.lifterParam/2.0)*math.Sin(math.Pi*float64(c)/e.lifterParam)
		}
	}

	return &Result{
		MFCC:        mfcc,
		MelSpectrum: melSpectrum,
	}
}

// Delta computes first differences between the current and previous
// vector. A nil or mismatched previous vector yields all zeros, which
// keeps the first frame well-defined.
func Delta(current, previous []float64) []float64 {
	delta := make([]float64, len(current))

	if len(previous) != len(current) {
		return delta
	}

	for i := range current {
		delta[i] = current[i] - previous[i]
	}

	return delta
}

// NumCoefficients returns the configured coefficient count
func (e *Extractor) NumCoefficients() int {
	return e.numCoefficients
}

// DCTMatrix returns a deep copy of the DCT basis (for inspection)
func (e *Extractor) DCTMatrix() [][]float64 {
	matrix := make([][]float64, len(e.dctMatrix))
	for i, row := range e.dctMatrix {
		matrix[i] = make([]float64, len(row))
		copy(matrix[i], row)
	}
	return matrix
}
