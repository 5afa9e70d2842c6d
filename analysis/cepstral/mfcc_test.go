package cepstral

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auralux/spectra/analysis/filterbank"
)

const (
	testSampleRate = 44100
	testNumBins    = 512
	testNumFilters = 26
)

func testMelBank(t *testing.T) *filterbank.Bank {
	t.Helper()
	bank, err := filterbank.NewMelBank(testNumFilters, testNumBins, testSampleRate, 20, 8000)
	require.NoError(t, err)
	return bank
}

func TestNewExtractorValidation(t *testing.T) {
	bank := testMelBank(t)

	_, err := NewExtractor(0, 22, bank)
	assert.Error(t, err)

	_, err = NewExtractor(testNumFilters+1, 22, bank)
	assert.Error(t, err)

	_, err = NewExtractor(13, 22, nil)
	assert.Error(t, err)

	e, err := NewExtractor(13, 22, bank)
	require.NoError(t, err)
	assert.Equal(t, 13, e.NumCoefficients())
}

func TestComputeShape(t *testing.T) {
	e, err := NewExtractor(13, 22, testMelBank(t))
	require.NoError(t, err)

	magnitude := make([]float64, testNumBins)
	for k := range magnitude {
		magnitude[k] = 1.0 / float64(k+1)
	}

	result := e.Compute(magnitude)
	require.Len(t, result.MFCC, 13)
	require.Len(t, result.MelSpectrum, testNumFilters)

	for c, v := range result.MFCC {
		assert.False(t, math.IsNaN(v), "coefficient %d", c)
	}
}

func TestComputeSilence(t *testing.T) {
	e, err := NewExtractor(13, 22, testMelBank(t))
	require.NoError(t, err)

	result := e.Compute(make([]float64, testNumBins))

	// The log floor turns silence into a constant mel vector, and the DCT
	// of a constant is zero everywhere past c0
	assert.Less(t, result.MFCC[0], 0.0)
	for c := 1; c < len(result.MFCC); c++ {
		assert.InDelta(t, 0.0, result.MFCC[c], 1e-8, "coefficient %d", c)
	}
}

func TestLifteringScalesUpperCoefficients(t *testing.T) {
	bank := testMelBank(t)

	plain, err := NewExtractor(13, 0, bank)
	require.NoError(t, err)
	liftered, err := NewExtractor(13, 22, bank)
	require.NoError(t, err)

	magnitude := make([]float64, testNumBins)
	for k := range magnitude {
		magnitude[k] = math.Exp(-float64(k) / 50.0)
	}

	p := plain.Compute(magnitude)
	l := liftered.Compute(magnitude)

	// c0 is never liftered
	assert.InDelta(t, p.MFCC[0], l.MFCC[0], 1e-12)

	for c := 1; c < 13; c++ {
		lifter := 1.0 + 11.0*math.Sin(math.Pi*float64(c)/22.0)
		assert.InDelta(t, p.MFCC[c]*lifter, l.MFCC[c], 1e-9, "coefficient %d", c)
	}
}

func TestDCTMatrixOrthogonalRows(t *testing.T) {
	e, err := NewExtractor(13, 22, testMelBank(t))
	require.NoError(t, err)

	matrix := e.DCTMatrix()
	require.Len(t, matrix, 13)

	// Distinct DCT-II basis rows are orthogonal
	dot := 0.0
	for m := range matrix[1] {
		dot += matrix[1][m] * matrix[2][m]
	}
	assert.InDelta(t, 0.0, dot, 1e-10)
}

func TestDelta(t *testing.T) {
	current := []float64{3, 5, 7}

	assert.Equal(t, []float64{0, 0, 0}, Delta(current, nil))
	assert.Equal(t, []float64{0, 0, 0}, Delta(current, []float64{1, 2}))
	assert.Equal(t, []float64{2, 2, 2}, Delta(current, []float64{1, 3, 5}))
}
