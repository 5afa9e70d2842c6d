package chroma

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
)

func testBank(t *testing.T) *filterbank.Bank {
	t.Helper()
	bank, err := filterbank.NewChromaBank(12, testNumBins, testSampleRate, 80, 5000)
	require.NoError(t, err)
	return bank
}

// toneMagnitude places a unit peak at the bin nearest freq
func toneMagnitude(freq float64) []float64 {
	binWidth := float64(testSampleRate) / float64(testNumBins*2)
	magnitude := make([]float64, testNumBins)
	magnitude[int(math.Round(freq/binWidth))] = 1.0
	return magnitude
}

func TestNewExtractorValidation(t *testing.T) {
	bank := testBank(t)

	_, err := NewExtractor(nil, 0.5)
	assert.Error(t, err)

	_, err = NewExtractor(bank, 1.0)
	assert.Error(t, err)

	_, err = NewExtractor(bank, -0.1)
	assert.Error(t, err)

	e, err := NewExtractor(bank, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 12, e.NumClasses())
}

func TestComputeNormalization(t *testing.T) {
	e, err := NewExtractor(testBank(t), 0)
	require.NoError(t, err)

	result := e.Compute(toneMagnitude(440), nil)
	require.Len(t, result.Normalized, 12)

	sum := 0.0
	best := 0
	for c, v := range result.Normalized {
		sum += v
		if v > result.Normalized[best] {
			best = c
		}
	}

	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Equal(t, 9, best, "440 Hz projects onto pitch class A")
}

func TestComputeSilenceUniform(t *testing.T) {
	e, err := NewExtractor(testBank(t), 0)
	require.NoError(t, err)

	result := e.Compute(make([]float64, testNumBins), nil)

	for c, v := range result.Normalized {
		assert.InDelta(t, 1.0/12.0, v, 1e-12, "class %d", c)
	}
}

func TestComputeSmoothing(t *testing.T) {
	e, err := NewExtractor(testBank(t), 0.5)
	require.NoError(t, err)

	first := e.Compute(toneMagnitude(440), nil)
	// No previous frame: smoothed equals normalized
	assert.Equal(t, first.Normalized, first.Smoothed)

	second := e.Compute(toneMagnitude(261.63), first.Smoothed)
	for c := range second.Smoothed {
		want := 0.5*first.Smoothed[c] + 0.5*second.Normalized[c]
		assert.InDelta(t, want, second.Smoothed[c], 1e-12, "class %d", c)
	}
}

func TestComputeSmoothingDisabled(t *testing.T) {
	e, err := NewExtractor(testBank(t), 0)
	require.NoError(t, err)

	first := e.Compute(toneMagnitude(440), nil)
	second := e.Compute(toneMagnitude(261.63), first.Smoothed)

	assert.Equal(t, second.Normalized, second.Smoothed)
}
