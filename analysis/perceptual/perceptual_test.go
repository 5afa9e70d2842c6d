package perceptual

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

func testBinWidth() float64 {
	return float64(testSampleRate) / float64(testNumBins*2)
}

func newTestModel(t *testing.T) *Model {
	t.Helper()

	bank, err := filterbank.NewBarkBank(24, testNumBins, testSampleRate, 20, 22050)
	require.NoError(t, err)

	m, err := NewModel(testSampleRate, testNumBins, bank)
	require.NoError(t, err)
	return m
}

// toneMagnitude places a unit peak at the bin nearest freq
func toneMagnitude(freq float64) []float64 {
	magnitude := make([]float64, testNumBins)
	magnitude[int(math.Round(freq/testBinWidth()))] = 1.0
	return magnitude
}

func TestNewModelValidation(t *testing.T) {
	bank, err := filterbank.NewBarkBank(24, testNumBins, testSampleRate, 20, 22050)
	require.NoError(t, err)

	_, err = NewModel(0, testNumBins, bank)
	assert.Error(t, err)

	_, err = NewModel(testSampleRate, 0, bank)
	assert.Error(t, err)

	_, err = NewModel(testSampleRate, testNumBins, nil)
	assert.Error(t, err)
}

func TestComputeSilence(t *testing.T) {
	m := newTestModel(t)

	result := m.Compute(make([]float64, testNumBins))

	require.Len(t, result.Loudness, 24)
	assert.Equal(t, 0.0, result.TotalLoudness)
	assert.Equal(t, 0.0, result.Sharpness)
	assert.Equal(t, 0.0, result.Roughness)
	assert.Equal(t, 0.0, result.Fluctuation)
}

func TestLoudnessGrowsWithLevel(t *testing.T) {
	m := newTestModel(t)

	quiet := m.Compute(toneMagnitude(1000))
	m.Reset()

	loud := make([]float64, testNumBins)
	for k := range loud {
		loud[k] = toneMagnitude(1000)[k] * 10.0
	}
	louder := m.Compute(loud)

	assert.Greater(t, quiet.TotalLoudness, 0.0)
	assert.Greater(t, louder.TotalLoudness, quiet.TotalLoudness)

	// Stevens' law compresses: a 10x input is well under 10x as loud
	assert.Less(t, louder.TotalLoudness, 10.0*quiet.TotalLoudness)
}

func TestSharpnessFavorsHighFrequencies(t *testing.T) {
	m := newTestModel(t)

	low := m.Compute(toneMagnitude(300))
	m.Reset()
	high := m.Compute(toneMagnitude(12000))

	assert.Greater(t, high.Sharpness, low.Sharpness)
	assert.InDelta(t, 1.0, low.Sharpness, 0.01, "below the knee the weight is 1")
}

func TestRoughnessNeedsBeatingPartials(t *testing.T) {
	m := newTestModel(t)

	single := m.Compute(toneMagnitude(1000))
	assert.Equal(t, 0.0, single.Roughness)

	m.Reset()

	// Two partials ~86 Hz apart land near the roughness peak
	pair := make([]float64, testNumBins)
	bin := int(math.Round(1000.0 / testBinWidth()))
	pair[bin] = 1.0
	pair[bin+2] = 1.0

	beating := m.Compute(pair)
	assert.Greater(t, beating.Roughness, 0.0)
}

func TestFluctuationTracksEnergyChange(t *testing.T) {
	m := newTestModel(t)

	steady := toneMagnitude(1000)

	first := m.Compute(steady)
	assert.Equal(t, 0.0, first.Fluctuation, "no previous frame to compare")

	second := m.Compute(steady)
	assert.InDelta(t, 0.0, second.Fluctuation, 1e-12, "steady signal has no fluctuation")

	loud := make([]float64, testNumBins)
	copy(loud, steady)
	for k := range loud {
		loud[k] *= 3.0
	}

	third := m.Compute(loud)
	assert.Greater(t, third.Fluctuation, 0.0)

	m.Reset()
	after := m.Compute(steady)
	assert.Equal(t, 0.0, after.Fluctuation)
}
