package harmonic

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSampleRate = 44100
	testNumBins    = 2048
)

func testBinWidth() float64 {
	return float64(testSampleRate) / float64(testNumBins*2)
}

// harmonicSpectrum synthesizes a magnitude spectrum with 1/h-decaying
// peaks at integer multiples of f0. Peak neighbors get half amplitude so
// each partial is a proper local maximum.
func harmonicSpectrum(f0 float64, partials int) []float64 {
	magnitude := make([]float64, testNumBins)
	binWidth := testBinWidth()

	for h := 1; h <= partials; h++ {
		bin := int(math.Round(float64(h) * f0 / binWidth))
		if bin <= 1 || bin >= testNumBins-1 {
			break
		}
		amp := 1.0 / float64(h)
		magnitude[bin] += amp
		magnitude[bin-1] += amp / 2.0
		magnitude[bin+1] += amp / 2.0
	}

	return magnitude
}

func newTestAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(testSampleRate, testNumBins, 10, 55, 1760, 0.3, 0.1)
	require.NoError(t, err)
	return a
}

func TestNewAnalyzerValidation(t *testing.T) {
	_, err := NewAnalyzer(0, testNumBins, 10, 55, 1760, 0.3, 0.1)
	assert.Error(t, err)

	_, err = NewAnalyzer(testSampleRate, testNumBins, 0, 55, 1760, 0.3, 0.1)
	assert.Error(t, err)

	_, err = NewAnalyzer(testSampleRate, testNumBins, 10, 1760, 55, 0.3, 0.1)
	assert.Error(t, err)

	_, err = NewAnalyzer(testSampleRate, testNumBins, 10, 55, 1760, 0, 0.1)
	assert.Error(t, err)
}

func TestComputeSilence(t *testing.T) {
	a := newTestAnalyzer(t)

	result := a.Compute(make([]float64, testNumBins))

	assert.Equal(t, 0.0, result.Fundamental)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Equal(t, 0.0, result.HarmonicRatio)
	require.Len(t, result.Harmonics, 10)
}

func TestComputeHarmonicTone(t *testing.T) {
	a := newTestAnalyzer(t)

	result := a.Compute(harmonicSpectrum(220, 10))

	assert.InEpsilon(t, 220.0, result.Fundamental, 0.05)
	assert.InEpsilon(t, 220.0, result.RawPitch, 0.05)
	assert.Greater(t, result.Confidence, 0.1)
	assert.Greater(t, result.Harmonics[0], 0.5, "first partial amplitude")
	assert.Greater(t, result.HarmonicRatio, 0.3)
	assert.Less(t, result.Inharmonicity, 0.05)
	assert.False(t, math.IsNaN(result.HNR))
	assert.Greater(t, result.HNR, 0.0)
}

func TestTrackingSmoothsPitch(t *testing.T) {
	a := newTestAnalyzer(t)

	first := a.Compute(harmonicSpectrum(220, 10))
	require.Greater(t, first.Fundamental, 0.0)

	// A jump to 330 Hz moves the tracked pitch only partway
	second := a.Compute(harmonicSpectrum(330, 10))
	assert.Greater(t, second.Fundamental, first.Fundamental)
	assert.Less(t, second.Fundamental, 330.0*0.95)

	// Repeated frames converge on the new pitch
	var last *Result
	for range 30 {
		last = a.Compute(harmonicSpectrum(330, 10))
	}
	assert.InEpsilon(t, 330.0, last.Fundamental, 0.05)
}

func TestSilenceResetsTracker(t *testing.T) {
	a := newTestAnalyzer(t)

	a.Compute(harmonicSpectrum(220, 10))
	result := a.Compute(make([]float64, testNumBins))

	assert.Equal(t, 0.0, result.Fundamental)
}

func TestReset(t *testing.T) {
	a := newTestAnalyzer(t)

	a.Compute(harmonicSpectrum(220, 10))
	a.Reset()

	// The next confident estimate is adopted directly, not smoothed from
	// the stale value
	result := a.Compute(harmonicSpectrum(440, 10))
	assert.InEpsilon(t, 440.0, result.Fundamental, 0.05)
}

func TestCandidatesSpanPitchRange(t *testing.T) {
	a := newTestAnalyzer(t)

	candidates := a.Candidates()
	require.NotEmpty(t, candidates)

	assert.InDelta(t, 55.0, candidates[0], 1.0)
	last := candidates[len(candidates)-1]
	assert.InDelta(t, 1760.0, last, 1.0)

	for i := 1; i < len(candidates); i++ {
		assert.Greater(t, candidates[i], candidates[i-1])
	}
}

func TestParabolicPeakInterpolation(t *testing.T) {
	// Symmetric peak: vertex at the center bin
	magnitude := []float64{0, 0.5, 1.0, 0.5, 0}
	amp, offset := parabolicPeak(magnitude, 2)
	assert.InDelta(t, 0.0, offset, 1e-12)
	assert.InDelta(t, 1.0, amp, 1e-12)

	// Skewed peak: vertex shifts toward the larger neighbor
	magnitude = []float64{0, 0.4, 1.0, 0.8, 0}
	_, offset = parabolicPeak(magnitude, 2)
	assert.Greater(t, offset, 0.0)
	assert.Less(t, offset, 0.5)

	// Edge bins fall back to the raw value
	amp, offset = parabolicPeak(magnitude, 0)
	assert.Equal(t, 0.0, amp)
	assert.Equal(t, 0.0, offset)
}
