package pipeline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig keeps frames small enough for fast tests
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.FFTSize = 1024
	cfg.HopSize = 256
	return cfg
}

// sineHops synthesizes hop-sized chunks of a continuous sine wave
func sineHops(freq float64, cfg Config, hops int) [][]float64 {
	chunks := make([][]float64, hops)
	phase := 0.0
	step := 2.0 * math.Pi * freq / float64(cfg.SampleRate)

	for i := range chunks {
		chunk := make([]float64, cfg.HopSize)
		for n := range chunk {
			chunk[n] = math.Sin(phase)
			phase += step
		}
		chunks[i] = chunk
	}

	return chunks
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.FFTSize = 1000

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestProcessSilence(t *testing.T) {
	p, err := New(testConfig())
	require.NoError(t, err)

	frame := p.Process(make([]float64, 256))
	require.NotNil(t, frame)

	assert.Equal(t, 0, frame.Index)
	assert.Equal(t, 0.0, frame.RMS)
	assert.Equal(t, -120.0, frame.LevelDB)
	assert.Equal(t, 0.0, frame.Flux)
	assert.False(t, frame.Onset)

	require.NotNil(t, frame.Spectral)
	assert.Equal(t, 0.0, frame.Spectral.Centroid)
	require.Len(t, frame.Spectral.BandEnergies, len(testConfig().BandEdges)-1)

	require.Len(t, frame.MFCC, 13)
	require.Len(t, frame.MFCCDelta, 13)
	require.Len(t, frame.MFCCDelta2, 13)
	require.Len(t, frame.MelSpectrum, 26)
	require.Len(t, frame.ERBSpectrum, 32)

	require.NotNil(t, frame.Chroma)
	sum := 0.0
	for _, v := range frame.Chroma.Normalized {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9, "silence chroma stays a distribution")

	require.NotNil(t, frame.Harmonic)
	assert.Equal(t, 0.0, frame.Harmonic.Fundamental)

	require.NotNil(t, frame.Perceptual)
	assert.Equal(t, 0.0, frame.Perceptual.TotalLoudness)

	next := p.Process(make([]float64, 256))
	assert.Equal(t, 1, next.Index)
	assert.Equal(t, 2, p.FrameIndex())
}

func TestProcessSineTone(t *testing.T) {
	cfg := testConfig()
	p, err := New(cfg)
	require.NoError(t, err)

	var frame *FeatureFrame
	for _, chunk := range sineHops(440, cfg, 12) {
		frame = p.Process(chunk)
	}

	require.NotNil(t, frame)
	assert.Greater(t, frame.RMS, 0.5)
	assert.Greater(t, frame.LevelDB, -10.0)

	// Energy concentrates around 440 Hz
	assert.InDelta(t, 440.0, frame.Spectral.Centroid, 60.0)

	// Pitch resolution is limited by the ~43 Hz bin width here
	assert.InDelta(t, 440.0, frame.Harmonic.Fundamental, 45.0)

	// 440 Hz is pitch class A
	best := 0
	for c, v := range frame.Chroma.Normalized {
		if v > frame.Chroma.Normalized[best] {
			best = c
		}
	}
	assert.Equal(t, 9, best)

	assert.Greater(t, frame.Perceptual.TotalLoudness, 0.0)

	for c, v := range frame.MFCC {
		assert.False(t, math.IsNaN(v), "mfcc[%d]", c)
	}
}

func TestOnsetAfterSilence(t *testing.T) {
	cfg := testConfig()
	p, err := New(cfg)
	require.NoError(t, err)

	for range 6 {
		p.Process(make([]float64, cfg.HopSize))
	}

	frame := p.Process(sineHops(440, cfg, 1)[0])
	assert.Greater(t, frame.Flux, 0.0)
	assert.True(t, frame.Onset)
}

func TestHistoryAccumulates(t *testing.T) {
	cfg := testConfig()
	p, err := New(cfg)
	require.NoError(t, err)

	for _, chunk := range sineHops(440, cfg, 5) {
		p.Process(chunk)
	}

	h := p.History()
	assert.Equal(t, 5, h.Spectral.Len())
	assert.Equal(t, 5, h.Chroma.Len())
	assert.Equal(t, 5, h.MFCC.Len())
}

func TestMFCCDeltaUsesHistory(t *testing.T) {
	cfg := testConfig()
	p, err := New(cfg)
	require.NoError(t, err)

	chunks := sineHops(440, cfg, 2)
	first := p.Process(chunks[0])
	second := p.Process(chunks[1])

	assert.Equal(t, make([]float64, 13), first.MFCCDelta, "no previous frame")

	for c := range second.MFCCDelta {
		assert.InDelta(t, second.MFCC[c]-first.MFCC[c], second.MFCCDelta[c], 1e-12, "delta[%d]", c)
	}
}

func TestReconfigureResetsState(t *testing.T) {
	cfg := testConfig()
	p, err := New(cfg)
	require.NoError(t, err)

	for _, chunk := range sineHops(440, cfg, 4) {
		p.Process(chunk)
	}
	require.Equal(t, 4, p.FrameIndex())

	banks := p.FilterBanks()

	require.NoError(t, p.Reconfigure(cfg))

	assert.Equal(t, 0, p.FrameIndex())
	assert.Equal(t, 0, p.History().Spectral.Len())

	// Identical parameters reuse the cached bank set
	assert.Same(t, banks, p.FilterBanks())
}

func TestReconfigureChangesResolution(t *testing.T) {
	cfg := testConfig()
	p, err := New(cfg)
	require.NoError(t, err)

	next := cfg
	next.FFTSize = 2048
	next.HopSize = 512
	require.NoError(t, p.Reconfigure(next))

	assert.NotNil(t, p.FilterBanks())
	assert.Equal(t, 2048, p.Config().FFTSize)

	frame := p.Process(make([]float64, 512))
	require.NotNil(t, frame)
	require.Len(t, frame.MFCC, 13)
}

func TestReconfigureRejectsInvalidAndKeepsOld(t *testing.T) {
	cfg := testConfig()
	p, err := New(cfg)
	require.NoError(t, err)

	bad := cfg
	bad.FFTSize = 1000
	assert.Error(t, p.Reconfigure(bad))

	assert.Equal(t, cfg.FFTSize, p.Config().FFTSize)

	frame := p.Process(make([]float64, cfg.HopSize))
	require.NotNil(t, frame)
}
