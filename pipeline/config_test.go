package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero sample rate", func(c *Config) { c.SampleRate = 0 }},
		{"non power-of-two fft", func(c *Config) { c.FFTSize = 1000 }},
		{"zero hop", func(c *Config) { c.HopSize = 0 }},
		{"hop beyond fft", func(c *Config) { c.HopSize = c.FFTSize + 1 }},
		{"non power-of-two padding", func(c *Config) { c.ZeroPadFactor = 3 }},
		{"unknown window", func(c *Config) { c.Window = "bogus" }},
		{"inverted mel range", func(c *Config) { c.MelMinFreq, c.MelMaxFreq = 8000, 20 }},
		{"too many mfcc coefficients", func(c *Config) { c.MFCCCoefficients = c.MelBands + 1 }},
		{"chroma smoothing out of range", func(c *Config) { c.ChromaSmoothing = 1.0 }},
		{"pitch above nyquist", func(c *Config) { c.PitchMaxFreq = 30000 }},
		{"pitch smoothing zero", func(c *Config) { c.PitchSmoothing = 0 }},
		{"key threshold out of range", func(c *Config) { c.KeyThreshold = 1.0 }},
		{"too few band edges", func(c *Config) { c.BandEdges = []float64{100} }},
		{"unsorted band edges", func(c *Config) { c.BandEdges = []float64{100, 50, 200} }},
		{"zero history", func(c *Config) { c.SpectralHistorySize = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDerivedValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleRate = 48000
	cfg.FFTSize = 1024
	cfg.HopSize = 256
	cfg.ZeroPadFactor = 2

	assert.Equal(t, 2048, cfg.PaddedSize())
	assert.Equal(t, 1024, cfg.NumBins())
	assert.InDelta(t, 48000.0/2048.0, cfg.BinWidth(), 1e-12)
	assert.InDelta(t, 256.0/48000.0, cfg.HopDuration(), 1e-12)
}

func TestLoadConfigYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fft_size: 4096\nhop_size: 1024\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	// File values override defaults; everything else stays at default
	assert.Equal(t, 4096, cfg.FFTSize)
	assert.Equal(t, 1024, cfg.HopSize)
	assert.Equal(t, DefaultConfig().SampleRate, cfg.SampleRate)
	assert.Equal(t, DefaultConfig().MelBands, cfg.MelBands)
}

func TestLoadConfigJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"fft_size": 1024}`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 1024, cfg.FFTSize)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fft_size: 1000\n"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
