package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/auralux/spectra/analysis/common"
	"github.com/auralux/spectra/analysis/window"
)

// Config fully determines a pipeline. It is treated as immutable once a
// pipeline is constructed from it; changing any field goes through
// Pipeline.Reconfigure, which rebuilds all derived state.
type Config struct {
	SampleRate    int    `json:"sample_rate" yaml:"sample_rate"`
	FFTSize       int    `json:"fft_size" yaml:"fft_size"`
	HopSize       int    `json:"hop_size" yaml:"hop_size"`
	ZeroPadFactor int    `json:"zero_pad_factor" yaml:"zero_pad_factor"`
	Window        string `json:"window" yaml:"window"`

	MelBands         int     `json:"mel_bands" yaml:"mel_bands"`
	MelMinFreq       float64 `json:"mel_min_freq" yaml:"mel_min_freq"`
	MelMaxFreq       float64 `json:"mel_max_freq" yaml:"mel_max_freq"`
	MFCCCoefficients int     `json:"mfcc_coefficients" yaml:"mfcc_coefficients"`
	LifterParam      float64 `json:"lifter_param" yaml:"lifter_param"`

	ChromaBins      int     `json:"chroma_bins" yaml:"chroma_bins"`
	ChromaMinFreq   float64 `json:"chroma_min_freq" yaml:"chroma_min_freq"`
	ChromaMaxFreq   float64 `json:"chroma_max_freq" yaml:"chroma_max_freq"`
	ChromaSmoothing float64 `json:"chroma_smoothing" yaml:"chroma_smoothing"`

	HarmonicCount  int     `json:"harmonic_count" yaml:"harmonic_count"`
	PitchMinFreq   float64 `json:"pitch_min_freq" yaml:"pitch_min_freq"`
	PitchMaxFreq   float64 `json:"pitch_max_freq" yaml:"pitch_max_freq"`
	PitchSmoothing float64 `json:"pitch_smoothing" yaml:"pitch_smoothing"`
	PitchThreshold float64 `json:"pitch_threshold" yaml:"pitch_threshold"`

	BarkBands int `json:"bark_bands" yaml:"bark_bands"`
	ERBBands  int `json:"erb_bands" yaml:"erb_bands"`

	KeySmoothing float64 `json:"key_smoothing" yaml:"key_smoothing"`
	KeyThreshold float64 `json:"key_threshold" yaml:"key_threshold"`

	// BandEdges lists ascending boundary frequencies for the band-energy
	// vector; n+1 edges define n bands
	BandEdges []float64 `json:"band_edges" yaml:"band_edges"`

	SpectralHistorySize int `json:"spectral_history_size" yaml:"spectral_history_size"`
	ChromaHistorySize   int `json:"chroma_history_size" yaml:"chroma_history_size"`
	MFCCHistorySize     int `json:"mfcc_history_size" yaml:"mfcc_history_size"`
}

// DefaultConfig returns a configuration tuned for 44.1 kHz real-time
// analysis
func DefaultConfig() Config {
	return Config{
		SampleRate:    44100,
		FFTSize:       2048,
		HopSize:       512,
		ZeroPadFactor: 1,
		Window:        string(window.Hann),

		MelBands:         26,
		MelMinFreq:       20.0,
		MelMaxFreq:       8000.0,
		MFCCCoefficients: 13,
		LifterParam:      22.0,

		ChromaBins:      12,
		ChromaMinFreq:   80.0,
		ChromaMaxFreq:   5000.0,
		ChromaSmoothing: 0.8,

		HarmonicCount:  10,
		PitchMinFreq:   55.0,
		PitchMaxFreq:   1760.0,
		PitchSmoothing: 0.3,
		PitchThreshold: 0.1,

		BarkBands: 24,
		ERBBands:  32,

		KeySmoothing: 0.8,
		KeyThreshold: 0.5,

		BandEdges: []float64{20, 60, 250, 500, 2000, 4000, 6000, 20000},

		SpectralHistorySize: 128,
		ChromaHistorySize:   32,
		MFCCHistorySize:     32,
	}
}

// Validate checks the configuration, returning the first problem found.
// All validation happens here, at construction time; per-frame processing
// assumes a valid configuration.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	if !common.IsPowerOfTwo(c.FFTSize) {
		return fmt.Errorf("fft_size must be a power of two, got %d", c.FFTSize)
	}
	if c.HopSize <= 0 || c.HopSize > c.FFTSize {
		return fmt.Errorf("hop_size must be in [1, fft_size], got %d", c.HopSize)
	}
	if c.ZeroPadFactor < 1 || !common.IsPowerOfTwo(c.ZeroPadFactor) {
		return fmt.Errorf("zero_pad_factor must be a power of two >= 1, got %d", c.ZeroPadFactor)
	}
	if _, err := window.ParseType(c.Window); err != nil {
		return err
	}

	nyquist := float64(c.SampleRate) / 2.0
	if c.MelBands <= 0 {
		return fmt.Errorf("mel_bands must be positive, got %d", c.MelBands)
	}
	if c.MelMinFreq < 0 || c.MelMinFreq >= c.MelMaxFreq {
		return fmt.Errorf("invalid mel frequency range [%g, %g]", c.MelMinFreq, c.MelMaxFreq)
	}
	if c.MFCCCoefficients <= 0 || c.MFCCCoefficients > c.MelBands {
		return fmt.Errorf("mfcc_coefficients must be in [1, mel_bands], got %d", c.MFCCCoefficients)
	}
	if c.ChromaBins <= 0 {
		return fmt.Errorf("chroma_bins must be positive, got %d", c.ChromaBins)
	}
	if c.ChromaMinFreq <= 0 || c.ChromaMinFreq >= c.ChromaMaxFreq {
		return fmt.Errorf("invalid chroma frequency range [%g, %g]", c.ChromaMinFreq, c.ChromaMaxFreq)
	}
	if c.ChromaSmoothing < 0 || c.ChromaSmoothing >= 1 {
		return fmt.Errorf("chroma_smoothing must be in [0, 1), got %g", c.ChromaSmoothing)
	}
	if c.HarmonicCount <= 0 {
		return fmt.Errorf("harmonic_count must be positive, got %d", c.HarmonicCount)
	}
	if c.PitchMinFreq <= 0 || c.PitchMinFreq >= c.PitchMaxFreq {
		return fmt.Errorf("invalid pitch range [%g, %g]", c.PitchMinFreq, c.PitchMaxFreq)
	}
	if c.PitchMaxFreq > nyquist {
		return fmt.Errorf("pitch_max_freq (%g) exceeds nyquist (%g)", c.PitchMaxFreq, nyquist)
	}
	if c.PitchSmoothing <= 0 || c.PitchSmoothing > 1 {
		return fmt.Errorf("pitch_smoothing must be in (0, 1], got %g", c.PitchSmoothing)
	}
	if c.BarkBands <= 0 {
		return fmt.Errorf("bark_bands must be positive, got %d", c.BarkBands)
	}
	if c.ERBBands <= 0 {
		return fmt.Errorf("erb_bands must be positive, got %d", c.ERBBands)
	}
	if c.KeySmoothing < 0 || c.KeySmoothing >= 1 {
		return fmt.Errorf("key_smoothing must be in [0, 1), got %g", c.KeySmoothing)
	}
	if c.KeyThreshold <= 0 || c.KeyThreshold >= 1 {
		return fmt.Errorf("key_threshold must be in (0, 1), got %g", c.KeyThreshold)
	}
	if len(c.BandEdges) < 2 {
		return fmt.Errorf("band_edges needs at least two entries, got %d", len(c.BandEdges))
	}
	for i := 1; i < len(c.BandEdges); i++ {
		if c.BandEdges[i] <= c.BandEdges[i-1] {
			return fmt.Errorf("band_edges must be strictly ascending: %g >= %g", c.BandEdges[i-1], c.BandEdges[i])
		}
	}
	if c.SpectralHistorySize <= 0 || c.ChromaHistorySize <= 0 || c.MFCCHistorySize <= 0 {
		return fmt.Errorf("history sizes must be positive, got %d/%d/%d",
			c.SpectralHistorySize, c.ChromaHistorySize, c.MFCCHistorySize)
	}

	return nil
}

// PaddedSize returns the transform length after zero-padding
func (c Config) PaddedSize() int {
	return c.FFTSize * c.ZeroPadFactor
}

// NumBins returns the number of usable (Nyquist-limited) spectrum bins
func (c Config) NumBins() int {
	return c.PaddedSize() / 2
}

// BinWidth returns the frequency spacing between bins in Hz
func (c Config) BinWidth() float64 {
	return float64(c.SampleRate) / float64(c.PaddedSize())
}

// HopDuration returns the hop length in seconds, the natural soft deadline
// for one processing cycle
func (c Config) HopDuration() float64 {
	return float64(c.HopSize) / float64(c.SampleRate)
}

// LoadConfig reads a configuration from a YAML or JSON file, determined by
// extension, and validates it
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing JSON config: %w", err)
		}
	default:
		// Try YAML first, then JSON
		if yamlErr := yaml.Unmarshal(data, &cfg); yamlErr != nil {
			if jsonErr := json.Unmarshal(data, &cfg); jsonErr != nil {
				return Config{}, fmt.Errorf("parsing config: %w", yamlErr)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}
