package pipeline

import (
	"math"
	"time"

	"github.com/auralux/spectra/analysis/chroma"
	"github.com/auralux/spectra/analysis/harmonic"
	"github.com/auralux/spectra/analysis/perceptual"
	"github.com/auralux/spectra/analysis/spectral"
	"github.com/auralux/spectra/analysis/tonal"
)

// SpectralFrame is the one-FFT view every extractor consumes. It is a
// value object: derived once from the transform output and never mutated
// afterward. Power is exactly Magnitude squared, bin for bin.
type SpectralFrame struct {
	Magnitude []float64 `json:"-"`
	Phase     []float64 `json:"-"`
	Power     []float64 `json:"-"`

	BinWidth float64 `json:"bin_width"` // Hz between adjacent bins
}

// newSpectralFrame derives magnitude, phase and power from full-length
// transform output, keeping only the Nyquist-limited first half
func newSpectralFrame(re, im []float64, binWidth float64) *SpectralFrame {
	numBins := len(re) / 2

	sf := &SpectralFrame{
		Magnitude: make([]float64, numBins),
		Phase:     make([]float64, numBins),
		Power:     make([]float64, numBins),
		BinWidth:  binWidth,
	}

	for k := 0; k < numBins; k++ {
		mag := math.Sqrt(re[k]*re[k] + im[k]*im[k])
		sf.Magnitude[k] = mag
		sf.Phase[k] = math.Atan2(im[k], re[k])
		sf.Power[k] = mag * mag
	}

	return sf
}

// PeakBin returns the index of the largest magnitude bin
func (sf *SpectralFrame) PeakBin() int {
	best := 0
	for k, m := range sf.Magnitude {
		if m > sf.Magnitude[best] {
			best = k
		}
	}
	return best
}

// PeakFrequency returns the frequency of the largest magnitude bin in Hz
func (sf *SpectralFrame) PeakFrequency() float64 {
	return float64(sf.PeakBin()) * sf.BinWidth
}

// FeatureFrame is the externally visible output of one processing cycle.
// It is fully immutable once returned; consumers must treat every slice as
// read-only.
type FeatureFrame struct {
	Index     int       `json:"index"`
	Timestamp time.Time `json:"timestamp"`

	// Time-domain descriptors
	RMS              float64 `json:"rms"`
	LevelDB          float64 `json:"level_db"`
	ZeroCrossingRate float64 `json:"zero_crossing_rate"`

	// Spectral statistics
	Spectral *spectral.Result `json:"spectral"`

	// Cepstral features
	MelSpectrum []float64 `json:"mel_spectrum"`
	MFCC        []float64 `json:"mfcc"`
	MFCCDelta   []float64 `json:"mfcc_delta"`
	MFCCDelta2  []float64 `json:"mfcc_delta2"`

	// Auditory-scale band energies
	ERBSpectrum []float64 `json:"erb_spectrum"`

	// Pitch-class features
	Chroma *chroma.Result  `json:"chroma"`
	Key    *tonal.Estimate `json:"key"`

	// Harmonic analysis
	Harmonic *harmonic.Result `json:"harmonic"`

	// Psychoacoustics
	Perceptual *perceptual.Result `json:"perceptual"`

	// Temporal signals
	Flux  float64 `json:"flux"`
	Onset bool    `json:"onset"`
}
