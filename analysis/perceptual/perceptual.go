// Package perceptual computes psychoacoustic descriptors: Bark-band
// loudness, sharpness, roughness, and fluctuation strength.
package perceptual

import (
	"fmt"
	"math"

	"github.com/auralux/spectra/analysis/common"
	"github.com/auralux/spectra/analysis/filterbank"
)

// stevensExponent is the power-law exponent relating intensity to
// perceived loudness
const stevensExponent = 0.67

// sharpnessKnee is the Bark value above which the Aures weighting grows
// exponentially
const sharpnessKnee = 15.8

// Roughness weighting: zero below minBeatFreq, peaking at peakBeatFreq
const (
	minBeatFreq  = 20.0
	peakBeatFreq = 70.0
)

// roughnessWindow bounds the pairwise roughness sum to a fixed bin
// neighborhood, keeping the cost O(N*W) instead of O(N^2)
const roughnessWindow = 50

// fluctuationSmoothing weights the previous fluctuation value when
// smoothing frame-to-frame energy change
const fluctuationSmoothing = 0.8

// Result contains the psychoacoustic descriptors for one frame
type Result struct {
	Loudness      []float64 `json:"loudness"`       // Specific loudness per Bark band
	TotalLoudness float64   `json:"total_loudness"` // Sum over bands
	Sharpness     float64   `json:"sharpness"`      // Aures-weighted spectral emphasis
	Roughness     float64   `json:"roughness"`      // Pairwise beat-frequency energy
	Fluctuation   float64   `json:"fluctuation"`    // Smoothed total-energy change
}

// Model computes perceptual features against a fixed Bark bank. The
// equal-loudness weights, sharpness weights, and roughness kernel are all
// precomputed at construction.
type Model struct {
	barkBank *filterbank.Bank
	numBins  int
	binWidth float64

	isoWeights       []float64 // Equal-loudness weight per bin
	sharpnessWeights []float64 // Aures g(z) per bin
	roughnessKernel  []float64 // Beat weight per bin offset (1..roughnessWindow)

	// Fluctuation tracker state
	prevEnergy  float64
	fluctuation float64
	havePrev    bool
}

// NewModel creates a perceptual model for spectra with numBins bins
func NewModel(sampleRate, numBins int, barkBank *filterbank.Bank) (*Model, error) {
	if sampleRate <= 0 || numBins <= 0 {
		return nil, fmt.Errorf("sample rate and bin count must be positive, got %d/%d", sampleRate, numBins)
	}
	if barkBank == nil {
		return nil, fmt.Errorf("bark bank is required")
	}

	m := &Model{
		barkBank: barkBank,
		numBins:  numBins,
		binWidth: float64(sampleRate) / float64(numBins*2),
	}

	m.isoWeights = make([]float64, numBins)
	m.sharpnessWeights = make([]float64, numBins)
	for k := range numBins {
		f := float64(k) * m.binWidth
		m.isoWeights[k] = equalLoudnessWeight(f)
		m.sharpnessWeights[k] = auresWeight(filterbank.HzToBark(f))
	}

	m.roughnessKernel = make([]float64, roughnessWindow+1)
	for d := 1; d <= roughnessWindow; d++ {
		m.roughnessKernel[d] = roughnessWeight(float64(d) * m.binWidth)
	}

	return m, nil
}

// Compute calculates the perceptual descriptors for one magnitude spectrum
func (m *Model) Compute(magnitude []float64) *Result {
	result := &Result{
		Loudness: make([]float64, m.barkBank.NumBands()),
	}

	// Equal-loudness weighted spectrum feeds both loudness and sharpness
	weighted := make([]float64, len(magnitude))
	for k, mag := range magnitude {
		if k < m.numBins {
			weighted[k] = mag * m.isoWeights[k]
		}
	}

	// Specific loudness per Bark band via Stevens' power law
	total := 0.0
	for b := range result.Loudness {
		excitation := 0.0
		row := m.barkBank.Row(b)
		n := min(len(row), len(weighted))
		for k := 0; k < n; k++ {
			excitation += weighted[k] * row[k]
		}

		if excitation > common.Epsilon {
			result.Loudness[b] = math.Pow(excitation, stevensExponent)
		}
		total += result.Loudness[b]
	}
	result.TotalLoudness = total

	result.Sharpness = m.sharpness(magnitude)
	result.Roughness = m.roughness(magnitude)
	result.Fluctuation = m.updateFluctuation(magnitude)

	return result
}

// sharpness computes the magnitude-weighted average Aures weight
func (m *Model) sharpness(magnitude []float64) float64 {
	num := 0.0
	den := 0.0
	n := min(len(magnitude), m.numBins)
	for k := 0; k < n; k++ {
		num += magnitude[k] * m.sharpnessWeights[k]
		den += magnitude[k]
	}

	if den < common.Epsilon {
		return 0.0
	}
	return num / den
}

// roughness sums pairwise beat-frequency weighted products within the
// kernel window
func (m *Model) roughness(magnitude []float64) float64 {
	sum := 0.0
	n := len(magnitude)

	for i := 0; i < n; i++ {
		if magnitude[i] < common.Epsilon {
			continue
		}
		hi := min(n, i+roughnessWindow+1)
		for j := i + 1; j < hi; j++ {
			w := m.roughnessKernel[j-i]
			if w > 0 {
				sum += magnitude[i] * magnitude[j] * w
			}
		}
	}

	return sum
}

// updateFluctuation smooths the magnitude of frame-to-frame total-energy
// change
func (m *Model) updateFluctuation(magnitude []float64) float64 {
	energy := 0.0
	for _, mag := range magnitude {
		energy += mag * mag
	}

	if !m.havePrev {
		m.prevEnergy = energy
		m.havePrev = true
		return 0.0
	}

	change := math.Abs(energy - m.prevEnergy)
	m.prevEnergy = energy
	m.fluctuation = fluctuationSmoothing*m.fluctuation + (1.0-fluctuationSmoothing)*change

	return m.fluctuation
}

// Reset clears the fluctuation tracker
func (m *Model) Reset() {
	m.prevEnergy = 0.0
	m.fluctuation = 0.0
	m.havePrev = false
}

// equalLoudnessWeight approximates the inverse ISO 226 equal-loudness
// contour with the standard A-weighting response, normalized to 1 at
// 1 kHz
func equalLoudnessWeight(f float64) float64 {
	if f <= 0 {
		return 0.0
	}

	f2 := f * f
	num := 12194.0 * 12194.0 * f2 * f2
	den := (f2 + 20.6*20.6) *
		math.Sqrt((f2+107.7*107.7)*(f2+737.9*737.9)) *
		(f2 + 12194.0*12194.0)

	// 1.2589 rescales the response so 1 kHz maps to unity gain
	return 1.2589 * num / den
}

// auresWeight is 1 below the sharpness knee and grows exponentially above
// it
func auresWeight(bark float64) float64 {
	if bark < sharpnessKnee {
		return 1.0
	}
	return math.Exp(0.171 * (bark - sharpnessKnee))
}

// roughnessWeight peaks at the most dissonant beat frequency and vanishes
// for slow beats
func roughnessWeight(deltaF float64) float64 {
	if deltaF < minBeatFreq {
		return 0.0
	}

	x := deltaF / peakBeatFreq
	return x * math.Exp(1.0-x)
}
