// Package harmonic estimates the fundamental frequency of a spectrum via
// harmonic-template correlation and derives harmonic amplitude features.
package harmonic

import (
	"fmt"
	"math"

	"github.com/auralux/spectra/analysis/common"
)

// numCandidates is the number of log-spaced candidate fundamentals
const numCandidates = 200

// peakSearchSemitones bounds the search for detected harmonic peaks around
// their expected position
const peakSearchSemitones = 1.0

// Result contains the harmonic analysis for one frame
type Result struct {
	Fundamental   float64   `json:"fundamental"`    // Tracked F0 in Hz, 0 when unvoiced
	RawPitch      float64   `json:"raw_pitch"`      // Untracked argmax-salience candidate
	Confidence    float64   `json:"confidence"`     // Salience relative to total magnitude
	Harmonics     []float64 `json:"harmonics"`      // Interpolated amplitude per harmonic
	HarmonicRatio float64   `json:"harmonic_ratio"` // Harmonic energy / total energy
	Inharmonicity float64   `json:"inharmonicity"`  // Mean fractional partial deviation
	HNR           float64   `json:"hnr"`            // Harmonic-to-noise ratio in dB
}

// template holds the sparse bin weights of one candidate fundamental
type template struct {
	f0      float64
	bins    []int
	weights []float64
}

// Analyzer scores a bank of harmonic salience templates against each
// frame's magnitude spectrum. The fundamental estimate is a two-state
// tracker: it follows new estimates (exponentially smoothed) while
// confidence is high and holds the last value otherwise.
type Analyzer struct {
	sampleRate    int
	numBins       int
	binWidth      float64
	harmonicCount int
	minFreq       float64
	maxFreq       float64
	smoothing     float64
	threshold     float64

	templates []template

	// Tracker state
	trackedF0 float64
}

// NewAnalyzer creates a harmonic analyzer for spectra with numBins bins.
// Candidate fundamentals are log-spaced over [minFreq, maxFreq].
func NewAnalyzer(sampleRate, numBins, harmonicCount int, minFreq, maxFreq, smoothing, threshold float64) (*Analyzer, error) {
	if sampleRate <= 0 || numBins <= 0 {
		return nil, fmt.Errorf("sample rate and bin count must be positive, got %d/%d", sampleRate, numBins)
	}
	if harmonicCount <= 0 {
		return nil, fmt.Errorf("harmonic count must be positive, got %d", harmonicCount)
	}
	if minFreq <= 0 || minFreq >= maxFreq {
		return nil, fmt.Errorf("invalid pitch range [%g, %g]", minFreq, maxFreq)
	}
	if smoothing <= 0 || smoothing > 1 {
		return nil, fmt.Errorf("smoothing factor must be in (0, 1], got %g", smoothing)
	}

	a := &Analyzer{
		sampleRate:    sampleRate,
		numBins:       numBins,
		binWidth:      float64(sampleRate) / float64(numBins*2),
		harmonicCount: harmonicCount,
		minFreq:       minFreq,
		maxFreq:       maxFreq,
		smoothing:     smoothing,
		threshold:     threshold,
	}
	a.buildTemplates()

	return a, nil
}

// buildTemplates constructs the sparse salience templates: 1/h weight at
// each harmonic's bin plus half weight at the two adjacent bins
func (a *Analyzer) buildTemplates() {
	a.templates = make([]template, 0, numCandidates)

	logMin := math.Log(a.minFreq)
	logMax := math.Log(a.maxFreq)

	for i := range numCandidates {
		f0 := math.Exp(logMin + (logMax-logMin)*float64(i)/float64(numCandidates-1))

		t := template{f0: f0}
		for h := 1; h <= a.harmonicCount; h++ {
			bin := int(math.Round(float64(h) * f0 / a.binWidth))
			if bin <= 0 || bin >= a.numBins {
				break
			}

			weight := 1.0 / float64(h)
			t.bins = append(t.bins, bin)
			t.weights = append(t.weights, weight)

			if bin-1 > 0 {
				t.bins = append(t.bins, bin-1)
				t.weights = append(t.weights, weight/2.0)
			}
			if bin+1 < a.numBins {
				t.bins = append(t.bins, bin+1)
				t.weights = append(t.weights, weight/2.0)
			}
		}

		if len(t.bins) > 0 {
			a.templates = append(a.templates, t)
		}
	}
}

// Compute analyzes one magnitude spectrum
func (a *Analyzer) Compute(magnitude []float64) *Result {
	result := &Result{
		Harmonics: make([]float64, a.harmonicCount),
	}

	totalMag := 0.0
	totalEnergy := 0.0
	for _, m := range magnitude {
		totalMag += m
		totalEnergy += m * m
	}

	if totalMag < common.Epsilon {
		a.trackedF0 = 0.0
		return result
	}

	// Salience: correlate every candidate template with the spectrum
	bestSalience := 0.0
	bestF0 := 0.0
	for _, t := range a.templates {
		salience := 0.0
		for i, bin := range t.bins {
			if bin < len(magnitude) {
				salience += magnitude[bin] * t.weights[i]
			}
		}
		if salience > bestSalience {
			bestSalience = salience
			bestF0 = t.f0
		}
	}

	confidence := bestSalience / totalMag
	result.RawPitch = bestF0
	result.Confidence = confidence

	// Two-state tracking: follow while confident, hold otherwise
	if confidence > a.threshold && bestF0 > 0 {
		if a.trackedF0 <= 0 {
			a.trackedF0 = bestF0
		} else {
			a.trackedF0 = a.smoothing*bestF0 + (1.0-a.smoothing)*a.trackedF0
		}
	}
	result.Fundamental = a.trackedF0

	if a.trackedF0 <= 0 {
		return result
	}

	// Harmonic amplitudes and inharmonicity at the tracked fundamental
	harmonicEnergy := 0.0
	deviationSum := 0.0
	deviationCount := 0

	for h := 1; h <= a.harmonicCount; h++ {
		expected := float64(h) * a.trackedF0
		bin := int(math.Round(expected / a.binWidth))
		if bin <= 0 || bin >= a.numBins-1 {
			break
		}

		amp, _ := parabolicPeak(magnitude, bin)
		result.Harmonics[h-1] = amp
		harmonicEnergy += amp * amp

		// Fractional deviation between the expected harmonic frequency and
		// the nearest detected peak
		peakBin := nearestPeak(magnitude, bin, a.searchRadius(expected))
		if peakBin > 0 {
			_, peakOffset := parabolicPeak(magnitude, peakBin)
			detected := (float64(peakBin) + peakOffset) * a.binWidth
			deviationSum += math.Abs(detected-expected) / expected
			deviationCount++
		}
	}

	if deviationCount > 0 {
		result.Inharmonicity = deviationSum / float64(deviationCount)
	}

	result.HarmonicRatio = common.Clamp(harmonicEnergy/math.Max(totalEnergy, common.Epsilon), 0, 1)

	noiseEnergy := totalEnergy - harmonicEnergy
	switch {
	case harmonicEnergy < common.Epsilon:
		result.HNR = 0.0
	case noiseEnergy <= 0:
		// All energy is harmonic; the ratio is unbounded
		result.HNR = math.Inf(1)
	default:
		result.HNR = 10.0 * math.Log10(harmonicEnergy/noiseEnergy)
	}

	return result
}

// searchRadius returns the peak search radius in bins for an expected
// harmonic frequency, bounded to at least one bin
func (a *Analyzer) searchRadius(freq float64) int {
	upper := freq * (math.Pow(2.0, peakSearchSemitones/12.0) - 1.0)
	return max(1, int(upper/a.binWidth))
}

// Reset clears the pitch tracker
func (a *Analyzer) Reset() {
	a.trackedF0 = 0.0
}

// Candidates returns the candidate fundamental frequencies
func (a *Analyzer) Candidates() []float64 {
	freqs := make([]float64, len(a.templates))
	for i, t := range a.templates {
		freqs[i] = t.f0
	}
	return freqs
}

// parabolicPeak fits a parabola through the bin and its neighbors and
// returns the interpolated peak amplitude and its fractional bin offset.
// This is the closed-form vertex of the parabola through (-1,y1), (0,y2),
// (1,y3).
func parabolicPeak(magnitude []float64, bin int) (amplitude, offset float64) {
	if bin <= 0 || bin >= len(magnitude)-1 {
		return magnitude[bin], 0.0
	}

	y1 := magnitude[bin-1]
	y2 := magnitude[bin]
	y3 := magnitude[bin+1]

	denom := y1 - 2.0*y2 + y3
	if math.Abs(denom) < common.Epsilon {
		return y2, 0.0
	}

	offset = 0.5 * (y1 - y3) / denom
	amplitude = y2 - 0.25*(y1-y3)*offset

	return amplitude, offset
}

// nearestPeak finds the local maximum closest to bin within radius bins,
// returning 0 when no local maximum exists in the window
func nearestPeak(magnitude []float64, bin, radius int) int {
	lo := max(1, bin-radius)
	hi := min(len(magnitude)-2, bin+radius)

	best := 0
	bestDist := math.MaxInt32

	for k := lo; k <= hi; k++ {
		if magnitude[k] >= magnitude[k-1] && magnitude[k] >= magnitude[k+1] {
			dist := k - bin
			if dist < 0 {
				dist = -dist
			}
			if dist < bestDist {
				bestDist = dist
				best = k
			}
		}
	}

	return best
}
