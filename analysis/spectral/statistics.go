// Package spectral computes per-frame scalar descriptors of a magnitude
// spectrum.
package spectral

import (
	"fmt"
	"math"

	"github.com/auralux/spectra/analysis/common"
)

// rolloffFraction is the cumulative power fraction defining the rolloff
// frequency
const rolloffFraction = 0.85

// Result holds the scalar descriptors for one frame. All values are
// well-defined (zero, not NaN) on silent frames.
type Result struct {
	Centroid             float64   `json:"centroid"`               // Magnitude-weighted mean frequency (Hz)
	Spread               float64   `json:"spread"`                 // Magnitude-weighted standard deviation (Hz)
	Skewness             float64   `json:"skewness"`               // Third standardized central moment
	Kurtosis             float64   `json:"kurtosis"`               // Fourth standardized central moment, excess (-3)
	Rolloff              float64   `json:"rolloff"`                // Frequency below which 85% of power lies (Hz)
	Flatness             float64   `json:"flatness"`               // Geometric/arithmetic mean ratio (0-1)
	Slope                float64   `json:"slope"`                  // Least-squares slope of magnitude vs frequency
	Decrease             float64   `json:"decrease"`               // Average decrease relative to the first bin
	HighFrequencyContent float64   `json:"high_frequency_content"` // Bin-weighted magnitude sum
	Irregularity         float64   `json:"irregularity"`           // Neighbor-deviation measure (see Analyzer doc)
	BandEnergies         []float64 `json:"band_energies"`          // Mean squared magnitude per configured band
}

// Analyzer computes spectral statistics for spectra of a fixed size.
//
// Irregularity is the sum of absolute deviations of each interior bin from
// the average of its two neighbors, normalized by the total magnitude
// (Jensen's formulation). The sign-change variant was considered and
// rejected; this form degrades smoothly on quiet frames.
type Analyzer struct {
	sampleRate int
	numBins    int
	freqs      []float64
	bandEdges  []float64
	bandBins   [][2]int // [start, end) bin range per band
}

// NewAnalyzer creates an analyzer for spectra with numBins bins. bandEdges
// lists ascending band boundary frequencies in Hz; n+1 edges define n
// bands.
func NewAnalyzer(sampleRate, numBins int, bandEdges []float64) (*Analyzer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	if numBins <= 0 {
		return nil, fmt.Errorf("bin count must be positive, got %d", numBins)
	}
	if len(bandEdges) < 2 {
		return nil, fmt.Errorf("at least two band edges required, got %d", len(bandEdges))
	}
	for i := 1; i < len(bandEdges); i++ {
		if bandEdges[i] <= bandEdges[i-1] {
			return nil, fmt.Errorf("band edges must be strictly ascending: %g >= %g", bandEdges[i-1], bandEdges[i])
		}
	}

	binWidth := float64(sampleRate) / float64(numBins*2)

	freqs := make([]float64, numBins)
	for k := range numBins {
		freqs[k] = float64(k) * binWidth
	}

	edges := make([]float64, len(bandEdges))
	copy(edges, bandEdges)

	bandBins := make([][2]int, len(edges)-1)
	for b := range bandBins {
		start := int(math.Ceil(edges[b] / binWidth))
		end := int(math.Ceil(edges[b+1] / binWidth))
		start = max(0, min(start, numBins))
		end = max(start, min(end, numBins))
		bandBins[b] = [2]int{start, end}
	}

	return &Analyzer{
		sampleRate: sampleRate,
		numBins:    numBins,
		freqs:      freqs,
		bandEdges:  edges,
		bandBins:   bandBins,
	}, nil
}

// Compute calculates all descriptors from a magnitude spectrum and its
// matching power spectrum
func (a *Analyzer) Compute(magnitude, power []float64) *Result {
	result := &Result{
		BandEnergies: a.bandEnergies(magnitude),
	}

	totalMag := 0.0
	for _, m := range magnitude {
		totalMag += m
	}

	if totalMag < common.Epsilon {
		// Silent frame; everything stays at its zero value
		return result
	}

	result.Centroid, result.Spread, result.Skewness, result.Kurtosis = a.moments(magnitude, totalMag)
	result.Rolloff = a.rolloff(power)
	result.Flatness = a.flatness(magnitude)
	result.Slope, _ = common.LinRegression(a.freqs, magnitude)
	result.Decrease = a.decrease(magnitude)
	result.HighFrequencyContent = a.highFrequencyContent(magnitude)
	result.Irregularity = a.irregularity(magnitude, totalMag)

	return result
}

// moments computes the magnitude-weighted centroid, spread, skewness and
// excess kurtosis in one pass over the deviations
func (a *Analyzer) moments(magnitude []float64, totalMag float64) (centroid, spread, skewness, kurtosis float64) {
	for k, m := range magnitude {
		centroid += a.freqs[k] * m
	}
	centroid /= totalMag

	var m2, m3, m4 float64
	for k, m := range magnitude {
		d := a.freqs[k] - centroid
		d2 := d * d
		m2 += d2 * m
		m3 += d2 * d * m
		m4 += d2 * d2 * m
	}
	m2 /= totalMag
	m3 /= totalMag
	m4 /= totalMag

	spread = math.Sqrt(m2)
	if spread < common.Epsilon {
		return centroid, 0, 0, 0
	}

	skewness = m3 / (spread * spread * spread)
	kurtosis = m4/(m2*m2) - 3.0

	return centroid, spread, skewness, kurtosis
}

// rolloff returns the first frequency where cumulative power reaches the
// rolloff fraction of total power
func (a *Analyzer) rolloff(power []float64) float64 {
	totalPower := 0.0
	for _, p := range power {
		totalPower += p
	}
	if totalPower < common.Epsilon {
		return 0.0
	}

	threshold := rolloffFraction * totalPower
	cumulative := 0.0
	for k, p := range power {
		cumulative += p
		if cumulative >= threshold {
			return a.freqs[k]
		}
	}

	return a.freqs[len(a.freqs)-1]
}

// flatness returns the geometric/arithmetic mean ratio over non-DC bins
func (a *Analyzer) flatness(magnitude []float64) float64 {
	if len(magnitude) < 2 {
		return 0.0
	}

	logSum := 0.0
	arithSum := 0.0
	count := 0

	for _, m := range magnitude[1:] { // skip DC
		if m > common.Epsilon {
			logSum += math.Log(m)
			arithSum += m
			count++
		}
	}

	if count == 0 || arithSum < common.Epsilon {
		return 0.0
	}

	geoMean := math.Exp(logSum / float64(count))
	arithMean := arithSum / float64(count)

	return geoMean / arithMean
}

// decrease computes the average spectral decrease relative to the first bin
func (a *Analyzer) decrease(magnitude []float64) float64 {
	if len(magnitude) < 2 || magnitude[0] < common.Epsilon {
		return 0.0
	}

	sum := 0.0
	for k := 1; k < len(magnitude); k++ {
		sum += (magnitude[k] - magnitude[0]) / float64(k)
	}

	return sum / magnitude[0]
}

// highFrequencyContent computes the bin-index-weighted magnitude sum
func (a *Analyzer) highFrequencyContent(magnitude []float64) float64 {
	sum := 0.0
	for k, m := range magnitude {
		sum += float64(k+1) * m
	}
	return sum
}

// irregularity sums each interior bin's deviation from its neighbor
// average, normalized by total magnitude
func (a *Analyzer) irregularity(magnitude []float64, totalMag float64) float64 {
	if len(magnitude) < 3 {
		return 0.0
	}

	sum := 0.0
	for k := 1; k < len(magnitude)-1; k++ {
		sum += math.Abs(magnitude[k] - (magnitude[k-1]+magnitude[k+1])/2.0)
	}

	return sum / totalMag
}

// bandEnergies computes the mean squared magnitude inside each configured
// band; empty bands yield zero
func (a *Analyzer) bandEnergies(magnitude []float64) []float64 {
	energies := make([]float64, len(a.bandBins))

	for b, r := range a.bandBins {
		start, end := r[0], r[1]
		if end <= start {
			continue
		}

		sum := 0.0
		for k := start; k < end; k++ {
			sum += magnitude[k] * magnitude[k]
		}
		energies[b] = sum / float64(end-start)
	}

	return energies
}

// NumBands returns the number of configured energy bands
func (a *Analyzer) NumBands() int {
	return len(a.bandBins)
}

// FrequencyBins returns a copy of the bin-to-frequency map
func (a *Analyzer) FrequencyBins() []float64 {
	freqs := make([]float64, len(a.freqs))
	copy(freqs, a.freqs)
	return freqs
}
