package filterbank

import (
	"fmt"
	"math"
)

// HzToMel converts frequency in Hz to the mel scale
func HzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

// MelToHz converts mel scale to frequency in Hz
func MelToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
}

// NewMelBank builds a triangular mel filter bank. Filters are spaced
// evenly in mel-warped frequency using numFilters+2 boundary points; each
// filter rises linearly from its left edge to its center and falls
// linearly to its right edge.
func NewMelBank(numFilters, numBins, sampleRate int, lowFreq, highFreq float64) (*Bank, error) {
	if numFilters <= 0 {
		return nil, fmt.Errorf("mel filter count must be positive, got %d", numFilters)
	}
	if numBins <= 0 {
		return nil, fmt.Errorf("bin count must be positive, got %d", numBins)
	}
	if lowFreq < 0 || lowFreq >= highFreq {
		return nil, fmt.Errorf("invalid mel frequency range [%g, %g]", lowFreq, highFreq)
	}

	// Boundary points equally spaced in mel
	lowMel := HzToMel(lowFreq)
	highMel := HzToMel(highFreq)
	melStep := (highMel - lowMel) / float64(numFilters+1)

	hzPoints := make([]float64, numFilters+2)
	for i := range hzPoints {
		hzPoints[i] = MelToHz(lowMel + float64(i)*melStep)
	}

	binWidth := float64(sampleRate) / float64(numBins*2)
	binPoints := make([]int, len(hzPoints))
	for i, hz := range hzPoints {
		binPoints[i] = min(int(math.Floor(hz/binWidth+0.5)), numBins-1)
	}

	weights := make([][]float64, numFilters)
	centerFreqs := make([]float64, numFilters)

	for m := 1; m <= numFilters; m++ {
		row := make([]float64, numBins)
		leftBin := binPoints[m-1]
		centerBin := binPoints[m]
		rightBin := binPoints[m+1]

		// Rising edge
		for k := leftBin; k < centerBin && k < numBins; k++ {
			if centerBin != leftBin {
				row[k] = float64(k-leftBin) / float64(centerBin-leftBin)
			}
		}

		// Falling edge
		for k := centerBin; k < rightBin && k < numBins; k++ {
			if rightBin != centerBin {
				row[k] = float64(rightBin-k) / float64(rightBin-centerBin)
			}
		}

		weights[m-1] = row
		centerFreqs[m-1] = hzPoints[m]
	}

	return newBank(weights, centerFreqs, numBins), nil
}
