package filterbank

import (
	"fmt"
	"math"
)

// HzToBark converts frequency in Hz to the Bark scale using the
// Zwicker & Terhardt (1980) formula
func HzToBark(hz float64) float64 {
	return 13.0*math.Atan(0.00076*hz) + 3.5*math.Atan((hz/7500.0)*(hz/7500.0))
}

// NewBarkBank builds a triangular Bark filter bank. Band centers are
// uniform on the Bark scale; since the Zwicker formula has no closed-form
// inverse, the triangles are evaluated directly in the Bark domain: weight
// falls linearly from 1 at the center to 0 one band-step away.
func NewBarkBank(numBands, numBins, sampleRate int, lowFreq, highFreq float64) (*Bank, error) {
	if numBands <= 0 {
		return nil, fmt.Errorf("bark band count must be positive, got %d", numBands)
	}
	if numBins <= 0 {
		return nil, fmt.Errorf("bin count must be positive, got %d", numBins)
	}
	if lowFreq < 0 || lowFreq >= highFreq {
		return nil, fmt.Errorf("invalid bark frequency range [%g, %g]", lowFreq, highFreq)
	}

	lowBark := HzToBark(lowFreq)
	highBark := HzToBark(highFreq)
	step := (highBark - lowBark) / float64(numBands+1)

	// Bark value per bin, computed once
	binBark := make([]float64, numBins)
	for k := range numBins {
		binBark[k] = HzToBark(binFrequency(k, numBins, sampleRate))
	}

	weights := make([][]float64, numBands)
	centerFreqs := make([]float64, numBands)

	for b := range numBands {
		center := lowBark + float64(b+1)*step
		row := make([]float64, numBins)

		centerFreq := 0.0
		bestDist := math.Inf(1)
		for k := range numBins {
			dist := math.Abs(binBark[k] - center)
			if dist < step {
				row[k] = 1.0 - dist/step
			}
			if dist < bestDist {
				bestDist = dist
				centerFreq = binFrequency(k, numBins, sampleRate)
			}
		}

		weights[b] = row
		centerFreqs[b] = centerFreq
	}

	return newBank(weights, centerFreqs, numBins), nil
}
