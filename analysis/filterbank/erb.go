package filterbank

import (
	"fmt"
	"math"
)

// HzToERB converts frequency in Hz to the ERB-rate scale
func HzToERB(hz float64) float64 {
	return 21.4 * math.Log10(1.0+0.00437*hz)
}

// ERBBandwidth returns the equivalent rectangular bandwidth in Hz at a
// center frequency, per Glasberg & Moore (1990)
func ERBBandwidth(hz float64) float64 {
	return 24.7 * (4.37*hz/1000.0 + 1.0)
}

// NewERBBank builds a Gaussian ERB filter bank. Band centers are uniform
// on the ERB-rate scale; each filter is a Gaussian in linear frequency
// whose sigma is half the equivalent rectangular bandwidth at its center.
func NewERBBank(numBands, numBins, sampleRate int, lowFreq, highFreq float64) (*Bank, error) {
	if numBands <= 0 {
		return nil, fmt.Errorf("erb band count must be positive, got %d", numBands)
	}
	if numBins <= 0 {
		return nil, fmt.Errorf("bin count must be positive, got %d", numBins)
	}
	if lowFreq < 0 || lowFreq >= highFreq {
		return nil, fmt.Errorf("invalid erb frequency range [%g, %g]", lowFreq, highFreq)
	}

	lowERB := HzToERB(lowFreq)
	highERB := HzToERB(highFreq)
	step := (highERB - lowERB) / float64(numBands+1)

	weights := make([][]float64, numBands)
	centerFreqs := make([]float64, numBands)

	for b := range numBands {
		centerERB := lowERB + float64(b+1)*step

		// Invert the ERB-rate formula for the center frequency
		centerFreq := (math.Pow(10.0, centerERB/21.4) - 1.0) / 0.00437
		sigma := ERBBandwidth(centerFreq) / 2.0

		row := make([]float64, numBins)
		for k := range numBins {
			f := binFrequency(k, numBins, sampleRate)
			d := (f - centerFreq) / sigma
			row[k] = math.Exp(-0.5 * d * d)
		}

		weights[b] = row
		centerFreqs[b] = centerFreq
	}

	return newBank(weights, centerFreqs, numBins), nil
}
