package filterbank

import (
	"fmt"
	"math"
)

// chromaSigma is the width of the pitch-class Gaussian in semitones
const chromaSigma = 0.5

// tuningFreq is the reference A4 frequency used for semitone mapping
const tuningFreq = 440.0

// NewChromaBank builds a chroma filter bank. Each of numClasses pitch
// classes gets a periodic Gaussian in semitone distance around its target
// class, wrapped circularly, restricted to [lowFreq, highFreq], then
// L1-normalized so every row sums to one.
func NewChromaBank(numClasses, numBins, sampleRate int, lowFreq, highFreq float64) (*Bank, error) {
	if numClasses <= 0 {
		return nil, fmt.Errorf("chroma class count must be positive, got %d", numClasses)
	}
	if numBins <= 0 {
		return nil, fmt.Errorf("bin count must be positive, got %d", numBins)
	}
	if lowFreq <= 0 || lowFreq >= highFreq {
		return nil, fmt.Errorf("invalid chroma frequency range [%g, %g]", lowFreq, highFreq)
	}

	// Fractional pitch class per bin, in units of numClasses per octave.
	// A4 maps to class 9 (A) in the conventional 12-class layout.
	classPerSemitone := float64(numClasses) / 12.0
	refClass := 9.0 * classPerSemitone

	binClass := make([]float64, numBins)
	for k := range numBins {
		f := binFrequency(k, numBins, sampleRate)
		if f <= 0 {
			binClass[k] = -1
			continue
		}
		semitones := 12.0 * math.Log2(f/tuningFreq)
		class := math.Mod(refClass+semitones*classPerSemitone, float64(numClasses))
		if class < 0 {
			class += float64(numClasses)
		}
		binClass[k] = class
	}

	sigma := chromaSigma * classPerSemitone
	weights := make([][]float64, numClasses)
	centerFreqs := make([]float64, numClasses)

	for c := range numClasses {
		row := make([]float64, numBins)
		sum := 0.0

		for k := range numBins {
			f := binFrequency(k, numBins, sampleRate)
			if f < lowFreq || f > highFreq || binClass[k] < 0 {
				continue
			}

			// Circular semitone distance to the target class
			diff := math.Abs(binClass[k] - float64(c))
			diff = math.Min(diff, float64(numClasses)-diff)

			w := math.Exp(-0.5 * (diff / sigma) * (diff / sigma))
			row[k] = w
			sum += w
		}

		// L1 normalization per filter
		if sum > 0 {
			for k := range row {
				row[k] /= sum
			}
		}

		weights[c] = row

		// Center frequency of the class in the octave containing A4
		semitoneOffset := (float64(c) - refClass) / classPerSemitone
		centerFreqs[c] = tuningFreq * math.Pow(2.0, semitoneOffset/12.0)
	}

	return newBank(weights, centerFreqs, numBins), nil
}
