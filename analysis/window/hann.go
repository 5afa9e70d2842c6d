package window

import "math"

// generateHann creates symmetric Hann window coefficients
func generateHann(size int) []float64 {
	coefficients := make([]float64, size)

	if size == 1 {
		coefficients[0] = 1.0
		return coefficients
	}

	denominator := float64(size - 1)
	for i := range size {
		coefficients[i] = 0.5 * (1.0 - math.Cos(2*math.Pi*float64(i)/denominator))
	}

	return coefficients
}
