package window

import "math"

// generateBlackman creates symmetric Blackman window coefficients using the
// conventional a0=0.42, a1=0.5, a2=0.08 terms
func generateBlackman(size int) []float64 {
	coefficients := make([]float64, size)

	if size == 1 {
		coefficients[0] = 1.0
		return coefficients
	}

	denominator := float64(size - 1)
	for i := range size {
		phase := 2 * math.Pi * float64(i) / denominator
		coefficients[i] = 0.42 - 0.5*math.Cos(phase) + 0.08*math.Cos(2*phase)
	}

	return coefficients
}
