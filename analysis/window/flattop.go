package window

import "math"

// Five-term flat-top coefficients (SR785 convention). Optimized for
// amplitude accuracy rather than frequency resolution.
const (
	flatTopA0 = 0.21557895
	flatTopA1 = 0.41663158
	flatTopA2 = 0.277263158
	flatTopA3 = 0.083578947
	flatTopA4 = 0.006947368
)

// generateFlatTop creates symmetric flat-top window coefficients
func generateFlatTop(size int) []float64 {
	coefficients := make([]float64, size)

	if size == 1 {
		coefficients[0] = 1.0
		return coefficients
	}

	denominator := float64(size - 1)
	for i := range size {
		phase := 2 * math.Pi * float64(i) / denominator
		coefficients[i] = flatTopA0 -
			flatTopA1*math.Cos(phase) +
			flatTopA2*math.Cos(2*phase) -
			flatTopA3*math.Cos(3*phase) +
			flatTopA4*math.Cos(4*phase)
	}

	return coefficients
}
