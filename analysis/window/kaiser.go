package window

import "math"

// defaultKaiserBeta gives sidelobe attenuation comparable to a Blackman
// window
const defaultKaiserBeta = 8.6

// generateKaiser creates symmetric Kaiser window coefficients for the given
// shape parameter beta
func generateKaiser(size int, beta float64) []float64 {
	coefficients := make([]float64, size)

	if size == 1 {
		coefficients[0] = 1.0
		return coefficients
	}

	denominator := float64(size - 1)
	i0Beta := besselI0(beta)

	for i := range size {
		arg := 2.0*float64(i)/denominator - 1.0
		coefficients[i] = besselI0(beta*math.Sqrt(1-arg*arg)) / i0Beta
	}

	return coefficients
}

// besselI0 computes the zero-order modified Bessel function of the first
// kind via series expansion, truncated once terms fall below 1e-12
func besselI0(x float64) float64 {
	sum := 1.0
	term := 1.0

	for i := 1; i < 50; i++ {
		term *= (x / (2.0 * float64(i))) * (x / (2.0 * float64(i)))
		sum += term

		if term < 1e-12 {
			break
		}
	}

	return sum
}
