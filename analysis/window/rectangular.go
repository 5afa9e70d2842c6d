package window

// generateRectangular creates all-ones coefficients. Mostly useful for
// tests that need windowing loss out of the picture.
func generateRectangular(size int) []float64 {
	coefficients := make([]float64, size)
	for i := range coefficients {
		coefficients[i] = 1.0
	}
	return coefficients
}
