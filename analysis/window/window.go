// Package window provides precomputed window coefficient tables for
// spectral framing.
package window

import "fmt"

// Type identifies a window function
type Type string

const (
	Hann        Type = "hann"
	Hamming     Type = "hamming"
	Blackman    Type = "blackman"
	Kaiser      Type = "kaiser"
	FlatTop     Type = "flattop"
	Rectangular Type = "rectangular"
)

// ParseType converts a window name into a Type
func ParseType(name string) (Type, error) {
	switch Type(name) {
	case Hann, Hamming, Blackman, Kaiser, FlatTop, Rectangular:
		return Type(name), nil
	default:
		return "", fmt.Errorf("unknown window type: %q", name)
	}
}

// Table holds precomputed window coefficients for a fixed size
type Table struct {
	typ          Type
	size         int
	coefficients []float64
}

// New creates a coefficient table for the given window type and size
func New(typ Type, size int) (*Table, error) {
	if size <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", size)
	}

	var coefficients []float64
	switch typ {
	case Hann:
		coefficients = generateHann(size)
	case Hamming:
		coefficients = generateHamming(size)
	case Blackman:
		coefficients = generateBlackman(size)
	case Kaiser:
		coefficients = generateKaiser(size, defaultKaiserBeta)
	case FlatTop:
		coefficients = generateFlatTop(size)
	case Rectangular:
		coefficients = generateRectangular(size)
	default:
		return nil, fmt.Errorf("unknown window type: %q", typ)
	}

	return &Table{
		typ:          typ,
		size:         size,
		coefficients: coefficients,
	}, nil
}

// Apply multiplies signal element-wise by the window coefficients in place
func (t *Table) Apply(signal []float64) error {
	if len(signal) != t.size {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), t.size)
	}

	for i := range signal {
		signal[i] *= t.coefficients[i]
	}

	return nil
}

// Coefficients returns a copy of the window coefficients
func (t *Table) Coefficients() []float64 {
	coeffs := make([]float64, len(t.coefficients))
	copy(coeffs, t.coefficients)
	return coeffs
}

// Size returns the window size
func (t *Table) Size() int {
	return t.size
}

// Type returns the window type
func (t *Table) Type() Type {
	return t.typ
}
