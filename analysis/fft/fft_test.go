package fft

import (
	"math"
	"math/rand"
	"testing"

	dspfft "github.com/mjibson/go-dsp/fft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngineRejectsNonPowerOfTwo(t *testing.T) {
	for _, size := range []int{0, -4, 3, 100, 1000} {
		_, err := NewEngine(size)
		assert.Error(t, err, "size %d", size)
	}

	engine, err := NewEngine(1024)
	require.NoError(t, err)
	assert.Equal(t, 1024, engine.Size())
}

func TestTransformImpulse(t *testing.T) {
	engine, err := NewEngine(16)
	require.NoError(t, err)

	signal := make([]float64, 16)
	signal[0] = 1.0

	re, im, err := engine.TransformReal(signal)
	require.NoError(t, err)

	// The transform of a unit impulse is flat
	for k := range re {
		assert.InDelta(t, 1.0, re[k], 1e-12, "re[%d]", k)
		assert.InDelta(t, 0.0, im[k], 1e-12, "im[%d]", k)
	}
}

func TestTransformDC(t *testing.T) {
	const n = 64
	engine, err := NewEngine(n)
	require.NoError(t, err)

	signal := make([]float64, n)
	for i := range signal {
		signal[i] = 1.0
	}

	re, im, err := engine.TransformReal(signal)
	require.NoError(t, err)

	// Unnormalized: all energy lands in bin 0 with value N
	assert.InDelta(t, float64(n), re[0], 1e-9)
	for k := 1; k < n; k++ {
		assert.InDelta(t, 0.0, re[k], 1e-9)
		assert.InDelta(t, 0.0, im[k], 1e-9)
	}
}

func TestTransformSineLocalization(t *testing.T) {
	const n = 64
	const bin = 8

	engine, err := NewEngine(n)
	require.NoError(t, err)

	signal := make([]float64, n)
	for i := range signal {
		signal[i] = math.Sin(2.0 * math.Pi * bin * float64(i) / n)
	}

	re, im, err := engine.TransformReal(signal)
	require.NoError(t, err)

	// A bin-aligned sine concentrates at its bin with magnitude N/2
	mag := math.Hypot(re[bin], im[bin])
	assert.InDelta(t, float64(n)/2.0, mag, 1e-9)
	assert.InDelta(t, -float64(n)/2.0, im[bin], 1e-9)

	for k := 0; k < n/2; k++ {
		if k == bin {
			continue
		}
		assert.InDelta(t, 0.0, math.Hypot(re[k], im[k]), 1e-9, "bin %d", k)
	}
}

func TestTransformParseval(t *testing.T) {
	const n = 256
	engine, err := NewEngine(n)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	signal := make([]float64, n)
	timeEnergy := 0.0
	for i := range signal {
		signal[i] = rng.Float64()*2.0 - 1.0
		timeEnergy += signal[i] * signal[i]
	}

	re, im, err := engine.TransformReal(signal)
	require.NoError(t, err)

	freqEnergy := 0.0
	for k := range re {
		freqEnergy += re[k]*re[k] + im[k]*im[k]
	}

	// Unnormalized transform: spectral energy is N times time energy
	assert.InDelta(t, float64(n)*timeEnergy, freqEnergy, 1e-5)
}

func TestTransformMatchesReference(t *testing.T) {
	const n = 512
	engine, err := NewEngine(n)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	signal := make([]float64, n)
	for i := range signal {
		signal[i] = rng.NormFloat64()
	}

	re, im, err := engine.TransformReal(signal)
	require.NoError(t, err)

	want := dspfft.FFTReal(signal)
	require.Len(t, want, n)

	for k := range want {
		assert.InDelta(t, real(want[k]), re[k], 1e-8, "re[%d]", k)
		assert.InDelta(t, imag(want[k]), im[k], 1e-8, "im[%d]", k)
	}
}

func TestTransformLengthChecks(t *testing.T) {
	engine, err := NewEngine(32)
	require.NoError(t, err)

	err = engine.Transform(make([]float64, 16), make([]float64, 32))
	assert.Error(t, err)

	_, _, err = engine.TransformReal(make([]float64, 16))
	assert.Error(t, err)
}
