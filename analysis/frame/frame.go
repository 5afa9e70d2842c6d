// Package frame converts a raw time-domain sample stream into windowed,
// zero-padded frames ready for transform.
package frame

import (
	"fmt"
	"math"

	"github.com/auralux/spectra/analysis/window"
)

// TimeFrame is one analysis frame produced by a Builder. Samples holds the
// windowed, zero-padded signal; the time-domain descriptors are measured on
// the raw frame before windowing.
type TimeFrame struct {
	Samples []float64 `json:"-"`

	RMS              float64 `json:"rms"`
	ZeroCrossingRate float64 `json:"zero_crossing_rate"`
}

// Builder assembles fixed-length frames from an incoming sample stream,
// retaining overlap from the previous frame, applying the configured
// window, and zero-padding to the transform size.
type Builder struct {
	fftSize    int
	paddedSize int
	overlap    int
	win        *window.Table

	overlapBuf []float64
}

// NewBuilder creates a frame builder. overlap is the number of samples
// retained from the tail of each frame (fftSize - hopSize for classic
// overlap framing, 0 for none).
func NewBuilder(fftSize, paddedSize, overlap int, win *window.Table) (*Builder, error) {
	if fftSize <= 0 {
		return nil, fmt.Errorf("fft size must be positive, got %d", fftSize)
	}
	if paddedSize < fftSize {
		return nil, fmt.Errorf("padded size (%d) must be >= fft size (%d)", paddedSize, fftSize)
	}
	if overlap < 0 || overlap >= fftSize {
		return nil, fmt.Errorf("overlap (%d) must be in [0, fftSize)", overlap)
	}
	if win == nil {
		return nil, fmt.Errorf("window table is required")
	}
	if win.Size() != fftSize {
		return nil, fmt.Errorf("window size (%d) doesn't match fft size (%d)", win.Size(), fftSize)
	}

	return &Builder{
		fftSize:    fftSize,
		paddedSize: paddedSize,
		overlap:    overlap,
		win:        win,
		overlapBuf: make([]float64, overlap),
	}, nil
}

// Build assembles the next frame from samples. Input shorter than the
// available room is zero-filled; input past the frame boundary is ignored.
// Always produces a full-length frame.
func (b *Builder) Build(samples []float64) *TimeFrame {
	raw := make([]float64, b.paddedSize)

	// Retained tail of the previous frame comes first
	copy(raw, b.overlapBuf)

	// Fill the remainder with new samples; anything missing stays zero
	room := b.fftSize - b.overlap
	n := min(len(samples), room)
	copy(raw[b.overlap:], samples[:n])

	// Retain the current frame's tail for the next cycle
	if b.overlap > 0 {
		copy(b.overlapBuf, raw[b.fftSize-b.overlap:b.fftSize])
	}

	tf := &TimeFrame{
		Samples:          raw,
		RMS:              frameRMS(raw[:b.fftSize]),
		ZeroCrossingRate: zeroCrossingRate(raw[:b.fftSize]),
	}

	// Window the live portion; the zero padding is untouched
	_ = b.win.Apply(raw[:b.fftSize])

	return tf
}

// Reset clears the retained overlap
func (b *Builder) Reset() {
	for i := range b.overlapBuf {
		b.overlapBuf[i] = 0.0
	}
}

// FFTSize returns the unpadded frame length
func (b *Builder) FFTSize() int {
	return b.fftSize
}

// PaddedSize returns the transform length after zero-padding
func (b *Builder) PaddedSize() int {
	return b.paddedSize
}

// Overlap returns the number of samples retained between frames
func (b *Builder) Overlap() int {
	return b.overlap
}

func frameRMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, s := range samples {
		sum += s * s
	}

	return math.Sqrt(sum / float64(len(samples)))
}

// zeroCrossingRate counts sign changes per sample
func zeroCrossingRate(samples []float64) float64 {
	if len(samples) < 2 {
		return 0.0
	}

	crossings := 0
	for i := 1; i < len(samples); i++ {
		if (samples[i-1] >= 0) != (samples[i] >= 0) {
			crossings++
		}
	}

	return float64(crossings) / float64(len(samples)-1)
}
