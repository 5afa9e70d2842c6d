package pipeline

import (
	"math"

	"github.com/auralux/spectra/analysis/common"
)

// onsetFactor scales the recent mean flux to form the onset threshold
const onsetFactor = 1.5

// fluxHistorySize bounds the flux ring used for the adaptive onset
// threshold
const fluxHistorySize = 32

// TemporalHistory holds the bounded per-frame rings that feed delta,
// smoothing, and onset computations. It is owned by exactly one pipeline
// instance; index 0 of every ring is the most recent frame.
type TemporalHistory struct {
	Spectral *common.FrameRing
	Chroma   *common.FrameRing
	MFCC     *common.FrameRing
	Delta    *common.FrameRing

	flux *common.ScalarRing
}

// newTemporalHistory allocates rings with the configured capacities. The
// delta ring shares the MFCC capacity since delta-delta needs exactly the
// same depth.
func newTemporalHistory(cfg Config) *TemporalHistory {
	return &TemporalHistory{
		Spectral: common.NewFrameRing(cfg.SpectralHistorySize),
		Chroma:   common.NewFrameRing(cfg.ChromaHistorySize),
		MFCC:     common.NewFrameRing(cfg.MFCCHistorySize),
		Delta:    common.NewFrameRing(cfg.MFCCHistorySize),
		flux:     common.NewScalarRing(fluxHistorySize),
	}
}

// SpectralFlux computes the half-wave rectified magnitude increase against
// the most recent stored spectrum, normalized by bin count. Returns 0 on
// the first frame.
func (h *TemporalHistory) SpectralFlux(magnitude []float64) float64 {
	previous := h.Spectral.At(0)
	if len(previous) != len(magnitude) {
		return 0.0
	}

	sum := 0.0
	for k := range magnitude {
		if d := magnitude[k] - previous[k]; d > 0 {
			sum += d
		}
	}

	return sum / float64(len(magnitude))
}

// ObserveFlux records a flux value and reports whether it constitutes an
// onset relative to the adaptive threshold over recent flux
func (h *TemporalHistory) ObserveFlux(flux float64) bool {
	meanFlux := h.flux.Mean()
	h.flux.Push(flux)

	if h.flux.Len() < 2 {
		return false
	}

	return flux > onsetFactor*meanFlux+common.Epsilon && flux > common.Epsilon
}

// Clear drops all history, as required after reconfiguration
func (h *TemporalHistory) Clear() {
	h.Spectral.Clear()
	h.Chroma.Clear()
	h.MFCC.Clear()
	h.Delta.Clear()
	h.flux.Clear()
}

// levelDB converts an RMS level to decibels with a silence floor of
// -120 dB
func levelDB(rms float64) float64 {
	if rms < common.Epsilon {
		return -120.0
	}
	return math.Max(20.0*math.Log10(rms), -120.0)
}
