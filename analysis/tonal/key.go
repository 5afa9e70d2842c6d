// Package tonal estimates the musical key of a chroma stream.
package tonal

import (
	"fmt"

	"github.com/auralux/spectra/analysis/common"
)

// Mode represents major or minor mode
type Mode int

const (
	ModeMajor Mode = iota
	ModeMinor
)

func (m Mode) String() string {
	if m == ModeMinor {
		return "minor"
	}
	return "major"
}

var rootNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Krumhansl-Schmuckler profiles, empirically derived from listener
// probe-tone ratings
var (
	krumhanslMajor = []float64{6.35, 2.23, 3.48, 2.33, 4.38, 4.09, 2.52, 5.19, 2.39, 3.66, 2.29, 2.88}
	krumhanslMinor = []float64{6.33, 2.68, 3.52, 5.38, 2.60, 3.53, 2.54, 4.75, 3.98, 2.69, 3.34, 3.17}
)

// Estimate is the committed key for one frame
type Estimate struct {
	Root       int     `json:"root"`       // Pitch class of the tonic (0=C .. 11=B)
	RootName   string  `json:"root_name"`  // Human-readable root
	Mode       Mode    `json:"mode"`       // Major or minor
	ModeName   string  `json:"mode_name"`  // "major" or "minor"
	Confidence float64 `json:"confidence"` // Smoothed best-template correlation
	Changed    bool    `json:"changed"`    // True when this frame committed a new key
}

// Estimator correlates chroma vectors against the 24 rotated
// Krumhansl-Schmuckler templates and tracks a committed key across frames.
// A key change is only committed once the smoothed confidence clears the
// threshold, which suppresses single-frame flicker.
type Estimator struct {
	numClasses int
	threshold  float64
	smoothing  float64

	// 24 templates: index = root for major, 12+root for minor
	templates [][]float64

	// Tracker state
	committedRoot      int
	committedMode      Mode
	smoothedConfidence float64
	haveCommitted      bool
}

// NewEstimator creates a key estimator for chroma vectors of numClasses
// pitch classes. Only 12-class chroma carries key information; other sizes
// are rejected. smoothing in [0, 1) weights the previous confidence;
// threshold gates key commits.
func NewEstimator(numClasses int, smoothing, threshold float64) (*Estimator, error) {
	if numClasses != len(rootNames) {
		return nil, fmt.Errorf("key estimation requires 12 chroma classes, got %d", numClasses)
	}
	if smoothing < 0 || smoothing >= 1 {
		return nil, fmt.Errorf("smoothing factor must be in [0, 1), got %g", smoothing)
	}
	if threshold <= 0 || threshold >= 1 {
		return nil, fmt.Errorf("confidence threshold must be in (0, 1), got %g", threshold)
	}

	e := &Estimator{
		numClasses: numClasses,
		threshold:  threshold,
		smoothing:  smoothing,
	}
	e.buildTemplates()

	return e, nil
}

// buildTemplates rotates the major and minor profiles to each of the 12
// roots
func (e *Estimator) buildTemplates() {
	e.templates = make([][]float64, 24)

	for root := 0; root < 12; root++ {
		major := make([]float64, 12)
		minor := make([]float64, 12)
		for i := 0; i < 12; i++ {
			// Template value at pitch class i for a key rooted at root
			major[i] = krumhanslMajor[(i-root+12)%12]
			minor[i] = krumhanslMinor[(i-root+12)%12]
		}
		e.templates[root] = major
		e.templates[12+root] = minor
	}
}

// Estimate updates the tracker with one normalized chroma vector and
// returns the committed key
func (e *Estimator) Estimate(chromaVector []float64) *Estimate {
	bestIdx := 0
	bestCorr := -1.0

	for idx, template := range e.templates {
		corr := common.CosineSimilarity(chromaVector, template)
		if corr > bestCorr {
			bestCorr = corr
			bestIdx = idx
		}
	}

	bestRoot := bestIdx % 12
	bestMode := ModeMajor
	if bestIdx >= 12 {
		bestMode = ModeMinor
	}

	e.smoothedConfidence = e.smoothing*e.smoothedConfidence + (1.0-e.smoothing)*bestCorr

	changed := false
	if !e.haveCommitted {
		e.committedRoot = bestRoot
		e.committedMode = bestMode
		e.haveCommitted = true
		changed = true
	} else if (bestRoot != e.committedRoot || bestMode != e.committedMode) &&
		e.smoothedConfidence > e.threshold {
		e.committedRoot = bestRoot
		e.committedMode = bestMode
		changed = true
	}

	return &Estimate{
		Root:       e.committedRoot,
		RootName:   rootNames[e.committedRoot],
		Mode:       e.committedMode,
		ModeName:   e.committedMode.String(),
		Confidence: e.smoothedConfidence,
		Changed:    changed,
	}
}

// Reset clears the tracker state
func (e *Estimator) Reset() {
	e.committedRoot = 0
	e.committedMode = ModeMajor
	e.smoothedConfidence = 0.0
	e.haveCommitted = false
}

// RootName returns the name of a pitch class
func RootName(root int) string {
	return rootNames[((root%12)+12)%12]
}
