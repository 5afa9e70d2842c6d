// Package pipeline assembles the full analysis chain: framing, transform,
// and the fan-out to every feature extractor, producing one immutable
// FeatureFrame per cycle.
package pipeline

import (
	"fmt"
	"time"

	"github.com/auralux/spectra/analysis/cepstral"
	"github.com/auralux/spectra/analysis/chroma"
	"github.com/auralux/spectra/analysis/fft"
	"github.com/auralux/spectra/analysis/filterbank"
	"github.com/auralux/spectra/analysis/frame"
	"github.com/auralux/spectra/analysis/harmonic"
	"github.com/auralux/spectra/analysis/perceptual"
	"github.com/auralux/spectra/analysis/spectral"
	"github.com/auralux/spectra/analysis/tonal"
	"github.com/auralux/spectra/analysis/window"
	"github.com/auralux/spectra/logging"
)

// stage is one feature extractor in the fixed processing order. Each stage
// reads the spectral frame and writes its own section of the feature
// frame; stages later in the list may read sections written earlier.
type stage interface {
	name() string
	extract(sf *SpectralFrame, ff *FeatureFrame)
}

// Pipeline converts a raw sample stream into FeatureFrames. It is
// stateful and not reentrant: one call to Process must complete before the
// next begins, because history is read and written within the same cycle.
type Pipeline struct {
	cfg    Config
	logger logging.Logger

	win     *window.Table
	builder *frame.Builder
	engine  *fft.Engine
	banks   *filterbank.Set
	cache   *filterbank.Cache

	stages  []stage
	history *TemporalHistory

	// Transform scratch, allocated once per configuration
	re []float64
	im []float64

	frameIndex int
}

// New creates a pipeline from a validated configuration
func New(cfg Config) (*Pipeline, error) {
	p := &Pipeline{
		logger: logging.WithFields(logging.Fields{"component": "pipeline"}),
		cache:  filterbank.NewCache(),
	}

	if err := p.initialize(cfg); err != nil {
		return nil, err
	}

	p.logger.Info("pipeline initialized", logging.Fields{
		"sample_rate": cfg.SampleRate,
		"fft_size":    cfg.FFTSize,
		"hop_size":    cfg.HopSize,
		"padded_size": cfg.PaddedSize(),
	})

	return p, nil
}

// initialize builds all derived state from cfg. Used by both construction
// and reconfiguration.
func (p *Pipeline) initialize(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid pipeline config: %w", err)
	}

	winType, err := window.ParseType(cfg.Window)
	if err != nil {
		return err
	}

	win, err := window.New(winType, cfg.FFTSize)
	if err != nil {
		return err
	}

	builder, err := frame.NewBuilder(cfg.FFTSize, cfg.PaddedSize(), cfg.FFTSize-cfg.HopSize, win)
	if err != nil {
		return err
	}

	engine, err := fft.NewEngine(cfg.PaddedSize())
	if err != nil {
		return err
	}

	banks, err := p.cache.Get(filterbank.Params{
		SampleRate:    cfg.SampleRate,
		NumBins:       cfg.NumBins(),
		MelBands:      cfg.MelBands,
		MelMinFreq:    cfg.MelMinFreq,
		MelMaxFreq:    cfg.MelMaxFreq,
		ChromaBins:    cfg.ChromaBins,
		ChromaMinFreq: cfg.ChromaMinFreq,
		ChromaMaxFreq: cfg.ChromaMaxFreq,
		BarkBands:     cfg.BarkBands,
		ERBBands:      cfg.ERBBands,
	})
	if err != nil {
		return err
	}

	history := newTemporalHistory(cfg)

	stages, err := buildStages(cfg, banks, history)
	if err != nil {
		return err
	}

	p.cfg = cfg
	p.win = win
	p.builder = builder
	p.engine = engine
	p.banks = banks
	p.history = history
	p.stages = stages
	p.re = make([]float64, cfg.PaddedSize())
	p.im = make([]float64, cfg.PaddedSize())
	p.frameIndex = 0

	return nil
}

// buildStages constructs the ordered extractor list. Order matters: the
// key stage reads the chroma stage's output.
func buildStages(cfg Config, banks *filterbank.Set, history *TemporalHistory) ([]stage, error) {
	statsAnalyzer, err := spectral.NewAnalyzer(cfg.SampleRate, cfg.NumBins(), cfg.BandEdges)
	if err != nil {
		return nil, err
	}

	mfccExtractor, err := cepstral.NewExtractor(cfg.MFCCCoefficients, cfg.LifterParam, banks.Mel)
	if err != nil {
		return nil, err
	}

	chromaExtractor, err := chroma.NewExtractor(banks.Chroma, cfg.ChromaSmoothing)
	if err != nil {
		return nil, err
	}

	keyEstimator, err := tonal.NewEstimator(cfg.ChromaBins, cfg.KeySmoothing, cfg.KeyThreshold)
	if err != nil {
		// Key estimation only works on 12-class chroma; other sizes skip it
		keyEstimator = nil
	}

	harmonicAnalyzer, err := harmonic.NewAnalyzer(
		cfg.SampleRate, cfg.NumBins(), cfg.HarmonicCount,
		cfg.PitchMinFreq, cfg.PitchMaxFreq, cfg.PitchSmoothing, cfg.PitchThreshold)
	if err != nil {
		return nil, err
	}

	perceptualModel, err := perceptual.NewModel(cfg.SampleRate, cfg.NumBins(), banks.Bark)
	if err != nil {
		return nil, err
	}

	stages := []stage{
		&spectralStage{analyzer: statsAnalyzer},
		&cepstralStage{extractor: mfccExtractor, history: history},
		&erbStage{bank: banks.ERB},
		&chromaStage{extractor: chromaExtractor, history: history},
	}
	if keyEstimator != nil {
		stages = append(stages, &keyStage{estimator: keyEstimator})
	}
	stages = append(stages,
		&harmonicStage{analyzer: harmonicAnalyzer},
		&perceptualStage{model: perceptualModel},
	)

	return stages, nil
}

// Process runs one full analysis cycle over the next hop of samples.
// Input shorter than the hop is zero-filled. The returned frame is
// immutable; the caller must not modify its slices.
func (p *Pipeline) Process(samples []float64) *FeatureFrame {
	tf := p.builder.Build(samples)

	copy(p.re, tf.Samples)
	for i := range p.im {
		p.im[i] = 0.0
	}
	// Engine size always matches the scratch length; the error path is
	// unreachable under a valid configuration
	_ = p.engine.Transform(p.re, p.im)

	sf := newSpectralFrame(p.re, p.im, p.cfg.BinWidth())

	ff := &FeatureFrame{
		Index:            p.frameIndex,
		Timestamp:        time.Now(),
		RMS:              tf.RMS,
		LevelDB:          levelDB(tf.RMS),
		ZeroCrossingRate: tf.ZeroCrossingRate,
	}

	for _, s := range p.stages {
		s.extract(sf, ff)
	}

	ff.Flux = p.history.SpectralFlux(sf.Magnitude)
	ff.Onset = p.history.ObserveFlux(ff.Flux)

	// History updates happen last so every stage saw the previous frame
	p.history.Spectral.Push(sf.Magnitude)
	if ff.Chroma != nil {
		p.history.Chroma.Push(ff.Chroma.Smoothed)
	}
	p.history.MFCC.Push(ff.MFCC)
	p.history.Delta.Push(ff.MFCCDelta)

	p.frameIndex++

	return ff
}

// Reconfigure replaces the configuration, rebuilding filter banks and
// derived state and clearing all history. It must not be called while a
// Process call is in progress.
func (p *Pipeline) Reconfigure(cfg Config) error {
	if err := p.initialize(cfg); err != nil {
		return err
	}

	p.logger.Info("pipeline reconfigured", logging.Fields{
		"sample_rate": cfg.SampleRate,
		"fft_size":    cfg.FFTSize,
		"hop_size":    cfg.HopSize,
	})

	return nil
}

// Config returns the active configuration
func (p *Pipeline) Config() Config {
	return p.cfg
}

// FilterBanks returns the active filter bank set. Banks are immutable and
// may be read concurrently.
func (p *Pipeline) FilterBanks() *filterbank.Set {
	return p.banks
}

// History exposes the temporal history rings (read-only use)
func (p *Pipeline) History() *TemporalHistory {
	return p.history
}

// FrameIndex returns the index of the next frame to be produced
func (p *Pipeline) FrameIndex() int {
	return p.frameIndex
}

// Stage adapters

type spectralStage struct {
	analyzer *spectral.Analyzer
}

func (s *spectralStage) name() string { return "spectral" }

func (s *spectralStage) extract(sf *SpectralFrame, ff *FeatureFrame) {
	ff.Spectral = s.analyzer.Compute(sf.Magnitude, sf.Power)
}

type cepstralStage struct {
	extractor *cepstral.Extractor
	history   *TemporalHistory
}

func (s *cepstralStage) name() string { return "cepstral" }

func (s *cepstralStage) extract(sf *SpectralFrame, ff *FeatureFrame) {
	result := s.extractor.Compute(sf.Magnitude)
	ff.MelSpectrum = result.MelSpectrum
	ff.MFCC = result.MFCC
	ff.MFCCDelta = cepstral.Delta(result.MFCC, s.history.MFCC.At(0))
	ff.MFCCDelta2 = cepstral.Delta(ff.MFCCDelta, s.history.Delta.At(0))
}

type erbStage struct {
	bank *filterbank.Bank
}

func (s *erbStage) name() string { return "erb" }

func (s *erbStage) extract(sf *SpectralFrame, ff *FeatureFrame) {
	ff.ERBSpectrum = s.bank.Apply(sf.Magnitude)
}

type chromaStage struct {
	extractor *chroma.Extractor
	history   *TemporalHistory
}

func (s *chromaStage) name() string { return "chroma" }

func (s *chromaStage) extract(sf *SpectralFrame, ff *FeatureFrame) {
	ff.Chroma = s.extractor.Compute(sf.Magnitude, s.history.Chroma.At(0))
}

type keyStage struct {
	estimator *tonal.Estimator
}

func (s *keyStage) name() string { return "key" }

func (s *keyStage) extract(sf *SpectralFrame, ff *FeatureFrame) {
	if ff.Chroma != nil {
		ff.Key = s.estimator.Estimate(ff.Chroma.Smoothed)
	}
}

type harmonicStage struct {
	analyzer *harmonic.Analyzer
}

func (s *harmonicStage) name() string { return "harmonic" }

func (s *harmonicStage) extract(sf *SpectralFrame, ff *FeatureFrame) {
	ff.Harmonic = s.analyzer.Compute(sf.Magnitude)
}

type perceptualStage struct {
	model *perceptual.Model
}

func (s *perceptualStage) name() string { return "perceptual" }

func (s *perceptualStage) extract(sf *SpectralFrame, ff *FeatureFrame) {
	ff.Perceptual = s.model.Compute(sf.Magnitude)
}
