package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/auralux/spectra/decode"
	"github.com/auralux/spectra/pipeline"
)

var (
	analyzeConfigPath  string
	analyzeFFTSize     int
	analyzeHopSize     int
	analyzeWindow      string
	analyzeSampleRate  int
	analyzeMaxDuration time.Duration
	analyzeMaxFrames   int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Extract feature frames from an audio file",
	Long: `Decode an audio file (any format FFmpeg understands, or "-" for
stdin) and run the full analysis pipeline over it, emitting one feature
frame per hop.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeConfigPath, "analysis-config", "",
		"pipeline config file (YAML or JSON); defaults apply when empty")
	analyzeCmd.Flags().IntVar(&analyzeFFTSize, "fft-size", 0,
		"FFT size override (power of two)")
	analyzeCmd.Flags().IntVar(&analyzeHopSize, "hop-size", 0,
		"hop size override in samples")
	analyzeCmd.Flags().StringVar(&analyzeWindow, "window", "",
		"window function override (hann, hamming, blackman, kaiser, flattop)")
	analyzeCmd.Flags().IntVar(&analyzeSampleRate, "sample-rate", 0,
		"sample rate override in Hz")
	analyzeCmd.Flags().DurationVar(&analyzeMaxDuration, "max-duration", 0,
		"stop decoding after this much audio (0 = whole input)")
	analyzeCmd.Flags().IntVar(&analyzeMaxFrames, "max-frames", 0,
		"stop after this many frames (0 = all)")
}

// analysisConfig resolves the pipeline configuration from file and flag
// overrides
func analysisConfig() (pipeline.Config, error) {
	cfg := pipeline.DefaultConfig()

	if analyzeConfigPath != "" {
		loaded, err := pipeline.LoadConfig(analyzeConfigPath)
		if err != nil {
			return pipeline.Config{}, err
		}
		cfg = loaded
	}

	if analyzeFFTSize > 0 {
		cfg.FFTSize = analyzeFFTSize
	}
	if analyzeHopSize > 0 {
		cfg.HopSize = analyzeHopSize
	}
	if analyzeWindow != "" {
		cfg.Window = analyzeWindow
	}
	if analyzeSampleRate > 0 {
		cfg.SampleRate = analyzeSampleRate
	}

	return cfg, cfg.Validate()
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := analysisConfig()
	if err != nil {
		return err
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}

	decCfg := decode.DefaultConfig()
	decCfg.SampleRate = cfg.SampleRate
	decCfg.MaxDuration = analyzeMaxDuration
	dec := decode.NewDecoder(decCfg)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var audio *decode.Audio
	if args[0] == "-" {
		audio, err = dec.DecodeReader(ctx, os.Stdin)
	} else {
		audio, err = dec.DecodeFile(ctx, args[0])
	}
	if err != nil {
		return err
	}

	frames := runPipeline(p, audio.Samples, cfg.HopSize)

	switch outputFormat {
	case "jsonl":
		enc := json.NewEncoder(os.Stdout)
		for _, frame := range frames {
			if err := enc.Encode(frame); err != nil {
				return err
			}
		}
		return nil
	case "summary":
		return printSummary(os.Stdout, audio, frames)
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return enc.Encode(frames)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(frames)
	default:
		return fmt.Errorf("unknown output format %q (want json, jsonl, yaml or summary)", outputFormat)
	}
}

// runPipeline feeds the sample stream through the pipeline one hop at a
// time
func runPipeline(p *pipeline.Pipeline, samples []float64, hopSize int) []*pipeline.FeatureFrame {
	var frames []*pipeline.FeatureFrame

	for start := 0; start < len(samples); start += hopSize {
		end := min(start+hopSize, len(samples))
		frames = append(frames, p.Process(samples[start:end]))

		if analyzeMaxFrames > 0 && len(frames) >= analyzeMaxFrames {
			break
		}
	}

	return frames
}

// printSummary aggregates per-frame features into a compact report
func printSummary(w *os.File, audio *decode.Audio, frames []*pipeline.FeatureFrame) error {
	if len(frames) == 0 {
		return fmt.Errorf("no frames produced")
	}

	var meanRMS, meanCentroid, meanFlatness float64
	onsets := 0
	keyCounts := make(map[string]int)

	for _, f := range frames {
		meanRMS += f.RMS
		if f.Spectral != nil {
			meanCentroid += f.Spectral.Centroid
			meanFlatness += f.Spectral.Flatness
		}
		if f.Onset {
			onsets++
		}
		if f.Key != nil {
			keyCounts[fmt.Sprintf("%s %s", f.Key.RootName, f.Key.ModeName)]++
		}
	}

	n := float64(len(frames))
	meanRMS /= n
	meanCentroid /= n
	meanFlatness /= n

	bestKey := ""
	bestCount := 0
	for key, count := range keyCounts {
		if count > bestCount {
			bestKey = key
			bestCount = count
		}
	}

	summary := map[string]any{
		"duration_seconds": audio.Duration.Seconds(),
		"sample_rate":      audio.SampleRate,
		"frames":           len(frames),
		"mean_rms":         meanRMS,
		"mean_centroid_hz": meanCentroid,
		"mean_flatness":    meanFlatness,
		"onsets":           onsets,
	}
	if bestKey != "" {
		summary["dominant_key"] = bestKey
		summary["dominant_key_frames"] = bestCount
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
