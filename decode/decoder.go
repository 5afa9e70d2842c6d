// Package decode turns audio files and streams into the mono float64
// sample stream the analysis pipeline consumes, using FFmpeg for format
// handling and resampling.
package decode

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/auralux/spectra/logging"
)

// Audio holds decoded mono PCM together with the properties the pipeline
// needs
type Audio struct {
	Samples    []float64     `json:"-"`
	SampleRate int           `json:"sample_rate"`
	Duration   time.Duration `json:"duration"`
	Codec      string        `json:"codec,omitempty"`
}

// SourceInfo describes an input file or stream as reported by ffprobe
type SourceInfo struct {
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	Codec      string  `json:"codec"`
	Duration   float64 `json:"duration"`
	Bitrate    int     `json:"bitrate"`
}

// Config holds decoder configuration
type Config struct {
	SampleRate  int           `json:"sample_rate" yaml:"sample_rate"`
	MaxDuration time.Duration `json:"max_duration" yaml:"max_duration"`
	FFmpegPath  string        `json:"ffmpeg_path" yaml:"ffmpeg_path"`
	FFprobePath string        `json:"ffprobe_path" yaml:"ffprobe_path"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout"`
}

// DefaultConfig returns a decoder configuration matching the pipeline
// defaults
func DefaultConfig() Config {
	return Config{
		SampleRate:  44100,
		MaxDuration: 0,
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
		Timeout:     60 * time.Second,
	}
}

// Validate checks the configuration and verifies the FFmpeg binaries are
// reachable
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive: %d", c.SampleRate)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive: %v", c.Timeout)
	}

	if err := exec.Command(c.FFmpegPath, "-version").Run(); err != nil {
		return fmt.Errorf("ffmpeg not found at %s: %w", c.FFmpegPath, err)
	}
	if err := exec.Command(c.FFprobePath, "-version").Run(); err != nil {
		return fmt.Errorf("ffprobe not found at %s: %w", c.FFprobePath, err)
	}

	return nil
}

// Decoder decodes audio through FFmpeg, downmixing to mono and resampling
// to the configured rate
type Decoder struct {
	config Config
	logger logging.Logger
}

// NewDecoder creates a decoder. A zero-value config is replaced by
// DefaultConfig.
func NewDecoder(config Config) *Decoder {
	if config.SampleRate == 0 {
		config = DefaultConfig()
	}
	return &Decoder{
		config: config,
		logger: logging.WithFields(logging.Fields{"component": "decoder"}),
	}
}

// DecodeFile decodes an audio file to mono PCM at the target rate
func (d *Decoder) DecodeFile(ctx context.Context, filename string) (*Audio, error) {
	info, err := d.ProbeFile(ctx, filename)
	if err != nil {
		return nil, err
	}

	d.logger.Debug("decoding file", logging.Fields{
		"filename":    filename,
		"codec":       info.Codec,
		"sample_rate": info.SampleRate,
		"channels":    info.Channels,
		"duration":    info.Duration,
	})

	args := append([]string{"-i", filename}, d.outputArgs()...)
	return d.run(ctx, args, nil, info.Codec)
}

// DecodeReader decodes audio from a stream to mono PCM at the target rate.
// The stream's container format must be self-describing.
func (d *Decoder) DecodeReader(ctx context.Context, r io.Reader) (*Audio, error) {
	args := append([]string{"-i", "pipe:0"}, d.outputArgs()...)
	return d.run(ctx, args, r, "")
}

// ProbeFile returns the audio properties of a file without decoding it
func (d *Decoder) ProbeFile(ctx context.Context, filename string) (*SourceInfo, error) {
	probeCtx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "a:0",
		filename,
	}

	output, err := exec.CommandContext(probeCtx, d.config.FFprobePath, args...).Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("ffprobe failed: %w, stderr: %s", err, string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseProbeOutput(output)
}

// outputArgs builds the FFmpeg output parameters: raw little-endian
// float64, mono, resampled with soxr
func (d *Decoder) outputArgs() []string {
	args := []string{
		"-vn",
		"-f", "f64le",
		"-ac", "1",
		"-ar", strconv.Itoa(d.config.SampleRate),
		"-af", fmt.Sprintf("aresample=%d:resampler=soxr", d.config.SampleRate),
	}

	if d.config.MaxDuration > 0 {
		args = append(args, "-t", fmt.Sprintf("%.3f", d.config.MaxDuration.Seconds()))
	}

	args = append(args, "-v", "error", "pipe:1")
	return args
}

// run executes FFmpeg and converts its raw output into an Audio value
func (d *Decoder) run(ctx context.Context, args []string, stdin io.Reader, codec string) (*Audio, error) {
	runCtx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, d.config.FFmpegPath, args...)
	if stdin != nil {
		cmd.Stdin = stdin
	}

	d.logger.Debug("running ffmpeg", logging.Fields{
		"args": strings.Join(args, " "),
	})

	start := time.Now()
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			d.logger.Error(err, "ffmpeg decode failed", logging.Fields{
				"stderr": string(exitErr.Stderr),
			})
			return nil, fmt.Errorf("ffmpeg decode failed: %w, stderr: %s", err, string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("ffmpeg decode failed: %w", err)
	}

	samples := bytesToFloat64(output)
	if len(samples) == 0 {
		return nil, fmt.Errorf("no audio samples decoded")
	}

	duration := time.Duration(len(samples)) * time.Second / time.Duration(d.config.SampleRate)

	d.logger.Debug("decode completed", logging.Fields{
		"samples":     len(samples),
		"duration":    duration.Seconds(),
		"decode_time": time.Since(start).Seconds(),
	})

	return &Audio{
		Samples:    samples,
		SampleRate: d.config.SampleRate,
		Duration:   duration,
		Codec:      codec,
	}, nil
}

// parseProbeOutput extracts audio properties from ffprobe JSON
func parseProbeOutput(jsonData []byte) (*SourceInfo, error) {
	var probe struct {
		Streams []struct {
			CodecType  string `json:"codec_type"`
			CodecName  string `json:"codec_name"`
			SampleRate string `json:"sample_rate"`
			Channels   int    `json:"channels"`
			Duration   string `json:"duration"`
			BitRate    string `json:"bit_rate"`
		} `json:"streams"`
	}

	if err := json.Unmarshal(jsonData, &probe); err != nil {
		return nil, fmt.Errorf("parsing ffprobe output: %w", err)
	}
	if len(probe.Streams) == 0 {
		return nil, fmt.Errorf("no audio streams found")
	}

	stream := probe.Streams[0]
	if stream.CodecType != "audio" {
		return nil, fmt.Errorf("stream is not audio: %s", stream.CodecType)
	}
	if stream.Channels <= 0 || stream.Channels > 8 {
		return nil, fmt.Errorf("invalid channel count: %d", stream.Channels)
	}

	sampleRate, err := strconv.Atoi(stream.SampleRate)
	if err != nil {
		sampleRate = 44100
	}
	duration, err := strconv.ParseFloat(stream.Duration, 64)
	if err != nil {
		duration = 0
	}
	bitrate, err := strconv.Atoi(stream.BitRate)
	if err != nil {
		bitrate = 0
	}

	return &SourceInfo{
		SampleRate: sampleRate,
		Channels:   stream.Channels,
		Codec:      stream.CodecName,
		Duration:   duration,
		Bitrate:    bitrate,
	}, nil
}

// bytesToFloat64 reinterprets raw f64le bytes as samples, dropping any
// trailing partial sample
func bytesToFloat64(data []byte) []float64 {
	data = data[:len(data)-(len(data)%8)]
	if len(data) == 0 {
		return nil
	}

	samples := make([]float64, len(data)/8)
	for i := range samples {
		bits := binary.LittleEndian.Uint64(data[i*8 : i*8+8])
		samples[i] = math.Float64frombits(bits)
	}

	return samples
}
