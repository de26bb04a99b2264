// Package vidgif provides a high-level API for converting video clips to
// animated GIFs.
package vidgif

import (
	"github.com/user/vidgif/pkg/config"
	"github.com/user/vidgif/pkg/pipeline"
)

// QualityPreset names a quality level.
type QualityPreset string

const (
	QualityLow    QualityPreset = "low"
	QualityMedium QualityPreset = "medium"
	QualityHigh   QualityPreset = "high"
)

// QualityValue returns the encoder quality (1 is best, 30 fastest) for preset.
func QualityValue(preset QualityPreset) int {
	switch preset {
	case QualityLow:
		return 20
	case QualityHigh:
		return 1
	default: // medium
		return pipeline.DefaultQuality
	}
}

// ConfigBuilder provides a fluent interface for building a config.Config.
type ConfigBuilder struct {
	config config.Config
}

// NewConfigBuilder creates a ConfigBuilder for input with default settings.
func NewConfigBuilder(input string) *ConfigBuilder {
	cfg := config.Defaults()
	cfg.Input = input
	return &ConfigBuilder{config: cfg}
}

// FromConfig starts a ConfigBuilder from an existing config, such as one
// loaded from a file.
func FromConfig(cfg config.Config) *ConfigBuilder {
	return &ConfigBuilder{config: cfg}
}

// Build returns the final Config. FPS and quality are clamped to their
// supported ranges; the window itself is validated at conversion time.
func (b *ConfigBuilder) Build() config.Config {
	cfg := b.config
	cfg.FPS = clampInt(cfg.FPS, pipeline.MinFPS, pipeline.MaxFPS)
	cfg.Quality = clampInt(cfg.Quality, pipeline.MinQuality, pipeline.MaxQuality)
	if cfg.MaxWidth < 0 {
		cfg.MaxWidth = 0
	}
	return cfg
}

// WithWindow sets the clip window in seconds of source time.
func (b *ConfigBuilder) WithWindow(start, end float64) *ConfigBuilder {
	b.config.StartTime = start
	b.config.EndTime = end
	return b
}

// WithFPS sets the sampling rate. Values outside 1..60 are clamped.
func (b *ConfigBuilder) WithFPS(fps int) *ConfigBuilder {
	b.config.FPS = fps
	return b
}

// WithWidth sets the output width.
func (b *ConfigBuilder) WithWidth(width int) *ConfigBuilder {
	b.config.Width = width
	return b
}

// WithHeight sets the output height.
func (b *ConfigBuilder) WithHeight(height int) *ConfigBuilder {
	b.config.Height = height
	return b
}

// WithMaxWidth caps the width when no output size is given. 0 disables the cap.
func (b *ConfigBuilder) WithMaxWidth(width int) *ConfigBuilder {
	b.config.MaxWidth = width
	return b
}

// WithScalePreset sets the output width from a preset name (360p, 480p, 720p).
func (b *ConfigBuilder) WithScalePreset(name string) *ConfigBuilder {
	b.config.Preset = name
	return b
}

// WithQuality sets the encoder quality. Values outside 1..30 are clamped.
func (b *ConfigBuilder) WithQuality(quality int) *ConfigBuilder {
	b.config.Quality = quality
	return b
}

// WithQualityPreset applies a quality preset (low, medium, high).
func (b *ConfigBuilder) WithQualityPreset(preset QualityPreset) *ConfigBuilder {
	b.config.Quality = QualityValue(preset)
	return b
}

// WithOutput sets the output GIF path.
func (b *ConfigBuilder) WithOutput(path string) *ConfigBuilder {
	b.config.OutputPath = path
	return b
}

// WithEngine selects the conversion engine (pipeline or ffmpeg).
func (b *ConfigBuilder) WithEngine(engine string) *ConfigBuilder {
	b.config.Engine = engine
	return b
}

// WithSource selects the media source (ffmpeg or chrome).
func (b *ConfigBuilder) WithSource(source string) *ConfigBuilder {
	b.config.Source = source
	return b
}

// WithCodec selects the GIF codec (builtin or ffmpeg).
func (b *ConfigBuilder) WithCodec(codec string) *ConfigBuilder {
	b.config.Codec = codec
	return b
}

// WithWorker selects where the codec runs (inprocess or process).
func (b *ConfigBuilder) WithWorker(worker string) *ConfigBuilder {
	b.config.Worker = worker
	return b
}

// WithFFmpegPath sets the ffmpeg executable.
func (b *ConfigBuilder) WithFFmpegPath(path string) *ConfigBuilder {
	b.config.FFmpegPath = path
	return b
}

// WithChromePath sets the Chrome executable.
func (b *ConfigBuilder) WithChromePath(path string) *ConfigBuilder {
	b.config.ChromePath = path
	return b
}

// WithHeadless toggles headless Chrome.
func (b *ConfigBuilder) WithHeadless(headless bool) *ConfigBuilder {
	b.config.Headless = headless
	return b
}

// WithDebug enables the debug sink writing to dir.
func (b *ConfigBuilder) WithDebug(dir string) *ConfigBuilder {
	b.config.Debug = true
	if dir != "" {
		b.config.DebugDir = dir
	}
	return b
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
