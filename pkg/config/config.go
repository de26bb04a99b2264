// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/user/vidgif/pkg/channel"
	"github.com/user/vidgif/pkg/orchestrator"
	"github.com/user/vidgif/pkg/pipeline"
	"github.com/user/vidgif/pkg/stages/sample"
	"gopkg.in/yaml.v3"
)

// Engine names.
const (
	EnginePipeline = "pipeline"
	EngineFFmpeg   = "ffmpeg"
)

// Source names.
const (
	SourceFFmpeg = "ffmpeg"
	SourceChrome = "chrome"
)

// Codec names.
const (
	CodecBuiltin = "builtin"
	CodecFFmpeg  = "ffmpeg"
)

// Worker names.
const (
	WorkerInProcess = "inprocess"
	WorkerProcess   = "process"
)

// Config represents the full configuration for vidgif.
type Config struct {
	// Input/Output
	Input      string `yaml:"input"`
	OutputPath string `yaml:"output"`

	// Window and sampling
	StartTime float64 `yaml:"start"`
	EndTime   float64 `yaml:"end"`
	FPS       int     `yaml:"fps"`

	// Output size
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
	MaxWidth int    `yaml:"max_width"`
	Preset   string `yaml:"preset"`

	// Encoding
	Quality int `yaml:"quality"`

	// Backends
	Engine string `yaml:"engine"`
	Source string `yaml:"source"`
	Codec  string `yaml:"codec"`
	Worker string `yaml:"worker"`

	// External tools
	FFmpegPath      string `yaml:"ffmpeg_path"`
	ChromePath      string `yaml:"chrome_path"`
	Headless        bool   `yaml:"headless"`
	InstallChromium bool   `yaml:"install_chromium"`

	// Timeouts
	Timeouts TimeoutConfig `yaml:"timeouts"`

	// Debug
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`
}

// TimeoutConfig holds the hard deadlines, in milliseconds.
type TimeoutConfig struct {
	LoadMs   int `yaml:"load_ms"`
	SeekMs   int `yaml:"seek_ms"`
	InitMs   int `yaml:"init_ms"`
	EncodeMs int `yaml:"encode_ms"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	sampleOpts := sample.DefaultOptions()
	channelOpts := channel.DefaultOptions()

	return Config{
		FPS:      pipeline.DefaultFPS,
		MaxWidth: pipeline.DefaultMaxWidth,
		Quality:  pipeline.DefaultQuality,

		Engine: EnginePipeline,
		Source: SourceFFmpeg,
		Codec:  CodecBuiltin,
		Worker: WorkerInProcess,

		Headless:        true,
		InstallChromium: true,

		Timeouts: TimeoutConfig{
			LoadMs:   int(sampleOpts.LoadTimeout.Milliseconds()),
			SeekMs:   int(sampleOpts.SeekTimeout.Milliseconds()),
			InitMs:   int(channelOpts.InitTimeout.Milliseconds()),
			EncodeMs: int(channelOpts.EncodeTimeout.Milliseconds()),
		},

		DebugDir: "./debug",
	}
}

// LoadFromFile loads configuration from a YAML file over the defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// presets maps scale preset names to output widths.
var presets = map[string]int{
	"360p": 360,
	"480p": 480,
	"720p": 720,
}

// PresetWidth returns the output width of a scale preset.
func PresetWidth(name string) (int, error) {
	w, ok := presets[name]
	if !ok {
		return 0, fmt.Errorf("unknown preset %q (use 360p, 480p or 720p)", name)
	}
	return w, nil
}

// Validate checks the backend selections and the preset.
func (c Config) Validate() error {
	if err := oneOf("engine", c.Engine, EnginePipeline, EngineFFmpeg); err != nil {
		return err
	}
	if err := oneOf("source", c.Source, SourceFFmpeg, SourceChrome); err != nil {
		return err
	}
	if err := oneOf("codec", c.Codec, CodecBuiltin, CodecFFmpeg); err != nil {
		return err
	}
	if err := oneOf("worker", c.Worker, WorkerInProcess, WorkerProcess); err != nil {
		return err
	}
	if c.Preset != "" {
		if _, err := PresetWidth(c.Preset); err != nil {
			return err
		}
	}
	return nil
}

func oneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("invalid %s %q (allowed: %v)", field, value, allowed)
}

// ToOrchestratorConfig converts Config to orchestrator.Config. A preset
// sets the output width unless a width is given explicitly.
func (c Config) ToOrchestratorConfig() orchestrator.Config {
	width := c.Width
	if width == 0 && c.Height == 0 && c.Preset != "" {
		width, _ = PresetWidth(c.Preset)
	}

	return orchestrator.Config{
		StartTime:  c.StartTime,
		EndTime:    c.EndTime,
		FPS:        c.FPS,
		Width:      width,
		Height:     c.Height,
		MaxWidth:   c.MaxWidth,
		Quality:    c.Quality,
		OutputPath: c.OutputPath,
	}
}

// SampleOptions returns the sampler timings.
func (c Config) SampleOptions() sample.Options {
	opts := sample.DefaultOptions()
	if c.Timeouts.LoadMs > 0 {
		opts.LoadTimeout = millis(c.Timeouts.LoadMs)
	}
	if c.Timeouts.SeekMs > 0 {
		opts.SeekTimeout = millis(c.Timeouts.SeekMs)
	}
	return opts
}

// ChannelOptions returns the encoder channel deadlines.
func (c Config) ChannelOptions() channel.Options {
	opts := channel.DefaultOptions()
	if c.Timeouts.InitMs > 0 {
		opts.InitTimeout = millis(c.Timeouts.InitMs)
	}
	if c.Timeouts.EncodeMs > 0 {
		opts.EncodeTimeout = millis(c.Timeouts.EncodeMs)
	}
	return opts
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
