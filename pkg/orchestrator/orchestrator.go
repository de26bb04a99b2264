// Package orchestrator coordinates all pipeline stages.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/user/vidgif/pkg/pipeline"
	"github.com/user/vidgif/pkg/ports"
	"github.com/user/vidgif/pkg/progress"
)

// Config contains all configuration for one conversion.
type Config struct {
	// Window, in seconds of source time
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`

	// Sampling
	FPS int `json:"fps"`

	// Output size. Zero width and height keep the native size, capped at MaxWidth.
	Width    int `json:"width,omitempty"`
	Height   int `json:"height,omitempty"`
	MaxWidth int `json:"maxWidth,omitempty"`

	// Encoding
	Quality int `json:"quality"`

	// Output
	OutputPath string `json:"outputPath,omitempty"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		FPS:      pipeline.DefaultFPS,
		Quality:  pipeline.DefaultQuality,
		MaxWidth: pipeline.DefaultMaxWidth,
	}
}

// Validate checks the parameters that no stage validates on its own.
func (c Config) Validate() error {
	if c.FPS < pipeline.MinFPS || c.FPS > pipeline.MaxFPS {
		return pipeline.Errorf(pipeline.KindInvalidConfig, "fps must be between %d and %d, got %d", pipeline.MinFPS, pipeline.MaxFPS, c.FPS)
	}
	if c.Quality < pipeline.MinQuality || c.Quality > pipeline.MaxQuality {
		return pipeline.Errorf(pipeline.KindInvalidConfig, "quality must be between %d and %d, got %d", pipeline.MinQuality, pipeline.MaxQuality, c.Quality)
	}
	if c.Width < 0 || c.Height < 0 || c.MaxWidth < 0 {
		return pipeline.Errorf(pipeline.KindInvalidConfig, "output size must not be negative")
	}
	return nil
}

// Orchestrator coordinates the execution of all pipeline stages.
type Orchestrator struct {
	planStage   pipeline.Stage[pipeline.PlanInput, pipeline.PlanResult]
	sampleStage pipeline.Stage[pipeline.SampleInput, pipeline.SampleResult]
	packStage   pipeline.Stage[pipeline.PackInput, *pipeline.EncodeBatch]
	encodeStage pipeline.Stage[pipeline.EncodeInput, pipeline.EncodeResult]
	fs          ports.FileSystem
	sink        ports.DebugSink
	logger      ports.Logger
}

// New creates a new Orchestrator.
func New(
	planStage pipeline.Stage[pipeline.PlanInput, pipeline.PlanResult],
	sampleStage pipeline.Stage[pipeline.SampleInput, pipeline.SampleResult],
	packStage pipeline.Stage[pipeline.PackInput, *pipeline.EncodeBatch],
	encodeStage pipeline.Stage[pipeline.EncodeInput, pipeline.EncodeResult],
	fs ports.FileSystem,
	sink ports.DebugSink,
	logger ports.Logger,
) *Orchestrator {
	return &Orchestrator{
		planStage:   planStage,
		sampleStage: sampleStage,
		packStage:   packStage,
		encodeStage: encodeStage,
		fs:          fs,
		sink:        sink,
		logger:      logger,
	}
}

// Run converts the configured window of source into a GIF.
func (o *Orchestrator) Run(ctx context.Context, config Config, source ports.MediaSource, onProgress pipeline.ProgressFunc) (RunResult, error) {
	started := time.Now()
	report := progress.NewReporter(onProgress)

	o.logger.Info(l10n.T("Starting conversion"))

	if err := config.Validate(); err != nil {
		o.logger.Error(l10n.F("Invalid configuration: %s", err))
		return RunResult{}, fmt.Errorf("config: %w", err)
	}

	if o.sink.Enabled() {
		if data, err := json.MarshalIndent(config, "", "  "); err == nil {
			o.sink.SaveRequestJSON(data)
		}
	}

	// 1. Plan sampling instants
	plan, err := o.planStage.Execute(ctx, pipeline.PlanInput{
		StartTime: config.StartTime,
		EndTime:   config.EndTime,
		FPS:       float64(config.FPS),
	})
	if err != nil {
		o.logger.Error(l10n.F("Failed to plan timestamps: %s", err))
		return RunResult{}, fmt.Errorf("plan stage: %w", err)
	}
	o.logger.Info(l10n.F("Planned %d frames from %s to %s", len(plan.Timestamps),
		pipeline.FormatTime(config.StartTime), pipeline.FormatTime(config.EndTime)))

	if o.sink.Enabled() {
		if data, err := json.MarshalIndent(plan.Timestamps, "", "  "); err == nil {
			o.sink.SaveTimestampsJSON(data)
		}
	}

	// 2. Sample frames
	sampleStarted := time.Now()
	sampled, err := o.sampleStage.Execute(ctx, pipeline.SampleInput{
		Source:       source,
		Timestamps:   plan.Timestamps,
		TargetWidth:  config.Width,
		TargetHeight: config.Height,
		MaxWidth:     config.MaxWidth,
		OnProgress:   report.Sampling,
	})
	if err != nil {
		o.logger.Error(l10n.F("Failed to sample frames: %s", err))
		return RunResult{}, fmt.Errorf("sample stage: %w", err)
	}
	sampleMs := time.Since(sampleStarted).Milliseconds()
	o.logger.Info(l10n.F("Sampled %d frames at %dx%d", len(sampled.Frames), sampled.Width, sampled.Height))

	// 3. Pack frames
	batch, err := o.packStage.Execute(ctx, pipeline.PackInput{
		Frames:  sampled.Frames,
		FPS:     config.FPS,
		Quality: config.Quality,
	})
	if err != nil {
		o.logger.Error(l10n.F("Failed to pack frames: %s", err))
		return RunResult{}, fmt.Errorf("pack stage: %w", err)
	}
	sampled.Frames = nil

	// 4. Encode GIF
	o.logger.Info(l10n.F("Encoding GIF with quality %d", config.Quality))
	encodeStarted := time.Now()
	encoded, err := o.encodeStage.Execute(ctx, pipeline.EncodeInput{
		Batch:      batch,
		OnProgress: report.Encoding,
	})
	if err != nil {
		o.logger.Error(l10n.F("Failed to encode GIF: %s", err))
		return RunResult{}, fmt.Errorf("encode stage: %w", err)
	}
	encodeMs := time.Since(encodeStarted).Milliseconds()
	o.logger.Info(l10n.F("GIF encoded: %d bytes", encoded.FileSize))

	// 5. Write output file
	if config.OutputPath != "" {
		if err := o.fs.WriteFile(config.OutputPath, encoded.GIF); err != nil {
			o.logger.Error(l10n.F("Failed to write output: %s", err))
			return RunResult{}, fmt.Errorf("write output: %w", err)
		}
	}

	report.Complete()
	o.logger.Info(l10n.T("Conversion completed successfully"))

	return RunResult{
		GIF:          encoded.GIF,
		OutputPath:   config.OutputPath,
		StartTime:    config.StartTime,
		EndTime:      config.EndTime,
		FPS:          config.FPS,
		Quality:      config.Quality,
		FrameCount:   batch.FrameCount,
		Width:        sampled.Width,
		Height:       sampled.Height,
		NativeWidth:  sampled.NativeWidth,
		NativeHeight: sampled.NativeHeight,
		DurationMs:   encoded.DurationMs,
		FileSize:     encoded.FileSize,
		SampleMs:     sampleMs,
		EncodeMs:     encodeMs,
		TotalMs:      time.Since(started).Milliseconds(),
	}, nil
}

// RunResult contains the results of a conversion for summary generation.
type RunResult struct {
	GIF        []byte
	OutputPath string

	// Request
	StartTime float64
	EndTime   float64
	FPS       int
	Quality   int

	// Output
	FrameCount   int
	Width        int
	Height       int
	NativeWidth  int
	NativeHeight int
	DurationMs   int // GIF playback time
	FileSize     int64

	// Timing
	SampleMs int64
	EncodeMs int64
	TotalMs  int64
}
