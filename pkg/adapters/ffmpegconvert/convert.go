// Package ffmpegconvert converts a window of a video file straight to GIF
// with two ffmpeg passes: palettegen, then paletteuse with Bayer dithering.
package ffmpegconvert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/user/vidgif/pkg/adapters/ffmpegbin"
	"github.com/user/vidgif/pkg/adapters/ffmpegcodec"
	"github.com/user/vidgif/pkg/adapters/ffmpegsource"
	"github.com/user/vidgif/pkg/orchestrator"
	"github.com/user/vidgif/pkg/pipeline"
	"github.com/user/vidgif/pkg/ports"
	"github.com/user/vidgif/pkg/stages/plan"
	"github.com/user/vidgif/pkg/stages/sample"
)

// Phase boundaries on the 0-100 progress scale.
const (
	paletteStart  = 10
	renderStart   = 25
	finalizeStart = 90
)

type probeFunc func(ctx context.Context, path string) (ffmpegsource.Metadata, error)

// Converter runs the all-in-one conversion.
type Converter struct {
	fs     ports.FileSystem
	logger ports.Logger

	probe probeFunc
	run   runFunc
}

// New locates ffmpeg and creates a Converter.
func New(ffmpegPath string, fs ports.FileSystem, logger ports.Logger) (*Converter, error) {
	bin, err := ffmpegbin.FindFFmpeg(ffmpegPath)
	if err != nil {
		return nil, err
	}
	prober := ffmpegsource.Prober{FFmpegPath: ffmpegPath}
	return newConverter(prober.Probe, execRunner(bin), fs, logger), nil
}

func newConverter(probe probeFunc, run runFunc, fs ports.FileSystem, logger ports.Logger) *Converter {
	return &Converter{
		fs:     fs,
		logger: logger,
		probe:  probe,
		run:    run,
	}
}

// Convert encodes [config.StartTime, config.EndTime) of input. Output size
// and frame count follow the same rules as the sampling pipeline.
func (c *Converter) Convert(ctx context.Context, input string, config orchestrator.Config, onProgress pipeline.ProgressFunc) (orchestrator.RunResult, error) {
	started := time.Now()
	emit := func(stage pipeline.ProgressStage, percent float64) {
		if onProgress != nil {
			onProgress(pipeline.Progress{Stage: stage, Percent: percent})
		}
	}

	c.logger.Info(l10n.T("Starting conversion"))

	if err := config.Validate(); err != nil {
		c.logger.Error(l10n.F("Invalid configuration: %s", err))
		return orchestrator.RunResult{}, fmt.Errorf("config: %w", err)
	}
	timestamps, err := plan.Plan(config.StartTime, config.EndTime, float64(config.FPS))
	if err != nil {
		c.logger.Error(l10n.F("Failed to plan timestamps: %s", err))
		return orchestrator.RunResult{}, fmt.Errorf("plan: %w", err)
	}

	meta, err := c.probe(ctx, input)
	if err != nil {
		c.logger.Error(l10n.F("Failed to load source: %s", err))
		return orchestrator.RunResult{}, fmt.Errorf("probe: %w", pipeline.NewError(pipeline.KindSourceLoadFailed, "probe "+filepath.Base(input), err))
	}
	width, height, err := sample.ResolveDimensions(meta.Width, meta.Height, config.Width, config.Height, config.MaxWidth)
	if err != nil {
		return orchestrator.RunResult{}, fmt.Errorf("probe: %w", err)
	}

	workDir, err := os.MkdirTemp("", "vidgif-ffmpeg-")
	if err != nil {
		return orchestrator.RunResult{}, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	palettePath := filepath.Join(workDir, "palette.png")
	gifPath := filepath.Join(workDir, "output.gif")
	window := config.EndTime - config.StartTime

	phase := func(stage pipeline.ProgressStage, from, span float64) func(float64) {
		return func(seconds float64) {
			p := seconds / window
			if p > 1 {
				p = 1
			}
			emit(stage, from+p*span)
		}
	}

	emit(pipeline.StagePalette, paletteStart)
	c.logger.Info(l10n.T("Generating palette"))
	if err := c.run(ctx, PaletteArgs(input, palettePath, config, width, height), phase(pipeline.StagePalette, paletteStart, renderStart-paletteStart)); err != nil {
		return orchestrator.RunResult{}, c.failed(ctx, "palette", err)
	}

	emit(pipeline.StageRender, renderStart)
	c.logger.Info(l10n.F("Rendering GIF with quality %d", config.Quality))
	encodeStarted := time.Now()
	if err := c.run(ctx, RenderArgs(input, palettePath, gifPath, config, width, height), phase(pipeline.StageRender, renderStart, finalizeStart-renderStart)); err != nil {
		return orchestrator.RunResult{}, c.failed(ctx, "render", err)
	}
	encodeMs := time.Since(encodeStarted).Milliseconds()

	emit(pipeline.StageFinalize, finalizeStart)
	gif, err := os.ReadFile(gifPath)
	if err != nil {
		return orchestrator.RunResult{}, fmt.Errorf("read output: %w", err)
	}
	c.logger.Info(l10n.F("GIF encoded: %d bytes", len(gif)))

	if config.OutputPath != "" {
		if err := c.fs.WriteFile(config.OutputPath, gif); err != nil {
			c.logger.Error(l10n.F("Failed to write output: %s", err))
			return orchestrator.RunResult{}, fmt.Errorf("write output: %w", err)
		}
	}

	emit(pipeline.StageComplete, 100)
	c.logger.Info(l10n.T("Conversion completed successfully"))

	return orchestrator.RunResult{
		GIF:          gif,
		OutputPath:   config.OutputPath,
		StartTime:    config.StartTime,
		EndTime:      config.EndTime,
		FPS:          config.FPS,
		Quality:      config.Quality,
		FrameCount:   len(timestamps),
		Width:        width,
		Height:       height,
		NativeWidth:  meta.Width,
		NativeHeight: meta.Height,
		DurationMs:   pipeline.PlaybackMillis(len(timestamps), config.FPS),
		FileSize:     int64(len(gif)),
		EncodeMs:     encodeMs,
		TotalMs:      time.Since(started).Milliseconds(),
	}, nil
}

func (c *Converter) failed(ctx context.Context, pass string, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s pass: %w", pass, pipeline.Cancelled(ctx, "ffmpeg "+pass))
	}
	c.logger.Error(l10n.F("Failed to encode GIF: %s", err))
	return fmt.Errorf("%s pass: %w", pass, pipeline.NewError(pipeline.KindRemoteEncodeError, "ffmpeg "+pass+" pass failed", err))
}

func windowArgs(input string, config orchestrator.Config) []string {
	return []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-ss", strconv.FormatFloat(config.StartTime, 'f', 3, 64),
		"-t", strconv.FormatFloat(config.EndTime-config.StartTime, 'f', 3, 64),
		"-i", input,
	}
}

func scaleFilter(config orchestrator.Config, width, height int) string {
	return fmt.Sprintf("fps=%d,scale=%d:%d:flags=lanczos", config.FPS, width, height)
}

// PaletteArgs builds the first pass, which writes the palette image.
func PaletteArgs(input, palettePath string, config orchestrator.Config, width, height int) []string {
	colors, _ := ffmpegcodec.PaletteParams(config.Quality)
	args := windowArgs(input, config)
	return append(args,
		"-vf", fmt.Sprintf("%s,palettegen=max_colors=%d:stats_mode=full", scaleFilter(config, width, height), colors),
		"-threads", "1",
		palettePath,
	)
}

// RenderArgs builds the second pass, which maps the window onto the palette.
func RenderArgs(input, palettePath, gifPath string, config orchestrator.Config, width, height int) []string {
	_, bayer := ffmpegcodec.PaletteParams(config.Quality)
	args := windowArgs(input, config)
	return append(args,
		"-i", palettePath,
		"-lavfi", fmt.Sprintf("[0:v]%s[x];[x][1:v]paletteuse=dither=bayer:bayer_scale=%d:diff_mode=rectangle", scaleFilter(config, width, height), bayer),
		"-gifflags", "+transdiff",
		"-loop", "0",
		gifPath,
	)
}
