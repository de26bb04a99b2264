// Package sample implements the frame sampling stage: it drives a media
// source through the planned instants and rasterizes each frame to RGBA.
package sample

import (
	"context"
	"time"

	"github.com/user/vidgif/pkg/pipeline"
	"github.com/user/vidgif/pkg/ports"
)

// Options tunes the waits of the sampler.
type Options struct {
	// LoadTimeout bounds the wait for source metadata.
	LoadTimeout time.Duration
	// SeekTimeout bounds each seek and each frame-ready wait.
	SeekTimeout time.Duration
	// SeekEpsilon skips seeks to positions this close, in seconds.
	SeekEpsilon float64
	// RefreshInterval is the frame-ready wait for sources without a FrameNotifier.
	RefreshInterval time.Duration
}

// DefaultOptions returns the standard sampler timings.
func DefaultOptions() Options {
	return Options{
		LoadTimeout:     30 * time.Second,
		SeekTimeout:     5 * time.Second,
		SeekEpsilon:     0.01,
		RefreshInterval: time.Second / 60,
	}
}

// Stage samples frames from a media source.
type Stage struct {
	renderer ports.Renderer
	sink     ports.DebugSink
	logger   ports.Logger
	opts     Options
}

// New creates a new sample stage. Zero option fields take their defaults.
func New(renderer ports.Renderer, sink ports.DebugSink, logger ports.Logger, opts Options) *Stage {
	defaults := DefaultOptions()
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = defaults.LoadTimeout
	}
	if opts.SeekTimeout <= 0 {
		opts.SeekTimeout = defaults.SeekTimeout
	}
	if opts.SeekEpsilon <= 0 {
		opts.SeekEpsilon = defaults.SeekEpsilon
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = defaults.RefreshInterval
	}
	return &Stage{
		renderer: renderer,
		sink:     sink,
		logger:   logger.WithComponent("sampler"),
		opts:     opts,
	}
}

// Execute captures one frame per timestamp, in order. Every listener it
// registers on the source is removed before it returns.
func (s *Stage) Execute(ctx context.Context, input pipeline.SampleInput) (pipeline.SampleResult, error) {
	result := pipeline.SampleResult{}

	if err := validateInput(input); err != nil {
		return result, err
	}
	if ctx.Err() != nil {
		return result, pipeline.Cancelled(ctx, "sampling")
	}

	src := input.Source
	events, unsubscribe := src.Subscribe()
	defer unsubscribe()

	if err := s.waitForMetadata(ctx, src, events); err != nil {
		return result, err
	}

	nativeW, nativeH := src.NativeSize()
	width, height, err := ResolveDimensions(nativeW, nativeH, input.TargetWidth, input.TargetHeight, input.MaxWidth)
	if err != nil {
		return result, err
	}
	s.logger.Debug("Source %dx%d, sampling at %dx%d", nativeW, nativeH, width, height)

	surface, err := s.renderer.CreateSurface(width, height)
	if err != nil {
		return result, pipeline.NewError(pipeline.KindCanvasUnavailable, "create rasterization surface", err)
	}
	defer surface.Release()

	total := len(input.Timestamps)
	result.Frames = make([]pipeline.Frame, 0, total)
	result.Width, result.Height = width, height
	result.NativeWidth, result.NativeHeight = nativeW, nativeH

	for i, t := range input.Timestamps {
		if ctx.Err() != nil {
			return pipeline.SampleResult{}, pipeline.Cancelled(ctx, "sampling")
		}

		if err := s.seek(ctx, src, events, t); err != nil {
			return pipeline.SampleResult{}, err
		}
		if err := s.waitForFrame(ctx, src, t); err != nil {
			return pipeline.SampleResult{}, err
		}

		img, err := s.readFrame(ctx, src, t)
		if err != nil {
			return pipeline.SampleResult{}, err
		}

		surface.Clear()
		surface.DrawScaled(img)
		result.Frames = append(result.Frames, pipeline.Frame{
			Pixels:    surface.ReadPixels(),
			Width:     width,
			Height:    height,
			Timestamp: t,
			Index:     i,
		})

		if s.sink.Enabled() {
			if err := s.sink.SaveFrame(i, surface.ToImage()); err != nil {
				s.logger.Warn("Failed to save debug frame %d: %s", i, err)
			}
		}

		if input.OnProgress != nil {
			input.OnProgress(percentOf(i+1, total), i+1, total)
		}
	}

	s.logger.Debug("Sampled %d frames", len(result.Frames))
	return result, nil
}

func validateInput(input pipeline.SampleInput) error {
	switch {
	case input.Source == nil:
		return pipeline.Errorf(pipeline.KindInvalidConfig, "no media source")
	case len(input.Timestamps) == 0:
		return pipeline.Errorf(pipeline.KindInvalidConfig, "no timestamps to sample")
	case input.TargetWidth < 0 || input.TargetHeight < 0:
		return pipeline.Errorf(pipeline.KindInvalidConfig, "target size must not be negative, got %dx%d", input.TargetWidth, input.TargetHeight)
	case input.MaxWidth < 0:
		return pipeline.Errorf(pipeline.KindInvalidConfig, "max width must not be negative, got %d", input.MaxWidth)
	}
	for _, t := range input.Timestamps {
		if t < 0 {
			return pipeline.Errorf(pipeline.KindInvalidConfig, "timestamp must be >= 0, got %g", t)
		}
	}
	return nil
}

func percentOf(done, total int) int {
	return (done*200 + total) / (total * 2)
}
