// Package summarizer produces human-readable reports of finished conversions.
package summarizer

import (
	"time"

	"github.com/user/vidgif/pkg/orchestrator"
)

// Summary contains everything reported about one conversion.
type Summary struct {
	GeneratedAt time.Time

	Source   SourceInfo
	Settings Settings
	Output   OutputInfo
	Timing   TimingInfo
}

// SourceInfo describes the input video.
type SourceInfo struct {
	Path     string
	Width    int
	Height   int
	Duration float64 // seconds, 0 when unknown
	Codec    string
}

// Settings contains the conversion request.
type Settings struct {
	Engine  string
	Source  string
	Codec   string
	Worker  string
	Start   float64
	End     float64
	FPS     int
	Quality int
}

// OutputInfo describes the produced GIF.
type OutputInfo struct {
	Path       string
	FrameCount int
	Width      int
	Height     int
	DurationMs int
	FileSize   int64
}

// TimingInfo contains wall-clock durations in milliseconds.
type TimingInfo struct {
	SampleMs int64
	EncodeMs int64
	TotalMs  int64
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithSource sets the input description.
func (b *Builder) WithSource(source SourceInfo) *Builder {
	b.summary.Source = source
	return b
}

// WithSettings sets the conversion request.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// WithOutput sets the output description.
func (b *Builder) WithOutput(output OutputInfo) *Builder {
	b.summary.Output = output
	return b
}

// WithTiming sets the stage durations.
func (b *Builder) WithTiming(sampleMs, encodeMs, totalMs int64) *Builder {
	b.summary.Timing = TimingInfo{
		SampleMs: sampleMs,
		EncodeMs: encodeMs,
		TotalMs:  totalMs,
	}
	return b
}

// WithResult fills the window, output and timing from a finished run.
// Native size is taken from the result when the source size is unset.
func (b *Builder) WithResult(r orchestrator.RunResult) *Builder {
	s := b.summary
	s.Settings.Start = r.StartTime
	s.Settings.End = r.EndTime
	s.Settings.FPS = r.FPS
	s.Settings.Quality = r.Quality
	if s.Source.Width == 0 && s.Source.Height == 0 {
		s.Source.Width = r.NativeWidth
		s.Source.Height = r.NativeHeight
	}
	s.Output = OutputInfo{
		Path:       r.OutputPath,
		FrameCount: r.FrameCount,
		Width:      r.Width,
		Height:     r.Height,
		DurationMs: r.DurationMs,
		FileSize:   r.FileSize,
	}
	return b.WithTiming(r.SampleMs, r.EncodeMs, r.TotalMs)
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
