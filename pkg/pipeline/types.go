package pipeline

import (
	"github.com/user/vidgif/pkg/ports"
)

// =============================================================================
// Limits and Defaults
// =============================================================================

const (
	MinFPS = 1
	MaxFPS = 60

	MinQuality = 1
	MaxQuality = 30

	// DefaultFPS is the sampling rate used when none is configured.
	DefaultFPS = 10
	// DefaultQuality is the codec quality used when none is configured.
	DefaultQuality = 10
	// DefaultMaxWidth caps the output width when no target size is given.
	DefaultMaxWidth = 480
)

// =============================================================================
// Plan Stage Types
// =============================================================================

// PlanInput describes the sampling window.
type PlanInput struct {
	StartTime float64 // seconds, >= 0
	EndTime   float64 // seconds, > StartTime
	FPS       float64 // 1..60
}

// PlanResult contains the planned sampling instants in seconds.
type PlanResult struct {
	Timestamps []float64
}

// =============================================================================
// Sample Stage Types
// =============================================================================

// SampleProgressFunc receives sampling progress after each captured frame.
type SampleProgressFunc func(percent, current, total int)

// SampleInput contains parameters for frame sampling.
type SampleInput struct {
	Source     ports.MediaSource
	Timestamps []float64

	// Zero means "not given".
	TargetWidth  int
	TargetHeight int

	// MaxWidth caps the width when neither target is given. Zero disables it.
	MaxWidth int

	OnProgress SampleProgressFunc
}

// Frame is one sampled RGBA raster.
type Frame struct {
	Pixels    []byte // Width*Height*4 bytes, row-major RGBA
	Width     int
	Height    int
	Timestamp float64 // seconds
	Index     int
}

// SampleResult contains the sampled frames in timestamp order.
type SampleResult struct {
	Frames       []Frame
	Width        int
	Height       int
	NativeWidth  int
	NativeHeight int
}

// =============================================================================
// Pack Stage Types
// =============================================================================

// PackInput contains the frames to pack and the encode parameters.
type PackInput struct {
	Frames  []Frame
	FPS     int
	Quality int
}

// =============================================================================
// Encode Stage Types
// =============================================================================

// EncodeProgressFunc receives encoder progress in percent.
type EncodeProgressFunc func(percent int)

// EncodeInput contains the batch to encode.
type EncodeInput struct {
	Batch      *EncodeBatch
	OnProgress EncodeProgressFunc
}

// EncodeResult contains the encoded GIF.
type EncodeResult struct {
	GIF        []byte
	FileSize   int64
	DurationMs int
}

// =============================================================================
// Progress Types
// =============================================================================

// ProgressStage names the phase a progress update belongs to.
type ProgressStage string

const (
	StageSampling ProgressStage = "sampling"
	StageEncoding ProgressStage = "encoding"
	StageComplete ProgressStage = "complete"

	// Phases of the all-in-one ffmpeg conversion.
	StagePalette  ProgressStage = "palette"
	StageRender   ProgressStage = "render"
	StageFinalize ProgressStage = "finalize"
)

// Progress is a single caller-visible progress update.
type Progress struct {
	Stage        ProgressStage
	Percent      float64 // 0..100 across the whole conversion
	CurrentFrame int     // set during sampling
	TotalFrames  int     // set during sampling
}

// ProgressFunc receives unified conversion progress.
type ProgressFunc func(Progress)
