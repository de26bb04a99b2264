// Package pack concatenates sampled frames into a single encode batch.
package pack

import (
	"context"
	"encoding/json"

	"github.com/user/vidgif/pkg/pipeline"
	"github.com/user/vidgif/pkg/ports"
)

// Pack copies the frames, in order, into one contiguous buffer.
func Pack(frames []pipeline.Frame) (*pipeline.EncodeBatch, error) {
	if len(frames) == 0 {
		return nil, pipeline.Errorf(pipeline.KindEmptyBatch, "no frames to pack")
	}

	width, height := frames[0].Width, frames[0].Height
	frameSize := width * height * 4
	if frameSize <= 0 {
		return nil, pipeline.Errorf(pipeline.KindDimensionMismatch, "frame 0 has size %dx%d", width, height)
	}

	for i, f := range frames {
		if f.Width != width || f.Height != height {
			return nil, pipeline.Errorf(pipeline.KindDimensionMismatch, "frame %d is %dx%d, expected %dx%d", i, f.Width, f.Height, width, height)
		}
		if len(f.Pixels) != frameSize {
			return nil, pipeline.Errorf(pipeline.KindDimensionMismatch, "frame %d has %d bytes, expected %d", i, len(f.Pixels), frameSize)
		}
	}

	data := make([]byte, frameSize*len(frames))
	for i, f := range frames {
		copy(data[i*frameSize:], f.Pixels)
	}

	return pipeline.NewEncodeBatch(data, width, height, len(frames)), nil
}

// Stage packs frames and stamps the encode parameters on the batch.
type Stage struct {
	sink   ports.DebugSink
	logger ports.Logger
}

// NewStage creates a new pack stage.
func NewStage(sink ports.DebugSink, logger ports.Logger) *Stage {
	return &Stage{
		sink:   sink,
		logger: logger.WithComponent("packer"),
	}
}

type batchHeader struct {
	Width      int `json:"width"`
	Height     int `json:"height"`
	FrameCount int `json:"frameCount"`
	FPS        int `json:"fps"`
	Quality    int `json:"quality"`
	Bytes      int `json:"bytes"`
}

// Execute packs the input frames.
func (s *Stage) Execute(ctx context.Context, input pipeline.PackInput) (*pipeline.EncodeBatch, error) {
	batch, err := Pack(input.Frames)
	if err != nil {
		return nil, err
	}
	batch.FPS = input.FPS
	batch.Quality = input.Quality

	s.logger.Debug("Packed %d frames (%d bytes)", batch.FrameCount, batch.Len())

	if s.sink.Enabled() {
		header := batchHeader{
			Width:      batch.Width,
			Height:     batch.Height,
			FrameCount: batch.FrameCount,
			FPS:        batch.FPS,
			Quality:    batch.Quality,
			Bytes:      batch.Len(),
		}
		if data, err := json.MarshalIndent(header, "", "  "); err == nil {
			s.sink.SaveBatchJSON(data)
		}
	}

	return batch, nil
}
