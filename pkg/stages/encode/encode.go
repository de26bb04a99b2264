// Package encode implements the GIF encoding stage.
package encode

import (
	"context"

	"github.com/user/vidgif/pkg/pipeline"
	"github.com/user/vidgif/pkg/ports"
)

// BatchEncoder turns a packed batch into GIF bytes. *channel.Channel implements it.
type BatchEncoder interface {
	Encode(ctx context.Context, batch *pipeline.EncodeBatch, onProgress pipeline.EncodeProgressFunc) ([]byte, error)
}

// Stage hands packed frames to the isolated encoder.
type Stage struct {
	encoder BatchEncoder
	logger  ports.Logger
}

// NewStage creates a new encode stage.
func NewStage(encoder BatchEncoder, logger ports.Logger) *Stage {
	return &Stage{
		encoder: encoder,
		logger:  logger.WithComponent("encoder"),
	}
}

// Execute encodes the batch into a GIF.
func (s *Stage) Execute(ctx context.Context, input pipeline.EncodeInput) (pipeline.EncodeResult, error) {
	result := pipeline.EncodeResult{}

	if input.Batch == nil {
		return result, pipeline.Errorf(pipeline.KindInvalidEncodeRequest, "nil batch")
	}
	frameCount, fps := input.Batch.FrameCount, input.Batch.FPS

	s.logger.Debug("Encoding %d frames at %d fps, quality %d", frameCount, fps, input.Batch.Quality)

	gif, err := s.encoder.Encode(ctx, input.Batch, input.OnProgress)
	if err != nil {
		return result, err
	}

	result.GIF = gif
	result.FileSize = int64(len(gif))
	result.DurationMs = pipeline.PlaybackMillis(frameCount, fps)

	s.logger.Debug("Encoded %d bytes", result.FileSize)
	return result, nil
}
