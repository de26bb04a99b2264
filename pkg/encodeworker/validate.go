package encodeworker

import (
	"fmt"

	"github.com/user/vidgif/pkg/pipeline"
)

// ValidateRequest checks encode parameters against the payload length.
func ValidateRequest(width, height, frameCount, fps, quality, dataLen int) error {
	switch {
	case width <= 0 || height <= 0:
		return fmt.Errorf("invalid dimensions %dx%d", width, height)
	case frameCount <= 0:
		return fmt.Errorf("invalid frame count %d", frameCount)
	case fps < pipeline.MinFPS || fps > pipeline.MaxFPS:
		return fmt.Errorf("fps must be between %d and %d, got %d", pipeline.MinFPS, pipeline.MaxFPS, fps)
	case quality < pipeline.MinQuality || quality > pipeline.MaxQuality:
		return fmt.Errorf("quality must be between %d and %d, got %d", pipeline.MinQuality, pipeline.MaxQuality, quality)
	}

	expected := width * height * 4 * frameCount
	if dataLen != expected {
		return fmt.Errorf("data size mismatch: expected %d bytes, got %d", expected, dataLen)
	}
	return nil
}
