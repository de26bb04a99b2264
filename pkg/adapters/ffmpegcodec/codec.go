// Package ffmpegcodec encodes packed RGBA frames to GIF with ffmpeg's
// palettegen and paletteuse filters.
package ffmpegcodec

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/user/vidgif/pkg/adapters/ffmpegbin"
	"github.com/user/vidgif/pkg/ports"
)

// DefaultTimeout bounds a single ffmpeg run.
const DefaultTimeout = 2 * time.Minute

// Codec implements ports.Codec and ports.CodecLoader on top of ffmpeg.
type Codec struct {
	// FFmpegPath overrides executable discovery when set.
	FFmpegPath string
	Timeout    time.Duration

	bin    string
	logger ports.Logger
}

// New creates a Codec. Load must succeed before Encode.
func New(ffmpegPath string, logger ports.Logger) *Codec {
	return &Codec{
		FFmpegPath: ffmpegPath,
		Timeout:    DefaultTimeout,
		logger:     logger.WithComponent("ffmpeg"),
	}
}

// Load locates ffmpeg.
func (c *Codec) Load() error {
	bin, err := ffmpegbin.FindFFmpeg(c.FFmpegPath)
	if err != nil {
		return err
	}
	c.bin = bin
	c.logger.Debug("Using ffmpeg at %s", bin)
	return nil
}

// Encode implements ports.Codec.
func (c *Codec) Encode(data []byte, width, height, frameCount, fps, quality int) ([]byte, error) {
	if c.bin == "" {
		if err := c.Load(); err != nil {
			return nil, err
		}
	}
	if len(data) != width*height*4*frameCount {
		return nil, fmt.Errorf("ffmpegcodec: expected %d bytes, got %d", width*height*4*frameCount, len(data))
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	c.logger.Debug("Encoding %d frames %dx%d with ffmpeg", frameCount, width, height)
	return ffmpegbin.Run(ctx, c.bin, Args(width, height, fps, quality), bytes.NewReader(data))
}

// Args builds the ffmpeg command line for a raw RGBA stream on stdin and a
// looping GIF on stdout.
func Args(width, height, fps, quality int) []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-r", strconv.Itoa(fps),
		"-i", "pipe:0",
		"-filter_complex", PaletteFilter("[0:v]", quality),
		"-loop", "0",
		"-f", "gif",
		"pipe:1",
	}
}

// PaletteFilter returns a split/palettegen/paletteuse graph for input.
// Higher quality values mean fewer colors and coarser dithering.
func PaletteFilter(input string, quality int) string {
	colors, bayer := PaletteParams(quality)
	return fmt.Sprintf("%ssplit[a][b];[a]palettegen=max_colors=%d:stats_mode=diff[p];[b][p]paletteuse=dither=bayer:bayer_scale=%d:diff_mode=rectangle",
		input, colors, bayer)
}

// PaletteParams maps quality 1..30 to a palette size and bayer scale.
func PaletteParams(quality int) (maxColors, bayerScale int) {
	if quality < 1 {
		quality = 1
	}
	if quality > 30 {
		quality = 30
	}
	maxColors = 256 - (quality-1)*7
	bayerScale = (quality - 1) / 6
	return maxColors, bayerScale
}

var (
	_ ports.Codec       = (*Codec)(nil)
	_ ports.CodecLoader = (*Codec)(nil)
)
