// Package gifcodec encodes packed RGBA frames as an animated GIF without
// external tools.
package gifcodec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"

	"golang.org/x/image/draw"

	"github.com/user/vidgif/pkg/pipeline"
	"github.com/user/vidgif/pkg/ports"
)

// ErrInvalidInput is returned for parameters that do not describe the data.
var ErrInvalidInput = errors.New("gifcodec: invalid input")

// Codec is a ports.Codec producing GIF89a with a per-frame median-cut palette.
// Quality is the pixel sampling stride used to build each palette: 1 looks
// at every pixel, 30 at every thirtieth.
type Codec struct {
	// Dither enables Floyd-Steinberg error diffusion when mapping to the palette.
	Dither bool
}

// New creates a Codec with dithering enabled.
func New() *Codec {
	return &Codec{Dither: true}
}

// Encode implements ports.Codec.
func (c *Codec) Encode(data []byte, width, height, frameCount, fps, quality int) ([]byte, error) {
	if width <= 0 || height <= 0 || frameCount <= 0 {
		return nil, fmt.Errorf("%w: %dx%d with %d frames", ErrInvalidInput, width, height, frameCount)
	}
	frameSize := width * height * 4
	if len(data) != frameSize*frameCount {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidInput, frameSize*frameCount, len(data))
	}

	delay := pipeline.FrameDelay(fps)
	rect := image.Rect(0, 0, width, height)

	anim := &gif.GIF{
		Image:     make([]*image.Paletted, 0, frameCount),
		Delay:     make([]int, 0, frameCount),
		Disposal:  make([]byte, 0, frameCount),
		LoopCount: 0,
		Config:    image.Config{Width: width, Height: height},
	}

	for i := 0; i < frameCount; i++ {
		pix := data[i*frameSize : (i+1)*frameSize]
		src := &image.RGBA{Pix: pix, Stride: width * 4, Rect: rect}

		transparent := hasTransparency(pix)
		palette := medianCut(pix, quality, maxOpaqueColors(transparent))
		if transparent {
			palette = append(palette, color.RGBA{})
		}

		dst := image.NewPaletted(rect, palette)
		if c.Dither && !transparent {
			draw.FloydSteinberg.Draw(dst, rect, src, image.Point{})
		} else {
			mapPixels(dst, pix, palette, transparent)
		}

		disposal := byte(gif.DisposalNone)
		if transparent {
			disposal = gif.DisposalBackground
		}

		anim.Image = append(anim.Image, dst)
		anim.Delay = append(anim.Delay, delay)
		anim.Disposal = append(anim.Disposal, disposal)
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		return nil, fmt.Errorf("encode gif: %w", err)
	}
	return buf.Bytes(), nil
}

func hasTransparency(pix []byte) bool {
	for i := 3; i < len(pix); i += 4 {
		if pix[i] < alphaThreshold {
			return true
		}
	}
	return false
}

// maxOpaqueColors leaves one palette slot for the transparent entry when needed.
func maxOpaqueColors(transparent bool) int {
	if transparent {
		return 255
	}
	return 256
}

// mapPixels assigns each pixel its nearest palette entry. The transparent
// entry, when present, is last and only used for transparent pixels.
func mapPixels(dst *image.Paletted, pix []byte, palette color.Palette, transparent bool) {
	opaque := palette
	if transparent {
		opaque = palette[:len(palette)-1]
	}
	clearIdx := uint8(len(palette) - 1)

	cache := make(map[uint32]uint8)
	for i, j := 0, 0; i+3 < len(pix); i, j = i+4, j+1 {
		if transparent && pix[i+3] < alphaThreshold {
			dst.Pix[j] = clearIdx
			continue
		}
		key := uint32(pix[i])<<16 | uint32(pix[i+1])<<8 | uint32(pix[i+2])
		idx, ok := cache[key]
		if !ok {
			idx = uint8(opaque.Index(color.RGBA{R: pix[i], G: pix[i+1], B: pix[i+2], A: 255}))
			cache[key] = idx
		}
		dst.Pix[j] = idx
	}
}

var _ ports.Codec = (*Codec)(nil)
