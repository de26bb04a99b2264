// Package ggrenderer provides off-screen rasterization surfaces backed by gg.
package ggrenderer

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/user/vidgif/pkg/ports"
)

// MaxSurfaceBytes bounds the pixel memory of a single surface.
const MaxSurfaceBytes = 1 << 30

// ErrSurfaceSize is returned for surfaces with a non-positive or oversized area.
var ErrSurfaceSize = errors.New("ggrenderer: invalid surface size")

// Renderer implements ports.Renderer using the gg library.
type Renderer struct {
	// Scaler resamples frames into surfaces. Defaults to Catmull-Rom.
	Scaler draw.Scaler
}

// New creates a new Renderer.
func New() *Renderer {
	return &Renderer{Scaler: draw.CatmullRom}
}

// CreateSurface allocates a transparent surface.
func (r *Renderer) CreateSurface(width, height int) (ports.Surface, error) {
	if width <= 0 || height <= 0 || int64(width)*int64(height)*4 > MaxSurfaceBytes {
		return nil, fmt.Errorf("%w: %dx%d", ErrSurfaceSize, width, height)
	}

	dc := gg.NewContext(width, height)
	rgba, ok := dc.Image().(*image.RGBA)
	if !ok {
		return nil, fmt.Errorf("ggrenderer: unexpected backing image %T", dc.Image())
	}

	scaler := r.Scaler
	if scaler == nil {
		scaler = draw.CatmullRom
	}
	return &Surface{dc: dc, rgba: rgba, scaler: scaler}, nil
}

// DecodeImage decodes image data into an image.Image.
func (r *Renderer) DecodeImage(data []byte, format ports.ImageFormat) (image.Image, error) {
	reader := bytes.NewReader(data)

	switch format {
	case ports.FormatJPEG:
		return jpeg.Decode(reader)
	case ports.FormatPNG:
		return png.Decode(reader)
	default:
		img, _, err := image.Decode(reader)
		return img, err
	}
}

// EncodeImage encodes an image to the specified format.
func (r *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case ports.FormatJPEG:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("encode JPEG: %w", err)
		}
	case ports.FormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode PNG: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format: %d", format)
	}

	return buf.Bytes(), nil
}

var _ ports.Renderer = (*Renderer)(nil)

// Surface implements ports.Surface over a gg.Context.
type Surface struct {
	dc     *gg.Context
	rgba   *image.RGBA
	scaler draw.Scaler
}

// Width returns the surface width.
func (s *Surface) Width() int {
	return s.dc.Width()
}

// Height returns the surface height.
func (s *Surface) Height() int {
	return s.dc.Height()
}

// Clear resets the surface to transparent black.
func (s *Surface) Clear() {
	s.dc.SetRGBA(0, 0, 0, 0)
	s.dc.Clear()
}

// DrawScaled resamples img over the whole surface.
func (s *Surface) DrawScaled(img image.Image) {
	s.scaler.Scale(s.rgba, s.rgba.Bounds(), img, img.Bounds(), draw.Over, nil)
}

// ReadPixels returns a copy of the surface pixels.
func (s *Surface) ReadPixels() []byte {
	w, h := s.Width(), s.Height()
	out := make([]byte, w*h*4)
	if s.rgba.Stride == w*4 {
		copy(out, s.rgba.Pix)
		return out
	}
	for y := 0; y < h; y++ {
		copy(out[y*w*4:(y+1)*w*4], s.rgba.Pix[y*s.rgba.Stride:])
	}
	return out
}

// ToImage returns a copy of the surface as an image.
func (s *Surface) ToImage() image.Image {
	img := image.NewRGBA(s.rgba.Bounds())
	copy(img.Pix, s.rgba.Pix)
	return img
}

// Release drops the pixel memory. The surface must not be drawn on afterwards.
func (s *Surface) Release() {
	s.rgba.Pix = nil
}

var _ ports.Surface = (*Surface)(nil)
