package mocks

import (
	"image"

	"github.com/user/vidgif/pkg/ports"
)

// Renderer is a mock implementation of ports.Renderer. Surfaces default to
// Surface values that record what was drawn.
type Renderer struct {
	CreateSurfaceFunc func(width, height int) (ports.Surface, error)
	DecodeImageFunc   func(data []byte, format ports.ImageFormat) (image.Image, error)
	EncodeImageFunc   func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error)

	Surfaces []*Surface
}

func (m *Renderer) CreateSurface(width, height int) (ports.Surface, error) {
	if m.CreateSurfaceFunc != nil {
		return m.CreateSurfaceFunc(width, height)
	}
	s := &Surface{W: width, H: height}
	m.Surfaces = append(m.Surfaces, s)
	return s, nil
}

func (m *Renderer) DecodeImage(data []byte, format ports.ImageFormat) (image.Image, error) {
	if m.DecodeImageFunc != nil {
		return m.DecodeImageFunc(data, format)
	}
	return image.NewRGBA(image.Rect(0, 0, 16, 16)), nil
}

func (m *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	if m.EncodeImageFunc != nil {
		return m.EncodeImageFunc(img, format, quality)
	}
	return []byte{}, nil
}

var _ ports.Renderer = (*Renderer)(nil)

// Surface is a mock implementation of ports.Surface.
type Surface struct {
	W, H int

	Draws    int
	Clears   int
	Released bool
}

func (m *Surface) Width() int  { return m.W }
func (m *Surface) Height() int { return m.H }
func (m *Surface) Clear()      { m.Clears++ }

func (m *Surface) DrawScaled(img image.Image) { m.Draws++ }

func (m *Surface) ReadPixels() []byte {
	return make([]byte, m.W*m.H*4)
}

func (m *Surface) ToImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, m.W, m.H))
}

func (m *Surface) Release() { m.Released = true }

var _ ports.Surface = (*Surface)(nil)
