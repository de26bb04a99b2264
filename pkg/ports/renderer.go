package ports

import (
	"image"
)

// Renderer creates rasterization surfaces and converts images to and from
// encoded formats.
type Renderer interface {
	// CreateSurface allocates an off-screen surface of the given size.
	CreateSurface(width, height int) (Surface, error)

	// DecodeImage decodes image data into an image.Image.
	DecodeImage(data []byte, format ImageFormat) (image.Image, error)

	// EncodeImage encodes an image to the specified format.
	EncodeImage(img image.Image, format ImageFormat, quality int) ([]byte, error)
}

// Surface is a reusable RGBA drawing target.
type Surface interface {
	// Width and Height return the surface size in pixels.
	Width() int
	Height() int

	// Clear resets every pixel to transparent black.
	Clear()

	// DrawScaled draws img resampled to fill the whole surface.
	DrawScaled(img image.Image)

	// ReadPixels returns a copy of the surface as row-major RGBA bytes.
	ReadPixels() []byte

	// ToImage returns the surface contents as an image.
	ToImage() image.Image

	// Release frees the surface. It is safe to call more than once.
	Release()
}

// ImageFormat specifies image encoding format.
type ImageFormat int

const (
	FormatJPEG ImageFormat = iota
	FormatPNG
)
