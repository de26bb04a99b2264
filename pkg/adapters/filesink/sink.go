// Package filesink provides a file-based debug sink implementation.
package filesink

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/user/vidgif/pkg/ports"
)

// Sink writes conversion artifacts under a base directory:
//
//	request.json      conversion parameters
//	timestamps.json   planned sampling instants
//	frames/frame-NNNN.png  sampled frames
//	batch.json        encode batch header
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.Renderer
}

// New creates a new FileSink.
func New(baseDir string, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	return &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

func (s *Sink) SaveRequestJSON(data []byte) error {
	return s.fs.WriteFile(filepath.Join(s.baseDir, "request.json"), data)
}

func (s *Sink) SaveTimestampsJSON(data []byte) error {
	return s.fs.WriteFile(filepath.Join(s.baseDir, "timestamps.json"), data)
}

func (s *Sink) SaveBatchJSON(data []byte) error {
	return s.fs.WriteFile(filepath.Join(s.baseDir, "batch.json"), data)
}

// SaveFrame writes img as frames/frame-NNNN.png.
func (s *Sink) SaveFrame(index int, img image.Image) error {
	dir := filepath.Join(s.baseDir, "frames")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	data, err := s.renderer.EncodeImage(img, ports.FormatPNG, 0)
	if err != nil {
		return fmt.Errorf("encode frame %d: %w", index, err)
	}
	return s.fs.WriteFile(filepath.Join(dir, fmt.Sprintf("frame-%04d.png", index)), data)
}

var _ ports.DebugSink = (*Sink)(nil)
