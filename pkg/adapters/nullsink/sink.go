// Package nullsink provides a debug sink that discards everything.
package nullsink

import (
	"image"

	"github.com/user/vidgif/pkg/ports"
)

// Sink is a disabled ports.DebugSink.
type Sink struct{}

// New creates a new NullSink.
func New() *Sink {
	return &Sink{}
}

func (s *Sink) Enabled() bool                              { return false }
func (s *Sink) SaveRequestJSON(data []byte) error          { return nil }
func (s *Sink) SaveTimestampsJSON(data []byte) error       { return nil }
func (s *Sink) SaveFrame(index int, img image.Image) error { return nil }
func (s *Sink) SaveBatchJSON(data []byte) error            { return nil }

var _ ports.DebugSink = (*Sink)(nil)
