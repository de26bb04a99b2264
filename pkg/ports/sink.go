package ports

import (
	"image"
)

// DebugSink receives intermediate conversion artifacts for inspection.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveRequestJSON saves the conversion request as JSON.
	SaveRequestJSON(data []byte) error

	// SaveTimestampsJSON saves the planned sampling instants as JSON.
	SaveTimestampsJSON(data []byte) error

	// SaveFrame saves one sampled frame.
	SaveFrame(index int, img image.Image) error

	// SaveBatchJSON saves the encode batch header as JSON.
	SaveBatchJSON(data []byte) error
}
