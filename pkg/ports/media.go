// Package ports defines the interfaces between the conversion pipeline and
// the outside world: media sources, codecs, rasterization, files and logs.
package ports

import "image"

// ReadyState mirrors the readiness levels of a media element.
type ReadyState int

const (
	// HaveNothing means no metadata is known yet.
	HaveNothing ReadyState = iota
	// HaveMetadata means duration and native size are known.
	HaveMetadata
	// HaveCurrentData means the frame at the current position is decodable.
	HaveCurrentData
	// HaveFutureData means playback could advance past the current position.
	HaveFutureData
	// HaveEnoughData means the source could play through.
	HaveEnoughData
)

// MediaEventType identifies a lifecycle signal emitted by a MediaSource.
type MediaEventType int

const (
	// EventLoadedMetadata fires once native size and duration are known.
	EventLoadedMetadata MediaEventType = iota
	// EventSeeked fires when a requested seek has completed.
	EventSeeked
	// EventError fires when the source fails to load or decode.
	EventError
)

func (t MediaEventType) String() string {
	switch t {
	case EventLoadedMetadata:
		return "loadedmetadata"
	case EventSeeked:
		return "seeked"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// MediaEvent is a single signal from a MediaSource.
type MediaEvent struct {
	Type MediaEventType
	// Time is the source position when the event fired, in seconds.
	Time float64
	// Err carries the failure for EventError.
	Err error
}

// MediaSource abstracts a seekable video whose current frame can be read.
//
// Seek and CurrentFrame may block on the underlying media; callers bound
// them with their own deadlines. Seek completion is reported through an
// EventSeeked on every open subscription. Subscribers must call the returned
// cancel function when they stop listening.
type MediaSource interface {
	// Subscribe registers a listener and returns its event channel together
	// with the function that removes it.
	Subscribe() (<-chan MediaEvent, func())

	// ReadyState reports how much of the source is available.
	ReadyState() ReadyState

	// NativeSize returns the intrinsic frame size, zero while unknown.
	NativeSize() (width, height int)

	// Duration returns the source length in seconds, zero while unknown.
	Duration() float64

	// CurrentTime returns the current position in seconds.
	CurrentTime() float64

	// Seek requests a move to the given position in seconds.
	Seek(t float64) error

	// CurrentFrame returns the frame at the current position at native size.
	CurrentFrame() (image.Image, error)

	// Close releases the source.
	Close() error
}

// FrameNotifier is implemented by sources that can signal when the frame at
// the current position has actually been presented.
type FrameNotifier interface {
	// RequestVideoFrame returns a channel closed on the next presented frame
	// and a function that abandons the request. It must not block.
	RequestVideoFrame() (<-chan struct{}, func())
}
