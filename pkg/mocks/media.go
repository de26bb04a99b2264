package mocks

import (
	"errors"
	"image"
	"image/color"
	"sync"

	"github.com/user/vidgif/pkg/mediaevent"
	"github.com/user/vidgif/pkg/ports"
)

// MediaSource is a scriptable implementation of ports.MediaSource. By default
// it is fully loaded and every Seek completes immediately with an EventSeeked.
type MediaSource struct {
	mu      sync.Mutex
	emitter *mediaevent.Emitter

	state    ports.ReadyState
	width    int
	height   int
	duration float64
	time     float64
	closed   bool

	// SeekFunc replaces the default seek behaviour when set.
	SeekFunc func(m *MediaSource, t float64) error
	// FrameFunc replaces the default frame when set.
	FrameFunc func(t float64) (image.Image, error)

	// Recorded calls for verification
	Seeks       []float64
	FrameReads  int
	CloseCalled bool
}

// NewMediaSource creates a loaded source with the given native size and duration.
func NewMediaSource(width, height int, duration float64) *MediaSource {
	return &MediaSource{
		emitter:  mediaevent.New(0),
		state:    ports.HaveEnoughData,
		width:    width,
		height:   height,
		duration: duration,
	}
}

// NewLoadingMediaSource creates a source that has not loaded metadata yet.
// Call FinishLoading or FailLoading to drive it.
func NewLoadingMediaSource(width, height int, duration float64) *MediaSource {
	m := NewMediaSource(width, height, duration)
	m.state = ports.HaveNothing
	return m
}

// FinishLoading marks metadata as known and emits EventLoadedMetadata.
func (m *MediaSource) FinishLoading() {
	m.mu.Lock()
	m.state = ports.HaveEnoughData
	m.mu.Unlock()
	m.emitter.Emit(ports.MediaEvent{Type: ports.EventLoadedMetadata})
}

// FailLoading emits an EventError.
func (m *MediaSource) FailLoading(err error) {
	m.emitter.Emit(ports.MediaEvent{Type: ports.EventError, Err: err})
}

// Emit sends an arbitrary event to subscribers.
func (m *MediaSource) Emit(ev ports.MediaEvent) {
	m.emitter.Emit(ev)
}

// SetTime moves the position without emitting anything.
func (m *MediaSource) SetTime(t float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.time = t
}

// ListenerCount returns the number of open subscriptions.
func (m *MediaSource) ListenerCount() int {
	return m.emitter.ListenerCount()
}

// SeekCount returns the number of Seek calls.
func (m *MediaSource) SeekCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Seeks)
}

func (m *MediaSource) Subscribe() (<-chan ports.MediaEvent, func()) {
	return m.emitter.Subscribe()
}

func (m *MediaSource) ReadyState() ports.ReadyState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *MediaSource) NativeSize() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state < ports.HaveMetadata {
		return 0, 0
	}
	return m.width, m.height
}

func (m *MediaSource) Duration() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *MediaSource) CurrentTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.time
}

func (m *MediaSource) Seek(t float64) error {
	m.mu.Lock()
	m.Seeks = append(m.Seeks, t)
	closed := m.closed
	m.mu.Unlock()

	if closed {
		return errors.New("mock media source closed")
	}
	if m.SeekFunc != nil {
		return m.SeekFunc(m, t)
	}
	m.CompleteSeek(t)
	return nil
}

// CompleteSeek moves to t and emits EventSeeked.
func (m *MediaSource) CompleteSeek(t float64) {
	m.SetTime(t)
	m.emitter.Emit(ports.MediaEvent{Type: ports.EventSeeked, Time: t})
}

func (m *MediaSource) CurrentFrame() (image.Image, error) {
	m.mu.Lock()
	m.FrameReads++
	t, w, h := m.time, m.width, m.height
	m.mu.Unlock()

	if m.FrameFunc != nil {
		return m.FrameFunc(t)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fill := color.RGBA{R: 200, G: 100, B: 50, A: 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, fill)
		}
	}
	return img, nil
}

func (m *MediaSource) Close() error {
	m.mu.Lock()
	m.closed = true
	m.CloseCalled = true
	m.mu.Unlock()
	m.emitter.Close()
	return nil
}

var _ ports.MediaSource = (*MediaSource)(nil)

// NotifyingMediaSource adds ports.FrameNotifier to MediaSource. Each request
// is satisfied immediately unless Withhold is set.
type NotifyingMediaSource struct {
	*MediaSource

	// Withhold leaves every frame request pending.
	Withhold bool

	mu            sync.Mutex
	FrameRequests int
	FrameCancels  int
}

// NewNotifyingMediaSource creates a loaded source that signals presented frames.
func NewNotifyingMediaSource(width, height int, duration float64) *NotifyingMediaSource {
	return &NotifyingMediaSource{MediaSource: NewMediaSource(width, height, duration)}
}

func (m *NotifyingMediaSource) RequestVideoFrame() (<-chan struct{}, func()) {
	m.mu.Lock()
	m.FrameRequests++
	m.mu.Unlock()
	ch := make(chan struct{})
	if !m.Withhold {
		close(ch)
	}
	return ch, func() {
		m.mu.Lock()
		m.FrameCancels++
		m.mu.Unlock()
	}
}

// RequestCount returns the number of frame requests.
func (m *NotifyingMediaSource) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.FrameRequests
}

// CancelCount returns the number of abandoned or finished frame requests.
func (m *NotifyingMediaSource) CancelCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.FrameCancels
}

var _ ports.FrameNotifier = (*NotifyingMediaSource)(nil)
