package mocks

import (
	"image"
	"sync"

	"github.com/user/vidgif/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	RequestJSON    []byte
	TimestampsJSON []byte
	BatchJSON      []byte
	Frames         map[int]image.Image
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled: enabled,
		Frames:  make(map[int]image.Image),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SaveRequestJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestJSON = data
	return nil
}

func (m *DebugSink) SaveTimestampsJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TimestampsJSON = data
	return nil
}

func (m *DebugSink) SaveFrame(index int, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Frames[index] = img
	return nil
}

func (m *DebugSink) SaveBatchJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BatchJSON = data
	return nil
}

// FrameCount returns the number of saved frames.
func (m *DebugSink) FrameCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Frames)
}

var _ ports.DebugSink = (*DebugSink)(nil)
