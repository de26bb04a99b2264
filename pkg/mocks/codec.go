package mocks

import (
	"sync"

	"github.com/user/vidgif/pkg/ports"
)

// Codec is a mock implementation of ports.Codec and ports.CodecLoader.
type Codec struct {
	mu sync.Mutex

	EncodeFunc func(data []byte, width, height, frameCount, fps, quality int) ([]byte, error)
	LoadFunc   func() error

	// Recorded calls for verification
	LoadCalls   int
	EncodeCalls []CodecCall
}

// CodecCall records a call to Encode.
type CodecCall struct {
	DataLen    int
	Width      int
	Height     int
	FrameCount int
	FPS        int
	Quality    int
}

func (m *Codec) Load() error {
	m.mu.Lock()
	m.LoadCalls++
	m.mu.Unlock()
	if m.LoadFunc != nil {
		return m.LoadFunc()
	}
	return nil
}

func (m *Codec) Encode(data []byte, width, height, frameCount, fps, quality int) ([]byte, error) {
	m.mu.Lock()
	m.EncodeCalls = append(m.EncodeCalls, CodecCall{
		DataLen:    len(data),
		Width:      width,
		Height:     height,
		FrameCount: frameCount,
		FPS:        fps,
		Quality:    quality,
	})
	m.mu.Unlock()
	if m.EncodeFunc != nil {
		return m.EncodeFunc(data, width, height, frameCount, fps, quality)
	}
	return []byte("GIF89a;"), nil
}

// Calls returns a snapshot of recorded Encode calls.
func (m *Codec) Calls() []CodecCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CodecCall(nil), m.EncodeCalls...)
}

var (
	_ ports.Codec       = (*Codec)(nil)
	_ ports.CodecLoader = (*Codec)(nil)
)

// LoadCount returns how many times Load was called.
func (m *Codec) LoadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.LoadCalls
}
