package pipeline

import (
	"sync"
)

// EncodeBatch is a packed frame sequence ready for the encoder. The buffer is
// owned by the batch until Take moves it out; afterwards the batch is empty.
type EncodeBatch struct {
	Width      int
	Height     int
	FrameCount int
	FPS        int
	Quality    int

	mu       sync.Mutex
	data     []byte
	consumed bool
}

// NewEncodeBatch wraps data as a batch. The caller must not use data afterwards.
func NewEncodeBatch(data []byte, width, height, frameCount int) *EncodeBatch {
	return &EncodeBatch{
		Width:      width,
		Height:     height,
		FrameCount: frameCount,
		data:       data,
	}
}

// FrameSize returns the byte length of one frame.
func (b *EncodeBatch) FrameSize() int {
	return b.Width * b.Height * 4
}

// Len returns the current buffer length, zero once consumed.
func (b *EncodeBatch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// Consumed reports whether the buffer has been moved out.
func (b *EncodeBatch) Consumed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.consumed
}

// Bytes returns the buffer without transferring ownership.
func (b *EncodeBatch) Bytes() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.consumed {
		return nil, Errorf(KindInvalidEncodeRequest, "batch buffer already transferred")
	}
	return b.data, nil
}

// Take moves the buffer out of the batch. It succeeds once.
func (b *EncodeBatch) Take() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.consumed {
		return nil, Errorf(KindInvalidEncodeRequest, "batch buffer already transferred")
	}
	data := b.data
	b.data = nil
	b.consumed = true
	return data, nil
}
