// Package mediaevent fans media source events out to subscribers.
package mediaevent

import (
	"sync"

	"github.com/user/vidgif/pkg/ports"
)

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 32

// Emitter delivers events to every open subscription. Emit never blocks: an
// event is dropped for a subscriber whose queue is full.
type Emitter struct {
	mu     sync.Mutex
	subs   map[int]chan ports.MediaEvent
	nextID int
	buffer int
	closed bool
}

// New creates an Emitter with the given per-subscriber buffer.
func New(buffer int) *Emitter {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Emitter{
		subs:   make(map[int]chan ports.MediaEvent),
		buffer: buffer,
	}
}

// Subscribe registers a listener. The returned function removes it and may
// be called more than once.
func (e *Emitter) Subscribe() (<-chan ports.MediaEvent, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch := make(chan ports.MediaEvent, e.buffer)
	if e.closed {
		close(ch)
		return ch, func() {}
	}

	id := e.nextID
	e.nextID++
	e.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			if sub, ok := e.subs[id]; ok {
				delete(e.subs, id)
				close(sub)
			}
		})
	}
}

// Emit delivers ev to every subscriber.
func (e *Emitter) Emit(ev ports.MediaEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, ch := range e.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// ListenerCount returns the number of open subscriptions.
func (e *Emitter) ListenerCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs)
}

// Close closes every subscription. Later subscriptions receive a closed channel.
func (e *Emitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.closed = true
	for id, ch := range e.subs {
		delete(e.subs, id)
		close(ch)
	}
}
