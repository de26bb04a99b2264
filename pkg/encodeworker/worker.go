package encodeworker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/user/vidgif/pkg/ports"
)

// Worker owns a codec and answers INIT and ENCODE requests one at a time.
type Worker struct {
	codec  ports.Codec
	logger ports.Logger

	mu    sync.Mutex
	ready bool
}

// New creates a Worker around codec.
func New(codec ports.Codec, logger ports.Logger) *Worker {
	return &Worker{
		codec:  codec,
		logger: logger.WithComponent("worker"),
	}
}

// Handle processes one request and posts its replies in order. A panic in
// the codec is reported as an ERROR reply.
func (w *Worker) Handle(msg Message, reply func(Message)) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Worker panic while handling %s: %v", msg.Type, r)
			reply(Message{Type: MsgError, ID: msg.ID, Error: fmt.Sprintf("worker panic: %v", r)})
		}
	}()

	switch msg.Type {
	case MsgInit:
		w.handleInit(msg, reply)
	case MsgEncode:
		w.handleEncode(msg, reply)
	default:
		reply(Message{Type: MsgError, ID: msg.ID, Error: fmt.Sprintf("unknown message type %s", msg.Type)})
	}
}

func (w *Worker) handleInit(msg Message, reply func(Message)) {
	if loader, ok := w.codec.(ports.CodecLoader); ok {
		if err := loader.Load(); err != nil {
			reply(Message{Type: MsgError, ID: msg.ID, Error: fmt.Sprintf("load codec: %v", err)})
			return
		}
	}

	w.mu.Lock()
	w.ready = true
	w.mu.Unlock()

	w.logger.Debug("Codec loaded")
	reply(Message{Type: MsgReady, ID: msg.ID})
}

func (w *Worker) handleEncode(msg Message, reply func(Message)) {
	w.mu.Lock()
	ready := w.ready
	w.mu.Unlock()
	if !ready {
		reply(Message{Type: MsgError, ID: msg.ID, Error: "worker not initialized"})
		return
	}

	if err := ValidateRequest(msg.Width, msg.Height, msg.FrameCount, msg.FPS, msg.Quality, len(msg.Data)); err != nil {
		reply(Message{Type: MsgError, ID: msg.ID, Error: err.Error()})
		return
	}

	w.logger.Debug("Encoding %d frames at %dx%d", msg.FrameCount, msg.Width, msg.Height)
	reply(Message{Type: MsgProgress, ID: msg.ID, Percent: 0, Stage: StageEncoding})

	gif, err := w.codec.Encode(msg.Data, msg.Width, msg.Height, msg.FrameCount, msg.FPS, msg.Quality)
	if err != nil {
		reply(Message{Type: MsgError, ID: msg.ID, Error: err.Error()})
		return
	}

	reply(Message{Type: MsgProgress, ID: msg.ID, Percent: 100, Stage: StageEncoding})
	reply(Message{Type: MsgComplete, ID: msg.ID, Data: gif})
}

// Serve runs w over a byte stream until r reaches EOF or ctx is done.
// Requests are handled sequentially.
func Serve(ctx context.Context, r io.Reader, wr io.Writer, w *Worker) error {
	dec := NewDecoder(r)
	enc := NewEncoder(wr)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		msg, err := dec.Receive()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("receive request: %w", err)
		}

		var sendErr error
		w.Handle(msg, func(m Message) {
			if sendErr == nil {
				sendErr = enc.Send(m)
			}
		})
		if sendErr != nil {
			return fmt.Errorf("send reply: %w", sendErr)
		}
	}
}
