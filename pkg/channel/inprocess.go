package channel

import (
	"context"
	"sync"

	"github.com/user/vidgif/pkg/encodeworker"
	"github.com/user/vidgif/pkg/ports"
)

// InProcess spawns workers as goroutines that share nothing with the caller
// but the messages they exchange.
type InProcess struct {
	codec  ports.Codec
	logger ports.Logger
}

// NewInProcess creates a Spawner that runs codec in a goroutine.
func NewInProcess(codec ports.Codec, logger ports.Logger) *InProcess {
	return &InProcess{codec: codec, logger: logger}
}

// Spawn starts a worker goroutine.
func (p *InProcess) Spawn(ctx context.Context) (Transport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t := &inProcessTransport{
		inbox:  make(chan encodeworker.Message, 1),
		outbox: make(chan encodeworker.Message, 8),
		done:   make(chan struct{}),
	}
	go t.run(encodeworker.New(p.codec, p.logger))
	return t, nil
}

type inProcessTransport struct {
	inbox  chan encodeworker.Message
	outbox chan encodeworker.Message
	done   chan struct{}
	once   sync.Once
}

func (t *inProcessTransport) run(w *encodeworker.Worker) {
	defer close(t.outbox)
	for {
		select {
		case <-t.done:
			return
		case msg := <-t.inbox:
			// select picks at random when both are ready; a closed
			// transport must not handle what was queued before Close.
			if t.isClosed() {
				return
			}
			w.Handle(msg, t.post)
		}
	}
}

func (t *inProcessTransport) isClosed() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

func (t *inProcessTransport) post(msg encodeworker.Message) {
	select {
	case t.outbox <- msg:
	case <-t.done:
	}
}

func (t *inProcessTransport) Send(msg encodeworker.Message) error {
	if t.isClosed() {
		return ErrTransportClosed
	}
	select {
	case t.inbox <- msg:
		return nil
	case <-t.done:
		return ErrTransportClosed
	}
}

func (t *inProcessTransport) Messages() <-chan encodeworker.Message {
	return t.outbox
}

func (t *inProcessTransport) Close() error {
	t.once.Do(func() { close(t.done) })
	return nil
}
