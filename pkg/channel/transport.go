// Package channel provides the caller side of the isolated encoder: a
// lazily started worker, reused while healthy, with bounded waits on every
// exchange.
package channel

import (
	"context"
	"errors"

	"github.com/user/vidgif/pkg/encodeworker"
)

// ErrTransportClosed is returned by Send after Close.
var ErrTransportClosed = errors.New("channel: transport closed")

// Transport is a message link to one worker instance.
type Transport interface {
	// Send delivers a request. The request's Data must not be used afterwards.
	Send(msg encodeworker.Message) error

	// Messages yields replies. It is closed when the worker is gone.
	Messages() <-chan encodeworker.Message

	// Close tears the worker down. It is safe to call more than once.
	Close() error
}

// Spawner starts workers.
type Spawner interface {
	Spawn(ctx context.Context) (Transport, error)
}

// SpawnFunc adapts a function to the Spawner interface.
type SpawnFunc func(ctx context.Context) (Transport, error)

// Spawn implements Spawner.
func (f SpawnFunc) Spawn(ctx context.Context) (Transport, error) {
	return f(ctx)
}
