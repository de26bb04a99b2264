package channel

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/user/vidgif/pkg/encodeworker"
	"github.com/user/vidgif/pkg/pipeline"
	"github.com/user/vidgif/pkg/ports"
)

// State is the lifecycle state of a Channel.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateEncoding
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateEncoding:
		return "encoding"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Options bounds the waits on the remote encoder.
type Options struct {
	InitTimeout   time.Duration
	EncodeTimeout time.Duration
}

// DefaultOptions returns the standard deadlines.
func DefaultOptions() Options {
	return Options{
		InitTimeout:   10 * time.Second,
		EncodeTimeout: 60 * time.Second,
	}
}

// Channel owns at most one remote encoder and serializes requests to it.
type Channel struct {
	spawner Spawner
	opts    Options
	logger  ports.Logger

	group singleflight.Group
	busy  atomic.Bool

	mu        sync.Mutex
	state     State
	gen       uint64
	transport Transport
	pending   Transport
	stop      chan struct{}
}

// New creates a Channel. No worker is started until the first Initialize or Encode.
func New(spawner Spawner, opts Options, logger ports.Logger) *Channel {
	defaults := DefaultOptions()
	if opts.InitTimeout <= 0 {
		opts.InitTimeout = defaults.InitTimeout
	}
	if opts.EncodeTimeout <= 0 {
		opts.EncodeTimeout = defaults.EncodeTimeout
	}
	return &Channel{
		spawner: spawner,
		opts:    opts,
		logger:  logger.WithComponent("channel"),
	}
}

// State returns the current lifecycle state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Initialize starts the remote encoder and waits until it has loaded its
// codec. Concurrent callers share one attempt. It returns immediately when
// the encoder is already up.
func (c *Channel) Initialize(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateTerminated:
		c.mu.Unlock()
		return errClosed()
	case StateReady, StateEncoding:
		c.mu.Unlock()
		return nil
	}
	gen := c.gen
	c.mu.Unlock()

	ch := c.group.DoChan(strconv.FormatUint(gen, 10), func() (interface{}, error) {
		return nil, c.initialize(gen)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return pipeline.Cancelled(ctx, "initialize")
	}
}

func (c *Channel) initialize(gen uint64) error {
	c.mu.Lock()
	if c.gen != gen || c.state == StateTerminated {
		c.mu.Unlock()
		return c.aborted("initialize")
	}
	if c.state == StateReady || c.state == StateEncoding {
		c.mu.Unlock()
		return nil
	}
	c.state = StateInitializing
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.opts.InitTimeout)
	defer cancel()

	c.logger.Debug("Spawning encoder")
	t, err := c.spawner.Spawn(ctx)
	if err != nil {
		c.failInit(gen, nil)
		if ctx.Err() != nil {
			return c.initTimeout()
		}
		return pipeline.NewError(pipeline.KindRemoteEncodeError, "spawn encoder", err)
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		t.Close()
		return c.aborted("initialize")
	}
	c.pending = t
	c.mu.Unlock()

	id := uuid.NewString()
	if err := t.Send(encodeworker.Message{Type: encodeworker.MsgInit, ID: id}); err != nil {
		c.failInit(gen, t)
		return pipeline.NewError(pipeline.KindRemoteEncodeError, "send init request", err)
	}

	for {
		select {
		case msg, ok := <-t.Messages():
			if !ok {
				if !c.failInit(gen, t) {
					return c.aborted("initialize")
				}
				return pipeline.Errorf(pipeline.KindRemoteEncodeError, "encoder exited during initialization")
			}
			if msg.ID != id {
				continue
			}
			switch msg.Type {
			case encodeworker.MsgReady:
				c.mu.Lock()
				if c.gen != gen {
					c.mu.Unlock()
					t.Close()
					return c.aborted("initialize")
				}
				c.transport = t
				c.pending = nil
				c.stop = make(chan struct{})
				c.state = StateReady
				c.mu.Unlock()
				c.logger.Debug("Encoder ready")
				return nil
			case encodeworker.MsgError:
				c.failInit(gen, t)
				return pipeline.Errorf(pipeline.KindRemoteEncodeError, "initialize encoder: %s", msg.Error)
			}
		case <-ctx.Done():
			c.failInit(gen, t)
			return c.initTimeout()
		}
	}
}

// failInit closes t and rolls the state back if the attempt is still current.
func (c *Channel) failInit(gen uint64, t Transport) bool {
	if t != nil {
		t.Close()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return false
	}
	c.pending = nil
	if c.state == StateInitializing {
		c.state = StateUninitialized
	}
	return true
}

func (c *Channel) initTimeout() error {
	return pipeline.Errorf(pipeline.KindInitTimeout, "encoder not ready within %s", c.opts.InitTimeout)
}

// Encode sends batch to the remote encoder and returns the GIF bytes. The
// batch buffer is transferred on send. Only one Encode may be in flight.
func (c *Channel) Encode(ctx context.Context, batch *pipeline.EncodeBatch, onProgress pipeline.EncodeProgressFunc) ([]byte, error) {
	if err := validateBatch(batch); err != nil {
		return nil, err
	}
	if c.State() == StateTerminated {
		return nil, errClosed()
	}

	if !c.busy.CompareAndSwap(false, true) {
		return nil, pipeline.Errorf(pipeline.KindChannelBusy, "an encode request is already in flight")
	}
	defer c.busy.Store(false)

	if ctx.Err() != nil {
		return nil, pipeline.Cancelled(ctx, "encode")
	}
	if err := c.Initialize(ctx); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.state != StateReady {
		c.mu.Unlock()
		return nil, c.aborted("encode")
	}
	t, stop, gen := c.transport, c.stop, c.gen
	c.state = StateEncoding
	c.mu.Unlock()

	if ctx.Err() != nil {
		c.finishEncode(gen)
		return nil, pipeline.Cancelled(ctx, "encode")
	}

	data, err := batch.Take()
	if err != nil {
		c.finishEncode(gen)
		return nil, err
	}

	id := uuid.NewString()
	c.logger.Debug("Sending %d frames (%d bytes) as request %s", batch.FrameCount, len(data), id)
	err = t.Send(encodeworker.Message{
		Type:       encodeworker.MsgEncode,
		ID:         id,
		Width:      batch.Width,
		Height:     batch.Height,
		FrameCount: batch.FrameCount,
		FPS:        batch.FPS,
		Quality:    batch.Quality,
		Data:       data,
	})
	if err != nil {
		c.teardown(gen)
		return nil, pipeline.NewError(pipeline.KindRemoteEncodeError, "send encode request", err)
	}

	timer := time.NewTimer(c.opts.EncodeTimeout)
	defer timer.Stop()

	last := -1
	for {
		select {
		case msg, ok := <-t.Messages():
			if !ok {
				if !c.teardown(gen) {
					return nil, c.aborted("encode")
				}
				return nil, pipeline.Errorf(pipeline.KindRemoteEncodeError, "encoder exited during encoding")
			}
			if msg.ID != id {
				c.logger.Debug("Dropping %s reply for request %s", msg.Type, msg.ID)
				continue
			}
			switch msg.Type {
			case encodeworker.MsgProgress:
				p := clampPercent(msg.Percent)
				if p > last {
					last = p
					if onProgress != nil {
						onProgress(p)
					}
				}
			case encodeworker.MsgComplete:
				c.finishEncode(gen)
				c.logger.Debug("Request %s complete: %d bytes", id, len(msg.Data))
				return msg.Data, nil
			case encodeworker.MsgError:
				c.finishEncode(gen)
				return nil, pipeline.Errorf(pipeline.KindRemoteEncodeError, "%s", msg.Error)
			}
		case <-stop:
			return nil, c.aborted("encode")
		case <-timer.C:
			c.teardown(gen)
			return nil, pipeline.Errorf(pipeline.KindEncodeTimeout, "no result within %s", c.opts.EncodeTimeout)
		case <-ctx.Done():
			c.teardown(gen)
			return nil, pipeline.Cancelled(ctx, "encode")
		}
	}
}

func (c *Channel) finishEncode(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen == gen && c.state == StateEncoding {
		c.state = StateReady
	}
}

// teardown discards the remote of generation gen. It reports false when the
// remote was already discarded by Terminate or Close.
func (c *Channel) teardown(gen uint64) bool {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return false
	}
	closing := c.resetLocked(StateUninitialized)
	c.mu.Unlock()

	c.logger.Debug("Tearing down encoder")
	closeAll(closing)
	return true
}

// Terminate discards the remote encoder. The next request starts a new one.
func (c *Channel) Terminate() {
	c.shutdown(StateUninitialized)
}

// Close discards the remote encoder for good. Later calls fail with CHANNEL_CLOSED.
func (c *Channel) Close() error {
	c.shutdown(StateTerminated)
	return nil
}

func (c *Channel) shutdown(next State) {
	c.mu.Lock()
	if c.state == StateTerminated {
		c.mu.Unlock()
		return
	}
	closing := c.resetLocked(next)
	c.mu.Unlock()
	closeAll(closing)
}

func (c *Channel) resetLocked(next State) []Transport {
	var closing []Transport
	if c.transport != nil {
		closing = append(closing, c.transport)
	}
	if c.pending != nil {
		closing = append(closing, c.pending)
	}
	if c.stop != nil {
		close(c.stop)
	}
	c.gen++
	c.transport = nil
	c.pending = nil
	c.stop = nil
	if c.state != StateTerminated {
		c.state = next
	}
	return closing
}

func closeAll(ts []Transport) {
	for _, t := range ts {
		t.Close()
	}
}

// aborted describes a request cut short by Terminate or Close.
func (c *Channel) aborted(op string) error {
	if c.State() == StateTerminated {
		return errClosed()
	}
	return pipeline.Errorf(pipeline.KindCancelled, "%s aborted by terminate", op)
}

func errClosed() error {
	return pipeline.Errorf(pipeline.KindChannelClosed, "encoder channel is closed")
}

func validateBatch(batch *pipeline.EncodeBatch) error {
	if batch == nil {
		return pipeline.Errorf(pipeline.KindInvalidEncodeRequest, "nil batch")
	}
	if batch.Consumed() {
		return pipeline.Errorf(pipeline.KindInvalidEncodeRequest, "batch buffer already transferred")
	}
	err := encodeworker.ValidateRequest(batch.Width, batch.Height, batch.FrameCount, batch.FPS, batch.Quality, batch.Len())
	if err != nil {
		return pipeline.NewError(pipeline.KindInvalidEncodeRequest, "invalid encode request", err)
	}
	return nil
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
