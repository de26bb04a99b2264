package sample

import (
	"context"
	"errors"
	"image"
	"math"
	"time"

	"github.com/user/vidgif/pkg/pipeline"
	"github.com/user/vidgif/pkg/ports"
)

var errSourceClosed = errors.New("media source closed")

func (s *Stage) waitForMetadata(ctx context.Context, src ports.MediaSource, events <-chan ports.MediaEvent) error {
	if src.ReadyState() >= ports.HaveMetadata {
		return nil
	}

	s.logger.Debug("Waiting for source metadata")
	timer := time.NewTimer(s.opts.LoadTimeout)
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return pipeline.NewError(pipeline.KindSourceLoadFailed, "load source", errSourceClosed)
			}
			switch ev.Type {
			case ports.EventLoadedMetadata:
				return nil
			case ports.EventError:
				return pipeline.NewError(pipeline.KindSourceLoadFailed, "load source", ev.Err)
			}
		case <-timer.C:
			return pipeline.Errorf(pipeline.KindSourceLoadTimeout, "source metadata not available after %s", s.opts.LoadTimeout)
		case <-ctx.Done():
			return pipeline.Cancelled(ctx, "source load")
		}
	}
}

// seek moves the source to t and waits for the matching EventSeeked. The
// deadline covers the seek request itself, so a source whose Seek blocks
// still fails within SeekTimeout.
func (s *Stage) seek(ctx context.Context, src ports.MediaSource, events <-chan ports.MediaEvent, t float64) error {
	if math.Abs(src.CurrentTime()-t) < s.opts.SeekEpsilon {
		return nil
	}

	if err := drain(events); err != nil {
		return pipeline.NewError(pipeline.KindSeekFailed, "source error before seek", err)
	}

	timer := time.NewTimer(s.opts.SeekTimeout)
	defer timer.Stop()

	s.logger.Debug("Seeking to %.3fs", t)
	requested := make(chan error, 1)
	go func() { requested <- src.Seek(t) }()

	for {
		select {
		case err := <-requested:
			if err != nil {
				return pipeline.NewError(pipeline.KindSeekFailed, "request seek", err)
			}
			requested = nil
		case ev, ok := <-events:
			if !ok {
				return pipeline.NewError(pipeline.KindSeekFailed, "seek", errSourceClosed)
			}
			switch ev.Type {
			case ports.EventSeeked:
				return nil
			case ports.EventError:
				return pipeline.NewError(pipeline.KindSeekFailed, "seek", ev.Err)
			}
		case <-timer.C:
			return pipeline.Errorf(pipeline.KindSeekTimeout, "seek to %.3fs did not complete within %s", t, s.opts.SeekTimeout)
		case <-ctx.Done():
			return pipeline.Cancelled(ctx, "seek")
		}
	}
}

// waitForFrame waits until the frame at the new position is renderable.
func (s *Stage) waitForFrame(ctx context.Context, src ports.MediaSource, t float64) error {
	timer := time.NewTimer(s.opts.SeekTimeout)
	defer timer.Stop()

	var presented <-chan struct{}
	var refreshed <-chan time.Time
	if notifier, ok := src.(ports.FrameNotifier); ok {
		ch, cancel := notifier.RequestVideoFrame()
		defer cancel()
		presented = ch
	} else {
		refresh := time.NewTimer(s.opts.RefreshInterval)
		defer refresh.Stop()
		refreshed = refresh.C
	}

	select {
	case <-presented:
		return nil
	case <-refreshed:
		return nil
	case <-timer.C:
		return pipeline.Errorf(pipeline.KindSeekTimeout, "frame at %.3fs not presented within %s", t, s.opts.SeekTimeout)
	case <-ctx.Done():
		return pipeline.Cancelled(ctx, "frame wait")
	}
}

type frameRead struct {
	img image.Image
	err error
}

// readFrame reads the current frame under the same deadline and
// cancellation as a seek.
func (s *Stage) readFrame(ctx context.Context, src ports.MediaSource, t float64) (image.Image, error) {
	timer := time.NewTimer(s.opts.SeekTimeout)
	defer timer.Stop()

	read := make(chan frameRead, 1)
	go func() {
		img, err := src.CurrentFrame()
		read <- frameRead{img: img, err: err}
	}()

	select {
	case r := <-read:
		if r.err != nil {
			return nil, pipeline.NewError(pipeline.KindSeekFailed, "read frame", r.err)
		}
		return r.img, nil
	case <-timer.C:
		return nil, pipeline.Errorf(pipeline.KindSeekTimeout, "frame at %.3fs not read within %s", t, s.opts.SeekTimeout)
	case <-ctx.Done():
		return nil, pipeline.Cancelled(ctx, "frame read")
	}
}

// drain discards queued events, reporting a queued source error.
func drain(events <-chan ports.MediaEvent) error {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return errSourceClosed
			}
			if ev.Type == ports.EventError {
				return ev.Err
			}
		default:
			return nil
		}
	}
}
