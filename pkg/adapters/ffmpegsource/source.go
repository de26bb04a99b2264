// Package ffmpegsource provides a ports.MediaSource that decodes single
// frames from a video file with ffmpeg.
package ffmpegsource

import (
	"context"
	"fmt"
	"image"
	"strconv"
	"sync"

	"github.com/user/vidgif/pkg/adapters/ffmpegbin"
	"github.com/user/vidgif/pkg/mediaevent"
	"github.com/user/vidgif/pkg/ports"
)

// Options configures a Source.
type Options struct {
	FFmpegPath string
}

type probeFunc func(ctx context.Context) (Metadata, error)
type extractFunc func(ctx context.Context, t float64) ([]byte, error)

// Source seeks by extracting the frame at the requested time with ffmpeg.
// Metadata and the first frame load in the background after Open. Every
// seek runs in the background and completes with an EventSeeked or EventError.
type Source struct {
	renderer ports.Renderer
	logger   ports.Logger
	emitter  *mediaevent.Emitter
	probe    probeFunc
	extract  extractFunc

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	state       ports.ReadyState
	meta        Metadata
	currentTime float64
	frame       image.Image
	seekCancel  context.CancelFunc
	seekGen     int
	wg          sync.WaitGroup
}

// Open starts loading path. It returns immediately.
func Open(path string, renderer ports.Renderer, logger ports.Logger, opts Options) (*Source, error) {
	bin, err := ffmpegbin.FindFFmpeg(opts.FFmpegPath)
	if err != nil {
		return nil, err
	}

	prober := Prober{FFmpegPath: opts.FFmpegPath}
	probe := func(ctx context.Context) (Metadata, error) {
		return prober.Probe(ctx, path)
	}
	extract := func(ctx context.Context, t float64) ([]byte, error) {
		return ffmpegbin.Run(ctx, bin, ExtractArgs(path, t), nil)
	}

	return newSource(probe, extract, renderer, logger), nil
}

// ExtractArgs builds the ffmpeg command line that writes the frame at t as PNG to stdout.
func ExtractArgs(path string, t float64) []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-ss", strconv.FormatFloat(t, 'f', 3, 64),
		"-i", path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"pipe:1",
	}
}

func newSource(probe probeFunc, extract extractFunc, renderer ports.Renderer, logger ports.Logger) *Source {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Source{
		renderer: renderer,
		logger:   logger.WithComponent("ffmpeg"),
		emitter:  mediaevent.New(0),
		probe:    probe,
		extract:  extract,
		ctx:      ctx,
		cancel:   cancel,
	}

	s.wg.Add(1)
	go s.load()
	return s
}

func (s *Source) load() {
	defer s.wg.Done()

	meta, err := s.probe(s.ctx)
	if err != nil {
		s.logger.Debug("Probe failed: %s", err)
		s.emitter.Emit(ports.MediaEvent{Type: ports.EventError, Err: fmt.Errorf("load metadata: %w", err)})
		return
	}

	// The first frame is decoded up front so position 0 is readable without a seek.
	img, err := s.decodeAt(s.ctx, 0)
	if err != nil {
		s.logger.Debug("First frame failed: %s", err)
		s.emitter.Emit(ports.MediaEvent{Type: ports.EventError, Err: fmt.Errorf("load first frame: %w", err)})
		return
	}

	s.mu.Lock()
	s.meta = meta
	s.frame = img
	s.state = ports.HaveCurrentData
	s.mu.Unlock()

	s.logger.Debug("Loaded %dx%d, %.3fs (%s via %s)", meta.Width, meta.Height, meta.Duration, meta.Codec, meta.Prober)
	s.emitter.Emit(ports.MediaEvent{Type: ports.EventLoadedMetadata})
}

func (s *Source) decodeAt(ctx context.Context, t float64) (image.Image, error) {
	data, err := s.extract(ctx, t)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("no frame at %.3fs", t)
	}
	return s.renderer.DecodeImage(data, ports.FormatPNG)
}

// Metadata returns the loaded metadata, zero until EventLoadedMetadata.
func (s *Source) Metadata() Metadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta
}

func (s *Source) Subscribe() (<-chan ports.MediaEvent, func()) {
	return s.emitter.Subscribe()
}

func (s *Source) ReadyState() ports.ReadyState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Source) NativeSize() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta.Width, s.meta.Height
}

func (s *Source) Duration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta.Duration
}

func (s *Source) CurrentTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentTime
}

// Seek starts extracting the frame at t, abandoning any seek in flight.
func (s *Source) Seek(t float64) error {
	if s.ctx.Err() != nil {
		return fmt.Errorf("ffmpegsource: source closed")
	}

	s.mu.Lock()
	if s.state < ports.HaveMetadata {
		s.mu.Unlock()
		return fmt.Errorf("ffmpegsource: metadata not loaded")
	}
	if s.seekCancel != nil {
		s.seekCancel()
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.seekCancel = cancel
	s.seekGen++
	gen := s.seekGen
	s.mu.Unlock()

	s.wg.Add(1)
	go s.runSeek(ctx, gen, t)
	return nil
}

func (s *Source) runSeek(ctx context.Context, gen int, t float64) {
	defer s.wg.Done()

	img, err := s.decodeAt(ctx, t)
	if ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	if gen != s.seekGen {
		s.mu.Unlock()
		return
	}
	if err != nil {
		s.mu.Unlock()
		s.emitter.Emit(ports.MediaEvent{Type: ports.EventError, Time: t, Err: fmt.Errorf("extract frame: %w", err)})
		return
	}
	s.currentTime = t
	s.frame = img
	s.mu.Unlock()

	s.emitter.Emit(ports.MediaEvent{Type: ports.EventSeeked, Time: t})
}

// CurrentFrame returns the most recently extracted frame.
func (s *Source) CurrentFrame() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame == nil {
		return nil, fmt.Errorf("ffmpegsource: no frame decoded yet")
	}
	return s.frame, nil
}

// Close stops background work and closes all subscriptions.
func (s *Source) Close() error {
	s.cancel()
	s.wg.Wait()
	s.emitter.Close()
	return nil
}

var _ ports.MediaSource = (*Source)(nil)
