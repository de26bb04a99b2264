// Package chromesource provides a ports.MediaSource backed by a <video>
// element in headless Chrome, driven over the DevTools protocol.
package chromesource

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/user/vidgif/pkg/mediaevent"
	"github.com/user/vidgif/pkg/ports"
)

// Options configures the browser that hosts the video.
type Options struct {
	ChromePath string
	// Headless runs Chrome without a window.
	Headless bool
	// InstallChromium downloads Chromium when no Chrome is found.
	InstallChromium bool
	// CallTimeout bounds each call into the page.
	CallTimeout time.Duration
}

// DefaultOptions returns headless options with auto-install enabled.
func DefaultOptions() Options {
	return Options{
		Headless:        true,
		InstallChromium: true,
		CallTimeout:     10 * time.Second,
	}
}

// Source is a browser-resident media element. Events reach Go through a
// runtime binding; seeks and frame captures are script evaluations.
type Source struct {
	renderer ports.Renderer
	logger   ports.Logger
	emitter  *mediaevent.Emitter
	timeout  time.Duration

	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
	workDir     string

	// eval runs a script in the page and decodes its result into res.
	eval func(ctx context.Context, script string, res interface{}) error

	mu          sync.Mutex
	state       ports.ReadyState
	width       int
	height      int
	duration    float64
	currentTime float64
	nextFrameID int64
	waiters     map[int64]chan struct{}
	closed      bool
}

// Open launches Chrome and starts loading path. It returns once the page is
// navigated; metadata arrives later as EventLoadedMetadata.
func Open(ctx context.Context, path string, renderer ports.Renderer, logger ports.Logger, opts Options) (*Source, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open video: %w", err)
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultOptions().CallTimeout
	}

	chromePath, err := FindChrome(opts.ChromePath, opts.InstallChromium)
	if err != nil {
		return nil, err
	}

	page, err := renderPage(path)
	if err != nil {
		return nil, fmt.Errorf("render player page: %w", err)
	}
	workDir, err := os.MkdirTemp("", "vidgif-chrome-")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	pagePath := filepath.Join(workDir, "player.html")
	if err := os.WriteFile(pagePath, page, 0o644); err != nil {
		os.RemoveAll(workDir)
		return nil, fmt.Errorf("write player page: %w", err)
	}
	pageURL, err := fileURL(pagePath)
	if err != nil {
		os.RemoveAll(workDir)
		return nil, err
	}

	s := newSource(renderer, logger, opts.CallTimeout)
	s.workDir = workDir

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(chromePath, opts.Headless)...)
	s.allocCancel = allocCancel
	s.ctx, s.cancel = chromedp.NewContext(allocCtx)
	s.eval = func(ctx context.Context, script string, res interface{}) error {
		return chromedp.Run(ctx, chromedp.Evaluate(script, res))
	}

	chromedp.ListenTarget(s.ctx, func(ev interface{}) {
		if call, ok := ev.(*runtime.EventBindingCalled); ok && call.Name == bindingName {
			s.handle(call.Payload)
		}
	})

	s.logger.Debug("Launching %s", chromePath)
	launch := func() error {
		return chromedp.Run(s.ctx,
			runtime.AddBinding(bindingName),
			chromedp.Navigate(pageURL),
		)
	}
	done := make(chan error, 1)
	go func() { done <- launch() }()

	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("launch chrome: %w", err)
	}
	return s, nil
}

func allocatorOptions(chromePath string, headless bool) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.ExecPath(chromePath),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-zygote", true),
		// The player page and the video are both file URLs; this keeps
		// the canvas readable after drawing the video.
		chromedp.Flag("allow-file-access-from-files", true),
		chromedp.Flag("autoplay-policy", "no-user-gesture-required"),
	}
	if headless {
		opts = append(opts, chromedp.Flag("headless", "new"))
	}
	return opts
}

func newSource(renderer ports.Renderer, logger ports.Logger, timeout time.Duration) *Source {
	return &Source{
		renderer: renderer,
		logger:   logger.WithComponent("chrome"),
		emitter:  mediaevent.New(0),
		timeout:  timeout,
		waiters:  make(map[int64]chan struct{}),
	}
}

// handle applies one page event. It runs on the CDP event goroutine and
// must not block.
func (s *Source) handle(payload string) {
	var ev pageEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		s.logger.Debug("Dropping malformed page event: %s", err)
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if ev.Type != "frame" && ev.Type != "error" {
		if rs := ports.ReadyState(ev.ReadyState); rs > s.state {
			s.state = rs
		}
	}

	var out *ports.MediaEvent
	switch ev.Type {
	case "loadedmetadata":
		s.width, s.height, s.duration = ev.Width, ev.Height, ev.Duration
		if s.state < ports.HaveMetadata {
			s.state = ports.HaveMetadata
		}
		s.currentTime = ev.Time
		out = &ports.MediaEvent{Type: ports.EventLoadedMetadata, Time: ev.Time}
	case "seeked":
		s.currentTime = ev.Time
		out = &ports.MediaEvent{Type: ports.EventSeeked, Time: ev.Time}
	case "error":
		out = &ports.MediaEvent{Type: ports.EventError, Time: s.currentTime, Err: errors.New(ev.Error)}
	case "frame":
		if ch, ok := s.waiters[ev.ID]; ok {
			delete(s.waiters, ev.ID)
			close(ch)
		}
	}
	s.mu.Unlock()

	if out != nil {
		s.logger.Debug("Page event %s at %.3fs", out.Type, out.Time)
		s.emitter.Emit(*out)
	}
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
	return s.width, s.height
}

func (s *Source) Duration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

func (s *Source) CurrentTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentTime
}

// Seek sets the element's currentTime without waiting for the page.
// Completion arrives as EventSeeked; a failed call arrives as EventError.
func (s *Source) Seek(t float64) error {
	if s.isClosed() {
		return fmt.Errorf("chromesource: source closed")
	}
	go func() {
		if err := s.call(fmt.Sprintf("window.vidgif.seek(%g)", t), nil); err != nil {
			s.fail(fmt.Errorf("seek to %.3fs: %w", t, err))
		}
	}()
	return nil
}

// RequestVideoFrame returns a channel closed when the page presents its next
// frame, or after two animation frames when the element has nothing new to
// present. The returned func abandons the request.
func (s *Source) RequestVideoFrame() (<-chan struct{}, func()) {
	ch := make(chan struct{})

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ch, func() {}
	}
	s.nextFrameID++
	id := s.nextFrameID
	s.waiters[id] = ch
	s.mu.Unlock()

	release := func() {
		s.mu.Lock()
		delete(s.waiters, id)
		s.mu.Unlock()
	}

	go func() {
		if err := s.call(fmt.Sprintf("window.vidgif.frame(%d)", id), nil); err != nil {
			s.logger.Debug("Frame request %d failed: %s", id, err)
			release()
		}
	}()
	return ch, release
}

// PendingFrameRequests returns the number of unanswered frame requests.
func (s *Source) PendingFrameRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.waiters)
}

// fail reports err to subscribers unless the source is closed.
func (s *Source) fail(err error) {
	if s.isClosed() {
		return
	}
	s.logger.Debug("%s", err)
	s.emitter.Emit(ports.MediaEvent{Type: ports.EventError, Time: s.CurrentTime(), Err: err})
}

// CurrentFrame draws the element onto a canvas at native size and decodes it.
func (s *Source) CurrentFrame() (image.Image, error) {
	if s.isClosed() {
		return nil, fmt.Errorf("chromesource: source closed")
	}

	var dataURL string
	if err := s.call("window.vidgif.capture()", &dataURL); err != nil {
		return nil, fmt.Errorf("capture frame: %w", err)
	}
	data, err := decodeDataURL(dataURL)
	if err != nil {
		return nil, err
	}
	return s.renderer.DecodeImage(data, ports.FormatPNG)
}

func decodeDataURL(dataURL string) ([]byte, error) {
	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(dataURL, prefix) {
		return nil, fmt.Errorf("chromesource: unexpected frame data %.32q", dataURL)
	}
	return base64.StdEncoding.DecodeString(dataURL[len(prefix):])
}

func (s *Source) call(script string, res interface{}) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	return s.eval(ctx, script, res)
}

func (s *Source) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close shuts the browser down and closes every subscription.
func (s *Source) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.waiters = make(map[int64]chan struct{})
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
	s.emitter.Close()
	if s.workDir != "" {
		os.RemoveAll(s.workDir)
	}
	return nil
}

var (
	_ ports.MediaSource   = (*Source)(nil)
	_ ports.FrameNotifier = (*Source)(nil)
)
