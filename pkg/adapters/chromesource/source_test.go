package chromesource

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/user/vidgif/pkg/adapters/ffmpegbin"
	"github.com/user/vidgif/pkg/adapters/ggrenderer"
	"github.com/user/vidgif/pkg/adapters/logger"
	"github.com/user/vidgif/pkg/adapters/nullsink"
	"github.com/user/vidgif/pkg/pipeline"
	"github.com/user/vidgif/pkg/ports"
	"github.com/user/vidgif/pkg/stages/sample"
)

type fakePage struct {
	mu      sync.Mutex
	scripts []string
	result  string
	err     error
	// block, when set, stalls every evaluation until it is closed.
	block chan struct{}
}

func (p *fakePage) eval(ctx context.Context, script string, res interface{}) error {
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.scripts = append(p.scripts, script)
	if p.err != nil {
		return p.err
	}
	if out, ok := res.(*string); ok {
		*out = p.result
	}
	return nil
}

// waitScript waits for script to be evaluated.
func waitScript(t *testing.T, p *fakePage, script string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if p.last() == script {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected script %q, last was %q", script, p.last())
}

func (p *fakePage) last() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.scripts) == 0 {
		return ""
	}
	return p.scripts[len(p.scripts)-1]
}

func newTestSource(page *fakePage) *Source {
	s := newSource(ggrenderer.New(), logger.NewNoop(), time.Second)
	s.ctx = context.Background()
	s.eval = page.eval
	return s
}

func nextEvent(t *testing.T, events <-chan ports.MediaEvent) ports.MediaEvent {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return ports.MediaEvent{}
	}
}

func TestSource_HandleEvents(t *testing.T) {
	s := newTestSource(&fakePage{})
	defer s.Close()
	events, cancel := s.Subscribe()
	defer cancel()

	s.handle(`{"type":"loadedmetadata","width":640,"height":360,"duration":4.5,"readyState":1,"time":0}`)
	if ev := nextEvent(t, events); ev.Type != ports.EventLoadedMetadata {
		t.Fatalf("expected loadedmetadata, got %s", ev.Type)
	}
	if w, h := s.NativeSize(); w != 640 || h != 360 {
		t.Errorf("expected 640x360, got %dx%d", w, h)
	}
	if s.Duration() != 4.5 || s.ReadyState() != ports.HaveMetadata {
		t.Errorf("unexpected duration %v or state %v", s.Duration(), s.ReadyState())
	}

	s.handle(`{"type":"seeked","time":1.5,"readyState":4}`)
	ev := nextEvent(t, events)
	if ev.Type != ports.EventSeeked || ev.Time != 1.5 {
		t.Fatalf("expected seeked at 1.5, got %+v", ev)
	}
	if s.CurrentTime() != 1.5 || s.ReadyState() != ports.HaveEnoughData {
		t.Errorf("unexpected time %v or state %v", s.CurrentTime(), s.ReadyState())
	}

	s.handle(`{"type":"error","error":"MEDIA_ERR_DECODE"}`)
	ev = nextEvent(t, events)
	if ev.Type != ports.EventError || ev.Err == nil || ev.Err.Error() != "MEDIA_ERR_DECODE" {
		t.Fatalf("expected decode error, got %+v", ev)
	}

	s.handle(`not json`)
	select {
	case ev := <-events:
		t.Errorf("expected malformed payload to be dropped, got %+v", ev)
	default:
	}
}

func TestSource_Seek(t *testing.T) {
	page := &fakePage{}
	s := newTestSource(page)
	defer s.Close()

	if err := s.Seek(1.25); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	waitScript(t, page, "window.vidgif.seek(1.25)")
}

func TestSource_SeekDoesNotBlock(t *testing.T) {
	page := &fakePage{block: make(chan struct{})}
	s := newTestSource(page)
	defer s.Close()
	defer close(page.block)

	done := make(chan error, 1)
	go func() { done <- s.Seek(2) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Seek blocked on the page")
	}
}

func TestSource_SeekCallError(t *testing.T) {
	page := &fakePage{err: errors.New("target closed")}
	s := newTestSource(page)
	defer s.Close()
	events, cancel := s.Subscribe()
	defer cancel()

	if err := s.Seek(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ev := nextEvent(t, events)
	if ev.Type != ports.EventError || !strings.Contains(ev.Err.Error(), "target closed") {
		t.Fatalf("expected error event, got %+v", ev)
	}
}

func TestSource_RequestVideoFrame(t *testing.T) {
	page := &fakePage{}
	s := newTestSource(page)
	defer s.Close()

	presented, release := s.RequestVideoFrame()
	defer release()
	waitScript(t, page, "window.vidgif.frame(1)")

	s.handle(`{"type":"frame","id":2}`)
	select {
	case <-presented:
		t.Fatal("frame for another request closed the channel")
	default:
	}

	s.handle(`{"type":"frame","id":1}`)
	select {
	case <-presented:
	case <-time.After(time.Second):
		t.Fatal("expected channel to close")
	}
	if n := s.PendingFrameRequests(); n != 0 {
		t.Errorf("expected no pending requests, got %d", n)
	}
}

func TestSource_RequestVideoFrameRelease(t *testing.T) {
	page := &fakePage{}
	s := newTestSource(page)
	defer s.Close()

	for i := 0; i < 3; i++ {
		_, release := s.RequestVideoFrame()
		release()
	}
	if n := s.PendingFrameRequests(); n != 0 {
		t.Errorf("expected released requests to be dropped, got %d pending", n)
	}

	// A late frame event for a released request is ignored.
	s.handle(`{"type":"frame","id":1}`)
}

func TestSource_CurrentFrame(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(0, 0, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	page := &fakePage{result: "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())}
	s := newTestSource(page)
	defer s.Close()

	frame, err := s.CurrentFrame()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if frame.Bounds().Dx() != 4 || frame.Bounds().Dy() != 2 {
		t.Errorf("unexpected bounds %v", frame.Bounds())
	}
	r, g, b, _ := frame.At(0, 0).RGBA()
	if r>>8 != 10 || g>>8 != 20 || b>>8 != 30 {
		t.Errorf("unexpected pixel %d,%d,%d", r>>8, g>>8, b>>8)
	}
}

func TestSource_CurrentFrameBadData(t *testing.T) {
	s := newTestSource(&fakePage{result: "data:,"})
	defer s.Close()

	if _, err := s.CurrentFrame(); err == nil {
		t.Error("expected error for non-PNG data URL")
	}
}

func TestSource_Close(t *testing.T) {
	s := newTestSource(&fakePage{})
	events, cancel := s.Subscribe()
	defer cancel()

	s.Close()
	s.Close()

	if _, ok := <-events; ok {
		t.Error("expected subscription to be closed")
	}
	if err := s.Seek(1); err == nil {
		t.Error("expected seek on closed source to fail")
	}
	if _, err := s.CurrentFrame(); err == nil {
		t.Error("expected capture on closed source to fail")
	}
	s.handle(`{"type":"seeked","time":1}`)
}

func TestRenderPage(t *testing.T) {
	page, err := renderPage("/videos/my clip.webm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	html := string(page)
	if !strings.Contains(html, `src="file:///videos/my%20clip.webm"`) {
		t.Errorf("expected escaped file URL in page:\n%s", html)
	}
	if !strings.Contains(html, "window."+bindingName+"(") {
		t.Error("expected page to report through the binding")
	}
}

func TestSource_WithChrome(t *testing.T) {
	chromePath := ResolveChromePath("")
	if chromePath == "" {
		t.Skip("Chrome not installed")
	}
	bin, err := ffmpegbin.FindFFmpeg("")
	if err != nil {
		t.Skip("ffmpeg not available")
	}

	video := filepath.Join(t.TempDir(), "clip.webm")
	cmd := exec.Command(bin, "-hide_banner", "-loglevel", "error",
		"-f", "lavfi", "-i", "testsrc=size=320x240:rate=10",
		"-t", "2", "-c:v", "libvpx", "-b:v", "1M", video)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Skipf("cannot render test video: %v: %s", err, out)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	renderer := ggrenderer.New()
	src, err := Open(ctx, video, renderer, logger.NewNoop(), Options{ChromePath: chromePath, Headless: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer src.Close()

	stage := sample.New(renderer, nullsink.New(), logger.NewNoop(), sample.DefaultOptions())
	result, err := stage.Execute(ctx, pipeline.SampleInput{
		Source:     src,
		Timestamps: []float64{0, 0.5, 1.0},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Frames) != 3 || result.Width != 320 || result.Height != 240 {
		t.Errorf("expected 3 frames at 320x240, got %d at %dx%d", len(result.Frames), result.Width, result.Height)
	}
}
