package sample

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/user/vidgif/pkg/adapters/ggrenderer"
	"github.com/user/vidgif/pkg/adapters/logger"
	"github.com/user/vidgif/pkg/mocks"
	"github.com/user/vidgif/pkg/pipeline"
	"github.com/user/vidgif/pkg/ports"
)

func fastOptions() Options {
	return Options{
		LoadTimeout:     100 * time.Millisecond,
		SeekTimeout:     50 * time.Millisecond,
		RefreshInterval: time.Millisecond,
	}
}

func newStage(renderer ports.Renderer, sink ports.DebugSink) *Stage {
	return New(renderer, sink, logger.NewNoop(), fastOptions())
}

func TestStage_Execute(t *testing.T) {
	source := mocks.NewMediaSource(1280, 720, 10)
	renderer := &mocks.Renderer{}
	stage := newStage(renderer, mocks.NewDebugSink(false))

	type progressCall struct{ percent, current, total int }
	var progress []progressCall

	result, err := stage.Execute(context.Background(), pipeline.SampleInput{
		Source:      source,
		Timestamps:  []float64{0, 0.5, 1.0},
		TargetWidth: 481,
		OnProgress: func(percent, current, total int) {
			progress = append(progress, progressCall{percent, current, total})
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Width != 480 || result.Height != 270 {
		t.Errorf("expected 480x270, got %dx%d", result.Width, result.Height)
	}
	if len(result.Frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(result.Frames))
	}
	for i, frame := range result.Frames {
		if len(frame.Pixels) != 480*270*4 {
			t.Errorf("frame %d: expected %d bytes, got %d", i, 480*270*4, len(frame.Pixels))
		}
		if frame.Index != i {
			t.Errorf("frame %d: expected index %d, got %d", i, i, frame.Index)
		}
	}
	if result.Frames[2].Timestamp != 1.0 {
		t.Errorf("expected last timestamp 1.0, got %v", result.Frames[2].Timestamp)
	}

	want := []progressCall{{33, 1, 3}, {67, 2, 3}, {100, 3, 3}}
	if len(progress) != len(want) {
		t.Fatalf("expected %d progress calls, got %d", len(want), len(progress))
	}
	for i := range want {
		if progress[i] != want[i] {
			t.Errorf("progress[%d]: expected %+v, got %+v", i, want[i], progress[i])
		}
	}

	// The source starts at 0, so the first instant needs no seek.
	if len(source.Seeks) != 2 || source.Seeks[0] != 0.5 || source.Seeks[1] != 1.0 {
		t.Errorf("expected seeks [0.5 1], got %v", source.Seeks)
	}
	if source.ListenerCount() != 0 {
		t.Errorf("expected 0 listeners after completion, got %d", source.ListenerCount())
	}
	if len(renderer.Surfaces) != 1 || !renderer.Surfaces[0].Released {
		t.Error("expected exactly one surface, released")
	}
	if renderer.Surfaces[0].Draws != 3 || renderer.Surfaces[0].Clears != 3 {
		t.Errorf("expected 3 clears and draws, got %d and %d", renderer.Surfaces[0].Clears, renderer.Surfaces[0].Draws)
	}
}

func TestStage_Execute_RasterizesPixels(t *testing.T) {
	source := mocks.NewMediaSource(64, 32, 1)
	stage := newStage(ggrenderer.New(), mocks.NewDebugSink(false))

	result, err := stage.Execute(context.Background(), pipeline.SampleInput{
		Source:     source,
		Timestamps: []float64{0},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	frame := result.Frames[0]
	if frame.Width != 64 || frame.Height != 32 {
		t.Fatalf("expected native 64x32, got %dx%d", frame.Width, frame.Height)
	}
	mid := (16*64 + 32) * 4
	got := frame.Pixels[mid : mid+4]
	if got[0] != 200 || got[1] != 100 || got[2] != 50 || got[3] != 255 {
		t.Errorf("expected mock fill colour, got %v", got)
	}
}

func TestStage_Execute_AutoScaleToMaxWidth(t *testing.T) {
	source := mocks.NewMediaSource(1920, 1080, 5)
	stage := newStage(&mocks.Renderer{}, mocks.NewDebugSink(false))

	result, err := stage.Execute(context.Background(), pipeline.SampleInput{
		Source:     source,
		Timestamps: []float64{0},
		MaxWidth:   480,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Width != 480 || result.Height != 270 {
		t.Errorf("expected 480x270, got %dx%d", result.Width, result.Height)
	}
}

func TestStage_Execute_CancelledBeforeStart(t *testing.T) {
	source := mocks.NewMediaSource(320, 240, 5)
	stage := newStage(&mocks.Renderer{}, mocks.NewDebugSink(false))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := stage.Execute(ctx, pipeline.SampleInput{
		Source:     source,
		Timestamps: []float64{0, 1, 2},
	})
	if !errors.Is(err, pipeline.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if source.SeekCount() != 0 {
		t.Errorf("expected no seeks, got %d", source.SeekCount())
	}
	if source.ListenerCount() != 0 {
		t.Errorf("expected 0 listeners, got %d", source.ListenerCount())
	}
}

func TestStage_Execute_CancelledMidway(t *testing.T) {
	source := mocks.NewMediaSource(320, 240, 5)
	stage := newStage(&mocks.Renderer{}, mocks.NewDebugSink(false))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	result, err := stage.Execute(ctx, pipeline.SampleInput{
		Source:     source,
		Timestamps: []float64{0, 1, 2, 3},
		OnProgress: func(percent, current, total int) {
			if current == 2 {
				cancel()
			}
		},
	})
	if !errors.Is(err, pipeline.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if len(result.Frames) != 0 {
		t.Errorf("expected no partial frames, got %d", len(result.Frames))
	}
	if source.SeekCount() != 1 {
		t.Errorf("expected 1 seek before cancellation, got %d", source.SeekCount())
	}
	if source.ListenerCount() != 0 {
		t.Errorf("expected 0 listeners, got %d", source.ListenerCount())
	}
}

func TestStage_Execute_SeekTimeout(t *testing.T) {
	source := mocks.NewMediaSource(320, 240, 5)
	source.SeekFunc = func(m *mocks.MediaSource, t float64) error {
		return nil // never completes
	}
	renderer := &mocks.Renderer{}
	stage := newStage(renderer, mocks.NewDebugSink(false))

	start := time.Now()
	_, err := stage.Execute(context.Background(), pipeline.SampleInput{
		Source:     source,
		Timestamps: []float64{0, 1},
	})
	if !errors.Is(err, pipeline.ErrSeekTimeout) {
		t.Fatalf("expected ErrSeekTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("expected timeout near 50ms, took %s", elapsed)
	}
	if source.ListenerCount() != 0 {
		t.Errorf("expected 0 listeners, got %d", source.ListenerCount())
	}
	if !renderer.Surfaces[0].Released {
		t.Error("expected surface released on failure")
	}
}

func TestStage_Execute_SeekErrorEvent(t *testing.T) {
	source := mocks.NewMediaSource(320, 240, 5)
	source.SeekFunc = func(m *mocks.MediaSource, t float64) error {
		m.Emit(ports.MediaEvent{Type: ports.EventError, Err: errors.New("decode failed")})
		return nil
	}
	stage := newStage(&mocks.Renderer{}, mocks.NewDebugSink(false))

	_, err := stage.Execute(context.Background(), pipeline.SampleInput{
		Source:     source,
		Timestamps: []float64{1},
	})
	if !errors.Is(err, pipeline.ErrSeekFailed) {
		t.Fatalf("expected ErrSeekFailed, got %v", err)
	}
	if source.ListenerCount() != 0 {
		t.Errorf("expected 0 listeners, got %d", source.ListenerCount())
	}
}

func TestStage_Execute_SeekRequestError(t *testing.T) {
	source := mocks.NewMediaSource(320, 240, 5)
	source.SeekFunc = func(m *mocks.MediaSource, t float64) error {
		return errors.New("not seekable")
	}
	stage := newStage(&mocks.Renderer{}, mocks.NewDebugSink(false))

	_, err := stage.Execute(context.Background(), pipeline.SampleInput{
		Source:     source,
		Timestamps: []float64{1},
	})
	if !errors.Is(err, pipeline.ErrSeekFailed) {
		t.Fatalf("expected ErrSeekFailed, got %v", err)
	}
}

func TestStage_Execute_SkipsSeekWithinEpsilon(t *testing.T) {
	source := mocks.NewMediaSource(320, 240, 5)
	source.SetTime(0.995)
	stage := newStage(&mocks.Renderer{}, mocks.NewDebugSink(false))

	_, err := stage.Execute(context.Background(), pipeline.SampleInput{
		Source:     source,
		Timestamps: []float64{1.0},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source.SeekCount() != 0 {
		t.Errorf("expected no seek within 10ms, got %d", source.SeekCount())
	}
}

func TestStage_Execute_WaitsForMetadata(t *testing.T) {
	source := mocks.NewLoadingMediaSource(320, 240, 5)
	stage := newStage(&mocks.Renderer{}, mocks.NewDebugSink(false))

	go func() {
		time.Sleep(10 * time.Millisecond)
		source.FinishLoading()
	}()

	result, err := stage.Execute(context.Background(), pipeline.SampleInput{
		Source:     source,
		Timestamps: []float64{0},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.NativeWidth != 320 || result.NativeHeight != 240 {
		t.Errorf("expected native 320x240, got %dx%d", result.NativeWidth, result.NativeHeight)
	}
}

func TestStage_Execute_LoadTimeout(t *testing.T) {
	source := mocks.NewLoadingMediaSource(320, 240, 5)
	stage := newStage(&mocks.Renderer{}, mocks.NewDebugSink(false))

	_, err := stage.Execute(context.Background(), pipeline.SampleInput{
		Source:     source,
		Timestamps: []float64{0},
	})
	if !errors.Is(err, pipeline.ErrSourceLoadTimeout) {
		t.Fatalf("expected ErrSourceLoadTimeout, got %v", err)
	}
	if source.ListenerCount() != 0 {
		t.Errorf("expected 0 listeners, got %d", source.ListenerCount())
	}
}

func TestStage_Execute_LoadFailed(t *testing.T) {
	source := mocks.NewLoadingMediaSource(320, 240, 5)
	stage := newStage(&mocks.Renderer{}, mocks.NewDebugSink(false))

	go func() {
		time.Sleep(10 * time.Millisecond)
		source.FailLoading(errors.New("unsupported format"))
	}()

	_, err := stage.Execute(context.Background(), pipeline.SampleInput{
		Source:     source,
		Timestamps: []float64{0},
	})
	if !errors.Is(err, pipeline.ErrSourceLoadFailed) {
		t.Fatalf("expected ErrSourceLoadFailed, got %v", err)
	}
}

func TestStage_Execute_InvalidDimensions(t *testing.T) {
	source := mocks.NewMediaSource(0, 0, 5)
	stage := newStage(&mocks.Renderer{}, mocks.NewDebugSink(false))

	_, err := stage.Execute(context.Background(), pipeline.SampleInput{
		Source:     source,
		Timestamps: []float64{0},
	})
	if !errors.Is(err, pipeline.ErrInvalidDimensions) {
		t.Fatalf("expected ErrInvalidDimensions, got %v", err)
	}
}

func TestStage_Execute_CanvasUnavailable(t *testing.T) {
	source := mocks.NewMediaSource(320, 240, 5)
	renderer := &mocks.Renderer{
		CreateSurfaceFunc: func(width, height int) (ports.Surface, error) {
			return nil, errors.New("out of memory")
		},
	}
	stage := newStage(renderer, mocks.NewDebugSink(false))

	_, err := stage.Execute(context.Background(), pipeline.SampleInput{
		Source:     source,
		Timestamps: []float64{0},
	})
	if !errors.Is(err, pipeline.ErrCanvasUnavailable) {
		t.Fatalf("expected ErrCanvasUnavailable, got %v", err)
	}
	if source.ListenerCount() != 0 {
		t.Errorf("expected 0 listeners, got %d", source.ListenerCount())
	}
}

func TestStage_Execute_FrameReadError(t *testing.T) {
	source := mocks.NewMediaSource(320, 240, 5)
	source.FrameFunc = func(t float64) (image.Image, error) {
		return nil, errors.New("frame gone")
	}
	stage := newStage(&mocks.Renderer{}, mocks.NewDebugSink(false))

	_, err := stage.Execute(context.Background(), pipeline.SampleInput{
		Source:     source,
		Timestamps: []float64{0},
	})
	if !errors.Is(err, pipeline.ErrSeekFailed) {
		t.Fatalf("expected ErrSeekFailed, got %v", err)
	}
}

func TestStage_Execute_UsesFrameNotifier(t *testing.T) {
	source := mocks.NewNotifyingMediaSource(320, 240, 5)
	stage := newStage(&mocks.Renderer{}, mocks.NewDebugSink(false))

	_, err := stage.Execute(context.Background(), pipeline.SampleInput{
		Source:     source,
		Timestamps: []float64{0, 0.1, 0.2},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source.RequestCount() != 3 {
		t.Errorf("expected 3 frame requests, got %d", source.RequestCount())
	}
	if source.CancelCount() != 3 {
		t.Errorf("expected every frame request to be released, got %d", source.CancelCount())
	}
}

func TestStage_Execute_FrameNotPresented(t *testing.T) {
	source := mocks.NewNotifyingMediaSource(320, 240, 5)
	source.Withhold = true
	stage := newStage(&mocks.Renderer{}, mocks.NewDebugSink(false))

	_, err := stage.Execute(context.Background(), pipeline.SampleInput{
		Source:     source,
		Timestamps: []float64{0},
	})
	if !errors.Is(err, pipeline.ErrSeekTimeout) {
		t.Fatalf("expected ErrSeekTimeout, got %v", err)
	}
	if source.CancelCount() != 1 {
		t.Errorf("expected the pending frame request to be released, got %d", source.CancelCount())
	}
}

func TestStage_Execute_BlockingSeekTimesOut(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	source := mocks.NewMediaSource(320, 240, 5)
	source.SeekFunc = func(m *mocks.MediaSource, t float64) error {
		<-release
		return nil
	}
	stage := New(&mocks.Renderer{}, mocks.NewDebugSink(false), logger.NewNoop(), Options{
		SeekTimeout:     200 * time.Millisecond,
		RefreshInterval: time.Millisecond,
	})

	start := time.Now()
	_, err := stage.Execute(context.Background(), pipeline.SampleInput{
		Source:     source,
		Timestamps: []float64{1},
	})
	elapsed := time.Since(start)

	if !errors.Is(err, pipeline.ErrSeekTimeout) {
		t.Fatalf("expected ErrSeekTimeout, got %v", err)
	}
	if elapsed > 200*time.Millisecond+time.Second {
		t.Errorf("expected timeout near 200ms, took %s", elapsed)
	}
	if source.ListenerCount() != 0 {
		t.Errorf("expected 0 listeners, got %d", source.ListenerCount())
	}
}

func TestStage_Execute_BlockingSeekCancelled(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := mocks.NewMediaSource(320, 240, 5)
	source.SeekFunc = func(m *mocks.MediaSource, t float64) error {
		cancel()
		<-release
		return nil
	}
	stage := New(&mocks.Renderer{}, mocks.NewDebugSink(false), logger.NewNoop(), Options{
		SeekTimeout: time.Minute,
	})

	start := time.Now()
	_, err := stage.Execute(ctx, pipeline.SampleInput{
		Source:     source,
		Timestamps: []float64{1},
	})
	if !errors.Is(err, pipeline.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("expected cancellation to return promptly, took %s", elapsed)
	}
}

func TestStage_Execute_BlockingFrameReadTimesOut(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	source := mocks.NewMediaSource(320, 240, 5)
	source.FrameFunc = func(t float64) (image.Image, error) {
		<-release
		return nil, errors.New("released")
	}
	stage := newStage(&mocks.Renderer{}, mocks.NewDebugSink(false))

	_, err := stage.Execute(context.Background(), pipeline.SampleInput{
		Source:     source,
		Timestamps: []float64{0},
	})
	if !errors.Is(err, pipeline.ErrSeekTimeout) {
		t.Fatalf("expected ErrSeekTimeout, got %v", err)
	}
}

func TestStage_Execute_SavesDebugFrames(t *testing.T) {
	source := mocks.NewMediaSource(320, 240, 5)
	sink := mocks.NewDebugSink(true)
	stage := newStage(&mocks.Renderer{}, sink)

	_, err := stage.Execute(context.Background(), pipeline.SampleInput{
		Source:     source,
		Timestamps: []float64{0, 0.5},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sink.FrameCount() != 2 {
		t.Errorf("expected 2 debug frames, got %d", sink.FrameCount())
	}
}

func TestStage_Execute_InvalidInput(t *testing.T) {
	stage := newStage(&mocks.Renderer{}, mocks.NewDebugSink(false))
	source := mocks.NewMediaSource(320, 240, 5)

	inputs := []pipeline.SampleInput{
		{Timestamps: []float64{0}},
		{Source: source},
		{Source: source, Timestamps: []float64{-1}},
		{Source: source, Timestamps: []float64{0}, TargetWidth: -2},
	}
	for i, input := range inputs {
		if _, err := stage.Execute(context.Background(), input); !errors.Is(err, pipeline.ErrInvalidConfig) {
			t.Errorf("input %d: expected ErrInvalidConfig, got %v", i, err)
		}
	}
	if source.SeekCount() != 0 {
		t.Error("expected no seeks for invalid input")
	}
}
