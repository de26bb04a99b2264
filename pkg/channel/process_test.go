package channel

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/user/vidgif/pkg/adapters/logger"
	"github.com/user/vidgif/pkg/encodeworker"
	"github.com/user/vidgif/pkg/mocks"
	"github.com/user/vidgif/pkg/pipeline"
)

// TestHelperWorkerProcess is not a real test. It runs the encode worker when
// the test binary is started as a child by the process transport tests.
func TestHelperWorkerProcess(t *testing.T) {
	switch os.Getenv("VIDGIF_HELPER_WORKER") {
	case "serve":
		w := encodeworker.New(&mocks.Codec{}, logger.NewNoop())
		encodeworker.Serve(context.Background(), os.Stdin, os.Stdout, w)
		os.Exit(0)
	case "crash":
		os.Exit(3)
	}
}

func helperProcess(mode string) *Process {
	p := NewProcess(os.Args[0], []string{"-test.run=^TestHelperWorkerProcess$"}, logger.NewNoop())
	p.Env = []string{"VIDGIF_HELPER_WORKER=" + mode}
	p.KillGrace = time.Second
	return p
}

func TestProcess_Encode(t *testing.T) {
	ch := New(helperProcess("serve"), Options{InitTimeout: 10 * time.Second, EncodeTimeout: 10 * time.Second}, logger.NewNoop())
	defer ch.Close()

	for i := 0; i < 2; i++ {
		gif, err := ch.Encode(context.Background(), newBatch(), nil)
		if err != nil {
			t.Fatalf("encode %d: unexpected error: %v", i, err)
		}
		if string(gif) != "GIF89a;" {
			t.Errorf("unexpected result %q", gif)
		}
	}
}

func TestProcess_WorkerExitsDuringInit(t *testing.T) {
	ch := New(helperProcess("crash"), Options{InitTimeout: 10 * time.Second}, logger.NewNoop())
	defer ch.Close()

	err := ch.Initialize(context.Background())
	if !errors.Is(err, pipeline.ErrRemoteEncodeError) {
		t.Fatalf("expected REMOTE_ENCODE_ERROR, got %v", err)
	}
}

func TestProcess_MissingBinary(t *testing.T) {
	p := NewProcess("/nonexistent/vidgif-worker", nil, logger.NewNoop())
	ch := New(p, Options{InitTimeout: time.Second}, logger.NewNoop())

	err := ch.Initialize(context.Background())
	if !errors.Is(err, pipeline.ErrRemoteEncodeError) {
		t.Fatalf("expected REMOTE_ENCODE_ERROR, got %v", err)
	}
}
