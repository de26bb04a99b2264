package encodeworker

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/user/vidgif/pkg/adapters/logger"
	"github.com/user/vidgif/pkg/mocks"
)

func collect(w *Worker, msg Message) []Message {
	var replies []Message
	w.Handle(msg, func(m Message) { replies = append(replies, m) })
	return replies
}

func encodeRequest(id string) Message {
	return Message{Type: MsgEncode, ID: id, Width: 2, Height: 2, FrameCount: 2, FPS: 10, Quality: 10, Data: make([]byte, 32)}
}

func TestWorker_InitThenEncode(t *testing.T) {
	codec := &mocks.Codec{}
	w := New(codec, logger.NewNoop())

	replies := collect(w, Message{Type: MsgInit, ID: "i"})
	if len(replies) != 1 || replies[0].Type != MsgReady || replies[0].ID != "i" {
		t.Fatalf("expected READY, got %+v", replies)
	}
	if codec.LoadCount() != 1 {
		t.Errorf("expected codec load, got %d", codec.LoadCount())
	}

	replies = collect(w, encodeRequest("e"))
	if len(replies) != 3 {
		t.Fatalf("expected 3 replies, got %+v", replies)
	}
	if replies[0].Type != MsgProgress || replies[0].Percent != 0 {
		t.Errorf("expected PROGRESS 0, got %+v", replies[0])
	}
	if replies[1].Type != MsgProgress || replies[1].Percent != 100 {
		t.Errorf("expected PROGRESS 100, got %+v", replies[1])
	}
	if replies[2].Type != MsgComplete || string(replies[2].Data) != "GIF89a;" {
		t.Errorf("expected COMPLETE with GIF, got %+v", replies[2])
	}

	calls := codec.Calls()
	if len(calls) != 1 || calls[0].FrameCount != 2 || calls[0].DataLen != 32 {
		t.Errorf("unexpected codec calls %+v", calls)
	}
}

func TestWorker_EncodeBeforeInit(t *testing.T) {
	w := New(&mocks.Codec{}, logger.NewNoop())

	replies := collect(w, encodeRequest("e"))
	if len(replies) != 1 || replies[0].Type != MsgError || !strings.Contains(replies[0].Error, "not initialized") {
		t.Errorf("expected not-initialized ERROR, got %+v", replies)
	}
}

func TestWorker_InitLoadFailure(t *testing.T) {
	codec := &mocks.Codec{LoadFunc: func() error { return errors.New("module missing") }}
	w := New(codec, logger.NewNoop())

	replies := collect(w, Message{Type: MsgInit, ID: "i"})
	if len(replies) != 1 || replies[0].Type != MsgError || !strings.Contains(replies[0].Error, "module missing") {
		t.Errorf("expected load ERROR, got %+v", replies)
	}
}

func TestWorker_RevalidatesRequest(t *testing.T) {
	codec := &mocks.Codec{}
	w := New(codec, logger.NewNoop())
	collect(w, Message{Type: MsgInit})

	bad := encodeRequest("e")
	bad.Quality = 31
	replies := collect(w, bad)
	if len(replies) != 1 || replies[0].Type != MsgError {
		t.Errorf("expected ERROR, got %+v", replies)
	}
	if len(codec.Calls()) != 0 {
		t.Error("expected codec not to run for invalid request")
	}
}

func TestWorker_RecoversPanic(t *testing.T) {
	codec := &mocks.Codec{EncodeFunc: func(data []byte, width, height, frameCount, fps, quality int) ([]byte, error) {
		panic("index out of range")
	}}
	w := New(codec, logger.NewNoop())
	collect(w, Message{Type: MsgInit})

	replies := collect(w, encodeRequest("e"))
	last := replies[len(replies)-1]
	if last.Type != MsgError || !strings.Contains(last.Error, "panic") || last.ID != "e" {
		t.Errorf("expected panic ERROR, got %+v", last)
	}
}

func TestWorker_UnknownMessage(t *testing.T) {
	w := New(&mocks.Codec{}, logger.NewNoop())
	replies := collect(w, Message{Type: MsgComplete, ID: "x"})
	if len(replies) != 1 || replies[0].Type != MsgError {
		t.Errorf("expected ERROR for unknown type, got %+v", replies)
	}
}

func TestServe(t *testing.T) {
	var in bytes.Buffer
	reqs := NewEncoder(&in)
	reqs.Send(Message{Type: MsgInit, ID: "i"})
	reqs.Send(encodeRequest("e"))

	var out bytes.Buffer
	if err := Serve(context.Background(), &in, &out, New(&mocks.Codec{}, logger.NewNoop())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dec := NewDecoder(&out)
	var types []MessageType
	for {
		msg, err := dec.Receive()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("receive: %v", err)
		}
		types = append(types, msg.Type)
	}

	want := []MessageType{MsgReady, MsgProgress, MsgProgress, MsgComplete}
	if len(types) != len(want) {
		t.Fatalf("expected %v, got %v", want, types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("reply %d: expected %s, got %s", i, want[i], types[i])
		}
	}
}
