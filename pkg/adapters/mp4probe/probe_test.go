package mp4probe

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Eyevinn/mp4ff/av1"
	"github.com/Eyevinn/mp4ff/mp4"
)

// buildFragmentedMP4 writes a single-fragment AV1 file with n samples of
// dur ticks each at the given timescale.
func buildFragmentedMP4(t *testing.T, width, height, n int, dur uint32, timescale uint32) []byte {
	t.Helper()

	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(timescale, "video", "und")
	trak := init.Moov.Trak

	av1C := &mp4.Av1CBox{CodecConfRec: av1.CodecConfRec{Version: 1, ChromaSubsamplingX: 1, ChromaSubsamplingY: 1}}
	trak.Mdia.Minf.Stbl.Stsd.AddChild(mp4.CreateVisualSampleEntryBox("av01", uint16(width), uint16(height), av1C))
	trak.Tkhd.Width = mp4.Fixed32(width << 16)
	trak.Tkhd.Height = mp4.Fixed32(height << 16)

	frag, err := mp4.CreateFragment(1, 1)
	if err != nil {
		t.Fatalf("create fragment: %v", err)
	}
	for i := 0; i < n; i++ {
		frag.AddFullSample(mp4.FullSample{
			Sample:     mp4.Sample{Flags: mp4.SyncSampleFlags, Size: 4, Dur: dur},
			DecodeTime: uint64(i) * uint64(dur),
			Data:       []byte{0, 1, 2, 3},
		})
	}

	var buf bytes.Buffer
	if err := mp4.NewFtyp("isom", 0x200, []string{"isom", "av01"}).Encode(&buf); err != nil {
		t.Fatalf("encode ftyp: %v", err)
	}
	if err := init.Moov.Encode(&buf); err != nil {
		t.Fatalf("encode moov: %v", err)
	}
	if err := frag.Encode(&buf); err != nil {
		t.Fatalf("encode fragment: %v", err)
	}
	return buf.Bytes()
}

func TestProbeBytes_Fragmented(t *testing.T) {
	data := buildFragmentedMP4(t, 640, 360, 30, 1000, 10000)

	info, err := ProbeBytes(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Width != 640 || info.Height != 360 {
		t.Errorf("expected 640x360, got %dx%d", info.Width, info.Height)
	}
	if info.Codec != "av01" {
		t.Errorf("expected av01, got %q", info.Codec)
	}
	if !info.Fragmented {
		t.Error("expected fragmented")
	}
	if info.Samples != 30 {
		t.Errorf("expected 30 samples, got %d", info.Samples)
	}
	if info.Duration < 2.99 || info.Duration > 3.01 {
		t.Errorf("expected 3s, got %v", info.Duration)
	}
}

func TestProbeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, buildFragmentedMP4(t, 320, 240, 10, 100, 1000), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	info, err := ProbeFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Width != 320 || info.Duration < 0.99 || info.Duration > 1.01 {
		t.Errorf("unexpected info %+v", info)
	}
}

func TestProbe_AudioOnly(t *testing.T) {
	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(48000, "audio", "und")

	var buf bytes.Buffer
	mp4.NewFtyp("isom", 0x200, []string{"isom"}).Encode(&buf)
	init.Moov.Encode(&buf)

	_, err := ProbeBytes(buf.Bytes())
	if !errors.Is(err, ErrNoVideoTrack) {
		t.Errorf("expected ErrNoVideoTrack, got %v", err)
	}
}

func TestProbe_NotMP4(t *testing.T) {
	if _, err := ProbeBytes([]byte("definitely not an mp4 file")); err == nil {
		t.Error("expected error")
	}
}

func TestProbeFile_Missing(t *testing.T) {
	if _, err := ProbeFile(filepath.Join(t.TempDir(), "missing.mp4")); err == nil {
		t.Error("expected error")
	}
}
