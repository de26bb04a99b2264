package ffmpegbin

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestFindFFmpeg_CustomPath(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "ffmpeg")
	touch(t, bin)

	got, err := FindFFmpeg(bin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != bin {
		t.Errorf("expected %s, got %s", bin, got)
	}
}

func TestFindFFmpeg_CustomPathMissing(t *testing.T) {
	_, err := FindFFmpeg(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, ErrFFmpegNotFound) {
		t.Errorf("expected ErrFFmpegNotFound, got %v", err)
	}
}

func TestFindFFmpeg_EnvPath(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "my-ffmpeg")
	touch(t, bin)
	t.Setenv("FFMPEG_PATH", bin)

	got, err := FindFFmpeg("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != bin {
		t.Errorf("expected %s, got %s", bin, got)
	}
}

func TestFindFFmpeg_EnvPathMissing(t *testing.T) {
	t.Setenv("FFMPEG_PATH", filepath.Join(t.TempDir(), "missing"))

	_, err := FindFFmpeg("")
	if !errors.Is(err, ErrFFmpegNotFound) {
		t.Errorf("expected ErrFFmpegNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "FFMPEG_PATH") {
		t.Errorf("expected env var in message, got %v", err)
	}
}

func TestFindFFprobe_Sibling(t *testing.T) {
	dir := t.TempDir()
	ffmpeg := filepath.Join(dir, execName("ffmpeg"))
	ffprobe := filepath.Join(dir, execName("ffprobe"))
	touch(t, ffmpeg)
	touch(t, ffprobe)

	got, err := FindFFprobe(ffmpeg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != ffprobe {
		t.Errorf("expected %s, got %s", ffprobe, got)
	}
}

func TestRun(t *testing.T) {
	bin, err := FindFFmpeg("")
	if err != nil {
		t.Skip("ffmpeg not available")
	}

	out, err := Run(context.Background(), bin, []string{"-hide_banner", "-version"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(out), "ffmpeg") {
		t.Errorf("unexpected output %q", out)
	}

	if _, err := Run(context.Background(), bin, []string{"-i", filepath.Join(t.TempDir(), "missing.mp4")}, nil); err == nil {
		t.Error("expected error for missing input")
	}
}
