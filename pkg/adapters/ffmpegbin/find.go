// Package ffmpegbin locates and runs the ffmpeg and ffprobe executables.
package ffmpegbin

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// FindFFmpeg locates ffmpeg.
// Priority: 1) custom, 2) FFMPEG_PATH env, 3) PATH, 4) common locations.
func FindFFmpeg(custom string) (string, error) {
	return find("ffmpeg", "FFMPEG_PATH", custom, ErrFFmpegNotFound)
}

// FindFFprobe locates ffprobe, preferring the one next to a custom ffmpeg.
// Priority: 1) sibling of custom ffmpeg, 2) FFPROBE_PATH env, 3) PATH, 4) common locations.
func FindFFprobe(customFFmpeg string) (string, error) {
	if customFFmpeg != "" {
		sibling := filepath.Join(filepath.Dir(customFFmpeg), execName("ffprobe"))
		if fileExists(sibling) {
			return sibling, nil
		}
	}
	return find("ffprobe", "FFPROBE_PATH", "", ErrFFprobeNotFound)
}

// IsFFmpegAvailable reports whether ffmpeg can be located.
func IsFFmpegAvailable() bool {
	_, err := FindFFmpeg("")
	return err == nil
}

func find(name, envVar, custom string, notFound error) (string, error) {
	if custom != "" {
		if fileExists(custom) {
			return custom, nil
		}
		return "", fmt.Errorf("%w: custom path %s not found", notFound, custom)
	}

	if envPath := os.Getenv(envVar); envPath != "" {
		if fileExists(envPath) {
			return envPath, nil
		}
		return "", fmt.Errorf("%w: %s %s not found", notFound, envVar, envPath)
	}

	if path, err := exec.LookPath(execName(name)); err == nil {
		return path, nil
	}

	for _, p := range commonPaths(name) {
		if fileExists(p) {
			return p, nil
		}
	}

	return "", notFound
}

func execName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

func commonPaths(name string) []string {
	switch runtime.GOOS {
	case "windows":
		exe := name + ".exe"
		return []string{
			`C:\ffmpeg\bin\` + exe,
			`C:\Program Files\ffmpeg\bin\` + exe,
			`C:\Program Files (x86)\ffmpeg\bin\` + exe,
		}
	case "darwin":
		return []string{
			"/opt/homebrew/bin/" + name,
			"/usr/local/bin/" + name,
			"/usr/bin/" + name,
		}
	default:
		return []string{
			"/usr/bin/" + name,
			"/usr/local/bin/" + name,
			"/opt/homebrew/bin/" + name,
			"/snap/bin/" + name,
		}
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Run executes bin with args, feeding stdin when non-nil, and returns stdout.
// A failed run reports the tail of stderr.
func Run(ctx context.Context, bin string, args []string, stdin io.Reader) ([]byte, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = stdin

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s failed: %w\nstderr: %s", filepath.Base(bin), err, tail(stderr.String(), 2000))
	}
	return stdout.Bytes(), nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
