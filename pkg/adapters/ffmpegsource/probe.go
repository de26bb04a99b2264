package ffmpegsource

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/user/vidgif/pkg/adapters/ffmpegbin"
	"github.com/user/vidgif/pkg/adapters/mp4probe"
)

// Metadata describes a video file.
type Metadata struct {
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Duration float64 `json:"duration"`
	Codec    string  `json:"codec"`
	Prober   string  `json:"prober"` // mp4 or ffprobe
}

// Prober reads Metadata from video files.
type Prober struct {
	// FFmpegPath is used to locate a sibling ffprobe when set.
	FFmpegPath string
}

// Probe reads metadata from path. MP4 family files are parsed directly;
// anything else, or an MP4 that does not parse, goes through ffprobe.
func (p Prober) Probe(ctx context.Context, path string) (Metadata, error) {
	if isMP4(path) {
		info, err := mp4probe.ProbeFile(path)
		if err == nil && info.Width > 0 && info.Height > 0 && info.Duration > 0 {
			return Metadata{
				Width:    info.Width,
				Height:   info.Height,
				Duration: info.Duration,
				Codec:    info.Codec,
				Prober:   "mp4",
			}, nil
		}
	}
	return p.ffprobe(ctx, path)
}

func isMP4(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4", ".m4v", ".mov":
		return true
	}
	return false
}

type ffprobeOutput struct {
	Streams []struct {
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		CodecName string `json:"codec_name"`
		Duration  string `json:"duration"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func (p Prober) ffprobe(ctx context.Context, path string) (Metadata, error) {
	bin, err := ffmpegbin.FindFFprobe(p.FFmpegPath)
	if err != nil {
		return Metadata{}, err
	}

	out, err := ffmpegbin.Run(ctx, bin, []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,codec_name,duration:format=duration",
		"-of", "json",
		path,
	}, nil)
	if err != nil {
		return Metadata{}, err
	}
	return parseFFprobe(out)
}

func parseFFprobe(out []byte) (Metadata, error) {
	var parsed ffprobeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return Metadata{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if len(parsed.Streams) == 0 {
		return Metadata{}, fmt.Errorf("no video stream found")
	}

	s := parsed.Streams[0]
	md := Metadata{Width: s.Width, Height: s.Height, Codec: s.CodecName, Prober: "ffprobe"}

	for _, d := range []string{s.Duration, parsed.Format.Duration} {
		if v, err := strconv.ParseFloat(d, 64); err == nil && v > 0 {
			md.Duration = v
			break
		}
	}
	return md, nil
}
