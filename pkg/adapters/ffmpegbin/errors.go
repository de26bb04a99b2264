package ffmpegbin

import "errors"

var (
	// ErrFFmpegNotFound is returned when no ffmpeg executable can be located.
	ErrFFmpegNotFound = errors.New("ffmpegbin: ffmpeg not found")

	// ErrFFprobeNotFound is returned when no ffprobe executable can be located.
	ErrFFprobeNotFound = errors.New("ffmpegbin: ffprobe not found")
)
