package pipeline

import (
	"fmt"
	"math"
)

// MinFrameDelay is the smallest GIF frame delay in centiseconds that
// viewers honour.
const MinFrameDelay = 2

// FrameDelay returns the GIF frame delay in centiseconds for fps.
func FrameDelay(fps int) int {
	if fps <= 0 {
		return MinFrameDelay
	}
	d := int(math.Round(100 / float64(fps)))
	if d < MinFrameDelay {
		return MinFrameDelay
	}
	return d
}

// PlaybackMillis returns how long frameCount frames play at fps.
func PlaybackMillis(frameCount, fps int) int {
	return frameCount * FrameDelay(fps) * 10
}

// FormatTime renders seconds as mm:ss, or m:ss.t when tenths are non-zero.
func FormatTime(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	tenths := int(math.Round(seconds * 10))
	m := tenths / 600
	s := (tenths % 600) / 10
	t := tenths % 10
	if t == 0 {
		return fmt.Sprintf("%02d:%02d", m, s)
	}
	return fmt.Sprintf("%02d:%02d.%d", m, s, t)
}
