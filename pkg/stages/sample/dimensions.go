package sample

import (
	"math"

	"github.com/user/vidgif/pkg/pipeline"
)

// ResolveDimensions picks the output raster size.
//
// Both targets given: used as is. One target: the other follows the native
// aspect ratio. Neither: native size, capped at maxWidth when maxWidth > 0.
// Odd results are decremented to even.
func ResolveDimensions(nativeW, nativeH, targetW, targetH, maxWidth int) (int, int, error) {
	if nativeW <= 0 || nativeH <= 0 {
		return 0, 0, pipeline.Errorf(pipeline.KindInvalidDimensions, "source reports %dx%d", nativeW, nativeH)
	}

	aspect := float64(nativeW) / float64(nativeH)

	var w, h int
	switch {
	case targetW > 0 && targetH > 0:
		w, h = targetW, targetH
	case targetW > 0:
		w = targetW
		h = int(math.Round(float64(targetW) / aspect))
	case targetH > 0:
		h = targetH
		w = int(math.Round(float64(targetH) * aspect))
	case maxWidth > 0 && nativeW > maxWidth:
		w = maxWidth
		h = int(math.Round(float64(maxWidth) / aspect))
	default:
		w, h = nativeW, nativeH
	}

	w -= w % 2
	h -= h % 2
	if w <= 0 || h <= 0 {
		return 0, 0, pipeline.Errorf(pipeline.KindInvalidDimensions, "resolved size %dx%d from source %dx%d", w, h, nativeW, nativeH)
	}
	return w, h, nil
}
