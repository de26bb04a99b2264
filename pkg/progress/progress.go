// Package progress maps per-stage progress onto a single 0-100 scale.
// Sampling covers the first half and encoding the second.
package progress

import "github.com/user/vidgif/pkg/pipeline"

// Sampling maps sampler progress into [0, 50].
func Sampling(percent float64, current, total int) pipeline.Progress {
	return pipeline.Progress{
		Stage:        pipeline.StageSampling,
		Percent:      clamp(percent * 0.5),
		CurrentFrame: current,
		TotalFrames:  total,
	}
}

// Encoding maps encoder progress into [50, 100].
func Encoding(percent float64) pipeline.Progress {
	return pipeline.Progress{
		Stage:   pipeline.StageEncoding,
		Percent: clamp(50 + percent*0.5),
	}
}

// Complete is the final update of a successful conversion.
func Complete() pipeline.Progress {
	return pipeline.Progress{Stage: pipeline.StageComplete, Percent: 100}
}

// Reporter forwards mapped updates to fn. A nil fn discards them.
type Reporter struct {
	fn pipeline.ProgressFunc
}

// NewReporter creates a Reporter for fn.
func NewReporter(fn pipeline.ProgressFunc) *Reporter {
	return &Reporter{fn: fn}
}

// Sampling reports sampler progress. Its signature matches pipeline.SampleProgressFunc.
func (r *Reporter) Sampling(percent, current, total int) {
	r.emit(Sampling(float64(percent), current, total))
}

// Encoding reports encoder progress. Its signature matches pipeline.EncodeProgressFunc.
func (r *Reporter) Encoding(percent int) {
	r.emit(Encoding(float64(percent)))
}

// Complete reports completion.
func (r *Reporter) Complete() {
	r.emit(Complete())
}

func (r *Reporter) emit(p pipeline.Progress) {
	if r.fn != nil {
		r.fn(p)
	}
}

func clamp(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
