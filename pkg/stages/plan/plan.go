// Package plan computes the instants at which frames are sampled.
package plan

import (
	"context"
	"math"

	"github.com/user/vidgif/pkg/pipeline"
)

// countTolerance absorbs binary rounding in duration*fps so that decimal
// windows like 0.3s at 10fps yield 3 instants rather than 4.
const countTolerance = 1e-9

// MaxFrames caps the number of instants in one plan.
const MaxFrames = 100000

// Plan returns the sampling instants for [start, end] at fps, in ascending
// order, rounded to the millisecond and never past end.
func Plan(start, end, fps float64) ([]float64, error) {
	if err := Validate(start, end, fps); err != nil {
		return nil, err
	}

	duration := end - start
	interval := 1 / fps

	if duration < interval {
		return []float64{roundMillis(start)}, nil
	}

	count := int(math.Ceil(duration*fps - countTolerance))
	timestamps := make([]float64, 0, count)
	for i := 0; i < count; i++ {
		t := roundMillis(start + float64(i)*interval)
		if t > end {
			break
		}
		timestamps = append(timestamps, t)
	}

	return timestamps, nil
}

// Validate checks the sampling window and rate.
func Validate(start, end, fps float64) error {
	switch {
	case math.IsNaN(fps) || fps < pipeline.MinFPS || fps > pipeline.MaxFPS:
		return pipeline.Errorf(pipeline.KindInvalidConfig, "fps must be between %d and %d, got %g", pipeline.MinFPS, pipeline.MaxFPS, fps)
	case math.IsNaN(start) || math.IsInf(start, 0) || start < 0:
		return pipeline.Errorf(pipeline.KindInvalidConfig, "start time must be >= 0, got %g", start)
	case math.IsNaN(end) || math.IsInf(end, 0):
		return pipeline.Errorf(pipeline.KindInvalidConfig, "end time must be finite, got %g", end)
	case end <= start:
		return pipeline.Errorf(pipeline.KindInvalidConfig, "end time (%g) must be greater than start time (%g)", end, start)
	case (end-start)*fps-countTolerance > MaxFrames:
		return pipeline.Errorf(pipeline.KindInvalidConfig, "window %g-%g at %g fps exceeds %d frames", start, end, fps, MaxFrames)
	}
	return nil
}

func roundMillis(t float64) float64 {
	return math.Round(t*1000) / 1000
}

// Stage adapts Plan to the pipeline.
type Stage struct{}

// NewStage creates a new plan stage.
func NewStage() *Stage {
	return &Stage{}
}

// Execute plans the sampling instants for the input window.
func (s *Stage) Execute(ctx context.Context, input pipeline.PlanInput) (pipeline.PlanResult, error) {
	timestamps, err := Plan(input.StartTime, input.EndTime, input.FPS)
	if err != nil {
		return pipeline.PlanResult{}, err
	}
	return pipeline.PlanResult{Timestamps: timestamps}, nil
}
