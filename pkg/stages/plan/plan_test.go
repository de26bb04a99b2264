package plan

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/user/vidgif/pkg/pipeline"
)

func TestPlan_Examples(t *testing.T) {
	tests := []struct {
		name       string
		start, end float64
		fps        float64
		want       []float64
	}{
		{"two seconds at 2fps", 0, 2, 2, []float64{0, 0.5, 1, 1.5}},
		{"short window", 1.0, 1.05, 10, []float64{1.0}},
		{"offset start", 10, 10.5, 4, []float64{10, 10.25}},
		{"decimal window", 0, 0.3, 10, []float64{0, 0.1, 0.2}},
		{"one frame per second", 3, 6, 1, []float64{3, 4, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Plan(tt.start, tt.end, tt.fps)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d timestamps, got %d: %v", len(tt.want), len(got), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("timestamp[%d]: expected %v, got %v", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestPlan_ThirtyFPSRounding(t *testing.T) {
	got, err := Plan(0, 1, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 30 {
		t.Fatalf("expected 30 timestamps, got %d", len(got))
	}
	if got[1] != 0.033 {
		t.Errorf("expected 0.033, got %v", got[1])
	}
	if got[29] != 0.967 {
		t.Errorf("expected 0.967, got %v", got[29])
	}
}

func TestPlan_Properties(t *testing.T) {
	windows := []struct{ start, end float64 }{
		{0, 1}, {0, 5}, {2.5, 7.25}, {0.1, 0.9}, {12, 12.01}, {0, 60},
	}

	for _, w := range windows {
		for fps := 1; fps <= 60; fps++ {
			got, err := Plan(w.start, w.end, float64(fps))
			if err != nil {
				t.Fatalf("Plan(%v, %v, %d): unexpected error: %v", w.start, w.end, fps, err)
			}
			if len(got) == 0 {
				t.Fatalf("Plan(%v, %v, %d): expected at least one timestamp", w.start, w.end, fps)
			}
			if got[0] != w.start {
				t.Errorf("Plan(%v, %v, %d): first timestamp %v, want %v", w.start, w.end, fps, got[0], w.start)
			}

			duration := w.end - w.start
			if duration >= 1/float64(fps) {
				limit := int(math.Ceil(duration * float64(fps)))
				if len(got) > limit {
					t.Errorf("Plan(%v, %v, %d): %d timestamps exceeds %d", w.start, w.end, fps, len(got), limit)
				}
			}

			for i, ts := range got {
				if ts > w.end {
					t.Errorf("Plan(%v, %v, %d): timestamp %v past end", w.start, w.end, fps, ts)
				}
				if i > 0 && ts <= got[i-1] {
					t.Errorf("Plan(%v, %v, %d): timestamps not strictly increasing at %d", w.start, w.end, fps, i)
				}
				if math.Abs(ts*1000-math.Round(ts*1000)) > 1e-6 {
					t.Errorf("Plan(%v, %v, %d): timestamp %v not rounded to ms", w.start, w.end, fps, ts)
				}
			}
		}
	}
}

func TestPlan_InvalidConfig(t *testing.T) {
	tests := []struct {
		name            string
		start, end, fps float64
	}{
		{"fps zero", 0, 1, 0},
		{"fps too high", 0, 1, 61},
		{"negative start", -1, 1, 10},
		{"end equals start", 2, 2, 10},
		{"end before start", 3, 2, 10},
		{"nan fps", 0, 1, math.NaN()},
		{"infinite end", 0, math.Inf(1), 60},
		{"infinite start", math.Inf(1), math.Inf(1), 10},
		{"nan end", 0, math.NaN(), 10},
		{"huge window", 0, 1e18, 60},
		{"just over frame cap", 0, MaxFrames/10 + 1, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Plan(tt.start, tt.end, tt.fps)
			if !errors.Is(err, pipeline.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestPlan_AtFrameCap(t *testing.T) {
	timestamps, err := Plan(0, MaxFrames/50, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(timestamps) != MaxFrames {
		t.Errorf("expected %d timestamps, got %d", MaxFrames, len(timestamps))
	}
}

func TestStage_Execute(t *testing.T) {
	stage := NewStage()
	result, err := stage.Execute(context.Background(), pipeline.PlanInput{StartTime: 0, EndTime: 1, FPS: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Timestamps) != 4 {
		t.Errorf("expected 4 timestamps, got %d", len(result.Timestamps))
	}
}
