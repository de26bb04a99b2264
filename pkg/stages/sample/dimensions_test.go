package sample

import (
	"errors"
	"testing"

	"github.com/user/vidgif/pkg/pipeline"
)

func TestResolveDimensions(t *testing.T) {
	tests := []struct {
		name                   string
		nativeW, nativeH       int
		targetW, targetH, maxW int
		wantW, wantH           int
	}{
		{"native", 640, 360, 0, 0, 0, 640, 360},
		{"native odd", 641, 361, 0, 0, 0, 640, 360},
		{"both targets", 1280, 720, 300, 301, 0, 300, 300},
		{"width only", 1280, 720, 481, 0, 0, 480, 270},
		{"height only", 1280, 720, 0, 240, 0, 426, 240},
		{"max width caps", 1920, 1080, 0, 0, 480, 480, 270},
		{"max width not needed", 320, 240, 0, 0, 480, 320, 240},
		{"target beats max width", 1920, 1080, 800, 0, 480, 800, 450},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, err := ResolveDimensions(tt.nativeW, tt.nativeH, tt.targetW, tt.targetH, tt.maxW)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("expected %dx%d, got %dx%d", tt.wantW, tt.wantH, w, h)
			}
			if w%2 != 0 || h%2 != 0 {
				t.Errorf("expected even dimensions, got %dx%d", w, h)
			}
		})
	}
}

func TestResolveDimensions_Invalid(t *testing.T) {
	cases := [][5]int{
		{0, 720, 0, 0, 0},
		{1280, 0, 0, 0, 0},
		{1, 1, 0, 0, 0},
		{1000, 10, 100, 0, 0},
	}
	for _, c := range cases {
		_, _, err := ResolveDimensions(c[0], c[1], c[2], c[3], c[4])
		if !errors.Is(err, pipeline.ErrInvalidDimensions) {
			t.Errorf("ResolveDimensions%v: expected ErrInvalidDimensions, got %v", c, err)
		}
	}
}
