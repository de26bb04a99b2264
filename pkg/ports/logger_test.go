package ports

import "testing"

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{" warn ", LevelWarn},
		{"error", LevelError},
		{"quiet", LevelQuiet},
		{"verbose", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLogLevel_String(t *testing.T) {
	if LevelWarn.String() != "warn" {
		t.Errorf("expected 'warn', got %q", LevelWarn.String())
	}
	if LogLevel(42).String() != "unknown" {
		t.Errorf("expected 'unknown', got %q", LogLevel(42).String())
	}
}
