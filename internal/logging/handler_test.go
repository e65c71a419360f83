package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestTeeHandlerCollapses(t *testing.T) {
	if _, ok := TeeHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler for all nil handlers")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if TeeHandler(nil, inner) != inner {
		t.Fatal("expected single handler to be returned unwrapped")
	}
}

func TestTeeHandlerRespectsLevels(t *testing.T) {
	var infoBuf, debugBuf bytes.Buffer
	h := TeeHandler(
		slog.NewJSONHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected debug enabled through second handler")
	}
	logger := slog.New(h).With("course", "ai-1")
	logger.Debug("debug only")
	logger.Info("both")

	if strings.Contains(infoBuf.String(), "debug only") {
		t.Fatal("info handler received debug record")
	}
	if !strings.Contains(debugBuf.String(), "debug only") || !strings.Contains(debugBuf.String(), `"course":"ai-1"`) {
		t.Fatalf("debug handler output %q", debugBuf.String())
	}
	if !strings.Contains(infoBuf.String(), "both") {
		t.Fatalf("info handler output %q", infoBuf.String())
	}
}

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(25)
	steps := []struct {
		clip    string
		percent float64
		want    bool
	}{
		{"54629", 0, true},
		{"54629", 10, false},
		{"54629", 25, true},
		{"54629", 49, false},
		{"54629", 150, true},
		{"54629", 100, false},
		{"54630", 0, true},
		{"54630", -1, false},
	}
	for i, step := range steps {
		if got := s.ShouldLog(step.clip, step.percent); got != step.want {
			t.Fatalf("step %d (%s %.0f%%): got %v, want %v", i, step.clip, step.percent, got, step.want)
		}
	}
	var nilSampler *ProgressSampler
	if !nilSampler.ShouldLog("x", 1) {
		t.Fatal("nil sampler should always log")
	}
}

func TestFormatSubject(t *testing.T) {
	tests := []struct {
		course, semester, clip, stage string
		want                          string
	}{
		{"ai-1", "WS24-25", "54629", "extract", "ai-1 WS24-25 · clip 54629 (extract)"},
		{"ai-1", "", "", "match", "ai-1 · match"},
		{"", "", "7", "", "clip 7"},
		{"", "", "", "", ""},
	}
	for _, tt := range tests {
		if got := FormatSubject(tt.course, tt.semester, tt.clip, tt.stage); got != tt.want {
			t.Errorf("FormatSubject(%q,%q,%q,%q) = %q, want %q", tt.course, tt.semester, tt.clip, tt.stage, got, tt.want)
		}
	}
}
