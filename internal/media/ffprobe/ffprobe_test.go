package ffprobe

import (
	"math"
	"testing"
)

func TestVideoUsesFrameCountAndRate(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "audio"},
			{CodecType: "video", Width: 1280, Height: 720, AvgFrameRate: "30/1", NBFrames: "3600"},
		},
		Format: Format{Duration: "120.02"},
	}
	info, err := result.Video()
	if err != nil {
		t.Fatalf("Video returned error: %v", err)
	}
	if info.Width != 1280 || info.Height != 720 || info.FPS != 30 || info.FrameCount != 3600 {
		t.Fatalf("unexpected info %+v", info)
	}
	if info.Duration() != 120 {
		t.Fatalf("duration = %v, want 120", info.Duration())
	}
}

func TestVideoFallsBackToDuration(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "video", AvgFrameRate: "0/0", RFrameRate: "30000/1001"}},
		Format:  Format{Duration: "10.01"},
	}
	info, err := result.Video()
	if err != nil {
		t.Fatalf("Video returned error: %v", err)
	}
	if math.Abs(info.FPS-29.97002997) > 1e-6 {
		t.Fatalf("fps = %v", info.FPS)
	}
	if info.FrameCount != 300 {
		t.Fatalf("frame count = %d, want 300", info.FrameCount)
	}
}

func TestVideoErrors(t *testing.T) {
	if _, err := (Result{}).Video(); err == nil {
		t.Fatal("expected error without video stream")
	}
	noRate := Result{Streams: []Stream{{CodecType: "video"}}}
	if _, err := noRate.Video(); err == nil {
		t.Fatal("expected error without frame rate")
	}
	noDuration := Result{Streams: []Stream{{CodecType: "video", AvgFrameRate: "25"}}}
	if _, err := noDuration.Video(); err == nil {
		t.Fatal("expected error without duration")
	}
}

func TestParseRational(t *testing.T) {
	tests := map[string]float64{"25": 25, "30/1": 30, "0/0": 0, "": 0, "bad": 0, "1/0": 0}
	for input, want := range tests {
		if got := parseRational(input); got != want {
			t.Errorf("parseRational(%q) = %v, want %v", input, got, want)
		}
	}
}
