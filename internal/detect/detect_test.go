package detect_test

import (
	"context"
	"testing"

	"lecturesync/internal/detect"
	"lecturesync/internal/media/frames"
	"lecturesync/internal/testsupport"
)

func TestDetectorFirstFrameAlwaysChanged(t *testing.T) {
	d := detect.NewDetector(4000, 0.05)
	if !d.Changed(nil, frames.NewFrame(4, 4)) {
		t.Fatal("expected change without a previous frame")
	}
}

func TestDetectorThresholdIsStrict(t *testing.T) {
	d := detect.NewDetector(6, 0)
	a := frames.NewFrame(2, 2)
	b := frames.NewFrame(2, 2)
	for i := range b.Pix {
		b.Pix[i] = 3
	}
	// L2 norm is exactly 6.
	if d.Changed(&a, b) {
		t.Fatal("norm equal to threshold must not count as change")
	}
	b.Pix[0] = 4
	if !d.Changed(&a, b) {
		t.Fatal("norm above threshold must count as change")
	}
}

func TestRefineLocatesTransition(t *testing.T) {
	video := testsupport.NewSlideVideo(testsupport.SlideVideoOptions{
		FPS:      30,
		Duration: 120,
		Slides: []testsupport.SlideSpan{
			{Start: 0, Value: 50, Text: "A"},
			{Start: 47.3, Value: 200, Text: "B"},
		},
	})
	d := detect.NewDetector(100, 0.05)
	ctx := context.Background()

	lastRaw, ok, err := video.FrameAt(ctx, 40)
	if err != nil || !ok {
		t.Fatalf("frame at 40: %v %v", ok, err)
	}
	last := d.Prepare(lastRaw)
	flaggedRaw, _, _ := video.FrameAt(ctx, 50)
	flagged := d.Prepare(flaggedRaw)
	if !d.Changed(&last, flagged) {
		t.Fatal("expected slide change between 40s and 50s")
	}

	refiner := detect.NewRefiner(video, d, 30)
	boundary, err := refiner.Refine(ctx, 40, 50, &last, flagged)
	if err != nil {
		t.Fatalf("Refine returned error: %v", err)
	}
	if boundary.Instant != 47.3 {
		t.Fatalf("instant = %v, want 47.3", boundary.Instant)
	}
	if boundary.Frame.Pix[0] != 200 {
		t.Fatalf("boundary frame should show the new slide, got value %d", boundary.Frame.Pix[0])
	}
	if boundary.Seeks == 0 || boundary.Seeks > 10 {
		t.Fatalf("unexpected seek count %d", boundary.Seeks)
	}
}

func TestRefineEmptyWindowReturnsEnd(t *testing.T) {
	video := testsupport.NewSlideVideo(testsupport.SlideVideoOptions{FPS: 25, Duration: 30})
	d := detect.NewDetector(100, 0.05)
	raw, _, _ := video.FrameAt(context.Background(), 0)
	boundary, err := detect.NewRefiner(video, d, 25).Refine(context.Background(), 0, 0, nil, d.Prepare(raw))
	if err != nil {
		t.Fatalf("Refine returned error: %v", err)
	}
	if boundary.Instant != 0 || boundary.Seeks != 0 {
		t.Fatalf("unexpected boundary %+v", boundary)
	}
}

func TestRefineHonorsCancellation(t *testing.T) {
	video := testsupport.NewSlideVideo(testsupport.SlideVideoOptions{FPS: 25, Duration: 30})
	d := detect.NewDetector(100, 0.05)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := detect.NewRefiner(video, d, 25).Refine(ctx, 0, 10, nil, frames.NewFrame(1, 1)); err == nil {
		t.Fatal("expected context error")
	}
}
