package detect

import (
	"context"
	"math"

	"lecturesync/internal/media/frames"
	"lecturesync/internal/timeline"
)

// Detector flags frames that differ from the last stable frame.
type Detector struct {
	threshold         float64
	watermarkFraction float64
}

// NewDetector builds a detector with an L2 threshold (already scaled to the
// video's resolution) and the fraction of rows cropped from the bottom.
func NewDetector(threshold, watermarkFraction float64) Detector {
	return Detector{threshold: threshold, watermarkFraction: watermarkFraction}
}

// Threshold returns the L2 norm above which frames count as changed.
func (d Detector) Threshold() float64 {
	return d.threshold
}

// Prepare crops the watermark band from a raw frame.
func (d Detector) Prepare(frame frames.Frame) frames.Frame {
	return frame.CropBottom(d.watermarkFraction)
}

// Changed reports whether the prepared frame cur differs from last. A missing
// last frame always counts as a change.
func (d Detector) Changed(last *frames.Frame, cur frames.Frame) bool {
	if last == nil || last.Empty() {
		return true
	}
	return frames.L2Norm(*last, cur) > d.threshold
}

// Boundary is a refined transition.
type Boundary struct {
	// Instant is the transition time in seconds, rounded to two decimals.
	Instant float64
	// Frame is the prepared frame at the end of the final window, the first
	// frame known to show the new content.
	Frame frames.Frame
	// Seeks counts the frames read during refinement.
	Seeks int
}

// Refiner locates transitions between samples.
type Refiner struct {
	source   frames.Source
	detector Detector
	fps      float64
}

// NewRefiner binds a refiner to a frame source.
func NewRefiner(source frames.Source, detector Detector, fps float64) Refiner {
	return Refiner{source: source, detector: detector, fps: fps}
}

// Refine binary-searches [start, end] for the first frame that differs from
// last. flagged is the prepared frame sampled at end. The search stops once
// the window is narrower than one frame period or a seek runs past the
// stream; the window end is the transition.
func (r Refiner) Refine(ctx context.Context, start, end float64, last *frames.Frame, flagged frames.Frame) (Boundary, error) {
	boundary := Boundary{Frame: flagged}
	period := 1 / r.fps
	if r.fps <= 0 {
		period = math.Inf(1)
	}
	for end-start > period {
		if err := ctx.Err(); err != nil {
			return Boundary{}, err
		}
		mid := (start + end) / 2
		raw, ok, err := r.source.FrameAt(ctx, mid)
		if err != nil {
			return Boundary{}, err
		}
		boundary.Seeks++
		if !ok {
			break
		}
		prepared := r.detector.Prepare(raw)
		if r.detector.Changed(last, prepared) {
			end = mid
			boundary.Frame = prepared
		} else {
			start = mid
		}
	}
	boundary.Instant = timeline.Round2(end)
	return boundary, nil
}

