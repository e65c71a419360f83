package testsupport

import (
	"context"
	"math"
	"sync"

	"lecturesync/internal/media/ffprobe"
	"lecturesync/internal/media/frames"
)

// SlideSpan is a slide shown from Start until the next span starts. Frames
// showing it are filled uniformly with Value.
type SlideSpan struct {
	Start float64
	Value uint8
	Text  string
}

// SlideVideoOptions configures a synthetic lecture video.
type SlideVideoOptions struct {
	FPS      float64
	Duration float64
	Width    int
	Height   int
	Slides   []SlideSpan
	// Noise lists timestamps whose frame carries pixel noise strong enough
	// to trip change detection while still showing the same slide.
	Noise []float64
}

// SlideVideo is an in-memory frames.Source.
type SlideVideo struct {
	opts       SlideVideoOptions
	frameCount int64
	noisy      map[int64]bool

	mu    sync.Mutex
	reads int
}

const (
	noiseStride    = 4
	noiseAmplitude = 40
)

// NewSlideVideo builds a synthetic video. Defaults: 64x36 at 30 fps, 60s, a
// single blank slide.
func NewSlideVideo(opts SlideVideoOptions) *SlideVideo {
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	if opts.Duration <= 0 {
		opts.Duration = 60
	}
	if opts.Width <= 0 {
		opts.Width = 64
	}
	if opts.Height <= 0 {
		opts.Height = 36
	}
	if len(opts.Slides) == 0 {
		opts.Slides = []SlideSpan{{Start: 0, Value: 50, Text: "blank"}}
	}
	v := &SlideVideo{
		opts:       opts,
		frameCount: int64(math.Round(opts.Duration * opts.FPS)),
		noisy:      make(map[int64]bool, len(opts.Noise)),
	}
	for _, ts := range opts.Noise {
		v.noisy[v.frameIndex(ts)] = true
	}
	return v
}

func (v *SlideVideo) frameIndex(seconds float64) int64 {
	return int64(math.Floor(seconds*v.opts.FPS + 1e-9))
}

// Info implements frames.Source.
func (v *SlideVideo) Info() ffprobe.VideoInfo {
	return ffprobe.VideoInfo{
		Width:      v.opts.Width,
		Height:     v.opts.Height,
		FPS:        v.opts.FPS,
		FrameCount: v.frameCount,
	}
}

// FrameAt implements frames.Source.
func (v *SlideVideo) FrameAt(ctx context.Context, seconds float64) (frames.Frame, bool, error) {
	if err := ctx.Err(); err != nil {
		return frames.Frame{}, false, err
	}
	idx := v.frameIndex(seconds)
	if seconds < 0 || idx >= v.frameCount {
		return frames.Frame{}, false, nil
	}
	v.mu.Lock()
	v.reads++
	v.mu.Unlock()

	slide := v.slideAt(idx)
	frame := frames.NewFrame(v.opts.Width, v.opts.Height)
	for i := range frame.Pix {
		frame.Pix[i] = slide.Value
	}
	if v.noisy[idx] {
		for i := 0; i < len(frame.Pix); i += noiseStride {
			frame.Pix[i] = uint8(min(255, int(slide.Value)+noiseAmplitude))
		}
	}
	return frame, true, nil
}

// Close implements frames.Source.
func (v *SlideVideo) Close() error {
	return nil
}

// Reads returns how many frames have been decoded.
func (v *SlideVideo) Reads() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.reads
}

// Slides returns the configured slide spans.
func (v *SlideVideo) Slides() []SlideSpan {
	return append([]SlideSpan(nil), v.opts.Slides...)
}

func (v *SlideVideo) slideAt(idx int64) SlideSpan {
	current := v.opts.Slides[0]
	for _, span := range v.opts.Slides {
		first := int64(math.Ceil(span.Start*v.opts.FPS - 1e-9))
		if idx >= first {
			current = span
		}
	}
	return current
}
