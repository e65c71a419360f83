package testsupport

import (
	"context"
	"math"
	"strings"
	"sync"

	"lecturesync/internal/media/frames"
)

// ScriptedOCR recognizes SlideVideo frames. It maps a frame to the slide whose
// fill value is closest to the frame's mean intensity. Noisy frames read back
// the slide text with its last character dropped, imitating OCR jitter.
type ScriptedOCR struct {
	slides []SlideSpan

	mu    sync.Mutex
	calls int
}

// NewScriptedOCR builds an engine for the slides of a SlideVideo.
func NewScriptedOCR(slides []SlideSpan) *ScriptedOCR {
	return &ScriptedOCR{slides: append([]SlideSpan(nil), slides...)}
}

// Recognize implements ocr.Engine.
func (o *ScriptedOCR) Recognize(ctx context.Context, frame frames.Frame) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	o.mu.Lock()
	o.calls++
	o.mu.Unlock()
	if frame.Empty() || len(o.slides) == 0 {
		return "", nil
	}
	var sum float64
	for _, p := range frame.Pix[:frame.Width*frame.Height] {
		sum += float64(p)
	}
	mean := sum / float64(frame.Width*frame.Height)

	best := o.slides[0]
	bestDist := math.Inf(1)
	for _, slide := range o.slides {
		if d := math.Abs(mean - float64(slide.Value)); d < bestDist {
			best, bestDist = slide, d
		}
	}
	text := strings.TrimSpace(best.Text)
	if bestDist > 1 && len(text) > 1 {
		runes := []rune(text)
		text = string(runes[:len(runes)-1])
	}
	return text, nil
}

// Calls returns the number of Recognize invocations.
func (o *ScriptedOCR) Calls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls
}
