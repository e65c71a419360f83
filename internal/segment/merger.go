package segment

import (
	"lecturesync/internal/timeline"
)

// Similarity scores two texts in [0, 100].
type Similarity func(a, b string) float64

// Merger accumulates segments for one clip.
type Merger struct {
	threshold  float64
	similarity Similarity
	segments   []timeline.Segment
}

// NewMerger builds a merger that extends the open segment when
// similarity(lastText, text) exceeds threshold.
func NewMerger(threshold float64, similarity Similarity) *Merger {
	return &Merger{threshold: threshold, similarity: similarity}
}

// Open reports whether a segment is currently open.
func (m *Merger) Open() bool {
	return len(m.segments) > 0
}

// Observe applies one transition. lastText is the text of the last stable
// frame before the transition, text the text of the new boundary frame. It
// returns the segments created or modified by this step.
func (m *Merger) Observe(instant float64, lastText, text string) []timeline.Segment {
	if text == "" {
		return nil
	}
	if !m.Open() {
		m.segments = append(m.segments, timeline.Segment{StartTime: instant, EndTime: instant, Text: text})
		return m.tail(1)
	}

	open := &m.segments[len(m.segments)-1]
	if m.extends(lastText, text) {
		open.EndTime = max(open.EndTime, instant)
		open.Text = text
		return m.tail(1)
	}

	start := max(open.StartTime, instant)
	if start == open.StartTime {
		// Segments are keyed by start; a new slide at the same instant
		// replaces the open one instead of leaving a zero-length segment.
		open.Text = text
		return m.tail(1)
	}
	open.EndTime = start
	m.segments = append(m.segments, timeline.Segment{StartTime: start, EndTime: start, Text: text})
	return m.tail(2)
}

func (m *Merger) extends(lastText, text string) bool {
	if lastText == "" || m.similarity == nil {
		return false
	}
	return m.similarity(lastText, text) > m.threshold
}

// Finalize forces the open segment to end at the clip duration and returns
// it. ok is false when no segment was ever opened.
func (m *Merger) Finalize(duration float64) (timeline.Segment, bool) {
	if !m.Open() {
		return timeline.Segment{}, false
	}
	open := &m.segments[len(m.segments)-1]
	if open.StartTime > duration {
		open.StartTime = duration
	}
	open.EndTime = duration
	return *open, true
}

// Segments returns a copy of every segment produced so far.
func (m *Merger) Segments() []timeline.Segment {
	return append([]timeline.Segment(nil), m.segments...)
}

func (m *Merger) tail(n int) []timeline.Segment {
	return append([]timeline.Segment(nil), m.segments[len(m.segments)-n:]...)
}
