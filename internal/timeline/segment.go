package timeline

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
)

// Segment is a span of a clip during which one slide was on screen.
type Segment struct {
	StartTime    float64  `json:"start_time"`
	EndTime      float64  `json:"end_time"`
	Text         string   `json:"text"`
	SectionID    string   `json:"section_id,omitempty"`
	SectionURI   string   `json:"section_uri,omitempty"`
	SectionTitle string   `json:"section_title,omitempty"`
	SlideURI     string   `json:"slide_uri,omitempty"`
	SlideContent string   `json:"slide_content,omitempty"`
	SlideHTML    string   `json:"slide_html,omitempty"`
	Duration     *float64 `json:"duration,omitempty"`
}

// Matched reports whether the segment carries a section assignment.
func (s Segment) Matched() bool {
	return s.SectionURI != ""
}

// ClearMatch blanks every slide-catalog field.
func (s *Segment) ClearMatch() {
	s.SectionID = ""
	s.SectionURI = ""
	s.SectionTitle = ""
	s.SlideURI = ""
	s.SlideContent = ""
	s.SlideHTML = ""
}

// ClipTimeline is the ordered segment sequence of one clip.
type ClipTimeline struct {
	ClipID   string    `json:"clip_id"`
	Duration float64   `json:"duration"`
	Segments []Segment `json:"segments"`
}

// completionTolerance absorbs float noise when comparing the last segment's
// end with the probed duration.
const completionTolerance = 1e-6

// Round2 rounds to hundredths, the resolution of every stored time.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Complete reports whether the timeline's last segment ends at duration.
func (c ClipTimeline) Complete(duration float64) bool {
	if len(c.Segments) == 0 {
		return false
	}
	last := c.Segments[len(c.Segments)-1]
	return math.Abs(last.EndTime-duration) <= completionTolerance
}

// Upsert inserts seg in start-time order, replacing any segment with the same
// start time.
func (c *ClipTimeline) Upsert(seg Segment) {
	idx, found := slices.BinarySearchFunc(c.Segments, seg.StartTime, func(s Segment, start float64) int {
		switch {
		case s.StartTime < start:
			return -1
		case s.StartTime > start:
			return 1
		default:
			return 0
		}
	})
	if found {
		c.Segments[idx] = seg
		return
	}
	c.Segments = slices.Insert(c.Segments, idx, seg)
}

// Clone returns a deep copy of the timeline.
func (c ClipTimeline) Clone() ClipTimeline {
	out := ClipTimeline{ClipID: c.ClipID, Duration: c.Duration}
	if c.Segments != nil {
		out.Segments = make([]Segment, len(c.Segments))
		for i, seg := range c.Segments {
			if seg.Duration != nil {
				d := *seg.Duration
				seg.Duration = &d
			}
			out.Segments[i] = seg
		}
	}
	return out
}

// legacySegment is the per-start-time entry of the older string-keyed format.
type legacySegment struct {
	StartTime    *float64 `json:"start_time"`
	EndTime      *float64 `json:"end_time"`
	TextValue    string   `json:"text_value"`
	SectionID    string   `json:"sectionId"`
	SectionURI   string   `json:"sectionUri"`
	SectionTitle string   `json:"sectionTitle"`
	SlideURI     string   `json:"slideUri"`
	SlideContent string   `json:"slideContent"`
	SlideHTML    string   `json:"html"`
	Duration     *float64 `json:"duration"`
}

// UnmarshalJSON accepts both the ordered-sequence form and the legacy
// "extracted_content" map keyed by stringified start times.
func (c *ClipTimeline) UnmarshalJSON(data []byte) error {
	type plain ClipTimeline
	var doc struct {
		plain
		ExtractedContent map[string]legacySegment `json:"extracted_content"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*c = ClipTimeline(doc.plain)
	if len(doc.ExtractedContent) == 0 {
		return nil
	}
	segments := make([]Segment, 0, len(doc.ExtractedContent))
	for key, entry := range doc.ExtractedContent {
		seg := Segment{
			Text:         entry.TextValue,
			SectionID:    entry.SectionID,
			SectionURI:   entry.SectionURI,
			SectionTitle: entry.SectionTitle,
			SlideURI:     entry.SlideURI,
			SlideContent: entry.SlideContent,
			SlideHTML:    entry.SlideHTML,
			Duration:     entry.Duration,
		}
		switch {
		case entry.StartTime != nil:
			seg.StartTime = *entry.StartTime
		default:
			start, err := strconv.ParseFloat(key, 64)
			if err != nil {
				return fmt.Errorf("legacy segment key %q: %w", key, err)
			}
			seg.StartTime = start
		}
		if entry.EndTime != nil {
			seg.EndTime = *entry.EndTime
		} else {
			seg.EndTime = seg.StartTime
		}
		segments = append(segments, seg)
	}
	slices.SortFunc(segments, func(a, b Segment) int {
		switch {
		case a.StartTime < b.StartTime:
			return -1
		case a.StartTime > b.StartTime:
			return 1
		default:
			return 0
		}
	})
	c.Segments = segments
	if c.Duration == 0 && len(segments) > 0 {
		c.Duration = segments[len(segments)-1].EndTime
	}
	return nil
}
