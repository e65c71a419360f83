package align

import (
	"slices"
	"strings"
	"time"

	"lecturesync/internal/catalog"
	"lecturesync/internal/config"
	"lecturesync/internal/timeline"
)

// TieBreak selects among clips inside the window.
type TieBreak string

const (
	// TieBreakNearest picks the smallest non-negative difference; equal
	// differences keep the earlier pair in registry order.
	TieBreakNearest TieBreak = "nearest"
	// TieBreakFirst picks the first qualifying pair in registry order.
	TieBreakFirst TieBreak = "first"
)

// Options holds the alignment policy.
type Options struct {
	Window               time.Duration
	TieBreak             TieBreak
	SkipFirstClipCourses []string
	SectionCompletion    bool
}

// OptionsFromConfig maps the [alignment] config section.
func OptionsFromConfig(cfg *config.Config) Options {
	al := cfg.Alignment
	return Options{
		Window:               time.Duration(al.WindowHours * float64(time.Hour)),
		TieBreak:             TieBreak(strings.ToLower(strings.TrimSpace(al.TieBreak))),
		SkipFirstClipCourses: append([]string(nil), al.SkipFirstClipCourses...),
		SectionCompletion:    al.SectionCompletion,
	}
}

// Candidates returns the course's (timestamp, clip) pool. For courses listed
// in SkipFirstClipCourses the chronologically earliest recording is dropped;
// ties on the earliest timestamp drop the first in registry order.
func (o Options) Candidates(course string, recs []catalog.Recording) []catalog.Recording {
	pool := append([]catalog.Recording(nil), recs...)
	if len(pool) == 0 || !slices.Contains(o.SkipFirstClipCourses, course) {
		return pool
	}
	earliest := 0
	for i, rec := range pool {
		if rec.TimestampMS < pool[earliest].TimestampMS {
			earliest = i
		}
	}
	return slices.Delete(pool, earliest, earliest+1)
}

// Nearest is the closest recording to an event in either direction.
type Nearest struct {
	ClipID string
	// Diff is event minus recording in milliseconds.
	Diff  int64
	Found bool
}

// Direction reports whether the event lies after or before the recording.
func (n Nearest) Direction() string {
	if n.Diff > 0 {
		return "after"
	}
	return "before"
}

// Hours returns |Diff| in hours.
func (n Nearest) Hours() float64 {
	d := n.Diff
	if d < 0 {
		d = -d
	}
	return float64(d) / float64(time.Hour/time.Millisecond)
}

// Decision is the outcome of selecting a clip for one event.
type Decision struct {
	ClipID  string
	Diff    int64
	Matched bool
	Nearest Nearest
}

// Select picks the recording for an event at eventMS. A pair qualifies when
// 0 <= event - recording <= Window and available reports a timeline for its
// clip. Nearest is tracked over every pair regardless of sign or availability.
func (o Options) Select(eventMS int64, pairs []catalog.Recording, available func(clipID string) bool) Decision {
	window := o.Window.Milliseconds()
	var d Decision
	for _, pair := range pairs {
		diff := eventMS - pair.TimestampMS
		if !d.Nearest.Found || abs(diff) < abs(d.Nearest.Diff) {
			d.Nearest = Nearest{ClipID: pair.ClipID, Diff: diff, Found: true}
		}
		if diff < 0 || diff > window {
			continue
		}
		if available != nil && !available(pair.ClipID) {
			continue
		}
		if !d.Matched {
			d.ClipID, d.Diff, d.Matched = pair.ClipID, diff, true
			continue
		}
		if o.TieBreak != TieBreakFirst && diff < d.Diff {
			d.ClipID, d.Diff = pair.ClipID, diff
		}
	}
	return d
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// LastPosition builds the annotation for a clip from its time-ordered
// timeline: the last segment carrying a section. found is false when no
// segment has a section; the annotation then names only the clip.
func LastPosition(tl timeline.ClipTimeline, withCompletion bool) (ad AutoDetected, found bool) {
	ad.ClipID = tl.ClipID
	last := -1
	for i, seg := range tl.Segments {
		if seg.SectionURI != "" {
			last = i
		}
	}
	if last < 0 {
		return ad, false
	}
	matched := tl.Segments[last]
	ad.SectionURI = matched.SectionURI
	ad.SlideURI = matched.SlideURI
	if withCompletion {
		completed := SectionCompleted(tl, last)
		ad.SectionCompleted = &completed
	}
	return ad, true
}

// SectionCompleted reports whether no segment starting at or after the end of
// segment idx introduces a different section or slide.
func SectionCompleted(tl timeline.ClipTimeline, idx int) bool {
	ref := tl.Segments[idx]
	for i, seg := range tl.Segments {
		if i == idx || seg.StartTime < ref.EndTime {
			continue
		}
		if introduces(seg.SectionID, ref.SectionID) || introduces(seg.SectionURI, ref.SectionURI) || introduces(seg.SlideURI, ref.SlideURI) {
			return false
		}
	}
	return true
}

func introduces(value, ref string) bool {
	return value != "" && value != ref
}
