package align_test

import (
	"testing"
	"time"

	"lecturesync/internal/align"
	"lecturesync/internal/catalog"
	"lecturesync/internal/timeline"
)

func dayWindow() align.Options {
	return align.Options{Window: 24 * time.Hour, TieBreak: align.TieBreakNearest}
}

func everything(string) bool { return true }

func TestSelectWithinWindow(t *testing.T) {
	pairs := []catalog.Recording{{ClipID: "c1", TimestampMS: 1000}}
	d := dayWindow().Select(1000+3_600_000, pairs, everything)
	if !d.Matched || d.ClipID != "c1" || d.Diff != 3_600_000 {
		t.Fatalf("decision = %+v", d)
	}
}

func TestSelectExcludesEarlierEvent(t *testing.T) {
	pairs := []catalog.Recording{{ClipID: "c1", TimestampMS: 1000}}
	d := dayWindow().Select(999, pairs, everything)
	if d.Matched {
		t.Fatalf("negative diff must not qualify: %+v", d)
	}
	if !d.Nearest.Found || d.Nearest.ClipID != "c1" || d.Nearest.Diff != -1 || d.Nearest.Direction() != "before" {
		t.Fatalf("nearest = %+v", d.Nearest)
	}
}

func TestSelectWindowEdges(t *testing.T) {
	window := 24 * time.Hour
	pairs := []catalog.Recording{{ClipID: "c1", TimestampMS: 0}}
	if d := dayWindow().Select(window.Milliseconds(), pairs, everything); !d.Matched {
		t.Fatal("diff equal to the window must qualify")
	}
	d := dayWindow().Select(window.Milliseconds()+1, pairs, everything)
	if d.Matched || d.Nearest.Direction() != "after" || d.Nearest.Hours() <= 24 {
		t.Fatalf("diff beyond the window must not qualify: %+v", d)
	}
	if d := dayWindow().Select(0, pairs, everything); !d.Matched || d.Diff != 0 {
		t.Fatal("zero diff must qualify")
	}
}

func TestSelectPrefersSmallestDiffInAnyOrder(t *testing.T) {
	const event = 10_000
	a := catalog.Recording{ClipID: "far", TimestampMS: event - 500}
	b := catalog.Recording{ClipID: "near", TimestampMS: event - 200}
	for _, pairs := range [][]catalog.Recording{{a, b}, {b, a}} {
		d := dayWindow().Select(event, pairs, everything)
		if d.ClipID != "near" || d.Diff != 200 {
			t.Fatalf("order %v picked %+v", pairs, d)
		}
	}
}

func TestSelectTieBreakPolicies(t *testing.T) {
	const event = 10_000
	pairs := []catalog.Recording{
		{ClipID: "first", TimestampMS: event - 500},
		{ClipID: "second", TimestampMS: event - 200},
		{ClipID: "third", TimestampMS: event - 200},
	}
	if d := dayWindow().Select(event, pairs, everything); d.ClipID != "second" {
		t.Fatalf("nearest should keep the first of equal diffs, got %+v", d)
	}
	first := dayWindow()
	first.TieBreak = align.TieBreakFirst
	if d := first.Select(event, pairs, everything); d.ClipID != "first" {
		t.Fatalf("first policy picked %+v", d)
	}
}

func TestSelectRequiresAvailableTimeline(t *testing.T) {
	pairs := []catalog.Recording{
		{ClipID: "missing", TimestampMS: 900},
		{ClipID: "present", TimestampMS: 100},
	}
	d := dayWindow().Select(1000, pairs, func(id string) bool { return id == "present" })
	if d.ClipID != "present" || d.Nearest.ClipID != "missing" {
		t.Fatalf("decision = %+v", d)
	}
}

func TestCandidatesDropEarliestForListedCourses(t *testing.T) {
	opts := dayWindow()
	opts.SkipFirstClipCourses = []string{"ai-1"}
	recs := []catalog.Recording{
		{ClipID: "b", TimestampMS: 200},
		{ClipID: "a", TimestampMS: 100},
		{ClipID: "c", TimestampMS: 300},
	}
	got := opts.Candidates("ai-1", recs)
	if len(got) != 2 || got[0].ClipID != "b" || got[1].ClipID != "c" {
		t.Fatalf("candidates = %+v", got)
	}
	if len(recs) != 3 {
		t.Fatal("input slice must not be modified")
	}
	if got := opts.Candidates("iwgs-1", recs); len(got) != 3 {
		t.Fatalf("unlisted course lost a pair: %+v", got)
	}
}

func TestNormalizeTimestamp(t *testing.T) {
	cases := []struct {
		in   float64
		want int64
	}{
		{1_700_000_000, 1_700_000_000_000},
		{1_700_000_000_123, 1_700_000_000_123},
		{1e12, 1_000_000_000_000},
		{999_999_999_999, 999_999_999_999_000},
	}
	for _, tc := range cases {
		if got := align.NormalizeTimestamp(tc.in); got != tc.want {
			t.Fatalf("NormalizeTimestamp(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestLastPosition(t *testing.T) {
	tl := timeline.ClipTimeline{ClipID: "c1", Duration: 90, Segments: []timeline.Segment{
		{StartTime: 0, EndTime: 30, SectionID: "s1", SectionURI: "uri:s1", SlideURI: "uri:s1/1"},
		{StartTime: 30, EndTime: 60, SectionID: "s2", SectionURI: "uri:s2", SlideURI: "uri:s2/4"},
		{StartTime: 60, EndTime: 90},
	}}
	ad, found := align.LastPosition(tl, true)
	if !found || ad.ClipID != "c1" || ad.SectionURI != "uri:s2" || ad.SlideURI != "uri:s2/4" {
		t.Fatalf("annotation = %+v", ad)
	}
	if ad.SectionCompleted == nil || !*ad.SectionCompleted {
		t.Fatalf("section should be complete: %+v", ad)
	}

	ad, _ = align.LastPosition(tl, false)
	if ad.SectionCompleted != nil {
		t.Fatal("completion must be omitted when disabled")
	}

	if ad, found := align.LastPosition(timeline.ClipTimeline{ClipID: "c2", Segments: []timeline.Segment{{EndTime: 5}}}, true); found || ad.ClipID != "c2" || ad.SectionURI != "" {
		t.Fatalf("unmatched clip annotation = %+v %v", ad, found)
	}
}

func TestSectionCompletedDetectsLaterSlide(t *testing.T) {
	tl := timeline.ClipTimeline{Segments: []timeline.Segment{
		{StartTime: 0, EndTime: 30, SectionID: "s1", SectionURI: "uri:s1", SlideURI: "uri:s1/1"},
		{StartTime: 30, EndTime: 60, SectionID: "s2"},
	}}
	if align.SectionCompleted(tl, 0) {
		t.Fatal("a later segment introducing another section id must mark the section incomplete")
	}
}
