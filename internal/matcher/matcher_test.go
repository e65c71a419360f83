package matcher_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"lecturesync/internal/catalog"
	"lecturesync/internal/logging"
	"lecturesync/internal/matcher"
	"lecturesync/internal/services"
	"lecturesync/internal/timeline"
)

func constant(score float64) matcher.Scorer {
	return func(string, string) float64 { return score }
}

func slides(n int) catalog.Slides {
	out := make(catalog.Slides, n)
	for i := range out {
		id := string(rune('a' + i))
		out[i] = catalog.SlideRecord{
			SectionID:    "sec-" + id,
			SectionURI:   "uri:sec-" + id,
			SectionTitle: "Section " + id,
			SlideURI:     "uri:slide-" + id,
			ContentText:  "content " + id,
			HTML:         "<p>" + id + "</p>",
		}
	}
	return out
}

func TestLengthBoundary(t *testing.T) {
	m := matcher.New(matcher.Options{MinTextLength: 100, ScoreThreshold: 70, Scorer: constant(71)}, slides(1), logging.NewNop())
	if _, ok := m.Best(strings.Repeat("x", 99)); ok {
		t.Fatal("99 characters must never match")
	}
	if _, ok := m.Best(strings.Repeat("x", 100)); !ok {
		t.Fatal("100 characters scoring 71 must match")
	}
	// whitespace collapses before counting
	if _, ok := m.Best(strings.Repeat("x ", 50)); ok {
		t.Fatal("trailing whitespace must not count towards the length")
	}
	// multi-byte characters count once
	if _, ok := m.Best(strings.Repeat("ä", 100)); !ok {
		t.Fatal("length should count characters, not bytes")
	}
}

func TestScoreThresholdIsStrict(t *testing.T) {
	text := strings.Repeat("y", 120)
	m := matcher.New(matcher.Options{MinTextLength: 100, ScoreThreshold: 70, Scorer: constant(70)}, slides(2), logging.NewNop())
	if match, ok := m.Best(text); ok || match.Score != 70 {
		t.Fatalf("score 70 must not match, got %+v %v", match, ok)
	}
}

func TestTieKeepsFirstCatalogRecord(t *testing.T) {
	scores := map[string]float64{"content a": 80, "content b": 95, "content c": 95}
	scorer := func(_, candidate string) float64 { return scores[candidate] }
	m := matcher.New(matcher.Options{MinTextLength: 1, ScoreThreshold: 70, Scorer: scorer}, slides(3), logging.NewNop())
	match, ok := m.Best("anything")
	if !ok || match.Index != 1 || match.Slide.SlideURI != "uri:slide-b" {
		t.Fatalf("expected first maximal record, got %+v", match)
	}
}

func TestApplyCopiesAndClearsFields(t *testing.T) {
	m := matcher.New(matcher.Options{MinTextLength: 100, ScoreThreshold: 70, Scorer: constant(90)}, slides(1), logging.NewNop())
	seg := timeline.Segment{Text: strings.Repeat("z", 100)}
	if !m.Apply(&seg) {
		t.Fatal("expected match")
	}
	if seg.SectionID != "sec-a" || seg.SectionURI != "uri:sec-a" || seg.SectionTitle != "Section a" ||
		seg.SlideURI != "uri:slide-a" || seg.SlideContent != "content a" || seg.SlideHTML != "<p>a</p>" {
		t.Fatalf("fields not copied: %+v", seg)
	}

	short := timeline.Segment{Text: "short", SectionURI: "stale", SlideURI: "stale"}
	if m.Apply(&short) || short.Matched() || short.SlideURI != "" {
		t.Fatalf("stale match not cleared: %+v", short)
	}
}

func TestTokenSetRatioIsDefaultScorer(t *testing.T) {
	words := strings.Fields("dynamic programming solves overlapping subproblems by storing partial results in a table so that every subproblem is computed once")
	cat := catalog.Slides{
		{SectionURI: "uri:graphs", SlideURI: "uri:graphs/1", ContentText: "breadth first search explores a graph level by level using a queue of frontier vertices"},
		{SectionURI: "uri:dp", SlideURI: "uri:dp/1", ContentText: strings.Join(words, " ")},
	}
	m := matcher.New(matcher.Options{MinTextLength: 100, ScoreThreshold: 70}, cat, logging.NewNop())

	// reordered words with smart quotes and bullets still match the same slide
	reordered := append([]string{"•", "“table"}, words...)
	reordered = append(reordered, "”", "—")
	match, ok := m.Best(strings.Join(reordered, "  "))
	if !ok || match.Slide.SlideURI != "uri:dp/1" {
		t.Fatalf("expected dp slide, got %+v %v", match, ok)
	}
}

func TestMatchFile(t *testing.T) {
	dir := t.TempDir()
	src := timeline.Path(dir, "ai-1", "WS24-25", timeline.KindExtracted)
	dst := timeline.Path(dir, "ai-1", "WS24-25", timeline.KindMatched)
	doc := timeline.Document{
		"c1": {ClipID: "c1", Duration: 20, Segments: []timeline.Segment{
			{StartTime: 0, EndTime: 10, Text: strings.Repeat("long text ", 12)},
			{StartTime: 10, EndTime: 20, Text: "tiny"},
		}},
	}
	if err := timeline.Save(src, doc); err != nil {
		t.Fatalf("seed: %v", err)
	}

	m := matcher.New(matcher.Options{MinTextLength: 100, ScoreThreshold: 70, Scorer: constant(99)}, slides(1), logging.NewNop())
	stats, err := m.MatchFile(context.Background(), src, dst)
	if err != nil {
		t.Fatalf("match file: %v", err)
	}
	if stats.Segments != 2 || stats.Eligible != 1 || stats.Matched != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	out, err := timeline.Load(dst)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	segs := out["c1"].Segments
	if len(segs) != 2 || !segs[0].Matched() || segs[1].Matched() {
		t.Fatalf("unexpected matched output %+v", segs)
	}
	raw, err := timeline.Load(src)
	if err != nil || raw["c1"].Segments[0].Matched() {
		t.Fatal("source store must stay untouched")
	}
}

func TestMatchFileMissingSource(t *testing.T) {
	m := matcher.New(matcher.Options{MinTextLength: 100, ScoreThreshold: 70}, nil, logging.NewNop())
	dir := t.TempDir()
	_, err := m.MatchFile(context.Background(), filepath.Join(dir, "missing.json"), filepath.Join(dir, "out.json"))
	if !services.IsSkippable(err) {
		t.Fatalf("expected skippable error, got %v", err)
	}
}
