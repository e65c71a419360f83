package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"lecturesync/internal/catalog"
	"lecturesync/internal/config"
	"lecturesync/internal/durations"
	"lecturesync/internal/ledger"
	"lecturesync/internal/logging"
	"lecturesync/internal/media/frames"
	"lecturesync/internal/services"
	"lecturesync/internal/testsupport"
	"lecturesync/internal/timeline"
	"lecturesync/internal/workflow"
)

const (
	textA = "Graph Theory: vertices, edges and paths"
	textB = "Sums 0815: induction over the natural numbers"
)

type fakeResolver struct {
	errs map[string]error
}

func (r fakeResolver) Resolve(_ context.Context, clipID string) (string, error) {
	if err := r.errs[clipID]; err != nil {
		return "", err
	}
	return "/videos/" + clipID + ".mp4", nil
}

type fixture struct {
	cfg    *config.Config
	videos map[string]*testsupport.SlideVideo
	ocr    *testsupport.ScriptedOCR
}

func lectureSlides() []testsupport.SlideSpan {
	return []testsupport.SlideSpan{
		{Start: 0, Value: 50, Text: textA},
		{Start: 47.3, Value: 200, Text: textB},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithConfig(func(c *config.Config) {
		c.Extraction.DiffThreshold = 100
		c.Extraction.ReferenceWidth = 0
		c.Extraction.ReferenceHeight = 0
		c.Matching.MinTextLength = 10
		c.Alignment.SkipFirstClipCourses = nil
	}))
	if err := os.MkdirAll(cfg.Paths.CatalogDir, 0o755); err != nil {
		t.Fatalf("mkdir catalog: %v", err)
	}
	testsupport.WriteFile(t, cfg.Paths.ClipRegistry, []byte(`{
  "ml-1": {
    "WS24-25": {"clips": [
      {"clip_id": "c1", "recording_date": "2024-10-15"},
      {"clip_id": "gone", "recording_date": "2024-10-17"},
      {"clip_id": "broken", "recording_date": "2024-10-22"}
    ]}
  },
  "ml-2": {"WS24-25": {"clips": [{"clip_id": "x1", "recording_date": "2024-10-16"}]}}
}`))
	testsupport.WriteFile(t, catalog.SlidesPath(cfg.Paths.CatalogDir, "ml-1"), []byte(`{
  "s1": [{"section_uri": "uri:s1", "section_title": "Graphs", "slide_uri": "uri:s1/1", "content_text": "`+textA+`"}],
  "s2": [{"section_uri": "uri:s2", "section_title": "Sums", "slide_uri": "uri:s2/4", "content_text": "`+textB+`"}]
}`))
	oct15 := time.Date(2024, 10, 15, 0, 0, 0, 0, time.UTC).UnixMilli()
	testsupport.WriteJSON(t, cfg.Paths.CalendarFile, map[string]any{
		"ml-1": []map[string]any{
			{"timestamp_ms": oct15 + 2*3_600_000, "title": "Lecture 1"},
		},
	})

	slides := lectureSlides()
	return &fixture{
		cfg: cfg,
		videos: map[string]*testsupport.SlideVideo{
			"c1": testsupport.NewSlideVideo(testsupport.SlideVideoOptions{FPS: 30, Duration: 120, Slides: slides, Noise: []float64{10, 30}}),
			"x1": testsupport.NewSlideVideo(testsupport.SlideVideoOptions{FPS: 30, Duration: 40, Slides: slides[:1]}),
		},
		ocr: testsupport.NewScriptedOCR(slides),
	}
}

func (f *fixture) opener(_ context.Context, path string) (frames.Source, error) {
	id := filepath.Base(path)
	id = id[:len(id)-len(filepath.Ext(id))]
	video, ok := f.videos[id]
	if !ok {
		return nil, errors.New("moov atom not found")
	}
	return video, nil
}

func (f *fixture) manager(t *testing.T, store *ledger.Store) *workflow.Manager {
	t.Helper()
	resolver := fakeResolver{errs: map[string]error{
		"gone": services.Wrap(services.ErrDownload, "fetch", "download", "clip gone", errors.New("status 503")),
	}}
	return workflow.NewManager(f.cfg, logging.NewNop(),
		workflow.WithSourceOpener(f.opener),
		workflow.WithOCR(f.ocr),
		workflow.WithResolver(resolver),
		workflow.WithLedger(store),
		workflow.WithRunID("run-1"),
	)
}

func TestParseStages(t *testing.T) {
	all, err := workflow.ParseStages(nil)
	if err != nil || len(all) != 4 || all[0] != workflow.StageExtract || all[3] != workflow.StageAlign {
		t.Fatalf("default stages = %v, %v", all, err)
	}
	got, err := workflow.ParseStages([]string{"align", " Match ", "align"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got) != 2 || got[0] != workflow.StageMatch || got[1] != workflow.StageAlign {
		t.Fatalf("stages = %v", got)
	}
	if _, err := workflow.ParseStages([]string{"encode"}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("unknown stage err = %v", err)
	}
}

func TestTargetsHonorFilters(t *testing.T) {
	f := newFixture(t)
	reg, err := catalog.LoadRegistry(f.cfg.Paths.ClipRegistry)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	targets := workflow.Targets(f.cfg, reg, logging.NewNop())
	if len(targets) != 2 {
		t.Fatalf("targets = %+v", targets)
	}

	f.cfg.Courses.IDs = []string{"ml-1", "not-there"}
	f.cfg.Courses.Semesters = []string{"WS24-25"}
	targets = workflow.Targets(f.cfg, reg, logging.NewNop())
	if len(targets) != 1 || targets[0].Course != "ml-1" || targets[0].Semester != "WS24-25" {
		t.Fatalf("filtered targets = %+v", targets)
	}
	if clips := targets[0].Clips; len(clips) != 3 || clips[0] != "c1" || clips[2] != "broken" {
		t.Fatalf("clips = %v", clips)
	}

	f.cfg.Courses.Semesters = []string{"SS24"}
	if targets := workflow.Targets(f.cfg, reg, logging.NewNop()); len(targets) != 0 {
		t.Fatalf("semester filter ignored: %+v", targets)
	}
}

func TestRunAllStages(t *testing.T) {
	f := newFixture(t)
	store := testsupport.MustOpenLedger(t, f.cfg)
	ctx := context.Background()

	summary, err := f.manager(t, store).Run(ctx, workflow.AllStages())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.RunID != "run-1" {
		t.Fatalf("run id = %q", summary.RunID)
	}

	var ml1 workflow.ExtractionSummary
	for _, sum := range summary.Extraction {
		if sum.Target.Course == "ml-1" {
			ml1 = sum
		}
	}
	if ml1.Completed != 1 || ml1.Abandoned != 2 || ml1.Segments != 2 {
		t.Fatalf("ml-1 extraction = %+v", ml1)
	}

	extracted, err := timeline.Load(timeline.Path(f.cfg.Paths.TimelinesDir, "ml-1", "WS24-25", timeline.KindExtracted))
	if err != nil {
		t.Fatalf("load extracted: %v", err)
	}
	if ids := extracted.ClipIDs(); len(ids) != 1 || ids[0] != "c1" {
		t.Fatalf("abandoned clips must not be stored: %v", ids)
	}
	segs := extracted["c1"].Segments
	if len(segs) != 2 || segs[0].EndTime != 47.3 || segs[1].StartTime != 47.3 || segs[1].EndTime != 120 {
		t.Fatalf("segments = %+v", segs)
	}

	matched, err := timeline.Load(timeline.Path(f.cfg.Paths.TimelinesDir, "ml-1", "WS24-25", timeline.KindMatched))
	if err != nil {
		t.Fatalf("load matched: %v", err)
	}
	msegs := matched["c1"].Segments
	if msegs[0].SectionURI != "uri:s1" || msegs[1].SlideURI != "uri:s2/4" {
		t.Fatalf("matched segments = %+v", msegs)
	}
	if msegs[0].Duration == nil || *msegs[0].Duration != 47.3 || msegs[1].Duration == nil || *msegs[1].Duration != 72.7 {
		t.Fatalf("durations not written back: %+v", msegs)
	}

	var report durations.Report
	testsupport.ReadJSON(t, timeline.Path(f.cfg.Paths.TimelinesDir, "ml-1", "WS24-25", timeline.KindDurations), &report)
	if report.BySection["uri:s2"] == nil || report.BySection["uri:s2"].Duration != 72.7 {
		t.Fatalf("report = %+v", report)
	}

	skippedMatch := false
	for _, skip := range summary.Skipped {
		if skip.Stage == workflow.StageMatch && skip.Course == "ml-2" && services.IsSkippable(skip.Reason) {
			skippedMatch = true
		}
	}
	if !skippedMatch {
		t.Fatalf("ml-2 has no slide catalog and should be skipped: %+v", summary.Skipped)
	}

	if summary.Alignment.Disabled || len(summary.Alignment.Courses) != 1 || summary.Alignment.Courses[0].Matched != 1 {
		t.Fatalf("alignment = %+v", summary.Alignment)
	}
	var calendar map[string][]map[string]any
	testsupport.ReadJSON(t, f.cfg.Paths.CalendarFile, &calendar)
	ad, ok := calendar["ml-1"][0]["autoDetected"].(map[string]any)
	if !ok || ad["clipId"] != "c1" || ad["sectionUri"] != "uri:s2" || ad["slideUri"] != "uri:s2/4" {
		t.Fatalf("calendar entry = %v", calendar["ml-1"][0])
	}
	if calendar["ml-1"][0]["title"] != "Lecture 1" {
		t.Fatalf("unknown field lost: %v", calendar["ml-1"][0])
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("ledger stats: %v", err)
	}
	if stats[ledger.StatusCompleted] != 2 || stats[ledger.StatusAbandoned] != 2 {
		t.Fatalf("ledger stats = %v", stats)
	}
	latest, err := store.Latest(ctx, "ml-1", "WS24-25", "gone")
	if err != nil || latest == nil {
		t.Fatalf("latest = %v, %v", latest, err)
	}
	if latest.Status != ledger.StatusAbandoned || latest.ErrorKind != "download" || latest.RunID != "run-1" {
		t.Fatalf("gone record = %+v", latest)
	}
	broken, err := store.Latest(ctx, "ml-1", "WS24-25", "broken")
	if err != nil || broken == nil || broken.ErrorKind != "decode" {
		t.Fatalf("broken record = %+v, %v", broken, err)
	}
}

func TestRerunSkipsCompletedClips(t *testing.T) {
	f := newFixture(t)
	store := testsupport.MustOpenLedger(t, f.cfg)
	ctx := context.Background()
	stages := []workflow.Stage{workflow.StageExtract}

	if _, err := f.manager(t, store).Run(ctx, stages); err != nil {
		t.Fatalf("first run: %v", err)
	}
	reads := f.videos["c1"].Reads()
	calls := f.ocr.Calls()

	summary, err := f.manager(t, store).Run(ctx, stages)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if f.videos["c1"].Reads() != reads || f.ocr.Calls() != calls {
		t.Fatalf("completed clip was rescanned: reads %d -> %d", reads, f.videos["c1"].Reads())
	}
	skipped := 0
	for _, sum := range summary.Extraction {
		skipped += sum.Skipped
	}
	if skipped != 2 {
		t.Fatalf("skipped = %d, want 2", skipped)
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats[ledger.StatusSkipped] != 2 {
		t.Fatalf("ledger stats = %v", stats)
	}
}

func TestMalformedStoreIsRunFatal(t *testing.T) {
	f := newFixture(t)
	path := timeline.Path(f.cfg.Paths.TimelinesDir, "ml-1", "WS24-25", timeline.KindExtracted)
	testsupport.WriteFile(t, path, []byte("{not json"))

	_, err := f.manager(t, nil).Run(context.Background(), []workflow.Stage{workflow.StageExtract})
	if !errors.Is(err, services.ErrMalformedStore) {
		t.Fatalf("err = %v, want malformed store", err)
	}
}

func TestMissingCalendarIsRunFatal(t *testing.T) {
	f := newFixture(t)
	f.cfg.Paths.CalendarFile = filepath.Join(testsupport.BaseDir(f.cfg), "absent.json")

	_, err := f.manager(t, nil).Run(context.Background(), []workflow.Stage{workflow.StageAlign})
	if !errors.Is(err, services.ErrMalformedStore) {
		t.Fatalf("err = %v, want malformed store", err)
	}
}

func TestAlignDisabledWithoutCalendar(t *testing.T) {
	f := newFixture(t)
	f.cfg.Paths.CalendarFile = ""

	summary, err := f.manager(t, nil).Run(context.Background(), []workflow.Stage{workflow.StageAlign})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !summary.Alignment.Disabled {
		t.Fatalf("alignment = %+v", summary.Alignment)
	}
}

func TestLockedStoreIsSkipped(t *testing.T) {
	f := newFixture(t)
	path := timeline.Path(f.cfg.Paths.TimelinesDir, "ml-1", "WS24-25", timeline.KindExtracted)
	held, err := timeline.Open(path, logging.NewNop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer held.Close()

	summary, err := f.manager(t, nil).Run(context.Background(), []workflow.Stage{workflow.StageExtract})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(summary.Skipped) != 1 || summary.Skipped[0].Course != "ml-1" || !errors.Is(summary.Skipped[0].Reason, timeline.ErrLocked) {
		t.Fatalf("skipped = %+v", summary.Skipped)
	}
	if f.videos["c1"].Reads() != 0 {
		t.Fatal("locked store must not be scanned")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.manager(t, nil).Run(ctx, workflow.AllStages())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want canceled", err)
	}
}

func TestParallelWorkersKeepStoresSeparate(t *testing.T) {
	f := newFixture(t)
	f.cfg.Extraction.Workers = 2

	summary, err := f.manager(t, nil).Run(context.Background(), []workflow.Stage{workflow.StageExtract})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(summary.Extraction) != 2 {
		t.Fatalf("extraction = %+v", summary.Extraction)
	}
	for _, course := range []string{"ml-1", "ml-2"} {
		doc, err := timeline.Load(timeline.Path(f.cfg.Paths.TimelinesDir, course, "WS24-25", timeline.KindExtracted))
		if err != nil {
			t.Fatalf("%s: %v", course, err)
		}
		if len(doc) != 1 {
			t.Fatalf("%s clips = %v", course, fmt.Sprint(doc.ClipIDs()))
		}
	}
}
