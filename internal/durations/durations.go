package durations

import (
	"context"
	"log/slog"
	"sort"

	"lecturesync/internal/fileutil"
	"lecturesync/internal/logging"
	"lecturesync/internal/timeline"
)

// SectionTotal is a section's total with a nested per-slide breakdown.
type SectionTotal struct {
	Duration float64            `json:"duration"`
	Slides   map[string]float64 `json:"slides"`
}

// Totals aggregates durations. The zero value is ready to use.
type Totals struct {
	BySlide   map[string]float64       `json:"by_slide"`
	BySection map[string]*SectionTotal `json:"by_section"`
	// Unmatched sums segments without a slide assignment.
	Unmatched float64 `json:"unmatched"`
	Segments  int     `json:"segments"`
}

// Add accumulates one segment duration.
func (t *Totals) Add(slideURI, sectionURI string, duration float64) {
	t.Segments++
	if slideURI == "" && sectionURI == "" {
		t.Unmatched += duration
		return
	}
	if slideURI != "" {
		if t.BySlide == nil {
			t.BySlide = make(map[string]float64)
		}
		t.BySlide[slideURI] += duration
	}
	if sectionURI == "" {
		return
	}
	if t.BySection == nil {
		t.BySection = make(map[string]*SectionTotal)
	}
	sec := t.BySection[sectionURI]
	if sec == nil {
		sec = &SectionTotal{Slides: make(map[string]float64)}
		t.BySection[sectionURI] = sec
	}
	sec.Duration += duration
	if slideURI != "" {
		sec.Slides[slideURI] += duration
	}
}

// Sections returns section URIs ordered by descending total, then URI.
func (t *Totals) Sections() []string {
	uris := make([]string, 0, len(t.BySection))
	for uri := range t.BySection {
		uris = append(uris, uri)
	}
	sort.Slice(uris, func(i, j int) bool {
		a, b := t.BySection[uris[i]].Duration, t.BySection[uris[j]].Duration
		if a != b {
			return a > b
		}
		return uris[i] < uris[j]
	})
	return uris
}

// ApplyTimeline sets every segment's duration and accumulates totals.
func ApplyTimeline(tl *timeline.ClipTimeline, totals *Totals) {
	for i := range tl.Segments {
		seg := &tl.Segments[i]
		if seg.EndTime < seg.StartTime {
			continue
		}
		d := timeline.Round2(seg.EndTime - seg.StartTime)
		seg.Duration = &d
		totals.Add(seg.SlideURI, seg.SectionURI, seg.EndTime-seg.StartTime)
	}
}

// ApplyDocument processes every clip of doc in clip ID order.
func ApplyDocument(doc timeline.Document) Totals {
	var totals Totals
	for _, id := range doc.ClipIDs() {
		tl := doc[id]
		ApplyTimeline(&tl, &totals)
		doc[id] = tl
	}
	return totals
}

// Report is the on-disk durations summary of one (course, semester).
type Report struct {
	Course   string `json:"course"`
	Semester string `json:"semester"`
	Totals
}

// Aggregator runs the duration pass over matched stores.
type Aggregator struct {
	logger *slog.Logger
}

// New builds an aggregator.
func New(logger *slog.Logger) *Aggregator {
	return &Aggregator{logger: logging.NewComponentLogger(logger, "durations")}
}

// Run loads the matched store at path, writes durations back into it, and
// writes the summary report to reportPath. A missing store is reported with
// services.ErrMissingInput.
func (a *Aggregator) Run(ctx context.Context, course, semester, path, reportPath string) (Report, error) {
	doc, err := timeline.Load(path)
	if err != nil {
		return Report{}, err
	}
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	report := Report{Course: course, Semester: semester, Totals: ApplyDocument(doc)}
	if err := timeline.Save(path, doc); err != nil {
		return report, err
	}
	if err := fileutil.WriteJSONAtomic(reportPath, report); err != nil {
		return report, err
	}
	logging.WithContext(ctx, a.logger).Info("durations written",
		logging.String("path", reportPath),
		logging.Int("segments", report.Segments),
		logging.Int("sections", len(report.BySection)),
		logging.Int("slides", len(report.BySlide)),
		logging.Seconds("unmatched_seconds", report.Unmatched),
		logging.String(logging.FieldEventType, "durations_complete"),
	)
	return report, nil
}
