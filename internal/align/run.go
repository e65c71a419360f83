package align

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"lecturesync/internal/catalog"
	"lecturesync/internal/logging"
	"lecturesync/internal/services"
	"lecturesync/internal/timeline"
)

// Result is the outcome for one calendar entry.
type Result struct {
	Course      string
	Index       int
	TimestampMS int64
	Decision    Decision
	Annotation  AutoDetected
}

// Stats summarizes one course.
type Stats struct {
	Course  string
	Entries int
	Matched int
	Invalid int
	Results []Result
}

// Aligner annotates calendar entries.
type Aligner struct {
	opts   Options
	logger *slog.Logger
}

// New builds an aligner.
func New(opts Options, logger *slog.Logger) *Aligner {
	if opts.TieBreak == "" {
		opts.TieBreak = TieBreakNearest
	}
	return &Aligner{opts: opts, logger: logging.NewComponentLogger(logger, "align")}
}

// LoadTimelines collects the matched timelines of every semester of course
// from dir. Semesters without a matched store are logged and skipped. When a
// clip appears in several semesters the later semester wins.
func LoadTimelines(ctx context.Context, dir string, course catalog.Course, logger *slog.Logger) (map[string]timeline.ClipTimeline, error) {
	out := make(map[string]timeline.ClipTimeline)
	for _, sem := range course.Semesters {
		path := timeline.Path(dir, course.ID, sem.Label, timeline.KindMatched)
		doc, err := timeline.Load(path)
		if err != nil {
			if services.IsSkippable(err) {
				logger.Info("matched timeline missing; semester skipped",
					logging.String(logging.FieldCourse, course.ID),
					logging.String(logging.FieldSemester, sem.Label),
					logging.String("path", path),
					logging.String(logging.FieldEventType, "alignment_semester_skipped"),
				)
				continue
			}
			return nil, err
		}
		for id, tl := range doc {
			out[id] = tl
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// AlignCourse annotates entries in place using the course's recordings and
// available timelines.
func (a *Aligner) AlignCourse(ctx context.Context, course string, entries []*Entry, recs []catalog.Recording, timelines map[string]timeline.ClipTimeline) (Stats, error) {
	ctx = services.WithCourse(ctx, course)
	logger := logging.WithContext(ctx, a.logger)
	pairs := a.opts.Candidates(course, recs)
	// Only finalized timelines qualify. A clip abandoned mid-scan keeps its
	// partial segments on disk and would report a truncated position.
	available := func(clipID string) bool {
		tl, ok := timelines[clipID]
		return ok && tl.Complete(tl.Duration)
	}

	stats := Stats{Course: course, Entries: len(entries)}
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if entry == nil {
			stats.Invalid++
			continue
		}
		eventMS, err := entry.TimestampMS()
		if err != nil {
			stats.Invalid++
			logging.WarnWithContext(logger, "calendar entry skipped", "alignment_entry_invalid",
				logging.Int("index", i),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "timestamp_ms must be a number"),
				logging.String(logging.FieldImpact, "entry keeps its previous annotation"),
			)
			continue
		}

		decision := a.opts.Select(eventMS, pairs, available)
		result := Result{Course: course, Index: i, TimestampMS: eventMS, Decision: decision}
		if !decision.Matched {
			a.logNoMatch(logger, i, eventMS, decision.Nearest)
			stats.Results = append(stats.Results, result)
			continue
		}

		tl := timelines[decision.ClipID]
		if tl.ClipID == "" {
			tl.ClipID = decision.ClipID
		}
		ad, found := LastPosition(tl, a.opts.SectionCompletion)
		if err := entry.SetAutoDetected(ad); err != nil {
			return stats, err
		}
		result.Annotation = ad
		stats.Matched++
		stats.Results = append(stats.Results, result)
		logger.Debug("calendar entry aligned",
			logging.Int("index", i),
			logging.String(logging.FieldClipID, decision.ClipID),
			logging.Float64("delta_hours", Nearest{Diff: decision.Diff}.Hours()),
			logging.Bool("section_found", found),
		)
	}
	logger.Info("course aligned",
		logging.Int("entries", stats.Entries),
		logging.Int("matched", stats.Matched),
		logging.Int("invalid", stats.Invalid),
		logging.Int("candidates", len(pairs)),
		logging.String(logging.FieldEventType, "alignment_complete"),
	)
	return stats, nil
}

func (a *Aligner) logNoMatch(logger *slog.Logger, index int, eventMS int64, nearest Nearest) {
	attrs := []logging.Attr{
		logging.Int("index", index),
		logging.Int64("timestamp_ms", eventMS),
		logging.String(logging.FieldEventType, "alignment_no_match"),
	}
	if nearest.Found {
		attrs = append(attrs,
			logging.String("nearest_clip", nearest.ClipID),
			logging.Float64("delta_hours", timeline.Round2(nearest.Hours())),
			logging.String("direction", nearest.Direction()),
		)
	}
	logger.Info("no clip within window", logging.Args(attrs...)...)
}

// Run aligns every course of courses present in both the table and the
// registry, reading matched timelines from timelinesDir, and saves the
// table. Courses absent from the registry are skipped.
func (a *Aligner) Run(ctx context.Context, file *TableFile, reg *catalog.Registry, timelinesDir string, courses []string) ([]Stats, error) {
	if file == nil || file.Table == nil {
		return nil, errors.New("calendar table not loaded")
	}
	var all []Stats
	for _, ce := range file.Table.Courses {
		if len(courses) > 0 && !slices.Contains(courses, ce.Course) {
			continue
		}
		course, ok := reg.Course(ce.Course)
		if !ok {
			a.logger.Info("course not in clip registry; skipped",
				logging.String(logging.FieldCourse, ce.Course),
				logging.String(logging.FieldEventType, "alignment_course_skipped"),
			)
			continue
		}
		timelines, err := LoadTimelines(ctx, timelinesDir, course, a.logger)
		if err != nil {
			return all, err
		}
		stats, err := a.AlignCourse(ctx, ce.Course, ce.Entries, course.Recordings(a.logger), timelines)
		if err != nil {
			return all, err
		}
		all = append(all, stats)
	}
	if err := file.Save(); err != nil {
		return all, err
	}
	return all, nil
}
