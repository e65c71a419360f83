package workflow

import (
	"context"
	"errors"
	"strings"

	"lecturesync/internal/align"
	"lecturesync/internal/catalog"
	"lecturesync/internal/durations"
	"lecturesync/internal/logging"
	"lecturesync/internal/matcher"
	"lecturesync/internal/services"
	"lecturesync/internal/timeline"
)

// MatchSummary holds matcher counts for one target.
type MatchSummary struct {
	Target Target
	Stats  matcher.Stats
}

// DurationsSummary holds the durations report for one target.
type DurationsSummary struct {
	Target Target
	Report durations.Report
}

// AlignmentSummary holds per-course alignment results. Disabled is set when
// no calendar file is configured.
type AlignmentSummary struct {
	Disabled bool
	Courses  []align.Stats
}

// Match annotates each target's extracted store with slide-catalog fields and
// writes the matched store. Targets without a catalog or extracted store are
// skipped.
func (m *Manager) Match(ctx context.Context, targets []Target) ([]MatchSummary, []Skip, error) {
	var (
		out      []MatchSummary
		skips    []Skip
		matchers = map[string]*matcher.Matcher{}
		missing  = map[string]error{}
	)
	opts := matcher.OptionsFromConfig(m.cfg)
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return out, skips, err
		}
		tctx := services.WithSemester(services.WithCourse(ctx, target.Course), target.Semester)

		mt, ok := matchers[target.Course]
		if !ok && missing[target.Course] == nil {
			slides, err := catalog.LoadSlides(catalog.SlidesPath(m.cfg.Paths.CatalogDir, target.Course))
			if err != nil {
				if !services.IsSkippable(err) {
					return out, skips, err
				}
				missing[target.Course] = err
			} else {
				mt = matcher.New(opts, slides, m.logger)
				matchers[target.Course] = mt
			}
		}
		if mt == nil {
			skips = append(skips, m.skipTarget(tctx, StageMatch, target, missing[target.Course]))
			continue
		}

		src := timeline.Path(m.cfg.Paths.TimelinesDir, target.Course, target.Semester, timeline.KindExtracted)
		dst := timeline.Path(m.cfg.Paths.TimelinesDir, target.Course, target.Semester, timeline.KindMatched)
		stats, err := mt.MatchFile(tctx, src, dst)
		if err != nil {
			if services.IsSkippable(err) {
				skips = append(skips, m.skipTarget(tctx, StageMatch, target, err))
				continue
			}
			return out, skips, err
		}
		out = append(out, MatchSummary{Target: target, Stats: stats})
	}
	return out, skips, nil
}

// Durations writes per-segment durations into each matched store and the
// per-target durations report.
func (m *Manager) Durations(ctx context.Context, targets []Target) ([]DurationsSummary, []Skip, error) {
	var (
		out   []DurationsSummary
		skips []Skip
	)
	aggregator := durations.New(m.logger)
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return out, skips, err
		}
		tctx := services.WithSemester(services.WithCourse(ctx, target.Course), target.Semester)
		path := timeline.Path(m.cfg.Paths.TimelinesDir, target.Course, target.Semester, timeline.KindMatched)
		reportPath := timeline.Path(m.cfg.Paths.TimelinesDir, target.Course, target.Semester, timeline.KindDurations)
		report, err := aggregator.Run(tctx, target.Course, target.Semester, path, reportPath)
		if err != nil {
			if services.IsSkippable(err) {
				skips = append(skips, m.skipTarget(tctx, StageDurations, target, err))
				continue
			}
			return out, skips, err
		}
		out = append(out, DurationsSummary{Target: target, Report: report})
	}
	return out, skips, nil
}

// Align annotates the calendar table from the matched timelines. A missing
// or malformed table is run-fatal; a table held by another run is skipped.
func (m *Manager) Align(ctx context.Context, reg *catalog.Registry) (AlignmentSummary, error) {
	logger := logging.WithContext(ctx, m.logger)
	path := strings.TrimSpace(m.cfg.Paths.CalendarFile)
	if path == "" {
		logger.Info("no calendar file configured; alignment disabled",
			logging.String(logging.FieldEventType, "alignment_disabled"),
		)
		return AlignmentSummary{Disabled: true}, nil
	}
	file, err := align.OpenTable(path)
	if err != nil {
		if errors.Is(err, align.ErrTableLocked) {
			logging.WarnWithContext(logger, "calendar table held by another run", "calendar_locked",
				logging.String("path", path),
				logging.String(logging.FieldErrorHint, "wait for the other run to finish"),
				logging.String(logging.FieldImpact, "calendar not updated by this run"),
			)
			return AlignmentSummary{}, nil
		}
		return AlignmentSummary{}, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			logger.Warn("calendar table close failed", logging.Error(cerr))
		}
	}()
	stats, err := align.New(align.OptionsFromConfig(m.cfg), m.logger).Run(ctx, file, reg, m.cfg.Paths.TimelinesDir, m.cfg.Courses.IDs)
	return AlignmentSummary{Courses: stats}, err
}
