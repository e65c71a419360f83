package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"lecturesync/internal/extract"
	"lecturesync/internal/fetch"
	"lecturesync/internal/ledger"
	"lecturesync/internal/logging"
	"lecturesync/internal/services"
	"lecturesync/internal/timeline"
)

// stalePartialAge is how long an unfinished download may sit before it is
// discarded instead of resumed.
const stalePartialAge = 24 * time.Hour

// ExtractionSummary counts clip outcomes for one target.
type ExtractionSummary struct {
	Target    Target
	Completed int
	Skipped   int
	Abandoned int
	Segments  int
}

// Extract scans every clip of every target. Targets run in parallel up to
// extraction.workers; each owns its timeline store exclusively.
func (m *Manager) Extract(ctx context.Context, targets []Target) ([]ExtractionSummary, []Skip, error) {
	if m.cfg.Download.Enabled {
		fetch.CleanStalePartials(m.cfg.Paths.VideosDir, stalePartialAge, time.Now(), m.logger)
	}
	workers := m.cfg.Extraction.Workers
	if workers < 1 {
		workers = 1
	}
	var (
		mu        sync.Mutex
		summaries = make([]ExtractionSummary, 0, len(targets))
		skips     []Skip
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for _, target := range targets {
		if len(target.Clips) == 0 {
			continue
		}
		group.Go(func() error {
			sum, skip, err := m.extractTarget(groupCtx, target)
			mu.Lock()
			defer mu.Unlock()
			summaries = append(summaries, sum)
			if skip != nil {
				skips = append(skips, *skip)
			}
			return err
		})
	}
	err := group.Wait()
	return summaries, skips, err
}

func (m *Manager) extractTarget(ctx context.Context, target Target) (ExtractionSummary, *Skip, error) {
	ctx = services.WithSemester(services.WithCourse(ctx, target.Course), target.Semester)
	logger := logging.WithContext(ctx, m.logger)
	sum := ExtractionSummary{Target: target}

	path := timeline.Path(m.cfg.Paths.TimelinesDir, target.Course, target.Semester, timeline.KindExtracted)
	store, err := timeline.Open(path, m.logger)
	if err != nil {
		if errors.Is(err, timeline.ErrLocked) {
			logging.WarnWithContext(logger, "timeline store held by another run", "store_locked",
				logging.String("path", path),
				logging.String(logging.FieldErrorHint, "wait for the other run to finish"),
				logging.String(logging.FieldImpact, "course/semester skipped for this run"),
			)
			return sum, &Skip{Stage: StageExtract, Course: target.Course, Semester: target.Semester, Reason: err}, nil
		}
		return sum, nil, err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Warn("timeline store close failed", logging.Error(cerr))
		}
	}()

	extractor := extract.New(extract.OptionsFromConfig(m.cfg), m.engine, m.logger)
	for _, clipID := range target.Clips {
		if err := ctx.Err(); err != nil {
			return sum, nil, err
		}
		result, err := m.extractClip(ctx, store, extractor, target, clipID)
		switch {
		case err == nil && result.Skipped:
			sum.Skipped++
			sum.Segments += result.Segments
		case err == nil:
			sum.Completed++
			sum.Segments += result.Segments
		case abandonsClip(err):
			sum.Abandoned++
			m.logClipAbandoned(services.WithClip(ctx, clipID), err)
		default:
			return sum, nil, err
		}
	}
	logger.Info("extraction finished",
		logging.Int("completed", sum.Completed),
		logging.Int("skipped", sum.Skipped),
		logging.Int("abandoned", sum.Abandoned),
		logging.Int("segments", sum.Segments),
		logging.String(logging.FieldEventType, "target_extracted"),
	)
	return sum, nil, nil
}

func (m *Manager) extractClip(ctx context.Context, store *timeline.Store, extractor *extract.Extractor, target Target, clipID string) (result extract.Result, err error) {
	ctx = services.WithClip(ctx, clipID)
	recordID := m.beginAttempt(ctx, target, clipID)
	defer func() { m.finishAttempt(ctx, recordID, result, err) }()

	path, err := m.resolver.Resolve(ctx, clipID)
	if err != nil {
		return result, err
	}
	source, err := m.opener(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if !services.IsClipAbandon(err) {
			err = services.Wrap(services.ErrDecode, "extract", "open video", fmt.Sprintf("clip %s", clipID), err)
		}
		return result, err
	}
	defer func() { _ = source.Close() }()
	return extractor.Process(ctx, store, clipID, source)
}

// abandonsClip reports whether err leaves the clip for a future run while
// the batch continues. OCR failures count because they are per-clip.
func abandonsClip(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return services.IsClipAbandon(err) || errors.Is(err, services.ErrExternalTool)
}

func (m *Manager) beginAttempt(ctx context.Context, target Target, clipID string) int64 {
	if m.ledger == nil {
		return 0
	}
	id, err := m.ledger.Begin(ctx, m.runID, target.Course, target.Semester, clipID, string(StageExtract))
	if err != nil {
		logging.WithContext(ctx, m.logger).Warn("ledger begin failed", logging.Error(err))
		return 0
	}
	return id
}

func (m *Manager) finishAttempt(ctx context.Context, id int64, result extract.Result, err error) {
	if m.ledger == nil || id == 0 {
		return
	}
	outcome := ledger.Outcome{Segments: result.Segments, Duration: result.Duration, Err: err}
	switch {
	case err == nil && result.Skipped:
		outcome.Status = ledger.StatusSkipped
	case err == nil:
		outcome.Status = ledger.StatusCompleted
	case abandonsClip(err):
		outcome.Status = ledger.StatusAbandoned
	default:
		outcome.Status = ledger.StatusFailed
	}
	if ferr := m.ledger.Finish(context.WithoutCancel(ctx), id, outcome); ferr != nil {
		logging.WithContext(ctx, m.logger).Warn("ledger finish failed", logging.Error(ferr))
	}
}
