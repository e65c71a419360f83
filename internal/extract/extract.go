package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lecturesync/internal/config"
	"lecturesync/internal/logging"
	"lecturesync/internal/media/frames"
	"lecturesync/internal/ocr"
	"lecturesync/internal/segment"
	"lecturesync/internal/services"
	"lecturesync/internal/textutil"
	"lecturesync/internal/timeline"
)

// Options holds the scan parameters.
type Options struct {
	SampleInterval      float64
	DiffThreshold       float64
	ReferenceWidth      int
	ReferenceHeight     int
	WatermarkFraction   float64
	ExtensionSimilarity float64
	FrameSleep          time.Duration
}

// OptionsFromConfig maps the [extraction] config section.
func OptionsFromConfig(cfg *config.Config) Options {
	ex := cfg.Extraction
	return Options{
		SampleInterval:      ex.SampleIntervalSeconds,
		DiffThreshold:       ex.DiffThreshold,
		ReferenceWidth:      ex.ReferenceWidth,
		ReferenceHeight:     ex.ReferenceHeight,
		WatermarkFraction:   ex.WatermarkFraction,
		ExtensionSimilarity: ex.ExtensionSimilarity,
		FrameSleep:          cfg.FrameSleep(),
	}
}

// Result summarizes one clip scan.
type Result struct {
	ClipID   string
	Skipped  bool
	Samples  int
	Changes  int
	Seeks    int
	Segments int
	Duration float64
}

// Extractor scans clips.
type Extractor struct {
	opts       Options
	engine     ocr.Engine
	similarity segment.Similarity
	logger     *slog.Logger
}

// New builds an extractor. Extension decisions use textutil.PartialRatio.
func New(opts Options, engine ocr.Engine, logger *slog.Logger) *Extractor {
	return &Extractor{
		opts:       opts,
		engine:     engine,
		similarity: textutil.PartialRatio,
		logger:     logging.NewComponentLogger(logger, "extract"),
	}
}

// Process scans source and writes the clip's timeline into store.
func (e *Extractor) Process(ctx context.Context, store *timeline.Store, clipID string, source frames.Source) (Result, error) {
	ctx = services.WithClip(ctx, clipID)
	logger := logging.WithContext(ctx, e.logger)
	result := Result{ClipID: clipID}

	info := source.Info()
	duration := info.Duration()
	if info.FPS <= 0 || duration <= 0 {
		return result, services.Wrap(services.ErrDecode, "extract", "probe", fmt.Sprintf("clip %s has no usable frame rate or length", clipID), nil)
	}
	result.Duration = duration

	if store.IsComplete(clipID, duration) {
		logger.Info("clip already processed",
			logging.Seconds("duration", duration),
			logging.String(logging.FieldEventType, "clip_skipped"),
		)
		result.Skipped = true
		if tl, ok := store.Timeline(clipID); ok {
			result.Segments = len(tl.Segments)
		}
		return result, nil
	}
	if err := store.Reset(clipID, duration); err != nil {
		return result, err
	}

	s := newScan(e, store, source, clipID, duration, logger)
	if err := s.run(ctx); err != nil {
		return result, err
	}
	result.Samples = s.samples
	result.Changes = s.changes
	result.Seeks = s.seeks

	final, ok := s.merger.Finalize(duration)
	if !ok {
		logging.WarnWithContext(logger, "no text found in clip", "clip_no_text",
			logging.Seconds("duration", duration),
			logging.String(logging.FieldErrorHint, "check that the video shows slides and tesseract_lang matches"),
			logging.String(logging.FieldImpact, "clip has an empty timeline and will be rescanned next run"),
		)
		return result, nil
	}
	if err := store.Merge(clipID, duration, final); err != nil {
		return result, err
	}
	result.Segments = len(s.merger.Segments())
	logger.Info("clip timeline finalized",
		logging.Int("segments", result.Segments),
		logging.Int("changes", result.Changes),
		logging.Int("seeks", result.Seeks),
		logging.Seconds("duration", duration),
		logging.String(logging.FieldEventType, "clip_finalized"),
	)
	return result, nil
}
