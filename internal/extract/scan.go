package extract

import (
	"context"
	"fmt"
	"log/slog"

	"lecturesync/internal/detect"
	"lecturesync/internal/logging"
	"lecturesync/internal/media/frames"
	"lecturesync/internal/segment"
	"lecturesync/internal/services"
	"lecturesync/internal/timeline"
)

// scan is the per-clip state of one Process call.
type scan struct {
	e        *Extractor
	store    *timeline.Store
	source   frames.Source
	clipID   string
	duration float64
	logger   *slog.Logger

	detector detect.Detector
	refiner  detect.Refiner
	merger   *segment.Merger
	progress *logging.ProgressSampler

	last      *frames.Frame
	lastText  string
	lastKnown bool

	samples int
	changes int
	seeks   int
}

func newScan(e *Extractor, store *timeline.Store, source frames.Source, clipID string, duration float64, logger *slog.Logger) *scan {
	info := source.Info()
	threshold := frames.ScaledThreshold(e.opts.DiffThreshold, info.Width, info.Height, e.opts.ReferenceWidth, e.opts.ReferenceHeight)
	detector := detect.NewDetector(threshold, e.opts.WatermarkFraction)
	return &scan{
		e:        e,
		store:    store,
		source:   source,
		clipID:   clipID,
		duration: duration,
		logger:   logger,
		detector: detector,
		refiner:  detect.NewRefiner(source, detector, info.FPS),
		merger:   segment.NewMerger(e.opts.ExtensionSimilarity, e.similarity),
		progress: logging.NewProgressSampler(10),
	}
}

func (s *scan) run(ctx context.Context) error {
	interval := s.e.opts.SampleInterval
	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		at := float64(i) * interval
		raw, ok, err := s.source.FrameAt(ctx, at)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return services.Wrap(services.ErrDecode, "extract", "read frame", fmt.Sprintf("clip %s at %.2fs", s.clipID, at), err)
		}
		if !ok {
			if i == 0 {
				return services.Wrap(services.ErrDecode, "extract", "read frame", "clip "+s.clipID, frames.ErrNoFrames)
			}
			return nil
		}
		s.samples++
		if err := s.observe(ctx, at, interval, raw); err != nil {
			return err
		}

		if pct := 100 * at / s.duration; s.progress.ShouldLog(s.clipID, pct) {
			s.logger.Debug("scan progress",
				logging.Seconds("position", at),
				logging.Float64("percent", timeline.Round2(pct)),
				logging.Int("changes", s.changes),
			)
		}
		if err := services.SleepWithContext(ctx, s.e.opts.FrameSleep); err != nil {
			return err
		}
	}
}

func (s *scan) observe(ctx context.Context, at, interval float64, raw frames.Frame) error {
	cur := s.detector.Prepare(raw).Clone()
	if !s.detector.Changed(s.last, cur) {
		return nil
	}
	s.changes++

	boundary, err := s.refiner.Refine(ctx, max(0, at-interval), at, s.last, cur)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(services.ErrDecode, "extract", "refine", fmt.Sprintf("clip %s near %.2fs", s.clipID, at), err)
	}
	s.seeks += boundary.Seeks

	lastText, err := s.lastStableText(ctx)
	if err != nil {
		return err
	}
	text, err := s.recognize(ctx, boundary.Frame)
	if err != nil {
		return err
	}

	s.last = &cur
	s.lastKnown = false

	touched := s.merger.Observe(boundary.Instant, lastText, text)
	if len(touched) == 0 {
		s.logger.Debug("empty text at change; no transition", logging.Seconds("instant", boundary.Instant))
		return nil
	}
	s.logger.Debug("slide change",
		logging.Seconds("instant", boundary.Instant),
		logging.Int("touched", len(touched)),
		logging.Int("seeks", boundary.Seeks),
	)
	return s.store.Merge(s.clipID, s.duration, touched...)
}

// lastStableText reads the text of the last stable frame, once per frame.
func (s *scan) lastStableText(ctx context.Context) (string, error) {
	if s.last == nil {
		return "", nil
	}
	if !s.lastKnown {
		text, err := s.recognize(ctx, *s.last)
		if err != nil {
			return "", err
		}
		s.lastText = text
		s.lastKnown = true
	}
	return s.lastText, nil
}

func (s *scan) recognize(ctx context.Context, frame frames.Frame) (string, error) {
	text, err := s.e.engine.Recognize(ctx, frame)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", services.Wrap(services.ErrExternalTool, "extract", "ocr", "clip "+s.clipID, err)
	}
	return text, nil
}
