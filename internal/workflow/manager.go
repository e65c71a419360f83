package workflow

import (
	"context"
	"log/slog"
	"time"

	"lecturesync/internal/catalog"
	"lecturesync/internal/config"
	"lecturesync/internal/fetch"
	"lecturesync/internal/ledger"
	"lecturesync/internal/logging"
	"lecturesync/internal/media/frames"
	"lecturesync/internal/ocr"
	"lecturesync/internal/services"
)

// SourceOpener opens a decodable frame source for a local video file.
type SourceOpener func(ctx context.Context, path string) (frames.Source, error)

// Resolver turns a clip ID into a local, verified video path.
type Resolver interface {
	Resolve(ctx context.Context, clipID string) (string, error)
}

// Manager runs pipeline stages over the configured targets.
type Manager struct {
	cfg      *config.Config
	logger   *slog.Logger
	runID    string
	opener   SourceOpener
	engine   ocr.Engine
	resolver Resolver
	ledger   *ledger.Store
}

// Option configures optional Manager behavior.
type Option func(*Manager)

// WithSourceOpener replaces the ffmpeg-backed frame source.
func WithSourceOpener(opener SourceOpener) Option {
	return func(m *Manager) {
		if opener != nil {
			m.opener = opener
		}
	}
}

// WithOCR replaces the tesseract engine.
func WithOCR(engine ocr.Engine) Option {
	return func(m *Manager) {
		if engine != nil {
			m.engine = engine
		}
	}
}

// WithResolver replaces the video fetcher.
func WithResolver(resolver Resolver) Option {
	return func(m *Manager) {
		if resolver != nil {
			m.resolver = resolver
		}
	}
}

// WithLedger records every clip attempt in store.
func WithLedger(store *ledger.Store) Option {
	return func(m *Manager) {
		m.ledger = store
	}
}

// WithRunID sets the correlation ID stamped on logs and ledger rows.
func WithRunID(id string) Option {
	return func(m *Manager) {
		if id != "" {
			m.runID = id
		}
	}
}

// NewManager constructs a manager wired to ffmpeg, tesseract, and the
// download fetcher unless options replace them.
func NewManager(cfg *config.Config, logger *slog.Logger, opts ...Option) *Manager {
	logger = logging.NewComponentLogger(logger, "workflow")
	m := &Manager{
		cfg:    cfg,
		logger: logger,
		runID:  ledger.NewRunID(),
		engine: ocr.NewTesseract(cfg.Tools.Tesseract, cfg.Tools.TesseractLang),
		opener: func(ctx context.Context, path string) (frames.Source, error) {
			src, err := frames.OpenFFmpeg(ctx, cfg.Tools.FFmpeg, cfg.Tools.FFprobe, path)
			if err != nil {
				return nil, err
			}
			return src, nil
		},
		resolver: fetch.New(fetch.OptionsFromConfig(cfg), fetch.FFprobe{Binary: cfg.Tools.FFprobe}, logger),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RunID returns the run correlation ID.
func (m *Manager) RunID() string {
	return m.runID
}

// Summary collects per-stage outcomes of one Run.
type Summary struct {
	RunID      string
	Extraction []ExtractionSummary
	Matching   []MatchSummary
	Durations  []DurationsSummary
	Alignment  AlignmentSummary
	Skipped    []Skip
}

// Skip records a (course, semester) pair a stage passed over.
type Skip struct {
	Stage    Stage
	Course   string
	Semester string
	Reason   error
}

// Run loads the clip registry and executes stages in order. The first
// run-fatal error stops the run; the summary holds everything finished
// before it.
func (m *Manager) Run(ctx context.Context, stages []Stage) (Summary, error) {
	ctx = services.WithRunID(ctx, m.runID)
	summary := Summary{RunID: m.runID}

	reg, err := catalog.LoadRegistry(m.cfg.Paths.ClipRegistry)
	if err != nil {
		return summary, err
	}
	targets := Targets(m.cfg, reg, logging.WithContext(ctx, m.logger))

	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		stageCtx := services.WithStage(ctx, string(stage))
		logger := logging.WithContext(stageCtx, m.logger)
		start := time.Now()
		logger.Info("stage started",
			logging.Int("targets", len(targets)),
			logging.String(logging.FieldEventType, "stage_start"),
		)

		var skips []Skip
		switch stage {
		case StageExtract:
			summary.Extraction, skips, err = m.Extract(stageCtx, targets)
		case StageMatch:
			summary.Matching, skips, err = m.Match(stageCtx, targets)
		case StageDurations:
			summary.Durations, skips, err = m.Durations(stageCtx, targets)
		case StageAlign:
			summary.Alignment, err = m.Align(stageCtx, reg)
		}
		summary.Skipped = append(summary.Skipped, skips...)
		if err != nil {
			m.logStageFailure(stageCtx, stage, err)
			return summary, err
		}
		logger.Info("stage completed",
			logging.Duration("stage_duration", time.Since(start)),
			logging.Int("skipped", len(skips)),
			logging.String(logging.FieldEventType, "stage_complete"),
		)
	}
	return summary, nil
}
