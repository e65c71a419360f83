package workflow

import (
	"context"
	"errors"

	"lecturesync/internal/logging"
	"lecturesync/internal/services"
)

func (m *Manager) skipTarget(ctx context.Context, stage Stage, target Target, reason error) Skip {
	logging.WarnWithContext(logging.WithContext(ctx, m.logger), "input missing; course/semester skipped", "target_skipped",
		logging.String("skipped_stage", string(stage)),
		logging.ErrorKind(reason),
		logging.Error(reason),
		logging.String(logging.FieldErrorHint, skipHint(stage)),
		logging.String(logging.FieldImpact, "other courses continue"),
	)
	return Skip{Stage: stage, Course: target.Course, Semester: target.Semester, Reason: reason}
}

func skipHint(stage Stage) string {
	switch stage {
	case StageMatch:
		return "check catalog_dir for {course}_slides.json and run extract first"
	case StageDurations:
		return "run match first"
	default:
		return "check the input files for this course"
	}
}

func (m *Manager) logClipAbandoned(ctx context.Context, err error) {
	logging.WarnWithContext(logging.WithContext(ctx, m.logger), "clip abandoned for this run", "clip_abandoned",
		logging.ErrorKind(err),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, abandonHint(err)),
		logging.String(logging.FieldImpact, "clip is retried on the next run"),
	)
}

func abandonHint(err error) string {
	switch {
	case errors.Is(err, services.ErrDownload):
		return "check download.url_template and network access, or place the video in videos_dir"
	case errors.Is(err, services.ErrIntegrity):
		return "the cached video was truncated; it has been removed and will be fetched again"
	case errors.Is(err, services.ErrDecode):
		return "check that ffmpeg can decode the video"
	case errors.Is(err, services.ErrExternalTool):
		return "check the tesseract installation and tesseract_lang"
	default:
		return ""
	}
}

func (m *Manager) logStageFailure(ctx context.Context, stage Stage, err error) {
	if errors.Is(err, context.Canceled) {
		logging.WithContext(ctx, m.logger).Info("stage interrupted",
			logging.String(logging.FieldEventType, "stage_interrupted"),
		)
		return
	}
	logging.ErrorWithContext(logging.WithContext(ctx, m.logger), "stage failed", "stage_failure",
		logging.Alert("stage_failure"),
		logging.String("failed_stage", string(stage)),
		logging.ErrorKind(err),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, failureHint(err)),
	)
}

func failureHint(err error) string {
	switch {
	case errors.Is(err, services.ErrMalformedStore):
		return "repair or remove the named file; the run cannot continue without it"
	case errors.Is(err, services.ErrConfiguration):
		return "fix the configuration and rerun"
	default:
		return "rerun; completed clips are not reprocessed"
	}
}
