package logging

import (
	"context"
	"log/slog"

	"lecturesync/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldCourse is the standardized key for course identifiers (e.g. ai-1).
	FieldCourse = "course"
	// FieldSemester is the standardized key for semester labels (e.g. WS24-25).
	FieldSemester = "semester"
	// FieldClipID is the standardized key for lecture clip identifiers.
	FieldClipID = "clip_id"
	// FieldStage is the standardized key for pipeline stage names.
	FieldStage = "stage"
	// FieldRunID is the standardized key for run correlation identifiers.
	FieldRunID = "run_id"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint carries the suggested next step for warnings and errors.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldErrorKind carries the services error classification.
	FieldErrorKind = "error_kind"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 5)
	if v, ok := services.CourseFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCourse, v))
	}
	if v, ok := services.SemesterFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSemester, v))
	}
	if v, ok := services.ClipFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldClipID, v))
	}
	if v, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, v))
	}
	if v, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, v))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
