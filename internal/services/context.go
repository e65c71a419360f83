package services

import "context"

type contextKey string

const (
	courseKey   contextKey = "course"
	semesterKey contextKey = "semester"
	clipKey     contextKey = "clip_id"
	stageKey    contextKey = "stage"
	runIDKey    contextKey = "run_id"
)

// WithCourse annotates context with the course identifier.
func WithCourse(ctx context.Context, course string) context.Context {
	return withString(ctx, courseKey, course)
}

// CourseFromContext returns the course identifier if present.
func CourseFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, courseKey)
}

// WithSemester annotates context with the semester label.
func WithSemester(ctx context.Context, semester string) context.Context {
	return withString(ctx, semesterKey, semester)
}

// SemesterFromContext returns the semester label if present.
func SemesterFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, semesterKey)
}

// WithClip annotates context with the clip identifier.
func WithClip(ctx context.Context, clipID string) context.Context {
	return withString(ctx, clipKey, clipID)
}

// ClipFromContext returns the clip identifier if present.
func ClipFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, clipKey)
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	return withString(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, stageKey)
}

// WithRunID annotates context with the run correlation identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	return withString(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run correlation identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, runIDKey)
}

func withString(ctx context.Context, key contextKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringValue(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if v, ok := ctx.Value(key).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
