// Package logging assembles structured slog loggers and formatting helpers used
// across lecturesync.
//
// It owns the console/JSON handlers, tees output into a daily JSON log file,
// and exposes context-aware helpers so stage code can automatically tag log
// lines with course, semester, clip, stage, and run identifiers. The package
// also provides a no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// data with the same shape as the rest of the pipeline.
package logging
