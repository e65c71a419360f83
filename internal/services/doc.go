// Package services defines shared utilities consumed by the pipeline stages and
// their external collaborators.
//
// Key responsibilities:
//   - Context helpers that stamp course, semester, clip, stage, and run
//     identifiers for logging and ledger correlation.
//   - Structured error markers plus the Wrap helper that classify failures
//     into the pipeline's handling policy: abandon a clip, skip a
//     course/semester, treat as non-fatal diagnostics, or stop the run.
//
// Use these helpers when wiring new stage logic so operational behaviour (error
// handling, observability, retries) stays uniform across the pipeline.
package services
