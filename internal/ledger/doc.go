// Package ledger records per-clip pipeline attempts in SQLite.
//
// Each stage run over a clip gets one row keyed by the run ID stamped into the
// logs, so "lecturesync ledger" can show what was completed, skipped or
// abandoned and why. The ledger is a history, not a source of truth: resume
// decisions always come from the timeline stores. Schema changes bump the
// version in schema.go; users delete the database to adopt the new schema.
package ledger
