// Package timeline models per-clip slide timelines and persists them.
//
// A ClipTimeline is the ordered, non-overlapping sequence of Segments found
// in one lecture clip. Timelines are stored per (course, semester) in a single
// JSON document keyed by clip ID. Store owns one such document for writing:
// it holds an advisory file lock for its lifetime, merges segments by start
// time, and rewrites the whole document atomically after every merge.
//
// Older documents that keyed segments by stringified start time under an
// "extracted_content" object are still readable; writes always use the
// ordered-sequence form.
package timeline
