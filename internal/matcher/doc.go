// Package matcher assigns course sections and slides to extracted segments by
// fuzzy-matching segment text against a course's slide catalog.
//
// Both sides are normalized with textutil.CleanText. Segments whose cleaned
// text is shorter than MinTextLength characters are too noisy to match and
// keep blank catalog fields. Every other segment is scored against every
// catalog record; the first record reaching the best score wins, so the
// result depends on catalog file order when scores tie. A best score that
// does not strictly exceed ScoreThreshold clears the segment's catalog
// fields.
package matcher
