package timeline

import (
	"path/filepath"

	"lecturesync/internal/textutil"
)

// Kind names one of the per-(course, semester) documents.
type Kind string

const (
	// KindExtracted is the raw store written during extraction.
	KindExtracted Kind = "extracted_content"
	// KindMatched is the store enriched with slide-catalog fields and durations.
	KindMatched Kind = "matched_content"
	// KindDurations is the aggregated durations report.
	KindDurations Kind = "durations"
)

// Path returns {dir}/{course}_{semester}_{kind}.json.
func Path(dir, course, semester string, kind Kind) string {
	name := textutil.SanitizeFileName(course) + "_" + textutil.SanitizeFileName(semester) + "_" + string(kind) + ".json"
	return filepath.Join(dir, name)
}
