package logging

import "strings"

// FormatSubject builds the course/semester/clip/stage subject string used in
// console output, e.g. "ai-1 WS24-25 · clip 54629 (extract)".
func FormatSubject(course, semester, clipID, stage string) string {
	course = strings.TrimSpace(course)
	semester = strings.TrimSpace(semester)
	clipID = strings.TrimSpace(clipID)
	stage = strings.TrimSpace(stage)

	parts := make([]string, 0, 2)
	if scope := strings.TrimSpace(course + " " + semester); scope != "" {
		parts = append(parts, scope)
	}
	switch {
	case clipID != "" && stage != "":
		parts = append(parts, "clip "+clipID+" ("+stage+")")
	case clipID != "":
		parts = append(parts, "clip "+clipID)
	case stage != "":
		parts = append(parts, stage)
	}
	return strings.Join(parts, " · ")
}
