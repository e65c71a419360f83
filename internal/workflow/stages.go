package workflow

import (
	"fmt"
	"log/slog"
	"strings"

	"lecturesync/internal/catalog"
	"lecturesync/internal/config"
	"lecturesync/internal/logging"
	"lecturesync/internal/services"
)

// Stage names one pipeline pass.
type Stage string

const (
	StageExtract   Stage = "extract"
	StageMatch     Stage = "match"
	StageDurations Stage = "durations"
	StageAlign     Stage = "align"
)

// AllStages returns every stage in execution order.
func AllStages() []Stage {
	return []Stage{StageExtract, StageMatch, StageDurations, StageAlign}
}

// ParseStages validates stage names and returns them in execution order
// without duplicates. An empty list selects every stage.
func ParseStages(names []string) ([]Stage, error) {
	if len(names) == 0 {
		return AllStages(), nil
	}
	want := make(map[Stage]bool, len(names))
	for _, name := range names {
		stage := Stage(strings.ToLower(strings.TrimSpace(name)))
		switch stage {
		case StageExtract, StageMatch, StageDurations, StageAlign:
			want[stage] = true
		default:
			return nil, services.Wrap(services.ErrConfiguration, "workflow", "parse stages", fmt.Sprintf("unknown stage %q", name), nil)
		}
	}
	out := make([]Stage, 0, len(want))
	for _, stage := range AllStages() {
		if want[stage] {
			out = append(out, stage)
		}
	}
	return out, nil
}

// Target is one (course, semester) pair and its clips in registry order.
type Target struct {
	Course   string
	Semester string
	Clips    []string
}

// Targets lists the registry's (course, semester) pairs that pass the
// configured course and semester filters. Configured courses missing from
// the registry are logged.
func Targets(cfg *config.Config, reg *catalog.Registry, logger *slog.Logger) []Target {
	if logger == nil {
		logger = logging.NewNop()
	}
	var out []Target
	for _, id := range reg.CourseIDs() {
		if !cfg.CourseSelected(id) {
			continue
		}
		course, _ := reg.Course(id)
		for _, sem := range course.Semesters {
			if !cfg.SemesterSelected(sem.Label) {
				continue
			}
			out = append(out, Target{Course: id, Semester: sem.Label, Clips: sem.ClipIDs()})
		}
	}
	for _, id := range cfg.Courses.IDs {
		if _, ok := reg.Course(id); !ok {
			logging.WarnWithContext(logger, "configured course missing from clip registry", "course_not_in_registry",
				logging.String(logging.FieldCourse, id),
				logging.String(logging.FieldErrorHint, "check courses.ids against the clip registry keys"),
				logging.String(logging.FieldImpact, "course is not processed"),
			)
		}
	}
	return out
}
