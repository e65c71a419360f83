package main

import (
	"fmt"
	"strconv"
	"strings"

	"lecturesync/internal/align"
	"lecturesync/internal/services"
	"lecturesync/internal/timeline"
	"lecturesync/internal/workflow"
)

type summaryView struct {
	RunID      string           `json:"run_id"`
	Extraction []extractionView `json:"extraction,omitempty"`
	Matching   []matchView      `json:"matching,omitempty"`
	Durations  []durationsView  `json:"durations,omitempty"`
	Alignment  *alignmentView   `json:"alignment,omitempty"`
	Skipped    []skipView       `json:"skipped,omitempty"`
}

type extractionView struct {
	Course    string `json:"course"`
	Semester  string `json:"semester"`
	Completed int    `json:"completed"`
	Skipped   int    `json:"skipped"`
	Abandoned int    `json:"abandoned"`
	Segments  int    `json:"segments"`
}

type matchView struct {
	Course   string `json:"course"`
	Semester string `json:"semester"`
	Segments int    `json:"segments"`
	Eligible int    `json:"eligible"`
	Matched  int    `json:"matched"`
}

type durationsView struct {
	Course    string  `json:"course"`
	Semester  string  `json:"semester"`
	Segments  int     `json:"segments"`
	Sections  int     `json:"sections"`
	Unmatched float64 `json:"unmatched_seconds"`
}

type alignmentView struct {
	Disabled bool              `json:"disabled"`
	Courses  []alignCourseView `json:"courses,omitempty"`
}

type alignCourseView struct {
	Course  string `json:"course"`
	Entries int    `json:"entries"`
	Matched int    `json:"matched"`
	Invalid int    `json:"invalid"`
}

type skipView struct {
	Stage     string `json:"stage"`
	Course    string `json:"course"`
	Semester  string `json:"semester"`
	ErrorKind string `json:"error_kind"`
	Reason    string `json:"reason"`
}

func newSummaryView(s workflow.Summary) summaryView {
	view := summaryView{RunID: s.RunID}
	for _, e := range s.Extraction {
		view.Extraction = append(view.Extraction, extractionView{
			Course: e.Target.Course, Semester: e.Target.Semester,
			Completed: e.Completed, Skipped: e.Skipped, Abandoned: e.Abandoned, Segments: e.Segments,
		})
	}
	for _, m := range s.Matching {
		view.Matching = append(view.Matching, matchView{
			Course: m.Target.Course, Semester: m.Target.Semester,
			Segments: m.Stats.Segments, Eligible: m.Stats.Eligible, Matched: m.Stats.Matched,
		})
	}
	for _, d := range s.Durations {
		view.Durations = append(view.Durations, durationsView{
			Course: d.Target.Course, Semester: d.Target.Semester,
			Segments: d.Report.Segments, Sections: len(d.Report.BySection),
			Unmatched: timeline.Round2(d.Report.Unmatched),
		})
	}
	if s.Alignment.Disabled || len(s.Alignment.Courses) > 0 {
		av := &alignmentView{Disabled: s.Alignment.Disabled}
		for _, c := range s.Alignment.Courses {
			av.Courses = append(av.Courses, alignCourseView{Course: c.Course, Entries: c.Entries, Matched: c.Matched, Invalid: c.Invalid})
		}
		view.Alignment = av
	}
	for _, sk := range s.Skipped {
		reason := ""
		if sk.Reason != nil {
			reason = sk.Reason.Error()
		}
		view.Skipped = append(view.Skipped, skipView{
			Stage: string(sk.Stage), Course: sk.Course, Semester: sk.Semester,
			ErrorKind: services.Kind(sk.Reason), Reason: reason,
		})
	}
	return view
}

func renderSummary(s workflow.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s\n", s.RunID)
	if len(s.Extraction) > 0 {
		rows := make([][]string, 0, len(s.Extraction))
		for _, e := range s.Extraction {
			rows = append(rows, []string{e.Target.Course, e.Target.Semester, itoa(e.Completed), itoa(e.Skipped), itoa(e.Abandoned), itoa(e.Segments)})
		}
		b.WriteString(renderTable([]string{"Course", "Semester", "Scanned", "Cached", "Abandoned", "Segments"}, rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight}))
		b.WriteString("\n")
	}
	if len(s.Matching) > 0 {
		rows := make([][]string, 0, len(s.Matching))
		for _, m := range s.Matching {
			rows = append(rows, []string{m.Target.Course, m.Target.Semester, itoa(m.Stats.Segments), itoa(m.Stats.Eligible), itoa(m.Stats.Matched)})
		}
		b.WriteString(renderTable([]string{"Course", "Semester", "Segments", "Eligible", "Matched"}, rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight}))
		b.WriteString("\n")
	}
	for _, d := range s.Durations {
		b.WriteString(renderDurations(d))
	}
	if s.Alignment.Disabled {
		b.WriteString("Alignment disabled (no calendar_file configured)\n")
	} else if len(s.Alignment.Courses) > 0 {
		b.WriteString(renderAlignment(s.Alignment.Courses))
	}
	for _, sk := range s.Skipped {
		fmt.Fprintf(&b, "skipped %s %s/%s: %v\n", sk.Stage, sk.Course, sk.Semester, sk.Reason)
	}
	return b.String()
}

func renderDurations(d workflow.DurationsSummary) string {
	report := d.Report
	sections := report.Sections()
	rows := make([][]string, 0, len(sections)+1)
	for _, uri := range sections {
		sec := report.BySection[uri]
		rows = append(rows, []string{uri, itoa(len(sec.Slides)), formatSeconds(sec.Duration)})
	}
	rows = append(rows, []string{"(unmatched)", "", formatSeconds(report.Unmatched)})
	title := fmt.Sprintf("Durations %s/%s\n", d.Target.Course, d.Target.Semester)
	return title + renderTable([]string{"Section", "Slides", "Seconds"}, rows,
		[]columnAlignment{alignLeft, alignRight, alignRight}) + "\n"
}

func renderAlignment(courses []align.Stats) string {
	var rows [][]string
	for _, c := range courses {
		for _, r := range c.Results {
			clip, section := "", ""
			if r.Decision.Matched {
				clip = r.Annotation.ClipID
				section = r.Annotation.SectionURI
			}
			rows = append(rows, []string{c.Course, itoa(r.Index), strconv.FormatInt(r.TimestampMS, 10), clip, section})
		}
	}
	if len(rows) == 0 {
		return ""
	}
	return renderTable([]string{"Course", "Entry", "Timestamp (ms)", "Clip", "Section"}, rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft, alignLeft}) + "\n"
}

func itoa(v int) string {
	return strconv.Itoa(v)
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(timeline.Round2(v), 'f', 2, 64)
}
