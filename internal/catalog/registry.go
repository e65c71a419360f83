package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"lecturesync/internal/logging"
	"lecturesync/internal/services"
)

// ClipID accepts both string and numeric identifiers.
type ClipID string

// UnmarshalJSON implements json.Unmarshaler.
func (c *ClipID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = ClipID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("clip_id must be a string or number: %s", data)
	}
	*c = ClipID(n.String())
	return nil
}

// Clip is one registry entry.
type Clip struct {
	ID            ClipID `json:"clip_id"`
	RecordingDate string `json:"recording_date"`
	LectureURL    string `json:"lecture_url,omitempty"`
}

// Semester lists the clips recorded for a course in one semester.
type Semester struct {
	Label      string `json:"-"`
	ExternalID string `json:"fau_course_id,omitempty"`
	Clips      []Clip `json:"clips"`
}

// ClipIDs returns the semester's clip IDs in registry order, skipping blanks.
func (s Semester) ClipIDs() []string {
	ids := make([]string, 0, len(s.Clips))
	for _, clip := range s.Clips {
		if clip.ID != "" {
			ids = append(ids, string(clip.ID))
		}
	}
	return ids
}

// Course groups semesters in registry order.
type Course struct {
	ID        string
	Semesters []Semester
}

// Semester looks up a semester by label.
func (c Course) Semester(label string) (Semester, bool) {
	for _, sem := range c.Semesters {
		if sem.Label == label {
			return sem, true
		}
	}
	return Semester{}, false
}

// Recording is a clip with a parsed recording time.
type Recording struct {
	ClipID      string
	Semester    string
	TimestampMS int64
}

// Recordings flattens every semester into (timestamp, clip) pairs in registry
// order. Clips without a parseable recording date are logged and skipped.
func (c Course) Recordings(logger *slog.Logger) []Recording {
	if logger == nil {
		logger = logging.NewNop()
	}
	var out []Recording
	for _, sem := range c.Semesters {
		for _, clip := range sem.Clips {
			ts, err := ParseRecordingDate(clip.RecordingDate)
			if err != nil {
				logger.Info("skipping clip without usable recording date",
					logging.String(logging.FieldCourse, c.ID),
					logging.String(logging.FieldSemester, sem.Label),
					logging.String(logging.FieldClipID, string(clip.ID)),
					logging.String("recording_date", clip.RecordingDate),
					logging.String(logging.FieldEventType, "registry_date_invalid"),
				)
				continue
			}
			out = append(out, Recording{ClipID: string(clip.ID), Semester: sem.Label, TimestampMS: ts.UnixMilli()})
		}
	}
	return out
}

var recordingDateLayouts = []string{"2006-01-02", "02.01.2006"}

// ParseRecordingDate accepts YYYY-MM-DD or DD.MM.YYYY and returns midnight UTC.
func ParseRecordingDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty recording date")
	}
	for _, layout := range recordingDateLayouts {
		if ts, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized recording date %q", value)
}

// Registry is the clip registry in file order.
type Registry struct {
	Courses []Course
}

// Course looks up a course by ID.
func (r *Registry) Course(id string) (Course, bool) {
	if r == nil {
		return Course{}, false
	}
	for _, c := range r.Courses {
		if c.ID == id {
			return c, true
		}
	}
	return Course{}, false
}

// CourseIDs returns course IDs in registry order.
func (r *Registry) CourseIDs() []string {
	if r == nil {
		return nil
	}
	ids := make([]string, 0, len(r.Courses))
	for _, c := range r.Courses {
		ids = append(ids, c.ID)
	}
	return ids
}

// LoadRegistry reads course -> semester -> {clips: [...]}. A missing file is
// reported with services.ErrMissingInput.
func LoadRegistry(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrMissingInput, "catalog", "open registry", path, err)
		}
		return nil, fmt.Errorf("open clip registry: %w", err)
	}
	defer f.Close()

	reg := &Registry{}
	dec := json.NewDecoder(f)
	err = decodeObject(dec, func(courseID string) error {
		course := Course{ID: courseID}
		err := decodeObject(dec, func(label string) error {
			sem := Semester{Label: label}
			if err := dec.Decode(&sem); err != nil {
				return err
			}
			course.Semesters = append(course.Semesters, sem)
			return nil
		})
		if err != nil {
			return err
		}
		reg.Courses = append(reg.Courses, course)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("decode clip registry %s: %w", path, err)
	}
	return reg, nil
}
