package align

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/gofrs/flock"

	"lecturesync/internal/fileutil"
	"lecturesync/internal/services"
)

const (
	keyTimestamp    = "timestamp_ms"
	keyAutoDetected = "autoDetected"

	// secondsCutoff separates second-resolution timestamps from milliseconds.
	secondsCutoff = 1e12
)

// AutoDetected is the annotation written onto a calendar entry.
type AutoDetected struct {
	ClipID           string `json:"clipId"`
	SectionURI       string `json:"sectionUri"`
	SlideURI         string `json:"slideUri"`
	SectionCompleted *bool  `json:"sectionCompleted,omitempty"`
}

// Entry is one calendar entry. Unknown fields survive a rewrite.
type Entry struct {
	fields map[string]json.RawMessage
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Entry) UnmarshalJSON(data []byte) error {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	e.fields = fields
	return nil
}

// MarshalJSON implements json.Marshaler.
func (e Entry) MarshalJSON() ([]byte, error) {
	if e.fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(e.fields)
}

// TimestampMS returns the entry time in milliseconds. Values below 1e12 are
// taken as seconds.
func (e *Entry) TimestampMS() (int64, error) {
	raw, ok := e.fields[keyTimestamp]
	if !ok {
		return 0, errors.New("entry has no timestamp_ms")
	}
	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		return 0, fmt.Errorf("timestamp_ms: %w", err)
	}
	return NormalizeTimestamp(value), nil
}

// NormalizeTimestamp converts second-resolution values to milliseconds.
func NormalizeTimestamp(value float64) int64 {
	if value < secondsCutoff {
		value *= 1000
	}
	return int64(math.Round(value))
}

// AutoDetected returns the current annotation, if any.
func (e *Entry) AutoDetected() (AutoDetected, bool) {
	raw, ok := e.fields[keyAutoDetected]
	if !ok || string(raw) == "null" {
		return AutoDetected{}, false
	}
	var ad AutoDetected
	if err := json.Unmarshal(raw, &ad); err != nil {
		return AutoDetected{}, false
	}
	return ad, true
}

// SetAutoDetected overwrites the annotation.
func (e *Entry) SetAutoDetected(ad AutoDetected) error {
	raw, err := json.Marshal(ad)
	if err != nil {
		return err
	}
	if e.fields == nil {
		e.fields = map[string]json.RawMessage{}
	}
	e.fields[keyAutoDetected] = raw
	return nil
}

// CourseEntries holds one course's entries.
type CourseEntries struct {
	Course  string
	Entries []*Entry
}

// Table is the calendar table with course order preserved.
type Table struct {
	Courses []CourseEntries
}

// Course returns the entries of a course.
func (t *Table) Course(id string) ([]*Entry, bool) {
	for _, c := range t.Courses {
		if c.Course == id {
			return c.Entries, true
		}
	}
	return nil, false
}

// DecodeTable parses course -> [entry, ...].
func DecodeTable(data []byte) (*Table, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("calendar table must be an object, found %v", tok)
	}
	table := &Table{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		course, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected course key, found %v", tok)
		}
		var entries []*Entry
		if err := dec.Decode(&entries); err != nil {
			return nil, fmt.Errorf("course %s: %w", course, err)
		}
		table.Courses = append(table.Courses, CourseEntries{Course: course, Entries: entries})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return table, nil
}

// Encode renders the table with courses in their original order.
func (t *Table) Encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range t.Courses {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Course)
		if err != nil {
			return nil, err
		}
		entries := c.Entries
		if entries == nil {
			entries = []*Entry{}
		}
		value, err := json.Marshal(entries)
		if err != nil {
			return nil, fmt.Errorf("encode course %s: %w", c.Course, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// TableFile is a calendar table opened for rewrite.
type TableFile struct {
	path  string
	lock  *flock.Flock
	Table *Table
}

// ErrTableLocked reports a concurrent aligner on the same table.
var ErrTableLocked = errors.New("calendar table locked by another writer")

// OpenTable locks and reads the calendar table. Any read or decode failure is
// reported with services.ErrMalformedStore because the run cannot continue
// without it.
func OpenTable(path string) (*TableFile, error) {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock calendar table: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrTableLocked, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		_ = lock.Unlock()
		return nil, services.Wrap(services.ErrMalformedStore, "align", "read calendar", path, err)
	}
	table, err := DecodeTable(data)
	if err != nil {
		_ = lock.Unlock()
		return nil, services.Wrap(services.ErrMalformedStore, "align", "decode calendar", path, err)
	}
	return &TableFile{path: path, lock: lock, Table: table}, nil
}

// Path returns the table location.
func (f *TableFile) Path() string {
	return f.path
}

// Save rewrites the table atomically.
func (f *TableFile) Save() error {
	data, err := f.Table.Encode()
	if err != nil {
		return fmt.Errorf("encode calendar table: %w", err)
	}
	return fileutil.WriteFileAtomic(f.path, data, 0o644)
}

// Close releases the lock.
func (f *TableFile) Close() error {
	if f == nil || f.lock == nil {
		return nil
	}
	return f.lock.Unlock()
}
