package timeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/gofrs/flock"

	"lecturesync/internal/fileutil"
	"lecturesync/internal/logging"
	"lecturesync/internal/services"
)

// ErrLocked reports that another writer already owns the store file.
var ErrLocked = errors.New("timeline store locked by another writer")

// Document is the on-disk form: clip ID to timeline.
type Document map[string]ClipTimeline

// Load reads a timeline document without taking the writer lock. A missing
// file is reported with a services.ErrMissingInput marker; undecodable
// content with services.ErrMalformedStore.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrMissingInput, "timeline", "load", path, err)
		}
		return nil, fmt.Errorf("read timeline store: %w", err)
	}
	doc := Document{}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, services.Wrap(services.ErrMalformedStore, "timeline", "decode", path, err)
	}
	for id, tl := range doc {
		if tl.ClipID == "" {
			tl.ClipID = id
			doc[id] = tl
		}
	}
	return doc, nil
}

// Save writes a document atomically.
func Save(path string, doc Document) error {
	if doc == nil {
		doc = Document{}
	}
	return fileutil.WriteJSONAtomic(path, doc)
}

// ClipIDs returns the document's clip IDs in sorted order.
func (d Document) ClipIDs() []string {
	ids := make([]string, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Store is the single writer of one timeline document.
type Store struct {
	path   string
	lock   *flock.Flock
	logger *slog.Logger

	mu  sync.Mutex
	doc Document
}

// Open locks path for writing and loads its current content. A missing file
// starts an empty document.
func Open(path string, logger *slog.Logger) (*Store, error) {
	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire store lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}

	doc, err := Load(path)
	if err != nil {
		if !errors.Is(err, services.ErrMissingInput) {
			_ = lock.Unlock()
			return nil, err
		}
		doc = Document{}
	}
	store := &Store{
		path:   path,
		lock:   lock,
		logger: logging.NewComponentLogger(logger, "timeline"),
		doc:    doc,
	}
	store.logger.Debug("timeline store opened",
		logging.String("path", path),
		logging.Int("clip_count", len(doc)),
	)
	return store, nil
}

// Path returns the document location.
func (s *Store) Path() string {
	return s.path
}

// Close releases the writer lock.
func (s *Store) Close() error {
	if s == nil || s.lock == nil {
		return nil
	}
	return s.lock.Unlock()
}

// Timeline returns a copy of the clip's timeline.
func (s *Store) Timeline(clipID string) (ClipTimeline, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tl, ok := s.doc[clipID]
	if !ok {
		return ClipTimeline{}, false
	}
	return tl.Clone(), true
}

// IsComplete applies the resume contract: the clip is fully processed when
// its last stored segment ends exactly at the probed duration.
func (s *Store) IsComplete(clipID string, duration float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	tl, ok := s.doc[clipID]
	return ok && tl.Complete(duration)
}

// Reset discards every cached segment of the clip and persists the result.
func (s *Store) Reset(clipID string, duration float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := len(s.doc[clipID].Segments)
	s.doc[clipID] = ClipTimeline{ClipID: clipID, Duration: duration, Segments: []Segment{}}
	if prev > 0 {
		s.logger.Info("discarding partial timeline",
			logging.String(logging.FieldClipID, clipID),
			logging.Int("cached_segments", prev),
			logging.String(logging.FieldEventType, "timeline_reset"),
		)
	}
	return s.saveLocked()
}

// Merge upserts segments by start time into the clip's timeline and rewrites
// the document. Existing segments with other start times are kept.
func (s *Store) Merge(clipID string, duration float64, segments ...Segment) error {
	if len(segments) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tl := s.doc[clipID]
	tl.ClipID = clipID
	tl.Duration = duration
	for _, seg := range segments {
		tl.Upsert(seg)
	}
	s.doc[clipID] = tl
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	if err := Save(s.path, s.doc); err != nil {
		return fmt.Errorf("persist timeline store: %w", err)
	}
	return nil
}
