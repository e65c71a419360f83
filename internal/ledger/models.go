package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Status is the outcome of one clip attempt.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	// StatusSkipped marks a clip whose timeline was already complete.
	StatusSkipped Status = "skipped"
	// StatusAbandoned marks a clip left for a future run.
	StatusAbandoned Status = "abandoned"
	StatusFailed    Status = "failed"
)

// Record is one row of the ledger.
type Record struct {
	ID           int64
	RunID        string
	Course       string
	Semester     string
	ClipID       string
	Stage        string
	Status       Status
	ErrorKind    string
	ErrorMessage string
	Segments     int
	Duration     float64
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Elapsed returns the attempt's wall-clock time, zero while running.
func (r Record) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Outcome carries the fields written when an attempt finishes.
type Outcome struct {
	Status   Status
	Segments int
	Duration float64
	Err      error
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}
