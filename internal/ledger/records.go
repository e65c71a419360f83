package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lecturesync/internal/services"
)

const recordColumns = "id, run_id, course, semester, clip_id, stage, status, error_kind, error_message, segments, duration_seconds, started_at, finished_at"

// Begin inserts a running attempt and returns its row ID.
func (s *Store) Begin(ctx context.Context, runID, course, semester, clipID, stage string) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`INSERT INTO clip_runs (run_id, course, semester, clip_id, stage, status, started_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, course, semester, clipID, stage, StatusRunning, s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert clip run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// Finish records the outcome of an attempt.
func (s *Store) Finish(ctx context.Context, id int64, outcome Outcome) error {
	var kind, message any
	if outcome.Err != nil {
		kind = services.Kind(outcome.Err)
		message = outcome.Err.Error()
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE clip_runs
         SET status = ?, error_kind = ?, error_message = ?, segments = ?, duration_seconds = ?, finished_at = ?
         WHERE id = ?`,
		outcome.Status, kind, message, outcome.Segments, outcome.Duration,
		s.now().UTC().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return fmt.Errorf("update clip run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("clip run %d not found", id)
	}
	return nil
}

// Recent returns the newest records first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+recordColumns+` FROM clip_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list clip runs: %w", err)
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Latest returns the newest record for a clip, or nil.
func (s *Store) Latest(ctx context.Context, course, semester, clipID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM clip_runs WHERE course = ? AND semester = ? AND clip_id = ? ORDER BY id DESC LIMIT 1`,
		course, semester, clipID,
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest clip run: %w", err)
	}
	return &rec, nil
}

// Stats counts records by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM clip_runs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("ledger stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// MarkInterrupted closes rows left running by a killed process.
func (s *Store) MarkInterrupted(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE clip_runs SET status = ?, error_message = ?, finished_at = ? WHERE status = ?`,
		StatusAbandoned, "interrupted", s.now().UTC().Format(time.RFC3339Nano), StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("mark interrupted runs: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes every record.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM clip_runs`)
	if err != nil {
		return 0, fmt.Errorf("clear ledger: %w", err)
	}
	return res.RowsAffected()
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (Record, error) {
	var (
		rec         Record
		status      string
		kind        sql.NullString
		message     sql.NullString
		startedRaw  string
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(
		&rec.ID,
		&rec.RunID,
		&rec.Course,
		&rec.Semester,
		&rec.ClipID,
		&rec.Stage,
		&status,
		&kind,
		&message,
		&rec.Segments,
		&rec.Duration,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return Record{}, err
	}
	rec.Status = Status(status)
	rec.ErrorKind = kind.String
	rec.ErrorMessage = message.String
	rec.StartedAt = parseTime(startedRaw)
	if finishedRaw.Valid {
		rec.FinishedAt = parseTime(finishedRaw.String)
	}
	return rec, nil
}

func parseTime(raw string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return ts
}
