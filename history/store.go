// Package history persists invocation outcomes so users can review what was
// asked, which host path served it, and how failures distributed over time.
package history

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/brieflex/brieflex/errors"
	"github.com/brieflex/brieflex/route"
)

// Record is one stored invocation outcome.
type Record struct {
	ID          string        `json:"id"`
	Operation   string        `json:"operation"`
	Source      string        `json:"source,omitempty"`
	OK          bool          `json:"ok"`
	FailureKind string        `json:"failure_kind,omitempty"`
	Message     string        `json:"message,omitempty"`
	InputChars  int           `json:"input_chars"`
	Duration    time.Duration `json:"duration"`
	CreatedAt   time.Time     `json:"created_at"`
}

// FromResult builds a record from a routed result. Successful results store
// the source label; failures store the kind and user-facing message.
func FromResult(operation string, inputChars int, duration time.Duration, result route.Result) Record {
	rec := Record{
		Operation:  operation,
		OK:         result.OK,
		Source:     result.Source,
		InputChars: inputChars,
		Duration:   duration,
		CreatedAt:  result.Timestamp,
	}
	if result.Failure != nil {
		rec.FailureKind = string(result.Failure.Kind)
		rec.Message = result.Failure.Message
	}
	return rec
}

// Totals summarizes the stored history.
type Totals struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Store persists records in SQLite.
type Store struct {
	db  *sql.DB
	log *zap.SugaredLogger
}

// NewStore wraps an open, migrated database.
func NewStore(database *sql.DB, log *zap.SugaredLogger) *Store {
	return &Store{db: database, log: log}
}

// Save inserts a record, assigning an ID when the caller left it empty.
func (s *Store) Save(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invocations (id, operation, source, ok, failure_kind, message, input_chars, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Operation, rec.Source, rec.OK, rec.FailureKind, rec.Message,
		rec.InputChars, rec.Duration.Milliseconds(), rec.CreatedAt,
	)
	if err != nil {
		return Record{}, errors.Wrap(err, "insert invocation")
	}

	if s.log != nil {
		s.log.Debugw("Recorded invocation",
			"id", rec.ID,
			"operation", rec.Operation,
			"ok", rec.OK,
		)
	}
	return rec, nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, operation, source, ok, failure_kind, message, input_chars, duration_ms, created_at
		FROM invocations
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query invocations")
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var durationMS int64
		if err := rows.Scan(&rec.ID, &rec.Operation, &rec.Source, &rec.OK,
			&rec.FailureKind, &rec.Message, &rec.InputChars, &durationMS, &rec.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan invocation")
		}
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Prune deletes everything but the newest keep records and returns how many
// rows were removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM invocations
		WHERE id NOT IN (
			SELECT id FROM invocations ORDER BY created_at DESC, id DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, errors.Wrap(err, "prune invocations")
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "rows affected")
	}

	if s.log != nil && removed > 0 {
		s.log.Infow("Pruned invocation history", "removed", removed, "kept", keep)
	}
	return removed, nil
}

// Totals returns aggregate success/failure counts.
func (s *Store) Totals(ctx context.Context) (Totals, error) {
	var t Totals
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN ok THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN ok THEN 0 ELSE 1 END), 0)
		FROM invocations`).Scan(&t.Total, &t.Succeeded, &t.Failed)
	if err != nil {
		return Totals{}, errors.Wrap(err, "aggregate invocations")
	}
	return t, nil
}
