// Package sqlite implements repository.Store on SQLite.
//
// Traces and steps live in separate cascade-linked tables. JSON-valued
// fields (input, output, metadata) are persisted as encoded text and
// decoded back to native maps on read. Timestamps are stored as fixed-width
// RFC 3339 UTC strings so lexical order equals chronological order.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Syamgith/decisiontraceX/internal/domain"
	apperrors "github.com/Syamgith/decisiontraceX/internal/pkg/errors"
	"github.com/Syamgith/decisiontraceX/internal/pkg/metrics"
)

// timeLayout pads fractional seconds to nine digits so string comparison
// in ORDER BY matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is the SQLite-backed implementation of repository.Store.
type Store struct {
	db        *sqlx.DB
	closeOnce sync.Once
	closeErr  error
}

// New opens (or creates) the database at path and ensures the schema.
// The parent directory is created if missing. Use ":memory:" for an
// ephemeral store in tests.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); path != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, apperrors.Storage("failed to create data directory").WithError(err)
		}
	}

	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, apperrors.Storage("failed to open database").WithError(err)
	}

	// In-memory SQLite gives each connection its own database. Pin the
	// pool to one connection so schema and data stay visible everywhere.
	if path == ":memory:" || strings.Contains(path, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, apperrors.Storage("failed to configure database").WithError(err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS traces (
			trace_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT,
			duration_ms INTEGER,
			metadata TEXT,
			status TEXT CHECK(status IN ('running', 'completed', 'failed')),
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_traces_status ON traces(status)`,
		`CREATE INDEX IF NOT EXISTS idx_traces_created_at ON traces(created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS steps (
			step_id TEXT PRIMARY KEY,
			trace_id TEXT NOT NULL,
			name TEXT NOT NULL,
			input TEXT,
			output TEXT,
			reasoning TEXT,
			metadata TEXT,
			start_time TEXT NOT NULL,
			end_time TEXT,
			duration_ms INTEGER,
			status TEXT CHECK(status IN ('running', 'completed', 'failed')),
			error TEXT,
			step_order INTEGER,
			FOREIGN KEY (trace_id) REFERENCES traces(trace_id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_steps_trace_id ON steps(trace_id)`,
		`CREATE INDEX IF NOT EXISTS idx_steps_order ON steps(trace_id, step_order)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return apperrors.Storage("failed to migrate schema").WithError(err)
		}
	}

	return nil
}

// SaveTrace upserts the trace row. created_at is written once on first
// insert and never updated, preserving creation order across re-saves.
// Child steps are not touched.
func (s *Store) SaveTrace(ctx context.Context, trace *domain.Trace) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("save_trace", time.Since(start)) }()

	metadata, err := json.Marshal(trace.Metadata)
	if err != nil {
		return apperrors.Validation("trace metadata is not serializable").WithError(err)
	}

	query := `
		INSERT INTO traces (trace_id, name, start_time, end_time, duration_ms, metadata, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(trace_id) DO UPDATE SET
			name = excluded.name,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			duration_ms = excluded.duration_ms,
			metadata = excluded.metadata,
			status = excluded.status
	`

	_, err = s.db.ExecContext(ctx, query,
		trace.TraceID,
		trace.Name,
		formatTime(trace.StartTime),
		formatTimePtr(trace.EndTime),
		nullInt64(trace.DurationMs),
		string(metadata),
		string(trace.Status),
		formatTime(time.Now().UTC()),
	)
	if err != nil {
		metrics.RecordDBError("save_trace")
		return apperrors.Storage("failed to save trace").WithError(err)
	}

	return nil
}

// SaveStep upserts the step row; all fields overwritten, last write wins.
func (s *Store) SaveStep(ctx context.Context, step *domain.Step) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("save_step", time.Since(start)) }()

	input, err := json.Marshal(step.Input)
	if err != nil {
		return apperrors.Validation("step input is not serializable").WithError(err)
	}
	metadata, err := json.Marshal(step.Metadata)
	if err != nil {
		return apperrors.Validation("step metadata is not serializable").WithError(err)
	}
	var output any
	if step.Output != nil {
		encoded, err := json.Marshal(step.Output)
		if err != nil {
			return apperrors.Validation("step output is not serializable").WithError(err)
		}
		output = string(encoded)
	}

	query := `
		INSERT INTO steps (step_id, trace_id, name, input, output, reasoning, metadata,
			start_time, end_time, duration_ms, status, error, step_order)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(step_id) DO UPDATE SET
			trace_id = excluded.trace_id,
			name = excluded.name,
			input = excluded.input,
			output = excluded.output,
			reasoning = excluded.reasoning,
			metadata = excluded.metadata,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			duration_ms = excluded.duration_ms,
			status = excluded.status,
			error = excluded.error,
			step_order = excluded.step_order
	`

	_, err = s.db.ExecContext(ctx, query,
		step.StepID,
		step.TraceID,
		step.Name,
		string(input),
		output,
		step.Reasoning,
		string(metadata),
		formatTime(step.StartTime),
		formatTimePtr(step.EndTime),
		nullInt64(step.DurationMs),
		string(step.Status),
		step.Error,
		step.StepOrder,
	)
	if err != nil {
		metrics.RecordDBError("save_step")
		return apperrors.Storage("failed to save step").WithError(err)
	}

	return nil
}

// GetTrace fetches the trace row and all child steps ordered by step_order
// ascending. Unknown ids return apperrors.NotFound.
func (s *Store) GetTrace(ctx context.Context, traceID string) (*domain.Trace, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("get_trace", time.Since(start)) }()

	var tr traceRow
	err := s.db.GetContext(ctx, &tr, `
		SELECT trace_id, name, start_time, end_time, duration_ms, metadata, status
		FROM traces WHERE trace_id = ?
	`, traceID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("trace")
		}
		metrics.RecordDBError("get_trace")
		return nil, apperrors.Storage("failed to get trace").WithError(err)
	}

	var steps []stepRow
	err = s.db.SelectContext(ctx, &steps, `
		SELECT step_id, trace_id, name, input, output, reasoning, metadata,
			start_time, end_time, duration_ms, status, error, step_order
		FROM steps WHERE trace_id = ? ORDER BY step_order ASC
	`, traceID)
	if err != nil {
		metrics.RecordDBError("get_trace")
		return nil, apperrors.Storage("failed to get steps").WithError(err)
	}

	trace, err := tr.toDomain()
	if err != nil {
		return nil, err
	}
	trace.Steps = make([]domain.Step, 0, len(steps))
	for _, row := range steps {
		step, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		trace.Steps = append(trace.Steps, *step)
	}

	return trace, nil
}

// GetAllTraces returns up to limit traces ordered by creation time
// descending, optionally filtered to one status, each hydrated with steps.
func (s *Store) GetAllTraces(ctx context.Context, limit int, status domain.Status) ([]domain.Trace, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("get_all_traces", time.Since(start)) }()

	query := `SELECT trace_id FROM traces`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	var ids []string
	if err := s.db.SelectContext(ctx, &ids, query, args...); err != nil {
		metrics.RecordDBError("get_all_traces")
		return nil, apperrors.Storage("failed to list traces").WithError(err)
	}

	traces := make([]domain.Trace, 0, len(ids))
	for _, id := range ids {
		trace, err := s.GetTrace(ctx, id)
		if err != nil {
			// A trace deleted between the two queries is absence, not failure.
			if apperrors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		traces = append(traces, *trace)
	}

	return traces, nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return apperrors.Storage("database unreachable").WithError(err)
	}
	return nil
}

// Close closes the database connection. Safe to call more than once.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

type traceRow struct {
	TraceID    string         `db:"trace_id"`
	Name       string         `db:"name"`
	StartTime  string         `db:"start_time"`
	EndTime    sql.NullString `db:"end_time"`
	DurationMs sql.NullInt64  `db:"duration_ms"`
	Metadata   sql.NullString `db:"metadata"`
	Status     string         `db:"status"`
}

func (r traceRow) toDomain() (*domain.Trace, error) {
	startTime, err := parseTime(r.StartTime)
	if err != nil {
		return nil, err
	}
	endTime, err := parseTimePtr(r.EndTime)
	if err != nil {
		return nil, err
	}
	metadata, err := decodeMap(r.Metadata)
	if err != nil {
		return nil, err
	}

	return &domain.Trace{
		TraceID:    r.TraceID,
		Name:       r.Name,
		StartTime:  startTime,
		EndTime:    endTime,
		DurationMs: int64Ptr(r.DurationMs),
		Steps:      []domain.Step{},
		Metadata:   metadata,
		Status:     domain.Status(r.Status),
	}, nil
}

type stepRow struct {
	StepID     string         `db:"step_id"`
	TraceID    string         `db:"trace_id"`
	Name       string         `db:"name"`
	Input      sql.NullString `db:"input"`
	Output     sql.NullString `db:"output"`
	Reasoning  sql.NullString `db:"reasoning"`
	Metadata   sql.NullString `db:"metadata"`
	StartTime  string         `db:"start_time"`
	EndTime    sql.NullString `db:"end_time"`
	DurationMs sql.NullInt64  `db:"duration_ms"`
	Status     string         `db:"status"`
	Error      sql.NullString `db:"error"`
	StepOrder  int            `db:"step_order"`
}

func (r stepRow) toDomain() (*domain.Step, error) {
	startTime, err := parseTime(r.StartTime)
	if err != nil {
		return nil, err
	}
	endTime, err := parseTimePtr(r.EndTime)
	if err != nil {
		return nil, err
	}
	input, err := decodeMap(r.Input)
	if err != nil {
		return nil, err
	}
	metadata, err := decodeMap(r.Metadata)
	if err != nil {
		return nil, err
	}

	var output map[string]any
	if r.Output.Valid && r.Output.String != "" {
		if err := json.Unmarshal([]byte(r.Output.String), &output); err != nil {
			return nil, apperrors.Storage("corrupt step output").WithError(err)
		}
	}

	return &domain.Step{
		StepID:     r.StepID,
		TraceID:    r.TraceID,
		Name:       r.Name,
		Input:      input,
		Output:     output,
		Reasoning:  stringPtr(r.Reasoning),
		Metadata:   metadata,
		StartTime:  startTime,
		EndTime:    endTime,
		DurationMs: int64Ptr(r.DurationMs),
		Status:     domain.Status(r.Status),
		Error:      stringPtr(r.Error),
		StepOrder:  r.StepOrder,
	}, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, apperrors.Storage(fmt.Sprintf("corrupt timestamp %q", s)).WithError(err)
	}
	return t, nil
}

func parseTimePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func decodeMap(s sql.NullString) (map[string]any, error) {
	if !s.Valid || s.String == "" {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s.String), &m); err != nil {
		return nil, apperrors.Storage("corrupt JSON column").WithError(err)
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}

func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
