// ///////////////////////////////////////////////////////////////////////////
//
// # Parity - Tabular Data Reconciliation Engine
//
// Copyright (C) 2024 - 2026, Parityworks (https://www.parityworks.io/)
//
// This software is released under the PostgreSQL License:
// https://opensource.org/license/postgresql
//
// ///////////////////////////////////////////////////////////////////////////

package taskstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	StatusPending   = "PENDING"
	StatusRunning   = "RUNNING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

const (
	TaskTypeCompare = "COMPARE"
	TaskTypeMockgen = "MOCKGEN"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS parity_tasks (
    task_id      TEXT PRIMARY KEY,
    task_type    TEXT NOT NULL,
    task_status  TEXT NOT NULL,
    state        TEXT NOT NULL,
    task_context TEXT,
    left_source  TEXT,
    right_source TEXT,
    report_path  TEXT,
    started_at   TEXT,
    finished_at  TEXT,
    time_taken   REAL
);`

var ErrNotFound = errors.New("task not found")

type Store struct {
	db *sql.DB
}

// Record is one reconciliation run. TaskContext holds the run's summary
// numbers (row counts, match rate) as a JSON blob so the schema never has
// to migrate when the summary grows a field.
type Record struct {
	TaskID         string
	TaskType       string
	Status         string
	State          string
	LeftSource     string
	RightSource    string
	ReportPath     string
	StartedAt      time.Time
	FinishedAt     time.Time
	TimeTaken      float64
	TaskContext    map[string]any
	RawTaskContext string
}

// Recorder wraps a Store so task history becomes a no-op when no store is
// configured. All methods are safe on a nil receiver.
type Recorder struct {
	store     *Store
	ownsStore bool
	created   bool
}

func NewRecorder(existing *Store, path string) (*Recorder, error) {
	if existing != nil {
		return &Recorder{store: existing}, nil
	}
	store, err := New(path)
	if err != nil {
		return nil, err
	}
	return &Recorder{store: store, ownsStore: true}, nil
}

func (r *Recorder) Store() *Store {
	if r == nil {
		return nil
	}
	return r.store
}

func (r *Recorder) OwnsStore() bool {
	if r == nil {
		return false
	}
	return r.ownsStore
}

func (r *Recorder) HasStore() bool {
	return r != nil && r.store != nil
}

func (r *Recorder) Created() bool {
	return r != nil && r.created
}

func (r *Recorder) Create(rec Record) error {
	if !r.HasStore() {
		return nil
	}
	if err := r.store.Create(rec); err != nil {
		return err
	}
	r.created = true
	return nil
}

func (r *Recorder) Update(rec Record) error {
	if !r.HasStore() || !r.created {
		return nil
	}
	return r.store.Update(rec)
}

func (r *Recorder) Close() error {
	if !r.OwnsStore() || r.store == nil {
		return nil
	}
	err := r.store.Close()
	r.store = nil
	return err
}

func New(path string) (*Store, error) {
	sqlitePath := resolvePath(path)
	if err := ensureDir(sqlitePath); err != nil {
		return nil, fmt.Errorf("create sqlite directory: %w", err)
	}

	db, err := sql.Open("sqlite3", sqlitePath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Get(taskID string) (Record, error) {
	if strings.TrimSpace(taskID) == "" {
		return Record{}, fmt.Errorf("task id is required")
	}
	row := s.db.QueryRow(
		`SELECT task_id, task_type, task_status, state, task_context,
                left_source, right_source, report_path,
                started_at, finished_at, time_taken
         FROM parity_tasks WHERE task_id = ?`, taskID)

	rec, err := scanRecord(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("fetch task %s: %w", taskID, err)
	}
	return rec, nil
}

// List returns recent runs, newest first. A zero limit means all rows and
// an empty state matches every state.
func (s *Store) List(state string, limit int) ([]Record, error) {
	query := `SELECT task_id, task_type, task_status, state, task_context,
                     left_source, right_source, report_path,
                     started_at, finished_at, time_taken
              FROM parity_tasks`
	var args []any
	if strings.TrimSpace(state) != "" {
		query += ` WHERE state = ?`
		args = append(args, state)
	}
	query += ` ORDER BY started_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list tasks: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return out, nil
}

func (s *Store) Create(rec Record) error {
	if err := rec.validateForCreate(); err != nil {
		return err
	}
	ctxVal, err := rec.contextValue()
	if err != nil {
		return fmt.Errorf("marshal task context: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO parity_tasks (
            task_id, task_type, task_status, state, task_context,
            left_source, right_source, report_path,
            started_at, finished_at, time_taken
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.TaskID,
		rec.TaskType,
		rec.Status,
		rec.State,
		ctxVal,
		nullableString(rec.LeftSource),
		nullableString(rec.RightSource),
		nullableString(rec.ReportPath),
		timeOrNil(rec.StartedAt),
		timeOrNil(rec.FinishedAt),
		rec.TimeTaken,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (s *Store) Update(rec Record) error {
	if strings.TrimSpace(rec.TaskID) == "" {
		return errors.New("task id is required")
	}
	ctxVal, err := rec.contextValue()
	if err != nil {
		return fmt.Errorf("marshal task context: %w", err)
	}

	res, err := s.db.Exec(
		`UPDATE parity_tasks SET
            task_status = ?,
            task_context = ?,
            report_path = ?,
            finished_at = ?,
            time_taken = ?
        WHERE task_id = ?`,
		rec.Status,
		ctxVal,
		nullableString(rec.ReportPath),
		timeOrNil(rec.FinishedAt),
		rec.TimeTaken,
		rec.TaskID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ensureSchema() error {
	if _, err := s.db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("ensure parity_tasks schema: %w", err)
	}
	return nil
}

func scanRecord(scan func(dest ...any) error) (Record, error) {
	var (
		rec         Record
		ctxVal      sql.NullString
		leftSource  sql.NullString
		rightSource sql.NullString
		reportPath  sql.NullString
		startedAt   sql.NullString
		finishedAt  sql.NullString
	)
	if err := scan(
		&rec.TaskID,
		&rec.TaskType,
		&rec.Status,
		&rec.State,
		&ctxVal,
		&leftSource,
		&rightSource,
		&reportPath,
		&startedAt,
		&finishedAt,
		&rec.TimeTaken,
	); err != nil {
		return Record{}, err
	}

	if leftSource.Valid {
		rec.LeftSource = leftSource.String
	}
	if rightSource.Valid {
		rec.RightSource = rightSource.String
	}
	if reportPath.Valid {
		rec.ReportPath = reportPath.String
	}
	if startedAt.Valid {
		if t, err := time.Parse(time.RFC3339Nano, startedAt.String); err == nil {
			rec.StartedAt = t
		}
	}
	if finishedAt.Valid {
		if t, err := time.Parse(time.RFC3339Nano, finishedAt.String); err == nil {
			rec.FinishedAt = t
		}
	}
	if ctxVal.Valid && strings.TrimSpace(ctxVal.String) != "" {
		rec.RawTaskContext = ctxVal.String
		var taskContext map[string]any
		if err := json.Unmarshal([]byte(ctxVal.String), &taskContext); err == nil {
			rec.TaskContext = taskContext
		}
	}
	return rec, nil
}

func (r Record) validateForCreate() error {
	if strings.TrimSpace(r.TaskID) == "" {
		return errors.New("task id is required")
	}
	if strings.TrimSpace(r.TaskType) == "" {
		return errors.New("task type is required")
	}
	if strings.TrimSpace(r.Status) == "" {
		return errors.New("task status is required")
	}
	if strings.TrimSpace(r.State) == "" {
		return errors.New("state is required")
	}
	return nil
}

func (r Record) contextValue() (any, error) {
	if len(r.TaskContext) > 0 {
		blob, err := json.Marshal(r.TaskContext)
		if err != nil {
			return nil, err
		}
		return string(blob), nil
	}
	if strings.TrimSpace(r.RawTaskContext) != "" {
		return r.RawTaskContext, nil
	}
	return nil, nil
}

func resolvePath(path string) string {
	if strings.TrimSpace(path) != "" {
		return path
	}
	if env := os.Getenv("PARITY_TASKS_DB"); strings.TrimSpace(env) != "" {
		return env
	}
	return filepath.Join(".", "parity_tasks.db")
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func nullableString(val string) any {
	if strings.TrimSpace(val) == "" {
		return nil
	}
	return val
}

func timeOrNil(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}
