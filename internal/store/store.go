// Package store provides SQLite-backed persistence for ponto schedules.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/vleiria/ponto/internal/models"
	_ "modernc.org/sqlite"
)

// Store provides access to the ponto SQLite database.
type Store struct {
	db *sql.DB
}

// New creates a new Store and runs migrations.
func New(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Open with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations. Records are append-only: a new
// schedule for the same (date, hour, minute) key reuses the existing row,
// everything else stays as history ranked by requested_at.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		execution_date TEXT NOT NULL,
		hour TEXT NOT NULL,
		minute TEXT NOT NULL,
		origin TEXT NOT NULL DEFAULT 'web',
		status TEXT NOT NULL DEFAULT 'criado',
		success_message TEXT NOT NULL DEFAULT '',
		completed_ok INTEGER NOT NULL DEFAULT 0,
		requested_at DATETIME NOT NULL,
		UNIQUE (execution_date, hour, minute)
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_requested_at ON tasks(requested_at);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id TEXT NOT NULL DEFAULT '',
		action TEXT NOT NULL,
		inputs_hash TEXT NOT NULL DEFAULT '',
		details TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_created_at ON events(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

const taskColumns = `id, execution_date, hour, minute, origin, status, success_message, completed_ok, requested_at`

func scanTask(row interface{ Scan(...interface{}) error }) (*models.TaskRecord, error) {
	t := &models.TaskRecord{}
	err := row.Scan(&t.ID, &t.ExecutionDate, &t.Hour, &t.Minute, &t.Origin, &t.Status, &t.SuccessMessage, &t.CompletedOK, &t.RequestedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetByKey retrieves the task for an exact (date, hour, minute) key.
func (s *Store) GetByKey(executionDate, hour, minute string) (*models.TaskRecord, error) {
	row := s.db.QueryRow(
		`SELECT `+taskColumns+` FROM tasks WHERE execution_date = ? AND hour = ? AND minute = ?`,
		executionDate, hour, minute,
	)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query task: %w", err)
	}
	return task, nil
}

// CreateSchedule inserts a new task for the key with a fresh requested_at.
func (s *Store) CreateSchedule(executionDate, hour, minute, origin string, status models.TaskStatus, message string) (*models.TaskRecord, error) {
	now := time.Now().UTC()
	task := &models.TaskRecord{
		ID:             uuid.New().String(),
		ExecutionDate:  executionDate,
		Hour:           hour,
		Minute:         minute,
		Origin:         origin,
		Status:         status,
		SuccessMessage: message,
		CompletedOK:    false,
		RequestedAt:    now,
	}

	_, err := s.db.Exec(
		`INSERT INTO tasks (id, execution_date, hour, minute, origin, status, success_message, completed_ok, requested_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.ExecutionDate, task.Hour, task.Minute, task.Origin, task.Status, task.SuccessMessage, task.CompletedOK, task.RequestedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return task, nil
}

// ResetSchedule re-arms an existing task: fresh requested_at, completed_ok
// cleared, status replaced. A new schedule always supersedes prior completion
// state for its key.
func (s *Store) ResetSchedule(id string, status models.TaskStatus, message *string) (*models.TaskRecord, error) {
	now := time.Now().UTC()
	if message != nil {
		_, err := s.db.Exec(
			`UPDATE tasks SET status = ?, success_message = ?, completed_ok = 0, requested_at = ? WHERE id = ?`,
			status, *message, now, id,
		)
		if err != nil {
			return nil, fmt.Errorf("reset task: %w", err)
		}
	} else {
		_, err := s.db.Exec(
			`UPDATE tasks SET status = ?, completed_ok = 0, requested_at = ? WHERE id = ?`,
			status, now, id,
		)
		if err != nil {
			return nil, fmt.Errorf("reset task: %w", err)
		}
	}
	return s.getByID(id)
}

func (s *Store) getByID(id string) (*models.TaskRecord, error) {
	row := s.db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query task: %w", err)
	}
	return task, nil
}

// Current returns the record with the greatest requested_at across all keys,
// or nil when the store is empty. This is the single "current task" the
// coordination protocol operates on.
func (s *Store) Current() (*models.TaskRecord, error) {
	row := s.db.QueryRow(`SELECT ` + taskColumns + ` FROM tasks ORDER BY requested_at DESC, id DESC LIMIT 1`)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query current task: %w", err)
	}
	return task, nil
}

// ListRecent returns the most recently requested tasks, newest first.
func (s *Store) ListRecent(limit int) ([]models.TaskRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`SELECT `+taskColumns+` FROM tasks ORDER BY requested_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.TaskRecord
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

// UpdateStatus updates only the status of a task. requested_at is left alone
// so the update does not change which record is current.
func (s *Store) UpdateStatus(id string, status models.TaskStatus) error {
	_, err := s.db.Exec(`UPDATE tasks SET status = ? WHERE id = ?`, status, id)
	return err
}

// SaveConfirmation persists the post-state-machine fields of a record.
func (s *Store) SaveConfirmation(t *models.TaskRecord) error {
	_, err := s.db.Exec(
		`UPDATE tasks SET status = ?, success_message = ?, completed_ok = ? WHERE id = ?`,
		t.Status, t.SuccessMessage, t.CompletedOK, t.ID,
	)
	return err
}

// WriteEvent appends one entry to the audit trail.
func (s *Store) WriteEvent(taskID, action, inputsHash, details string) (*models.AuditEvent, error) {
	now := time.Now().UTC()
	res, err := s.db.Exec(
		`INSERT INTO events (task_id, action, inputs_hash, details, created_at) VALUES (?, ?, ?, ?, ?)`,
		taskID, action, inputsHash, details, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	id, _ := res.LastInsertId()
	return &models.AuditEvent{
		ID:         id,
		TaskID:     taskID,
		Action:     action,
		InputsHash: inputsHash,
		Details:    details,
		CreatedAt:  now,
	}, nil
}

// ListEvents returns the most recent audit entries, newest first.
func (s *Store) ListEvents(limit int) ([]models.AuditEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, task_id, action, inputs_hash, details, created_at FROM events ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []models.AuditEvent
	for rows.Next() {
		var e models.AuditEvent
		if err := rows.Scan(&e.ID, &e.TaskID, &e.Action, &e.InputsHash, &e.Details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
