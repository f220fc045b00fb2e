package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/murmurapp/searchcore/internal/core/domain"
	"github.com/murmurapp/searchcore/internal/core/ports/driven"
)

// schedulerStore implements driven.SchedulerStore.
//
// Task timestamps are persisted as RFC 3339 text. A zero time maps to a
// NULL column and reads back as a zero time, so a task that has never
// run needs no sentinel value.
type schedulerStore struct {
	store *Store
}

var _ driven.SchedulerStore = (*schedulerStore)(nil)

// rowScanner is the Scan method shared by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// taskColumns is the scheduled_tasks select list, in scanTask order.
const taskColumns = "id, name, interval_seconds, last_run, next_run, last_error, last_success, enabled"

// GetTask retrieves a scheduled task by ID. A missing task yields nil
// with no error; the scheduler registers tasks on first save.
func (s *schedulerStore) GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM scheduled_tasks WHERE id = ?", taskID)

	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning scheduled task: %w", err)
	}
	return &task, nil
}

// ListTasks returns all scheduled tasks.
func (s *schedulerStore) ListTasks(ctx context.Context) ([]domain.ScheduledTask, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT "+taskColumns+" FROM scheduled_tasks ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying scheduled tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.ScheduledTask //nolint:prealloc // size unknown from query
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning scheduled task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scheduled tasks: %w", err)
	}

	return tasks, nil
}

// SaveTask creates or updates a task keyed by ID.
func (s *schedulerStore) SaveTask(ctx context.Context, task *domain.ScheduledTask) error {
	if task == nil {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO scheduled_tasks (id, name, interval_seconds, last_run, next_run, last_error, last_success, enabled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			interval_seconds = excluded.interval_seconds,
			last_run = excluded.last_run,
			next_run = excluded.next_run,
			last_error = excluded.last_error,
			last_success = excluded.last_success,
			enabled = excluded.enabled
	`,
		task.ID,
		task.Name,
		int64(task.Interval.Seconds()),
		timeValue(task.LastRun),
		timeValue(task.NextRun),
		nullString(task.LastError),
		timeValue(task.LastSuccess),
		btoi(task.Enabled),
	)
	if err != nil {
		return fmt.Errorf("saving scheduled task: %w", err)
	}
	return nil
}

// DeleteTask removes a task. Its result history goes with it via the
// foreign key cascade.
func (s *schedulerStore) DeleteTask(ctx context.Context, taskID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM scheduled_tasks WHERE id = ?", taskID)
	if err != nil {
		return fmt.Errorf("deleting scheduled task: %w", err)
	}
	return nil
}

// RecordResult appends one execution outcome to the task's history.
func (s *schedulerStore) RecordResult(ctx context.Context, result *domain.TaskResult) error {
	if result == nil {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO task_results (task_id, started_at, ended_at, success, error, items_processed)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		result.TaskID,
		result.StartedAt.Format(time.RFC3339),
		result.EndedAt.Format(time.RFC3339),
		btoi(result.Success),
		nullString(result.Error),
		result.ItemsProcessed,
	)
	if err != nil {
		return fmt.Errorf("recording task result: %w", err)
	}
	return nil
}

// GetTaskHistory returns up to limit results for a task, most recent
// first.
func (s *schedulerStore) GetTaskHistory(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT task_id, started_at, ended_at, success, error, items_processed
		FROM task_results
		WHERE task_id = ?
		ORDER BY started_at DESC
		LIMIT ?
	`, taskID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying task history: %w", err)
	}
	defer rows.Close()

	var history []domain.TaskResult //nolint:prealloc // size unknown from query
	for rows.Next() {
		res, err := scanTaskResult(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating task history: %w", err)
	}

	return history, nil
}

// PruneHistory trims each task's result log to the most recent keep
// rows.
func (s *schedulerStore) PruneHistory(ctx context.Context, keep int) error {
	_, err := s.store.db.ExecContext(ctx, `
		WITH ranked AS (
			SELECT id, ROW_NUMBER() OVER (PARTITION BY task_id ORDER BY started_at DESC) AS pos
			FROM task_results
		)
		DELETE FROM task_results WHERE id IN (SELECT id FROM ranked WHERE pos > ?)
	`, keep)
	if err != nil {
		return fmt.Errorf("pruning task history: %w", err)
	}
	return nil
}

// scanTask reads one scheduled_tasks row. Scan errors pass through
// unwrapped so callers can distinguish sql.ErrNoRows.
func scanTask(sc rowScanner) (domain.ScheduledTask, error) {
	var (
		task        domain.ScheduledTask
		intervalSec int64
		lastRun     sql.NullString
		nextRun     sql.NullString
		lastErr     sql.NullString
		lastOK      sql.NullString
		enabled     int
	)
	if err := sc.Scan(&task.ID, &task.Name, &intervalSec,
		&lastRun, &nextRun, &lastErr, &lastOK, &enabled); err != nil {
		return domain.ScheduledTask{}, err
	}

	task.Interval = time.Duration(intervalSec) * time.Second
	task.LastRun = timeColumn(lastRun)
	task.NextRun = timeColumn(nextRun)
	task.LastError = lastErr.String
	task.LastSuccess = timeColumn(lastOK)
	task.Enabled = enabled != 0

	return task, nil
}

// scanTaskResult reads one task_results row.
func scanTaskResult(rows *sql.Rows) (domain.TaskResult, error) {
	var (
		res     domain.TaskResult
		started string
		ended   string
		success int
		errText sql.NullString
	)
	if err := rows.Scan(&res.TaskID, &started, &ended,
		&success, &errText, &res.ItemsProcessed); err != nil {
		return domain.TaskResult{}, fmt.Errorf("scanning task result: %w", err)
	}

	if t, err := time.Parse(time.RFC3339, started); err == nil {
		res.StartedAt = t
	}
	if t, err := time.Parse(time.RFC3339, ended); err == nil {
		res.EndedAt = t
	}
	res.Success = success != 0
	res.Error = errText.String

	return res, nil
}

// timeValue converts a time to its RFC 3339 column form. Zero times are
// stored as NULL.
func timeValue(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(time.RFC3339)
}

// timeColumn parses an RFC 3339 column back to a time. NULL and
// unparseable values come back as the zero time.
func timeColumn(col sql.NullString) time.Time {
	if !col.Valid {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, col.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

// btoi maps a bool onto the 0/1 INTEGER column convention.
func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}
