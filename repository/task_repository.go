// Package repository stores tasks in a SQL database.
//
// MySQL is the production driver. SQLite is supported for running the service locally
// against a single file.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"NotesWebService/models"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// ErrTaskNotFound is returned when no task has the requested id.
var ErrTaskNotFound = errors.New("task not found")

var schemas = map[string]string{
	"mysql": `
		CREATE TABLE IF NOT EXISTS task (
			id INT AUTO_INCREMENT PRIMARY KEY,
			title VARCHAR(500) NOT NULL,
			description TEXT NOT NULL,
			completed BOOLEAN NOT NULL DEFAULT FALSE,
			account_id VARCHAR(255) NOT NULL,
			created_at DATETIME NOT NULL,
			INDEX idx_task_account (account_id)
		)`,
	"sqlite3": `
		CREATE TABLE IF NOT EXISTS task (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			completed BOOLEAN NOT NULL DEFAULT 0,
			account_id TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
}

const taskColumns = "id, title, description, completed, account_id, created_at"

// TaskRepository runs task queries against a *sql.DB.
type TaskRepository struct {
	db     *sql.DB
	driver string
}

// Open opens and pings a database for the given driver ("mysql" or "sqlite3").
func Open(driver, dsn string) (*sql.DB, error) {
	if _, ok := schemas[driver]; !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func NewTaskRepository(db *sql.DB, driver string) *TaskRepository {
	return &TaskRepository{db: db, driver: driver}
}

// Migrate creates the task table if it does not exist.
func (r *TaskRepository) Migrate(ctx context.Context) error {
	schema, ok := schemas[r.driver]
	if !ok {
		return fmt.Errorf("unsupported database driver %q", r.driver)
	}
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create task table: %w", err)
	}
	return nil
}

// CreateTask inserts a new task and sets its Id.
// CreatedAt is set to the current time when it is zero.
func (r *TaskRepository) CreateTask(ctx context.Context, task *models.Task) error {
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	query := "INSERT INTO task(title, description, completed, account_id, created_at) VALUES(?, ?, ?, ?, ?)"
	result, err := r.db.ExecContext(ctx, query, task.Title, task.Description, task.Completed, task.AccountId, task.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to execute SQL statement: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to retrieve the last inserted ID: %w", err)
	}
	task.Id = int(id)
	return nil
}

// GetTask retrieves a task by id.
// It returns ErrTaskNotFound if there is no such task.
func (r *TaskRepository) GetTask(ctx context.Context, id int) (*models.Task, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM task WHERE id=?", id)
	task := &models.Task{}
	err := row.Scan(&task.Id, &task.Title, &task.Description, &task.Completed, &task.AccountId, &task.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("task %d: %w", id, ErrTaskNotFound)
		}
		return nil, fmt.Errorf("failed to scan row into Task struct: %w", err)
	}
	return task, nil
}

// ListTasks returns the tasks matching filter, newest first.
// The result is nil when no task matches.
func (r *TaskRepository) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.AccountId != "" {
		where = append(where, "account_id = ?")
		args = append(args, filter.AccountId)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		where = append(where, "(title LIKE ? OR description LIKE ?)")
		args = append(args, pattern, pattern)
	}
	switch filter.Status {
	case models.FilterActive:
		where = append(where, "completed = ?")
		args = append(args, false)
	case models.FilterCompleted:
		where = append(where, "completed = ?")
		args = append(args, true)
	}

	query := "SELECT " + taskColumns + " FROM task"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var task models.Task
		err := rows.Scan(&task.Id, &task.Title, &task.Description, &task.Completed, &task.AccountId, &task.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row into Task struct: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate task rows: %w", err)
	}
	return tasks, nil
}

// UpdateTask stores the title, description and completed flag of a task.
func (r *TaskRepository) UpdateTask(ctx context.Context, task *models.Task) error {
	query := "UPDATE task SET title=?, description=?, completed=? WHERE id=?"
	result, err := r.db.ExecContext(ctx, query, task.Title, task.Description, task.Completed, task.Id)
	if err != nil {
		return fmt.Errorf("failed to execute SQL statement: %w", err)
	}
	return checkAffected(result, task.Id)
}

// DeleteTask deletes a task by id.
func (r *TaskRepository) DeleteTask(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM task WHERE id=?", id)
	if err != nil {
		return fmt.Errorf("failed to execute SQL statement: %w", err)
	}
	return checkAffected(result, id)
}

// ClearCompletedTasks deletes every completed task of an account and returns how many were removed.
func (r *TaskRepository) ClearCompletedTasks(ctx context.Context, accountId string) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM task WHERE account_id=? AND completed=?", accountId, true)
	if err != nil {
		return 0, fmt.Errorf("failed to execute SQL statement: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

func checkAffected(result sql.Result, id int) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("task %d: %w", id, ErrTaskNotFound)
	}
	return nil
}
