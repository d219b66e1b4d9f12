package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/KarpovAlexandrGo/task-api/internal/entity"
	"github.com/KarpovAlexandrGo/task-api/pkg/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

const schema = `
	CREATE TABLE IF NOT EXISTS tasks (
		id          UUID PRIMARY KEY,
		title       TEXT NOT NULL CHECK (btrim(title) <> ''),
		description TEXT NOT NULL DEFAULT '',
		status      TEXT NOT NULL CHECK (status IN ('Pending', 'In Progress', 'Completed')),
		due_date    TIMESTAMPTZ,
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	)`

const taskColumns = `id, title, description, status, due_date, created_at, updated_at`

type TaskRepository struct {
	db      *pgxpool.Pool
	timeout time.Duration
	logger  *logrus.Logger

	schemaMu    sync.Mutex
	schemaReady bool
}

// NewTaskRepository создает пул соединений. Пул подключается лениво.
func NewTaskRepository(ctx context.Context, dsn string, timeout time.Duration) (*TaskRepository, error) {
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	return &TaskRepository{
		db:      db,
		timeout: timeout,
		logger:  logger.Log,
	}, nil
}

// Ping проверяет соединение и создает таблицу, если ее еще нет.
func (r *TaskRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.db.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return r.ensureSchema(ctx)
}

// ensureSchema создает таблицу при первом успешном обращении к базе.
// Неудачная попытка повторяется следующей операцией.
func (r *TaskRepository) ensureSchema(ctx context.Context) error {
	r.schemaMu.Lock()
	defer r.schemaMu.Unlock()

	if r.schemaReady {
		return nil
	}
	if _, err := r.db.Exec(ctx, schema); err != nil {
		r.logger.WithError(err).Error("Failed to ensure tasks table")
		return fmt.Errorf("failed to ensure tasks table: %w", err)
	}
	r.schemaReady = true
	return nil
}

func (r *TaskRepository) Close(context.Context) error {
	r.db.Close()
	return nil
}

func (r *TaskRepository) Create(ctx context.Context, task entity.Task) (entity.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.ensureSchema(ctx); err != nil {
		return entity.Task{}, err
	}

	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING ` + taskColumns

	now := time.Now().UTC().Truncate(time.Microsecond)
	created, err := scanTask(r.db.QueryRow(ctx, query,
		uuid.New(),
		task.Title,
		task.Description,
		string(task.Status),
		task.DueDate,
		now,
	))
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"method": "Create",
			"title":  task.Title,
		}).WithError(err).Error("Failed to create task")
		return entity.Task{}, fmt.Errorf("failed to create task: %w", err)
	}

	return created, nil
}

func (r *TaskRepository) Get(ctx context.Context, id string) (entity.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	parsedID, err := r.parseID("Get", id)
	if err != nil {
		return entity.Task{}, err
	}
	if err := r.ensureSchema(ctx); err != nil {
		return entity.Task{}, err
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := scanTask(r.db.QueryRow(ctx, query, parsedID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.Task{}, entity.ErrTaskNotFound
		}
		r.logger.WithFields(logrus.Fields{
			"method":  "Get",
			"task_id": id,
		}).WithError(err).Error("Failed to get task")
		return entity.Task{}, fmt.Errorf("failed to get task: %w", err)
	}

	return task, nil
}

func (r *TaskRepository) List(ctx context.Context) ([]entity.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.ensureSchema(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY created_at`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.WithField("method", "List").WithError(err).Error("Failed to list tasks")
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []entity.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			r.logger.WithField("method", "List").WithError(err).Error("Failed to scan task row")
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		r.logger.WithField("method", "List").WithError(err).Error("Error after scanning rows")
		return nil, fmt.Errorf("error after scanning rows: %w", err)
	}

	return tasks, nil
}

// Update меняет только переданные поля: NULL-параметр оставляет значение колонки.
func (r *TaskRepository) Update(ctx context.Context, id string, patch entity.TaskPatch) (entity.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	parsedID, err := r.parseID("Update", id)
	if err != nil {
		return entity.Task{}, err
	}
	if err := r.ensureSchema(ctx); err != nil {
		return entity.Task{}, err
	}

	query := `
		UPDATE tasks
		SET title       = COALESCE($2, title),
		    description = COALESCE($3, description),
		    status      = COALESCE($4, status),
		    due_date    = COALESCE($5, due_date),
		    updated_at  = $6
		WHERE id = $1
		RETURNING ` + taskColumns

	var status *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}

	task, err := scanTask(r.db.QueryRow(ctx, query,
		parsedID,
		patch.Title,
		patch.Description,
		status,
		patch.DueDate,
		time.Now().UTC().Truncate(time.Microsecond),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.Task{}, entity.ErrTaskNotFound
		}
		r.logger.WithFields(logrus.Fields{
			"method":  "Update",
			"task_id": id,
		}).WithError(err).Error("Failed to update task")
		return entity.Task{}, fmt.Errorf("failed to update task: %w", err)
	}

	return task, nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	parsedID, err := r.parseID("Delete", id)
	if err != nil {
		return err
	}
	if err := r.ensureSchema(ctx); err != nil {
		return err
	}

	result, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, parsedID)
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"method":  "Delete",
			"task_id": id,
		}).WithError(err).Error("Failed to delete task")
		return fmt.Errorf("failed to delete task: %w", err)
	}

	if result.RowsAffected() == 0 {
		return entity.ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepository) parseID(method, id string) (uuid.UUID, error) {
	parsedID, err := uuid.Parse(id)
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"method":  method,
			"task_id": id,
		}).WithError(err).Warn("Invalid task ID format")
		return uuid.Nil, fmt.Errorf("%w: %q", entity.ErrInvalidID, id)
	}
	return parsedID, nil
}

func scanTask(row pgx.Row) (entity.Task, error) {
	var (
		task   entity.Task
		id     uuid.UUID
		status string
	)
	if err := row.Scan(
		&id,
		&task.Title,
		&task.Description,
		&status,
		&task.DueDate,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		return entity.Task{}, err
	}

	task.ID = id.String()
	task.Status = entity.Status(status)
	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()
	if task.DueDate != nil {
		due := task.DueDate.UTC()
		task.DueDate = &due
	}
	return task, nil
}
