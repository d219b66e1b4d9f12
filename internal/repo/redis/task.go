package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/KarpovAlexandrGo/task-api/internal/entity"
	"github.com/KarpovAlexandrGo/task-api/pkg/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	taskKeyPrefix = "task:"
	// tasks хранит id задач, отсортированные по времени создания.
	indexKey = "tasks"
)

// TaskRepository хранит каждую задачу JSON-документом под ключом task:<id>.
type TaskRepository struct {
	client  *redis.Client
	timeout time.Duration
	logger  *logrus.Logger
}

func NewTaskRepository(addr, password string, db int, timeout time.Duration) *TaskRepository {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &TaskRepository{
		client:  client,
		timeout: timeout,
		logger:  logger.Log,
	}
}

// Ping проверяет подключение к Redis
func (r *TaskRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.client.Ping(ctx).Err()
}

func (r *TaskRepository) Close(context.Context) error {
	return r.client.Close()
}

func (r *TaskRepository) Create(ctx context.Context, task entity.Task) (entity.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	now := time.Now().UTC()
	task.ID = uuid.NewString()
	task.CreatedAt = now
	task.UpdatedAt = now

	data, err := json.Marshal(task)
	if err != nil {
		return entity.Task{}, fmt.Errorf("failed to encode task: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, taskKey(task.ID), data, 0)
		pipe.ZAdd(ctx, indexKey, redis.Z{Score: float64(now.UnixMicro()), Member: task.ID})
		return nil
	})
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"method": "Create",
			"title":  task.Title,
		}).WithError(err).Error("Failed to create task")
		return entity.Task{}, fmt.Errorf("failed to create task: %w", err)
	}

	return task, nil
}

func (r *TaskRepository) Get(ctx context.Context, id string) (entity.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.checkID("Get", id); err != nil {
		return entity.Task{}, err
	}

	data, err := r.client.Get(ctx, taskKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return entity.Task{}, entity.ErrTaskNotFound
	} else if err != nil {
		r.logger.WithFields(logrus.Fields{
			"method":  "Get",
			"task_id": id,
		}).WithError(err).Error("Failed to get task")
		return entity.Task{}, fmt.Errorf("failed to get task: %w", err)
	}

	var task entity.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return entity.Task{}, fmt.Errorf("failed to decode task %s: %w", id, err)
	}
	return task, nil
}

func (r *TaskRepository) List(ctx context.Context) ([]entity.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	ids, err := r.client.ZRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		r.logger.WithField("method", "List").WithError(err).Error("Failed to read task index")
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	if len(ids) == 0 {
		return []entity.Task{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = taskKey(id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		r.logger.WithField("method", "List").WithError(err).Error("Failed to list tasks")
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasks := make([]entity.Task, 0, len(values))
	for i, v := range values {
		// Задача могла быть удалена между ZRANGE и MGET.
		s, ok := v.(string)
		if !ok {
			continue
		}
		var task entity.Task
		if err := json.Unmarshal([]byte(s), &task); err != nil {
			return nil, fmt.Errorf("failed to decode task %s: %w", ids[i], err)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// Update читает документ и перезаписывает его в транзакции под WATCH.
// Конкурентная запись приводит к redis.TxFailedErr, повторов нет.
func (r *TaskRepository) Update(ctx context.Context, id string, patch entity.TaskPatch) (entity.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.checkID("Update", id); err != nil {
		return entity.Task{}, err
	}

	key := taskKey(id)
	var updated entity.Task

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return entity.ErrTaskNotFound
		} else if err != nil {
			return err
		}

		var task entity.Task
		if err := json.Unmarshal(data, &task); err != nil {
			return fmt.Errorf("failed to decode task %s: %w", id, err)
		}

		patch.Apply(&task)
		task.UpdatedAt = time.Now().UTC()
		if err := task.Validate(); err != nil {
			return err
		}

		out, err := json.Marshal(task)
		if err != nil {
			return fmt.Errorf("failed to encode task: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		if err == nil {
			updated = task
		}
		return err
	}, key)

	if err != nil {
		var verrs entity.ValidationErrors
		if errors.Is(err, entity.ErrTaskNotFound) || errors.As(err, &verrs) {
			return entity.Task{}, err
		}
		r.logger.WithFields(logrus.Fields{
			"method":  "Update",
			"task_id": id,
		}).WithError(err).Error("Failed to update task")
		return entity.Task{}, fmt.Errorf("failed to update task: %w", err)
	}

	return updated, nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.checkID("Delete", id); err != nil {
		return err
	}

	var del *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, taskKey(id))
		pipe.ZRem(ctx, indexKey, id)
		return nil
	})
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"method":  "Delete",
			"task_id": id,
		}).WithError(err).Error("Failed to delete task")
		return fmt.Errorf("failed to delete task: %w", err)
	}

	if del.Val() == 0 {
		return entity.ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepository) checkID(method, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		r.logger.WithFields(logrus.Fields{
			"method":  method,
			"task_id": id,
		}).WithError(err).Warn("Invalid task ID format")
		return fmt.Errorf("%w: %q", entity.ErrInvalidID, id)
	}
	return nil
}

func taskKey(id string) string {
	return taskKeyPrefix + id
}
