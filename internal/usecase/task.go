package usecase

import (
	"context"
	"errors"

	"github.com/KarpovAlexandrGo/task-api/internal/entity"
	"github.com/KarpovAlexandrGo/task-api/pkg/logger"
	"github.com/sirupsen/logrus"
)

type TaskUseCase interface {
	Create(ctx context.Context, task entity.Task) (entity.Task, error)
	Get(ctx context.Context, id string) (entity.Task, error)
	List(ctx context.Context) ([]entity.Task, error)
	Update(ctx context.Context, id string, patch entity.TaskPatch) (entity.Task, error)
	Delete(ctx context.Context, id string) error
}

// TaskRepository описывает хранилище задач. Хранилище само назначает id и метки времени.
type TaskRepository interface {
	Create(ctx context.Context, task entity.Task) (entity.Task, error)
	Get(ctx context.Context, id string) (entity.Task, error)
	List(ctx context.Context) ([]entity.Task, error)
	Update(ctx context.Context, id string, patch entity.TaskPatch) (entity.Task, error)
	Delete(ctx context.Context, id string) error
}

type TaskUseCaseImpl struct {
	taskRepo TaskRepository
}

func NewTaskUseCase(taskRepo TaskRepository) *TaskUseCaseImpl {
	return &TaskUseCaseImpl{taskRepo: taskRepo}
}

func (uc *TaskUseCaseImpl) Create(ctx context.Context, task entity.Task) (entity.Task, error) {
	logger.Log.WithField("title", task.Title).Debug("Starting task creation")

	if task.Status == "" {
		task.Status = entity.StatusPending
	}
	if err := task.Validate(); err != nil {
		logger.Log.WithError(err).Warn("Task validation failed")
		return entity.Task{}, err
	}

	createdTask, err := uc.taskRepo.Create(ctx, task)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to create task")
		return entity.Task{}, err
	}

	logger.Log.WithField("task_id", createdTask.ID).Info("Task created successfully")
	return createdTask, nil
}

func (uc *TaskUseCaseImpl) Get(ctx context.Context, id string) (entity.Task, error) {
	task, err := uc.taskRepo.Get(ctx, id)
	if err != nil {
		uc.logFailure("Get", id, err)
		return entity.Task{}, err
	}
	return task, nil
}

func (uc *TaskUseCaseImpl) List(ctx context.Context) ([]entity.Task, error) {
	tasks, err := uc.taskRepo.List(ctx)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to list tasks from repository")
		return nil, err
	}
	if tasks == nil {
		tasks = []entity.Task{}
	}

	logger.Log.WithField("count", len(tasks)).Debug("Tasks listed successfully")
	return tasks, nil
}

func (uc *TaskUseCaseImpl) Update(ctx context.Context, id string, patch entity.TaskPatch) (entity.Task, error) {
	logger.Log.WithField("task_id", id).Debug("Starting task update")

	updatedTask, err := uc.taskRepo.Update(ctx, id, patch)
	if err != nil {
		uc.logFailure("Update", id, err)
		return entity.Task{}, err
	}

	logger.Log.WithField("task_id", updatedTask.ID).Info("Task updated successfully")
	return updatedTask, nil
}

func (uc *TaskUseCaseImpl) Delete(ctx context.Context, id string) error {
	if err := uc.taskRepo.Delete(ctx, id); err != nil {
		uc.logFailure("Delete", id, err)
		return err
	}

	logger.Log.WithField("task_id", id).Info("Task deleted successfully")
	return nil
}

// Отсутствующая задача: ожидаемая ситуация, логируем её как warning.
func (uc *TaskUseCaseImpl) logFailure(method, id string, err error) {
	entry := logger.Log.WithFields(logrus.Fields{
		"method":  method,
		"task_id": id,
	}).WithError(err)

	if errors.Is(err, entity.ErrTaskNotFound) {
		entry.Warn("Task not found")
		return
	}
	entry.Error("Task repository call failed")
}
