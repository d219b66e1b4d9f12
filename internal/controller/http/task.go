package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/KarpovAlexandrGo/task-api/internal/entity"
	"github.com/KarpovAlexandrGo/task-api/internal/usecase"
	"github.com/KarpovAlexandrGo/task-api/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

const (
	msgInvalidPayload = "Invalid request payload"
	msgTaskNotFound   = "Task not found"
	msgInternal       = "Internal server error"
)

var errTrailingData = errors.New("unexpected data after JSON body")

// TaskHandler обрабатывает HTTP-запросы для работы с задачами.
type TaskHandler struct {
	taskUseCase usecase.TaskUseCase
}

// NewTaskHandler создает новый экземпляр TaskHandler.
func NewTaskHandler(taskUseCase usecase.TaskUseCase) *TaskHandler {
	return &TaskHandler{
		taskUseCase: taskUseCase,
	}
}

// RegisterRoutes регистрирует маршруты для обработки задач.
func (h *TaskHandler) RegisterRoutes(r chi.Router) {
	r.Route("/tasks", func(r chi.Router) {
		r.Post("/", h.CreateTask)
		r.Get("/", h.ListTasks)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetTask)
			r.Put("/", h.UpdateTask)
			r.Delete("/", h.DeleteTask)
		})
	})
}

// CreateTask обрабатывает создание новой задачи.
// @Summary      Создать задачу
// @Description  Создает новую задачу. Статус по умолчанию Pending.
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        task body     entity.TaskPayload true "Данные задачи"
// @Success      201  {object} entity.Task
// @Failure      400  {object} ValidationErrorResponse
// @Failure      500  {object} ErrorResponse
// @Router       /tasks [post]
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	task, err := payload.ToTask()
	if err != nil {
		h.fail(w, r, "Create", "", err)
		return
	}

	createdTask, err := h.taskUseCase.Create(r.Context(), task)
	if err != nil {
		h.fail(w, r, "Create", "", err)
		return
	}

	respondWithJSON(w, http.StatusCreated, createdTask)
}

// ListTasks обрабатывает получение списка задач.
// @Summary      Список задач
// @Description  Возвращает все задачи без пагинации
// @Tags         tasks
// @Produce      json
// @Success      200    {array}  entity.Task
// @Failure      500    {object} ErrorResponse
// @Router       /tasks [get]
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.taskUseCase.List(r.Context())
	if err != nil {
		h.fail(w, r, "List", "", err)
		return
	}

	respondWithJSON(w, http.StatusOK, tasks)
}

// GetTask обрабатывает получение задачи по ID.
// @Summary      Получить задачу
// @Description  Возвращает задачу по её ID
// @Tags         tasks
// @Produce      json
// @Param        id   path     string true "ID задачи"
// @Success      200  {object} entity.Task
// @Failure      404  {object} ErrorResponse
// @Failure      500  {object} ErrorResponse
// @Router       /tasks/{id} [get]
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	task, err := h.taskUseCase.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "Get", id, err)
		return
	}

	respondWithJSON(w, http.StatusOK, task)
}

// UpdateTask обрабатывает частичное обновление задачи.
// @Summary      Обновить задачу
// @Description  Меняет только переданные поля
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id   path     string true "ID задачи"
// @Param        task body     entity.TaskPayload true "Обновляемые поля"
// @Success      200  {object} entity.Task
// @Failure      400  {object} ValidationErrorResponse
// @Failure      404  {object} ErrorResponse
// @Failure      500  {object} ErrorResponse
// @Router       /tasks/{id} [put]
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	patch, err := payload.ToPatch()
	if err != nil {
		h.fail(w, r, "Update", id, err)
		return
	}

	updatedTask, err := h.taskUseCase.Update(r.Context(), id, patch)
	if err != nil {
		h.fail(w, r, "Update", id, err)
		return
	}

	respondWithJSON(w, http.StatusOK, updatedTask)
}

// DeleteTask обрабатывает удаление задачи.
// @Summary      Удалить задачу
// @Description  Удаляет задачу по её ID
// @Tags         tasks
// @Produce      json
// @Param        id   path     string true "ID задачи"
// @Success      200  {object} MessageResponse
// @Failure      404  {object} ErrorResponse
// @Failure      500  {object} ErrorResponse
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.taskUseCase.Delete(r.Context(), id); err != nil {
		h.fail(w, r, "Delete", id, err)
		return
	}

	respondWithJSON(w, http.StatusOK, MessageResponse{Message: "Task deleted"})
}

// statusFor сопоставляет вид ошибки с HTTP-статусом.
func statusFor(err error) int {
	var verrs entity.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrTaskNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// fail логирует ошибку и отдает ответ. Детали ошибки хранилища наружу не уходят.
func (h *TaskHandler) fail(w http.ResponseWriter, r *http.Request, method, id string, err error) {
	code := statusFor(err)

	entry := logger.Log.WithFields(logrus.Fields{
		"method":     method,
		"task_id":    id,
		"status":     code,
		"request_id": middleware.GetReqID(r.Context()),
	}).WithError(err)

	switch code {
	case http.StatusBadRequest:
		entry.Warn("Task validation failed")
		var verrs entity.ValidationErrors
		errors.As(err, &verrs)
		respondWithJSON(w, code, ValidationErrorResponse{Errors: verrs})
	case http.StatusNotFound:
		entry.Warn("Task not found")
		respondWithError(w, code, msgTaskNotFound)
	default:
		entry.Error("Task operation failed")
		respondWithError(w, code, msgInternal)
	}
}

// Пустое тело эквивалентно {}. Данные после JSON-объекта считаются ошибкой.
func decodePayload(w http.ResponseWriter, r *http.Request) (entity.TaskPayload, bool) {
	var payload entity.TaskPayload
	dec := json.NewDecoder(r.Body)

	err := dec.Decode(&payload)
	switch {
	case errors.Is(err, io.EOF):
		err = nil
	case err == nil:
		if extra := dec.Decode(&struct{}{}); !errors.Is(extra, io.EOF) {
			err = errTrailingData
		}
	}

	if err != nil {
		logger.Log.WithFields(logrus.Fields{
			"path":       r.URL.Path,
			"request_id": middleware.GetReqID(r.Context()),
		}).WithError(err).Warn("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, msgInvalidPayload)
		return entity.TaskPayload{}, false
	}
	return payload, true
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

// Тело сериализуется до WriteHeader: ошибка кодирования отдается как 500.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	var body []byte
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			logger.Log.WithError(err).Error("Failed to encode response")
			code = http.StatusInternalServerError
			data, _ = json.Marshal(ErrorResponse{Error: msgInternal})
		}
		body = append(data, '\n')
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(body); err != nil {
		logger.Log.WithError(err).Warn("Failed to write response")
	}
}
