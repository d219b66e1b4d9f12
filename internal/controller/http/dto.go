package http

import "github.com/KarpovAlexandrGo/task-api/internal/entity"

// ErrorResponse: тело ответа для всех ошибок, кроме ошибок валидации.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidationErrorResponse перечисляет ошибки полей в порядке проверки.
type ValidationErrorResponse struct {
	Errors []entity.FieldError `json:"errors"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
