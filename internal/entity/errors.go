package entity

import (
	"errors"
	"strings"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrInvalidID    = errors.New("invalid task id")
)

// ErrorCode классифицирует ошибку валидации поля.
type ErrorCode string

const (
	CodeMissingField  ErrorCode = "MissingField"
	CodeInvalidEnum   ErrorCode = "InvalidEnum"
	CodeInvalidFormat ErrorCode = "InvalidFormat"
)

type FieldError struct {
	Field   string    `json:"field"`
	Message string    `json:"message"`
	Code    ErrorCode `json:"-"`
}

// ValidationErrors: упорядоченный непустой список ошибок полей.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, fe := range v {
		msgs = append(msgs, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Has сообщает, есть ли у поля ошибка с данным кодом.
func (v ValidationErrors) Has(field string, code ErrorCode) bool {
	for _, fe := range v {
		if fe.Field == field && fe.Code == code {
			return true
		}
	}
	return false
}

func missingTitle() FieldError {
	return FieldError{Field: "title", Message: "Title is required", Code: CodeMissingField}
}

func invalidStatus() FieldError {
	return FieldError{Field: "status", Message: "Invalid status", Code: CodeInvalidEnum}
}

func invalidDueDate() FieldError {
	return FieldError{Field: "dueDate", Message: "Invalid due date", Code: CodeInvalidFormat}
}
