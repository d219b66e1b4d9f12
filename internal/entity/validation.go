package entity

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/relvacode/iso8601"
)

var errEmptyDate = errors.New("empty date")

// Сокращенные формы ISO-8601, которые iso8601.ParseString разбирает неверно или не разбирает.
var reducedDateLayouts = []string{"20060102", "2006-01"}

// TaskPayload описывает тело запроса на создание или обновление задачи.
// Указатели позволяют отличить отсутствующее поле от пустого.
type TaskPayload struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	DueDate     *string `json:"dueDate"`

	badStatus  bool
	badDueDate bool
}

// UnmarshalJSON принимает status и dueDate любого JSON-типа: не строка
// превращается в ошибку поля при валидации, а не в ошибку разбора тела.
func (p *TaskPayload) UnmarshalJSON(data []byte) error {
	var raw struct {
		Title       *string         `json:"title"`
		Description *string         `json:"description"`
		Status      json.RawMessage `json:"status"`
		DueDate     json.RawMessage `json:"dueDate"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*p = TaskPayload{Title: raw.Title, Description: raw.Description}
	p.Status, p.badStatus = rawString(raw.Status)
	p.DueDate, p.badDueDate = rawString(raw.DueDate)
	return nil
}

// null и отсутствующее поле равнозначны.
func rawString(raw json.RawMessage) (*string, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, true
	}
	return &s, false
}

// ToTask проверяет тело запроса на создание. Заголовок обязателен,
// статус по умолчанию Pending.
func (p TaskPayload) ToTask() (Task, error) {
	patch, errs := p.check(true)
	if len(errs) > 0 {
		return Task{}, errs
	}

	task := Task{Status: StatusPending}
	patch.Apply(&task)
	return task, nil
}

// ToPatch проверяет тело частичного обновления. Проверяются только переданные
// поля, но переданный заголовок не может быть пустым.
func (p TaskPayload) ToPatch() (TaskPatch, error) {
	patch, errs := p.check(false)
	if len(errs) > 0 {
		return TaskPatch{}, errs
	}
	return patch, nil
}

func (p TaskPayload) check(requireTitle bool) (TaskPatch, ValidationErrors) {
	var (
		patch TaskPatch
		errs  ValidationErrors
	)

	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			errs = append(errs, missingTitle())
		} else {
			patch.Title = &title
		}
	} else if requireTitle {
		errs = append(errs, missingTitle())
	}

	if p.badStatus {
		errs = append(errs, invalidStatus())
	} else if p.Status != nil {
		status := Status(*p.Status)
		if !status.Valid() {
			errs = append(errs, invalidStatus())
		} else {
			patch.Status = &status
		}
	}

	if p.badDueDate {
		errs = append(errs, invalidDueDate())
	} else if p.DueDate != nil {
		due, err := ParseDueDate(*p.DueDate)
		if err != nil {
			errs = append(errs, invalidDueDate())
		} else {
			patch.DueDate = &due
		}
	}

	if p.Description != nil {
		desc := strings.TrimSpace(*p.Description)
		patch.Description = &desc
	}

	return patch, errs
}

// ParseDueDate разбирает ISO-8601 (дата-время, календарная дата, в том числе
// базовая YYYYMMDD и сокращенная YYYY-MM) и приводит к UTC. Год вне 0..9999
// не сериализуется в JSON и отклоняется.
func ParseDueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errEmptyDate
	}

	t, err := parseISO8601(s)
	if err != nil {
		return time.Time{}, err
	}
	t = t.UTC()
	if y := t.Year(); y < 0 || y > 9999 {
		return time.Time{}, fmt.Errorf("year %d out of range", y)
	}
	return t, nil
}

func parseISO8601(s string) (time.Time, error) {
	for _, layout := range reducedDateLayouts {
		if len(s) != len(layout) {
			continue
		}
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	t, err := iso8601.ParseString(s)
	if err != nil {
		d, derr := time.Parse(time.DateOnly, s)
		if derr != nil {
			return time.Time{}, err
		}
		return d, nil
	}
	return t, nil
}
