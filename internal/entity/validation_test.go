package entity

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestTaskPayload_ToTask(t *testing.T) {
	tests := []struct {
		name      string
		payload   TaskPayload
		wantCodes map[string]ErrorCode
	}{
		{
			name:      "missing title",
			payload:   TaskPayload{},
			wantCodes: map[string]ErrorCode{"title": CodeMissingField},
		},
		{
			name:      "blank title",
			payload:   TaskPayload{Title: strPtr("   \t")},
			wantCodes: map[string]ErrorCode{"title": CodeMissingField},
		},
		{
			name:      "unknown status",
			payload:   TaskPayload{Title: strPtr("a"), Status: strPtr("Done")},
			wantCodes: map[string]ErrorCode{"status": CodeInvalidEnum},
		},
		{
			name:      "lowercase status is not accepted",
			payload:   TaskPayload{Title: strPtr("a"), Status: strPtr("pending")},
			wantCodes: map[string]ErrorCode{"status": CodeInvalidEnum},
		},
		{
			name:      "bad due date",
			payload:   TaskPayload{Title: strPtr("a"), DueDate: strPtr("next tuesday")},
			wantCodes: map[string]ErrorCode{"dueDate": CodeInvalidFormat},
		},
		{
			name:    "all fields invalid",
			payload: TaskPayload{Status: strPtr("x"), DueDate: strPtr("y")},
			wantCodes: map[string]ErrorCode{
				"title":   CodeMissingField,
				"status":  CodeInvalidEnum,
				"dueDate": CodeInvalidFormat,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.payload.ToTask()
			require.Error(t, err)

			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.Len(t, verrs, len(tt.wantCodes))
			for field, code := range tt.wantCodes {
				assert.True(t, verrs.Has(field, code), "expected %s on %s", code, field)
			}
		})
	}
}

func TestTaskPayload_ToTask_ErrorOrder(t *testing.T) {
	_, err := TaskPayload{Status: strPtr("x"), DueDate: strPtr("y")}.ToTask()

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 3)
	assert.Equal(t, "title", verrs[0].Field)
	assert.Equal(t, "status", verrs[1].Field)
	assert.Equal(t, "dueDate", verrs[2].Field)
}

func TestTaskPayload_ToTask_Normalizes(t *testing.T) {
	task, err := TaskPayload{
		Title:       strPtr("  Buy milk  "),
		Description: strPtr("  two litres "),
		DueDate:     strPtr("2025-03-01T10:30:00+02:00"),
	}.ToTask()
	require.NoError(t, err)

	assert.Equal(t, "Buy milk", task.Title)
	assert.Equal(t, "two litres", task.Description)
	assert.Equal(t, StatusPending, task.Status)
	require.NotNil(t, task.DueDate)
	assert.Equal(t, time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC), *task.DueDate)
	assert.Equal(t, time.UTC, task.DueDate.Location())
}

func TestTaskPayload_ToTask_KeepsStatus(t *testing.T) {
	task, err := TaskPayload{Title: strPtr("a"), Status: strPtr("In Progress")}.ToTask()
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, task.Status)
}

func TestTaskPayload_ToPatch(t *testing.T) {
	patch, err := TaskPayload{Status: strPtr("Completed")}.ToPatch()
	require.NoError(t, err)
	assert.Nil(t, patch.Title)
	assert.Nil(t, patch.Description)
	assert.Nil(t, patch.DueDate)
	require.NotNil(t, patch.Status)
	assert.Equal(t, StatusCompleted, *patch.Status)

	_, err = TaskPayload{Title: strPtr(" ")}.ToPatch()
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.True(t, verrs.Has("title", CodeMissingField))

	patch, err = TaskPayload{}.ToPatch()
	require.NoError(t, err)
	assert.True(t, patch.IsEmpty())
}

func TestParseDueDate(t *testing.T) {
	valid := map[string]time.Time{
		"2025-01-02":                time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		"2025-01-02T03:04:05Z":      time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		"2025-01-02T03:04:05.123Z":  time.Date(2025, 1, 2, 3, 4, 5, 123000000, time.UTC),
		"2025-01-02T03:04:05-01:00": time.Date(2025, 1, 2, 4, 4, 5, 0, time.UTC),
		"20250705":                  time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC),
		"2025-07":                   time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		" 2025-07-05 ":              time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC),
	}
	for in, want := range valid {
		got, err := ParseDueDate(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), "%s: got %s", in, got)
	}

	invalid := []string{
		"",
		"yesterday",
		"02/01/2025",
		"2025-13",
		"2025070",
		"202507051",
		"9999-12-31T23:00:00-05:00",
	}
	for _, in := range invalid {
		_, err := ParseDueDate(in)
		assert.Error(t, err, in)
	}
}

func TestTask_Validate(t *testing.T) {
	task := Task{Title: "ok", Status: StatusCompleted}
	assert.NoError(t, task.Validate())

	task = Task{Title: " ", Status: "Archived"}
	err := task.Validate()
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.True(t, verrs.Has("title", CodeMissingField))
	assert.True(t, verrs.Has("status", CodeInvalidEnum))
}

func TestTaskPatch_Apply(t *testing.T) {
	task := Task{Title: "old", Description: "keep", Status: StatusPending}
	status := StatusCompleted
	TaskPatch{Status: &status}.Apply(&task)

	assert.Equal(t, "old", task.Title)
	assert.Equal(t, "keep", task.Description)
	assert.Equal(t, StatusCompleted, task.Status)
	assert.Nil(t, task.DueDate)
}

func TestTaskPayload_UnmarshalJSON_WrongTypes(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCodes map[string]ErrorCode
	}{
		{
			name:      "numeric status",
			body:      `{"title":"a","status":5}`,
			wantCodes: map[string]ErrorCode{"status": CodeInvalidEnum},
		},
		{
			name:      "numeric due date",
			body:      `{"title":"a","dueDate":12345}`,
			wantCodes: map[string]ErrorCode{"dueDate": CodeInvalidFormat},
		},
		{
			name: "object status and array due date",
			body: `{"status":{"v":1},"dueDate":[]}`,
			wantCodes: map[string]ErrorCode{
				"title":   CodeMissingField,
				"status":  CodeInvalidEnum,
				"dueDate": CodeInvalidFormat,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var payload TaskPayload
			require.NoError(t, json.Unmarshal([]byte(tt.body), &payload))

			_, err := payload.ToTask()
			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.Len(t, verrs, len(tt.wantCodes))
			for field, code := range tt.wantCodes {
				assert.True(t, verrs.Has(field, code), "expected %s on %s", code, field)
			}
		})
	}
}

func TestTaskPayload_UnmarshalJSON_NullIsAbsent(t *testing.T) {
	var payload TaskPayload
	require.NoError(t, json.Unmarshal([]byte(`{"dueDate":12345}`), &payload))
	require.NoError(t, json.Unmarshal([]byte(`{"title":"a","status":null,"dueDate":null}`), &payload))

	task, err := payload.ToTask()
	require.NoError(t, err)
	assert.Equal(t, StatusPending, task.Status)
	assert.Nil(t, task.DueDate)
}

func TestTaskPayload_UnmarshalJSON_StringFields(t *testing.T) {
	var payload TaskPayload
	require.NoError(t, json.Unmarshal([]byte(`{"status":"Completed","dueDate":"20250705"}`), &payload))

	patch, err := payload.ToPatch()
	require.NoError(t, err)
	require.NotNil(t, patch.Status)
	assert.Equal(t, StatusCompleted, *patch.Status)
	require.NotNil(t, patch.DueDate)
	assert.True(t, time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC).Equal(*patch.DueDate))

	assert.Error(t, json.Unmarshal([]byte(`{"title":42}`), &payload))
}
