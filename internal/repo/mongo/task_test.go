package mongo

import (
	"context"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/KarpovAlexandrGo/task-api/internal/entity"
	"github.com/KarpovAlexandrGo/task-api/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func setupRepo(t *testing.T) *TaskRepository {
	t.Helper()

	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set")
	}

	ctx := context.Background()
	coll := fmt.Sprintf("tasks_test_%d", time.Now().UnixNano())
	repo, err := NewTaskRepository(ctx, uri, "task_api_test", coll, 5*time.Second)
	require.NoError(t, err)

	if err := repo.Ping(ctx); err != nil {
		t.Skipf("MongoDB not available at %s: %v", uri, err)
	}

	t.Cleanup(func() {
		_ = repo.coll.Drop(ctx)
		_ = repo.Close(ctx)
	})
	return repo
}

func TestTaskRepository_CRUD(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	due := time.Date(2025, 6, 1, 12, 0, 0, 123456789, time.UTC)
	created, err := repo.Create(ctx, entity.Task{
		Title:       "Buy milk",
		Description: "semi-skimmed",
		Status:      entity.StatusPending,
		DueDate:     &due,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	status := entity.StatusCompleted
	updated, err := repo.Update(ctx, created.ID, entity.TaskPatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, updated.Status)
	assert.Equal(t, "Buy milk", updated.Title)
	assert.Equal(t, "semi-skimmed", updated.Description)
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	tasks, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.Get(ctx, created.ID)
	assert.ErrorIs(t, err, entity.ErrTaskNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, created.ID), entity.ErrTaskNotFound)
}

func TestTaskRepository_UnknownAndMalformedIDs(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	_, err := repo.Get(ctx, "000000000000000000000000")
	assert.ErrorIs(t, err, entity.ErrTaskNotFound)

	title := "x"
	_, err = repo.Update(ctx, "000000000000000000000000", entity.TaskPatch{Title: &title})
	assert.ErrorIs(t, err, entity.ErrTaskNotFound)

	_, err = repo.Get(ctx, "not-an-object-id")
	assert.ErrorIs(t, err, entity.ErrInvalidID)
}
