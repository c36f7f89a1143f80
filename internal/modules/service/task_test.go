package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/planhub-io/planhub/internal/modules/model"
	"github.com/planhub-io/planhub/internal/pkg/apperr"
	"github.com/planhub-io/planhub/internal/pkg/events"
)

func str(s string) *string { return &s }

func TestTaskService_Create(t *testing.T) {
	projectID := uuid.New()
	creatorID := uuid.New()

	t.Run("defaults to todo status", func(t *testing.T) {
		tasks := &MockTaskRepo{}
		projects := &MockProjectRepo{}
		users := &MockUserRepo{}

		projects.On("GetByID", mock.Anything, projectID).Return(&model.Project{ID: projectID}, nil)
		tasks.On("Create", mock.Anything, mock.MatchedBy(func(task *model.Task) bool {
			return task.Status == model.TaskStatusTodo && task.ProjectID == projectID
		})).Return(nil)

		svc := NewTaskService(tasks, projects, users, events.NewBus(zap.NewNop()))
		task, err := svc.Create(context.Background(), CreateTaskInput{
			Title:       "write release notes",
			ProjectID:   projectID,
			CreatedByID: creatorID,
		})
		require.NoError(t, err)

		assert.Equal(t, model.TaskStatusTodo, task.Status)
		assert.False(t, task.UpdatedAt.Before(task.CreatedAt))
		tasks.AssertExpectations(t)
	})

	t.Run("missing project id", func(t *testing.T) {
		svc := NewTaskService(&MockTaskRepo{}, &MockProjectRepo{}, &MockUserRepo{}, events.NewBus(zap.NewNop()))

		_, err := svc.Create(context.Background(), CreateTaskInput{Title: "orphan"})

		assert.ErrorIs(t, err, apperr.ErrBadRequest)
	})

	t.Run("unknown project", func(t *testing.T) {
		projects := &MockProjectRepo{}
		projects.On("GetByID", mock.Anything, projectID).Return(nil, gorm.ErrRecordNotFound)

		svc := NewTaskService(&MockTaskRepo{}, projects, &MockUserRepo{}, events.NewBus(zap.NewNop()))
		_, err := svc.Create(context.Background(), CreateTaskInput{Title: "x", ProjectID: projectID})

		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("unknown assignee", func(t *testing.T) {
		assigneeID := uuid.New()
		projects := &MockProjectRepo{}
		users := &MockUserRepo{}
		projects.On("GetByID", mock.Anything, projectID).Return(&model.Project{ID: projectID}, nil)
		users.On("GetByID", mock.Anything, assigneeID).Return(nil, gorm.ErrRecordNotFound)

		svc := NewTaskService(&MockTaskRepo{}, projects, users, events.NewBus(zap.NewNop()))
		_, err := svc.Create(context.Background(), CreateTaskInput{
			Title:        "x",
			ProjectID:    projectID,
			AssignedToID: &assigneeID,
		})

		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestTaskService_Update(t *testing.T) {
	taskID := uuid.New()
	created := time.Now().UTC().Add(-time.Hour)

	existing := func() *model.Task {
		return &model.Task{
			ID:        taskID,
			Title:     "old title",
			Status:    model.TaskStatusTodo,
			Priority:  model.TaskPriorityMedium,
			ProjectID: uuid.New(),
			CreatedAt: created,
			UpdatedAt: created,
		}
	}

	t.Run("publishes event after persisted update", func(t *testing.T) {
		tasks := &MockTaskRepo{}
		tasks.On("GetByID", mock.Anything, taskID).Return(existing(), nil)
		tasks.On("Update", mock.Anything, mock.Anything).Return(nil)

		bus := events.NewBus(zap.NewNop())
		var published []uuid.UUID
		bus.Subscribe(events.TaskUpdated{}.Name(), func(ctx context.Context, e events.Event) error {
			published = append(published, e.(events.TaskUpdated).TaskID)
			return nil
		})

		svc := NewTaskService(tasks, &MockProjectRepo{}, &MockUserRepo{}, bus)
		task, err := svc.Update(context.Background(), taskID, UpdateTaskInput{
			Title:  str("new title"),
			Status: str(model.TaskStatusInProgress),
		})
		require.NoError(t, err)

		assert.Equal(t, "new title", task.Title)
		assert.Equal(t, model.TaskStatusInProgress, task.Status)
		assert.True(t, task.UpdatedAt.After(created))
		assert.Equal(t, []uuid.UUID{taskID}, published)
	})

	t.Run("no event when the write fails", func(t *testing.T) {
		tasks := &MockTaskRepo{}
		tasks.On("GetByID", mock.Anything, taskID).Return(existing(), nil)
		tasks.On("Update", mock.Anything, mock.Anything).Return(errors.New("write failed"))

		bus := events.NewBus(zap.NewNop())
		fired := false
		bus.Subscribe(events.TaskUpdated{}.Name(), func(ctx context.Context, e events.Event) error {
			fired = true
			return nil
		})

		svc := NewTaskService(tasks, &MockProjectRepo{}, &MockUserRepo{}, bus)
		_, err := svc.Update(context.Background(), taskID, UpdateTaskInput{Title: str("x")})

		assert.Error(t, err)
		assert.False(t, fired)
	})

	t.Run("absent fields keep current values", func(t *testing.T) {
		tasks := &MockTaskRepo{}
		tasks.On("GetByID", mock.Anything, taskID).Return(existing(), nil)
		tasks.On("Update", mock.Anything, mock.Anything).Return(nil)

		svc := NewTaskService(tasks, &MockProjectRepo{}, &MockUserRepo{}, events.NewBus(zap.NewNop()))
		task, err := svc.Update(context.Background(), taskID, UpdateTaskInput{
			Status: str(model.TaskStatusDone),
		})
		require.NoError(t, err)

		assert.Equal(t, "old title", task.Title)
		assert.Equal(t, model.TaskPriorityMedium, task.Priority)
		assert.Equal(t, model.TaskStatusDone, task.Status)
	})

	t.Run("unknown task", func(t *testing.T) {
		tasks := &MockTaskRepo{}
		tasks.On("GetByID", mock.Anything, taskID).Return(nil, gorm.ErrRecordNotFound)

		svc := NewTaskService(tasks, &MockProjectRepo{}, &MockUserRepo{}, events.NewBus(zap.NewNop()))
		_, err := svc.Update(context.Background(), taskID, UpdateTaskInput{Title: str("x")})

		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestTaskService_Delete(t *testing.T) {
	taskID := uuid.New()

	t.Run("deletes existing task", func(t *testing.T) {
		tasks := &MockTaskRepo{}
		tasks.On("GetByID", mock.Anything, taskID).Return(&model.Task{ID: taskID}, nil)
		tasks.On("Delete", mock.Anything, taskID).Return(nil)

		svc := NewTaskService(tasks, &MockProjectRepo{}, &MockUserRepo{}, events.NewBus(zap.NewNop()))
		assert.NoError(t, svc.Delete(context.Background(), taskID))
		tasks.AssertExpectations(t)
	})

	t.Run("unknown task", func(t *testing.T) {
		tasks := &MockTaskRepo{}
		tasks.On("GetByID", mock.Anything, taskID).Return(nil, gorm.ErrRecordNotFound)

		svc := NewTaskService(tasks, &MockProjectRepo{}, &MockUserRepo{}, events.NewBus(zap.NewNop()))
		assert.ErrorIs(t, svc.Delete(context.Background(), taskID), apperr.ErrNotFound)
	})
}
