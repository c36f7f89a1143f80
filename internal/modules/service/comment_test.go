package service

import (
	"context"
	"errors"
	"testing"

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

func TestCommentService_Create(t *testing.T) {
	taskID := uuid.New()
	authorID := uuid.New()

	t.Run("publishes event after persisted insert", func(t *testing.T) {
		comments := &MockCommentRepo{}
		tasks := &MockTaskRepo{}
		users := &MockUserRepo{}

		tasks.On("GetByID", mock.Anything, taskID).Return(&model.Task{ID: taskID}, nil)
		users.On("GetByID", mock.Anything, authorID).Return(&model.User{ID: authorID}, nil)
		comments.On("Create", mock.Anything, mock.Anything).Return(nil)

		bus := events.NewBus(zap.NewNop())
		fired := false
		bus.Subscribe(events.CommentAdded{}.Name(), func(ctx context.Context, e events.Event) error {
			fired = true
			return nil
		})

		svc := NewCommentService(comments, tasks, users, bus)
		c, err := svc.Create(context.Background(), CreateCommentInput{
			Content: "looks good",
			TaskID:  taskID,
			UserID:  authorID,
		})
		require.NoError(t, err)

		assert.Equal(t, "looks good", c.Content)
		assert.True(t, fired)
	})

	t.Run("no event when the insert fails", func(t *testing.T) {
		comments := &MockCommentRepo{}
		tasks := &MockTaskRepo{}
		users := &MockUserRepo{}

		tasks.On("GetByID", mock.Anything, taskID).Return(&model.Task{ID: taskID}, nil)
		users.On("GetByID", mock.Anything, authorID).Return(&model.User{ID: authorID}, nil)
		comments.On("Create", mock.Anything, mock.Anything).Return(errors.New("insert failed"))

		bus := events.NewBus(zap.NewNop())
		fired := false
		bus.Subscribe(events.CommentAdded{}.Name(), func(ctx context.Context, e events.Event) error {
			fired = true
			return nil
		})

		svc := NewCommentService(comments, tasks, users, bus)
		_, err := svc.Create(context.Background(), CreateCommentInput{
			Content: "x",
			TaskID:  taskID,
			UserID:  authorID,
		})

		assert.Error(t, err)
		assert.False(t, fired)
	})

	t.Run("empty content", func(t *testing.T) {
		svc := NewCommentService(&MockCommentRepo{}, &MockTaskRepo{}, &MockUserRepo{}, events.NewBus(zap.NewNop()))

		_, err := svc.Create(context.Background(), CreateCommentInput{TaskID: taskID, UserID: authorID})

		assert.ErrorIs(t, err, apperr.ErrBadRequest)
	})

	t.Run("unknown task", func(t *testing.T) {
		tasks := &MockTaskRepo{}
		tasks.On("GetByID", mock.Anything, taskID).Return(nil, gorm.ErrRecordNotFound)

		svc := NewCommentService(&MockCommentRepo{}, tasks, &MockUserRepo{}, events.NewBus(zap.NewNop()))
		_, err := svc.Create(context.Background(), CreateCommentInput{
			Content: "x",
			TaskID:  taskID,
			UserID:  authorID,
		})

		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestCommentService_Update(t *testing.T) {
	commentID := uuid.New()
	authorID := uuid.New()

	t.Run("only the author may edit", func(t *testing.T) {
		comments := &MockCommentRepo{}
		comments.On("GetByID", mock.Anything, commentID).
			Return(&model.Comment{ID: commentID, UserID: authorID}, nil)

		svc := NewCommentService(comments, &MockTaskRepo{}, &MockUserRepo{}, events.NewBus(zap.NewNop()))
		_, err := svc.Update(context.Background(), commentID, uuid.New(), "edited")

		assert.ErrorIs(t, err, apperr.ErrForbidden)
	})

	t.Run("author edit persists", func(t *testing.T) {
		comments := &MockCommentRepo{}
		comments.On("GetByID", mock.Anything, commentID).
			Return(&model.Comment{ID: commentID, UserID: authorID, Content: "before"}, nil)
		comments.On("Update", mock.Anything, mock.MatchedBy(func(c *model.Comment) bool {
			return c.Content == "after"
		})).Return(nil)

		svc := NewCommentService(comments, &MockTaskRepo{}, &MockUserRepo{}, events.NewBus(zap.NewNop()))
		c, err := svc.Update(context.Background(), commentID, authorID, "after")
		require.NoError(t, err)

		assert.Equal(t, "after", c.Content)
		comments.AssertExpectations(t)
	})
}

func TestCommentService_Delete(t *testing.T) {
	commentID := uuid.New()
	authorID := uuid.New()

	tests := []struct {
		name    string
		actor   *model.User
		wantErr error
	}{
		{"author may delete", &model.User{ID: authorID, Role: model.RoleDeveloper}, nil},
		{"admin may delete", &model.User{ID: uuid.New(), Role: model.RoleAdmin}, nil},
		{"stranger may not", &model.User{ID: uuid.New(), Role: model.RoleDeveloper}, apperr.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comments := &MockCommentRepo{}
			comments.On("GetByID", mock.Anything, commentID).
				Return(&model.Comment{ID: commentID, UserID: authorID}, nil)
			if tt.wantErr == nil {
				comments.On("Delete", mock.Anything, commentID).Return(nil)
			}

			svc := NewCommentService(comments, &MockTaskRepo{}, &MockUserRepo{}, events.NewBus(zap.NewNop()))
			err := svc.Delete(context.Background(), commentID, tt.actor)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
