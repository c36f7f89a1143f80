package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/planhub-io/planhub/internal/modules/model"
	"github.com/planhub-io/planhub/internal/modules/repo"
	"github.com/planhub-io/planhub/internal/pkg/apperr"
	"github.com/planhub-io/planhub/internal/pkg/events"
)

type CommentService interface {
	Create(ctx context.Context, in CreateCommentInput) (*model.Comment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Comment, error)
	List(ctx context.Context) ([]model.Comment, error)
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]model.Comment, error)
	Update(ctx context.Context, id uuid.UUID, actorID uuid.UUID, content string) (*model.Comment, error)
	Delete(ctx context.Context, id uuid.UUID, actor *model.User) error
}

type commentService struct {
	comments repo.CommentRepo
	tasks    repo.TaskRepo
	users    repo.UserRepo
	bus      *events.Bus
}

func NewCommentService(comments repo.CommentRepo, tasks repo.TaskRepo, users repo.UserRepo, bus *events.Bus) CommentService {
	return &commentService{comments: comments, tasks: tasks, users: users, bus: bus}
}

type CreateCommentInput struct {
	Content string    `json:"content"`
	TaskID  uuid.UUID `json:"task_id"`
	UserID  uuid.UUID `json:"-"`
}

func (s *commentService) Create(ctx context.Context, in CreateCommentInput) (*model.Comment, error) {
	if in.Content == "" {
		return nil, fmt.Errorf("content is required: %w", apperr.ErrBadRequest)
	}
	if _, err := s.tasks.GetByID(ctx, in.TaskID); err != nil {
		return nil, orNotFound(err, fmt.Sprintf("task %s", in.TaskID))
	}
	if _, err := s.users.GetByID(ctx, in.UserID); err != nil {
		return nil, orNotFound(err, fmt.Sprintf("user %s", in.UserID))
	}

	now := time.Now().UTC()
	c := &model.Comment{
		Content:   in.Content,
		TaskID:    in.TaskID,
		UserID:    in.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	s.bus.Publish(ctx, events.CommentAdded{CommentID: c.ID})
	return c, nil
}

func (s *commentService) GetByID(ctx context.Context, id uuid.UUID) (*model.Comment, error) {
	c, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, fmt.Sprintf("comment %s", id))
	}
	return c, nil
}

func (s *commentService) List(ctx context.Context) ([]model.Comment, error) {
	return s.comments.List(ctx)
}

func (s *commentService) ListByTask(ctx context.Context, taskID uuid.UUID) ([]model.Comment, error) {
	if _, err := s.tasks.GetByID(ctx, taskID); err != nil {
		return nil, orNotFound(err, fmt.Sprintf("task %s", taskID))
	}
	return s.comments.ListByTask(ctx, taskID)
}

func (s *commentService) Update(ctx context.Context, id uuid.UUID, actorID uuid.UUID, content string) (*model.Comment, error) {
	c, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, fmt.Sprintf("comment %s", id))
	}
	if c.UserID != actorID {
		return nil, fmt.Errorf("only the author may edit a comment: %w", apperr.ErrForbidden)
	}
	if content == "" {
		return nil, fmt.Errorf("content is required: %w", apperr.ErrBadRequest)
	}

	c.Content = content
	c.UpdatedAt = time.Now().UTC()
	if err := s.comments.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	return c, nil
}

func (s *commentService) Delete(ctx context.Context, id uuid.UUID, actor *model.User) error {
	c, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return orNotFound(err, fmt.Sprintf("comment %s", id))
	}
	if c.UserID != actor.ID && actor.Role != model.RoleAdmin {
		return fmt.Errorf("only the author or an admin may delete a comment: %w", apperr.ErrForbidden)
	}
	return s.comments.Delete(ctx, id)
}
