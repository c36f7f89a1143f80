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

type TaskService interface {
	Create(ctx context.Context, in CreateTaskInput) (*model.Task, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error)
	List(ctx context.Context) ([]model.Task, error)
	ListByStatus(ctx context.Context, status string) ([]model.Task, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.Task, error)
	Update(ctx context.Context, id uuid.UUID, in UpdateTaskInput) (*model.Task, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type taskService struct {
	tasks    repo.TaskRepo
	projects repo.ProjectRepo
	users    repo.UserRepo
	bus      *events.Bus
}

func NewTaskService(tasks repo.TaskRepo, projects repo.ProjectRepo, users repo.UserRepo, bus *events.Bus) TaskService {
	return &taskService{tasks: tasks, projects: projects, users: users, bus: bus}
}

type CreateTaskInput struct {
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Priority       string     `json:"priority"`
	Type           string     `json:"type"`
	EstimatedHours *int       `json:"estimated_hours"`
	DueDate        *time.Time `json:"due_date"`
	ProjectID      uuid.UUID  `json:"project_id"`
	AssignedToID   *uuid.UUID `json:"assigned_to_id"`
	CreatedByID    uuid.UUID  `json:"-"`
}

func (s *taskService) Create(ctx context.Context, in CreateTaskInput) (*model.Task, error) {
	if in.ProjectID == uuid.Nil {
		return nil, fmt.Errorf("project_id is required: %w", apperr.ErrBadRequest)
	}
	if _, err := s.projects.GetByID(ctx, in.ProjectID); err != nil {
		return nil, orNotFound(err, fmt.Sprintf("project %s", in.ProjectID))
	}
	if in.AssignedToID != nil {
		if _, err := s.users.GetByID(ctx, *in.AssignedToID); err != nil {
			return nil, orNotFound(err, fmt.Sprintf("user %s", *in.AssignedToID))
		}
	}

	now := time.Now().UTC()
	task := &model.Task{
		Title:          in.Title,
		Description:    in.Description,
		Priority:       in.Priority,
		Type:           in.Type,
		Status:         model.TaskStatusTodo,
		EstimatedHours: in.EstimatedHours,
		DueDate:        in.DueDate,
		ProjectID:      in.ProjectID,
		AssignedToID:   in.AssignedToID,
		CreatedByID:    in.CreatedByID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if task.Priority == "" {
		task.Priority = model.TaskPriorityMedium
	}
	if task.Type == "" {
		task.Type = "feature"
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

func (s *taskService) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, fmt.Sprintf("task %s", id))
	}
	return t, nil
}

func (s *taskService) List(ctx context.Context) ([]model.Task, error) {
	return s.tasks.List(ctx)
}

func (s *taskService) ListByStatus(ctx context.Context, status string) ([]model.Task, error) {
	return s.tasks.ListByStatus(ctx, status)
}

func (s *taskService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.Task, error) {
	return s.tasks.ListByProject(ctx, projectID)
}

// UpdateTaskInput is a partial copy: nil fields keep their current value.
// Project and creator references are identity fields and never updatable.
type UpdateTaskInput struct {
	Title          *string    `json:"title"`
	Description    *string    `json:"description"`
	Priority       *string    `json:"priority"`
	Type           *string    `json:"type"`
	Status         *string    `json:"status"`
	EstimatedHours *int       `json:"estimated_hours"`
	DueDate        *time.Time `json:"due_date"`
	AssignedToID   *uuid.UUID `json:"assigned_to_id"`
}

func (s *taskService) Update(ctx context.Context, id uuid.UUID, in UpdateTaskInput) (*model.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, fmt.Sprintf("task %s", id))
	}

	if in.Title != nil {
		task.Title = *in.Title
	}
	if in.Description != nil {
		task.Description = *in.Description
	}
	if in.Priority != nil {
		task.Priority = *in.Priority
	}
	if in.Type != nil {
		task.Type = *in.Type
	}
	if in.Status != nil {
		task.Status = *in.Status
	}
	if in.EstimatedHours != nil {
		task.EstimatedHours = in.EstimatedHours
	}
	if in.DueDate != nil {
		task.DueDate = in.DueDate
	}
	if in.AssignedToID != nil {
		if _, err := s.users.GetByID(ctx, *in.AssignedToID); err != nil {
			return nil, orNotFound(err, fmt.Sprintf("user %s", *in.AssignedToID))
		}
		task.AssignedToID = in.AssignedToID
	}
	task.UpdatedAt = time.Now().UTC()

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	// The repository write has committed; only now is the event visible.
	s.bus.Publish(ctx, events.TaskUpdated{TaskID: task.ID})
	return task, nil
}

func (s *taskService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.tasks.GetByID(ctx, id); err != nil {
		return orNotFound(err, fmt.Sprintf("task %s", id))
	}
	return s.tasks.Delete(ctx, id)
}
