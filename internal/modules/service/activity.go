package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/planhub-io/planhub/internal/modules/model"
	"github.com/planhub-io/planhub/internal/modules/repo"
	"github.com/planhub-io/planhub/internal/pkg/events"
	"github.com/planhub-io/planhub/internal/pkg/paging"
)

// ActivityService turns committed domain events into durable Activity rows
// plus a best-effort notification fan-out to project members. It runs only
// after the triggering write has committed; its own insert uses a separate
// transaction, so a failure here can never undo the trigger.
type ActivityService interface {
	Register(bus *events.Bus)
	ListForUser(ctx context.Context, in ListActivitiesInput) (*ListActivitiesOutput, error)
}

type activityService struct {
	activities repo.ActivityRepo
	comments   repo.CommentRepo
	tasks      repo.TaskRepo
	projects   repo.ProjectRepo
	users      repo.UserRepo
	notifier   Notifier
	log        *zap.Logger
}

func NewActivityService(
	activities repo.ActivityRepo,
	comments repo.CommentRepo,
	tasks repo.TaskRepo,
	projects repo.ProjectRepo,
	users repo.UserRepo,
	notifier Notifier,
	log *zap.Logger,
) ActivityService {
	return &activityService{
		activities: activities,
		comments:   comments,
		tasks:      tasks,
		projects:   projects,
		users:      users,
		notifier:   notifier,
		log:        log,
	}
}

func (s *activityService) Register(bus *events.Bus) {
	bus.Subscribe(events.CommentAdded{}.Name(), s.handleCommentAdded)
	bus.Subscribe(events.TaskUpdated{}.Name(), s.handleTaskUpdated)
}

func (s *activityService) handleCommentAdded(ctx context.Context, e events.Event) error {
	ev, ok := e.(events.CommentAdded)
	if !ok {
		return fmt.Errorf("unexpected event payload %T", e)
	}

	// Re-fetch by id: the published event carries only the id, and the row
	// may have vanished between publish and dispatch.
	comment, err := s.comments.GetByID(ctx, ev.CommentID)
	if err != nil {
		return orNotFound(err, fmt.Sprintf("comment %s", ev.CommentID))
	}
	task, err := s.tasks.GetByID(ctx, comment.TaskID)
	if err != nil {
		return orNotFound(err, fmt.Sprintf("task %s", comment.TaskID))
	}
	actor, err := s.users.GetByID(ctx, comment.UserID)
	if err != nil {
		return orNotFound(err, fmt.Sprintf("user %s", comment.UserID))
	}
	project, err := s.projects.GetByID(ctx, task.ProjectID)
	if err != nil {
		return orNotFound(err, fmt.Sprintf("project %s", task.ProjectID))
	}

	activity := &model.Activity{
		Action:    model.ActionCommentAdded,
		Details:   fmt.Sprintf("%s has added a comment to %s", actor.Username, task.Title),
		TaskID:    task.ID,
		ProjectID: project.ID,
		UserID:    actor.ID,
		Meta:      map[string]any{"comment_id": comment.ID.String()},
		CreatedAt: time.Now().UTC(),
	}
	return s.record(ctx, activity, project.ID)
}

func (s *activityService) handleTaskUpdated(ctx context.Context, e events.Event) error {
	ev, ok := e.(events.TaskUpdated)
	if !ok {
		return fmt.Errorf("unexpected event payload %T", e)
	}

	task, err := s.tasks.GetByID(ctx, ev.TaskID)
	if err != nil {
		return orNotFound(err, fmt.Sprintf("task %s", ev.TaskID))
	}
	actor, err := s.users.GetByID(ctx, task.CreatedByID)
	if err != nil {
		return orNotFound(err, fmt.Sprintf("user %s", task.CreatedByID))
	}
	project, err := s.projects.GetByID(ctx, task.ProjectID)
	if err != nil {
		return orNotFound(err, fmt.Sprintf("project %s", task.ProjectID))
	}

	activity := &model.Activity{
		Action:    model.ActionTaskUpdated,
		Details:   fmt.Sprintf("Task '%s' was updated.", task.Title),
		TaskID:    task.ID,
		ProjectID: project.ID,
		UserID:    actor.ID,
		CreatedAt: time.Now().UTC(),
	}
	return s.record(ctx, activity, project.ID)
}

// record persists the activity in its own transaction, then fans out to
// the current project member set.
func (s *activityService) record(ctx context.Context, activity *model.Activity, projectID uuid.UUID) error {
	if err := s.activities.Create(ctx, activity); err != nil {
		return fmt.Errorf("persist activity: %w", err)
	}

	members, err := s.projects.Members(ctx, projectID)
	if err != nil {
		s.log.Sugar().Warnw("recipient resolution failed, activity persisted without fan-out",
			"activity_id", activity.ID, "project_id", projectID, "err", err)
		return nil
	}

	s.notifier.NotifyActivity(ctx, members, activity)
	return nil
}

type ListActivitiesInput struct {
	UserID uuid.UUID `json:"user_id"`
	Limit  int       `json:"limit"`
	Cursor string    `json:"cursor"`
}

type ListActivitiesOutput struct {
	Items      []model.Activity `json:"items"`
	NextCursor string           `json:"next_cursor,omitempty"`
	HasMore    bool             `json:"has_more"`
}

func (s *activityService) ListForUser(ctx context.Context, in ListActivitiesInput) (*ListActivitiesOutput, error) {
	var afterT time.Time
	var afterID uuid.UUID
	var err error
	if in.Cursor != "" {
		afterT, afterID, err = paging.DecodeCursor(in.Cursor)
		if err != nil {
			return nil, err
		}
	}

	// Query limit+1 is used to determine has_more
	items, err := s.activities.ListForUserProjects(ctx, in.UserID, afterT, afterID, in.Limit+1)
	if err != nil {
		return nil, err
	}

	out := &ListActivitiesOutput{Items: items}
	if len(items) > in.Limit {
		out.HasMore = true
		out.Items = items[:in.Limit]
		last := out.Items[len(out.Items)-1]
		out.NextCursor = paging.EncodeCursor(last.CreatedAt, last.ID)
	}
	return out, nil
}
