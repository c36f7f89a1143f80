package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/planhub-io/planhub/internal/infra/identity"
	"github.com/planhub-io/planhub/internal/modules/model"
	"github.com/planhub-io/planhub/internal/modules/repo"
	"github.com/planhub-io/planhub/internal/pkg/apperr"
)

type ProjectService interface {
	Create(ctx context.Context, in CreateProjectInput) (*model.Project, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error)
	List(ctx context.Context) ([]model.Project, error)
	Update(ctx context.Context, id uuid.UUID, in UpdateProjectInput) (*model.Project, error)
	InviteMember(ctx context.Context, projectID uuid.UUID, in InviteMemberInput) (*model.User, error)
	ListMembers(ctx context.Context, projectID uuid.UUID) ([]model.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type projectService struct {
	projects repo.ProjectRepo
	users    repo.UserRepo
	idp      *identity.Client
}

func NewProjectService(projects repo.ProjectRepo, users repo.UserRepo, idp *identity.Client) ProjectService {
	return &projectService{projects: projects, users: users, idp: idp}
}

type CreateProjectInput struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	StartDate   *time.Time  `json:"start_date"`
	EndDate     *time.Time  `json:"end_date"`
	Status      string      `json:"status"`
	Color       string      `json:"color"`
	Icon        string      `json:"icon"`
	MemberIDs   []uuid.UUID `json:"member_ids"`
	CreatedByID uuid.UUID   `json:"-"`
}

func (s *projectService) Create(ctx context.Context, in CreateProjectInput) (*model.Project, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("name is required: %w", apperr.ErrBadRequest)
	}

	members, err := s.resolveMembers(ctx, in.MemberIDs)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &model.Project{
		Name:        in.Name,
		Description: in.Description,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Status:      in.Status,
		Color:       in.Color,
		Icon:        in.Icon,
		CreatedByID: in.CreatedByID,
		Members:     members,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p.Status == "" {
		p.Status = model.ProjectPlanned
	}
	if err := s.projects.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

func (s *projectService) GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, fmt.Sprintf("project %s", id))
	}
	return p, nil
}

func (s *projectService) List(ctx context.Context) ([]model.Project, error) {
	return s.projects.List(ctx)
}

// UpdateProjectInput is a partial copy. MemberIDs, when present, replaces the
// membership set wholesale.
type UpdateProjectInput struct {
	Name        *string      `json:"name"`
	Description *string      `json:"description"`
	StartDate   *time.Time   `json:"start_date"`
	EndDate     *time.Time   `json:"end_date"`
	Status      *string      `json:"status"`
	Color       *string      `json:"color"`
	Icon        *string      `json:"icon"`
	MemberIDs   *[]uuid.UUID `json:"member_ids"`
}

func (s *projectService) Update(ctx context.Context, id uuid.UUID, in UpdateProjectInput) (*model.Project, error) {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, fmt.Sprintf("project %s", id))
	}

	// Resolve the replacement member set up front so a bad member_ids list
	// rejects the whole update before anything is written.
	var members []model.User
	if in.MemberIDs != nil {
		if members, err = s.resolveMembers(ctx, *in.MemberIDs); err != nil {
			return nil, err
		}
	}

	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.StartDate != nil {
		p.StartDate = in.StartDate
	}
	if in.EndDate != nil {
		p.EndDate = in.EndDate
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	if in.Color != nil {
		p.Color = *in.Color
	}
	if in.Icon != nil {
		p.Icon = *in.Icon
	}
	p.UpdatedAt = time.Now().UTC()

	if err := s.projects.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}

	if in.MemberIDs != nil {
		if err := s.projects.ReplaceMembers(ctx, p, members); err != nil {
			return nil, fmt.Errorf("replace project members: %w", err)
		}
		p.Members = members
	}
	return p, nil
}

type InviteMemberInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// InviteMember provisions the identity-provider account, mirrors it locally
// and adds the new user to the project membership.
func (s *projectService) InviteMember(ctx context.Context, projectID uuid.UUID, in InviteMemberInput) (*model.User, error) {
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, orNotFound(err, fmt.Sprintf("project %s", projectID))
	}
	if in.Username == "" || in.Email == "" {
		return nil, fmt.Errorf("username and email are required: %w", apperr.ErrBadRequest)
	}
	role := in.Role
	if role == "" {
		role = model.RoleDeveloper
	}

	kcID, err := s.idp.InviteUser(ctx, in.Username, in.Email, role)
	if err != nil {
		return nil, err
	}

	u := &model.User{
		KeycloakID: kcID,
		Username:   in.Username,
		Email:      in.Email,
		Role:       role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user record: %w", err)
	}
	if err := s.projects.AddMember(ctx, p, u); err != nil {
		return nil, fmt.Errorf("add project member: %w", err)
	}
	return u, nil
}

func (s *projectService) ListMembers(ctx context.Context, projectID uuid.UUID) ([]model.User, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, orNotFound(err, fmt.Sprintf("project %s", projectID))
	}
	return s.projects.Members(ctx, projectID)
}

func (s *projectService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.projects.GetByID(ctx, id); err != nil {
		return orNotFound(err, fmt.Sprintf("project %s", id))
	}
	return s.projects.Delete(ctx, id)
}

func (s *projectService) resolveMembers(ctx context.Context, ids []uuid.UUID) ([]model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	// Dedupe first so a repeated id is not misread as unknown.
	seen := make(map[uuid.UUID]struct{}, len(ids))
	uniq := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}
	members, err := s.users.ListByIDs(ctx, uniq)
	if err != nil {
		return nil, fmt.Errorf("resolve members: %w", err)
	}
	if len(members) != len(uniq) {
		return nil, fmt.Errorf("one or more member ids are unknown: %w", apperr.ErrBadRequest)
	}
	return members, nil
}
