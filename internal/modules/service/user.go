package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/planhub-io/planhub/internal/infra/identity"
	"github.com/planhub-io/planhub/internal/modules/model"
	"github.com/planhub-io/planhub/internal/modules/repo"
	"github.com/planhub-io/planhub/internal/pkg/apperr"
)

type UserService interface {
	Invite(ctx context.Context, in InviteUserInput) (*model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, id uuid.UUID, in UpdateUserInput) (*model.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type userService struct {
	users repo.UserRepo
	idp   *identity.Client
	log   *zap.Logger
}

func NewUserService(users repo.UserRepo, idp *identity.Client, log *zap.Logger) UserService {
	return &userService{users: users, idp: idp, log: log}
}

type InviteUserInput struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

// Invite provisions the identity-provider account first; the local row is
// only written once the account exists and carries its id.
func (s *userService) Invite(ctx context.Context, in InviteUserInput) (*model.User, error) {
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
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Role:       role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user record: %w", err)
	}
	return u, nil
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, fmt.Sprintf("user %s", id))
	}
	return u, nil
}

func (s *userService) List(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}

type UpdateUserInput struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Role      *string `json:"role"`
}

// Update writes the identity provider first so that a rejected change never
// leaves the local mirror ahead of the source of truth.
func (s *userService) Update(ctx context.Context, id uuid.UUID, in UpdateUserInput) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, fmt.Sprintf("user %s", id))
	}

	if in.Username != nil {
		u.Username = *in.Username
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		u.LastName = *in.LastName
	}
	if in.Role != nil {
		u.Role = *in.Role
	}
	u.UpdatedAt = time.Now().UTC()

	if err := s.idp.UpdateUser(ctx, u.KeycloakID, u.Username, u.Email, u.Role); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update user record: %w", err)
	}
	return u, nil
}

// Delete removes the identity-provider account before the local row. A user
// already gone upstream is treated as deleted there and still removed locally.
func (s *userService) Delete(ctx context.Context, id uuid.UUID) error {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return orNotFound(err, fmt.Sprintf("user %s", id))
	}

	if err := s.idp.DeleteUser(ctx, u.KeycloakID); err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		s.log.Sugar().Warnw("identity account already absent, removing local record",
			"user_id", id, "keycloak_id", u.KeycloakID)
	}
	return s.users.Delete(ctx, id)
}
