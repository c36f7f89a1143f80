package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/planhub-io/planhub/internal/config"
	"github.com/planhub-io/planhub/internal/infra/identity"
	"github.com/planhub-io/planhub/internal/modules/model"
	"github.com/planhub-io/planhub/internal/pkg/apperr"
)

func newIdentityClient(t *testing.T, baseURL string) *identity.Client {
	t.Helper()
	cfg := &config.Config{}
	cfg.Keycloak.BaseURL = baseURL
	cfg.Keycloak.Realm = "planhub"
	cfg.Keycloak.ClientID = "admin-cli"
	cfg.Keycloak.ClientSecret = "s"
	cfg.Keycloak.AdminTimeoutS = 5
	return identity.NewClient(cfg, zap.NewNop())
}

// keycloakStub answers the admin API calls an invite makes: token grant,
// duplicate searches, user create, role mapping and invitation mail.
func keycloakStub(t *testing.T, createdID uuid.UUID) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/protocol/openid-connect/token"):
			_, _ = w.Write([]byte(`{"access_token":"tok","expires_in":300}`))
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/users"):
			_, _ = w.Write([]byte(`[]`))
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/users"):
			w.Header().Set("Location", srv.URL+"/admin/realms/planhub/users/"+createdID.String())
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/roles/"):
			_, _ = w.Write([]byte(`{"id":"r1","name":"developer"}`))
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	return srv
}

func TestProjectService_Create(t *testing.T) {
	creator := uuid.New()

	t.Run("defaults status and resolves members", func(t *testing.T) {
		memberID := uuid.New()
		members := []model.User{{ID: memberID, Username: "bob"}}

		projects := &MockProjectRepo{}
		users := &MockUserRepo{}
		users.On("ListByIDs", mock.Anything, []uuid.UUID{memberID}).Return(members, nil)
		projects.On("Create", mock.Anything, mock.MatchedBy(func(p *model.Project) bool {
			return p.Status == model.ProjectPlanned && len(p.Members) == 1 && p.CreatedByID == creator
		})).Return(nil)

		svc := NewProjectService(projects, users, nil)
		p, err := svc.Create(context.Background(), CreateProjectInput{
			Name:        "Q4 launch",
			MemberIDs:   []uuid.UUID{memberID},
			CreatedByID: creator,
		})
		require.NoError(t, err)

		assert.False(t, p.CreatedAt.IsZero())
		projects.AssertExpectations(t)
	})

	t.Run("name required", func(t *testing.T) {
		svc := NewProjectService(&MockProjectRepo{}, &MockUserRepo{}, nil)

		_, err := svc.Create(context.Background(), CreateProjectInput{})

		assert.ErrorIs(t, err, apperr.ErrBadRequest)
	})

	t.Run("unknown member id", func(t *testing.T) {
		users := &MockUserRepo{}
		users.On("ListByIDs", mock.Anything, mock.Anything).Return([]model.User{}, nil)

		svc := NewProjectService(&MockProjectRepo{}, users, nil)
		_, err := svc.Create(context.Background(), CreateProjectInput{
			Name:      "Q4 launch",
			MemberIDs: []uuid.UUID{uuid.New()},
		})

		assert.ErrorIs(t, err, apperr.ErrBadRequest)
	})
}

func TestProjectService_Update_MemberReplacement(t *testing.T) {
	projectID := uuid.New()
	existing := &model.Project{ID: projectID, Name: "Q4 launch", Status: model.ProjectPlanned}

	t.Run("member_ids replaces the set wholesale", func(t *testing.T) {
		newMember := uuid.New()
		resolved := []model.User{{ID: newMember}}

		projects := &MockProjectRepo{}
		users := &MockUserRepo{}
		projects.On("GetByID", mock.Anything, projectID).Return(existing, nil)
		projects.On("Update", mock.Anything, existing).Return(nil)
		users.On("ListByIDs", mock.Anything, []uuid.UUID{newMember}).Return(resolved, nil)
		projects.On("ReplaceMembers", mock.Anything, existing, resolved).Return(nil)

		svc := NewProjectService(projects, users, nil)
		ids := []uuid.UUID{newMember}
		p, err := svc.Update(context.Background(), projectID, UpdateProjectInput{MemberIDs: &ids})
		require.NoError(t, err)

		assert.Equal(t, resolved, p.Members)
		projects.AssertExpectations(t)
	})

	t.Run("bad member_ids rejects the update before any write", func(t *testing.T) {
		projects := &MockProjectRepo{}
		users := &MockUserRepo{}
		projects.On("GetByID", mock.Anything, projectID).Return(existing, nil)
		users.On("ListByIDs", mock.Anything, mock.Anything).Return([]model.User{}, nil)

		svc := NewProjectService(projects, users, nil)
		name := "renamed"
		ids := []uuid.UUID{uuid.New()}
		_, err := svc.Update(context.Background(), projectID, UpdateProjectInput{Name: &name, MemberIDs: &ids})

		assert.ErrorIs(t, err, apperr.ErrBadRequest)
		projects.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		projects.AssertNotCalled(t, "ReplaceMembers", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("duplicate member ids resolve once", func(t *testing.T) {
		memberID := uuid.New()
		resolved := []model.User{{ID: memberID}}

		projects := &MockProjectRepo{}
		users := &MockUserRepo{}
		projects.On("GetByID", mock.Anything, projectID).Return(existing, nil)
		users.On("ListByIDs", mock.Anything, []uuid.UUID{memberID}).Return(resolved, nil)
		projects.On("Update", mock.Anything, existing).Return(nil)
		projects.On("ReplaceMembers", mock.Anything, existing, resolved).Return(nil)

		svc := NewProjectService(projects, users, nil)
		ids := []uuid.UUID{memberID, memberID}
		p, err := svc.Update(context.Background(), projectID, UpdateProjectInput{MemberIDs: &ids})
		require.NoError(t, err)

		assert.Equal(t, resolved, p.Members)
		users.AssertExpectations(t)
	})

	t.Run("absent member_ids leaves membership alone", func(t *testing.T) {
		projects := &MockProjectRepo{}
		projects.On("GetByID", mock.Anything, projectID).Return(existing, nil)
		projects.On("Update", mock.Anything, existing).Return(nil)

		svc := NewProjectService(projects, &MockUserRepo{}, nil)
		name := "Q4 launch v2"
		_, err := svc.Update(context.Background(), projectID, UpdateProjectInput{Name: &name})
		require.NoError(t, err)

		projects.AssertNotCalled(t, "ReplaceMembers", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing project", func(t *testing.T) {
		projects := &MockProjectRepo{}
		projects.On("GetByID", mock.Anything, projectID).Return(nil, gorm.ErrRecordNotFound)

		svc := NewProjectService(projects, &MockUserRepo{}, nil)
		_, err := svc.Update(context.Background(), projectID, UpdateProjectInput{})

		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestProjectService_InviteMember(t *testing.T) {
	projectID := uuid.New()
	project := &model.Project{ID: projectID, Name: "Q4 launch"}
	kcID := uuid.New()

	t.Run("provisions account, mirrors locally, joins project", func(t *testing.T) {
		srv := keycloakStub(t, kcID)
		defer srv.Close()

		projects := &MockProjectRepo{}
		users := &MockUserRepo{}
		projects.On("GetByID", mock.Anything, projectID).Return(project, nil)
		users.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
			return u.KeycloakID == kcID && u.Username == "carol" && u.Role == model.RoleDeveloper
		})).Return(nil)
		projects.On("AddMember", mock.Anything, project, mock.Anything).Return(nil)

		svc := NewProjectService(projects, users, newIdentityClient(t, srv.URL))
		u, err := svc.InviteMember(context.Background(), projectID, InviteMemberInput{
			Username: "carol",
			Email:    "carol@example.com",
		})
		require.NoError(t, err)

		assert.Equal(t, kcID, u.KeycloakID)
		projects.AssertExpectations(t)
		users.AssertExpectations(t)
	})

	t.Run("username and email required", func(t *testing.T) {
		projects := &MockProjectRepo{}
		projects.On("GetByID", mock.Anything, projectID).Return(project, nil)

		svc := NewProjectService(projects, &MockUserRepo{}, nil)
		_, err := svc.InviteMember(context.Background(), projectID, InviteMemberInput{Username: "carol"})

		assert.ErrorIs(t, err, apperr.ErrBadRequest)
	})
}

func TestProjectService_ListMembers(t *testing.T) {
	projectID := uuid.New()

	t.Run("resolves the current member set", func(t *testing.T) {
		members := []model.User{{Username: "alice"}, {Username: "bob"}}

		projects := &MockProjectRepo{}
		projects.On("GetByID", mock.Anything, projectID).Return(&model.Project{ID: projectID}, nil)
		projects.On("Members", mock.Anything, projectID).Return(members, nil)

		svc := NewProjectService(projects, &MockUserRepo{}, nil)
		got, err := svc.ListMembers(context.Background(), projectID)
		require.NoError(t, err)

		assert.Equal(t, members, got)
	})

	t.Run("missing project", func(t *testing.T) {
		projects := &MockProjectRepo{}
		projects.On("GetByID", mock.Anything, projectID).Return(nil, gorm.ErrRecordNotFound)

		svc := NewProjectService(projects, &MockUserRepo{}, nil)
		_, err := svc.ListMembers(context.Background(), projectID)

		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestProjectService_Delete(t *testing.T) {
	projectID := uuid.New()

	t.Run("delegates to the repository", func(t *testing.T) {
		projects := &MockProjectRepo{}
		projects.On("GetByID", mock.Anything, projectID).Return(&model.Project{ID: projectID}, nil)
		projects.On("Delete", mock.Anything, projectID).Return(nil)

		svc := NewProjectService(projects, &MockUserRepo{}, nil)
		require.NoError(t, svc.Delete(context.Background(), projectID))

		projects.AssertExpectations(t)
	})

	t.Run("missing project", func(t *testing.T) {
		projects := &MockProjectRepo{}
		projects.On("GetByID", mock.Anything, projectID).Return(nil, gorm.ErrRecordNotFound)

		svc := NewProjectService(projects, &MockUserRepo{}, nil)
		err := svc.Delete(context.Background(), projectID)

		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}
