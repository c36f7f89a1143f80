package middleware

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/planhub-io/planhub/internal/modules/model"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, u *model.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) GetByKeycloakID(ctx context.Context, keycloakID uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, keycloakID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) List(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *mockUserRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, u *model.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func signToken(t *testing.T, key *rsa.PrivateKey, sub string, roles []string, expired bool) string {
	t.Helper()
	exp := time.Now().Add(time.Hour)
	if expired {
		exp = time.Now().Add(-time.Hour)
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"sub":                sub,
		"preferred_username": "alice",
		"realm_access":       map[string]any{"roles": roles},
		"exp":                exp.Unix(),
		"iat":                time.Now().Add(-time.Minute).Unix(),
	})
	raw, err := tok.SignedString(key)
	require.NoError(t, err)
	return raw
}

func TestAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	kcID := uuid.New()
	localUser := &model.User{ID: uuid.New(), KeycloakID: kcID, Username: "alice", Role: model.RoleDeveloper}

	serve := func(users *mockUserRepo, authHeader string) (*httptest.ResponseRecorder, *model.User) {
		var seen *model.User
		r := gin.New()
		r.GET("/me", Auth(&priv.PublicKey, users), func(c *gin.Context) {
			seen = CurrentUser(c)
			c.Status(http.StatusOK)
		})

		req := httptest.NewRequest("GET", "/me", nil)
		if authHeader != "" {
			req.Header.Set("Authorization", authHeader)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w, seen
	}

	t.Run("valid token resolves the local user", func(t *testing.T) {
		users := &mockUserRepo{}
		users.On("GetByKeycloakID", mock.Anything, kcID).Return(localUser, nil)

		tok := signToken(t, priv, kcID.String(), []string{model.RoleDeveloper}, false)
		w, seen := serve(users, "Bearer "+tok)

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, seen)
		assert.Equal(t, localUser.ID, seen.ID)
	})

	t.Run("realm roles override the mirrored role", func(t *testing.T) {
		users := &mockUserRepo{}
		fresh := *localUser
		users.On("GetByKeycloakID", mock.Anything, kcID).Return(&fresh, nil)

		tok := signToken(t, priv, kcID.String(), []string{model.RoleAdmin, model.RoleDeveloper}, false)
		_, seen := serve(users, "Bearer "+tok)

		require.NotNil(t, seen)
		assert.Equal(t, model.RoleAdmin, seen.Role)
	})

	t.Run("missing header", func(t *testing.T) {
		w, _ := serve(&mockUserRepo{}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		tok := signToken(t, priv, kcID.String(), nil, true)
		w, _ := serve(&mockUserRepo{}, "Bearer "+tok)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("token signed with a different key", func(t *testing.T) {
		other, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)

		tok := signToken(t, other, kcID.String(), nil, false)
		w, _ := serve(&mockUserRepo{}, "Bearer "+tok)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("no local mirror for the account", func(t *testing.T) {
		users := &mockUserRepo{}
		users.On("GetByKeycloakID", mock.Anything, kcID).Return(nil, gorm.ErrRecordNotFound)

		tok := signToken(t, priv, kcID.String(), nil, false)
		w, _ := serve(users, "Bearer "+tok)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestPickRole(t *testing.T) {
	assert.Equal(t, model.RoleAdmin, pickRole([]string{"offline_access", model.RoleDeveloper, model.RoleAdmin}))
	assert.Equal(t, model.RoleProjectManager, pickRole([]string{model.RoleDeveloper, model.RoleProjectManager}))
	assert.Equal(t, model.RoleDeveloper, pickRole([]string{"uma_authorization", model.RoleDeveloper}))
	assert.Equal(t, "", pickRole([]string{"offline_access"}))
}
