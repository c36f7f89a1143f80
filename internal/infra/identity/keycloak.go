package identity

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/planhub-io/planhub/internal/config"
	"github.com/planhub-io/planhub/internal/pkg/apperr"
)

// Client is the HTTP client for the Keycloak admin API. All user
// provisioning (invite, update, delete) is delegated here; local User rows
// only mirror the identity-provider state.
type Client struct {
	BaseURL    string
	Realm      string
	HTTPClient *http.Client
	Logger     *zap.Logger

	clientID     string
	clientSecret string

	mu          sync.Mutex
	adminToken  string
	tokenExpiry time.Time
}

func NewClient(cfg *config.Config, log *zap.Logger) *Client {
	timeout := time.Duration(cfg.Keycloak.AdminTimeoutS) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		BaseURL:      strings.TrimRight(cfg.Keycloak.BaseURL, "/"),
		Realm:        cfg.Keycloak.Realm,
		HTTPClient:   &http.Client{Timeout: timeout},
		Logger:       log,
		clientID:     cfg.Keycloak.ClientID,
		clientSecret: cfg.Keycloak.ClientSecret,
	}
}

// UserRepresentation mirrors the admin API user payload.
type UserRepresentation struct {
	ID              string   `json:"id,omitempty"`
	Username        string   `json:"username"`
	Email           string   `json:"email"`
	FirstName       string   `json:"firstName,omitempty"`
	LastName        string   `json:"lastName,omitempty"`
	Enabled         bool     `json:"enabled"`
	RequiredActions []string `json:"requiredActions,omitempty"`
}

type roleRepresentation struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (c *Client) adminURL(parts ...string) string {
	return c.BaseURL + "/admin/realms/" + c.Realm + "/" + strings.Join(parts, "/")
}

// token returns a cached client-credentials access token, refreshing it
// shortly before expiry.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.adminToken != "" && time.Now().Before(c.tokenExpiry.Add(-10*time.Second)) {
		return c.adminToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	endpoint := c.BaseURL + "/realms/" + c.Realm + "/protocol/openid-connect/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w: %w", apperr.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token grant failed with status %d: %w", resp.StatusCode, apperr.ErrUpstream)
	}

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := sonic.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}

	c.adminToken = out.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(out.ExpiresIn) * time.Second)
	return c.adminToken, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload any) (*http.Response, error) {
	tok, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		raw, err := sonic.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		body = strings.NewReader(string(raw))
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w: %w", apperr.ErrUpstream, err)
	}
	return resp, nil
}

func (c *Client) search(ctx context.Context, params url.Values) ([]UserRepresentation, error) {
	resp, err := c.do(ctx, http.MethodGet, c.adminURL("users")+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user search failed with status %d: %w", resp.StatusCode, apperr.ErrUpstream)
	}

	var users []UserRepresentation
	if err := sonic.Unmarshal(body, &users); err != nil {
		return nil, fmt.Errorf("decode user search response: %w", err)
	}
	return users, nil
}

func (c *Client) UserExistsByEmail(ctx context.Context, email string) (bool, error) {
	params := url.Values{}
	params.Set("email", email)
	params.Set("exact", "true")
	params.Set("max", "1")
	users, err := c.search(ctx, params)
	if err != nil {
		return false, err
	}
	return len(users) > 0, nil
}

func (c *Client) UserExistsByUsername(ctx context.Context, username string) (bool, error) {
	params := url.Values{}
	params.Set("username", username)
	params.Set("exact", "true")
	params.Set("max", "1")
	users, err := c.search(ctx, params)
	if err != nil {
		return false, err
	}
	return len(users) > 0, nil
}

var inviteActions = []string{"UPDATE_PASSWORD", "VERIFY_EMAIL"}

// InviteUser creates the identity-provider account and triggers the
// set-password invitation mail. Role assignment and mail failures are
// logged but do not fail the invite; a duplicate user is a Conflict.
func (c *Client) InviteUser(ctx context.Context, username, email, role string) (uuid.UUID, error) {
	if exists, err := c.UserExistsByUsername(ctx, username); err != nil {
		return uuid.Nil, err
	} else if exists {
		return uuid.Nil, fmt.Errorf("username %q already taken: %w", username, apperr.ErrConflict)
	}
	if exists, err := c.UserExistsByEmail(ctx, email); err != nil {
		return uuid.Nil, err
	} else if exists {
		return uuid.Nil, fmt.Errorf("email %q already taken: %w", email, apperr.ErrConflict)
	}

	rep := UserRepresentation{
		Username:        username,
		Email:           email,
		Enabled:         true,
		RequiredActions: inviteActions,
	}
	resp, err := c.do(ctx, http.MethodPost, c.adminURL("users"), rep)
	if err != nil {
		return uuid.Nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
	case http.StatusConflict:
		return uuid.Nil, fmt.Errorf("user %q already exists: %w", username, apperr.ErrConflict)
	default:
		return uuid.Nil, fmt.Errorf("create user failed with status %d: %w", resp.StatusCode, apperr.ErrUpstream)
	}

	// User id is the last segment of the Location header.
	loc := resp.Header.Get("Location")
	id, err := uuid.Parse(loc[strings.LastIndex(loc, "/")+1:])
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse created user id from %q: %w", loc, err)
	}

	if role != "" {
		if err := c.assignRealmRole(ctx, id, role); err != nil {
			c.Logger.Sugar().Warnw("role assignment failed, user created without role",
				"user_id", id, "role", role, "err", err)
		}
	}

	if err := c.sendActionsEmail(ctx, id); err != nil {
		c.Logger.Sugar().Warnw("invitation email failed, user created anyway",
			"user_id", id, "err", err)
	}

	return id, nil
}

func (c *Client) assignRealmRole(ctx context.Context, userID uuid.UUID, role string) error {
	resp, err := c.do(ctx, http.MethodGet, c.adminURL("roles", role), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read role response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("realm role %q lookup failed with status %d: %w", role, resp.StatusCode, apperr.ErrUpstream)
	}

	var rep roleRepresentation
	if err := sonic.Unmarshal(body, &rep); err != nil {
		return fmt.Errorf("decode role response: %w", err)
	}

	assignResp, err := c.do(ctx, http.MethodPost,
		c.adminURL("users", userID.String(), "role-mappings", "realm"),
		[]roleRepresentation{rep})
	if err != nil {
		return err
	}
	defer assignResp.Body.Close()

	if assignResp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("role mapping failed with status %d: %w", assignResp.StatusCode, apperr.ErrUpstream)
	}
	return nil
}

func (c *Client) sendActionsEmail(ctx context.Context, userID uuid.UUID) error {
	resp, err := c.do(ctx, http.MethodPut,
		c.adminURL("users", userID.String(), "execute-actions-email"), inviteActions)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("execute-actions-email failed with status %d: %w", resp.StatusCode, apperr.ErrUpstream)
	}
	return nil
}

// UpdateUser pushes username/email changes and re-assigns the realm role.
func (c *Client) UpdateUser(ctx context.Context, keycloakID uuid.UUID, username, email, role string) error {
	rep := UserRepresentation{
		Username: username,
		Email:    email,
		Enabled:  true,
	}
	resp, err := c.do(ctx, http.MethodPut, c.adminURL("users", keycloakID.String()), rep)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent:
	case http.StatusNotFound:
		return fmt.Errorf("identity user %s: %w", keycloakID, apperr.ErrNotFound)
	default:
		return fmt.Errorf("update user failed with status %d: %w", resp.StatusCode, apperr.ErrUpstream)
	}

	if role != "" {
		if err := c.assignRealmRole(ctx, keycloakID, role); err != nil {
			c.Logger.Sugar().Warnw("role re-assignment failed", "user_id", keycloakID, "role", role, "err", err)
		}
	}
	return nil
}

// DeleteUser removes the identity-provider account.
func (c *Client) DeleteUser(ctx context.Context, keycloakID uuid.UUID) error {
	resp, err := c.do(ctx, http.MethodDelete, c.adminURL("users", keycloakID.String()), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("identity user %s: %w", keycloakID, apperr.ErrNotFound)
	default:
		return fmt.Errorf("delete user failed with status %d: %w", resp.StatusCode, apperr.ErrUpstream)
	}
}
