package middleware

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/planhub-io/planhub/internal/config"
	"github.com/planhub-io/planhub/internal/modules/model"
	"github.com/planhub-io/planhub/internal/modules/repo"
	"github.com/planhub-io/planhub/internal/modules/serializer"
)

// CtxUser is the gin context key holding the authenticated *model.User.
const CtxUser = "user"

type realmClaims struct {
	jwt.RegisteredClaims
	PreferredUsername string `json:"preferred_username"`
	RealmAccess       struct {
		Roles []string `json:"roles"`
	} `json:"realm_access"`
}

// ParseRealmPublicKey loads the RS256 verification key for access tokens
// issued by the realm.
func ParseRealmPublicKey(cfg *config.Config) (*rsa.PublicKey, error) {
	pem := cfg.Keycloak.PublicKeyPEM
	if !strings.Contains(pem, "BEGIN") {
		pem = "-----BEGIN PUBLIC KEY-----\n" + pem + "\n-----END PUBLIC KEY-----"
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
	if err != nil {
		return nil, fmt.Errorf("parse realm public key: %w", err)
	}
	return key, nil
}

// Auth authenticates requests with a realm-issued bearer token and resolves
// the local user row mirrored from the identity provider. The user is set in
// the context and its id stamped on the current span.
func Auth(key *rsa.PublicKey, users repo.UserRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, serializer.AuthErr("Unauthorized"))
			return
		}
		raw := strings.TrimPrefix(auth, "Bearer ")

		var claims realmClaims
		_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
			return key, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, serializer.AuthErr("Unauthorized"))
			return
		}

		kcID, err := uuid.Parse(claims.Subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, serializer.AuthErr("Unauthorized"))
			return
		}

		user, err := users.GetByKeycloakID(c.Request.Context(), kcID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, serializer.AuthErr("Unauthorized"))
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, serializer.DBErr("", err))
			return
		}

		// Realm roles win over the mirrored column when they disagree.
		if role := pickRole(claims.RealmAccess.Roles); role != "" {
			user.Role = role
		}

		span := trace.SpanFromContext(c.Request.Context())
		if span.SpanContext().IsValid() {
			span.SetAttributes(attribute.String("user_id", user.ID.String()))
		}

		c.Set(CtxUser, user)
		c.Next()
	}
}

// pickRole selects the most privileged recognized realm role.
func pickRole(roles []string) string {
	var picked string
	for _, r := range roles {
		switch r {
		case model.RoleAdmin:
			return model.RoleAdmin
		case model.RoleProjectManager:
			picked = model.RoleProjectManager
		case model.RoleDeveloper:
			if picked == "" {
				picked = model.RoleDeveloper
			}
		}
	}
	return picked
}

// CurrentUser returns the authenticated user set by Auth.
func CurrentUser(c *gin.Context) *model.User {
	v, _ := c.Get(CtxUser)
	u, _ := v.(*model.User)
	return u
}
