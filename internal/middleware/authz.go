package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/planhub-io/planhub/internal/modules/model"
	"github.com/planhub-io/planhub/internal/modules/serializer"
)

// Operation names the protected actions checked by RequireOp. The policy
// table below is the single authorization source; handlers never test roles
// directly.
type Operation string

const (
	OpProjectWrite  Operation = "project:write"
	OpProjectDelete Operation = "project:delete"
	OpMemberInvite  Operation = "member:invite"
	OpUserManage    Operation = "user:manage"
	OpTaskWrite     Operation = "task:write"
	OpTaskDelete    Operation = "task:delete"
)

var policy = map[Operation]map[string]bool{
	OpProjectWrite:  {model.RoleAdmin: true, model.RoleProjectManager: true},
	OpProjectDelete: {model.RoleAdmin: true},
	OpMemberInvite:  {model.RoleAdmin: true, model.RoleProjectManager: true},
	OpUserManage:    {model.RoleAdmin: true},
	OpTaskWrite:     {model.RoleAdmin: true, model.RoleProjectManager: true, model.RoleDeveloper: true},
	OpTaskDelete:    {model.RoleAdmin: true, model.RoleProjectManager: true},
}

// Allowed reports whether role may perform op.
func Allowed(op Operation, role string) bool {
	return policy[op][role]
}

// RequireOp gates a route on the policy table. It must run after Auth.
func RequireOp(op Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, serializer.AuthErr("Unauthorized"))
			return
		}
		if !Allowed(op, user.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, serializer.ForbiddenErr("insufficient role"))
			return
		}
		c.Next()
	}
}
