package authz

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ContextRole is the gin context key holding the authenticated user's role.
// It is populated by the JWT middleware.
const ContextRole = "role"

// Require returns a middleware that aborts with 403 unless the caller's role is
// allowed to perform action. It must run after authentication.
func Require(action Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := Role(c.GetString(ContextRole))
		if !Allowed(role, action) {
			slog.Warn("permission denied", "action", string(action), "role", string(role), "remote_addr", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
			return
		}
		c.Next()
	}
}
