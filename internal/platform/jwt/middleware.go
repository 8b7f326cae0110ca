package jwtmw

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pricing_backend/internal/shared/authz"
)

const (
	ContextUserID = "userID"
	ContextEmail  = "email"
	ContextRole   = authz.ContextRole
)

// AccessTokenParser はアクセストークンの検証を抽象化します。
type AccessTokenParser interface {
	ParseAccessToken(tokenStr string) (*AccessClaims, error)
}

// AuthRequired returns a Gin middleware function that validates JWT access tokens
// and restricts access to authenticated users only.
func AuthRequired(parser AccessTokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get Authorization header
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimPrefix(auth, "Bearer ")

		// 2. Verify signature, expiry and token type
		claims, err := parser.ParseAccessToken(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		// 3. Expose identity to downstream handlers
		c.Set(ContextUserID, userID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRole, string(claims.Role))
		c.Next()
	}
}
