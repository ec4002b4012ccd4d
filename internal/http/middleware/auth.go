package middleware

import (
	"net/http"
	"strings"

	"ferryops/internal/domain"
	"ferryops/internal/services"

	"github.com/gin-gonic/gin"
)

const authContextKey = "auth_context"

// RequireAuth validates the bearer token and, when roles are given,
// restricts the route to those roles.
func RequireAuth(auth services.AuthService, roles ...string) gin.HandlerFunc {
	allowed := map[string]bool{}
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		ctx, err := auth.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		if len(allowed) > 0 && !allowed[ctx.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
			return
		}
		c.Set(authContextKey, ctx)
		c.Next()
	}
}

// GetAuthContext returns the caller identity stored by RequireAuth.
func GetAuthContext(c *gin.Context) (domain.RequestContext, bool) {
	v, ok := c.Get(authContextKey)
	if !ok {
		return domain.RequestContext{}, false
	}
	ctx, ok := v.(domain.RequestContext)
	return ctx, ok
}
