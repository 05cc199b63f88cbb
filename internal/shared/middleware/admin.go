package middleware

import (
	"github.com/gin-gonic/gin"

	"pricing-service/internal/shared/response"
)

const (
	RoleAdmin = "admin"
	// RoleService is carried by internal callers such as the order flow
	RoleService = "service"
)

// AdminMiddleware checks if user has admin role
func AdminMiddleware() gin.HandlerFunc {
	return RequireRole(RoleAdmin)
}

// RequireRole lets the request through when the token role is one of roles.
// Must run after AuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get(ContextRole)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}

		response.Forbidden(c, "Access denied: insufficient role")
		c.Abort()
	}
}
